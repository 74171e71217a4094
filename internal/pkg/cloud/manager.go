package cloud

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"kolaboree-backend/internal/model"
	"kolaboree-backend/internal/pkg/events"
	"kolaboree-backend/internal/pkg/logger"
	"kolaboree-backend/internal/pkg/metrics"
)

const (
	StatusConnected = "connected"
	StatusNotFound  = "not_found"
)

// ConnectionStatus is the registry view of one connection id.
type ConnectionStatus struct {
	Status       string `json:"status"`
	Type         string `json:"type,omitempty"`
	ConnectionID string `json:"connection_id,omitempty"`
	Placeholder  bool   `json:"placeholder,omitempty"`
}

type connection struct {
	id           string
	providerType ProviderType
	region       string
	placeholder  bool
	session      Session
	connectedAt  time.Time
}

// Manager is the single entry point for provider-agnostic operations. It owns
// the registry of live connections and dispatches each call to the provider
// registered for the connection's type.
type Manager struct {
	mu          sync.RWMutex
	connections map[string]*connection
	// reserved holds ids whose Connect is in flight.
	reserved map[string]struct{}

	providers map[ProviderType]Provider
	publisher events.Publisher
	logger    *logger.Logger
}

type Option func(*Manager)

// WithProvider registers p, replacing any provider with the same type.
func WithProvider(p Provider) Option {
	return func(m *Manager) {
		m.providers[p.Type()] = p
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(m *Manager) {
		if p != nil {
			m.publisher = p
		}
	}
}

func NewManager(opts Options, log *logger.Logger, options ...Option) *Manager {
	m := &Manager{
		connections: make(map[string]*connection),
		reserved:    make(map[string]struct{}),
		providers:   DefaultProviders(opts),
		publisher:   events.NopPublisher{},
		logger:      log,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Providers lists every dispatchable provider tag, sorted.
func (m *Manager) Providers() []model.ProviderInfo {
	out := make([]model.ProviderInfo, 0, len(m.providers))
	for t, p := range m.providers {
		out = append(out, model.ProviderInfo{Type: string(t), Placeholder: p.Placeholder()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

func (m *Manager) IsSupported(providerType string) bool {
	_, ok := m.providers[ProviderType(providerType)]
	return ok
}

// Connect validates the credentials against the provider and registers the
// connection. Any failure leaves the registry untouched.
func (m *Manager) Connect(ctx context.Context, connectionID, providerType string, creds Credentials, region string) bool {
	return m.ConnectResult(ctx, connectionID, providerType, creds, region) == nil
}

func (m *Manager) ConnectResult(ctx context.Context, connectionID, providerType string, creds Credentials, region string) error {
	provider, ok := m.providers[ProviderType(providerType)]
	if !ok {
		m.logger.Warnf("unsupported provider type: %s", providerType)
		return fmt.Errorf("%w: %s", ErrUnsupported, providerType)
	}

	if err := m.reserve(connectionID); err != nil {
		m.logger.Warnf("rejecting connect for %s: %v", connectionID, err)
		return err
	}
	defer m.release(connectionID)

	m.logger.ConnectionAttempt(providerType, connectionID)
	start := time.Now()

	var session Session
	err := guard(func() error {
		var err error
		session, err = provider.Connect(ctx, connectionID, creds, region)
		return err
	})
	metrics.ObserveProviderOperation(providerType, "connect", start, err == nil)
	if err != nil {
		m.logger.ProviderError(providerType, "connect", err)
		m.emit(ctx, events.Event{Type: events.TypeConnected, ConnectionID: connectionID, ProviderType: providerType})
		return fmt.Errorf("connect %s: %w", providerType, err)
	}

	m.mu.Lock()
	m.connections[connectionID] = &connection{
		id:           connectionID,
		providerType: provider.Type(),
		region:       region,
		placeholder:  provider.Placeholder(),
		session:      session,
		connectedAt:  time.Now().UTC(),
	}
	m.mu.Unlock()

	metrics.ConnectionsActive.WithLabelValues(providerType).Inc()
	m.emit(ctx, events.Event{Type: events.TypeConnected, ConnectionID: connectionID, ProviderType: providerType, Success: true})
	return nil
}

// reserve claims connectionID for an in-flight Connect. Live or in-flight ids
// are rejected so a second session can never replace (and leak) the first.
func (m *Manager) reserve(connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.connections[connectionID]; ok {
		return fmt.Errorf("%w: %s", ErrConflict, connectionID)
	}
	if _, ok := m.reserved[connectionID]; ok {
		return fmt.Errorf("%w: %s", ErrConflict, connectionID)
	}
	m.reserved[connectionID] = struct{}{}
	return nil
}

func (m *Manager) release(connectionID string) {
	m.mu.Lock()
	delete(m.reserved, connectionID)
	m.mu.Unlock()
}

func (m *Manager) lookup(connectionID string) (*connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conn, ok := m.connections[connectionID]
	if !ok {
		return nil, fmt.Errorf("connection %s: %w", connectionID, ErrNotFound)
	}
	return conn, nil
}

// ListNodes returns a fresh listing. Unknown ids and provider failures both
// yield an empty list; use ListNodesResult to tell them apart.
func (m *Manager) ListNodes(ctx context.Context, connectionID string) []model.Node {
	nodes, err := m.ListNodesResult(ctx, connectionID)
	if err != nil {
		return []model.Node{}
	}
	return nodes
}

func (m *Manager) ListNodesResult(ctx context.Context, connectionID string) ([]model.Node, error) {
	conn, err := m.lookup(connectionID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var nodes []model.Node
	err = guard(func() error {
		var err error
		nodes, err = conn.session.ListNodes(ctx)
		return err
	})
	metrics.ObserveProviderOperation(string(conn.providerType), "list", start, err == nil)
	if err != nil {
		m.logger.ProviderError(string(conn.providerType), "list", err)
		return nil, err
	}
	if nodes == nil {
		nodes = []model.Node{}
	}
	return nodes, nil
}

func (m *Manager) StartNode(ctx context.Context, connectionID, nodeID string) bool {
	return m.StartNodeResult(ctx, connectionID, nodeID) == nil
}

func (m *Manager) StopNode(ctx context.Context, connectionID, nodeID string) bool {
	return m.StopNodeResult(ctx, connectionID, nodeID) == nil
}

func (m *Manager) RestartNode(ctx context.Context, connectionID, nodeID string) bool {
	return m.RestartNodeResult(ctx, connectionID, nodeID) == nil
}

func (m *Manager) StartNodeResult(ctx context.Context, connectionID, nodeID string) error {
	return m.nodeAction(ctx, "start", events.TypeNodeStart, connectionID, nodeID, Session.StartNode)
}

func (m *Manager) StopNodeResult(ctx context.Context, connectionID, nodeID string) error {
	return m.nodeAction(ctx, "stop", events.TypeNodeStop, connectionID, nodeID, Session.StopNode)
}

func (m *Manager) RestartNodeResult(ctx context.Context, connectionID, nodeID string) error {
	return m.nodeAction(ctx, "restart", events.TypeNodeRestart, connectionID, nodeID, Session.RestartNode)
}

func (m *Manager) nodeAction(ctx context.Context, action, eventType, connectionID, nodeID string,
	fn func(Session, context.Context, string) error) error {
	conn, err := m.lookup(connectionID)
	if err != nil {
		m.logger.NodeAction(action, connectionID, nodeID, false)
		return err
	}

	start := time.Now()
	err = guard(func() error {
		return fn(conn.session, ctx, nodeID)
	})
	metrics.ObserveProviderOperation(string(conn.providerType), action, start, err == nil)
	if err != nil {
		m.logger.ProviderError(string(conn.providerType), action, err)
	}
	m.logger.NodeAction(action, connectionID, nodeID, err == nil)
	m.emit(ctx, events.Event{
		Type:         eventType,
		ConnectionID: connectionID,
		ProviderType: string(conn.providerType),
		NodeID:       nodeID,
		Success:      err == nil,
	})
	return err
}

// CreateNode creates and starts an instance. It returns nil for providers
// without create support and on any failure.
func (m *Manager) CreateNode(ctx context.Context, connectionID, name string, config map[string]any) *model.Node {
	node, err := m.CreateNodeResult(ctx, connectionID, name, config)
	if err != nil {
		return nil
	}
	return node
}

func (m *Manager) CreateNodeResult(ctx context.Context, connectionID, name string, config map[string]any) (*model.Node, error) {
	conn, err := m.lookup(connectionID)
	if err != nil {
		return nil, err
	}
	if config == nil {
		config = map[string]any{}
	}

	start := time.Now()
	var node *model.Node
	err = guard(func() error {
		var err error
		node, err = conn.session.CreateNode(ctx, name, config)
		return err
	})
	metrics.ObserveProviderOperation(string(conn.providerType), "create", start, err == nil)
	if err == nil && node == nil {
		err = fmt.Errorf("create %s: provider returned no node", name)
	}
	if err != nil {
		m.logger.ProviderError(string(conn.providerType), "create", err)
	}

	ev := events.Event{Type: events.TypeNodeCreate, ConnectionID: connectionID, ProviderType: string(conn.providerType), Success: err == nil}
	if node != nil {
		ev.NodeID = node.ID
	}
	m.emit(ctx, ev)

	if err != nil {
		return nil, err
	}
	return node, nil
}

// Disconnect removes the registry entry and releases the session's resources
// before returning. Unknown ids return false.
func (m *Manager) Disconnect(connectionID string) bool {
	m.mu.Lock()
	conn, ok := m.connections[connectionID]
	if ok {
		delete(m.connections, connectionID)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}

	if err := guard(conn.session.Close); err != nil {
		m.logger.ProviderError(string(conn.providerType), "disconnect", err)
	}

	metrics.ConnectionsActive.WithLabelValues(string(conn.providerType)).Dec()
	m.emit(context.Background(), events.Event{
		Type:         events.TypeDisconnected,
		ConnectionID: connectionID,
		ProviderType: string(conn.providerType),
		Success:      true,
	})
	m.logger.Infof("disconnected %s connection %s", conn.providerType, connectionID)
	return true
}

func (m *Manager) GetConnectionStatus(connectionID string) ConnectionStatus {
	conn, err := m.lookup(connectionID)
	if err != nil {
		return ConnectionStatus{Status: StatusNotFound}
	}
	return ConnectionStatus{
		Status:       StatusConnected,
		Type:         string(conn.providerType),
		ConnectionID: connectionID,
		Placeholder:  conn.placeholder,
	}
}

// ConnectionIDs returns the ids of every live connection, sorted.
func (m *Manager) ConnectionIDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.connections))
	for id := range m.connections {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Close disconnects every live connection.
func (m *Manager) Close() {
	for _, id := range m.ConnectionIDs() {
		m.Disconnect(id)
	}
}

func (m *Manager) emit(ctx context.Context, ev events.Event) {
	if ev.Time == 0 {
		ev.Time = time.Now().Unix()
	}
	if err := m.publisher.Publish(ctx, ev); err != nil {
		m.logger.Warnf("publish %s event: %v", ev.Type, err)
	}
}

// guard runs fn and converts a panic inside a provider into an error so that
// nothing escapes the manager boundary.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	return fn()
}
