package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"kolaboree-backend/internal/model"
	"kolaboree-backend/internal/pkg/cloud"
	"kolaboree-backend/internal/pkg/logger"
	"kolaboree-backend/pkg/utils"
)

const (
	ConnectionStatusConnected    = "connected"
	ConnectionStatusError        = "error"
	ConnectionStatusDisconnected = "disconnected"
)

// CloudService keeps the API-facing record of each cloud connection next to
// the manager's live registry.
type CloudService struct {
	manager *cloud.Manager
	logger  *logger.Logger

	mu          sync.RWMutex
	connections map[string]*model.CloudConnection
}

func NewCloudService(manager *cloud.Manager, logger *logger.Logger) *CloudService {
	return &CloudService{
		manager:     manager,
		logger:      logger,
		connections: make(map[string]*model.CloudConnection),
	}
}

var nodeActions = map[string]func(*cloud.Manager, context.Context, string, string) error{
	"start":   (*cloud.Manager).StartNodeResult,
	"stop":    (*cloud.Manager).StopNodeResult,
	"restart": (*cloud.Manager).RestartNodeResult,
}

func (s *CloudService) CreateConnection(ctx context.Context, req *model.CloudConnectionCreateRequest) (*model.CloudConnection, error) {
	if !s.manager.IsSupported(req.ProviderType) {
		return nil, utils.NewValidationError("provider_type", req.ProviderType)
	}

	connectionID := uuid.New().String()
	if err := s.manager.ConnectResult(ctx, connectionID, req.ProviderType, req.Credentials, req.Region); err != nil {
		apiErr := utils.NewConnectError(req.ProviderType)
		apiErr.Details = err.Error()
		return nil, apiErr
	}

	now := time.Now().UTC()
	conn := &model.CloudConnection{
		ID:           connectionID,
		Name:         req.Name,
		ProviderType: req.ProviderType,
		Region:       req.Region,
		Status:       ConnectionStatusConnected,
		CreatedAt:    now,
		LastChecked:  &now,
	}

	s.mu.Lock()
	s.connections[connectionID] = conn
	s.mu.Unlock()

	s.logger.Infof("cloud connection %s (%s) created", connectionID, req.ProviderType)
	return copyConnection(conn), nil
}

// ListConnections returns every recorded connection, oldest first.
func (s *CloudService) ListConnections() []model.CloudConnection {
	s.mu.RLock()
	out := make([]model.CloudConnection, 0, len(s.connections))
	for _, conn := range s.connections {
		out = append(out, *copyConnection(conn))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *CloudService) GetConnection(connectionID string) (*model.CloudConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conn, ok := s.connections[connectionID]
	if !ok {
		return nil, utils.NewConnectionNotFoundError(connectionID)
	}
	return copyConnection(conn), nil
}

// Status reports the manager's view of the connection and refreshes the
// record's last-checked time.
func (s *CloudService) Status(connectionID string) cloud.ConnectionStatus {
	status := s.manager.GetConnectionStatus(connectionID)

	s.mu.Lock()
	if conn, ok := s.connections[connectionID]; ok {
		now := time.Now().UTC()
		conn.LastChecked = &now
		if status.Status != cloud.StatusConnected {
			conn.Status = ConnectionStatusDisconnected
		}
	}
	s.mu.Unlock()
	return status
}

// ListNodes lists the connection's nodes. A failed listing is reported as an
// empty list and marks the connection record as errored.
func (s *CloudService) ListNodes(ctx context.Context, connectionID string) ([]model.Node, error) {
	if _, err := s.GetConnection(connectionID); err != nil {
		return nil, err
	}

	nodes, err := s.manager.ListNodesResult(ctx, connectionID)
	status := ConnectionStatusConnected
	if err != nil {
		s.logger.Warnf("listing nodes for %s failed: %v", connectionID, err)
		status = ConnectionStatusError
		if cloud.KindOf(err) == cloud.KindNotFound {
			status = ConnectionStatusDisconnected
		}
		nodes = []model.Node{}
	}
	s.touch(connectionID, status)
	return nodes, nil
}

func (s *CloudService) NodeAction(ctx context.Context, connectionID, nodeID, action string) (*model.NodeActionResponse, error) {
	fn, ok := nodeActions[action]
	if !ok {
		return nil, utils.NewValidationError("action", action)
	}
	conn, err := s.GetConnection(connectionID)
	if err != nil {
		return nil, err
	}

	if err := fn(s.manager, ctx, connectionID, nodeID); err != nil {
		if cloud.KindOf(err) == cloud.KindUnsupported {
			return nil, utils.NewNodeUnsupportedError(action, conn.ProviderType)
		}
		apiErr := utils.NewNodeActionError(action, nodeID)
		apiErr.Details = err.Error()
		return nil, apiErr
	}

	return &model.NodeActionResponse{
		Success:      true,
		Action:       action,
		ConnectionID: connectionID,
		NodeID:       nodeID,
	}, nil
}

// CreateNode folds the sizing fields into provider config keys before
// handing the request to the manager.
func (s *CloudService) CreateNode(ctx context.Context, connectionID string, req *model.NodeCreateRequest) (*model.Node, error) {
	if err := utils.ValidateNodeName(req.Name); err != nil {
		return nil, utils.NewValidationError("name", req.Name)
	}
	conn, err := s.GetConnection(connectionID)
	if err != nil {
		return nil, err
	}

	node, err := s.manager.CreateNodeResult(ctx, connectionID, req.Name, NodeConfig(req))
	if err != nil {
		if cloud.KindOf(err) == cloud.KindUnsupported {
			return nil, utils.NewNodeUnsupportedError("create", conn.ProviderType)
		}
		apiErr := utils.NewNodeCreateError(req.Name)
		apiErr.Details = err.Error()
		return nil, apiErr
	}
	return node, nil
}

// NodeConfig builds the provider config for a create request: the image, a
// config map carrying limits.cpu and limits.memory, and a sized root disk
// device when disk_gb is given.
func NodeConfig(req *model.NodeCreateRequest) map[string]any {
	cfg := make(map[string]any, len(req.Config)+2)
	for k, v := range req.Config {
		cfg[k] = v
	}
	if req.CPUCount > 0 {
		cfg["limits.cpu"] = strconv.Itoa(req.CPUCount)
	}
	if req.MemoryMB > 0 {
		cfg["limits.memory"] = fmt.Sprintf("%dMB", req.MemoryMB)
	}

	config := map[string]any{"config": cfg}
	if req.Image != "" {
		config["image"] = req.Image
	}
	if req.DiskGB > 0 {
		config["devices"] = map[string]any{
			"root": map[string]any{
				"type": "disk",
				"path": "/",
				"pool": "default",
				"size": fmt.Sprintf("%dGB", req.DiskGB),
			},
		}
	}
	return config
}

func (s *CloudService) DeleteConnection(connectionID string) error {
	s.mu.Lock()
	_, ok := s.connections[connectionID]
	delete(s.connections, connectionID)
	s.mu.Unlock()

	if !ok {
		return utils.NewConnectionNotFoundError(connectionID)
	}
	s.manager.Disconnect(connectionID)
	s.logger.Infof("cloud connection %s deleted", connectionID)
	return nil
}

func (s *CloudService) Providers() []model.ProviderInfo {
	return s.manager.Providers()
}

func (s *CloudService) touch(connectionID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conn, ok := s.connections[connectionID]; ok {
		now := time.Now().UTC()
		conn.LastChecked = &now
		conn.Status = status
	}
}

func copyConnection(conn *model.CloudConnection) *model.CloudConnection {
	c := *conn
	if conn.LastChecked != nil {
		t := *conn.LastChecked
		c.LastChecked = &t
	}
	return &c
}
