package cloud

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/canonical/lxd/shared/api"
	"google.golang.org/api/compute/v1"

	"kolaboree-backend/internal/model"
	"kolaboree-backend/internal/pkg/events"
	"kolaboree-backend/internal/pkg/logger"
)

const testPEM = "-----BEGIN CERTIFICATE-----\nMIIBszCCAVmgAwIBAgIUTEST\n-----END CERTIFICATE-----\n"

func newTestManager(t *testing.T, options ...Option) *Manager {
	t.Helper()
	m := NewManager(Options{CredentialDir: t.TempDir()}, logger.NewNop(), options...)
	t.Cleanup(m.Close)
	return m
}

// fakeGCE is an in-memory Compute Engine zone.
type fakeGCE struct {
	mu        sync.Mutex
	instances []*compute.Instance
	listErr   error
	calls     []string
	lists     int
	projects  []string
	zones     []string
}

func (f *fakeGCE) ValidateAccess(_ context.Context, project, zone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects = append(f.projects, project)
	f.zones = append(f.zones, zone)
	return f.listErr
}

func (f *fakeGCE) ListInstances(context.Context, string, string) ([]*compute.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.instances, nil
}

func (f *fakeGCE) record(op, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+" "+name)
	return nil
}

func (f *fakeGCE) StartInstance(_ context.Context, _, _, name string) error {
	return f.record("start", name)
}

func (f *fakeGCE) StopInstance(_ context.Context, _, _, name string) error {
	return f.record("stop", name)
}

func (f *fakeGCE) ResetInstance(_ context.Context, _, _, name string) error {
	return f.record("reset", name)
}

func (f *fakeGCE) dialer() GCEDialer {
	return func(context.Context, []byte) (GCEService, error) { return f, nil }
}

// fakeLXD is an in-memory LXD server.
type fakeLXD struct {
	mu           sync.Mutex
	instances    map[string]*api.InstanceFull
	listErr      error
	states       []string
	created      []api.InstancesPost
	trusted      []string
	disconnected bool
}

func newFakeLXD(instances ...api.InstanceFull) *fakeLXD {
	f := &fakeLXD{instances: map[string]*api.InstanceFull{}}
	for i := range instances {
		inst := instances[i]
		f.instances[inst.Name] = &inst
	}
	return f
}

func (f *fakeLXD) Instances() ([]api.InstanceFull, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]api.InstanceFull, 0, len(f.instances))
	for _, inst := range f.instances {
		out = append(out, *inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeLXD) Instance(name string) (*api.InstanceFull, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.instances[name]
	if !ok {
		return nil, fmt.Errorf("instance %s: %w", name, ErrNotFound)
	}
	copied := *inst
	return &copied, nil
}

func (f *fakeLXD) SetState(name, action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.instances[name]
	if !ok {
		return fmt.Errorf("instance %s: %w", name, ErrNotFound)
	}
	f.states = append(f.states, action+" "+name)
	switch action {
	case "start", "restart":
		inst.Status = "Running"
	case "stop":
		inst.Status = "Stopped"
	}
	return nil
}

func (f *fakeLXD) Create(req api.InstancesPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.instances[req.Name]; exists {
		return errors.New("instance already exists")
	}
	f.created = append(f.created, req)
	f.instances[req.Name] = &api.InstanceFull{
		Instance: api.Instance{
			Name:           req.Name,
			Status:         "Stopped",
			Type:           string(req.Type),
			Architecture:   req.Architecture,
			Config:         req.Config,
			Devices:        req.Devices,
			Ephemeral:      req.Ephemeral,
			Profiles:       req.Profiles,
			Stateful:       req.Stateful,
			Description:    req.Description,
			ExpandedConfig: req.Config,
		},
	}
	return nil
}

func (f *fakeLXD) TrustCertificate(name, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trusted = append(f.trusted, name+":"+token)
	return nil
}

func (f *fakeLXD) Disconnect() {
	f.mu.Lock()
	f.disconnected = true
	f.mu.Unlock()
}

// lxdDialRecorder records every dial and the certificate contents visible at
// dial time.
type lxdDialRecorder struct {
	client    *fakeLXD
	err       error
	fail      map[string]bool
	endpoints []string
	tls       []LXDTLS
	certs     []string
}

func (r *lxdDialRecorder) dial(endpoint string, tls LXDTLS) (LXDClient, error) {
	r.endpoints = append(r.endpoints, endpoint)
	r.tls = append(r.tls, tls)
	if tls.CertPath != "" {
		data, _ := os.ReadFile(tls.CertPath)
		r.certs = append(r.certs, string(data))
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.fail[endpoint] {
		return nil, fmt.Errorf("dial %q refused", endpoint)
	}
	return r.client, nil
}

// stubProvider lets tests script Connect.
type stubProvider struct {
	providerType ProviderType
	connect      func(ctx context.Context, connectionID string) (Session, error)
}

func (p *stubProvider) Type() ProviderType { return p.providerType }
func (p *stubProvider) Placeholder() bool  { return false }
func (p *stubProvider) Connect(ctx context.Context, connectionID string, _ Credentials, _ string) (Session, error) {
	return p.connect(ctx, connectionID)
}

type panicSession struct {
	unsupportedOps
}

func (panicSession) ListNodes(context.Context) ([]model.Node, error) {
	panic("driver exploded")
}

func (panicSession) Close() error { return nil }

// hookSession runs onClose from Close.
type hookSession struct {
	unsupportedOps
	onClose func()
}

func (hookSession) ListNodes(context.Context) ([]model.Node, error) { return nil, nil }

func (s hookSession) Close() error {
	s.onClose()
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
