package service

import (
	"context"
	"fmt"
	"net/url"

	"kolaboree-backend/internal/model"
	"kolaboree-backend/internal/pkg/cloud"
	"kolaboree-backend/internal/pkg/logger"
)

const (
	WorkspaceOnline  = "online"
	WorkspaceOffline = "offline"
)

type WorkspaceService struct {
	manager *cloud.Manager
	logger  *logger.Logger
}

func NewWorkspaceService(manager *cloud.Manager, logger *logger.Logger) *WorkspaceService {
	return &WorkspaceService{
		manager: manager,
		logger:  logger,
	}
}

// MyWorkspaces returns one workspace per node across all live connections.
// Without any connection the demo workspaces are returned instead.
func (s *WorkspaceService) MyWorkspaces(ctx context.Context) []model.Workspace {
	ids := s.manager.ConnectionIDs()
	if len(ids) == 0 {
		return DemoWorkspaces()
	}

	workspaces := []model.Workspace{}
	for _, id := range ids {
		for _, node := range s.manager.ListNodes(ctx, id) {
			workspaces = append(workspaces, workspaceFor(node))
		}
	}
	s.logger.Debugf("built %d workspaces from %d connections", len(workspaces), len(ids))
	return workspaces
}

func workspaceFor(node model.Node) model.Workspace {
	ws := model.Workspace{
		ID:     fmt.Sprintf("ws-%s-%s", node.ConnectionID, node.ID),
		Name:   node.Name,
		Status: WorkspaceOffline,
		Node:   node,
	}
	if node.State == "running" {
		ws.Status = WorkspaceOnline
		if len(node.IPAddresses) > 0 {
			u := consoleURL(node.IPAddresses[0])
			ws.ConnectionURL = &u
		}
	}
	return ws
}

// consoleURL points at the web console for host. The client sends the login,
// username included, as the first websocket message.
func consoleURL(host string) string {
	q := url.Values{}
	q.Set("host", host)
	q.Set("port", "22")
	return "/api/v1/console/ws?" + q.Encode()
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// DemoWorkspaces is the fixed sample set shown before any cloud is connected.
func DemoWorkspaces() []model.Workspace {
	return []model.Workspace{
		{
			ID:            "ws-1",
			Name:          "Development Environment",
			Status:        WorkspaceOnline,
			ConnectionURL: strPtr("https://workspace1.example.com"),
			Node: model.Node{
				ID:           "demo-vm-1",
				Name:         "dev-vm-001",
				State:        "running",
				ProviderType: "gcp",
				ConnectionID: "demo",
				IPAddresses:  []string{"10.0.1.100"},
				CPUCount:     intPtr(4),
				MemoryMB:     intPtr(8192),
				Extra:        map[string]any{},
			},
		},
		{
			ID:            "ws-2",
			Name:          "Testing Container",
			Status:        WorkspaceOnline,
			ConnectionURL: strPtr("https://workspace2.example.com"),
			Node: model.Node{
				ID:           "demo-container-1",
				Name:         "test-container-001",
				State:        "running",
				ProviderType: "lxd",
				ConnectionID: "demo",
				IPAddresses:  []string{"10.0.2.50"},
				CPUCount:     intPtr(2),
				MemoryMB:     intPtr(4096),
				Extra:        map[string]any{},
			},
		},
		{
			ID:     "ws-3",
			Name:   "Production Server",
			Status: WorkspaceOffline,
			Node: model.Node{
				ID:           "demo-vm-2",
				Name:         "prod-vm-001",
				State:        "stopped",
				ProviderType: "aws",
				ConnectionID: "demo",
				IPAddresses:  []string{},
				CPUCount:     intPtr(8),
				MemoryMB:     intPtr(16384),
				Extra:        map[string]any{},
			},
		},
	}
}
