package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kolaboree-backend/internal/model"
	"kolaboree-backend/internal/pkg/cloud"
	"kolaboree-backend/internal/pkg/logger"
	"kolaboree-backend/pkg/utils"
)

func newTestCloudService(t *testing.T, options ...cloud.Option) (*CloudService, *cloud.Manager) {
	t.Helper()
	m := cloud.NewManager(cloud.Options{CredentialDir: t.TempDir()}, logger.NewNop(), options...)
	t.Cleanup(m.Close)
	return NewCloudService(m, logger.NewNop()), m
}

func apiCode(t *testing.T, err error) int {
	t.Helper()
	var apiErr *utils.APIError
	require.True(t, errors.As(err, &apiErr), "expected *utils.APIError, got %v", err)
	return apiErr.Code
}

func TestCloudServiceConnectionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestCloudService(t)

	conn, err := svc.CreateConnection(ctx, &model.CloudConnectionCreateRequest{Name: "demo", ProviderType: "aws", Region: "us-east-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, conn.ID)
	assert.Equal(t, ConnectionStatusConnected, conn.Status)
	assert.Equal(t, "us-east-1", conn.Region)
	require.NotNil(t, conn.LastChecked)

	assert.Len(t, svc.ListConnections(), 1)
	got, err := svc.GetConnection(conn.ID)
	require.NoError(t, err)
	assert.Equal(t, conn.Name, got.Name)

	status := svc.Status(conn.ID)
	assert.Equal(t, cloud.StatusConnected, status.Status)
	assert.True(t, status.Placeholder)

	nodes, err := svc.ListNodes(ctx, conn.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	require.NoError(t, svc.DeleteConnection(conn.ID))
	assert.Equal(t, cloud.StatusNotFound, m.GetConnectionStatus(conn.ID).Status)
	assert.Equal(t, 1002, apiCode(t, svc.DeleteConnection(conn.ID)))
	_, err = svc.ListNodes(ctx, conn.ID)
	assert.Equal(t, 1002, apiCode(t, err))
}

func TestCloudServiceRejectsUnknownProvider(t *testing.T) {
	svc, _ := newTestCloudService(t)

	_, err := svc.CreateConnection(context.Background(), &model.CloudConnectionCreateRequest{Name: "x", ProviderType: "ibm"})
	assert.Equal(t, 3001, apiCode(t, err))
	assert.Empty(t, svc.ListConnections())
}

func TestCloudServiceConnectFailure(t *testing.T) {
	svc, _ := newTestCloudService(t)

	_, err := svc.CreateConnection(context.Background(), &model.CloudConnectionCreateRequest{
		Name:         "bad",
		ProviderType: "gcp",
		Credentials:  map[string]any{},
	})
	var apiErr *utils.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 1001, apiErr.Code)
	assert.Equal(t, "Failed to connect to gcp. Check credentials.", apiErr.Message)
	assert.Empty(t, svc.ListConnections())
}

func TestCloudServiceNodeActions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestCloudService(t)
	conn, err := svc.CreateConnection(ctx, &model.CloudConnectionCreateRequest{Name: "demo", ProviderType: "azure"})
	require.NoError(t, err)

	_, err = svc.NodeAction(ctx, conn.ID, "azure-demo-1", "reboot")
	assert.Equal(t, 3001, apiCode(t, err))

	_, err = svc.NodeAction(ctx, conn.ID, "azure-demo-1", "start")
	assert.Equal(t, 2003, apiCode(t, err))

	_, err = svc.NodeAction(ctx, "missing", "azure-demo-1", "stop")
	assert.Equal(t, 1002, apiCode(t, err))

	_, err = svc.CreateNode(ctx, conn.ID, &model.NodeCreateRequest{Name: "web-1"})
	assert.Equal(t, 2003, apiCode(t, err))

	_, err = svc.CreateNode(ctx, conn.ID, &model.NodeCreateRequest{Name: "Bad_Name"})
	assert.Equal(t, 3001, apiCode(t, err))
}

func TestNodeConfig(t *testing.T) {
	cfg := NodeConfig(&model.NodeCreateRequest{
		Name:     "web-1",
		Image:    "images:debian/12",
		CPUCount: 2,
		MemoryMB: 2048,
		Config:   map[string]any{"security.nesting": "true"},
	})
	assert.Equal(t, map[string]any{
		"image": "images:debian/12",
		"config": map[string]any{
			"security.nesting": "true",
			"limits.cpu":       "2",
			"limits.memory":    "2048MB",
		},
	}, cfg)

	assert.Equal(t, map[string]any{"config": map[string]any{}}, NodeConfig(&model.NodeCreateRequest{Name: "n"}))
}

func TestNodeConfigRootDisk(t *testing.T) {
	cfg := NodeConfig(&model.NodeCreateRequest{Name: "web-1", DiskGB: 20})
	assert.Equal(t, map[string]any{
		"root": map[string]any{"type": "disk", "path": "/", "pool": "default", "size": "20GB"},
	}, cfg["devices"])
}
