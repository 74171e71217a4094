package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kolaboree-backend/internal/pkg/guacamole"
	"kolaboree-backend/internal/pkg/logger"
)

type stubGuacamole struct {
	conns  []guacamole.Connection
	urls   map[string]string
	urlErr error
}

func (s *stubGuacamole) GetConnections(context.Context) []guacamole.Connection { return s.conns }

func (s *stubGuacamole) ConnectionURL(_ context.Context, id string) (string, error) {
	if s.urlErr != nil {
		return "", s.urlErr
	}
	return s.urls[id], nil
}

func newStubRAC() *RACService {
	guac := &stubGuacamole{
		conns: []guacamole.Connection{{ID: "5", Name: "win-10", Protocol: "rdp", URL: "http://g/#/client/5?token=t", Parameters: map[string]any{}}},
		urls:  map[string]string{"5": "http://g/#/client/5?token=t"},
	}
	return NewRACService(guac, logger.NewNop())
}

func TestRACConnections(t *testing.T) {
	conns := newStubRAC().Connections(context.Background())
	require.Len(t, conns, 1)
	assert.Equal(t, "guacamole_5", conns[0].ID)
	assert.Equal(t, "guacamole", conns[0].Type)
	assert.Equal(t, "Remote desktop access to win-10", conns[0].Description)
	assert.True(t, conns[0].RequiresPermission)
	assert.Equal(t, "5", conns[0].Metadata["guacamole_id"])
}

func TestRACConnectionLookup(t *testing.T) {
	ctx := context.Background()
	svc := newStubRAC()

	detail, err := svc.Connection(ctx, "guacamole_5")
	require.NoError(t, err)
	assert.Equal(t, "5", detail.GuacamoleID)
	assert.Equal(t, "ready", detail.Status)
	assert.Len(t, detail.Instructions.Steps, 4)

	_, err = svc.Connection(ctx, "rdp_5")
	assert.Equal(t, 3001, apiCode(t, err))

	_, err = svc.Connection(ctx, "guacamole_9")
	assert.Equal(t, 4004, apiCode(t, err))

	resp, err := svc.Connect(ctx, "guacamole_5")
	require.NoError(t, err)
	assert.Equal(t, "connecting", resp.Status)
	assert.Equal(t, detail.ConnectionURL, resp.ConnectionURL)
}

func TestRACGatewayFailure(t *testing.T) {
	svc := NewRACService(&stubGuacamole{urlErr: errors.New("guacamole auth failed: status 403")}, logger.NewNop())

	_, err := svc.Connection(context.Background(), "guacamole_5")
	assert.Equal(t, 4001, apiCode(t, err))
	assert.Contains(t, err.Error(), "status 403")

	_, err = svc.Connect(context.Background(), "guacamole_5")
	assert.Equal(t, 4001, apiCode(t, err))
}
