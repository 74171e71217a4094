package service

import (
	"context"
	"fmt"
	"strings"

	"kolaboree-backend/internal/model"
	"kolaboree-backend/internal/pkg/guacamole"
	"kolaboree-backend/internal/pkg/logger"
	"kolaboree-backend/pkg/utils"
)

// RACPrefix marks connection ids served by Guacamole.
const RACPrefix = "guacamole_"

type GuacamoleClient interface {
	GetConnections(ctx context.Context) []guacamole.Connection
	ConnectionURL(ctx context.Context, connectionID string) (string, error)
}

type RACService struct {
	guac   GuacamoleClient
	logger *logger.Logger
}

func NewRACService(guac GuacamoleClient, logger *logger.Logger) *RACService {
	return &RACService{
		guac:   guac,
		logger: logger,
	}
}

var connectInstructions = model.RACInstructions{
	Title: "Connecting to Remote Desktop",
	Steps: []string{
		"Click 'Connect' to open the remote desktop",
		"If prompted, click 'Yes' to allow the connection",
		"On the Windows machine, click 'Yes' to allow remote access",
		"Your local session may be disconnected - this is normal",
	},
}

func (s *RACService) Connections(ctx context.Context) []model.RACConnection {
	conns := s.guac.GetConnections(ctx)

	out := make([]model.RACConnection, 0, len(conns))
	for _, c := range conns {
		out = append(out, model.RACConnection{
			ID:                 RACPrefix + c.ID,
			Name:               c.Name,
			Type:               "guacamole",
			Protocol:           c.Protocol,
			Description:        fmt.Sprintf("Remote desktop access to %s", c.Name),
			ConnectionURL:      c.URL,
			Status:             "available",
			RequiresPermission: true,
			Metadata: map[string]any{
				"guacamole_id": c.ID,
				"parameters":   c.Parameters,
			},
		})
	}
	return out
}

func (s *RACService) Connection(ctx context.Context, connectionID string) (*model.RACConnectionDetail, error) {
	guacID, ok := strings.CutPrefix(connectionID, RACPrefix)
	if !ok || guacID == "" {
		return nil, utils.NewValidationError("connection_id", connectionID)
	}

	url, err := s.guac.ConnectionURL(ctx, guacID)
	if err != nil {
		s.logger.Errorf("guacamole connection url for %s: %v", guacID, err)
		return nil, utils.NewRACError("get connection url", err)
	}
	if url == "" {
		return nil, utils.NewRACNotFoundError(connectionID)
	}

	return &model.RACConnectionDetail{
		ID:            connectionID,
		GuacamoleID:   guacID,
		ConnectionURL: url,
		Status:        "ready",
		Instructions:  connectInstructions,
	}, nil
}

func (s *RACService) Connect(ctx context.Context, connectionID string) (*model.RACConnectResponse, error) {
	detail, err := s.Connection(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("opening remote desktop %s", connectionID)

	return &model.RACConnectResponse{
		Status:        "connecting",
		ConnectionURL: detail.ConnectionURL,
		Message:       "Opening remote desktop connection...",
		Instructions:  detail.Instructions,
	}, nil
}
