package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/compute/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"kolaboree-backend/internal/model"
)

const defaultGCPZone = "us-central1-a"

// GCEService is the slice of the Compute Engine API used by the GCP adapter.
type GCEService interface {
	// ValidateAccess performs a single, one-item list call in the zone.
	ValidateAccess(ctx context.Context, project, zone string) error
	ListInstances(ctx context.Context, project, zone string) ([]*compute.Instance, error)
	StartInstance(ctx context.Context, project, zone, name string) error
	StopInstance(ctx context.Context, project, zone, name string) error
	ResetInstance(ctx context.Context, project, zone, name string) error
}

// GCEDialer builds a GCEService from service account JSON.
type GCEDialer func(ctx context.Context, credentialsJSON []byte) (GCEService, error)

type GCPProvider struct {
	defaultZone string
	dial        GCEDialer
}

// NewGCPProvider returns the Compute Engine adapter. A nil dial uses the real
// google.golang.org/api client.
func NewGCPProvider(defaultZone string, dial GCEDialer) *GCPProvider {
	if defaultZone == "" {
		defaultZone = defaultGCPZone
	}
	if dial == nil {
		dial = dialCompute
	}
	return &GCPProvider{defaultZone: defaultZone, dial: dial}
}

func (p *GCPProvider) Type() ProviderType { return ProviderGCP }
func (p *GCPProvider) Placeholder() bool  { return false }

type serviceAccount struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
}

// Connect parses the service account, opens a Compute Engine client and
// validates it with a single one-item list call.
func (p *GCPProvider) Connect(ctx context.Context, connectionID string, creds Credentials, region string) (Session, error) {
	raw, err := serviceAccountJSON(creds)
	if err != nil {
		return nil, err
	}

	var sa serviceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("%w: parse service account: %v", ErrInvalidInput, err)
	}
	if project := creds.String("project_id"); project != "" {
		sa.ProjectID = project
	}
	if sa.ProjectID == "" {
		return nil, fmt.Errorf("%w: service account has no project_id", ErrInvalidInput)
	}

	zone := region
	if zone == "" {
		zone = p.defaultZone
	}

	svc, err := p.dial(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: create compute client: %w", ErrInvalidInput, err)
	}

	if err := svc.ValidateAccess(ctx, sa.ProjectID, zone); err != nil {
		return nil, fmt.Errorf("validate credentials for %s: %w", sa.ClientEmail, gceAuthError(err))
	}

	return &gcpSession{
		svc:          svc,
		connectionID: connectionID,
		project:      sa.ProjectID,
		zone:         zone,
	}, nil
}

// serviceAccountJSON accepts the service account either as a JSON string or
// as an already decoded object.
func serviceAccountJSON(creds Credentials) ([]byte, error) {
	switch v := creds["service_account_json"].(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%w: service_account_json is empty", ErrInvalidInput)
		}
		return []byte(v), nil
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: encode service account: %v", ErrInvalidInput, err)
		}
		return data, nil
	case nil:
		return nil, fmt.Errorf("%w: service_account_json is required", ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: unexpected service_account_json type %T", ErrInvalidInput, v)
	}
}

// gceAuthError marks credential rejections with ErrAuth and leaves every other
// failure as is.
func gceAuthError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden) {
		return fmt.Errorf("%w: %w", ErrAuth, err)
	}
	return err
}

type gcpSession struct {
	unsupportedOps
	svc          GCEService
	connectionID string
	project      string
	zone         string
}

func (s *gcpSession) ListNodes(ctx context.Context) ([]model.Node, error) {
	instances, err := s.svc.ListInstances(ctx, s.project, s.zone)
	if err != nil {
		return nil, err
	}

	nodes := make([]model.Node, 0, len(instances))
	for _, inst := range instances {
		if inst == nil {
			continue
		}
		nodes = append(nodes, gceNode(s.connectionID, inst))
	}
	return nodes, nil
}

// StartNode, StopNode and RestartNode re-list to resolve the node id to an
// instance name before issuing the state change.
func (s *gcpSession) StartNode(ctx context.Context, nodeID string) error {
	return s.withInstance(ctx, nodeID, s.svc.StartInstance)
}

func (s *gcpSession) StopNode(ctx context.Context, nodeID string) error {
	return s.withInstance(ctx, nodeID, s.svc.StopInstance)
}

func (s *gcpSession) RestartNode(ctx context.Context, nodeID string) error {
	return s.withInstance(ctx, nodeID, s.svc.ResetInstance)
}

func (s *gcpSession) withInstance(ctx context.Context, nodeID string,
	fn func(ctx context.Context, project, zone, name string) error) error {
	instances, err := s.svc.ListInstances(ctx, s.project, s.zone)
	if err != nil {
		return err
	}
	for _, inst := range instances {
		if inst != nil && strconv.FormatUint(inst.Id, 10) == nodeID {
			return fn(ctx, s.project, s.zone, inst.Name)
		}
	}
	return fmt.Errorf("instance %s: %w", nodeID, ErrNotFound)
}

func (s *gcpSession) Close() error { return nil }

func gceNode(connectionID string, inst *compute.Instance) model.Node {
	var public, private []string
	for _, ni := range inst.NetworkInterfaces {
		if ni == nil {
			continue
		}
		for _, ac := range ni.AccessConfigs {
			if ac != nil {
				public = append(public, ac.NatIP)
			}
		}
		private = append(private, ni.NetworkIP)
	}

	raw := map[string]any{
		"zone":                lastSegment(inst.Zone),
		"machine_type":        lastSegment(inst.MachineType),
		"creation_timestamp":  inst.CreationTimestamp,
		"status_message":      inst.StatusMessage,
		"cpu_platform":        inst.CpuPlatform,
		"description":         inst.Description,
		"deletion_protection": inst.DeletionProtection,
		"labels":              inst.Labels,
		"disks":               inst.Disks,
		"scheduling":          inst.Scheduling,
		"service_accounts":    inst.ServiceAccounts,
		"self_link":           inst.SelfLink,
	}
	if inst.Tags != nil {
		raw["tags"] = inst.Tags.Items
	}

	node := model.Node{
		ID:           strconv.FormatUint(inst.Id, 10),
		Name:         inst.Name,
		State:        strings.ToLower(inst.Status),
		ProviderType: string(ProviderGCP),
		ConnectionID: connectionID,
		IPAddresses:  JoinAddresses(public, private),
		Extra:        SanitizeExtra(raw),
	}
	if created, err := time.Parse(time.RFC3339, inst.CreationTimestamp); err == nil {
		node.CreatedAt = &created
	}
	return node
}

func lastSegment(resourceURL string) string {
	if resourceURL == "" {
		return ""
	}
	return path.Base(resourceURL)
}

type computeService struct {
	svc *compute.Service
}

func dialCompute(_ context.Context, credentialsJSON []byte) (GCEService, error) {
	// The client outlives the request that created it, so it must not be
	// bound to the request context.
	svc, err := compute.NewService(context.Background(), option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, err
	}
	return &computeService{svc: svc}, nil
}

func (c *computeService) ValidateAccess(ctx context.Context, project, zone string) error {
	_, err := c.svc.Instances.List(project, zone).MaxResults(1).Context(ctx).Do()
	return err
}

func (c *computeService) ListInstances(ctx context.Context, project, zone string) ([]*compute.Instance, error) {
	var out []*compute.Instance
	err := c.svc.Instances.List(project, zone).Pages(ctx, func(page *compute.InstanceList) error {
		out = append(out, page.Items...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *computeService) StartInstance(ctx context.Context, project, zone, name string) error {
	_, err := c.svc.Instances.Start(project, zone, name).Context(ctx).Do()
	return err
}

func (c *computeService) StopInstance(ctx context.Context, project, zone, name string) error {
	_, err := c.svc.Instances.Stop(project, zone, name).Context(ctx).Do()
	return err
}

func (c *computeService) ResetInstance(ctx context.Context, project, zone, name string) error {
	_, err := c.svc.Instances.Reset(project, zone, name).Context(ctx).Do()
	return err
}
