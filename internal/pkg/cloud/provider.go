package cloud

import (
	"context"
	"fmt"
	"strings"

	"kolaboree-backend/internal/model"
)

type ProviderType string

const (
	ProviderGCP          ProviderType = "gcp"
	ProviderLXD          ProviderType = "lxd"
	ProviderHuawei       ProviderType = "huawei"
	ProviderOracle       ProviderType = "oracle"
	ProviderAzure        ProviderType = "azure"
	ProviderDigitalOcean ProviderType = "digitalocean"
	ProviderAWS          ProviderType = "aws"
	ProviderVultr        ProviderType = "vultr"
	ProviderAlibaba      ProviderType = "alibaba"
)

// Credentials is the provider-shaped bag sent by the caller. Its keys are
// interpreted by the adapter registered for the connection's provider type.
type Credentials map[string]any

func (c Credentials) String(key string) string {
	switch v := c[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (c Credentials) Bool(key string, def bool) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return def
}

// Provider opens sessions against one backend type.
type Provider interface {
	Type() ProviderType
	// Placeholder reports whether the provider is backed by synthetic data only.
	Placeholder() bool
	Connect(ctx context.Context, connectionID string, creds Credentials, region string) (Session, error)
}

// Session is a live, authenticated connection. Operations a backend cannot
// perform return ErrUnsupported.
type Session interface {
	ListNodes(ctx context.Context) ([]model.Node, error)
	StartNode(ctx context.Context, nodeID string) error
	StopNode(ctx context.Context, nodeID string) error
	RestartNode(ctx context.Context, nodeID string) error
	CreateNode(ctx context.Context, name string, config map[string]any) (*model.Node, error)
	Close() error
}

// Options carries the defaults providers fall back to.
type Options struct {
	GCPDefaultZone     string
	LXDDefaultEndpoint string
	// CredentialDir is where inline certificate material is written.
	// Empty means os.TempDir().
	CredentialDir string
}

// DefaultProviders returns the dispatch table for every supported provider tag.
func DefaultProviders(opts Options) map[ProviderType]Provider {
	providers := map[ProviderType]Provider{
		ProviderGCP: NewGCPProvider(opts.GCPDefaultZone, nil),
		ProviderLXD: NewLXDProvider(opts.LXDDefaultEndpoint, opts.CredentialDir, nil),
	}
	for _, p := range placeholderProviders() {
		providers[p.Type()] = p
	}
	return providers
}

// unsupportedOps is embedded by sessions that cannot change instance state.
type unsupportedOps struct{}

func (unsupportedOps) StartNode(context.Context, string) error   { return ErrUnsupported }
func (unsupportedOps) StopNode(context.Context, string) error    { return ErrUnsupported }
func (unsupportedOps) RestartNode(context.Context, string) error { return ErrUnsupported }
func (unsupportedOps) CreateNode(context.Context, string, map[string]any) (*model.Node, error) {
	return nil, ErrUnsupported
}
