package cloud

import (
	"context"

	"kolaboree-backend/internal/model"
)

type placeholderNode struct {
	id   string
	name string
	ip   string
}

// Providers wired into dispatch without a real backend integration. Each
// reports one synthetic running node so the UI can be exercised without
// credentials.
var placeholderNodes = map[ProviderType]placeholderNode{
	ProviderHuawei:       {id: "huawei-demo-1", name: "Huawei Demo Instance 1", ip: "192.168.1.100"},
	ProviderOracle:       {id: "oracle-demo-1", name: "Oracle Demo Instance 1", ip: "10.0.1.50"},
	ProviderAzure:        {id: "azure-demo-1", name: "Azure Demo VM 1", ip: "40.112.50.25"},
	ProviderDigitalOcean: {id: "do-demo-1", name: "DigitalOcean Droplet 1", ip: "178.128.1.10"},
	ProviderAWS:          {id: "i-aws-demo-1", name: "AWS EC2 Instance 1", ip: "54.210.100.50"},
	ProviderVultr:        {id: "vultr-demo-1", name: "Vultr Instance 1", ip: "45.76.50.100"},
	ProviderAlibaba:      {id: "alibaba-demo-1", name: "Alibaba ECS Instance 1", ip: "47.88.10.20"},
}

type PlaceholderProvider struct {
	providerType ProviderType
	node         placeholderNode
}

func placeholderProviders() []*PlaceholderProvider {
	out := make([]*PlaceholderProvider, 0, len(placeholderNodes))
	for t, n := range placeholderNodes {
		out = append(out, &PlaceholderProvider{providerType: t, node: n})
	}
	return out
}

func (p *PlaceholderProvider) Type() ProviderType { return p.providerType }
func (p *PlaceholderProvider) Placeholder() bool  { return true }

// Connect always succeeds and performs no I/O.
func (p *PlaceholderProvider) Connect(_ context.Context, connectionID string, _ Credentials, _ string) (Session, error) {
	return &placeholderSession{provider: p, connectionID: connectionID}, nil
}

type placeholderSession struct {
	unsupportedOps
	provider     *PlaceholderProvider
	connectionID string
}

func (s *placeholderSession) ListNodes(context.Context) ([]model.Node, error) {
	n := s.provider.node
	return []model.Node{{
		ID:           n.id,
		Name:         n.name,
		State:        "running",
		ProviderType: string(s.provider.providerType),
		ConnectionID: s.connectionID,
		IPAddresses:  []string{n.ip},
		Extra:        map[string]any{"status": "placeholder"},
	}}, nil
}

func (s *placeholderSession) Close() error { return nil }
