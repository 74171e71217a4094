package model

import "time"

// Node is one compute instance (VM or container) as reported by a provider.
// Nodes are built fresh on every list/create call and never cached.
type Node struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	State        string         `json:"state"`
	ProviderType string         `json:"provider_type"`
	ConnectionID string         `json:"connection_id"`
	IPAddresses  []string       `json:"ip_addresses"`
	CPUCount     *int           `json:"cpu_count"`
	MemoryMB     *int           `json:"memory_mb"`
	CreatedAt    *time.Time     `json:"created_at,omitempty"`
	Extra        map[string]any `json:"extra"`
}

type CloudConnection struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	ProviderType string     `json:"provider_type"`
	Region       string     `json:"region,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	LastChecked  *time.Time `json:"last_checked,omitempty"`
}

type Workspace struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Status        string  `json:"status"`
	ConnectionURL *string `json:"connection_url"`
	Node          Node    `json:"node"`
}

type ProviderInfo struct {
	Type        string `json:"type"`
	Placeholder bool   `json:"placeholder"`
}
