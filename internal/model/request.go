package model

type CloudConnectionCreateRequest struct {
	Name         string         `json:"name" binding:"required"`
	ProviderType string         `json:"provider_type" binding:"required"`
	Credentials  map[string]any `json:"credentials"`
	Region       string         `json:"region"`
}

type NodeCreateRequest struct {
	Name     string         `json:"name" binding:"required"`
	Image    string         `json:"image"`
	CPUCount int            `json:"cpu_count"`
	MemoryMB int            `json:"memory_mb"`
	DiskGB   int            `json:"disk_gb"`
	Config   map[string]any `json:"config"`
}

type ConsoleTestRequest struct {
	ID         string `json:"id"`
	Host       string `json:"host" binding:"required"`
	Port       int    `json:"port"`
	Username   string `json:"username" binding:"required"`
	AuthType   string `json:"auth_type" binding:"required,oneof=password key"`
	Password   string `json:"password"`
	PrivateKey string `json:"private_key"`
	Passphrase string `json:"passphrase"`
}

type BatchConsoleTestRequest struct {
	Nodes []ConsoleTestRequest `json:"nodes" binding:"required,min=1,dive"`
}
