package model

type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type NodeActionResponse struct {
	Success      bool   `json:"success"`
	Action       string `json:"action"`
	ConnectionID string `json:"connection_id"`
	NodeID       string `json:"node_id"`
}

type ConsoleTestResponse struct {
	ID      string   `json:"id,omitempty"`
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

type RACConnection struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Type               string         `json:"type"`
	Protocol           string         `json:"protocol"`
	Description        string         `json:"description"`
	ConnectionURL      string         `json:"connection_url"`
	Status             string         `json:"status"`
	RequiresPermission bool           `json:"requires_permission"`
	Metadata           map[string]any `json:"metadata"`
}

type RACInstructions struct {
	Title string   `json:"title"`
	Steps []string `json:"steps"`
}

type RACConnectionDetail struct {
	ID            string          `json:"id"`
	GuacamoleID   string          `json:"guacamole_id"`
	ConnectionURL string          `json:"connection_url"`
	Status        string          `json:"status"`
	Instructions  RACInstructions `json:"instructions"`
}

type RACConnectResponse struct {
	Status        string          `json:"status"`
	ConnectionURL string          `json:"connection_url"`
	Message       string          `json:"message"`
	Instructions  RACInstructions `json:"instructions"`
}
