package dto

// HealthResponse is the liveness and dependency surface.
type HealthResponse struct {
	Status            string          `json:"status"`
	ActiveConnections int             `json:"active_connections"`
	Collaborators     map[string]bool `json:"collaborators"`
}
