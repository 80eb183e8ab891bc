package dto

// APIErrorResponse is the body of every failed /api/v1 call.
type APIErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// MessageResponse carries the operator-facing outcome of an action, the same
// text the web console shows as a toast.
type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status       string             `json:"status"`
	Dependencies DependencyStatuses `json:"dependencies"`
}

type DependencyStatuses struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}
