// Package apierror provides the error envelope returned by the HTTP API.
// Handlers never send internal error text for 5xx responses.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	// Reason refines authentication failures: credentials, insufficient-role,
	// expired or not-granted.
	Reason string `json:"reason,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

func WithReason(msg, reason string) *APIError {
	return &APIError{Detail: msg, Reason: reason}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation error", Fields: fields}
}
