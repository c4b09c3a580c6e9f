// Package apierror provides the error envelope for every 4xx/5xx response.
// All errors returned to clients go through this package so internal details
// (stack traces, DB errors, etc.) never leak.
package apierror

// Codes for failures that happen outside the domain services.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

// APIError is the canonical error envelope. Fields carries diagnostics such
// as the per-field validation tags or the sums of a payment mismatch.
type APIError struct {
	Code   string         `json:"code"`
	Detail string         `json:"detail"`
	Fields map[string]any `json:"fields,omitempty"`
}

func New(code, msg string) *APIError {
	return &APIError{Code: code, Detail: msg}
}

func WithFields(code, msg string, fields map[string]any) *APIError {
	return &APIError{Code: code, Detail: msg, Fields: fields}
}

// NewValidation wraps the failing validator tag of each field.
func NewValidation(fields map[string]string) *APIError {
	f := make(map[string]any, len(fields))
	for k, v := range fields {
		f[k] = v
	}
	return &APIError{Code: CodeValidation, Detail: "Error de validacion", Fields: f}
}
