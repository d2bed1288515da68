// Package errors provides the application error type returned by services
// and translated into JSON responses by the HTTP layer. Messages are safe to
// show to end users; internal causes are only ever logged.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches any AppError carrying the same code, so wrapped copies of a
// sentinel still satisfy errors.Is(err, ErrX).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrNotAuthorized      = &AppError{Code: "NOT_AUTHORIZED", Message: "No tienes permisos para acceder a este panel", StatusCode: http.StatusForbidden}
	ErrRoleNotAssignable  = &AppError{Code: "ROLE_NOT_ASSIGNABLE", Message: "Only a superadmin can grant this role", StatusCode: http.StatusForbidden}
	ErrInvalidAPIKey      = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
	ErrAPIKeyNotSet       = &AppError{Code: "INTERNAL_API_NOT_CONFIGURED", Message: "Internal endpoints are not configured", StatusCode: http.StatusServiceUnavailable}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound    = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail  = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
	ErrUserInactive    = &AppError{Code: "USER_INACTIVE", Message: "User account is disabled", StatusCode: http.StatusForbidden}
	ErrUsuarioNotFound = &AppError{Code: "USUARIO_NOT_FOUND", Message: "Profile entry not found", StatusCode: http.StatusNotFound}
)

// Finance errors.
var (
	ErrIngresoNotFound     = &AppError{Code: "INGRESO_NOT_FOUND", Message: "Income record not found", StatusCode: http.StatusNotFound}
	ErrGastoNotFound       = &AppError{Code: "GASTO_NOT_FOUND", Message: "Expense record not found", StatusCode: http.StatusNotFound}
	ErrAlreadySettled      = &AppError{Code: "ALREADY_SETTLED", Message: "Invoice is not pending", StatusCode: http.StatusConflict}
	ErrSettleOnUpdate      = &AppError{Code: "SETTLE_ON_UPDATE", Message: "Use the settle endpoint to mark an invoice as collected or paid", StatusCode: http.StatusConflict}
	ErrProjectNotFound     = &AppError{Code: "PROJECT_NOT_FOUND", Message: "Project not found", StatusCode: http.StatusNotFound}
	ErrInvalidProjectDates = &AppError{Code: "INVALID_PROJECT_DATES", Message: "End date must not be before start date", StatusCode: http.StatusBadRequest}
)

// Grants & programs errors.
var (
	ErrConvocatoriaNotFound = &AppError{Code: "CONVOCATORIA_NOT_FOUND", Message: "Grant announcement not found", StatusCode: http.StatusNotFound}
	ErrConvocatoriaClosed   = &AppError{Code: "CONVOCATORIA_CLOSED", Message: "Grant announcement is not accepting applications", StatusCode: http.StatusConflict}
	ErrSolicitudNotFound    = &AppError{Code: "SOLICITUD_NOT_FOUND", Message: "Application not found", StatusCode: http.StatusNotFound}
	ErrSignupNotFound       = &AppError{Code: "SIGNUP_NOT_FOUND", Message: "Sign-up not found", StatusCode: http.StatusNotFound}
	ErrPageNotFound         = &AppError{Code: "PAGE_NOT_FOUND", Message: "Page not found", StatusCode: http.StatusNotFound}
)
