package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents application error codes
type ErrorCode string

const (
	// Request errors
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrCodeValidation     ErrorCode = "VALIDATION_ERROR"

	// Session errors
	ErrCodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	ErrCodeUnauthorised       ErrorCode = "UNAUTHORISED"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeAccountFrozen      ErrorCode = "ACCOUNT_FROZEN"
	ErrCodeUserExists         ErrorCode = "USER_EXISTS"

	// OTP errors
	ErrCodeOTPInvalid      ErrorCode = "OTP_INVALID"
	ErrCodeOTPExpired      ErrorCode = "OTP_EXPIRED"
	ErrCodeRequestExpired  ErrorCode = "REQUEST_EXPIRED"
	ErrCodeOverLimit       ErrorCode = "OVER_LIMIT"
	ErrCodeAttackSuspected ErrorCode = "ATTACK_SUSPECTED"

	// Service errors
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	ErrCodeMaintenance ErrorCode = "MAINTENANCE"
	ErrCodeInternal    ErrorCode = "INTERNAL_ERROR"
)

// AppError represents application-specific errors
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Status    int                    `json:"-"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements json.Marshaler
func (e *AppError) MarshalJSON() ([]byte, error) {
	type alias AppError
	return json.Marshal(&struct {
		*alias
		Error string `json:"error"`
	}{
		alias: (*alias)(e),
		Error: e.Message,
	})
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Status:    getDefaultStatus(code),
		Timestamp: time.Now(),
	}
}

// Newf creates a new AppError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// Wrapf wraps an existing error with AppError and formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithDetail adds a single detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithStatus sets the HTTP status code
func (e *AppError) WithStatus(status int) *AppError {
	e.Status = status
	return e
}

// WithRequestID sets the request ID
func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// GetStatus returns the HTTP status code
func (e *AppError) GetStatus() int {
	if e.Status == 0 {
		return getDefaultStatus(e.Code)
	}
	return e.Status
}

// IsCode checks if the error has the specified code
func (e *AppError) IsCode(code ErrorCode) bool {
	return e.Code == code
}

// getDefaultStatus returns the default HTTP status for an error code
func getDefaultStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest, ErrCodeValidation, ErrCodeInvalidToken, ErrCodeAttackSuspected:
		return http.StatusBadRequest
	case ErrCodeUnauthenticated, ErrCodeInvalidCredentials, ErrCodeOTPInvalid, ErrCodeAccountFrozen:
		return http.StatusUnauthorized
	case ErrCodeUnauthorised, ErrCodeOTPExpired, ErrCodeRequestExpired:
		return http.StatusForbidden
	case ErrCodeOverLimit:
		return http.StatusMethodNotAllowed
	case ErrCodeUserExists:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeMaintenance:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AsAppError finds the first AppError in err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Common error constructors
func Unauthenticated(message string) *AppError {
	return New(ErrCodeUnauthenticated, message)
}

func Unauthorised(message string) *AppError {
	return New(ErrCodeUnauthorised, message)
}

func InvalidRequest(message string) *AppError {
	return New(ErrCodeInvalidRequest, message)
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func InternalWithCause(err error, message string) *AppError {
	return Wrap(err, ErrCodeInternal, message)
}

// ValidationError reports an invalid request field
func ValidationError(field string, message string) *AppError {
	return New(ErrCodeValidation, message).WithDetail("field", field)
}
