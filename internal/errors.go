package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidHours        ErrorCode = "INVALID_HOURS"
	ErrCodeInvalidDateRange    ErrorCode = "INVALID_DATE_RANGE"
	ErrCodeInvalidStatus       ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidAvailability ErrorCode = "INVALID_AVAILABILITY"
	ErrCodeCannotRemoveSelf    ErrorCode = "CANNOT_REMOVE_SELF"

	ErrCodeProfileNotFound      ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeOrganizationNotFound ErrorCode = "ORGANIZATION_NOT_FOUND"
	ErrCodeDepartmentNotFound   ErrorCode = "DEPARTMENT_NOT_FOUND"
	ErrCodeAllotmentNotFound    ErrorCode = "ALLOTMENT_NOT_FOUND"
	ErrCodeTaskNotFound         ErrorCode = "TASK_NOT_FOUND"
	ErrCodeRequestNotFound      ErrorCode = "JOIN_REQUEST_NOT_FOUND"
	ErrCodeLogNotFound          ErrorCode = "DAILY_LOG_NOT_FOUND"

	ErrCodeAlreadyInvited     ErrorCode = "ALREADY_INVITED"
	ErrCodeAlreadyMember      ErrorCode = "ALREADY_IN_ORGANIZATION"
	ErrCodeAdminRequired      ErrorCode = "ADMIN_REQUIRED"
	ErrCodeUnauthorizedAccess ErrorCode = "UNAUTHORIZED_ACCESS"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeEmailTaken         ErrorCode = "EMAIL_TAKEN"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Messages() string {
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return strings.Join(messages, "; ")
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrProfileNotFound      = NewNotFoundError("Profile not found", ErrCodeProfileNotFound)
	ErrOrganizationNotFound = NewNotFoundError("Organization not found", ErrCodeOrganizationNotFound)
	ErrAdminRequired        = NewForbiddenError("Admin privileges required", ErrCodeAdminRequired)
	ErrUnauthorizedAccess   = NewForbiddenError("Unauthorized access", ErrCodeUnauthorizedAccess)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

// IsAppError unwraps err down to an AppError if one is in the chain.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
