package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

const (
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeForbidden         = "FORBIDDEN"
	CodeInvalidArgument   = "INVALID_ARGUMENT"
	CodeAlreadyLocked     = "ALREADY_LOCKED"
	CodeSlotAlreadyLocked = "SLOT_ALREADY_LOCKED"
	CodeAlreadyBooked     = "ALREADY_BOOKED"
	CodeSlotAlreadyBooked = "SLOT_ALREADY_BOOKED"
	CodeNotLocked         = "NOT_LOCKED"
	CodeNotFound          = "NOT_FOUND"
	CodeInternal          = "INTERNAL_ERROR"
	CodeRateLimited       = "RATE_LIMITED"
	CodeTimeout           = "TIMEOUT"
	CodeUnavailable       = "SERVICE_UNAVAILABLE"
)

const DetailSlotIndex = "slot_index"

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) ToJSON() []byte {
	response := ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
	data, _ := json.Marshal(response)
	return data
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func Unauthenticated(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthenticated,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

func InvalidArgument(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidArgument,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// InvalidArgumentWithDetails is used for validator output, where each field gets its own message.
func InvalidArgumentWithDetails(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeInvalidArgument,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

func AlreadyLocked(index int) *AppError {
	return slotError(CodeAlreadyLocked, index, "Slot %d is locked by another holder")
}

func SlotAlreadyLocked(index int) *AppError {
	return slotError(CodeSlotAlreadyLocked, index, "Slot %d is locked by another holder")
}

func AlreadyBooked(index int) *AppError {
	return slotError(CodeAlreadyBooked, index, "Slot %d is already booked")
}

func SlotAlreadyBooked(index int) *AppError {
	return slotError(CodeSlotAlreadyBooked, index, "Slot %d is already booked")
}

func NotLocked(index int) *AppError {
	err := slotError(CodeNotLocked, index, "Slot %d has no lock to confirm")
	err.HTTPStatus = http.StatusPreconditionFailed
	return err
}

func slotError(code string, index int, format string) *AppError {
	return &AppError{
		Code:       code,
		Message:    fmt.Sprintf(format, index),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			DetailSlotIndex: index,
		},
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func RateLimited() *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    "Rate limit exceeded",
		HTTPStatus: http.StatusTooManyRequests,
	}
}

func Timeout(message string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    message,
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

func Unavailable(service string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf("%s is temporarily unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

// SlotIndex returns the offending slot index attached to a slot-level failure.
func SlotIndex(err error) (int, bool) {
	var appErr *AppError
	if !stderrors.As(err, &appErr) || appErr.Details == nil {
		return 0, false
	}
	index, ok := appErr.Details[DetailSlotIndex].(int)
	return index, ok
}
