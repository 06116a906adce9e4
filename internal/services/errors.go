package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

// Error kinds. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrTooManyRequests = errors.New("too many requests")
)

// ServiceError is a client-facing failure with a readable message.
type ServiceError struct {
	Kind    error
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Is(target error) bool {
	return target == e.Kind
}

func newServiceError(kind error, format string, args ...interface{}) error {
	return &ServiceError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return newServiceError(ErrNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) error {
	return newServiceError(ErrConflict, format, args...)
}

func BadRequest(format string, args ...interface{}) error {
	return newServiceError(ErrBadRequest, format, args...)
}

func Unauthorized(format string, args ...interface{}) error {
	return newServiceError(ErrUnauthorized, format, args...)
}

func Forbidden(format string, args ...interface{}) error {
	return newServiceError(ErrForbidden, format, args...)
}

// PermissionError explains why an authenticated caller was refused.
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: cannot %s %s %d: %s", e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrForbidden
}

// mapRepoError turns repository not-found and duplicate-key failures into
// typed errors and passes anything else through.
func mapRepoError(err error, notFoundMsg, conflictMsg string) error {
	switch {
	case err == nil:
		return nil
	case repositories.IsNotFoundError(err):
		return NotFound("%s", notFoundMsg)
	case repositories.IsDuplicateError(err) && conflictMsg != "":
		return Conflict("%s", conflictMsg)
	default:
		return err
	}
}
