package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/academic-records-service/internal/models"
	"github.com/SAP-F-2025/academic-records-service/internal/repositories"
	"github.com/SAP-F-2025/academic-records-service/internal/validator"
)

// Sentinel errors. Typed errors below match them through errors.Is.
var (
	ErrValidationFailed    = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrAuthorizationDenied = errors.New("authorization denied")
	ErrInvalidSession      = errors.New("invalid session")
	ErrUnauthorized        = errors.New("invalid credentials")
	ErrStorage             = errors.New("storage failure")
)

// ValidationError reports malformed input
type ValidationError struct {
	Field   string                     `json:"field"`
	Message string                     `json:"message"`
	Value   interface{}                `json:"value,omitempty"`
	Details validator.ValidationErrors `json:"details,omitempty"`
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e *ValidationError) Error() string {
	if len(e.Details) > 0 {
		return e.Details.Error()
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// fromRequestValidation wraps tag validation failures
func fromRequestValidation(err error) error {
	details := validator.ToValidationErrors(err)
	ve := &ValidationError{Field: "request", Message: "is invalid", Details: details}
	if len(details) > 0 {
		ve.Field = details[0].Field
		ve.Message = details[0].Message
	}
	return ve
}

// NotFoundError reports a referenced id that does not exist
type NotFoundError struct {
	Resource string
	ID       uint
}

func NewNotFoundError(resource string, id uint) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PermissionError is a legitimate denial by role or ownership
type PermissionError struct {
	UserID       uint
	Role         models.UserRole
	ResourceType string
	ResourceID   uint
	Action       string
	Reason       string
}

func NewPermissionError(session *models.SessionSnapshot, resourceType string, resourceID uint, action, reason string) *PermissionError {
	pe := &PermissionError{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Action:       action,
		Reason:       reason,
	}
	if session != nil {
		pe.UserID = session.UserID
		pe.Role = session.Role
	}
	return pe
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s may not %s %s %d: %s", e.Role, e.Action, e.ResourceType, e.ResourceID, e.Reason)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrAuthorizationDenied
}

// StorageError wraps an opaque persistence failure. It is never retried here.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// lookupError maps a repository read failure to NotFound or Storage
func lookupError(resource string, id uint, err error) error {
	if repositories.IsNotFoundError(err) {
		return NewNotFoundError(resource, id)
	}
	return storageError("get "+resource, err)
}
