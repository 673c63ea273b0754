package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// invalidTextRepresentation is the SQLSTATE raised for a malformed uuid.
const invalidTextRepresentation = "22P02"

// Error codes surfaced to callers.
const (
	CodeValidation            = "VALIDATION_FAILED"
	CodeNotFound              = "NOT_FOUND"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeConflict              = "CONFLICT"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeTechnicianUnavailable = "TECHNICIAN_UNAVAILABLE"
	CodeInternal              = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	// Resource names the missing entity kind for NOT_FOUND errors.
	Resource string
	Details  map[string]any
	Err      error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewNotFound reports a missing entity of the given kind.
func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Resource:   resource,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewInvalidTransition reports a lifecycle event the current status rejects.
func NewInvalidTransition(status, event string, err error) error {
	return &DomainError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("ticket status %s does not allow %s", status, event),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"status": status, "event": event},
		Err:        err,
	}
}

// NewTechnicianUnavailable reports a dispatch to a technician already bound to a ticket.
func NewTechnicianUnavailable(technicianID string, currentTicketID *string) error {
	details := map[string]any{"technician_id": technicianID}
	if currentTicketID != nil {
		details["current_ticket_id"] = *currentTicketID
	}
	return NewDomainError(CodeTechnicianUnavailable, "technician is not available", http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// IsNotFound reports whether err is a NOT_FOUND error for resource.
// An empty resource matches any kind.
func IsNotFound(err error, resource string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != CodeNotFound {
		return false
	}
	return resource == "" || domainErr.Resource == resource
}

// IsMissingRow reports whether a lookup by id matched no row. Ids are UUID
// columns, so text that cannot be parsed as one names no row either.
func IsMissingRow(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if IsMissingRow(err) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	return ToDomainError(err)
}
