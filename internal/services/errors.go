package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/pocketledger/backend/internal/money"
)

var (
	// ErrUnauthorized is returned for bad credentials, revoked tokens and locked-out logins.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrFileTooLarge        = errors.New("file too large")
	ErrUnsupportedFileType = errors.New("file type not allowed")
	// ErrFileGone means the attachment row exists but its file is missing from storage.
	ErrFileGone = errors.New("file no longer available")
)

// ValidationError is a client input problem. Fields, when set, carries validator output.
type ValidationError struct {
	Message string
	Fields  validator.ValidationErrors
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError hides whether a resource is missing or owned by someone else.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

type InsufficientFundsError struct {
	CardID    int64
	Balance   money.Amount
	Requested money.Amount
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds on card %d: balance %s, requested %s", e.CardID, e.Balance, e.Requested)
}

// ConflictError rejects a request that would break a stored invariant, e.g. a duplicate
// phone number or editing one leg of a transfer.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		fundsErr      *InsufficientFundsError
		conflictErr   *ConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &fundsErr):
		return http.StatusBadRequest
	case errors.As(err, &conflictErr):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrFileGone):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as an ErrorResponse. Internal errors never leak their message.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		SendErrorResponse(w, "An Internal Error Occurred", status, nil)
		return
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) && len(validationErr.Fields) > 0 {
		SendErrorResponse(w, validationErr.Message, status, validationErr.Fields)
		return
	}
	SendErrorResponse(w, err.Error(), status, nil)
}
