package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/isdelr/inkwell-be/internal/auth"
	"github.com/isdelr/inkwell-be/internal/database"
	"github.com/isdelr/inkwell-be/internal/storage"
)

// Kind classifies a service failure. Each kind maps to exactly one HTTP status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindForbidden
	KindNotFound
	KindConflict
	KindTooLarge
	KindUnsupportedMedia
)

var kindStatus = map[Kind]int{
	KindInternal:         http.StatusInternalServerError,
	KindValidation:       http.StatusBadRequest,
	KindAuthentication:   http.StatusUnauthorized,
	KindForbidden:        http.StatusForbidden,
	KindNotFound:         http.StatusNotFound,
	KindConflict:         http.StatusConflict,
	KindTooLarge:         http.StatusRequestEntityTooLarge,
	KindUnsupportedMedia: http.StatusUnsupportedMediaType,
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindAuthentication:
		return "AuthenticationError"
	case KindForbidden:
		return "Forbidden"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindTooLarge:
		return "PayloadTooLarge"
	case KindUnsupportedMedia:
		return "UnsupportedMediaType"
	default:
		return "InternalError"
	}
}

// Error is the error type returned by every service operation.
// Message is safe to show to clients; Err holds the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, &Error{Kind: k}) match on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinel values usable with errors.Is to test the kind of a service error.
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrForbidden      = &Error{Kind: KindForbidden}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrConflict       = &Error{Kind: KindConflict}
	ErrInternal       = &Error{Kind: KindInternal}
)

// NewError creates a service error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func validationError(message string) *Error { return NewError(KindValidation, message) }
func notFound(what string) *Error         { return NewError(KindNotFound, what+" not found.") }
func conflict(message string) *Error      { return NewError(KindConflict, message) }

func forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message, Err: auth.ErrForbidden}
}

// internal logs the cause and returns an error whose message does not leak store details.
func internal(op string, err error) *Error {
	log.Error().Err(err).Str("op", op).Msg("Service operation failed")
	return &Error{Kind: KindInternal, Message: "Internal server error.", Err: err}
}

// storeError re-classifies a gorm/driver failure into the service taxonomy.
func storeError(op, what string, err error) *Error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(what)
	case database.IsUniqueViolation(err):
		return &Error{Kind: KindConflict, Message: what + " already exists.", Err: err}
	default:
		return internal(op, err)
	}
}

// KindOf returns the kind carried by err. Errors from outside the service layer are
// classified by their sentinel where one is known, and as internal otherwise.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.Is(err, auth.ErrInvalidToken):
		return KindAuthentication
	case errors.Is(err, auth.ErrForbidden):
		return KindForbidden
	case errors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	case database.IsUniqueViolation(err):
		return KindConflict
	case errors.Is(err, storage.ErrTooLarge):
		return KindTooLarge
	case errors.Is(err, storage.ErrUnsupportedType):
		return KindUnsupportedMedia
	case errors.Is(err, storage.ErrMissingFile):
		return KindValidation
	}
	return KindInternal
}

// StatusCode maps err to the HTTP status the API should answer with.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return kindStatus[KindOf(err)]
}

// Message returns a client-safe message for err.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	if errors.Is(err, storage.ErrMissingFile) {
		return "No file uploaded."
	}
	switch KindOf(err) {
	case KindAuthentication:
		return "Invalid or expired token."
	case KindForbidden:
		return "Forbidden."
	case KindNotFound:
		return "Not found."
	case KindValidation:
		return "Invalid request."
	case KindConflict:
		return "Resource already exists."
	case KindTooLarge:
		return "File too large."
	case KindUnsupportedMedia:
		return "Only JPEG and PNG files are allowed."
	}
	return "Internal server error."
}
