package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind classifies failures so the HTTP layer can pick a status without
// knowing which component produced the error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindGeneration
	KindPersistence
	KindExport
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindGeneration:
		return "generation"
	case KindPersistence:
		return "persistence"
	case KindExport:
		return "export"
	case KindUnavailable:
		return "unavailable"
	}
	return "internal"
}

// Status maps a kind to the HTTP status returned to callers.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindGeneration, KindExport:
		return http.StatusBadGateway
	case KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Error is the application error carried through gin's c.Error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error { return New(KindValidation, message, nil) }

func NotFound(message string) *Error { return New(KindNotFound, message, nil) }

func Generation(message string, err error) *Error { return New(KindGeneration, message, err) }

func Persistence(message string, err error) *Error { return New(KindPersistence, message, err) }

func Export(message string, err error) *Error { return New(KindExport, message, err) }

func Unavailable(message string) *Error { return New(KindUnavailable, message, nil) }

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FromBinding turns a gin binding failure into a validation error. Validator
// failures list the offending fields; anything else (malformed JSON) keeps a
// generic message.
func FromBinding(err error) *Error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]string, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return New(KindValidation, "invalid request: "+strings.Join(fields, ", "), err)
	}
	return New(KindValidation, "invalid request body", err)
}
