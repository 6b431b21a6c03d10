package fault

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                    = errors.New("resource not found")
	ErrUniqueViolation             = errors.New("unique violation")
	ErrInvalidQuestionType         = errors.New("invalid question type")
	ErrSurveyNotAcceptingResponses = errors.New("survey is not accepting responses")
	ErrAlreadySubmitted            = errors.New("session already submitted this survey")
)

type ErrorType int

const (
	ErrClient ErrorType = iota
	ErrInternal
)

// Fault carries a message meant for the caller, plus optional per-field
// validation messages.
type Fault struct {
	Type    ErrorType
	Message string
	Err     error
	Fields  map[string][]string
}

func (e *Fault) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.typeString(), e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.typeString(), e.Message)
}

// Unwrap allows errors.Is and errors.As to work.
func (e *Fault) Unwrap() error {
	return e.Err
}

func (e *Fault) typeString() string {
	switch e.Type {
	case ErrClient:
		return "ClientError"
	case ErrInternal:
		return "InternalError"
	default:
		return "UnknownError"
	}
}

// Add records a validation message for field.
func (e *Fault) Add(field, msg string, args ...any) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], fmt.Sprintf(msg, args...))
}

// OrNil returns nil when no field messages were recorded.
func (e *Fault) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NewClientError creates a new client error.
func NewClientError(msg string, err error) error {
	return &Fault{
		Type:    ErrClient,
		Message: msg,
		Err:     err,
	}
}

// NewValidation creates an empty client fault to collect field messages into.
func NewValidation(msg string) *Fault {
	return &Fault{Type: ErrClient, Message: msg}
}

// NewInternalError creates a new internal server error.
func NewInternalError(msg string, err error) error {
	return &Fault{
		Type:    ErrInternal,
		Message: msg,
		Err:     err,
	}
}

// IsClientError checks if an error is a client error.
func IsClientError(err error) bool {
	var ce *Fault
	if errors.As(err, &ce) {
		return ce.Type == ErrClient
	}
	return false
}
