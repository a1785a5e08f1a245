package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound        = errors.New("mapping not found")
	ErrUnauthorized    = errors.New("caller does not own this mapping")
	ErrDuplicateSource = errors.New("original url already shortened by this owner")
	ErrDuplicateCode   = errors.New("short code already in use")
)

// Form fields that validation errors are keyed by.
const (
	FieldURL       = "URL"
	FieldShortCode = "ShortCode"
)

// FieldError is a single problem with one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// ValidationError collects field errors so the caller can correct all of
// them at once.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Add(field, message string, cause error) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message, Err: cause})
}

// Has reports whether field already carries an error.
func (e *ValidationError) Has(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) Empty() bool {
	return len(e.Errors) == 0
}

// ByField groups messages by field name, the shape returned to clients.
func (e *ValidationError) ByField() map[string][]string {
	out := make(map[string][]string, len(e.Errors))
	for _, fe := range e.Errors {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, fe := range e.Errors {
		errs = append(errs, fe)
	}
	return errs
}

// StorageError reports a failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err unless it is nil or already a domain error.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicateCode), errors.Is(err, ErrDuplicateSource):
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
