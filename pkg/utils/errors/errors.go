package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the failure kind of an error
type ErrorType uint

const (
	// ErrorTypeUnknown represents an unclassified error
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInvalidArgument represents out-of-domain input
	ErrorTypeInvalidArgument
	// ErrorTypeNotFound represents a handle that references no allocated slot
	ErrorTypeNotFound
	// ErrorTypeOutOfRange represents an index outside its valid interval
	ErrorTypeOutOfRange
	// ErrorTypeResourceExhausted represents a full pool or failed allocation
	ErrorTypeResourceExhausted
	// ErrorTypeResourceUnavailable represents a backing resource that cannot be opened or is not loaded
	ErrorTypeResourceUnavailable
	// ErrorTypeCapacityExceeded represents input longer than a fixed capacity
	ErrorTypeCapacityExceeded
	// ErrorTypeNotConverged represents an iterative search that hit its iteration cap
	ErrorTypeNotConverged
	// ErrorTypeInternal represents an internal error
	ErrorTypeInternal
)

var typeNames = map[ErrorType]string{
	ErrorTypeUnknown:             "unknown",
	ErrorTypeInvalidArgument:     "invalid_argument",
	ErrorTypeNotFound:            "not_found",
	ErrorTypeOutOfRange:          "out_of_range",
	ErrorTypeResourceExhausted:   "resource_exhausted",
	ErrorTypeResourceUnavailable: "resource_unavailable",
	ErrorTypeCapacityExceeded:    "capacity_exceeded",
	ErrorTypeNotConverged:        "not_converged",
	ErrorTypeInternal:            "internal",
}

// String returns the snake_case name of the error type
func (t ErrorType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("error_type(%d)", uint(t))
}

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new error with the given message
func New(message string) error {
	return &AppError{
		Type:    ErrorTypeUnknown,
		Message: message,
	}
}

// Newf creates a new typed error with the given format and arguments
func Newf(errType ErrorType, format string, args ...interface{}) error {
	return &AppError{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with a message, keeping the type of the innermost AppError
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:    TypeOf(err),
		Message: message,
		Err:     err,
	}
}

// Wrapf wraps an error with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithType wraps err so that it reports errType
func WithType(err error, errType ErrorType) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:    errType,
		Message: err.Error(),
		Err:     err,
	}
}

// TypeOf returns the type of the first AppError in err's chain
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given type
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// Is reports whether err or any of the errors in its chain is target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// InvalidArgument creates a new InvalidArgument error
func InvalidArgument(message string) error {
	return &AppError{Type: ErrorTypeInvalidArgument, Message: message}
}

// NotFound creates a new NotFound error
func NotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// OutOfRange creates a new OutOfRange error
func OutOfRange(message string) error {
	return &AppError{Type: ErrorTypeOutOfRange, Message: message}
}

// ResourceExhausted creates a new ResourceExhausted error
func ResourceExhausted(message string) error {
	return &AppError{Type: ErrorTypeResourceExhausted, Message: message}
}

// ResourceUnavailable creates a new ResourceUnavailable error
func ResourceUnavailable(message string) error {
	return &AppError{Type: ErrorTypeResourceUnavailable, Message: message}
}

// CapacityExceeded creates a new CapacityExceeded error
func CapacityExceeded(message string) error {
	return &AppError{Type: ErrorTypeCapacityExceeded, Message: message}
}

// NotConverged creates a new NotConverged error
func NotConverged(message string) error {
	return &AppError{Type: ErrorTypeNotConverged, Message: message}
}

// Internal creates a new Internal error
func Internal(message string) error {
	return &AppError{Type: ErrorTypeInternal, Message: message}
}
