package slow5

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an error by how the caller should react to it
type ErrorKind int

const (
	// KindUnknown is reported for errors that did not originate here
	KindUnknown ErrorKind = iota
	// KindConfig errors are detected before any file is touched
	KindConfig
	// KindValidation errors reject a single call and leave the handle usable
	KindValidation
	// KindResource errors come from the underlying file or handle
	KindResource
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Error is a sentinel error with a kind. Use errors.Is to match sentinels
// and KindOf to classify wrapped errors.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return "slow5: " + e.Message
}

// Configuration errors
var (
	ErrUnsupportedExtension      = &Error{KindConfig, "unsupported file extension"}
	ErrCompressionConfigConflict = &Error{KindConfig, "compression options conflict with the open mode"}
	ErrInvalidOption             = &Error{KindConfig, "option does not apply to this open mode"}
	ErrDuplicateField            = &Error{KindConfig, "duplicate auxiliary field"}
	ErrEmptyEnumLabels           = &Error{KindConfig, "enum field declares no labels"}
	ErrTooManyEnumLabels         = &Error{KindConfig, "enum field declares more than 256 labels"}
	ErrInvalidField              = &Error{KindConfig, "invalid auxiliary field"}
	ErrInvalidReadGroups         = &Error{KindConfig, "number of read groups must be at least 1"}
	ErrInvalidAttribute          = &Error{KindConfig, "invalid attribute"}
	ErrRegistryCommitted         = &Error{KindConfig, "header is immutable after the first record"}
)

// Validation errors
var (
	ErrMissingField        = &Error{KindValidation, "missing required field"}
	ErrEmptyReadID         = &Error{KindValidation, "empty read id"}
	ErrTypeMismatch        = &Error{KindValidation, "type mismatch"}
	ErrUnknownField        = &Error{KindValidation, "unknown auxiliary field"}
	ErrUnknownEnumLabel    = &Error{KindValidation, "unknown enum label"}
	ErrEnumLabelOutOfRange = &Error{KindValidation, "enum index out of range"}
	ErrAuxFieldIncomplete  = &Error{KindValidation, "required auxiliary field not set"}
	ErrAuxTypeUnsupported  = &Error{KindValidation, "auxiliary field type has no codec"}
	ErrAuxValueMissing     = &Error{KindValidation, "auxiliary value not present in record"}
	ErrSchemaMismatch      = &Error{KindValidation, "record does not match the header schema"}
	ErrReadGroupOutOfRange = &Error{KindValidation, "read group out of range"}
	ErrDuplicateReadID     = &Error{KindValidation, "duplicate read id"}
	ErrAttributeNotFound   = &Error{KindValidation, "attribute not found"}
)

// Resource errors
var (
	ErrHandleClosed   = &Error{KindResource, "handle is closed"}
	ErrReadIDNotFound = &Error{KindResource, "read id not found"}
	ErrDecode         = &Error{KindResource, "failed to decode record"}
	ErrAppend         = &Error{KindResource, "failed to append record"}
	ErrCompression    = &Error{KindResource, "compression failed"}
	ErrConcurrentUse  = &Error{KindResource, "handle is in use by another goroutine"}
	ErrIO             = &Error{KindResource, "i/o error"}
)

// MissingFieldError names the first unset required record field
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("slow5: missing required field %s", e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// TypeMismatchError reports a value whose type differs from the declared one
type TypeMismatchError struct {
	Field     string
	Declared  FieldType
	Requested string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("slow5: field %s is declared %s, got %s", e.Field, e.Declared, e.Requested)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// wrapf attaches call-site context to a sentinel
func wrapf(sentinel *Error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
