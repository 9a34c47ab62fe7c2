package request

import "fmt"

// Kind classifies a validation failure.
type Kind string

const (
	KindUnrecognizedType          Kind = "UnrecognizedType"
	KindMissingSource             Kind = "MissingSource"
	KindSourceUnreadable          Kind = "SourceUnreadable"
	KindMissingOutputDirectory    Kind = "MissingOutputDirectory"
	KindOutputDirectoryUnwritable Kind = "OutputDirectoryUnwritable"
	KindInvalidFileSelector       Kind = "InvalidFileSelector"
	KindCannotInferType           Kind = "CannotInferType"
)

// ValidationError reports a request rejected before the processor ran.
type ValidationError struct {
	Kind    Kind
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches any ValidationError of the same kind, so callers can write
// errors.Is(err, request.ErrMissingSource).
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

var (
	ErrUnrecognizedType          = &ValidationError{Kind: KindUnrecognizedType}
	ErrMissingSource             = &ValidationError{Kind: KindMissingSource}
	ErrSourceUnreadable          = &ValidationError{Kind: KindSourceUnreadable}
	ErrMissingOutputDirectory    = &ValidationError{Kind: KindMissingOutputDirectory}
	ErrOutputDirectoryUnwritable = &ValidationError{Kind: KindOutputDirectoryUnwritable}
	ErrInvalidFileSelector       = &ValidationError{Kind: KindInvalidFileSelector}
	ErrCannotInferType           = &ValidationError{Kind: KindCannotInferType}
)

func newValidationError(kind Kind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// CannotInferType builds the error returned when discovery has nothing to try.
func CannotInferType(source string) *ValidationError {
	return newValidationError(KindCannotInferType,
		"Cannot infer the type of %s from its extension. Provide one using the \"type\" option.", source)
}
