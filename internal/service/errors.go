package service

import "fmt"

// ValidationKind classifies a rejected request. Each kind maps to one
// violated constraint so the boundary can surface a specific message.
type ValidationKind string

const (
	KindUnknownPack     ValidationKind = "unknown-pack"
	KindInvalidSeverity ValidationKind = "invalid-severity"
	KindDiffTooLarge    ValidationKind = "diff-too-large"
	KindInvalidOverride ValidationKind = "invalid-overrides"
	KindInvalidAdvisory ValidationKind = "invalid-advisory"
	KindUnauthorized    ValidationKind = "unauthorized"
)

// ValidationError rejects a request before the pipeline runs.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(kind ValidationKind, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsValidation returns the ValidationError inside err, if any.
func AsValidation(err error) (*ValidationError, bool) {
	ve, ok := err.(*ValidationError)
	return ve, ok
}

// IsUnauthorized reports whether err is an authorization rejection.
func IsUnauthorized(err error) bool {
	ve, ok := AsValidation(err)
	return ok && ve.Kind == KindUnauthorized
}

// InternalError is a recovered defect in the deterministic pipeline. The
// pipeline is pure and total over its inputs, so this surfacing as anything
// other than a bug report would be wrong; it is kept distinct from
// validation errors.
type InternalError struct {
	Cause interface{}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal scan failure: %v", e.Cause)
}

// IsInternal reports whether err is a recovered internal failure.
func IsInternal(err error) bool {
	_, ok := err.(*InternalError)
	return ok
}
