package environment

import "fmt"

// UnsupportedActionSpaceError is returned when an algorithm is
// constructed on an environment whose action space it cannot support.
// The check happens once at construction, never per call.
type UnsupportedActionSpaceError struct {
	Algorithm   string
	Cardinality Cardinality
}

// Error satisfies the error interface
func (e *UnsupportedActionSpaceError) Error() string {
	return fmt.Sprintf("%v: unsupported action space %v", e.Algorithm,
		e.Cardinality)
}

// IsUnsupportedActionSpace returns whether an error reports an
// unsupported action space
func IsUnsupportedActionSpace(err error) bool {
	_, ok := err.(*UnsupportedActionSpaceError)
	return ok
}
