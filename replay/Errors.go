package replay

import "errors"

// Error implements errors unique to a replay buffer
type Error struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

var errInsufficientSamples = errors.New("fewer written slots than batch size")

var errUnwrittenSlot = errors.New("index references an unwritten slot")

// IsInsufficientSamples returns whether or not an error reports that
// there are insufficient samples in the buffer to draw a batch.
//
// The caller is expected to gate sampling on a warm-up threshold, so
// this error indicates a scheduling bug rather than a transient state.
func IsInsufficientSamples(err error) bool {
	if bufErr, ok := err.(*Error); ok {
		err = bufErr.Err
	}
	return errors.Is(err, errInsufficientSamples)
}

// IsUnwrittenSlot returns whether or not an error reports a priority
// update aimed at a slot that has never been written.
func IsUnwrittenSlot(err error) bool {
	if bufErr, ok := err.(*Error); ok {
		err = bufErr.Err
	}
	return errors.Is(err, errUnwrittenSlot)
}
