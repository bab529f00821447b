package activity

import "errors"

var ErrInvalidInput = errors.New("invalid activity input")

// ErrStoreUnavailable marks an event store that could not answer.
// Read boundaries absorb it into empty-result successes.
var ErrStoreUnavailable = errors.New("activity store unavailable")
