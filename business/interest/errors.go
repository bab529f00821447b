package interest

import "errors"

var ErrInvalidInput = errors.New("invalid interest input")

// ErrStoreUnavailable marks an interest store that could not answer.
// Read boundaries absorb it into empty-result successes.
var ErrStoreUnavailable = errors.New("interest store unavailable")
