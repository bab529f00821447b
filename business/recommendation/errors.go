package recommendation

import "errors"

// ErrStoreUnavailable marks a backing store that could not answer.
// Boundaries absorb it into an empty-result success; it never crashes
// a request.
var ErrStoreUnavailable = errors.New("recommendation store unavailable")

var ErrInvalidInput = errors.New("invalid recommendation input")
