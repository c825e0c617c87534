package buddy

import "errors"

// ErrOutOfMemory is returned by FindBlock when no Free or splittable
// Coalesced node exists at the requested order.
var ErrOutOfMemory = errors.New("buddy: no block found for allocation")
