package room

import "errors"

// Sentinel errors returned unwrapped by Service methods, matched by value
// at the session layer and translated there into wire Error{code,message}
// frames, or into a closed connection for ErrInternal (see internal/session).
var (
	ErrNotFound         = errors.New("room: not found")
	ErrInvalidPassword  = errors.New("room: invalid password")
	ErrCapacityExceeded = errors.New("room: capacity exceeded")
	ErrInternal         = errors.New("room: internal error")
)
