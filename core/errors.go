package realtime

import "errors"

// Fail-loud protocol contract violations. These indicate backend/client
// drift and abort processing of the offending event with no state change.
var (
	ErrMissingEventID   = errors.New("event is missing event_id")
	ErrMissingEventType = errors.New("event is missing type")
	ErrUnknownEventType = errors.New("unknown event type")

	ErrNotConnected     = errors.New("not connected to realtime API")
	ErrAlreadyConnected = errors.New("already connected to realtime API")
)
