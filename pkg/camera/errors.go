package camera

import "errors"

var (
	// ErrInvalidExposure is returned before any hardware interaction when
	// the requested exposure is outside [MinExposureMS, MaxExposureMS].
	ErrInvalidExposure = errors.New("exposure out of range")

	// ErrNoDevice means enumeration found no camera attached.
	ErrNoDevice = errors.New("no device found")

	// ErrNotInitialized means the session never reached Ready or was closed.
	ErrNotInitialized = errors.New("device not initialized")

	// ErrBusy means a capture is already in flight.
	ErrBusy = errors.New("capture already in progress")

	// ErrConfigure, ErrStreamStart and ErrTrigger wrap SDK failures of the
	// corresponding capture step. Streaming is rolled back before they are
	// returned.
	ErrConfigure   = errors.New("failed to configure capture")
	ErrStreamStart = errors.New("failed to start streaming")
	ErrTrigger     = errors.New("failed to issue trigger")

	// ErrTimeout means no frame arrived within exposure + the transport
	// margin. Safe to retry.
	ErrTimeout = errors.New("capture timed out")

	// ErrFrameOverflow means the delivered frame exceeds the pre-allocated
	// buffer capacity. The buffer is left untouched.
	ErrFrameOverflow = errors.New("frame exceeds buffer capacity")
)
