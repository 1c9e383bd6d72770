// Package xdtusb models the vendor SDK for the SL-1510 USB camera as a
// small capability surface. The real hardware is driven through the vendor's
// closed libxdtusb; everything above this package only sees the interfaces
// below, so the service can run against the simulator on machines without
// the camera attached.
package xdtusb

import "time"

// PixelSize is the number of bytes per sample. The sensor delivers
// little-endian uint16 samples.
const PixelSize = 2

// Frame is a hardware frame slot. The SDK owns the slot until a frame is
// captured into it, then hands it to the application via the registered
// callback. Commit returns the slot to the SDK for reuse; every delivered
// frame must be committed, the device only has a single slot.
type Frame interface {
	Dimensions() (width, height int)
	Data() []byte
	Commit()
}

// FrameCallback is invoked on the SDK's own delivery goroutine once per
// captured frame. It must return quickly and must not call any of the
// streaming-control methods (StartStreaming, StopStreaming, Trigger).
type FrameCallback func(frame Frame)

// Device is a single enumerated camera.
type Device interface {
	// Open claims the device and allocates the given number of hardware
	// frame slots.
	Open(buffers int) error

	// SensorSize reports the maximum frame dimensions in pixels.
	SensorSize() (width, height int, err error)

	// Configure programs a sequence-mode acquisition: frames per trigger,
	// exposure per frame and the number of frames to skip before the first
	// delivered one.
	Configure(frames int, exposure time.Duration, skips int) error

	// StartStreaming enables acquisition and registers cb for delivery.
	StartStreaming(cb FrameCallback) error

	// Trigger issues a software trigger for the configured sequence.
	Trigger() error

	// StopStreaming disables acquisition and unregisters the callback.
	StopStreaming() error

	Close() error
}

// SDK is the entry point: device discovery plus global teardown.
type SDK interface {
	Enumerate() ([]Device, error)
	Shutdown() error
}
