package camera

import (
	"fmt"
	"sync"

	"github.com/fs-bullard/sl-wb-pi-api/pkg/xdtusb"
)

// State is the device session lifecycle state.
type State int

const (
	Uninitialized State = iota
	Initializing
	Ready
	Streaming
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Streaming:
		return "streaming"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session owns the device handle for the single camera attached to the
// process. It is constructed once at startup and released on shutdown;
// captures are only allowed while the session is Ready.
type Session struct {
	mu    sync.Mutex
	state State

	sdk xdtusb.SDK
	dev xdtusb.Device

	maxWidth  int
	maxHeight int
	buffer    *Buffer
}

// Open initializes the SDK, opens the first enumerated device with a single
// hardware frame slot and allocates the frame buffer sized to the maximum
// sensor dimensions. A failed Open releases whatever it claimed and returns
// an error; the service cannot serve captures without a device.
func Open(sdk xdtusb.SDK) (*Session, error) {
	s := &Session{sdk: sdk, state: Initializing}

	devices, err := sdk.Enumerate()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, ErrNoDevice
	}

	// One hardware frame slot keeps the SDK memory footprint minimal on
	// the Pi Zero; the single-shot capture flow never needs more.
	dev := devices[0]
	if err := dev.Open(1); err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}

	width, height, err := dev.SensorSize()
	if err != nil {
		if cerr := dev.Close(); cerr != nil {
			logger.Warnf("close device after failed open: %s", cerr)
		}
		return nil, fmt.Errorf("read sensor size: %w", err)
	}

	s.dev = dev
	s.maxWidth = width
	s.maxHeight = height
	s.buffer = newBuffer(width * height * xdtusb.PixelSize)
	s.state = Ready
	logger.Infof("camera opened, sensor %d*%d, frame buffer %d bytes", width, height, s.buffer.Capacity())

	return s, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsReady reports whether the session can serve captures. Streaming counts:
// it only occurs transiently inside a capture.
func (s *Session) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Ready || s.state == Streaming
}

// MaxSize reports the maximum sensor dimensions read at open time.
func (s *Session) MaxSize() (width, height int) {
	return s.maxWidth, s.maxHeight
}

// BufferCapacity reports the fixed frame buffer capacity in bytes.
func (s *Session) BufferCapacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer == nil {
		return 0
	}
	return s.buffer.Capacity()
}

func (s *Session) device() xdtusb.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Close stops streaming if needed, closes the device handle and releases
// the frame buffer. Closing an already-closed session is a no-op. Callers
// that share the session with a Coordinator should go through
// Coordinator.Shutdown so an in-flight capture finishes first.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed || s.state == Uninitialized {
		return nil
	}

	if s.state == Streaming {
		if err := s.dev.StopStreaming(); err != nil {
			logger.Warnf("stop streaming on close: %s", err)
		}
	}

	var err error
	if cerr := s.dev.Close(); cerr != nil {
		err = fmt.Errorf("close device: %w", cerr)
	}
	if serr := s.sdk.Shutdown(); serr != nil && err == nil {
		err = fmt.Errorf("shutdown sdk: %w", serr)
	}

	s.dev = nil
	s.buffer = nil
	s.state = Closed
	logger.Info("camera session closed")

	return err
}
