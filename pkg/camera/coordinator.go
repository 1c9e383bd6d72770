package camera

import (
	"fmt"
	"sync"
	"time"

	"github.com/fs-bullard/sl-wb-pi-api/pkg/xdtusb"
)

const (
	MinExposureMS = 10
	MaxExposureMS = 10000
)

// Margin beyond the nominal exposure before a capture is abandoned. Fixed
// rather than proportional: it covers hardware readout and USB transport,
// which do not scale with exposure.
var timeoutMargin = 10 * time.Second

// Coordinator orchestrates one capture cycle at a time: program the
// exposure, arm the frame handoff, stream, trigger, block until the SDK's
// delivery goroutine hands over a frame or the deadline passes.
//
// The handoff is a single-slot mailbox. deliver (producer, SDK goroutine)
// writes into the session's frame buffer under mu and posts on signal;
// Capture (consumer) selects on signal against the deadline. A fresh signal
// channel is armed per capture, so a late delivery from an abandoned capture
// can never wake a later one.
type Coordinator struct {
	session *Session

	// gate serializes captures; TryLock gives DeviceBusy semantics.
	gate sync.Mutex

	mu         sync.Mutex
	armed      bool
	frameReady bool
	overflow   bool
	signal     chan struct{}
}

func NewCoordinator(session *Session) *Coordinator {
	return &Coordinator{session: session}
}

// Capture acquires a single frame at the given exposure and returns a view
// of the frame buffer. The view is valid until the next capture. At most
// one capture may be in flight; a second concurrent call fails with ErrBusy.
func (c *Coordinator) Capture(exposureMS int) (View, error) {
	if exposureMS < MinExposureMS || exposureMS > MaxExposureMS {
		return View{}, fmt.Errorf("%w: %dms not in [%d, %d]", ErrInvalidExposure, exposureMS, MinExposureMS, MaxExposureMS)
	}

	if !c.gate.TryLock() {
		return View{}, ErrBusy
	}
	defer c.gate.Unlock()

	if !c.session.IsReady() {
		return View{}, ErrNotInitialized
	}
	dev := c.session.device()

	signal := c.arm()
	defer c.disarm()

	exposure := time.Duration(exposureMS) * time.Millisecond
	if err := dev.Configure(1, exposure, 0); err != nil {
		return View{}, fmt.Errorf("%w: %s", ErrConfigure, err)
	}

	if err := dev.StartStreaming(c.deliver); err != nil {
		return View{}, fmt.Errorf("%w: %s", ErrStreamStart, err)
	}
	c.session.setState(Streaming)

	if err := dev.Trigger(); err != nil {
		c.stopStreaming(dev)
		return View{}, fmt.Errorf("%w: %s", ErrTrigger, err)
	}

	deadline := time.NewTimer(exposure + timeoutMargin)
	defer deadline.Stop()

	select {
	case <-signal:
	case <-deadline.C:
		c.stopStreaming(dev)
		logger.Warnf("no frame within %s margin at %dms exposure", timeoutMargin, exposureMS)
		return View{}, ErrTimeout
	}

	// The frame is already in the buffer; a stop failure is logged but
	// does not fail the capture.
	c.stopStreaming(dev)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overflow {
		return View{}, fmt.Errorf("%w (capacity %d bytes)", ErrFrameOverflow, c.session.buffer.Capacity())
	}
	return c.session.buffer.view(), nil
}

// Shutdown waits for any in-flight capture to resolve, then closes the
// session. Idempotent.
func (c *Coordinator) Shutdown() error {
	c.gate.Lock()
	defer c.gate.Unlock()
	return c.session.Close()
}

// arm resets the handoff for a new capture and returns its signal channel.
func (c *Coordinator) arm() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = true
	c.frameReady = false
	c.overflow = false
	c.signal = make(chan struct{}, 1)
	return c.signal
}

func (c *Coordinator) disarm() {
	c.mu.Lock()
	c.armed = false
	c.mu.Unlock()
}

// deliver is the frame callback, invoked from the SDK's delivery goroutine.
// It copies the frame into the session buffer, marks the handoff resolved
// and wakes the waiting Capture. Deliveries outside an armed handoff (late
// frames racing a timeout) are dropped. The hardware slot is committed on
// every path, including overflow; the device only has one slot and an
// uncommitted slot starves it permanently.
func (c *Coordinator) deliver(frame xdtusb.Frame) {
	defer frame.Commit()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.armed || c.frameReady {
		logger.Debugf("dropping unarmed frame delivery")
		return
	}

	width, height := frame.Dimensions()
	required := width * height * xdtusb.PixelSize
	buffer := c.session.buffer

	if required > buffer.Capacity() {
		logger.Errorf("frame %d*%d needs %d bytes, buffer holds %d", width, height, required, buffer.Capacity())
		c.overflow = true
	} else {
		copy(buffer.data[:required], frame.Data())
		buffer.width = width
		buffer.height = height
		buffer.validLength = required
		buffer.generation++
	}

	c.frameReady = true
	select {
	case c.signal <- struct{}{}:
	default:
	}
}

func (c *Coordinator) stopStreaming(dev xdtusb.Device) {
	if err := dev.StopStreaming(); err != nil {
		logger.Warnf("stop streaming: %s", err)
	}
	c.session.setState(Ready)
}
