package camera

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/fs-bullard/sl-wb-pi-api/pkg/xdtusb"
)

// spySDK and spyDevice record every hardware operation so tests can assert
// exactly which SDK calls a capture made.

type spySDK struct {
	devices   []xdtusb.Device
	shutdowns int
}

func (s *spySDK) Enumerate() ([]xdtusb.Device, error) {
	return s.devices, nil
}

func (s *spySDK) Shutdown() error {
	s.shutdowns++
	return nil
}

type configureCall struct {
	frames   int
	exposure time.Duration
	skips    int
}

type spyDevice struct {
	mu sync.Mutex

	width, height int

	opens       int
	closes      int
	configures  []configureCall
	streamStart int
	streamStop  int
	triggers    int

	configureErr error
	startErr     error
	triggerErr   error

	cb xdtusb.FrameCallback

	// When set, Trigger schedules delivery of this frame after deliverAfter.
	deliverFrame *spyFrame
	deliverAfter time.Duration
}

func newSpyDevice(width, height int) *spyDevice {
	return &spyDevice{width: width, height: height}
}

func (d *spyDevice) Open(buffers int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens++
	return nil
}

func (d *spyDevice) SensorSize() (int, int, error) {
	return d.width, d.height, nil
}

func (d *spyDevice) Configure(frames int, exposure time.Duration, skips int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.configures = append(d.configures, configureCall{frames, exposure, skips})
	return d.configureErr
}

func (d *spyDevice) StartStreaming(cb xdtusb.FrameCallback) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.streamStart++
	if d.startErr != nil {
		return d.startErr
	}
	d.cb = cb
	return nil
}

func (d *spyDevice) Trigger() error {
	d.mu.Lock()
	if d.triggerErr != nil {
		d.triggers++
		d.mu.Unlock()
		return d.triggerErr
	}
	d.triggers++
	frame := d.deliverFrame
	after := d.deliverAfter
	d.mu.Unlock()

	if frame != nil {
		go func() {
			time.Sleep(after)
			d.mu.Lock()
			cb := d.cb
			d.mu.Unlock()
			if cb != nil {
				cb(frame)
			}
		}()
	}
	return nil
}

func (d *spyDevice) StopStreaming() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.streamStop++
	d.cb = nil
	return nil
}

func (d *spyDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	return nil
}

// calls counts capture-path hardware operations, excluding open/close.
func (d *spyDevice) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.configures) + d.streamStart + d.streamStop + d.triggers
}

func (d *spyDevice) stops() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streamStop
}

func (d *spyDevice) callback() xdtusb.FrameCallback {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cb
}

type spyFrame struct {
	width, height int
	data          []byte

	mu        sync.Mutex
	committed int
}

func newSpyFrame(width, height int) *spyFrame {
	f := &spyFrame{
		width:  width,
		height: height,
		data:   make([]byte, width*height*xdtusb.PixelSize),
	}
	for i := 0; i < width*height; i++ {
		binary.LittleEndian.PutUint16(f.data[i*xdtusb.PixelSize:], uint16(i&0x0fff))
	}
	return f
}

func (f *spyFrame) Dimensions() (int, int) {
	return f.width, f.height
}

func (f *spyFrame) Data() []byte {
	return f.data
}

func (f *spyFrame) Commit() {
	f.mu.Lock()
	f.committed++
	f.mu.Unlock()
}

func (f *spyFrame) commits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.committed
}
