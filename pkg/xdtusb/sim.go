package xdtusb

import (
	"encoding/binary"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotOpened    = errors.New("xdtusb: device not opened")
	ErrNotStreaming = errors.New("xdtusb: device not streaming")
	ErrStreaming    = errors.New("xdtusb: streaming already started")
)

const (
	// Default simulated sensor matches the SL-1510.
	defaultSimWidth  = 1536
	defaultSimHeight = 1030

	// Transport latency between end of exposure and frame delivery.
	defaultSimLatency = 30 * time.Millisecond
)

// Sim is an in-memory SDK with a configurable set of simulated devices.
type Sim struct {
	devices []Device
}

// NewSim returns a simulated SDK enumerating the given devices. With no
// arguments it exposes a single default SimDevice.
func NewSim(devices ...Device) *Sim {
	if len(devices) == 0 {
		devices = []Device{NewSimDevice()}
	}
	return &Sim{devices: devices}
}

// NewEmptySim returns a simulated SDK with no devices attached.
func NewEmptySim() *Sim {
	return &Sim{}
}

func (s *Sim) Enumerate() ([]Device, error) {
	out := make([]Device, len(s.devices))
	copy(out, s.devices)
	return out, nil
}

func (s *Sim) Shutdown() error {
	return nil
}

// SimOption configures a SimDevice.
type SimOption func(*SimDevice)

// WithSensorSize sets the reported maximum sensor dimensions.
func WithSensorSize(width, height int) SimOption {
	return func(d *SimDevice) {
		d.width, d.height = width, height
		if d.deliveryW == 0 {
			d.deliveryW, d.deliveryH = width, height
		}
	}
}

// WithLatency sets the simulated transport latency added on top of the
// configured exposure before a frame is delivered.
func WithLatency(latency time.Duration) SimOption {
	return func(d *SimDevice) {
		d.latency = latency
	}
}

// WithSilent makes the device accept triggers but never deliver a frame,
// to exercise timeout handling.
func WithSilent() SimOption {
	return func(d *SimDevice) {
		d.silent = true
	}
}

// WithDeliverySize makes delivered frames use the given dimensions instead
// of the sensor size, to exercise oversized-frame handling.
func WithDeliverySize(width, height int) SimOption {
	return func(d *SimDevice) {
		d.deliveryW, d.deliveryH = width, height
	}
}

// SimDevice is a simulated SL-1510: it honours the open/configure/stream/
// trigger protocol and delivers one synthetic frame per trigger from its own
// goroutine, after exposure plus transport latency.
type SimDevice struct {
	mu sync.Mutex

	width, height        int
	deliveryW, deliveryH int
	latency              time.Duration
	silent               bool

	opened    bool
	streaming bool
	exposure  time.Duration
	cb        FrameCallback
	seq       uint64
}

func NewSimDevice(opts ...SimOption) *SimDevice {
	d := &SimDevice{
		width:   defaultSimWidth,
		height:  defaultSimHeight,
		latency: defaultSimLatency,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.deliveryW == 0 {
		d.deliveryW, d.deliveryH = d.width, d.height
	}
	return d
}

func (d *SimDevice) Open(buffers int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = true
	return nil
}

func (d *SimDevice) SensorSize() (int, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return 0, 0, ErrNotOpened
	}
	return d.width, d.height, nil
}

func (d *SimDevice) Configure(frames int, exposure time.Duration, skips int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return ErrNotOpened
	}
	d.exposure = exposure
	return nil
}

func (d *SimDevice) StartStreaming(cb FrameCallback) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return ErrNotOpened
	}
	if d.streaming {
		return ErrStreaming
	}
	d.streaming = true
	d.cb = cb
	return nil
}

func (d *SimDevice) Trigger() error {
	d.mu.Lock()
	if !d.opened {
		d.mu.Unlock()
		return ErrNotOpened
	}
	if !d.streaming {
		d.mu.Unlock()
		return ErrNotStreaming
	}
	delay := d.exposure + d.latency
	silent := d.silent
	d.seq++
	seq := d.seq
	d.mu.Unlock()

	if silent {
		return nil
	}
	go d.deliver(seq, delay)
	return nil
}

func (d *SimDevice) deliver(seq uint64, delay time.Duration) {
	time.Sleep(delay)

	d.mu.Lock()
	cb := d.cb
	live := d.streaming
	w, h := d.deliveryW, d.deliveryH
	d.mu.Unlock()

	// Stale delivery after StopStreaming is dropped, like the real SDK
	// unregistering the callback.
	if !live || cb == nil {
		return
	}
	cb(newSimFrame(w, h, seq))
}

func (d *SimDevice) StopStreaming() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return ErrNotOpened
	}
	d.streaming = false
	d.cb = nil
	return nil
}

func (d *SimDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = false
	d.streaming = false
	d.cb = nil
	return nil
}

// simFrame is a single simulated hardware frame slot.
type simFrame struct {
	width, height int
	data          []byte

	mu        sync.Mutex
	committed bool
}

func newSimFrame(width, height int, seq uint64) *simFrame {
	f := &simFrame{
		width:  width,
		height: height,
		data:   make([]byte, width*height*PixelSize),
	}
	// Diagonal ramp, 12-bit range, shifted per frame so repeated captures
	// are distinguishable.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint16((x + y + int(seq)) & 0x0fff)
			binary.LittleEndian.PutUint16(f.data[(y*width+x)*PixelSize:], v)
		}
	}
	return f
}

func (f *simFrame) Dimensions() (int, int) {
	return f.width, f.height
}

func (f *simFrame) Data() []byte {
	return f.data
}

func (f *simFrame) Commit() {
	f.mu.Lock()
	f.committed = true
	f.mu.Unlock()
}

// Committed reports whether the slot was returned to the SDK.
func (f *simFrame) Committed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.committed
}
