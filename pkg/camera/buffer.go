package camera

import "github.com/fs-bullard/sl-wb-pi-api/pkg/xdtusb"

// Buffer is the single reusable frame buffer. Capacity is fixed when the
// session opens (max sensor dimensions) and never changes afterwards, so
// worst-case memory use is bounded at startup rather than per capture.
//
// All field access happens under the Coordinator's handoff lock.
type Buffer struct {
	data []byte

	width       int
	height      int
	validLength int
	generation  uint64
}

func newBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

func (b *Buffer) Capacity() int {
	return len(b.data)
}

func (b *Buffer) view() View {
	return View{
		Width:       b.width,
		Height:      b.height,
		PixelSize:   xdtusb.PixelSize,
		ValidLength: b.validLength,
		Generation:  b.generation,
		Bytes:       b.data[:b.validLength],
	}
}

// View is a borrowed, read-only window onto the frame buffer. Bytes aliases
// the buffer and is only valid until the next capture overwrites it; callers
// that need the data beyond that must copy.
type View struct {
	Width       int
	Height      int
	PixelSize   int
	ValidLength int
	Generation  uint64
	Bytes       []byte
}
