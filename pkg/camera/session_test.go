package camera

import (
	"errors"
	"testing"

	"github.com/fs-bullard/sl-wb-pi-api/pkg/xdtusb"
)

func TestOpenNoDevice(t *testing.T) {
	if _, err := Open(&spySDK{}); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("got %v, want ErrNoDevice", err)
	}
}

func TestOpenAllocatesBuffer(t *testing.T) {
	dev := newSpyDevice(1536, 1030)
	s, err := Open(&spySDK{devices: []xdtusb.Device{dev}})
	checkErr(t, err)
	defer s.Close()

	if dev.opens != 1 {
		t.Fatalf("device opened %d times, want 1", dev.opens)
	}
	if w, h := s.MaxSize(); w != 1536 || h != 1030 {
		t.Fatalf("max size = %d*%d", w, h)
	}
	if got := s.BufferCapacity(); got != 1536*1030*xdtusb.PixelSize {
		t.Fatalf("buffer capacity = %d", got)
	}
	if st := s.State(); st != Ready {
		t.Fatalf("state = %s, want ready", st)
	}
}

func TestCloseIdempotent(t *testing.T) {
	dev := newSpyDevice(64, 48)
	sdk := &spySDK{devices: []xdtusb.Device{dev}}
	s, err := Open(sdk)
	checkErr(t, err)

	checkErr(t, s.Close())
	checkErr(t, s.Close())

	if dev.closes != 1 {
		t.Fatalf("device closed %d times, want 1", dev.closes)
	}
	if sdk.shutdowns != 1 {
		t.Fatalf("sdk shut down %d times, want 1", sdk.shutdowns)
	}
	if st := s.State(); st != Closed {
		t.Fatalf("state = %s, want closed", st)
	}
}

func TestSettingsRange(t *testing.T) {
	settings := NewSettings()
	if got := settings.ExposureMS(); got != DefaultExposureMS {
		t.Fatalf("default exposure = %d", got)
	}
	if err := settings.SetExposureMS(5); !errors.Is(err, ErrInvalidExposure) {
		t.Fatalf("got %v, want ErrInvalidExposure", err)
	}
	checkErr(t, settings.SetExposureMS(2500))
	if got := settings.ExposureMS(); got != 2500 {
		t.Fatalf("exposure = %d, want 2500", got)
	}
}
