package archive

import (
	"bytes"
	"testing"
	"time"

	"github.com/fs-bullard/sl-wb-pi-api/pkg/camera"
)

func testView(fill byte) camera.View {
	data := bytes.Repeat([]byte{fill}, 64*48*2)
	return camera.View{
		Width:       64,
		Height:      48,
		PixelSize:   2,
		ValidLength: len(data),
		Generation:  1,
		Bytes:       data,
	}
}

func TestSaveAndLatest(t *testing.T) {
	a, err := New(t.TempDir())
	checkErr(t, err)

	first, err := a.Save(testView(0x11), 100, time.Now())
	checkErr(t, err)
	if first.Name != "frame-000000" {
		t.Fatalf("first frame named %s", first.Name)
	}

	second, err := a.Save(testView(0x22), 250, time.Now())
	checkErr(t, err)
	if second.Name != "frame-000001" {
		t.Fatalf("second frame named %s", second.Name)
	}

	meta, data, err := a.Latest()
	checkErr(t, err)
	if meta.Name != second.Name || meta.ExposureMS != 250 {
		t.Fatalf("latest meta = %+v", meta)
	}
	if !bytes.Equal(data, testView(0x22).Bytes) {
		t.Fatal("latest frame bytes do not round-trip")
	}

	entries, err := a.List()
	checkErr(t, err)
	if len(entries) != 2 {
		t.Fatalf("listed %d entries, want 2", len(entries))
	}
	if entries[0].HumanSize == "" {
		t.Fatal("entry size not humanized")
	}
}

func TestFrameNameValidation(t *testing.T) {
	a, err := New(t.TempDir())
	checkErr(t, err)

	for _, name := range []string{"../etc/passwd", "a/b", `a\b`, ".."} {
		if _, _, err := a.Frame(name); err == nil {
			t.Fatalf("name %q accepted", name)
		}
	}
}

func TestLatestEmpty(t *testing.T) {
	a, err := New(t.TempDir())
	checkErr(t, err)
	if _, _, err := a.Latest(); err == nil {
		t.Fatal("latest on empty archive should fail")
	}
}

func checkErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
