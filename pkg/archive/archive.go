// Package archive persists captured frames as raw files with JSON metadata
// sidecars, so the desktop client can re-fetch earlier blots without
// re-exposing the membrane.
package archive

import (
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/fs-bullard/sl-wb-pi-api/pkg/camera"
	"github.com/fs-bullard/sl-wb-pi-api/pkg/utils"
	"github.com/fs-bullard/sl-wb-pi-api/pkg/utils/ps"
)

const (
	infoFile    = "archive.json"
	rawSuffix   = ".raw"
	metaSuffix  = ".json"
	filePerm    = 0660
	dirPerm     = 0750
	maxListSize = 1000
)

var logger *zap.SugaredLogger

func init() {
	logger = utils.GetLogger()
}

// Meta is the sidecar stored next to each raw frame.
type Meta struct {
	Name       string    `json:"name"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	PixelSize  int       `json:"pixelSize"`
	Size       int       `json:"size"`
	ExposureMS int       `json:"exposureMs"`
	Generation uint64    `json:"generation"`
	CapturedAt time.Time `json:"capturedAt"`
}

// Entry is a listing row: the sidecar plus a humanized size.
type Entry struct {
	Meta
	HumanSize string `json:"humanSize"`
}

type info struct {
	MaxNumber   int       `json:"maxNumber"`
	LatestFrame string    `json:"latestFrame"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Archive owns one directory of frames. Writes are serialized; the index in
// archive.json assigns monotonically increasing frame numbers.
type Archive struct {
	mu  sync.Mutex
	dir string
}

func New(dir string) (*Archive, error) {
	if dir == "" {
		return nil, fmt.Errorf("archive dir can not be empty")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, err
	}
	a := &Archive{dir: dir}
	if _, err := os.Stat(a.infoPath()); os.IsNotExist(err) {
		if err := a.dumpInfo(&info{}); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Archive) Dir() string {
	return a.dir
}

// Save writes the frame bytes and metadata sidecar, and advances the index.
func (a *Archive) Save(view camera.View, exposureMS int, capturedAt time.Time) (Meta, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	in, err := a.loadInfo()
	if err != nil {
		return Meta{}, err
	}

	name := fmt.Sprintf("frame-%06d", in.MaxNumber)
	meta := Meta{
		Name:       name,
		Width:      view.Width,
		Height:     view.Height,
		PixelSize:  view.PixelSize,
		Size:       view.ValidLength,
		ExposureMS: exposureMS,
		Generation: view.Generation,
		CapturedAt: capturedAt,
	}

	if err := os.WriteFile(a.framePath(name), view.Bytes, filePerm); err != nil {
		return Meta{}, err
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return Meta{}, err
	}
	if err := os.WriteFile(a.metaPath(name), data, filePerm); err != nil {
		return Meta{}, err
	}

	in.MaxNumber++
	in.LatestFrame = name
	if err := a.dumpInfo(in); err != nil {
		return Meta{}, err
	}
	logger.Infof("archived %s, %s", name, humanize.Bytes(uint64(meta.Size)))

	return meta, nil
}

// List returns entries for every archived frame, oldest first.
func (a *Archive) List() ([]Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	files, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, err
	}

	var res []Entry
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), metaSuffix) || file.Name() == infoFile {
			continue
		}
		name := strings.TrimSuffix(file.Name(), metaSuffix)
		meta, err := a.loadMeta(name)
		if err != nil {
			logger.Warnf("skipping %s: %s", file.Name(), err)
			continue
		}
		res = append(res, Entry{Meta: meta, HumanSize: humanize.Bytes(uint64(meta.Size))})
		if len(res) >= maxListSize {
			break
		}
	}

	return res, nil
}

// Latest returns the most recently archived frame.
func (a *Archive) Latest() (Meta, []byte, error) {
	a.mu.Lock()
	in, err := a.loadInfo()
	a.mu.Unlock()
	if err != nil {
		return Meta{}, nil, err
	}
	if in.LatestFrame == "" {
		return Meta{}, nil, fmt.Errorf("archive is empty")
	}
	return a.Frame(in.LatestFrame)
}

// Frame returns an archived frame and its metadata by name.
func (a *Archive) Frame(name string) (Meta, []byte, error) {
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return Meta{}, nil, fmt.Errorf("invalid frame name %q", name)
	}

	meta, err := a.loadMeta(name)
	if err != nil {
		return Meta{}, nil, fmt.Errorf("frame not found, %w", err)
	}
	data, err := os.ReadFile(a.framePath(name))
	if err != nil {
		return Meta{}, nil, fmt.Errorf("frame not found, %w", err)
	}

	return meta, data, nil
}

// TotalSize reports the on-disk size of the archive directory.
func (a *Archive) TotalSize() (int64, error) {
	return ps.DirDiskUsage(a.dir)
}

func (a *Archive) loadMeta(name string) (Meta, error) {
	data, err := os.ReadFile(a.metaPath(name))
	if err != nil {
		return Meta{}, err
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

func (a *Archive) loadInfo() (*info, error) {
	data, err := os.ReadFile(a.infoPath())
	if err != nil {
		return nil, err
	}
	in := &info{}
	if err := json.Unmarshal(data, in); err != nil {
		return nil, err
	}
	return in, nil
}

func (a *Archive) dumpInfo(in *info) error {
	in.UpdatedAt = time.Now()
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return os.WriteFile(a.infoPath(), data, filePerm)
}

func (a *Archive) infoPath() string {
	return path.Join(a.dir, infoFile)
}

func (a *Archive) framePath(name string) string {
	return path.Join(a.dir, name+rawSuffix)
}

func (a *Archive) metaPath(name string) string {
	return path.Join(a.dir, name+metaSuffix)
}
