package camera

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fs-bullard/sl-wb-pi-api/pkg/utils"
)

var logger *zap.SugaredLogger

func init() {
	logger = utils.GetLogger()
}

// DefaultExposureMS is used when a capture request does not carry an
// exposure of its own.
const DefaultExposureMS = 100

// Settings holds the mutable capture defaults. In-memory only: the service
// deliberately does not persist settings across restarts.
type Settings struct {
	mu         sync.Mutex
	exposureMS int
}

func NewSettings() *Settings {
	return &Settings{exposureMS: DefaultExposureMS}
}

func (s *Settings) ExposureMS() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exposureMS
}

func (s *Settings) SetExposureMS(exposureMS int) error {
	if exposureMS < MinExposureMS || exposureMS > MaxExposureMS {
		return fmt.Errorf("%w: %dms not in [%d, %d]", ErrInvalidExposure, exposureMS, MinExposureMS, MaxExposureMS)
	}
	s.mu.Lock()
	s.exposureMS = exposureMS
	s.mu.Unlock()
	return nil
}
