// Package clock provides NTP-corrected wall time for capture timestamps.
// The Pi Zero has no RTC, so right after boot the system clock can be off
// by hours until ntpd catches up; metadata timestamps go through here.
package clock

import (
	"sync"
	"time"

	"github.com/beevik/ntp"
	"go.uber.org/zap"

	"github.com/fs-bullard/sl-wb-pi-api/pkg/utils"
)

const DefaultServer = "pool.ntp.org"

var logger *zap.SugaredLogger

func init() {
	logger = utils.GetLogger()
}

type Clock struct {
	mu     sync.Mutex
	server string
	offset time.Duration
	synced bool
}

func New(server string) *Clock {
	if server == "" {
		server = DefaultServer
	}
	return &Clock{server: server}
}

// Sync queries the NTP server and caches the measured clock offset.
// A failed sync keeps the previous offset; Now degrades to the system clock
// until the first successful sync.
func (c *Clock) Sync() error {
	resp, err := ntp.Query(c.server)
	if err != nil {
		return err
	}
	if err := resp.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	c.offset = resp.ClockOffset
	c.synced = true
	c.mu.Unlock()
	logger.Infof("ntp sync against %s, clock offset %s", c.server, resp.ClockOffset)

	return nil
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Now().Add(c.offset)
}

// Offset reports the cached NTP offset and whether a sync has succeeded.
func (c *Clock) Offset() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset, c.synced
}
