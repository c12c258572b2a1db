package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"image-gateway/internal/shared/metrics"
	"image-gateway/internal/shared/telemetry"
)

// Sweeper periodically deletes buffered files left behind by crashed requests.
type Sweeper struct {
	Dir    string
	MaxAge time.Duration
	Now    func() time.Time

	cron *cron.Cron
}

// NewSweeper constructs a Sweeper for dir.
func NewSweeper(dir string, maxAge time.Duration) *Sweeper {
	return &Sweeper{Dir: dir, MaxAge: maxAge, Now: time.Now}
}

// Start schedules Sweep on the given cron schedule. Call Stop to end it.
func (s *Sweeper) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { s.Sweep() }); err != nil {
		return fmt.Errorf("schedule upload sweep %q: %w", schedule, err)
	}
	s.cron = c
	c.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// Sweep removes buffered files older than MaxAge and returns how many went.
func (s *Sweeper) Sweep() int {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		telemetry.Warn("upload.sweep_failed", map[string]any{"dir": s.Dir, "err": err})
		return 0
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	cutoff := now().Add(-s.MaxAge)

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "upload-") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, entry.Name())); err != nil {
			continue
		}
		removed++
	}
	if removed > 0 {
		metrics.AddSwept(removed)
		telemetry.Info("upload.sweep", map[string]any{"dir": s.Dir, "removed": removed})
	}
	return removed
}
