// Package watch re-validates the mapping file when it changes and on a
// schedule, so drift between the mapping and the setups shows up before a
// cutover is needed.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/vexxhost/ovirt-dr/internal/validator"
)

// Trigger says why a check ran.
type Trigger string

const (
	TriggerFileChange Trigger = "file-change"
	TriggerSchedule   Trigger = "schedule"
)

// Check validates the mapping file. full selects the live passes.
type Check func(ctx context.Context, full bool) *validator.Result

// Watcher runs checks on file changes and on a cron schedule.
type Watcher struct {
	Path string
	// Schedule is a cron expression for full checks; empty disables them.
	Schedule string
	Check    Check
	// OnResult, when set, receives every check result.
	OnResult func(trigger Trigger, result *validator.Result)
	// Debounce coalesces bursts of file events.
	Debounce time.Duration

	mu sync.Mutex
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	path, err := filepath.Abs(w.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", w.Path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so the directory is watched.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	if w.Schedule != "" {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(w.Schedule, func() { w.run(ctx, TriggerSchedule) }); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", w.Schedule, err)
		}
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
	}

	logger := log.WithFields(log.Fields{"path": path, "schedule": w.Schedule})
	logger.Info("👀 Watching mapping file")

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.WithField("op", event.Op.String()).Debug("Mapping file event")
			timer.Reset(debounce)

		case <-timer.C:
			w.run(ctx, TriggerFileChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("❌ Watcher error")

		case <-ctx.Done():
			logger.Info("🏁 Stopped watching mapping file")
			return nil
		}
	}
}

// run serializes checks so a scheduled full check and a file change never
// validate concurrently.
func (w *Watcher) run(ctx context.Context, trigger Trigger) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	result := w.Check(ctx, trigger == TriggerSchedule)
	entry := log.WithFields(log.Fields{
		"trigger":  trigger,
		"errors":   len(result.Errors()),
		"warnings": len(result.Warnings()),
	})
	if result.OK() {
		entry.Info("✅ Mapping file is consistent")
	} else {
		entry.Warn("⚠️ Mapping file drifted")
	}
	if w.OnResult != nil {
		w.OnResult(trigger, result)
	}
}
