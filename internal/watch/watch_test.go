package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexxhost/ovirt-dr/internal/validator"
)

type calls struct {
	mu    sync.Mutex
	fulls []bool
}

func (c *calls) check(_ context.Context, full bool) *validator.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fulls = append(c.fulls, full)
	return &validator.Result{}
}

func (c *calls) has(full bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.fulls {
		if f == full {
			return true
		}
	}
	return false
}

func start(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
}

func TestFileChangeTriggersOfflineCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disaster_recovery_vars.yml")
	require.NoError(t, os.WriteFile(path, []byte("---\n"), 0o600))

	c := &calls{}
	var triggers []Trigger
	var mu sync.Mutex
	w := &Watcher{
		Path:     path,
		Check:    c.check,
		Debounce: 20 * time.Millisecond,
		OnResult: func(trigger Trigger, _ *validator.Result) {
			mu.Lock()
			triggers = append(triggers, trigger)
			mu.Unlock()
		},
	}
	start(t, w)

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("---\ndr_cluster_mappings: []\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o600))

	// OnResult runs after Check returns, so wait on the delivered trigger.
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, tr := range triggers {
			if tr == TriggerFileChange {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, c.has(false))
	assert.False(t, c.has(true))
}

func TestScheduleTriggersFullCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.yml")
	require.NoError(t, os.WriteFile(path, []byte("---\n"), 0o600))

	c := &calls{}
	start(t, &Watcher{Path: path, Schedule: "@every 1s", Check: c.check})

	assert.Eventually(t, func() bool { return c.has(true) }, 5*time.Second, 50*time.Millisecond)
}

func TestInvalidSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.yml")
	require.NoError(t, os.WriteFile(path, []byte("---\n"), 0o600))

	w := &Watcher{Path: path, Schedule: "not a schedule", Check: (&calls{}).check}
	err := w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule")
}
