package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asheshgoplani/ctxmon/internal/config"
	"github.com/asheshgoplani/ctxmon/internal/usage"
)

const sessionFile = "c3a1f8e2-1234-4abc-8def-0123456789ab.jsonl"

func writeSessionTree(t *testing.T, used string) string {
	t.Helper()
	configDir := t.TempDir()
	projectDir := filepath.Join(configDir, "projects", "-work-proj")
	require.NoError(t, os.MkdirAll(projectDir, 0o755))
	line := `{"timestamp":"2025-06-01T10:00:00Z","message":{"usage":{"input_tokens":` + used + `}}}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, sessionFile), []byte(line), 0o644))
	return configDir
}

func waitUpdate(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		require.True(t, ok, "updates channel closed")
		return u
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for feed update")
		return Update{}
	}
}

func TestFeedEmitsImmediatelyOnStart(t *testing.T) {
	configDir := writeSessionTree(t, "170000")
	f := New(config.Defaults(), Options{
		ConfigDir:    configDir,
		Interval:     time.Hour, // only the initial emit should happen
		DisableWatch: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Run(ctx)

	u := waitUpdate(t, f.Updates())
	assert.True(t, u.Known)
	assert.Equal(t, 170000, u.Snapshot.Used)
	assert.Equal(t, usage.BandHigh, u.Snapshot.Band)
	assert.Contains(t, u.Transcript, sessionFile)
}

func TestFeedUnknownWhenNoSessions(t *testing.T) {
	f := New(config.Defaults(), Options{
		ConfigDir:    t.TempDir(),
		Interval:     time.Hour,
		DisableWatch: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Run(ctx)

	u := waitUpdate(t, f.Updates())
	assert.False(t, u.Known)
	assert.Empty(t, u.Transcript)
}

func TestFeedManualRefreshPicksUpNewUsage(t *testing.T) {
	configDir := writeSessionTree(t, "100000")
	f := New(config.Defaults(), Options{
		ConfigDir:    configDir,
		Interval:     time.Hour,
		DisableWatch: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Run(ctx)

	first := waitUpdate(t, f.Updates())
	assert.Equal(t, 100000, first.Snapshot.Used)

	// Rewrite the transcript with a newer record, then force a refresh.
	projectDir := filepath.Join(configDir, "projects", "-work-proj")
	line := `{"timestamp":"2025-06-01T11:00:00Z","message":{"usage":{"input_tokens":180000}}}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, sessionFile), []byte(line), 0o644))
	f.Refresh()

	second := waitUpdate(t, f.Updates())
	assert.Equal(t, 180000, second.Snapshot.Used)
}

func TestFeedPollingEmitsRepeatedly(t *testing.T) {
	configDir := writeSessionTree(t, "100000")
	f := New(config.Defaults(), Options{
		ConfigDir:    configDir,
		Interval:     20 * time.Millisecond,
		DisableWatch: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Run(ctx)

	waitUpdate(t, f.Updates())
	waitUpdate(t, f.Updates())
	waitUpdate(t, f.Updates())
}

func TestPublishDropsOldestWhenBufferFull(t *testing.T) {
	f := &Feed{updates: make(chan Update, 2)}

	f.publish(Update{Snapshot: usage.Snapshot{Used: 1}})
	f.publish(Update{Snapshot: usage.Snapshot{Used: 2}})
	f.publish(Update{Snapshot: usage.Snapshot{Used: 3}}) // evicts 1

	first := <-f.updates
	second := <-f.updates
	assert.Equal(t, 2, first.Snapshot.Used)
	assert.Equal(t, 3, second.Snapshot.Used)
}

func TestFeedRunStopsOnCancel(t *testing.T) {
	f := New(config.Defaults(), Options{
		ConfigDir:    t.TempDir(),
		Interval:     time.Hour,
		DisableWatch: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	waitUpdate(t, f.Updates())
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("feed did not stop on cancel")
	}
}
