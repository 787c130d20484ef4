// Package feed produces a live sequence of usage snapshots for an external
// display. It is strictly read-only on the transcript: no marker, no
// handoff note, no notification ever originates here.
package feed

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/asheshgoplani/ctxmon/internal/config"
	"github.com/asheshgoplani/ctxmon/internal/logging"
	"github.com/asheshgoplani/ctxmon/internal/platform"
	"github.com/asheshgoplani/ctxmon/internal/transcript"
	"github.com/asheshgoplani/ctxmon/internal/usage"
)

var feedLog = logging.ForComponent(logging.CompFeed)

// DefaultInterval is the polling cadence when no file events arrive.
const DefaultInterval = 2 * time.Second

// debounceDelay coalesces rapid transcript writes into one snapshot.
const debounceDelay = 500 * time.Millisecond

// Update is one published feed item. Known is false when no session
// transcript with usage data could be found; the display decides how to
// render that.
type Update struct {
	Snapshot   usage.Snapshot `json:"snapshot"`
	Transcript string         `json:"transcript,omitempty"`
	Known      bool           `json:"known"`
	Time       time.Time      `json:"time"`
}

// Options tune feed behavior.
type Options struct {
	// ConfigDir overrides the Claude config directory (tests)
	ConfigDir string

	// Interval is the poll cadence; DefaultInterval when zero
	Interval time.Duration

	// DisableWatch forces pure polling even when fsnotify would work
	DisableWatch bool
}

// Feed re-reads the newest session transcript on change or poll and
// publishes snapshots. Restartable: it carries no state beyond the watch
// handle.
type Feed struct {
	cfg       config.Config
	configDir string
	interval  time.Duration
	watch     bool

	watcher    *fsnotify.Watcher
	watchedDir string

	// limiter caps the publish rate under fsnotify event floods
	limiter *rate.Limiter

	updates   chan Update
	refreshCh chan struct{}
}

// New builds a feed. fsnotify is used when available and the transcript
// tree sits on a filesystem that delivers events reliably; otherwise the
// feed degrades to polling.
func New(cfg config.Config, opts Options) *Feed {
	configDir := opts.ConfigDir
	if configDir == "" {
		configDir = transcript.ClaudeConfigDir()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	f := &Feed{
		cfg:       cfg,
		configDir: configDir,
		interval:  interval,
		watch:     !opts.DisableWatch,
		limiter:   rate.NewLimiter(rate.Every(debounceDelay), 1),
		updates:   make(chan Update, 16),
		refreshCh: make(chan struct{}, 1),
	}

	if f.watch {
		if warning := platform.CheckFsnotifySupport(configDir); warning != "" {
			feedLog.Warn("fsnotify_unsupported", slog.String("reason", warning))
			f.watch = false
		}
	}
	if f.watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			feedLog.Warn("fsnotify_unavailable", slog.String("error", err.Error()))
			f.watch = false
		} else {
			f.watcher = watcher
		}
	}

	return f
}

// Updates returns the snapshot channel. Slow consumers lose intermediate
// snapshots, never the newest one: publishing drops the oldest buffered
// item first.
func (f *Feed) Updates() <-chan Update {
	return f.updates
}

// Refresh requests an immediate re-read, independent of file events and
// the poll interval.
func (f *Feed) Refresh() {
	select {
	case f.refreshCh <- struct{}{}:
	default:
	}
}

// Run publishes one snapshot immediately, then one per change event, poll
// tick, or manual refresh, until ctx is cancelled. Must be called at most
// once.
func (f *Feed) Run(ctx context.Context) {
	defer close(f.updates)
	if f.watcher != nil {
		defer f.watcher.Close()
	}

	f.emit()

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if f.watcher != nil {
		events = f.watcher.Events
		errs = f.watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			f.emit()

		case <-f.refreshCh:
			f.emit()

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Ext(event.Name) != ".jsonl" {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !f.limiter.Allow() {
				continue
			}
			// Coalesce bursts of writes into one snapshot.
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, f.Refresh)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			feedLog.Warn("feed_watcher_error", slog.String("error", err.Error()))
		}
	}
}

// emit resolves the newest session transcript, evaluates it, and publishes
// one update. The resolution runs fresh every time so a rotated or
// replaced session file is picked up.
func (f *Feed) emit() {
	update := Update{Time: time.Now()}

	path, found := transcript.DiscoverNewest(f.configDir)
	if found {
		f.retargetWatch(filepath.Dir(path))
		if u, ok := transcript.LatestUsage(path); ok {
			update.Snapshot = usage.Evaluate(u.Total(), f.cfg.MaxCapacity)
			update.Transcript = path
			update.Known = true
		}
	}

	f.publish(update)
}

// retargetWatch moves the fsnotify watch to the project directory that
// currently holds the newest session file.
func (f *Feed) retargetWatch(dir string) {
	if f.watcher == nil || dir == f.watchedDir {
		return
	}
	if f.watchedDir != "" {
		_ = f.watcher.Remove(f.watchedDir)
	}
	if err := f.watcher.Add(dir); err != nil {
		feedLog.Warn("feed_watch_add_failed",
			slog.String("dir", dir),
			slog.String("error", err.Error()),
		)
		return
	}
	f.watchedDir = dir
}

// publish delivers without blocking; when the buffer is full the oldest
// update is discarded in favor of the new one.
func (f *Feed) publish(u Update) {
	for {
		select {
		case f.updates <- u:
			return
		default:
			select {
			case <-f.updates:
			default:
			}
		}
	}
}
