// Package trigger implements the threshold alert cycle. Each invocation is
// a fresh process; the only state is a marker file under the session's
// .claude directory. Marker present means the alert already fired and only
// external deletion re-arms it.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/asheshgoplani/ctxmon/internal/config"
	"github.com/asheshgoplani/ctxmon/internal/handoff"
	"github.com/asheshgoplani/ctxmon/internal/logging"
	"github.com/asheshgoplani/ctxmon/internal/notify"
	"github.com/asheshgoplani/ctxmon/internal/transcript"
	"github.com/asheshgoplani/ctxmon/internal/usage"
)

var trLog = logging.ForComponent(logging.CompTrigger)

// MarkerName is the idempotency flag file; only its existence matters.
const MarkerName = ".context-threshold-hit"

// Input is the hook payload fields the trigger needs.
type Input struct {
	SessionID      string
	TranscriptPath string
	Cwd            string
}

// Deps are the side-effect collaborators, injectable for tests.
type Deps struct {
	Append func(cwd string, cfg config.Config, snap usage.Snapshot, sessionID string) error
	Notify func(ctx context.Context, title, message string) bool
}

func defaultDeps() Deps {
	notifier := notify.New()
	return Deps{
		Append: handoff.Append,
		Notify: notifier.Send,
	}
}

// MarkerPath returns the marker location for a session working directory.
func MarkerPath(cwd string) string {
	return filepath.Join(cwd, ".claude", MarkerName)
}

// Run executes one trigger cycle. It returns an error only for marker I/O
// failures; every degraded condition (unknown usage, failed append, failed
// notification) is logged and the cycle completes normally.
func Run(ctx context.Context, cfg config.Config, in Input, deps *Deps) error {
	d := defaultDeps()
	if deps != nil {
		d = *deps
	}

	// Fresh existence check every cycle: the marker may have been removed
	// since the last invocation. This is only a fast path; the atomic
	// claim below is the authoritative gate.
	if _, err := os.Stat(MarkerPath(in.Cwd)); err == nil {
		trLog.Debug("already_fired", slog.String("session", in.SessionID))
		return nil
	}

	u, ok := transcript.LatestUsage(in.TranscriptPath)
	if !ok {
		// Unknown usage: skip this cycle. Not an error.
		return nil
	}

	snap := usage.Evaluate(u.Total(), cfg.MaxCapacity)
	trLog.Info("usage_checked",
		slog.String("session", in.SessionID),
		slog.Int("used", snap.Used),
		slog.Int("capacity", snap.Capacity),
		slog.Float64("fraction", snap.Fraction),
		slog.String("band", string(snap.Band)),
	)

	if snap.Fraction < cfg.Threshold {
		return nil
	}

	// Claim the marker with an atomic create-if-absent before doing any
	// side effect. Losing the claim means a concurrent invocation fired;
	// this one stands down without duplicating the append or notification.
	claimed, err := claimMarker(in.Cwd)
	if err != nil {
		trLog.Error("marker_write_failed",
			slog.String("path", MarkerPath(in.Cwd)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("claim marker: %w", err)
	}
	if !claimed {
		trLog.Debug("marker_claimed_elsewhere", slog.String("session", in.SessionID))
		return nil
	}

	trLog.Info("threshold_crossed",
		slog.String("session", in.SessionID),
		slog.Float64("fraction", snap.Fraction),
		slog.Float64("threshold", cfg.Threshold),
	)

	// Append and notify are an independent best-effort pair: failure of
	// either is logged but does not block the other, and the marker stays
	// to avoid retrying the same crossing forever.
	if err := d.Append(in.Cwd, cfg, snap, in.SessionID); err != nil {
		trLog.Error("handoff_append_failed",
			slog.String("output_file", cfg.OutputFile),
			slog.String("error", err.Error()),
		)
	} else {
		trLog.Info("handoff_appended", slog.String("output_file", cfg.OutputFile))
	}

	if cfg.NotificationEnabled {
		d.Notify(ctx,
			"Claude Code - Context Alert",
			fmt.Sprintf("Context at %.1f%% (threshold: %.0f%%)\n%s has been updated.\nRun /clear when ready.",
				snap.Percent(), cfg.Threshold*100, cfg.OutputFile),
		)
	}

	return nil
}

// claimMarker creates the marker file, returning claimed=false when it
// already exists. O_EXCL makes check and create one atomic step.
func claimMarker(cwd string) (bool, error) {
	markerPath := MarkerPath(cwd)
	if err := os.MkdirAll(filepath.Dir(markerPath), 0o755); err != nil {
		return false, err
	}

	f, err := os.OpenFile(markerPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	// Content is informational only; existence is the contract.
	_, _ = f.WriteString(time.Now().Format(time.RFC3339) + "\n")
	return true, nil
}
