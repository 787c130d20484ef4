// Package notify dispatches desktop notifications through an ordered chain
// of platform mechanisms. Delivery is best-effort: the chain is tried in
// sequence until one sink succeeds, and exhaustion is logged, never
// surfaced to the caller.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/asheshgoplani/ctxmon/internal/logging"
	"github.com/asheshgoplani/ctxmon/internal/platform"
)

var nLog = logging.ForComponent(logging.CompNotify)

// appName identifies the notification source to the OS.
const appName = "Claude Context Monitor"

// sinkTimeout bounds each individual delivery attempt.
const sinkTimeout = 5 * time.Second

// Sink is one notification delivery mechanism.
type Sink interface {
	Name() string
	Send(ctx context.Context, title, message string) error
}

// Notifier tries an ordered list of sinks until one delivers.
type Notifier struct {
	sinks []Sink
}

// New builds a notifier with the sink chain for the detected platform.
// The platform probe runs once per process.
func New() *Notifier {
	return &Notifier{sinks: sinksFor(platform.Detect())}
}

// NewWithSinks builds a notifier with an explicit chain.
func NewWithSinks(sinks ...Sink) *Notifier {
	return &Notifier{sinks: sinks}
}

// sinksFor selects the mechanism order for a platform. WSL prefers the
// bridged Windows toast, then falls back to whatever Linux notification
// machinery the distro happens to have.
func sinksFor(p platform.Platform) []Sink {
	switch p {
	case platform.PlatformMacOS:
		return []Sink{&osascriptSink{}}
	case platform.PlatformWindows:
		return []Sink{&powershellSink{}}
	case platform.PlatformWSL1, platform.PlatformWSL2:
		return []Sink{&powershellSink{}, &notifySendSink{}, &dbusSink{}}
	case platform.PlatformLinux:
		return []Sink{&notifySendSink{}, &dbusSink{}}
	default:
		return nil
	}
}

// Send attempts delivery through the chain. It never returns an error; the
// returned bool reports whether any sink delivered, for callers that care
// (the trigger path does not).
func (n *Notifier) Send(ctx context.Context, title, message string) bool {
	for _, sink := range n.sinks {
		attemptCtx, cancel := context.WithTimeout(ctx, sinkTimeout)
		err := sink.Send(attemptCtx, title, message)
		cancel()

		if err == nil {
			nLog.Info("notification_sent", slog.String("sink", sink.Name()))
			return true
		}
		nLog.Debug("notification_sink_failed",
			slog.String("sink", sink.Name()),
			slog.String("error", err.Error()),
		)
	}

	nLog.Error("notification_delivery_failed",
		slog.Int("sinks_tried", len(n.sinks)),
		slog.String("platform", platform.Detect().String()),
	)
	return false
}
