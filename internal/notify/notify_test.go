package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asheshgoplani/ctxmon/internal/platform"
)

type fakeSink struct {
	name  string
	err   error
	calls int
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Send(ctx context.Context, title, message string) error {
	f.calls++
	return f.err
}

func TestSendStopsAtFirstSuccess(t *testing.T) {
	first := &fakeSink{name: "first"}
	second := &fakeSink{name: "second"}
	n := NewWithSinks(first, second)

	delivered := n.Send(context.Background(), "title", "msg")

	assert.True(t, delivered)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestSendFallsThroughFailures(t *testing.T) {
	first := &fakeSink{name: "first", err: errors.New("no daemon")}
	second := &fakeSink{name: "second"}
	n := NewWithSinks(first, second)

	delivered := n.Send(context.Background(), "title", "msg")

	assert.True(t, delivered)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestSendAllSinksFailReturnsNormally(t *testing.T) {
	first := &fakeSink{name: "first", err: errors.New("boom")}
	second := &fakeSink{name: "second", err: errors.New("boom too")}
	n := NewWithSinks(first, second)

	delivered := n.Send(context.Background(), "title", "msg")

	assert.False(t, delivered)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestSendEmptyChain(t *testing.T) {
	n := NewWithSinks()
	assert.False(t, n.Send(context.Background(), "title", "msg"))
}

func TestSinksForPlatformOrder(t *testing.T) {
	names := func(sinks []Sink) []string {
		out := make([]string, len(sinks))
		for i, s := range sinks {
			out[i] = s.Name()
		}
		return out
	}

	assert.Equal(t, []string{"osascript"}, names(sinksFor(platform.PlatformMacOS)))
	assert.Equal(t, []string{"powershell", "notify-send", "dbus"}, names(sinksFor(platform.PlatformWSL2)))
	assert.Equal(t, []string{"notify-send", "dbus"}, names(sinksFor(platform.PlatformLinux)))
	assert.Empty(t, sinksFor(platform.PlatformUnknown))
}

func TestEscapePowerShell(t *testing.T) {
	assert.Equal(t, "it''s `\"fine`\"", escapePowerShell(`it's "fine"`))
}
