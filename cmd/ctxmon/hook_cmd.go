package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"

	"github.com/asheshgoplani/ctxmon/internal/config"
	"github.com/asheshgoplani/ctxmon/internal/logging"
	"github.com/asheshgoplani/ctxmon/internal/trigger"
)

var mainLog = logging.ForComponent(logging.CompMain)

// hookPayload is the JSON Claude Code sends to hooks via stdin. Only the
// fields we need are decoded; unknown fields are ignored.
type hookPayload struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	Cwd            string `json:"cwd"`
}

// runHook executes one trigger cycle. Unparseable stdin is the only
// failing exit; every degraded condition exits 0 so the surrounding host
// is never blocked.
func runHook(args []string) int {
	fs := flag.NewFlagSet("hook", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file override")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, source := config.Resolve(*configPath)
	logging.Init(logging.Config{Enabled: cfg.LogEnabled, FilePath: cfg.LogFile})
	defer logging.Shutdown()
	if source != "" {
		mainLog.Debug("config_loaded", slog.String("path", source))
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil || len(data) == 0 {
		mainLog.Error("hook_input_unreadable")
		return 1
	}

	var payload hookPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		mainLog.Error("hook_input_malformed", slog.String("error", err.Error()))
		return 1
	}

	// Missing fields are a logged no-op, not a failure: the host must
	// never see a degraded cycle as an error.
	if payload.TranscriptPath == "" {
		mainLog.Info("hook_no_transcript_path", slog.String("session", payload.SessionID))
		return 0
	}
	if payload.SessionID == "" {
		payload.SessionID = "unknown"
	}
	if payload.Cwd == "" {
		cwd, err := os.Getwd()
		if err != nil {
			mainLog.Info("hook_no_cwd")
			return 0
		}
		payload.Cwd = cwd
	}

	mainLog.Info("hook_invoked", slog.String("session", payload.SessionID))

	// Marker I/O failure aborts the cycle but is diagnosed through the
	// log, never through the exit code.
	_ = trigger.Run(context.Background(), cfg, trigger.Input{
		SessionID:      payload.SessionID,
		TranscriptPath: payload.TranscriptPath,
		Cwd:            payload.Cwd,
	}, nil)

	return 0
}
