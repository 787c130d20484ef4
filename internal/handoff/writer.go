// Package handoff appends context-threshold handoff notes to the project's
// session notes file. The file is append-only: prior blocks are never
// rewritten or truncated.
package handoff

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/asheshgoplani/ctxmon/internal/config"
	"github.com/asheshgoplani/ctxmon/internal/usage"
)

const fileHeader = "# Claude Code Session Notes\n\nSession started: %s\n"

// Append writes one timestamped handoff block to the configured output
// file under cwd, creating the file with a header first if needed. The
// block itself goes out in a single write call.
func Append(cwd string, cfg config.Config, snap usage.Snapshot, sessionID string) error {
	outputPath := filepath.Join(cwd, cfg.OutputFile)
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		header := fmt.Sprintf(fileHeader, timestamp)
		if err := os.WriteFile(outputPath, []byte(header), 0o644); err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
	}

	f, err := os.OpenFile(outputPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(renderBlock(cfg, snap, sessionID, timestamp)); err != nil {
		return fmt.Errorf("append handoff block: %w", err)
	}
	return nil
}

func renderBlock(cfg config.Config, snap usage.Snapshot, sessionID, timestamp string) string {
	thresholdPercent := cfg.Threshold * 100

	var b strings.Builder
	fmt.Fprintf(&b, "\n\n---\n\n## Context Threshold Alert - %s\n\n", timestamp)
	fmt.Fprintf(&b, "**Context Usage:** %.1f%% (%s/%s tokens)\n\n",
		snap.Percent(), groupDigits(snap.Used), groupDigits(snap.Capacity))
	fmt.Fprintf(&b, "**Status:** Context threshold reached at %.0f%%. This session should be handed off soon.\n\n",
		thresholdPercent)
	fmt.Fprintf(&b, "**Instructions:** %s\n\n", cfg.Instructions)
	b.WriteString("**Action Required:**\n")
	b.WriteString("1. Review the progress documented in this file\n")
	b.WriteString("2. Run `/clear` when ready to start a fresh session\n")
	b.WriteString("3. This file will serve as the context for the next session\n\n")
	b.WriteString("**Current Session Info:**\n")
	fmt.Fprintf(&b, "- Session ID: `%s`\n", sessionID)
	fmt.Fprintf(&b, "- Threshold configured: %.0f%%\n", thresholdPercent)
	fmt.Fprintf(&b, "- Tokens used: %s / %s\n", groupDigits(snap.Used), groupDigits(snap.Capacity))
	fmt.Fprintf(&b, "- Output file: `%s`\n\n", cfg.OutputFile)
	b.WriteString("---\n")
	return b.String()
}

// groupDigits renders n with thousands separators (170000 → 170,000).
func groupDigits(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return "-" + groupDigits(-n)
	}
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}
