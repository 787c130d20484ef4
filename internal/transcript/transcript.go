// Package transcript extracts context usage from Claude Code session
// transcripts (append-only JSONL files) and locates the active session
// file for a project.
package transcript

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/asheshgoplani/ctxmon/internal/logging"
)

var tLog = logging.ForComponent(logging.CompTranscript)

// Usage is the cumulative token usage reported by the newest transcript
// record that carries one. Output tokens are excluded: they are not part
// of the context window.
type Usage struct {
	InputTokens         int
	CacheReadTokens     int
	CacheCreationTokens int
	Timestamp           time.Time
}

// Total returns the context token count: input plus both cache figures.
func (u Usage) Total() int {
	return u.InputTokens + u.CacheReadTokens + u.CacheCreationTokens
}

// jsonlRecord is a single transcript line. Only the fields we need are
// decoded; unknown fields are ignored.
type jsonlRecord struct {
	Timestamp         time.Time `json:"timestamp"`
	IsSidechain       bool      `json:"isSidechain"`
	IsAPIErrorMessage bool      `json:"isApiErrorMessage"`
	Message           struct {
		Usage *struct {
			InputTokens              int `json:"input_tokens"`
			OutputTokens             int `json:"output_tokens"`
			CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
			CacheReadInputTokens     int `json:"cache_read_input_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

// LatestUsage scans a transcript and returns the usage of the most recent
// timestamped record carrying a usage figure. Unparseable lines, sidechain
// records and API error records are skipped. ok is false when the file is
// unreadable or no qualifying record exists; callers treat that as
// "unknown", never as an error.
func LatestUsage(path string) (Usage, bool) {
	file, err := os.Open(path)
	if err != nil {
		tLog.Info("transcript_unavailable",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return Usage{}, false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	// Some tool outputs produce very long lines.
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var latest Usage
	found := false

	for scanner.Scan() {
		var rec jsonlRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue // Skip malformed lines
		}
		if rec.Message.Usage == nil || rec.IsSidechain || rec.IsAPIErrorMessage {
			continue
		}
		if rec.Timestamp.IsZero() {
			continue
		}
		// Usage is cumulative per record; only the newest one matters.
		// The file is append-only but timestamps decide, not line order.
		if !found || !rec.Timestamp.Before(latest.Timestamp) {
			latest = Usage{
				InputTokens:         rec.Message.Usage.InputTokens,
				CacheReadTokens:     rec.Message.Usage.CacheReadInputTokens,
				CacheCreationTokens: rec.Message.Usage.CacheCreationInputTokens,
				Timestamp:           rec.Timestamp,
			}
			found = true
		}
	}
	if err := scanner.Err(); err != nil {
		tLog.Info("transcript_scan_aborted",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}

	if !found {
		tLog.Info("transcript_no_usage_records", slog.String("path", path))
	}
	return latest, found
}
