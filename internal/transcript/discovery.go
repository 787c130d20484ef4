package transcript

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// claudeDirNameRegex matches any character that's not alphanumeric or hyphen.
// Claude Code replaces all such characters with hyphens in project directory names.
var claudeDirNameRegex = regexp.MustCompile(`[^a-zA-Z0-9-]`)

// sessionFilePattern matches UUID-named session files. Anything else under
// a project directory (agent-*.jsonl sub-sessions in particular) is not a
// main conversation transcript.
var sessionFilePattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.jsonl$`)

// ClaudeConfigDir returns the Claude Code config directory, honoring the
// CLAUDE_CONFIG_DIR override.
func ClaudeConfigDir() string {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".claude")
	}
	return filepath.Join(home, ".claude")
}

// ConvertToClaudeDirName converts a filesystem path to Claude's directory
// naming format. Example: /Users/me/Code cloud/!Project → -Users-me-Code-cloud--Project
func ConvertToClaudeDirName(path string) string {
	return claudeDirNameRegex.ReplaceAllString(path, "-")
}

// Discover returns the most recently modified session transcript for a
// project path, or ok=false when the project has none. An absent project
// directory is a normal condition, not an error.
func Discover(configDir, projectPath string) (string, bool) {
	projectDir := filepath.Join(configDir, "projects", ConvertToClaudeDirName(projectPath))
	return newestSessionFile(projectDir)
}

// DiscoverNewest returns the most recently modified session transcript
// across every project, for callers that have no project context (the live
// feed). ok=false when no session file exists anywhere.
func DiscoverNewest(configDir string) (string, bool) {
	projectsDir := filepath.Join(configDir, "projects")
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		return "", false
	}

	var newest string
	var newestTime time.Time
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path, modTime, ok := newestSessionFileWithTime(filepath.Join(projectsDir, entry.Name()))
		if ok && modTime.After(newestTime) {
			newestTime = modTime
			newest = path
		}
	}
	return newest, newest != ""
}

func newestSessionFile(projectDir string) (string, bool) {
	path, _, ok := newestSessionFileWithTime(projectDir)
	return path, ok
}

func newestSessionFileWithTime(projectDir string) (string, time.Time, bool) {
	files, err := filepath.Glob(filepath.Join(projectDir, "*.jsonl"))
	if err != nil || len(files) == 0 {
		return "", time.Time{}, false
	}

	var mostRecent string
	var mostRecentTime time.Time

	for _, file := range files {
		base := filepath.Base(file)

		// Skip agent sub-session files (agent-*.jsonl)
		if strings.HasPrefix(base, "agent-") {
			continue
		}
		if !sessionFilePattern.MatchString(base) {
			continue
		}

		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().After(mostRecentTime) {
			mostRecentTime = info.ModTime()
			mostRecent = file
		}
	}

	return mostRecent, mostRecentTime, mostRecent != ""
}
