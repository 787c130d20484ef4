package transcript

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	uuidA = "11111111-2222-4333-8444-555555555555.jsonl"
	uuidB = "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee.jsonl"
)

func makeProjectDir(t *testing.T, configDir, projectPath string) string {
	t.Helper()
	dir := filepath.Join(configDir, "projects", ConvertToClaudeDirName(projectPath))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestConvertToClaudeDirName(t *testing.T) {
	assert.Equal(t, "-Users-me-proj", ConvertToClaudeDirName("/Users/me/proj"))
	assert.Equal(t, "-Users-me-Code-cloud--Proj", ConvertToClaudeDirName("/Users/me/Code cloud/!Proj"))
}

func TestDiscoverReturnsNewestSessionFile(t *testing.T) {
	configDir := t.TempDir()
	dir := makeProjectDir(t, configDir, "/work/proj")

	now := time.Now()
	touch(t, filepath.Join(dir, uuidA), now.Add(-time.Hour))
	touch(t, filepath.Join(dir, uuidB), now)

	path, ok := Discover(configDir, "/work/proj")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, uuidB), path)
}

func TestDiscoverSkipsAgentFiles(t *testing.T) {
	configDir := t.TempDir()
	dir := makeProjectDir(t, configDir, "/work/proj")

	now := time.Now()
	touch(t, filepath.Join(dir, uuidA), now.Add(-time.Hour))
	touch(t, filepath.Join(dir, "agent-"+uuidB), now)
	touch(t, filepath.Join(dir, "notes.jsonl"), now)

	path, ok := Discover(configDir, "/work/proj")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, uuidA), path)
}

func TestDiscoverAbsentProjectDir(t *testing.T) {
	_, ok := Discover(t.TempDir(), "/no/such/project")
	assert.False(t, ok)
}

func TestDiscoverEmptyProjectDir(t *testing.T) {
	configDir := t.TempDir()
	makeProjectDir(t, configDir, "/work/proj")

	_, ok := Discover(configDir, "/work/proj")
	assert.False(t, ok)
}

func TestDiscoverNewestAcrossProjects(t *testing.T) {
	configDir := t.TempDir()
	dirA := makeProjectDir(t, configDir, "/work/alpha")
	dirB := makeProjectDir(t, configDir, "/work/beta")

	now := time.Now()
	touch(t, filepath.Join(dirA, uuidA), now.Add(-2*time.Hour))
	touch(t, filepath.Join(dirB, uuidB), now)

	path, ok := DiscoverNewest(configDir)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dirB, uuidB), path)
}

func TestDiscoverNewestNoProjects(t *testing.T) {
	_, ok := DiscoverNewest(t.TempDir())
	assert.False(t, ok)
}
