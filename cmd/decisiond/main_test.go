package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/decisionengine/internal/decisionengine"
	"github.com/narwhalmedia/decisionengine/internal/infrastructure/report"
	"github.com/narwhalmedia/decisionengine/test/testutil"
)

const unparsedCandidates = `[
  {"release": {"guid": "a", "title": "Unknown Artist - Something", "size": 1048576, "protocol": "usenet"}},
  {"release": {"guid": "b", "title": "Nobody - Nothing", "protocol": "torrent"},
   "parsedInfo": {"artistName": "Nobody", "albumTitle": "Nothing", "releaseTitle": "Nobody - Nothing"}}
]`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	return writeFile(t, dir, "decisiond.yaml", strings.Join([]string{
		"database:",
		"  path: " + filepath.Join(dir, "decisiond.db"),
		"metrics:",
		"  enabled: false",
		"logger:",
		"  level: error",
		"",
	}, "\n"))
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLoadCandidates(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "releases.json", unparsedCandidates)

	fromFile, err := loadCandidates(path, nil)
	require.NoError(t, err)
	require.Len(t, fromFile, 2)
	assert.Equal(t, "Unknown Artist - Something", fromFile[0].Release.Title)

	fromStdin, err := loadCandidates("-", strings.NewReader(unparsedCandidates))
	require.NoError(t, err)
	assert.Len(t, fromStdin, 2)

	_, err = loadCandidates("-", strings.NewReader(`[null]`))
	assert.Error(t, err)

	_, err = loadCandidates(filepath.Join(dir, "missing.json"), nil)
	assert.Error(t, err)
}

func TestValidateOutput(t *testing.T) {
	assert.NoError(t, validateOutput("table"))
	assert.NoError(t, validateOutput("json"))
	assert.Error(t, validateOutput("yaml"))
}

func TestRenderEntries(t *testing.T) {
	c := testutil.CreateTestCandidate("Artist - Album [FLAC]", testutil.WithSize(1<<20))
	entries := report.Entries([]decisionengine.Decision{
		decisionengine.NewDecision(c, decisionengine.Rejection{Reason: "Release is blocklisted", Type: decisionengine.Permanent}),
	}, "")

	out := renderEntries(entries)
	assert.Contains(t, out, "Artist - Album [FLAC]")
	assert.Contains(t, out, "1.0 MiB")
	assert.Contains(t, out, "Release is blocklisted")
	assert.Contains(t, out, "rejected")
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"process", "grab", "blocklist", "pending"})
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
}

func TestProcessDryRunJSON(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTestConfig(t, dir)
	input := writeFile(t, dir, "releases.json", unparsedCandidates)

	out, err := runCLI(t, "--config", cfg, "process", "--dry-run", "--output", "json", "--input", input)
	require.NoError(t, err)

	var entries []report.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "rejected", e.Outcome)
		assert.NotEmpty(t, e.Rejection)
	}
}

func TestProcessRejectsUnknownOutput(t *testing.T) {
	_, err := runCLI(t, "process", "--output", "yaml")
	assert.ErrorContains(t, err, "unsupported output")
}

func TestBlocklistRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTestConfig(t, dir)

	out, err := runCLI(t, "--config", cfg, "blocklist", "add", "--artist", "7", "--album", "70",
		"--title", "Artist - Album [MP3]", "--protocol", "usenet", "--indexer", "NZBGeek")
	require.NoError(t, err)
	assert.Contains(t, out, "Blocklisted")

	out, err = runCLI(t, "--config", cfg, "blocklist", "list", "--artist", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Artist - Album [MP3]")
	assert.Contains(t, out, "NZBGeek")

	out, err = runCLI(t, "--config", cfg, "blocklist", "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 entries")

	out, err = runCLI(t, "--config", cfg, "pending", "list", "--artist", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "No pending releases")

	out, err = runCLI(t, "--config", cfg, "pending", "purge", "--older-than", "24h")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 pending releases")
}
