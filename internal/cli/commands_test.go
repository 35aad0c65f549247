package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/ally/internal/cache"
	"github.com/mrz1836/ally/internal/clock"
	"github.com/mrz1836/ally/internal/domain"
	"github.com/mrz1836/ally/internal/errors"
	"github.com/mrz1836/ally/internal/report"
)

// sampleReport builds a report with one critical violation on one page.
func sampleReport() *domain.AllyReport {
	outcome := &domain.BatchOutcome{
		Results: []domain.ScanResult{
			{
				Target:    "/site/about.html",
				Timestamp: "2026-01-02T10:00:00Z",
				Violations: []domain.Violation{{
					ID:     "image-alt",
					Impact: domain.SeverityCritical,
					Help:   "Images must have alternate text",
					Nodes:  []domain.ViolationNode{{HTML: `<img src="x.png">`, Target: []string{"img"}}},
				}},
				Passes: 10,
			},
			{Target: "/site/index.html", Timestamp: "2026-01-02T10:00:00Z", Violations: []domain.Violation{}, Passes: 12},
		},
	}
	at := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	return report.Build(outcome, domain.StandardAA, clock.Fixed(at))
}

func TestReportCmd_Markdown(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(".ally", "scan.json")
	require.NoError(t, report.WriteJSON(path, sampleReport()))

	out, err := executeCmd(t, "report")
	require.NoError(t, err)
	assert.Contains(t, out, "# Accessibility report")
	assert.Contains(t, out, "image-alt")
	assert.Contains(t, out, "| 75 |")
}

func TestReportCmd_JSONWithExplicitPath(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.json")
	want := sampleReport()
	require.NoError(t, report.WriteJSON(path, want))

	out, err := executeCmd(t, "report", "--path", path, "--format", "json")
	require.NoError(t, err)

	var got domain.AllyReport
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, 75, got.Summary.Score)
}

func TestReportCmd_GlobalJSONOutput(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, report.WriteJSON(filepath.Join(".ally", "scan.json"), sampleReport()))

	out, err := executeCmd(t, "report", "-o", "json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
}

func TestReportCmd_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := executeCmd(t, "report")
	require.ErrorIs(t, err, errors.ErrReportNotFound)
	assert.Equal(t, ExitError, ExitCodeForError(err))

	_, err = executeCmd(t, "report", "--format", "html")
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestHistoryCmd(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(".ally", "history.jsonl")
	for i, score := range []int{60, 75, 90} {
		entry := domain.HistoryEntry{
			RunID:      "run-" + string(rune('a'+i)),
			ScanDate:   "2026-01-0" + string(rune('1'+i)) + "T00:00:00Z",
			Standard:   domain.StandardAA,
			TotalFiles: 3,
			Score:      score,
		}
		require.NoError(t, report.AppendHistory(context.Background(), path, entry))
	}

	out, err := executeCmd(t, "history", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "SCORE")
	assert.Contains(t, out, "+15")
	assert.NotContains(t, out, "2026-01-01", "older entries are cut by --limit")

	out, err = executeCmd(t, "history", "-o", "json")
	require.NoError(t, err)
	var entries []domain.HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, 3)
}

func TestHistoryCmd_Empty(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := executeCmd(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No scan history yet")
}

func TestHistoryCmd_InvalidLimit(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := executeCmd(t, "history", "--limit", "0")
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

// recordFile is the name the file store gives a cached result.
//
//nolint:gochecknoglobals // shared test fixture
var recordFile = cache.Key("/site/index.html", domain.StandardAA) + ".json"

func writeCacheRecords(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(".ally", "cache")
	writeFile(t, filepath.Join(dir, recordFile), "{}")
	writeFile(t, filepath.Join(dir, "keep.txt"), "mine")
	writeFile(t, filepath.Join(dir, "package.json"), "{}")
	return dir
}

func stubConfirm(t *testing.T, ok bool, err error) *int {
	t.Helper()
	calls := 0
	orig := confirmPrompt
	confirmPrompt = func(string, bool) (bool, error) {
		calls++
		return ok, err
	}
	t.Cleanup(func() { confirmPrompt = orig })
	return &calls
}

func TestCacheClearCmd_Force(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := writeCacheRecords(t)
	calls := stubConfirm(t, false, nil)

	out, err := executeCmd(t, "cache", "clear", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared cache")
	assert.Zero(t, *calls, "--force skips the prompt")

	assert.NoFileExists(t, filepath.Join(dir, recordFile))
	assert.FileExists(t, filepath.Join(dir, "keep.txt"))
	assert.FileExists(t, filepath.Join(dir, "package.json"))
}

func TestCacheClearCmd_Confirmed(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := writeCacheRecords(t)
	calls := stubConfirm(t, true, nil)

	_, err := executeCmd(t, "cache", "clear")
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)
	assert.NoFileExists(t, filepath.Join(dir, recordFile))
}

func TestCacheClearCmd_Declined(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
		err  error
	}{
		{name: "answered no", ok: false},
		{name: "canceled", err: errors.ErrMenuCanceled},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			dir := writeCacheRecords(t)
			stubConfirm(t, tc.ok, tc.err)

			out, err := executeCmd(t, "cache", "clear")
			require.NoError(t, err)
			assert.Contains(t, out, "Cache left unchanged")
			assert.FileExists(t, filepath.Join(dir, recordFile))
		})
	}
}

func TestCacheClearCmd_NonInteractive(t *testing.T) {
	t.Chdir(t.TempDir())
	stubConfirm(t, false, errors.ErrInteractiveRequired)

	_, err := executeCmd(t, "cache", "clear")
	require.ErrorIs(t, err, errors.ErrInteractiveRequired)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestConfigShowCmd(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, filepath.Join(".ally", "config.yaml"), "scan:\n  batch_size: 8\n")

	out, err := executeCmd(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# project: .ally/config.yaml\n")
	assert.Contains(t, out, "(not found)", "global config is absent")
	assert.Contains(t, out, "batch_size: 8")
	assert.Contains(t, out, "timeout: 30s")

	out, err = executeCmd(t, "config", "show", "--format", "json")
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Contains(t, cfg, "cache")

	_, err = executeCmd(t, "config", "show", "--format", "toml")
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestScanCmd_InvalidInputFailsBeforeLaunch(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "bad standard", args: []string{"scan", "--standard", "B"}, wantErr: errors.ErrConfigInvalidScan},
		{name: "bad backend", args: []string{"scan", "--browser", "webkit"}, wantErr: errors.ErrConfigInvalidBrowser},
		{name: "bad wait", args: []string{"scan", "--wait", "forever"}, wantErr: errors.ErrConfigInvalidScan},
		{name: "fail-under out of range", args: []string{"scan", "--fail-under", "101"}, wantErr: errors.ErrInvalidArgument},
		{name: "zero batch size", args: []string{"scan", "--batch-size", "0"}, wantErr: errors.ErrInvalidArgument},
		{name: "missing path", args: []string{"scan", "does-not-exist"}, wantErr: errors.ErrInvalidTarget},
		{name: "bad url", args: []string{"scan", "--url", "ftp://example.com"}, wantErr: errors.ErrInvalidTarget},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Chdir(t.TempDir())

			_, err := executeCmd(t, tc.args...)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
		})
	}
}

func TestScanCmd_NoTargets(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := executeCmd(t, "scan", "--engine", "builtin")
	require.ErrorIs(t, err, errors.ErrNoTargets)
	assert.Equal(t, ExitError, ExitCodeForError(err))
	_, statErr := os.Stat(filepath.Join(dir, ".ally", "scan.json"))
	assert.True(t, os.IsNotExist(statErr), "no report is written for a failed run")
}
