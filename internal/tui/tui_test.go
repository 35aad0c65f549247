package tui

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/ally/internal/domain"
	allyerrors "github.com/mrz1836/ally/internal/errors"
)

func TestHasColorSupport(t *testing.T) {
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("NO_COLOR", "")
	assert.False(t, HasColorSupport(), "NO_COLOR disables color even when empty")
}

func TestHasColorSupport_DumbTerminal(t *testing.T) {
	t.Setenv("TERM", "dumb")
	assert.False(t, HasColorSupport())
}

func TestSeverityLabel(t *testing.T) {
	assert.Equal(t, "Critical", SeverityLabel(domain.SeverityCritical))
	assert.Equal(t, "Minor", SeverityLabel(domain.SeverityMinor))
	for _, sev := range domain.Severities() {
		assert.NotEmpty(t, SeverityIcon(sev))
		assert.Contains(t, SeverityColors(), sev)
	}
}

func TestScoreColor(t *testing.T) {
	assert.Equal(t, ColorSuccess, ScoreColor(100))
	assert.Equal(t, ColorSuccess, ScoreColor(ScoreGood))
	assert.Equal(t, ColorWarning, ScoreColor(ScoreFair))
	assert.Equal(t, ColorError, ScoreColor(10))
}

func TestValidateFormat(t *testing.T) {
	require.NoError(t, ValidateFormat(""))
	require.NoError(t, ValidateFormat("text"))
	require.NoError(t, ValidateFormat("json"))

	err := ValidateFormat("yaml")
	require.ErrorIs(t, err, allyerrors.ErrInvalidOutputFormat)
	assert.True(t, allyerrors.IsExitCode2Error(err))
}

func TestTTYOutput(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	out := NewOutput(&buf, FormatText)

	out.Success("scan complete")
	out.Warning("2 targets failed")
	out.Info("writing report")
	out.Error(fmt.Errorf("launch: %w", allyerrors.ErrBackendLaunchFailed))

	got := buf.String()
	assert.Contains(t, got, "✓ scan complete")
	assert.Contains(t, got, "⚠ 2 targets failed")
	assert.Contains(t, got, "writing report")
	assert.Contains(t, got, "✗ launch: browser backend failed to launch")
	assert.Contains(t, got, "▸ Try: ")
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutput(&buf, FormatJSON)

	out.Success("done")
	out.Error(fmt.Errorf("x: %w", allyerrors.ErrNoTargets))
	out.Table([]string{"a", "b"}, [][]string{{"1"}})
	require.NoError(t, out.JSON(map[string]int{"score": 90}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	var msg map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &msg))
	assert.Equal(t, "success", msg["type"])

	var errMsg map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &errMsg))
	assert.Equal(t, "error", errMsg["type"])
	assert.Equal(t, "x: no scan targets found", errMsg["details"])

	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &rows))
	assert.Equal(t, []map[string]string{{"a": "1", "b": ""}}, rows)
	assert.JSONEq(t, `{"score":90}`, lines[3])
}

func TestTable_FitsWidth(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	CheckNoColor()

	var buf bytes.Buffer
	long := strings.Repeat("x", 60)
	NewAutoTable(&buf, []string{"RULE", "TARGET"}, [][]string{{"image-alt", long}, {"標籤", "b"}}).
		WithMaxWidth(40).
		Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "RULE"))
	assert.Contains(t, lines[1], "…")
	for _, line := range lines {
		assert.LessOrEqual(t, len([]rune(line)), 40)
	}
}

func TestFit(t *testing.T) {
	assert.Equal(t, "ab   ", fit("ab", 5))
	assert.Equal(t, "abcd…", fit("abcdefgh", 5))
	assert.Equal(t, "標籤 ", fit("標籤", 5), "wide runes count as two cells")
}

func TestScanProgress_NonInteractive(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	CheckNoColor()

	var buf bytes.Buffer
	p := NewScanProgress(&buf)
	p.Update(1, 3, "index.html", false, nil)
	p.Update(2, 3, "about.html", true, nil)
	p.Update(3, 3, "https://example.com/", false, errors.New("navigation timeout"))
	p.Done()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[1/3] ✓ index.html", lines[0])
	assert.Equal(t, "[2/3] ≡ about.html", lines[1])
	assert.Equal(t, "[3/3] ✗ https://example.com/: navigation timeout", lines[2])
}

func TestProgressBar_Render(t *testing.T) {
	bar := NewProgressBar(20)
	assert.Equal(t, 20, bar.Width())
	assert.Equal(t, bar.Render(1), bar.Render(5), "values above one are clamped")
	assert.NotEqual(t, bar.Render(0), bar.Render(1))
}

func TestConfirm_RequiresTerminal(t *testing.T) {
	orig := terminalCheck
	t.Cleanup(func() { terminalCheck = orig })
	terminalCheck = func() bool { return false }

	_, err := Confirm("Clear the cache?", false)
	require.ErrorIs(t, err, allyerrors.ErrInteractiveRequired)
	assert.False(t, IsInteractive())
}

func TestRenderSummary(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	r := &domain.AllyReport{
		Standard:   domain.StandardAA,
		TotalFiles: 3,
		Failures:   []domain.Failure{{Target: "https://example.com/", Error: "navigation timeout"}},
		Summary: domain.ReportSummary{
			TotalViolations: 2,
			Score:           60,
			BySeverity:      map[domain.Severity]int{domain.SeverityCritical: 1, domain.SeverityMinor: 1},
			TopIssues:       []domain.IssueCount{{ID: "image-alt", Count: 3}},
		},
	}

	var buf bytes.Buffer
	RenderSummary(&buf, r)
	got := buf.String()

	assert.Contains(t, got, "60/100")
	assert.Contains(t, got, "WCAG AA · 3 target(s) · 2 violation(s)")
	assert.Contains(t, got, "✗ Critical 1")
	assert.Contains(t, got, "· Minor 1")
	assert.NotContains(t, got, "Serious")
	assert.Contains(t, got, "image-alt")
	assert.Contains(t, got, "1 target(s) could not be scanned")
	assert.Contains(t, got, "navigation timeout")
}

func TestHistoryRows(t *testing.T) {
	headers, rows := HistoryRows([]domain.HistoryEntry{
		{ScanDate: "2026-01-01T00:00:00Z", Standard: domain.StandardAA, Score: 70, TotalFiles: 2},
		{ScanDate: "2026-01-02T00:00:00Z", Standard: domain.StandardAA, Score: 85, TotalFiles: 2, Failed: 1},
		{ScanDate: "2026-01-03T00:00:00Z", Standard: domain.StandardAA, Score: 80, TotalFiles: 2},
	})
	assert.Len(t, headers, 7)
	require.Len(t, rows, 3)
	assert.Equal(t, "-", rows[0][4])
	assert.Equal(t, "+15", rows[1][4])
	assert.Equal(t, "-5", rows[2][4])
	assert.Equal(t, "1", rows[1][6])
}

func TestRenderMarkdown_FallsBackToSource(t *testing.T) {
	md := "# Title\n\nbody\n"
	out := RenderMarkdown(md)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "body")
}
