package domain

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	allyerrors "github.com/mrz1836/ally/internal/errors"
)

func TestNewFileTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "..", "index.html")

	target, err := NewFileTarget(path)
	require.NoError(t, err)

	want := filepath.Join(dir, "index.html")
	assert.Equal(t, TargetFile, target.Kind)
	assert.Equal(t, want, target.ID)
	assert.Equal(t, want, target.Path)
	assert.Contains(t, target.URL, "file://")
	assert.Equal(t, "index.html", target.Label())
	assert.True(t, target.Cacheable())
}

func TestNewFileTarget_Empty(t *testing.T) {
	_, err := NewFileTarget("  ")
	require.ErrorIs(t, err, allyerrors.ErrEmptyValue)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "adds root path", in: "https://Example.com", want: "https://example.com/"},
		{name: "drops default https port", in: "https://example.com:443/a", want: "https://example.com/a"},
		{name: "drops default http port", in: "HTTP://example.com:80/a", want: "http://example.com/a"},
		{name: "keeps custom port", in: "http://localhost:8080/x", want: "http://localhost:8080/x"},
		{name: "drops fragment", in: "https://example.com/a#top", want: "https://example.com/a"},
		{name: "keeps query", in: "https://example.com/a?b=1", want: "https://example.com/a?b=1"},
		{name: "rejects ftp", in: "ftp://example.com", wantErr: allyerrors.ErrInvalidTarget},
		{name: "rejects missing host", in: "https:///path", wantErr: allyerrors.ErrInvalidTarget},
		{name: "rejects empty", in: "", wantErr: allyerrors.ErrEmptyValue},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeURL(tc.in)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewURLTarget(t *testing.T) {
	target, err := NewURLTarget("https://Example.com/docs#intro")
	require.NoError(t, err)
	assert.Equal(t, TargetURL, target.Kind)
	assert.Equal(t, "https://example.com/docs", target.ID)
	assert.Equal(t, target.ID, target.URL)
	assert.True(t, target.Cacheable())
}

func TestNewInlineTarget(t *testing.T) {
	target := NewInlineTarget("", "<html></html>")
	assert.Equal(t, "inline:stdin", target.ID)
	assert.Equal(t, "stdin", target.Label())
	assert.False(t, target.Cacheable())

	data, err := json.Marshal(target)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "<html>", "markup is not serialized")
}

func TestParseStandard(t *testing.T) {
	tests := []struct {
		in   string
		want Standard
	}{
		{"A", StandardA},
		{"aa", StandardAA},
		{" AAA ", StandardAAA},
		{"wcag2aa", StandardAA},
		{"wcag22aa", StandardAA},
		{"WCAG 2.2 AA", StandardAA},
		{"wcag2a", StandardA},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseStandard(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, bad := range []string{"", "B", "WCAG", "AAAA"} {
		_, err := ParseStandard(bad)
		require.ErrorIs(t, err, allyerrors.ErrInvalidStandard, "input %q", bad)
	}
}

func TestStandardTags(t *testing.T) {
	assert.Equal(t, []string{"wcag2a", "wcag21a"}, StandardA.Tags())
	assert.Contains(t, StandardAA.Tags(), "wcag22aa")
	assert.NotContains(t, StandardAA.Tags(), "wcag2aaa")
	assert.Contains(t, StandardAAA.Tags(), "wcag2aaa")
	assert.Nil(t, Standard("X").Tags())

	tags := StandardAA.Tags()
	tags[0] = "mutated"
	assert.Equal(t, "wcag2a", StandardAA.Tags()[0], "Tags returns a fresh slice")
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, ParseSeverity("CRITICAL"))
	assert.Equal(t, SeveritySerious, ParseSeverity("serious"))
	assert.Equal(t, SeverityModerate, ParseSeverity("moderate"))
	assert.Equal(t, SeverityMinor, ParseSeverity("minor"))
	assert.Equal(t, SeverityMinor, ParseSeverity(""))
	assert.Equal(t, SeverityMinor, ParseSeverity("cosmic"))

	assert.Equal(t, 25, SeverityCritical.Weight())
	assert.Equal(t, 15, SeveritySerious.Weight())
	assert.Equal(t, 5, SeverityModerate.Weight())
	assert.Equal(t, 1, SeverityMinor.Weight())
	assert.Len(t, Severities(), 4)
}

func TestNewScanResult(t *testing.T) {
	target, err := NewFileTarget(filepath.Join(t.TempDir(), "a.html"))
	require.NoError(t, err)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	result := NewScanResult(target, at, nil, 3, 1)

	assert.Equal(t, target.ID, result.Target)
	assert.Equal(t, target.Path, result.FilePath)
	assert.Equal(t, "2026-01-02T02:04:05Z", result.Timestamp)
	assert.NotNil(t, result.Violations)
	require.NoError(t, result.Validate())

	result.Passes = -1
	require.Error(t, result.Validate())
	require.Error(t, ScanResult{}.Validate())
}

func TestBatchOutcomeProcessed(t *testing.T) {
	outcome := &BatchOutcome{
		Results:  []ScanResult{{Target: "a"}, {Target: "b"}},
		Failures: []Failure{{Target: "c", Error: "boom"}},
	}
	assert.Equal(t, 3, outcome.Processed())
}

func TestHistoryEntryFor(t *testing.T) {
	report := &AllyReport{
		RunID:      "run-1",
		ScanDate:   "2026-01-02T00:00:00Z",
		Standard:   StandardAA,
		TotalFiles: 2,
		Failures:   []Failure{{Target: "x", Error: "y"}},
		Summary: ReportSummary{
			TotalViolations: 4,
			Score:           70,
			BySeverity:      map[Severity]int{SeveritySerious: 2},
		},
	}

	entry := HistoryEntryFor(report)
	assert.Equal(t, "run-1", entry.RunID)
	assert.Equal(t, 70, entry.Score)
	assert.Equal(t, 4, entry.TotalViolations)
	assert.Equal(t, 1, entry.Failed)
	assert.Equal(t, 2, entry.BySeverity[SeveritySerious])
}
