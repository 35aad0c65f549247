package tui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/mrz1836/ally/internal/domain"
)

// RenderSummary writes the human-readable scan summary: the score, the
// per-severity counts, the top issues, and any failed targets.
func RenderSummary(w io.Writer, r *domain.AllyReport) {
	CheckNoColor()
	styles := NewOutputStyles()

	scoreStyle := lipgloss.NewStyle().Bold(true).Foreground(ScoreColor(r.Summary.Score))
	_, _ = fmt.Fprintf(w, "\n%s %s  %s\n",
		StyleBold.Render("Score"),
		scoreStyle.Render(fmt.Sprintf("%d/100", r.Summary.Score)),
		styles.Dim.Render(fmt.Sprintf("WCAG %s · %d target(s) · %d violation(s)", r.Standard, r.TotalFiles, r.Summary.TotalViolations)),
	)

	if r.Summary.TotalViolations > 0 {
		_, _ = fmt.Fprintln(w)
		for _, sev := range domain.Severities() {
			n := r.Summary.BySeverity[sev]
			if n == 0 {
				continue
			}
			_, _ = fmt.Fprintf(w, "  %s %d\n", RenderSeverity(sev), n)
		}
	}

	if len(r.Summary.TopIssues) > 0 {
		_, _ = fmt.Fprintln(w)
		rows := make([][]string, 0, len(r.Summary.TopIssues))
		for i, issue := range r.Summary.TopIssues {
			rows = append(rows, []string{strconv.Itoa(i + 1), issue.ID, strconv.Itoa(issue.Count)})
		}
		NewAutoTable(w, []string{"#", "RULE", "NODES"}, rows).Render()
	}

	if len(r.Failures) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, styles.Warning.Render(fmt.Sprintf("⚠ %d target(s) could not be scanned", len(r.Failures))))
		for _, f := range r.Failures {
			_, _ = fmt.Fprintf(w, "  %s %s\n", styles.Error.Render("✗"), f.Target)
			_, _ = fmt.Fprintln(w, styles.Dim.Render("    "+f.Error))
		}
	}
}

// HistoryRows formats history entries for a table, newest last, with the
// score change from the previous entry.
func HistoryRows(entries []domain.HistoryEntry) (headers []string, rows [][]string) {
	headers = []string{"DATE", "STANDARD", "TARGETS", "SCORE", "CHANGE", "VIOLATIONS", "FAILED"}
	rows = make([][]string, 0, len(entries))
	for i, e := range entries {
		change := "-"
		if i > 0 {
			change = fmt.Sprintf("%+d", e.Score-entries[i-1].Score)
		}
		rows = append(rows, []string{
			e.ScanDate,
			string(e.Standard),
			strconv.Itoa(e.TotalFiles),
			strconv.Itoa(e.Score),
			change,
			strconv.Itoa(e.TotalViolations),
			strconv.Itoa(e.Failed),
		})
	}
	return headers, rows
}
