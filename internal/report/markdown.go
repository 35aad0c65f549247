package report

import (
	"fmt"
	"strings"

	"github.com/mrz1836/ally/internal/domain"
)

// RenderMarkdown renders a report as a markdown document: a summary table,
// the top issues, and the violations of each target.
func RenderMarkdown(r *domain.AllyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Accessibility report\n\n")
	fmt.Fprintf(&b, "WCAG **%s** scan of %d target(s) on %s.\n\n", r.Standard, r.TotalFiles, r.ScanDate)

	b.WriteString("| Score | Violations | Critical | Serious | Moderate | Minor | Failed |\n")
	b.WriteString("|------:|-----------:|---------:|--------:|---------:|------:|-------:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d | %d |\n\n",
		r.Summary.Score,
		r.Summary.TotalViolations,
		r.Summary.BySeverity[domain.SeverityCritical],
		r.Summary.BySeverity[domain.SeveritySerious],
		r.Summary.BySeverity[domain.SeverityModerate],
		r.Summary.BySeverity[domain.SeverityMinor],
		len(r.Failures),
	)

	if len(r.Summary.TopIssues) > 0 {
		b.WriteString("## Top issues\n\n")
		for i, issue := range r.Summary.TopIssues {
			fmt.Fprintf(&b, "%d. `%s` (%d)\n", i+1, issue.ID, issue.Count)
		}
		b.WriteString("\n")
	}

	for _, res := range r.Results {
		if res.ViolationCount() == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", res.Target)
		for _, v := range res.Violations {
			fmt.Fprintf(&b, "- **%s** `%s`: %s", v.Impact, v.ID, escapeInline(v.Help))
			if v.HelpURL != "" {
				fmt.Fprintf(&b, " ([docs](%s))", v.HelpURL)
			}
			fmt.Fprintf(&b, ", %d node(s)\n", v.NodeCount())
		}
		b.WriteString("\n")
	}

	if len(r.Failures) > 0 {
		b.WriteString("## Failed targets\n\n")
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "- %s: %s\n", f.Target, escapeInline(f.Error))
		}
		b.WriteString("\n")
	}

	if r.Summary.TotalViolations == 0 && len(r.Failures) == 0 {
		b.WriteString("No violations found.\n")
	}

	return b.String()
}

// escapeInline keeps engine text on one line and out of markdown syntax.
func escapeInline(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.NewReplacer("*", `\*`, "_", `\_`, "`", "'").Replace(s)
}
