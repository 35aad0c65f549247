// Package report reduces scan results into a scored report and writes the
// report, history, and markdown sinks.
//
// Import rules:
//   - CAN import: internal/constants, internal/domain, internal/errors,
//     internal/fsutil, internal/clock
//   - MUST NOT import: internal/scan, internal/browser, internal/cli
package report

import (
	"math"
	"sort"

	"github.com/mrz1836/ally/internal/constants"
	"github.com/mrz1836/ally/internal/domain"
)

// Penalty returns the score penalty of one violation: its severity weight
// times its node count, with the node count capped.
func Penalty(v domain.Violation) int {
	return v.Impact.Weight() * min(v.NodeCount(), constants.MaxNodesPerViolation)
}

// Score computes the overall score for results. The penalty is summed over
// every violation and capped, so the score stays in [0, 100].
func Score(results []domain.ScanResult) int {
	penalty := 0.0
	for _, r := range results {
		for _, v := range r.Violations {
			penalty += float64(Penalty(v))
		}
	}
	penalty = math.Min(penalty, constants.MaxPenalty)
	return int(math.Round(math.Max(0, 100-penalty)))
}

// Aggregate builds the summary for results. An empty input scores 100.
func Aggregate(results []domain.ScanResult) domain.ReportSummary {
	summary := domain.ReportSummary{
		BySeverity: make(map[domain.Severity]int, len(domain.Severities())),
		Score:      Score(results),
		TopIssues:  []domain.IssueCount{},
	}
	for _, sev := range domain.Severities() {
		summary.BySeverity[sev] = 0
	}

	counts := make(map[string]int)
	var order []string
	for _, r := range results {
		for _, v := range r.Violations {
			summary.TotalViolations++
			summary.BySeverity[domain.ParseSeverity(string(v.Impact))]++

			if _, ok := counts[v.ID]; !ok {
				order = append(order, v.ID)
			}
			counts[v.ID] += v.NodeCount()
		}
	}

	issues := make([]domain.IssueCount, 0, len(order))
	for _, id := range order {
		issues = append(issues, domain.IssueCount{ID: id, Count: counts[id]})
	}
	// Stable sort keeps first-seen order among equal counts.
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Count > issues[j].Count
	})
	if len(issues) > constants.TopIssuesLimit {
		issues = issues[:constants.TopIssuesLimit]
	}
	summary.TopIssues = issues

	return summary
}
