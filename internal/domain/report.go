package domain

// IssueCount pairs a violation id with its total occurrence count.
type IssueCount struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// ReportSummary is the aggregate view over all scan results of a run.
type ReportSummary struct {
	TotalViolations int              `json:"total_violations"`
	BySeverity      map[Severity]int `json:"by_severity"`
	Score           int              `json:"score"`
	TopIssues       []IssueCount     `json:"top_issues"`
}

// AllyReport is the terminal artifact of a scan run.
//
// Example JSON representation:
//
//	{
//	    "version": "1.0",
//	    "run_id": "5f0c...",
//	    "scan_date": "2026-01-02T10:00:00Z",
//	    "standard": "AA",
//	    "total_files": 3,
//	    "results": [...],
//	    "failures": [],
//	    "summary": {"total_violations": 0, "score": 100, ...}
//	}
type AllyReport struct {
	Version    string        `json:"version"`
	RunID      string        `json:"run_id"`
	ScanDate   string        `json:"scan_date"`
	Standard   Standard      `json:"standard"`
	TotalFiles int           `json:"total_files"`
	Results    []ScanResult  `json:"results"`
	Failures   []Failure     `json:"failures"`
	Summary    ReportSummary `json:"summary"`
}

// HistoryEntry is one line in the append-only history log.
type HistoryEntry struct {
	RunID           string           `json:"run_id"`
	ScanDate        string           `json:"scan_date"`
	Standard        Standard         `json:"standard"`
	TotalFiles      int              `json:"total_files"`
	Score           int              `json:"score"`
	TotalViolations int              `json:"total_violations"`
	BySeverity      map[Severity]int `json:"by_severity"`
	Failed          int              `json:"failed"`
}

// HistoryEntryFor summarizes a report for the history log.
func HistoryEntryFor(r *AllyReport) HistoryEntry {
	return HistoryEntry{
		RunID:           r.RunID,
		ScanDate:        r.ScanDate,
		Standard:        r.Standard,
		TotalFiles:      r.TotalFiles,
		Score:           r.Summary.Score,
		TotalViolations: r.Summary.TotalViolations,
		BySeverity:      r.Summary.BySeverity,
		Failed:          len(r.Failures),
	}
}
