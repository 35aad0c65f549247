package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Severity is the impact level the rule engine assigns to a violation.
type Severity string

// Severity constants, ordered from most to least severe.
const (
	SeverityCritical Severity = "critical"
	SeveritySerious  Severity = "serious"
	SeverityModerate Severity = "moderate"
	SeverityMinor    Severity = "minor"
)

// Severities returns all severities from most to least severe.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeveritySerious, SeverityModerate, SeverityMinor}
}

// ParseSeverity maps an engine impact string to a Severity.
// Unknown or empty impacts map to SeverityMinor.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityCritical:
		return SeverityCritical
	case SeveritySerious:
		return SeveritySerious
	case SeverityModerate:
		return SeverityModerate
	default:
		return SeverityMinor
	}
}

// Weight returns the per-node score penalty for the severity.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 25
	case SeveritySerious:
		return 15
	case SeverityModerate:
		return 5
	default:
		return 1
	}
}

// String returns the string representation of the Severity.
func (s Severity) String() string {
	return string(s)
}

// ViolationNode is one DOM location failing a rule.
type ViolationNode struct {
	// HTML is the serialized markup of the failing element.
	HTML string `json:"html"`

	// Target is the selector path to the element, outermost first.
	Target []string `json:"target"`

	// FailureSummary explains how to fix the node.
	FailureSummary string `json:"failure_summary,omitempty"`
}

// Violation is one rule failure with the nodes it affects.
// Nodes keep the order the engine reported them in.
type Violation struct {
	ID          string          `json:"id"`
	Impact      Severity        `json:"impact"`
	Description string          `json:"description"`
	Help        string          `json:"help"`
	HelpURL     string          `json:"help_url"`
	Tags        []string        `json:"tags"`
	Nodes       []ViolationNode `json:"nodes"`
}

// NodeCount returns the number of affected nodes.
func (v Violation) NodeCount() int {
	return len(v.Nodes)
}

// ScanResult is the outcome of one successful scan of one target.
// It is created once and never modified; cache hits reconstruct it verbatim.
type ScanResult struct {
	// Target is the target identity.
	Target string `json:"target"`

	// FilePath is set for file targets.
	FilePath string `json:"file_path,omitempty"`

	// Timestamp is when the scan completed, in RFC 3339 format.
	Timestamp string `json:"timestamp"`

	Violations []Violation `json:"violations"`
	Passes     int         `json:"passes"`
	Incomplete int         `json:"incomplete"`
}

// NewScanResult builds a ScanResult for the target stamped with the given time.
func NewScanResult(t Target, at time.Time, violations []Violation, passes, incomplete int) ScanResult {
	if violations == nil {
		violations = []Violation{}
	}
	return ScanResult{
		Target:     t.ID,
		FilePath:   t.Path,
		Timestamp:  at.UTC().Format(time.RFC3339),
		Violations: violations,
		Passes:     passes,
		Incomplete: incomplete,
	}
}

// Validate checks that the counts are non-negative and the target is set.
func (r ScanResult) Validate() error {
	if r.Target == "" {
		return errors.New("scan result has no target")
	}
	if r.Passes < 0 || r.Incomplete < 0 {
		return fmt.Errorf("scan result for %s has negative counts (passes=%d incomplete=%d)", r.Target, r.Passes, r.Incomplete)
	}
	return nil
}

// ViolationCount returns the number of violations in the result.
func (r ScanResult) ViolationCount() int {
	return len(r.Violations)
}

// Failure records a target that could not be scanned.
type Failure struct {
	Target string `json:"target"`
	Error  string `json:"error"`
}

// BatchOutcome accumulates the results of one run. It only grows while the
// run is in progress.
type BatchOutcome struct {
	Results  []ScanResult `json:"results"`
	Failures []Failure    `json:"failures"`

	// CacheHits and CacheMisses count how each target was served.
	CacheHits   int `json:"cache_hits"`
	CacheMisses int `json:"cache_misses"`
}

// Processed returns the number of targets that succeeded or failed.
func (o *BatchOutcome) Processed() int {
	return len(o.Results) + len(o.Failures)
}
