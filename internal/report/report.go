package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mrz1836/ally/internal/clock"
	"github.com/mrz1836/ally/internal/constants"
	"github.com/mrz1836/ally/internal/domain"
	allyerrors "github.com/mrz1836/ally/internal/errors"
	"github.com/mrz1836/ally/internal/fsutil"
)

// Build assembles the report for a finished run. Results and failures are
// sorted by target identity so reports of the same inputs compare equal.
// outcome is not modified.
func Build(outcome *domain.BatchOutcome, std domain.Standard, c clock.Clock) *domain.AllyReport {
	if c == nil {
		c = clock.RealClock{}
	}

	results := append([]domain.ScanResult{}, outcome.Results...)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Target < results[j].Target
	})

	failures := append([]domain.Failure{}, outcome.Failures...)
	sort.SliceStable(failures, func(i, j int) bool {
		return failures[i].Target < failures[j].Target
	})

	return &domain.AllyReport{
		Version:    constants.ReportVersion,
		RunID:      uuid.NewString(),
		ScanDate:   c.Now().UTC().Format(time.RFC3339),
		Standard:   std,
		TotalFiles: len(results) + len(failures),
		Results:    results,
		Failures:   failures,
		Summary:    Aggregate(results),
	}
}

// WriteJSON writes the report atomically as indented JSON.
func WriteJSON(path string, r *domain.AllyReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := fsutil.AtomicWrite(path, data); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// ReadJSON loads a report written by WriteJSON. A missing file is reported
// as ErrReportNotFound.
func ReadJSON(path string) (*domain.AllyReport, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user configuration
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", allyerrors.ErrReportNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var r domain.AllyReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return &r, nil
}
