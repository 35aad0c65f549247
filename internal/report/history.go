package report

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"github.com/mrz1836/ally/internal/domain"
	"github.com/mrz1836/ally/internal/fsutil"
)

// maxHistoryLine bounds one history line; longer lines are skipped.
const maxHistoryLine = 1 << 20

// AppendHistory appends one entry to the JSON-lines history log.
func AppendHistory(ctx context.Context, path string, entry domain.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}
	return fsutil.AppendLine(ctx, path, data)
}

// ReadHistory returns up to limit of the most recent entries, oldest first.
// A limit of zero or less returns every entry. Malformed lines are skipped
// and a missing file yields no entries.
func ReadHistory(ctx context.Context, path string, limit int) ([]domain.HistoryEntry, error) {
	f, err := os.Open(path) //#nosec G304 -- path is user configuration
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	defer func() { _ = f.Close() }()

	logger := zerolog.Ctx(ctx)
	entries := []domain.HistoryEntry{}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxHistoryLine)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry domain.HistoryEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			logger.Debug().Int("line", lineNum).Err(err).Msg("skipping malformed history line")
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}
