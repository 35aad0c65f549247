package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrz1836/ally/internal/constants"
	"github.com/mrz1836/ally/internal/domain"
	allyerrors "github.com/mrz1836/ally/internal/errors"
)

// skippedDirs are never descended into during discovery.
//
//nolint:gochecknoglobals // Read-only lookup table
var skippedDirs = map[string]bool{
	"node_modules":      true,
	".git":              true,
	constants.AllyHome: true,
}

// IsHTMLFile reports whether name has an HTML extension.
func IsHTMLFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// Discover expands paths and urls into scan targets. Directories are walked
// for HTML files; files named explicitly are taken as given. Targets keep the
// order they were first seen in and duplicates are dropped.
func Discover(paths, urls []string) ([]domain.Target, error) {
	seen := make(map[string]bool)
	var targets []domain.Target
	add := func(t domain.Target) {
		if seen[t.ID] {
			return
		}
		seen[t.ID] = true
		targets = append(targets, t)
	}

	for _, p := range paths {
		found, err := discoverPath(p)
		if err != nil {
			return nil, err
		}
		for _, t := range found {
			add(t)
		}
	}

	for _, raw := range urls {
		t, err := domain.NewURLTarget(raw)
		if err != nil {
			return nil, err
		}
		add(t)
	}

	return targets, nil
}

func discoverPath(path string) ([]domain.Target, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", allyerrors.ErrInvalidTarget, path, err)
	}

	if !info.IsDir() {
		t, err := domain.NewFileTarget(path)
		if err != nil {
			return nil, err
		}
		return []domain.Target{t}, nil
	}

	var targets []domain.Target
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != path && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsHTMLFile(d.Name()) {
			return nil
		}
		t, err := domain.NewFileTarget(p)
		if err != nil {
			return err
		}
		targets = append(targets, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}
	return targets, nil
}
