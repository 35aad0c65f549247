// Package domain provides shared domain types for the ally scan pipeline.
// These types are used across all internal packages to ensure consistent data structures.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// All JSON field names use snake_case.
package domain

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	allyerrors "github.com/mrz1836/ally/internal/errors"
)

// TargetKind identifies how a target's markup is obtained.
type TargetKind string

// TargetKind constants.
const (
	// TargetFile is a local HTML file loaded through a file:// URL.
	TargetFile TargetKind = "file"

	// TargetURL is a live http(s) page.
	TargetURL TargetKind = "url"

	// TargetInline is markup supplied directly, such as HTML read from stdin.
	TargetInline TargetKind = "inline"
)

// Target is a single file, URL, or inline document submitted for analysis.
// Targets are immutable once enqueued; construct them with NewFileTarget,
// NewURLTarget, or NewInlineTarget.
type Target struct {
	// Kind selects how the page is loaded.
	Kind TargetKind `json:"kind"`

	// ID is the target identity: an absolute path, a normalized URL,
	// or "inline:<label>".
	ID string `json:"id"`

	// Path is the absolute file path for file targets.
	Path string `json:"path,omitempty"`

	// URL is the address the browser navigates to (file:// for file targets).
	URL string `json:"url,omitempty"`

	// HTML holds the markup of inline targets.
	HTML string `json:"-"`
}

// NewFileTarget creates a target for a local HTML file.
// The path is made absolute and cleaned so that it can serve as identity.
func NewFileTarget(path string) (Target, error) {
	if strings.TrimSpace(path) == "" {
		return Target{}, fmt.Errorf("file path %w", allyerrors.ErrEmptyValue)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %s: %w", allyerrors.ErrInvalidTarget, path, err)
	}
	abs = filepath.Clean(abs)
	slashed := filepath.ToSlash(abs)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed // windows drive letters
	}
	fileURL := url.URL{Scheme: "file", Path: slashed}
	return Target{
		Kind: TargetFile,
		ID:   abs,
		Path: abs,
		URL:  fileURL.String(),
	}, nil
}

// NewURLTarget creates a target for a live page. Only http and https URLs
// are accepted. The URL is normalized for identity.
func NewURLTarget(raw string) (Target, error) {
	normalized, err := NormalizeURL(raw)
	if err != nil {
		return Target{}, err
	}
	return Target{
		Kind: TargetURL,
		ID:   normalized,
		URL:  normalized,
	}, nil
}

// NewInlineTarget creates a target from raw markup. The label names it in
// reports (for example "stdin").
func NewInlineTarget(label, html string) Target {
	if label == "" {
		label = "stdin"
	}
	return Target{
		Kind: TargetInline,
		ID:   "inline:" + label,
		HTML: html,
	}
}

// NormalizeURL lowercases scheme and host, drops default ports and fragments,
// and turns an empty path into "/". Query strings are kept as given.
func NormalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("url %w", allyerrors.ErrEmptyValue)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", allyerrors.ErrInvalidTarget, raw, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q: scheme must be http or https", allyerrors.ErrInvalidTarget, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q: missing host", allyerrors.ErrInvalidTarget, raw)
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		u.Host = host + ":" + port
	} else {
		u.Host = host
	}

	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// Label returns a short display name for progress output and logs.
func (t Target) Label() string {
	switch t.Kind {
	case TargetFile:
		return filepath.Base(t.Path)
	case TargetURL:
		return t.URL
	case TargetInline:
		return strings.TrimPrefix(t.ID, "inline:")
	default:
		return t.ID
	}
}

// Cacheable reports whether the target kind participates in the result cache.
// Inline markup has no stable identity across runs.
func (t Target) Cacheable() bool {
	return t.Kind == TargetFile || t.Kind == TargetURL
}

// String implements fmt.Stringer.
func (t Target) String() string {
	return t.ID
}
