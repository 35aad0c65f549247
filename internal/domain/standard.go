package domain

import (
	"fmt"
	"strings"

	allyerrors "github.com/mrz1836/ally/internal/errors"
)

// Standard is a WCAG conformance level that selects which rule tags
// the rule engine evaluates. A Standard is fixed for the whole run.
type Standard string

// Standard constants.
const (
	// StandardA is WCAG 2.x level A.
	StandardA Standard = "A"

	// StandardAA is WCAG 2.x level AA, including WCAG 2.2 AA additions.
	StandardAA Standard = "AA"

	// StandardAAA is WCAG 2.x level AAA.
	StandardAAA Standard = "AAA"
)

// String returns the string representation of the Standard.
func (s Standard) String() string {
	return string(s)
}

// IsValid checks if the standard is a recognized level.
func (s Standard) IsValid() bool {
	switch s {
	case StandardA, StandardAA, StandardAAA:
		return true
	}
	return false
}

// Tags returns the exact rule tag set for the standard. Each call returns
// a fresh slice. An invalid standard returns nil.
func (s Standard) Tags() []string {
	switch s {
	case StandardA:
		return []string{"wcag2a", "wcag21a"}
	case StandardAA:
		return []string{"wcag2a", "wcag2aa", "wcag21a", "wcag21aa", "wcag22aa"}
	case StandardAAA:
		return []string{"wcag2a", "wcag2aa", "wcag2aaa", "wcag21a", "wcag21aa", "wcag22aa"}
	default:
		return nil
	}
}

// ParseStandard converts user input to a Standard. It accepts the bare level
// ("aa"), tag-style names ("wcag2aa", "wcag22aa"), and prose like "WCAG 2.2 AA".
func ParseStandard(s string) (Standard, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.TrimPrefix(normalized, "WCAG")
	normalized = strings.TrimLeft(normalized, " 0123456789.")

	switch Standard(normalized) {
	case StandardA, StandardAA, StandardAAA:
		return Standard(normalized), nil
	}
	return "", fmt.Errorf("%w: %q", allyerrors.ErrInvalidStandard, s)
}
