// Package engine runs a rule engine against a loaded page and normalizes its
// output into domain violations.
//
// Engine-native result shapes never leave this package: every invoker
// decodes into private structs and returns domain types only.
package engine

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/ally/internal/browser"
	"github.com/mrz1836/ally/internal/domain"
	allyerrors "github.com/mrz1836/ally/internal/errors"
)

// Kind identifies a rule engine.
type Kind string

// Engine kinds.
const (
	KindAxe     Kind = "axe"
	KindBuiltin Kind = "builtin"
)

// Result is the normalized outcome of one engine run.
type Result struct {
	Violations []domain.Violation
	Passes     int
	Incomplete int
}

// Invoker evaluates accessibility rules on a page.
// Implementations never retry; errors are returned unchanged.
type Invoker interface {
	Run(ctx context.Context, page browser.Page, tags []string) (*Result, error)
}

// Options configures New.
type Options struct {
	// AxePath points at axe.min.js. Empty means search for it.
	AxePath string

	Logger zerolog.Logger
}

// ParseKind resolves an engine name. Empty selects axe.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindAxe:
		return KindAxe, nil
	case KindBuiltin:
		return KindBuiltin, nil
	default:
		return "", allyerrors.Detail(allyerrors.ErrUnknownEngine, s)
	}
}

// New builds the invoker for kind. The axe invoker reads its source here, so
// a missing install fails before any browser is launched.
func New(kind Kind, opts Options) (Invoker, error) {
	switch kind {
	case KindAxe:
		return NewAxeInvoker(opts.AxePath, opts.Logger)
	case KindBuiltin:
		return NewBuiltinInvoker(), nil
	default:
		return nil, allyerrors.Detail(allyerrors.ErrUnknownEngine, kind)
	}
}

// requireTags rejects an empty rule set; there is no implicit default.
func requireTags(tags []string) error {
	if len(tags) == 0 {
		return allyerrors.Wrap(allyerrors.ErrEngineFailed, "no rule tags requested")
	}
	return nil
}
