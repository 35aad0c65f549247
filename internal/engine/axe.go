package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/ally/internal/browser"
	"github.com/mrz1836/ally/internal/constants"
	"github.com/mrz1836/ally/internal/domain"
	allyerrors "github.com/mrz1836/ally/internal/errors"
)

// AxePathEnvVar overrides the axe-core source location.
const AxePathEnvVar = "ALLY_AXE_PATH"

// axePresentScript reports whether axe is already defined on the page.
const axePresentScript = `typeof window.axe !== "undefined"`

// AxeInvoker runs axe-core inside the page.
type AxeInvoker struct {
	injectExpr string
	logger     zerolog.Logger
}

// NewAxeInvoker reads the axe-core source from path (or the default search
// locations when empty) and returns an invoker that injects it.
func NewAxeInvoker(path string, logger zerolog.Logger) (*AxeInvoker, error) {
	resolved, err := ResolveAxePath(path)
	if err != nil {
		return nil, err
	}

	src, err := os.ReadFile(resolved) //nolint:gosec // path is user configuration
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", allyerrors.ErrEngineSourceMissing, resolved, err)
	}

	logger.Debug().Str("axe_path", resolved).Int("bytes", len(src)).Msg("loaded axe-core source")
	return NewAxeInvokerFromSource(string(src), logger), nil
}

// NewAxeInvokerFromSource builds an invoker around already-loaded source.
func NewAxeInvokerFromSource(src string, logger zerolog.Logger) *AxeInvoker {
	lit, _ := json.Marshal(src) //nolint:errchkjson // strings always marshal
	return &AxeInvoker{
		// Indirect eval runs the source at global scope so its top-level
		// declarations land on window.
		injectExpr: fmt.Sprintf(`((0, eval)(%s), typeof window.axe !== "undefined")`, lit),
		logger:     logger,
	}
}

// ResolveAxePath finds axe.min.js. Order: explicit path, ALLY_AXE_PATH, then
// node_modules/axe-core/axe.min.js searched upward from the working directory.
func ResolveAxePath(path string) (string, error) {
	if path == "" {
		path = os.Getenv(AxePathEnvVar)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", allyerrors.ErrEngineSourceMissing, path)
		}
		return path, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("%w: %w", allyerrors.ErrEngineSourceMissing, err)
	}
	for {
		candidate := filepath.Join(dir, filepath.FromSlash(constants.DefaultAxePath))
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: %s not found in %s or any parent", allyerrors.ErrEngineSourceMissing, constants.DefaultAxePath, dir)
		}
		dir = parent
	}
}

// Run injects axe if needed and evaluates exactly the given tags.
func (a *AxeInvoker) Run(ctx context.Context, page browser.Page, tags []string) (*Result, error) {
	if err := requireTags(tags); err != nil {
		return nil, err
	}

	if err := a.inject(ctx, page); err != nil {
		return nil, err
	}

	var raw axeResults
	if err := page.Evaluate(ctx, runScript(tags), &raw); err != nil {
		return nil, err
	}
	return raw.normalize(), nil
}

func (a *AxeInvoker) inject(ctx context.Context, page browser.Page) error {
	var present bool
	if err := page.Evaluate(ctx, axePresentScript, &present); err != nil {
		return err
	}
	if present {
		return nil
	}

	if err := page.Evaluate(ctx, a.injectExpr, &present); err != nil {
		return err
	}
	if !present {
		return fmt.Errorf("%w: axe-core did not initialize after injection", allyerrors.ErrEngineFailed)
	}
	a.logger.Debug().Msg("injected axe-core")
	return nil
}

// runScript calls axe.run with runOnly tags and returns violations plus the
// passes/incomplete counts; only their lengths are used downstream.
func runScript(tags []string) string {
	lit, _ := json.Marshal(tags) //nolint:errchkjson // string slices always marshal
	return fmt.Sprintf(`axe.run(document, {runOnly: {type: "tag", values: %s}}).then((r) => ({
  violations: r.violations,
  passes: r.passes.length,
  incomplete: r.incomplete.length
}))`, lit)
}

type axeResults struct {
	Violations []axeViolation `json:"violations"`
	Passes     int            `json:"passes"`
	Incomplete int            `json:"incomplete"`
}

type axeViolation struct {
	ID          string    `json:"id"`
	Impact      *string   `json:"impact"`
	Description string    `json:"description"`
	Help        string    `json:"help"`
	HelpURL     string    `json:"helpUrl"`
	Tags        []string  `json:"tags"`
	Nodes       []axeNode `json:"nodes"`
}

type axeNode struct {
	HTML           string            `json:"html"`
	Target         []json.RawMessage `json:"target"`
	FailureSummary string            `json:"failureSummary"`
}

func (r axeResults) normalize() *Result {
	out := &Result{
		Violations: make([]domain.Violation, 0, len(r.Violations)),
		Passes:     max(r.Passes, 0),
		Incomplete: max(r.Incomplete, 0),
	}
	for _, v := range r.Violations {
		impact := ""
		if v.Impact != nil {
			impact = *v.Impact
		}
		tags := v.Tags
		if tags == nil {
			tags = []string{}
		}
		nodes := make([]domain.ViolationNode, 0, len(v.Nodes))
		for _, n := range v.Nodes {
			nodes = append(nodes, domain.ViolationNode{
				HTML:           n.HTML,
				Target:         flattenTarget(n.Target),
				FailureSummary: n.FailureSummary,
			})
		}
		out.Violations = append(out.Violations, domain.Violation{
			ID:          v.ID,
			Impact:      domain.ParseSeverity(impact),
			Description: v.Description,
			Help:        v.Help,
			HelpURL:     v.HelpURL,
			Tags:        tags,
			Nodes:       nodes,
		})
	}
	return out
}

// flattenTarget turns axe selectors into strings. Shadow DOM selectors arrive
// as nested arrays and are joined with " >>> ".
func flattenTarget(raw []json.RawMessage) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var parts []string
		if err := json.Unmarshal(item, &parts); err == nil {
			out = append(out, strings.Join(parts, " >>> "))
			continue
		}
		out = append(out, string(item))
	}
	return out
}

// Compile-time check that AxeInvoker implements Invoker.
var _ Invoker = (*AxeInvoker)(nil)
