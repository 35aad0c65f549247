package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/ally/internal/domain"
	"github.com/mrz1836/ally/internal/engine"
	allyerrors "github.com/mrz1836/ally/internal/errors"
	"github.com/mrz1836/ally/internal/testutil"
)

const fakeAxeSource = `window.axe = {run: function () {}};`

// axePage simulates a page where axe becomes defined once injected.
func axePage(raw map[string]any) *testutil.FakePage {
	injected := false
	return &testutil.FakePage{
		EvaluateFunc: func(_ context.Context, script string) (any, error) {
			switch {
			case strings.HasPrefix(script, "typeof window.axe"):
				return injected, nil
			case strings.Contains(script, "(0, eval)"):
				injected = true
				return true, nil
			case strings.HasPrefix(script, "axe.run"):
				return raw, nil
			}
			return nil, nil
		},
	}
}

func sampleAxeOutput() map[string]any {
	return map[string]any{
		"violations": []any{
			map[string]any{
				"id":          "image-alt",
				"impact":      "critical",
				"description": "Ensures <img> elements have alternate text",
				"help":        "Images must have alternate text",
				"helpUrl":     "https://dequeuniversity.com/rules/axe/4.10/image-alt",
				"tags":        []string{"wcag2a", "wcag111"},
				"nodes": []any{
					map[string]any{"html": `<img src="a.png">`, "target": []any{"img"}, "failureSummary": "Fix it"},
					map[string]any{"html": `<img src="b.png">`, "target": []any{[]string{"my-el", "img"}}},
				},
			},
			map[string]any{
				"id":     "region",
				"impact": nil,
				"nodes":  []any{},
			},
		},
		"passes":     12,
		"incomplete": 2,
	}
}

func TestAxeInvoker_InjectsOnceAndNormalizes(t *testing.T) {
	inv := engine.NewAxeInvokerFromSource(fakeAxeSource, zerolog.Nop())
	page := axePage(sampleAxeOutput())
	ctx := context.Background()

	res, err := inv.Run(ctx, page, domain.StandardAA.Tags())
	require.NoError(t, err)

	assert.Equal(t, 12, res.Passes)
	assert.Equal(t, 2, res.Incomplete)
	require.Len(t, res.Violations, 2)

	v := res.Violations[0]
	assert.Equal(t, "image-alt", v.ID)
	assert.Equal(t, domain.SeverityCritical, v.Impact)
	assert.Equal(t, "https://dequeuniversity.com/rules/axe/4.10/image-alt", v.HelpURL)
	require.Len(t, v.Nodes, 2)
	assert.Equal(t, []string{"img"}, v.Nodes[0].Target)
	assert.Equal(t, "Fix it", v.Nodes[0].FailureSummary)
	assert.Equal(t, []string{"my-el >>> img"}, v.Nodes[1].Target)

	missingImpact := res.Violations[1]
	assert.Equal(t, domain.SeverityMinor, missingImpact.Impact, "null impact maps to minor")
	assert.NotNil(t, missingImpact.Tags)
	assert.NotNil(t, missingImpact.Nodes)

	// A second run on the same page must not inject again.
	_, err = inv.Run(ctx, page, domain.StandardAA.Tags())
	require.NoError(t, err)

	injections := 0
	for _, s := range page.Scripts() {
		if strings.Contains(s, "(0, eval)") {
			injections++
		}
	}
	assert.Equal(t, 1, injections)
}

func TestAxeInvoker_PassesExactTags(t *testing.T) {
	inv := engine.NewAxeInvokerFromSource(fakeAxeSource, zerolog.Nop())
	page := axePage(map[string]any{"violations": []any{}, "passes": 0, "incomplete": 0})

	_, err := inv.Run(context.Background(), page, domain.StandardA.Tags())
	require.NoError(t, err)

	scripts := page.Scripts()
	last := scripts[len(scripts)-1]
	assert.Contains(t, last, `values: ["wcag2a","wcag21a"]`)
	assert.NotContains(t, last, "wcag2aa")
}

func TestAxeInvoker_EmptyTags(t *testing.T) {
	inv := engine.NewAxeInvokerFromSource(fakeAxeSource, zerolog.Nop())
	page := axePage(nil)

	_, err := inv.Run(context.Background(), page, nil)
	require.ErrorIs(t, err, allyerrors.ErrEngineFailed)
	assert.Empty(t, page.Scripts(), "nothing is evaluated without tags")
}

func TestAxeInvoker_InjectionDidNotDefineAxe(t *testing.T) {
	inv := engine.NewAxeInvokerFromSource("/* broken */", zerolog.Nop())
	page := &testutil.FakePage{
		EvaluateFunc: func(context.Context, string) (any, error) { return false, nil },
	}

	_, err := inv.Run(context.Background(), page, domain.StandardAA.Tags())
	require.ErrorIs(t, err, allyerrors.ErrEngineFailed)
}

func TestAxeInvoker_PropagatesEvaluateErrorVerbatim(t *testing.T) {
	inv := engine.NewAxeInvokerFromSource(fakeAxeSource, zerolog.Nop())
	page := &testutil.FakePage{
		EvaluateFunc: func(_ context.Context, script string) (any, error) {
			if strings.HasPrefix(script, "axe.run") {
				return nil, testutil.ErrMockEngine
			}
			return true, nil
		},
	}

	_, err := inv.Run(context.Background(), page, domain.StandardAA.Tags())
	assert.Same(t, testutil.ErrMockEngine, err)
}

func TestResolveAxePath(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "axe.min.js")
		require.NoError(t, os.WriteFile(path, []byte(fakeAxeSource), 0o600))

		got, err := engine.ResolveAxePath(path)
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("env var", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "axe.js")
		require.NoError(t, os.WriteFile(path, []byte(fakeAxeSource), 0o600))
		t.Setenv(engine.AxePathEnvVar, path)

		got, err := engine.ResolveAxePath("")
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("searches node_modules upward", func(t *testing.T) {
		t.Setenv(engine.AxePathEnvVar, "")
		root := t.TempDir()
		axeDir := filepath.Join(root, "node_modules", "axe-core")
		require.NoError(t, os.MkdirAll(axeDir, 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(axeDir, "axe.min.js"), []byte(fakeAxeSource), 0o600))

		nested := filepath.Join(root, "site", "pages")
		require.NoError(t, os.MkdirAll(nested, 0o750))
		t.Chdir(nested)

		got, err := engine.ResolveAxePath("")
		require.NoError(t, err)
		assert.Equal(t, "axe.min.js", filepath.Base(got))
	})

	t.Run("missing explicit path", func(t *testing.T) {
		_, err := engine.ResolveAxePath(filepath.Join(t.TempDir(), "nope.js"))
		require.ErrorIs(t, err, allyerrors.ErrEngineSourceMissing)
	})
}

func TestNew(t *testing.T) {
	t.Run("builtin needs nothing", func(t *testing.T) {
		inv, err := engine.New(engine.KindBuiltin, engine.Options{Logger: zerolog.Nop()})
		require.NoError(t, err)
		assert.IsType(t, &engine.BuiltinInvoker{}, inv)
	})

	t.Run("axe fails fast without source", func(t *testing.T) {
		_, err := engine.New(engine.KindAxe, engine.Options{AxePath: filepath.Join(t.TempDir(), "missing.js")})
		require.ErrorIs(t, err, allyerrors.ErrEngineSourceMissing)
	})

	t.Run("axe loads source", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "axe.min.js")
		require.NoError(t, os.WriteFile(path, []byte(fakeAxeSource), 0o600))

		inv, err := engine.New(engine.KindAxe, engine.Options{AxePath: path, Logger: zerolog.Nop()})
		require.NoError(t, err)
		assert.IsType(t, &engine.AxeInvoker{}, inv)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := engine.New("pa11y", engine.Options{})
		require.ErrorIs(t, err, allyerrors.ErrUnknownEngine)
	})
}

func TestParseKind(t *testing.T) {
	k, err := engine.ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, engine.KindAxe, k)

	k, err = engine.ParseKind("Builtin")
	require.NoError(t, err)
	assert.Equal(t, engine.KindBuiltin, k)

	_, err = engine.ParseKind("lighthouse")
	require.ErrorIs(t, err, allyerrors.ErrUnknownEngine)
}
