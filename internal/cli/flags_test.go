package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/ally/internal/errors"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "generic failure", err: stderrors.New("boom"), want: ExitError},
		{name: "launch failure", err: fmt.Errorf("scan: %w", errors.ErrBackendLaunchFailed), want: ExitError},
		{name: "no targets", err: errors.ErrNoTargets, want: ExitError},
		{name: "engine missing", err: errors.ErrEngineSourceMissing, want: ExitError},
		{name: "score gate", err: fmt.Errorf("%w: 80 < 90", errors.ErrScoreBelowThreshold), want: ExitError},
		{name: "canceled", err: context.Canceled, want: ExitError},
		{name: "exit code 2 wrapper", err: errors.NewExitCode2Error(stderrors.New("bad")), want: ExitInvalidInput},
		{name: "invalid output format", err: errors.ErrInvalidOutputFormat, want: ExitInvalidInput},
		{name: "invalid standard", err: fmt.Errorf("x: %w", errors.ErrInvalidStandard), want: ExitInvalidInput},
		{name: "invalid scan config", err: errors.Wrap(errors.ErrConfigInvalidScan, "invalid configuration"), want: ExitInvalidInput},
		{name: "unknown backend", err: errors.ErrUnknownBackend, want: ExitInvalidInput},
		{name: "missing path", err: fmt.Errorf("%w: nope", errors.ErrInvalidTarget), want: ExitInvalidInput},
		{name: "cobra unknown flag", err: stderrors.New("unknown flag: --nope"), want: ExitInvalidInput},
		{name: "cobra mutually exclusive", err: stderrors.New("if any flags in the group [verbose quiet] are set none of the others can be"), want: ExitInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCodeForError(tc.err))
		})
	}
}

func TestIsValidOutputFormat(t *testing.T) {
	assert.True(t, IsValidOutputFormat(OutputText))
	assert.True(t, IsValidOutputFormat(OutputJSON))
	assert.False(t, IsValidOutputFormat("yaml"))
	assert.False(t, IsValidOutputFormat(""))
}
