package constants

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScoreConstants(t *testing.T) {
	t.Run("penalty cap matches the score range", func(t *testing.T) {
		assert.Equal(t, 100, MaxPenalty)
	})

	t.Run("node cap keeps one rule from dominating", func(t *testing.T) {
		assert.Equal(t, 10, MaxNodesPerViolation)
	})

	t.Run("top issues list is five long", func(t *testing.T) {
		assert.Equal(t, 5, TopIssuesLimit)
	})
}

func TestScanDefaults(t *testing.T) {
	assert.Positive(t, DefaultBatchSize)
	assert.LessOrEqual(t, DefaultBatchSize, MaxBatchSize)
	assert.Equal(t, 30*time.Second, DefaultScanTimeout)
	assert.Equal(t, "AA", DefaultStandard)
	assert.Less(t, NetworkIdleQuiet, DefaultScanTimeout)
}

func TestRetryDefaults(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultMaxRetries, 0)
	assert.Equal(t, time.Second, DefaultBaseDelay)
}
