package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_LocalFallback_BlocksAfterLimit(t *testing.T) {
	l := New(nil)
	ctx := context.Background()

	rule := RuleFor("quotes")
	var lastDecision Decision
	for i := 0; i < rule.Limit; i++ {
		d, err := l.Allow(ctx, "1.2.3.4", "quotes", 0)
		require.NoError(t, err)
		lastDecision = d
		assert.True(t, d.Allowed)
	}
	assert.Equal(t, 0, lastDecision.Remaining)

	blocked, err := l.Allow(ctx, "1.2.3.4", "quotes", 0)
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)
}

func TestAllow_ExemptPathsNeverBlock(t *testing.T) {
	l := New(nil)
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		d, err := l.Allow(ctx, "9.9.9.9", "health", 0)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
}

func TestAllow_DistinctClientsDoNotShareBudget(t *testing.T) {
	l := New(nil)
	ctx := context.Background()

	rule := RuleFor("")
	for i := 0; i < rule.Limit; i++ {
		_, err := l.Allow(ctx, "1.1.1.1", "payments", 0)
		require.NoError(t, err)
	}
	d, err := l.Allow(ctx, "2.2.2.2", "payments", 0)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
