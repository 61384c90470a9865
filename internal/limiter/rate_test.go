package limiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllowWithinBudget(t *testing.T) {
	r := NewRateLimiter(3)
	require.True(t, r.Allow())
	require.True(t, r.Allow())
	require.True(t, r.Allow())
	require.False(t, r.Allow())
}

func TestAllowRecoversAfterWindow(t *testing.T) {
	r := NewRateLimiter(1)
	require.True(t, r.Allow())
	require.False(t, r.Allow())

	time.Sleep(1100 * time.Millisecond)
	require.True(t, r.Allow())
}

func TestZeroBudgetDefaultsToOne(t *testing.T) {
	r := NewRateLimiter(0)
	require.True(t, r.Allow())
	require.False(t, r.Allow())
}

func TestWaitBlocksUntilAllowed(t *testing.T) {
	r := NewRateLimiter(1)
	r.Wait()

	start := time.Now()
	r.Wait()
	require.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}
