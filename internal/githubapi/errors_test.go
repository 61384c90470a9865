package githubapi

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffDelayMonotonic(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 0; attempt <= 10; attempt++ {
		delay := backoffDelay(FailureServer, attempt)
		require.GreaterOrEqual(t, delay, prev, "attempt %d", attempt)
		require.LessOrEqual(t, delay, backoffCap(FailureServer))
		prev = delay
	}
}

func TestBackoffDelayCaps(t *testing.T) {
	require.Equal(t, 30*time.Second, backoffDelay(FailureNetwork, 20))
	require.Equal(t, 60*time.Second, backoffDelay(FailureServer, 20))
	require.Equal(t, 300*time.Second, backoffDelay(FailureQuotaExhausted, 20))
	require.Equal(t, 60*time.Second, backoffDelay(FailureUnclassified, 20))

	// Attempt lớn bất thường không được tràn về số âm
	require.Equal(t, 300*time.Second, backoffDelay(FailureQuotaExhausted, 1000))
}

func TestBackoffDelayFirstAttempts(t *testing.T) {
	require.Equal(t, 1*time.Second, backoffDelay(FailureServer, 0))
	require.Equal(t, 2*time.Second, backoffDelay(FailureServer, 1))
	require.Equal(t, 4*time.Second, backoffDelay(FailureServer, 2))
	require.Equal(t, 1*time.Second, backoffDelay(FailureServer, -1))
}

func TestBackoffDelayJitter(t *testing.T) {
	// Jitter chỉ áp cho lỗi server và không vượt trần
	for i := 0; i < 50; i++ {
		delay := backoffDelayJitter(FailureServer, 2)
		require.GreaterOrEqual(t, delay, 4*time.Second)
		require.LessOrEqual(t, delay, backoffCap(FailureServer))
	}
	require.Equal(t, backoffDelay(FailureNetwork, 2), backoffDelayJitter(FailureNetwork, 2))
	require.Equal(t, backoffDelay(FailureQuotaExhausted, 3), backoffDelayJitter(FailureQuotaExhausted, 3))
}

func TestClassifyStatus(t *testing.T) {
	require.Equal(t, FailureAuthentication, classifyStatus(401))
	require.Equal(t, FailureNotFound, classifyStatus(404))
	require.Equal(t, FailureServer, classifyStatus(500))
	require.Equal(t, FailureServer, classifyStatus(503))
	require.Equal(t, FailureClient, classifyStatus(422))
	require.Equal(t, FailureUnclassified, classifyStatus(200))
}

func TestClassifyTransport(t *testing.T) {
	require.Equal(t, FailureNetwork, classifyTransport(context.DeadlineExceeded))
	require.Equal(t, FailureNetwork, classifyTransport(&net.DNSError{IsTimeout: true}))
	require.Equal(t, FailureUnclassified, classifyTransport(errors.New("boom")))
}

func TestHasExpectedErrors(t *testing.T) {
	forbidden := []interface{}{
		map[string]interface{}{"type": "FORBIDDEN", "message": "Resource not accessible"},
	}
	require.True(t, hasExpectedErrors(forbidden))

	permission := []interface{}{
		map[string]interface{}{"message": "You do not have Permission to view this repository"},
	}
	require.True(t, hasExpectedErrors(permission))

	other := []interface{}{
		map[string]interface{}{"type": "NOT_FOUND", "message": "Could not resolve"},
	}
	require.False(t, hasExpectedErrors(other))
	require.False(t, hasExpectedErrors(nil))
}

func TestRateLimitAndTimeoutErrors(t *testing.T) {
	rateLimited := []interface{}{
		map[string]interface{}{"message": "API Rate Limit exceeded for user"},
	}
	require.True(t, hasRateLimitErrors(rateLimited))
	require.False(t, hasTimeoutErrors(rateLimited))

	timedOut := []interface{}{
		map[string]interface{}{"message": "Something went wrong: timeout"},
	}
	require.True(t, hasTimeoutErrors(timedOut))
	require.False(t, hasRateLimitErrors(timedOut))
}
