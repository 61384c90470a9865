package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruncateString(t *testing.T) {
	require.Equal(t, "hello", TruncateString("hello", 10))
	require.Equal(t, "hel", TruncateString("hello", 3))
	require.Equal(t, "", TruncateString("", 5))
}
