package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func decoded(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestGetPathNested(t *testing.T) {
	value := decoded(t, `{"data":{"repository":{"name":"hello","stargazerCount":42,"isPrivate":false}}}`)

	require.Equal(t, "hello", GetString(value, []string{"data", "repository", "name"}, ""))
	require.Equal(t, 42, GetInt(value, []string{"data", "repository", "stargazerCount"}, 0))
	require.False(t, GetBool(value, []string{"data", "repository", "isPrivate"}, true))
}

func TestGetPathDefaults(t *testing.T) {
	value := decoded(t, `{"data":{"repository":null}}`)

	require.Equal(t, "dflt", GetString(value, []string{"data", "repository", "name"}, "dflt"))
	require.Equal(t, -1, GetInt(value, []string{"data", "missing"}, -1))
	require.Nil(t, GetMap(value, []string{"data", "repository"}))
	require.Nil(t, GetMap(nil, []string{"anything"}))
}

func TestGetIntFromFloat(t *testing.T) {
	// json.Unmarshal decode số thành float64
	value := decoded(t, `{"count":17}`)
	require.Equal(t, 17, GetInt(value, []string{"count"}, 0))

	direct := map[string]interface{}{"count": 9}
	require.Equal(t, 9, GetInt(direct, []string{"count"}, 0))
}

func TestGetSlice(t *testing.T) {
	value := decoded(t, `{"nodes":[{"id":"a"},{"id":"b"}]}`)
	nodes := GetSlice(value, []string{"nodes"})
	require.Len(t, nodes, 2)
	require.Equal(t, "a", GetString(nodes[0], []string{"id"}, ""))

	require.Nil(t, GetSlice(value, []string{"missing"}))
}

func TestGetPathThroughWrongType(t *testing.T) {
	value := decoded(t, `{"data":"just a string"}`)
	require.Equal(t, "x", GetString(value, []string{"data", "deeper"}, "x"))
}
