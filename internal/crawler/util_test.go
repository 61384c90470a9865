package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitNameWithOwner(t *testing.T) {
	owner, name := splitNameWithOwner("tensorflow/tensorflow")
	require.Equal(t, "tensorflow", owner)
	require.Equal(t, "tensorflow", name)

	owner, name = splitNameWithOwner("octo/repo/with/slashes")
	require.Equal(t, "octo", owner)
	require.Equal(t, "repo/with/slashes", name)

	owner, name = splitNameWithOwner("no-owner")
	require.Equal(t, "", owner)
	require.Equal(t, "no-owner", name)
}

func TestSortPair(t *testing.T) {
	a, b := sortPair("U_2", "U_1")
	require.Equal(t, "U_1", a)
	require.Equal(t, "U_2", b)

	// Thứ tự input không được đổi kết quả
	a2, b2 := sortPair("U_1", "U_2")
	require.Equal(t, a, a2)
	require.Equal(t, b, b2)
}

func TestParseDatetime(t *testing.T) {
	require.Equal(t, "2024-03-15 10:30:00", parseDatetime("2024-03-15T10:30:00Z"))
	require.Equal(t, "", parseDatetime(""))
	require.Equal(t, "not-a-date", parseDatetime("not-a-date"))
}

func TestActiveYears(t *testing.T) {
	require.GreaterOrEqual(t, activeYears("2015-01-01T00:00:00Z"), 10)
	require.Equal(t, 0, activeYears(""))
	require.Equal(t, 0, activeYears("garbage"))
}

func TestExtractTopics(t *testing.T) {
	repo := map[string]interface{}{
		"repositoryTopics": map[string]interface{}{
			"nodes": []interface{}{
				map[string]interface{}{"topic": map[string]interface{}{"name": "ml"}},
				map[string]interface{}{"topic": map[string]interface{}{"name": "python"}},
				map[string]interface{}{"topic": map[string]interface{}{}},
			},
		},
	}
	require.Equal(t, "ml,python", extractTopics(repo))
	require.Equal(t, "", extractTopics(map[string]interface{}{}))
}
