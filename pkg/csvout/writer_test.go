package csvout

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriterCreatesHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "repos.csv")
	_, err := NewWriter(path, []string{"id", "name"})
	require.NoError(t, err)

	records := readAll(t, path)
	require.Equal(t, [][]string{{"id", "name"}}, records)
}

func TestWriterAppendsRowsInHeaderOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.csv")
	w, err := NewWriter(path, []string{"id", "name", "stars"})
	require.NoError(t, err)

	require.NoError(t, w.WriteRow(map[string]interface{}{
		"name":  "hello",
		"id":    "R_1",
		"stars": 42,
	}))
	require.NoError(t, w.WriteRow(map[string]interface{}{
		"id": "R_2",
		// name và stars thiếu phải thành cell rỗng
	}))

	records := readAll(t, path)
	require.Len(t, records, 3)
	require.Equal(t, []string{"R_1", "hello", "42"}, records[1])
	require.Equal(t, []string{"R_2", "", ""}, records[2])
}

func TestWriterDoesNotRewriteExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.csv")
	w, err := NewWriter(path, []string{"id"})
	require.NoError(t, err)
	require.NoError(t, w.WriteRow(map[string]interface{}{"id": "R_1"}))

	// Mở lại cùng file không được ghi đè dữ liệu cũ
	w2, err := NewWriter(path, []string{"id"})
	require.NoError(t, err)
	require.NoError(t, w2.WriteRow(map[string]interface{}{"id": "R_2"}))

	records := readAll(t, path)
	require.Equal(t, [][]string{{"id"}, {"R_1"}, {"R_2"}}, records)
}

func TestSanitizeValue(t *testing.T) {
	require.Equal(t, "", sanitizeValue(nil))
	require.Equal(t, "plain", sanitizeValue("plain"))
	require.Equal(t, "7", sanitizeValue(7))
	require.Equal(t, `["a","b"]`, sanitizeValue([]string{"a", "b"}))
	require.Equal(t, `{"k":"v"}`, sanitizeValue(map[string]interface{}{"k": "v"}))
}

func TestWriterEscapesSpecialCharacters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.csv")
	w, err := NewWriter(path, []string{"description"})
	require.NoError(t, err)
	require.NoError(t, w.WriteRow(map[string]interface{}{
		"description": "a, \"quoted\"\nmultiline",
	}))

	records := readAll(t, path)
	require.Equal(t, "a, \"quoted\"\nmultiline", records[1][0])
}
