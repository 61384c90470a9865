// Gói csvout ghi các dataset CSV của crawler. Mỗi file có header cố định,
// được tạo kèm header khi chưa tồn tại và append khi đã có.

package csvout

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Writer struct {
	Path    string
	Headers []string
}

func NewWriter(path string, headers []string) (*Writer, error) {
	w := &Writer{
		Path:    path,
		Headers: headers,
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := w.writeHeaders(); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *Writer) writeHeaders() error {
	if dir := filepath.Dir(w.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create csv dir: %w", err)
		}
	}
	f, err := os.Create(w.Path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(w.Headers); err != nil {
		return fmt.Errorf("failed to write csv headers: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// WriteRow ghi một dòng theo thứ tự header; giá trị thiếu thành chuỗi rỗng.
func (w *Writer) WriteRow(row map[string]interface{}) error {
	f, err := os.OpenFile(w.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	record := make([]string, 0, len(w.Headers))
	for _, h := range w.Headers {
		record = append(record, sanitizeValue(row[h]))
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// WriteRows ghi nhiều dòng, dừng ở lỗi đầu tiên.
func (w *Writer) WriteRows(rows []map[string]interface{}) error {
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

// sanitizeValue chuyển giá trị bất kỳ thành cell CSV: nil thành rỗng,
// map và slice encode JSON, còn lại format mặc định.
func sanitizeValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]interface{}, []interface{}, []string:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", v)
	}
}
