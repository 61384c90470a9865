// Gói jsonutil cung cấp helper đọc an toàn các cấu trúc JSON lồng nhau
// đã decode thành map[string]interface{}, thay cho việc kiểm tra nil thủ công.

package jsonutil

// GetPath đi theo chuỗi key trong value; trả về def nếu bất kỳ bước nào
// không phải map hoặc key không tồn tại hoặc giá trị là nil.
func GetPath(value interface{}, path []string, def interface{}) interface{} {
	current := value
	for _, key := range path {
		m, ok := current.(map[string]interface{})
		if !ok {
			return def
		}
		current, ok = m[key]
		if !ok || current == nil {
			return def
		}
	}
	if current == nil {
		return def
	}
	return current
}

// GetString đọc một string tại path, trả về def nếu thiếu hoặc sai kiểu.
func GetString(value interface{}, path []string, def string) string {
	v := GetPath(value, path, nil)
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

// GetInt đọc một số tại path. JSON decode số thành float64 nên chấp nhận
// cả float64 và int.
func GetInt(value interface{}, path []string, def int) int {
	v := GetPath(value, path, nil)
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return def
}

// GetBool đọc một bool tại path, trả về def nếu thiếu hoặc sai kiểu.
func GetBool(value interface{}, path []string, def bool) bool {
	v := GetPath(value, path, nil)
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

// GetSlice đọc một mảng tại path, trả về nil nếu thiếu.
func GetSlice(value interface{}, path []string) []interface{} {
	v := GetPath(value, path, nil)
	if s, ok := v.([]interface{}); ok {
		return s
	}
	return nil
}

// GetMap đọc một object tại path, trả về nil nếu thiếu.
func GetMap(value interface{}, path []string) map[string]interface{} {
	v := GetPath(value, path, nil)
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return nil
}
