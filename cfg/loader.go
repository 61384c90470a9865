// Gói cfg cung cấp cấu hình cho toàn bộ crawler.
// Cấu hình được nạp một lần khi process khởi động và truyền xuống các tầng dưới.

package cfg

import (
	"sync"
)

var (
	loader     Loader
	loaderOnce sync.Once
)

// Loader nạp cấu hình từ một nguồn cụ thể (yaml, mock, ...)
type Loader interface {
	Load() (*Config, error)
}

func NewLoader(l Loader) (Loader, error) {
	loaderOnce.Do(func() {
		loader = l
	})
	return loader, nil
}
