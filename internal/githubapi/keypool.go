package githubapi

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/thep200/github-graph-crawler/pkg/log"
)

// KeyPool giữ danh sách access token theo thứ tự, đúng một token active tại
// một thời điểm. Rotate tiến vòng tròn qua danh sách; pool một token thì
// không xoay được, caller phải đợi quota reset thay vì đổi key.
type KeyPool struct {
	Logger log.Logger
	keys   []string
	idx    int
	pause  time.Duration
	mu     sync.Mutex
}

func NewKeyPool(logger log.Logger, keys []string) (*KeyPool, error) {
	if len(keys) == 0 {
		return nil, errors.New("key pool requires at least one api key")
	}
	return &KeyPool{
		Logger: logger,
		keys:   keys,
		pause:  1 * time.Second,
	}, nil
}

// Current trả về token đang active.
func (p *KeyPool) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.keys[p.idx]
}

// Rotate chuyển sang token kế tiếp, trả về false nếu pool chỉ có một token.
// Sau khi xoay có một khoảng dừng ngắn để tránh dồn request ngay lập tức
// lên identity mới.
func (p *KeyPool) Rotate() bool {
	p.mu.Lock()
	if len(p.keys) <= 1 {
		p.mu.Unlock()
		p.Logger.Error(context.Background(), "No more API keys available to rotate")
		return false
	}

	p.idx = (p.idx + 1) % len(p.keys)
	idx := p.idx
	pause := p.pause
	p.mu.Unlock()

	p.Logger.Info(context.Background(), "Rotated to API key index: %d", idx)
	time.Sleep(pause)
	return true
}

// Size trả về số lượng token trong pool.
func (p *KeyPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}
