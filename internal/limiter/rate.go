// Giới hạn số lượng request trong 1 giây, độc lập với quota phía GitHub.

package limiter

import (
	"sync"
	"time"
)

type RateLimiter struct {
	requestTimes []time.Time
	maxRequests  int
	mu           sync.Mutex
}

func NewRateLimiter(maxRequests int) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	return &RateLimiter{
		requestTimes: make([]time.Time, 0, maxRequests),
		maxRequests:  maxRequests,
	}
}

// Allow kiểm tra xem có thể thực hiện request mới hay không
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	oneSecondAgo := now.Add(-1 * time.Second)

	// Giữ lại các request trong 1 giây gần nhất
	valid := r.requestTimes[:0]
	for _, t := range r.requestTimes {
		if t.After(oneSecondAgo) {
			valid = append(valid, t)
		}
	}
	r.requestTimes = valid

	if len(r.requestTimes) < r.maxRequests {
		r.requestTimes = append(r.requestTimes, now)
		return true
	}

	return false
}

// Wait chặn cho đến khi được phép thực hiện request mới
func (r *RateLimiter) Wait() {
	for !r.Allow() {
		time.Sleep(50 * time.Millisecond)
	}
}
