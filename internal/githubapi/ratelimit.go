package githubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/thep200/github-graph-crawler/pkg/jsonutil"
	"github.com/thep200/github-graph-crawler/pkg/log"
)

// RateLimitSnapshot là ảnh chụp quota tại một thời điểm, chỉ dùng cho đúng
// một quyết định rotate-hay-đợi rồi bỏ.
type RateLimitSnapshot struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
}

const rateLimitQuery = `
query {
	rateLimit {
		limit
		cost
		remaining
		resetAt
	}
}
`

// RateGate đọc quota còn lại của một token trước một đợt request.
type RateGate struct {
	Logger log.Logger
	url    string
	client *http.Client
}

func NewRateGate(logger log.Logger, url string, timeout time.Duration) *RateGate {
	return &RateGate{
		Logger: logger,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Snapshot đọc quota của key qua query rateLimit với timeout ngắn. Mọi thất
// bại đều trả về snapshot bảo thủ Remaining=0 để caller đi theo nhánh
// "quota thấp" thay vì lặng lẽ tiếp tục.
func (g *RateGate) Snapshot(ctx context.Context, key string) RateLimitSnapshot {
	conservative := RateLimitSnapshot{Remaining: 0}

	body, err := json.Marshal(map[string]interface{}{"query": rateLimitQuery})
	if err != nil {
		return conservative
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return conservative
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github.v4+json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.Logger.Warn(ctx, "Failed to check rate limit: %v", err)
		return conservative
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.Logger.Warn(ctx, "Rate limit check returned status %d", resp.StatusCode)
		return conservative
	}

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		g.Logger.Warn(ctx, "Failed to decode rate limit response: %v", err)
		return conservative
	}

	rate := jsonutil.GetMap(decoded, []string{"data", "rateLimit"})
	if rate == nil {
		return conservative
	}

	snapshot := RateLimitSnapshot{
		Remaining: jsonutil.GetInt(rate, []string{"remaining"}, 0),
		Limit:     jsonutil.GetInt(rate, []string{"limit"}, 0),
	}
	if resetAt := jsonutil.GetString(rate, []string{"resetAt"}, ""); resetAt != "" {
		if t, err := time.Parse(time.RFC3339, resetAt); err == nil {
			snapshot.ResetAt = t
		}
	}

	g.Logger.Info(ctx, "Rate limit - Remaining: %d/%d", snapshot.Remaining, snapshot.Limit)
	return snapshot
}

// ShouldRotate báo quota đã xuống dưới ngưỡng cấu hình.
func (g *RateGate) ShouldRotate(snapshot RateLimitSnapshot, threshold int) bool {
	return snapshot.Remaining < threshold
}
