// Gói githubapi là tầng client gọi GitHub API cho crawler: xoay vòng nhiều
// access token theo quota, retry với backoff theo lớp lỗi, và phân trang
// theo cursor có thể resume. Caller phía trên chỉ nhận "có kết quả" hoặc
// "không có kết quả" — không lỗi mạng nào thoát ra khỏi tầng này.

package githubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/thep200/github-graph-crawler/cfg"
	"github.com/thep200/github-graph-crawler/internal/limiter"
	"github.com/thep200/github-graph-crawler/pkg/log"
)

// Caller thực hiện các GraphQL query với retry và key rotation.
type Caller struct {
	Logger      log.Logger
	Config      *cfg.Config
	Pool        *KeyPool
	gate        *RateGate
	client      *http.Client
	rateLimiter *limiter.RateLimiter
	maxRetries  int
	threshold   int

	// sleep được tách ra để test điều khiển được thời gian chờ
	sleep          func(time.Duration)
	interPageDelay time.Duration
}

func NewCaller(logger log.Logger, config *cfg.Config, pool *KeyPool) (*Caller, error) {
	maxRetries := config.GithubApi.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}
	threshold := config.GithubApi.RateLimitThreshold
	if threshold <= 0 {
		threshold = 100
	}
	lightTimeout := time.Duration(config.GithubApi.LightTimeoutSec) * time.Second
	if lightTimeout <= 0 {
		lightTimeout = 10 * time.Second
	}
	heavyTimeout := time.Duration(config.GithubApi.HeavyTimeoutSec) * time.Second
	if heavyTimeout <= 0 {
		heavyTimeout = 30 * time.Second
	}

	return &Caller{
		Logger:         logger,
		Config:         config,
		Pool:           pool,
		gate:           NewRateGate(logger, config.GithubApi.GraphqlUrl, lightTimeout),
		client:         &http.Client{Timeout: heavyTimeout},
		rateLimiter:    limiter.NewRateLimiter(config.GithubApi.RequestsPerSecond),
		maxRetries:     maxRetries,
		threshold:      threshold,
		sleep:          time.Sleep,
		interPageDelay: 500 * time.Millisecond,
	}, nil
}

// Execute chạy một query với tối đa maxRetries lần thử. Trả về response đã
// decode (gồm data và có thể cả errors mức phần tử), hoặc nil khi không lấy
// được kết quả — caller coi nil là "mục này chưa lấy được", không phải lỗi
// chết người.
func (c *Caller) Execute(ctx context.Context, query string, variables map[string]interface{}) map[string]interface{} {
	for retry := 0; retry < c.maxRetries; retry++ {
		// Chỉ kiểm tra quota ở lần thử đầu để không nhân đôi lưu lượng
		// khi đang retry dồn dập
		if retry == 0 {
			snapshot := c.gate.Snapshot(ctx, c.Pool.Current())
			if c.gate.ShouldRotate(snapshot, c.threshold) {
				c.Logger.Warn(ctx, "Rate limit low: %d remaining", snapshot.Remaining)
				if !c.Pool.Rotate() {
					// Hết key để xoay: đợi rồi vẫn gọi tiếp, quota có thể
					// đã reset một phần
					c.sleep(backoffDelay(FailureQuotaExhausted, retry))
				}
			}
		}

		c.rateLimiter.Wait()

		resp, err := c.post(ctx, query, variables)
		if err != nil {
			class := classifyTransport(err)
			wait := backoffDelay(class, retry)
			c.Logger.Warn(ctx, "GraphQL request failed: %v. Retrying in %v (attempt %d/%d)", err, wait, retry+1, c.maxRetries)
			c.sleep(wait)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			var decoded map[string]interface{}
			if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
				resp.Body.Close()
				c.Logger.Error(ctx, "Failed to decode GraphQL response: %v", err)
				c.sleep(backoffDelay(FailureUnclassified, retry))
				continue
			}
			resp.Body.Close()

			if errs, ok := decoded["errors"].([]interface{}); ok && len(errs) > 0 {
				if hasExpectedErrors(errs) {
					// Lỗi authorization mức phần tử là bình thường khi
					// duyệt graph nhiều tenant: trả phần data đi kèm nếu có
					c.Logger.Debug(ctx, "GraphQL permission errors (expected): %v", errs)
					if _, ok := decoded["data"]; ok {
						return decoded
					}
					return nil
				}

				c.Logger.Error(ctx, "GraphQL errors: %v", errs)
				if hasRateLimitErrors(errs) {
					c.Pool.Rotate()
					continue
				}
				if hasTimeoutErrors(errs) {
					c.sleep(backoffDelay(FailureNetwork, retry+1))
					continue
				}
			}

			return decoded

		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			c.Logger.Error(ctx, "Authentication failed for current key")
			if !c.Pool.Rotate() {
				return nil
			}
			continue

		case resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			c.Logger.Error(ctx, "Rate limit exceeded (403)")
			if !c.Pool.Rotate() {
				c.sleep(backoffDelay(FailureQuotaExhausted, retry))
			}
			continue

		case resp.StatusCode >= 500:
			resp.Body.Close()
			wait := backoffDelayJitter(FailureServer, retry)
			c.Logger.Warn(ctx, "Server error %d. Retrying in %v (attempt %d/%d)", resp.StatusCode, wait, retry+1, c.maxRetries)
			c.sleep(wait)
			continue

		default:
			resp.Body.Close()
			c.Logger.Error(ctx, "GraphQL request failed with status: %d", resp.StatusCode)
			c.sleep(backoffDelay(FailureUnclassified, retry+1))
			continue
		}
	}

	c.Logger.Error(ctx, "Failed after %d retries", c.maxRetries)
	return nil
}

func (c *Caller) post(ctx context.Context, query string, variables map[string]interface{}) (*http.Response, error) {
	payload := map[string]interface{}{"query": query}
	if len(variables) > 0 {
		payload["variables"] = variables
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Config.GithubApi.GraphqlUrl, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Pool.Current())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github.v4+json")

	return c.client.Do(req)
}
