package githubapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/thep200/github-graph-crawler/cfg"
	"github.com/thep200/github-graph-crawler/internal/limiter"
	"github.com/thep200/github-graph-crawler/pkg/log"
)

// RestCaller gọi GitHub REST API cho các thao tác không có trên GraphQL
// (danh sách contributor, đếm commit/PR/issue theo tác giả).
type RestCaller struct {
	Logger      log.Logger
	Config      *cfg.Config
	Pool        *KeyPool
	client      *http.Client
	rateLimiter *limiter.RateLimiter
	maxRetries  int

	sleep          func(time.Duration)
	interPageDelay time.Duration
}

func NewRestCaller(logger log.Logger, config *cfg.Config, pool *KeyPool) (*RestCaller, error) {
	heavyTimeout := time.Duration(config.GithubApi.HeavyTimeoutSec) * time.Second
	if heavyTimeout <= 0 {
		heavyTimeout = 30 * time.Second
	}

	return &RestCaller{
		Logger:         logger,
		Config:         config,
		Pool:           pool,
		client:         &http.Client{Timeout: heavyTimeout},
		rateLimiter:    limiter.NewRateLimiter(config.GithubApi.RequestsPerSecond),
		maxRetries:     3,
		sleep:          time.Sleep,
		interPageDelay: 500 * time.Millisecond,
	}, nil
}

// Get thực hiện GET {base}/{endpoint} và trả về JSON đã decode, hoặc nil khi
// không lấy được kết quả. 404 và permission denied trả nil ngay, không retry.
func (c *RestCaller) Get(ctx context.Context, endpoint string, params map[string]string) interface{} {
	fullUrl := strings.TrimSuffix(c.Config.GithubApi.RestUrl, "/") + "/" + strings.TrimPrefix(endpoint, "/")

	for retry := 0; retry < c.maxRetries; retry++ {
		c.rateLimiter.Wait()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullUrl, nil)
		if err != nil {
			c.Logger.Error(ctx, "Cannot build REST request: %v", err)
			return nil
		}
		if len(params) > 0 {
			q := url.Values{}
			for k, v := range params {
				q.Set(k, v)
			}
			req.URL.RawQuery = q.Encode()
		}
		req.Header.Set("Authorization", "token "+c.Pool.Current())
		req.Header.Set("Accept", "application/vnd.github.v3+json")

		resp, err := c.client.Do(req)
		if err != nil {
			class := classifyTransport(err)
			wait := backoffDelay(class, retry)
			c.Logger.Warn(ctx, "REST request failed: %v. Retry %d/%d in %v", err, retry+1, c.maxRetries, wait)
			c.sleep(wait)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			var decoded interface{}
			err := json.NewDecoder(resp.Body).Decode(&decoded)
			resp.Body.Close()
			if err != nil {
				c.Logger.Error(ctx, "Failed to decode REST response: %v", err)
				return nil
			}
			return decoded

		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			c.Logger.Error(ctx, "REST API authentication failed")
			c.Pool.Rotate()

		case resp.StatusCode == http.StatusForbidden:
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if strings.Contains(strings.ToLower(string(body)), "rate limit") {
				c.Logger.Warn(ctx, "REST API rate limit exceeded")
				c.Pool.Rotate()
			} else {
				// Permission denied không sửa được bằng retry
				c.Logger.Debug(ctx, "REST API permission denied for %s", endpoint)
				return nil
			}

		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			c.Logger.Debug(ctx, "REST API resource not found: %s", endpoint)
			return nil

		case resp.StatusCode >= 500:
			resp.Body.Close()
			wait := backoffDelay(FailureServer, retry)
			c.Logger.Warn(ctx, "REST API server error %d. Retrying in %v...", resp.StatusCode, wait)
			c.sleep(wait)

		default:
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			c.Logger.Error(ctx, "REST API error: %d - %s", resp.StatusCode, string(body))
			c.sleep(backoffDelay(FailureUnclassified, retry))
		}
	}

	return nil
}

// GetPaged gom các trang của một endpoint trả về mảng, đi theo tham số
// page/per_page. Trang ngắn hơn perPage báo hiệu trang cuối.
// maxPages <= 0 nghĩa là không giới hạn.
func (c *RestCaller) GetPaged(ctx context.Context, endpoint string, params map[string]string, perPage int, maxPages int) []interface{} {
	if perPage <= 0 {
		perPage = 100
	}

	var items []interface{}
	page := 1

	for maxPages <= 0 || page <= maxPages {
		pageParams := make(map[string]string, len(params)+2)
		for k, v := range params {
			pageParams[k] = v
		}
		pageParams["page"] = strconv.Itoa(page)
		pageParams["per_page"] = strconv.Itoa(perPage)

		result := c.Get(ctx, endpoint, pageParams)
		if result == nil {
			break
		}

		list, ok := result.([]interface{})
		if !ok {
			break
		}
		items = append(items, list...)

		if len(list) < perPage {
			break
		}
		page++
		c.sleep(c.interPageDelay)
	}

	return items
}
