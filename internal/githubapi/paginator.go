package githubapi

import (
	"context"
	"time"

	"github.com/thep200/github-graph-crawler/pkg/jsonutil"
)

// maxConsecutiveFailures là ngưỡng circuit breaker của paginator: quá ngưỡng
// thì dừng phân trang và trả về những trang đã gom được.
const maxConsecutiveFailures = 3

// Paginate chạy query lặp theo cursor protocol (pageInfo.hasNextPage /
// endCursor), gom từng trang theo thứ tự. pageInfoPath là đường dẫn trong
// data dẫn tới node chứa pageInfo. maxPages <= 0 nghĩa là không giới hạn.
//
// Trả về các trang đã gom và cờ aborted: aborted=true nghĩa là chuỗi trang
// có thể chưa đầy đủ do quá nhiều lần fetch hỏng liên tiếp — caller không
// được giả định đủ trang nếu không kiểm tra cờ này.
func (c *Caller) Paginate(ctx context.Context, query string, variables map[string]interface{}, pageInfoPath []string, maxPages int) ([]map[string]interface{}, bool) {
	vars := make(map[string]interface{}, len(variables)+1)
	for k, v := range variables {
		vars[k] = v
	}

	var pages []map[string]interface{}
	hasNext := true
	var cursor string
	pageCount := 0
	consecutiveFailures := 0

	for hasNext && (maxPages <= 0 || pageCount < maxPages) {
		if cursor != "" {
			vars["after"] = cursor
		}

		result := c.Execute(ctx, query, vars)

		if result == nil || result["data"] == nil {
			consecutiveFailures++
			if consecutiveFailures >= maxConsecutiveFailures {
				c.Logger.Warn(ctx, "Too many consecutive failures. Stopping pagination with %d pages", len(pages))
				return pages, true
			}
			wait := time.Duration(1<<uint(consecutiveFailures)) * time.Second
			c.Logger.Warn(ctx, "Pagination failed. Retrying in %v...", wait)
			c.sleep(wait)
			continue
		}

		consecutiveFailures = 0
		pages = append(pages, result)
		pageCount++

		pageInfo := jsonutil.GetMap(result, append(append([]string{"data"}, pageInfoPath...), "pageInfo"))
		if pageInfo == nil {
			break
		}
		hasNext = jsonutil.GetBool(pageInfo, []string{"hasNextPage"}, false)
		cursor = jsonutil.GetString(pageInfo, []string{"endCursor"}, "")
		if cursor == "" {
			hasNext = false
		}

		c.Logger.Debug(ctx, "Fetched page %d", pageCount)

		// Giãn cách giữa các trang để chặn tốc độ request, độc lập với gate
		c.sleep(c.interPageDelay)
	}

	return pages, false
}
