// Phân loại lỗi cho tầng client GitHub API.
// Mỗi outcome của một request được xếp vào một lớp lỗi, lớp lỗi quyết định
// chính sách retry và trần backoff tương ứng.

package githubapi

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"
)

type FailureClass string

const (
	FailureAuthentication  FailureClass = "authentication"
	FailureQuotaExhausted  FailureClass = "quota_exhausted"
	FailureExpectedPartial FailureClass = "expected_partial"
	FailureNetwork         FailureClass = "transient_network"
	FailureServer          FailureClass = "transient_server"
	FailureNotFound        FailureClass = "permanent_not_found"
	FailureClient          FailureClass = "permanent_client"
	FailureUnclassified    FailureClass = "unclassified"
)

const backoffBase = 2.0

// backoffCap trả về trần thời gian chờ theo lớp lỗi: lỗi transient trần thấp,
// hết quota trần cao vì phải đợi provider reset.
func backoffCap(class FailureClass) time.Duration {
	switch class {
	case FailureNetwork:
		return 30 * time.Second
	case FailureServer:
		return 60 * time.Second
	case FailureQuotaExhausted:
		return 300 * time.Second
	default:
		return 60 * time.Second
	}
}

// backoffDelay tính thời gian chờ min(cap, base^attempt), không jitter.
func backoffDelay(class FailureClass, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	delay := time.Duration(math.Pow(backoffBase, float64(attempt))) * time.Second
	if limit := backoffCap(class); delay > limit || delay < 0 {
		return limit
	}
	return delay
}

// backoffDelayJitter thêm jitter 0..10s cho lỗi server, vẫn không vượt trần.
func backoffDelayJitter(class FailureClass, attempt int) time.Duration {
	delay := backoffDelay(class, attempt)
	if class != FailureServer {
		return delay
	}
	delay += time.Duration(rand.Intn(11)) * time.Second
	if limit := backoffCap(class); delay > limit {
		return limit
	}
	return delay
}

// classifyStatus xếp lớp lỗi theo HTTP status code. 403 không xếp ở đây vì
// cần đọc body để phân biệt rate limit với permission denied.
func classifyStatus(status int) FailureClass {
	switch {
	case status == 401:
		return FailureAuthentication
	case status == 404:
		return FailureNotFound
	case status >= 500:
		return FailureServer
	case status >= 400:
		return FailureClient
	default:
		return FailureUnclassified
	}
}

// classifyTransport xếp lỗi tầng vận chuyển: timeout và lỗi kết nối đều là
// transient network.
func classifyTransport(err error) FailureClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureNetwork
	}
	return FailureUnclassified
}

// GraphQL trả về lỗi mức phần tử trong mảng errors; các hàm dưới đây soi
// type/message để nhận diện từng nhóm.

// hasExpectedErrors nhận diện lỗi authorization/visibility (FORBIDDEN hoặc
// permission) — loại lỗi này đi kèm dữ liệu dùng được và không retry.
func hasExpectedErrors(errs []interface{}) bool {
	for _, e := range errs {
		m, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		if t, ok := m["type"].(string); ok && strings.Contains(t, "FORBIDDEN") {
			return true
		}
		if msg, ok := m["message"].(string); ok && strings.Contains(strings.ToLower(msg), "permission") {
			return true
		}
	}
	return false
}

func hasRateLimitErrors(errs []interface{}) bool {
	return errsContain(errs, "rate limit")
}

func hasTimeoutErrors(errs []interface{}) bool {
	return errsContain(errs, "timeout")
}

func errsContain(errs []interface{}, substr string) bool {
	for _, e := range errs {
		m, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		if msg, ok := m["message"].(string); ok && strings.Contains(strings.ToLower(msg), substr) {
			return true
		}
	}
	return false
}
