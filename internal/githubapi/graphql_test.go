package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thep200/github-graph-crawler/cfg"
	"github.com/thep200/github-graph-crawler/pkg/log"
)

const testQuery = `query { viewer { login } }`

func newTestCaller(t *testing.T, url string, keys ...string) (*Caller, *[]time.Duration) {
	t.Helper()
	logger, err := log.NewCslLogger()
	require.NoError(t, err)

	config := &cfg.Config{}
	config.GithubApi.GraphqlUrl = url
	config.GithubApi.RestUrl = url
	config.GithubApi.RateLimitThreshold = 100
	config.GithubApi.MaxRetries = 5
	config.GithubApi.RequestsPerSecond = 1000
	config.GithubApi.LightTimeoutSec = 2
	config.GithubApi.HeavyTimeoutSec = 2

	pool, err := NewKeyPool(logger, keys)
	require.NoError(t, err)
	pool.pause = 0

	caller, err := NewCaller(logger, config, pool)
	require.NoError(t, err)

	sleeps := &[]time.Duration{}
	var mu sync.Mutex
	caller.sleep = func(d time.Duration) {
		mu.Lock()
		*sleeps = append(*sleeps, d)
		mu.Unlock()
	}
	return caller, sleeps
}

// graphqlServer tách request quota check khỏi request query chính dựa vào
// nội dung query, quota trả về giá trị cấu hình sẵn.
type graphqlServer struct {
	*httptest.Server

	mu            sync.Mutex
	remaining     int
	snapshotCalls int
	mainCalls     int
	mainAuths     []string
	mainVars      []map[string]interface{}
	handler       func(call int, w http.ResponseWriter)
}

func newGraphqlServer(remaining int, handler func(call int, w http.ResponseWriter)) *graphqlServer {
	s := &graphqlServer{remaining: remaining, handler: handler}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		query, _ := payload["query"].(string)

		s.mu.Lock()
		if strings.Contains(query, "rateLimit") {
			s.snapshotCalls++
			remaining := s.remaining
			s.mu.Unlock()
			fmt.Fprintf(w, `{"data":{"rateLimit":{"limit":5000,"remaining":%d,"resetAt":"2026-08-30T12:00:00Z"}}}`, remaining)
			return
		}
		s.mainCalls++
		call := s.mainCalls
		s.mainAuths = append(s.mainAuths, r.Header.Get("Authorization"))
		vars, _ := payload["variables"].(map[string]interface{})
		s.mainVars = append(s.mainVars, vars)
		s.mu.Unlock()

		s.handler(call, w)
	}))
	return s
}

func (s *graphqlServer) stats() (snapshots, mains int, auths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotCalls, s.mainCalls, append([]string(nil), s.mainAuths...)
}

func TestExecuteSuccess(t *testing.T) {
	server := newGraphqlServer(5000, func(call int, w http.ResponseWriter) {
		fmt.Fprint(w, `{"data":{"viewer":{"login":"octocat"}}}`)
	})
	defer server.Close()

	caller, _ := newTestCaller(t, server.URL, "key-a")
	result := caller.Execute(context.Background(), testQuery, nil)
	require.NotNil(t, result)
	require.Equal(t, "octocat", result["data"].(map[string]interface{})["viewer"].(map[string]interface{})["login"])

	snapshots, mains, _ := server.stats()
	require.Equal(t, 1, snapshots)
	require.Equal(t, 1, mains)
}

func TestExecuteRotatesOnLowQuota(t *testing.T) {
	server := newGraphqlServer(50, func(call int, w http.ResponseWriter) {
		fmt.Fprint(w, `{"data":{"ok":true}}`)
	})
	defer server.Close()

	caller, _ := newTestCaller(t, server.URL, "key-a", "key-b")
	result := caller.Execute(context.Background(), testQuery, nil)
	require.NotNil(t, result)

	// Quota chỉ được soi đúng một lần cho cả lượt Execute, và query chính
	// phải chạy trên key đã xoay sang
	snapshots, mains, auths := server.stats()
	require.Equal(t, 1, snapshots)
	require.Equal(t, 1, mains)
	require.Equal(t, "Bearer key-b", auths[0])
}

func TestExecuteLowQuotaSingleKeyWaits(t *testing.T) {
	server := newGraphqlServer(50, func(call int, w http.ResponseWriter) {
		fmt.Fprint(w, `{"data":{"ok":true}}`)
	})
	defer server.Close()

	caller, sleeps := newTestCaller(t, server.URL, "only-key")
	result := caller.Execute(context.Background(), testQuery, nil)
	require.NotNil(t, result)

	// Không có key để xoay: đợi theo lớp quota rồi vẫn gọi tiếp
	require.NotEmpty(t, *sleeps)
	require.Equal(t, backoffDelay(FailureQuotaExhausted, 0), (*sleeps)[0])
}

func TestExecutePartialForbiddenReturnsData(t *testing.T) {
	server := newGraphqlServer(5000, func(call int, w http.ResponseWriter) {
		fmt.Fprint(w, `{"data":{"repository":{"id":"R_1"}},"errors":[{"type":"FORBIDDEN","message":"Resource not accessible"}]}`)
	})
	defer server.Close()

	caller, _ := newTestCaller(t, server.URL, "key-a")
	result := caller.Execute(context.Background(), testQuery, nil)
	require.NotNil(t, result)
	require.Contains(t, result, "data")

	// Lỗi permission là kết quả chung cuộc, không được retry
	_, mains, _ := server.stats()
	require.Equal(t, 1, mains)
}

func TestExecutePartialForbiddenWithoutData(t *testing.T) {
	server := newGraphqlServer(5000, func(call int, w http.ResponseWriter) {
		fmt.Fprint(w, `{"errors":[{"type":"FORBIDDEN","message":"Resource not accessible"}]}`)
	})
	defer server.Close()

	caller, _ := newTestCaller(t, server.URL, "key-a")
	result := caller.Execute(context.Background(), testQuery, nil)
	require.Nil(t, result)

	_, mains, _ := server.stats()
	require.Equal(t, 1, mains)
}

func TestExecuteRateLimitErrorsRotate(t *testing.T) {
	server := newGraphqlServer(5000, func(call int, w http.ResponseWriter) {
		if call == 1 {
			fmt.Fprint(w, `{"errors":[{"message":"API rate limit exceeded"}]}`)
			return
		}
		fmt.Fprint(w, `{"data":{"ok":true}}`)
	})
	defer server.Close()

	caller, _ := newTestCaller(t, server.URL, "key-a", "key-b")
	result := caller.Execute(context.Background(), testQuery, nil)
	require.NotNil(t, result)

	_, mains, auths := server.stats()
	require.Equal(t, 2, mains)
	require.Equal(t, "Bearer key-a", auths[0])
	require.Equal(t, "Bearer key-b", auths[1])
}

func TestExecuteUnauthorizedRotates(t *testing.T) {
	server := newGraphqlServer(5000, func(call int, w http.ResponseWriter) {
		if call == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"data":{"ok":true}}`)
	})
	defer server.Close()

	caller, _ := newTestCaller(t, server.URL, "key-a", "key-b")
	result := caller.Execute(context.Background(), testQuery, nil)
	require.NotNil(t, result)

	_, mains, auths := server.stats()
	require.Equal(t, 2, mains)
	require.Equal(t, "Bearer key-b", auths[1])
}

func TestExecuteUnauthorizedSingleKeyGivesUp(t *testing.T) {
	server := newGraphqlServer(5000, func(call int, w http.ResponseWriter) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer server.Close()

	caller, _ := newTestCaller(t, server.URL, "only-key")
	result := caller.Execute(context.Background(), testQuery, nil)
	require.Nil(t, result)

	// Key duy nhất mà 401 thì retry thêm cũng vô ích
	_, mains, _ := server.stats()
	require.Equal(t, 1, mains)
}

func TestExecuteServerErrorRetriesThenSucceeds(t *testing.T) {
	server := newGraphqlServer(5000, func(call int, w http.ResponseWriter) {
		if call <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"data":{"ok":true}}`)
	})
	defer server.Close()

	caller, sleeps := newTestCaller(t, server.URL, "key-a")
	result := caller.Execute(context.Background(), testQuery, nil)
	require.NotNil(t, result)

	_, mains, _ := server.stats()
	require.Equal(t, 3, mains)
	require.Len(t, *sleeps, 2)
}

func TestExecuteExhaustsRetries(t *testing.T) {
	server := newGraphqlServer(5000, func(call int, w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer server.Close()

	caller, _ := newTestCaller(t, server.URL, "key-a")
	result := caller.Execute(context.Background(), testQuery, nil)
	require.Nil(t, result)

	_, mains, _ := server.stats()
	require.Equal(t, 5, mains)
}

func TestExecuteTransportErrorReturnsNil(t *testing.T) {
	server := newGraphqlServer(5000, func(call int, w http.ResponseWriter) {})
	server.Close()

	// Quota check cũng fail nên có thêm một lần đợi quota trước 5 lần đợi
	// lỗi mạng
	caller, sleeps := newTestCaller(t, server.URL, "key-a")
	result := caller.Execute(context.Background(), testQuery, nil)
	require.Nil(t, result)
	require.GreaterOrEqual(t, len(*sleeps), 5)
}
