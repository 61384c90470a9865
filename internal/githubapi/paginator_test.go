package githubapi

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thep200/github-graph-crawler/pkg/jsonutil"
)

func pageBody(value string, hasNext bool, cursor string) string {
	return fmt.Sprintf(`{"data":{"items":{"pageInfo":{"hasNextPage":%t,"endCursor":"%s"},"nodes":["%s"]}}}`,
		hasNext, cursor, value)
}

func TestPaginateFollowsCursor(t *testing.T) {
	server := newGraphqlServer(5000, func(call int, w http.ResponseWriter) {
		if call == 1 {
			fmt.Fprint(w, pageBody("first", true, "c1"))
			return
		}
		fmt.Fprint(w, pageBody("second", false, "c2"))
	})
	defer server.Close()

	caller, _ := newTestCaller(t, server.URL, "key-a")
	pages, aborted := caller.Paginate(context.Background(), testQuery, map[string]interface{}{"first": 10}, []string{"items"}, 0)
	require.False(t, aborted)
	require.Len(t, pages, 2)

	nodes := jsonutil.GetSlice(pages[0], []string{"data", "items", "nodes"})
	require.Equal(t, []interface{}{"first"}, nodes)

	// Trang sau phải mang cursor của trang trước
	server.mu.Lock()
	defer server.mu.Unlock()
	require.Nil(t, server.mainVars[0]["after"])
	require.Equal(t, "c1", server.mainVars[1]["after"])
}

func TestPaginateRespectsMaxPages(t *testing.T) {
	server := newGraphqlServer(5000, func(call int, w http.ResponseWriter) {
		fmt.Fprint(w, pageBody("x", true, fmt.Sprintf("c%d", call)))
	})
	defer server.Close()

	caller, _ := newTestCaller(t, server.URL, "key-a")
	pages, aborted := caller.Paginate(context.Background(), testQuery, nil, []string{"items"}, 3)
	require.False(t, aborted)
	require.Len(t, pages, 3)
}

func TestPaginateBreakerAborts(t *testing.T) {
	// Response 200 nhưng không có data: paginator coi là fetch hỏng
	server := newGraphqlServer(5000, func(call int, w http.ResponseWriter) {
		fmt.Fprint(w, `{}`)
	})
	defer server.Close()

	caller, _ := newTestCaller(t, server.URL, "key-a")
	pages, aborted := caller.Paginate(context.Background(), testQuery, nil, []string{"items"}, 0)
	require.True(t, aborted)
	require.Empty(t, pages)
}

func TestPaginateBreakerKeepsEarlierPages(t *testing.T) {
	server := newGraphqlServer(5000, func(call int, w http.ResponseWriter) {
		if call <= 2 {
			fmt.Fprint(w, pageBody("ok", true, fmt.Sprintf("c%d", call)))
			return
		}
		fmt.Fprint(w, `{}`)
	})
	defer server.Close()

	caller, _ := newTestCaller(t, server.URL, "key-a")
	pages, aborted := caller.Paginate(context.Background(), testQuery, nil, []string{"items"}, 0)
	require.True(t, aborted)
	require.Len(t, pages, 2)
}

func TestPaginateStopsWithoutPageInfo(t *testing.T) {
	server := newGraphqlServer(5000, func(call int, w http.ResponseWriter) {
		fmt.Fprint(w, `{"data":{"items":{"nodes":["only"]}}}`)
	})
	defer server.Close()

	caller, _ := newTestCaller(t, server.URL, "key-a")
	pages, aborted := caller.Paginate(context.Background(), testQuery, nil, []string{"items"}, 0)
	require.False(t, aborted)
	require.Len(t, pages, 1)
}

func TestPaginateDoesNotMutateCallerVariables(t *testing.T) {
	server := newGraphqlServer(5000, func(call int, w http.ResponseWriter) {
		if call == 1 {
			fmt.Fprint(w, pageBody("a", true, "c1"))
			return
		}
		fmt.Fprint(w, pageBody("b", false, ""))
	})
	defer server.Close()

	caller, _ := newTestCaller(t, server.URL, "key-a")
	variables := map[string]interface{}{"first": 10}
	_, _ = caller.Paginate(context.Background(), testQuery, variables, []string{"items"}, 0)
	require.NotContains(t, variables, "after")
}
