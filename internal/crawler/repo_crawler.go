// Giai đoạn 1: thu thập top repository theo topic (xếp theo stars và forks),
// lọc theo số contributor tối thiểu, lưu CSV + gửi Kafka.

package crawler

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/thep200/github-graph-crawler/internal/githubapi"
	"github.com/thep200/github-graph-crawler/internal/model"
	"github.com/thep200/github-graph-crawler/pkg/csvout"
	"github.com/thep200/github-graph-crawler/pkg/jsonutil"
	kafkapkg "github.com/thep200/github-graph-crawler/pkg/kafka"
)

type RepoCrawler struct {
	deps         *Deps
	repoProducer *kafkapkg.Producer
}

func NewRepoCrawler(deps *Deps) (*RepoCrawler, error) {
	return &RepoCrawler{
		deps:         deps,
		repoProducer: kafkapkg.NewProducer(deps.Config, deps.Logger, deps.Config.Kafka.Producer.TopicRepo),
	}, nil
}

func (c *RepoCrawler) Crawl() bool {
	ctx := context.Background()
	startTime := time.Now()
	c.deps.Logger.Info(ctx, "===== Phase 1: repositories =====")

	union := c.unionRepos(ctx)
	if len(union) == 0 {
		c.deps.Logger.Error(ctx, "No repositories collected for topic %s", c.deps.Config.Crawl.Topic)
		return false
	}

	// Gom contributor cho từng repo và tổng hợp danh sách login cho phase 2
	loginSet := make(map[string]bool)
	var logins []string
	c.deps.Checkpoint.GetSlot("contributor_logins", &logins)
	for _, l := range logins {
		loginSet[l] = true
	}

	for _, repo := range union {
		contributors := c.repoContributors(ctx, repo)
		for _, contrib := range contributors {
			if !loginSet[contrib.Login] {
				loginSet[contrib.Login] = true
				logins = append(logins, contrib.Login)
			}
		}
	}
	c.deps.Checkpoint.SetSlot("contributor_logins", logins)

	saved := c.saveRepos(ctx, union)

	if err := c.repoProducer.Close(); err != nil {
		c.deps.Logger.Error(ctx, "Error closing repo producer: %v", err)
	}

	c.deps.Logger.Info(ctx, "==== KẾT QUẢ PHASE 1 ====")
	c.deps.Logger.Info(ctx, "Tổng thời gian thực hiện: %v", time.Since(startTime))
	c.deps.Logger.Info(ctx, "Số lượng repositories: %d, contributor logins: %d, rows mới: %d", len(union), len(logins), saved)
	return true
}

// unionRepos trả về hợp của top repo theo stars và forks, khử trùng lặp
// theo node ID. Kết quả cache trong checkpoint slot để lần chạy sau resume.
func (c *RepoCrawler) unionRepos(ctx context.Context) []map[string]interface{} {
	var cached []map[string]interface{}
	if c.deps.Checkpoint.GetSlot("union_repos", &cached) && len(cached) > 0 {
		c.deps.Logger.Info(ctx, "Loaded %d union repos from checkpoint", len(cached))
		return cached
	}

	starred := c.topRepos(ctx, "stars")
	forked := c.topRepos(ctx, "forks")

	seen := make(map[string]bool)
	union := make([]map[string]interface{}, 0, len(starred)+len(forked))
	for _, repo := range append(starred, forked...) {
		id := jsonutil.GetString(repo, []string{"id"}, "")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		union = append(union, repo)
	}

	c.deps.Logger.Info(ctx, "Total unique repos: %d", len(union))
	c.deps.Checkpoint.SetSlot("union_repos", union)
	return union
}

// topRepos tìm top repo theo một tiêu chí sắp xếp, lấy thêm chi tiết từng
// repo và lọc những repo có quá ít contributor.
func (c *RepoCrawler) topRepos(ctx context.Context, sortBy string) []map[string]interface{} {
	slotName := sortBy + "_repos_with_details"
	var cached []map[string]interface{}
	if c.deps.Checkpoint.GetSlot(slotName, &cached) && len(cached) > 0 {
		c.deps.Logger.Info(ctx, "Loaded %d %s repos from checkpoint", len(cached), sortBy)
		return cached
	}

	limit := c.deps.Config.Crawl.TopRepos
	if limit <= 0 {
		limit = 100
	}
	batchSize := 20
	maxPages := (limit + batchSize - 1) / batchSize

	c.deps.Logger.Info(ctx, "Fetching top %d repos sorted by %s", limit, sortBy)

	query := fmt.Sprintf("topic:%s sort:%s-desc is:public", c.deps.Config.Crawl.Topic, sortBy)
	variables := map[string]interface{}{
		"query": query,
		"first": batchSize,
	}

	pages, aborted := c.deps.Graphql.Paginate(ctx, githubapi.SearchReposQuery, variables, []string{"search"}, maxPages)
	if aborted {
		c.deps.Logger.Warn(ctx, "Repo search pagination aborted early with %d pages", len(pages))
	}

	var repos []map[string]interface{}
	for _, page := range pages {
		edges := jsonutil.GetSlice(page, []string{"data", "search", "edges"})
		for _, edge := range edges {
			node := jsonutil.GetMap(edge, []string{"node"})
			if node == nil || jsonutil.GetBool(node, []string{"isPrivate"}, true) {
				continue
			}
			repos = append(repos, node)
			if len(repos) >= limit {
				break
			}
		}
		if len(repos) >= limit {
			break
		}
	}

	// Chi tiết từng repo + probe số contributor qua REST
	detailed := make([]map[string]interface{}, 0, len(repos))
	for _, repo := range repos {
		owner, name := splitNameWithOwner(jsonutil.GetString(repo, []string{"nameWithOwner"}, ""))
		if owner == "" {
			continue
		}

		details := c.deps.Graphql.Execute(ctx, githubapi.RepoDetailsQuery, map[string]interface{}{
			"owner": owner,
			"name":  name,
		})
		if repository := jsonutil.GetMap(details, []string{"data", "repository"}); repository != nil {
			for k, v := range repository {
				repo[k] = v
			}
		}

		count := c.contributorProbe(ctx, owner, name)
		if count < c.deps.Config.Crawl.MinContributors {
			c.deps.Logger.Debug(ctx, "Skipping %s/%s - only %d contributors", owner, name, count)
			continue
		}
		repo["contributors_count"] = count
		detailed = append(detailed, repo)
	}

	c.deps.Logger.Info(ctx, "Found %d repos sorted by %s with >= %d contributors",
		len(detailed), sortBy, c.deps.Config.Crawl.MinContributors)
	c.deps.Checkpoint.SetSlot(slotName, detailed)
	return detailed
}

// contributorProbe đọc một trang contributor để ước lượng repo có đủ
// contributor hay không.
func (c *RepoCrawler) contributorProbe(ctx context.Context, owner, name string) int {
	result := c.deps.Rest.Get(ctx, fmt.Sprintf("repos/%s/%s/contributors", owner, name), map[string]string{
		"per_page": strconv.Itoa(c.deps.Config.Crawl.MinContributors + 1),
		"anon":     "false",
	})
	list, ok := result.([]interface{})
	if !ok {
		return 0
	}
	return len(list)
}

// repoContributors lấy toàn bộ contributor của một repo (lọc theo số commit
// tối thiểu), resolve node ID của user qua GraphQL với fallback REST.
func (c *RepoCrawler) repoContributors(ctx context.Context, repo map[string]interface{}) []ContributorSummary {
	repoID := jsonutil.GetString(repo, []string{"id"}, "")
	nameWithOwner := jsonutil.GetString(repo, []string{"nameWithOwner"}, "")
	owner, name := splitNameWithOwner(nameWithOwner)
	if repoID == "" || owner == "" {
		return nil
	}

	slotName := "contributors_" + repoID
	var cached []ContributorSummary
	if c.deps.Checkpoint.GetSlot(slotName, &cached) {
		c.deps.Logger.Debug(ctx, "Loaded %d contributors for %s from checkpoint", len(cached), nameWithOwner)
		return cached
	}

	c.deps.Logger.Info(ctx, "Getting contributors for %s", nameWithOwner)

	items := c.deps.Rest.GetPaged(ctx, fmt.Sprintf("repos/%s/%s/contributors", owner, name),
		map[string]string{"anon": "false"}, 100, 0)

	var contributors []ContributorSummary
	for _, item := range items {
		contrib, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		commits := jsonutil.GetInt(contrib, []string{"contributions"}, 0)
		if commits <= c.deps.Config.Crawl.MinCommits {
			continue
		}
		login := jsonutil.GetString(contrib, []string{"login"}, "")
		if login == "" {
			continue
		}

		summary := ContributorSummary{
			Login:       login,
			RepoID:      repoID,
			CommitCount: commits,
		}

		// Resolve node ID qua GraphQL, fallback về ID số của REST
		userResult := c.deps.Graphql.Execute(ctx, githubapi.UserLookupQuery, map[string]interface{}{"login": login})
		if user := jsonutil.GetMap(userResult, []string{"data", "user"}); user != nil {
			summary.UserID = jsonutil.GetString(user, []string{"id"}, "")
			summary.Name = jsonutil.GetString(user, []string{"name"}, "")
		} else {
			summary.UserID = strconv.Itoa(jsonutil.GetInt(contrib, []string{"id"}, 0))
		}

		contributors = append(contributors, summary)
	}

	if len(contributors) > 0 {
		c.deps.Checkpoint.SetSlot(slotName, contributors)
	}
	c.deps.Logger.Info(ctx, "Found %d contributors with > %d commits", len(contributors), c.deps.Config.Crawl.MinCommits)
	return contributors
}

// saveRepos ghi các repo chưa xử lý vào repos.csv, publish message Kafka và
// đánh dấu processed. Repo hỏng CSV thì không đánh dấu để lần sau thử lại.
func (c *RepoCrawler) saveRepos(ctx context.Context, repos []map[string]interface{}) int {
	headers := []string{
		"repo_id", "name", "owner_id", "owner_type", "description",
		"language", "stars", "forks", "topics", "watchers",
		"issues_count", "pr_count", "commits_count",
		"created_at", "updated_at", "pushed_at", "owner",
	}
	writer, err := csvout.NewWriter(filepath.Join(c.deps.Config.Storage.CsvDir, "repos.csv"), headers)
	if err != nil {
		c.deps.Logger.Error(ctx, "Cannot open repos.csv: %v", err)
		return 0
	}

	saved := 0
	for _, repo := range repos {
		repoID := jsonutil.GetString(repo, []string{"id"}, "")
		if repoID == "" || c.deps.Checkpoint.IsRepoProcessed(repoID) {
			continue
		}

		topics := extractTopics(repo)
		row := map[string]interface{}{
			"repo_id":       repoID,
			"name":          jsonutil.GetString(repo, []string{"name"}, ""),
			"owner_id":      jsonutil.GetString(repo, []string{"owner", "id"}, ""),
			"owner_type":    jsonutil.GetString(repo, []string{"owner", "__typename"}, "User"),
			"description":   jsonutil.GetString(repo, []string{"description"}, ""),
			"language":      jsonutil.GetString(repo, []string{"primaryLanguage", "name"}, ""),
			"stars":         jsonutil.GetInt(repo, []string{"stargazerCount"}, 0),
			"forks":         jsonutil.GetInt(repo, []string{"forkCount"}, 0),
			"topics":        topics,
			"watchers":      jsonutil.GetInt(repo, []string{"watchers", "totalCount"}, 0),
			"issues_count":  jsonutil.GetInt(repo, []string{"issues", "totalCount"}, 0),
			"pr_count":      jsonutil.GetInt(repo, []string{"pullRequests", "totalCount"}, 0),
			"commits_count": jsonutil.GetInt(repo, []string{"defaultBranchRef", "target", "history", "totalCount"}, 0),
			"created_at":    jsonutil.GetString(repo, []string{"createdAt"}, ""),
			"updated_at":    jsonutil.GetString(repo, []string{"updatedAt"}, ""),
			"pushed_at":     jsonutil.GetString(repo, []string{"pushedAt"}, ""),
			"owner":         jsonutil.GetString(repo, []string{"owner", "login"}, ""),
		}

		if err := writer.WriteRow(row); err != nil {
			c.deps.Logger.Error(ctx, "Error saving repo %s: %v", repoID, err)
			continue
		}

		msg := model.RepoMessage{
			NodeID:           repoID,
			Name:             jsonutil.GetString(repo, []string{"name"}, ""),
			Owner:            jsonutil.GetString(repo, []string{"owner", "login"}, ""),
			OwnerID:          jsonutil.GetString(repo, []string{"owner", "id"}, ""),
			OwnerType:        jsonutil.GetString(repo, []string{"owner", "__typename"}, "User"),
			Description:      jsonutil.GetString(repo, []string{"description"}, ""),
			Language:         jsonutil.GetString(repo, []string{"primaryLanguage", "name"}, ""),
			StarCount:        jsonutil.GetInt(repo, []string{"stargazerCount"}, 0),
			ForkCount:        jsonutil.GetInt(repo, []string{"forkCount"}, 0),
			WatchCount:       jsonutil.GetInt(repo, []string{"watchers", "totalCount"}, 0),
			IssueCount:       jsonutil.GetInt(repo, []string{"issues", "totalCount"}, 0),
			PullCount:        jsonutil.GetInt(repo, []string{"pullRequests", "totalCount"}, 0),
			CommitCount:      jsonutil.GetInt(repo, []string{"defaultBranchRef", "target", "history", "totalCount"}, 0),
			ContributorCount: jsonutil.GetInt(repo, []string{"contributors_count"}, 0),
			Topics:           topics,
		}
		if err := c.repoProducer.Publish(ctx, "repo", msg); err != nil {
			c.deps.Logger.Error(ctx, "Failed to publish repo %s to kafka: %v", repoID, err)
		}

		c.deps.Checkpoint.MarkRepoProcessed(repoID)
		saved++
	}

	return saved
}

// extractTopics gom tên topic thành chuỗi phân tách bằng dấu phẩy.
func extractTopics(repo map[string]interface{}) string {
	nodes := jsonutil.GetSlice(repo, []string{"repositoryTopics", "nodes"})
	topics := ""
	for _, node := range nodes {
		name := jsonutil.GetString(node, []string{"topic", "name"}, "")
		if name == "" {
			continue
		}
		if topics != "" {
			topics += ","
		}
		topics += name
	}
	return topics
}
