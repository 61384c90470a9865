// Giai đoạn 3: dựng quan hệ cộng tác giữa các user từ lịch sử commit của
// top repo. Hai user có cạnh cộng tác khi cùng đóng góp vào ít nhất một
// repo; trọng số cạnh là số repo chung.

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

type CollabCrawler struct {
	deps           *Deps
	collabProducer *kafkapkg.Producer
}

// commitAuthor là một tác giả commit trong một repo, gom từ commit history.
type commitAuthor struct {
	UserID      string `json:"user_id"`
	Login       string `json:"login"`
	CommitCount int    `json:"commit_count"`
}

func NewCollabCrawler(deps *Deps) (*CollabCrawler, error) {
	return &CollabCrawler{
		deps:           deps,
		collabProducer: kafkapkg.NewProducer(deps.Config, deps.Logger, deps.Config.Kafka.Producer.TopicCollab),
	}, nil
}

func (c *CollabCrawler) Crawl() bool {
	ctx := context.Background()
	startTime := time.Now()
	c.deps.Logger.Info(ctx, "===== Phase 3: collaborations =====")

	var repos []map[string]interface{}
	if !c.deps.Checkpoint.GetSlot("union_repos", &repos) || len(repos) == 0 {
		c.deps.Logger.Error(ctx, "No repos in checkpoint. Run the repos stage first")
		return false
	}

	// userID -> repoID -> số commit, và login để tra ngược
	userRepoCommits := make(map[string]map[string]int)
	userLogins := make(map[string]string)
	repoNames := make(map[string]string)

	for i, repo := range repos {
		repoID := jsonutil.GetString(repo, []string{"id"}, "")
		nameWithOwner := jsonutil.GetString(repo, []string{"nameWithOwner"}, "")
		if repoID == "" || nameWithOwner == "" {
			continue
		}
		repoNames[repoID] = nameWithOwner
		c.deps.Logger.Info(ctx, "Processing commit history %d/%d: %s", i+1, len(repos), nameWithOwner)

		for _, author := range c.commitAuthors(ctx, repoID, nameWithOwner) {
			if author.UserID == "" {
				continue
			}
			if userRepoCommits[author.UserID] == nil {
				userRepoCommits[author.UserID] = make(map[string]int)
			}
			userRepoCommits[author.UserID][repoID] = author.CommitCount
			userLogins[author.UserID] = author.Login
		}
	}

	contributions := c.saveContributions(ctx, userRepoCommits, userLogins, repoNames)
	edges := c.saveEdges(ctx, userRepoCommits, userLogins)

	if err := c.collabProducer.Close(); err != nil {
		c.deps.Logger.Error(ctx, "Error closing collab producer: %v", err)
	}

	c.deps.Logger.Info(ctx, "==== KẾT QUẢ PHASE 3 ====")
	c.deps.Logger.Info(ctx, "Tổng thời gian thực hiện: %v", time.Since(startTime))
	c.deps.Logger.Info(ctx, "Contributions: %d, collaboration edges: %d", contributions, edges)
	return true
}

// commitAuthors gom tác giả commit trên default branch của một repo, giới
// hạn số trang theo cấu hình. Kết quả cache trong checkpoint slot.
func (c *CollabCrawler) commitAuthors(ctx context.Context, repoID, nameWithOwner string) []commitAuthor {
	slotName := "commit_authors_" + repoID
	var cached []commitAuthor
	if c.deps.Checkpoint.GetSlot(slotName, &cached) {
		c.deps.Logger.Debug(ctx, "Loaded %d commit authors for %s from checkpoint", len(cached), nameWithOwner)
		return cached
	}

	owner, name := splitNameWithOwner(nameWithOwner)
	if owner == "" {
		return nil
	}

	variables := map[string]interface{}{
		"owner": owner,
		"name":  name,
		"first": 100,
	}
	pageInfoPath := []string{"repository", "defaultBranchRef", "target", "history"}
	pages, aborted := c.deps.Graphql.Paginate(ctx, githubapi.RepoCommitsQuery, variables, pageInfoPath, c.deps.Config.Crawl.MaxCommitPages)
	if aborted {
		c.deps.Logger.Warn(ctx, "Commit history for %s aborted early with %d pages", nameWithOwner, len(pages))
	}

	counts := make(map[string]*commitAuthor)
	for _, page := range pages {
		nodes := jsonutil.GetSlice(page, []string{"data", "repository", "defaultBranchRef", "target", "history", "nodes"})
		for _, node := range nodes {
			userID := jsonutil.GetString(node, []string{"author", "user", "id"}, "")
			if userID == "" {
				// Commit không gắn với tài khoản GitHub (email lạ, bot cũ)
				continue
			}
			if counts[userID] == nil {
				counts[userID] = &commitAuthor{
					UserID: userID,
					Login:  jsonutil.GetString(node, []string{"author", "user", "login"}, ""),
				}
			}
			counts[userID].CommitCount++
		}
	}

	authors := make([]commitAuthor, 0, len(counts))
	for _, a := range counts {
		authors = append(authors, *a)
	}

	// Không cache kết quả của lần phân trang bị cắt ngang để lần sau thử lại
	if !aborted {
		c.deps.Checkpoint.SetSlot(slotName, authors)
	}
	c.deps.Logger.Info(ctx, "Found %d commit authors in %s", len(authors), nameWithOwner)
	return authors
}

// saveContributions ghi mức đóng góp của từng user vào từng repo, kèm số
// issue và PR lấy qua GraphQL với fallback REST.
func (c *CollabCrawler) saveContributions(ctx context.Context, userRepoCommits map[string]map[string]int, userLogins, repoNames map[string]string) int {
	writer, err := csvout.NewWriter(filepath.Join(c.deps.Config.Storage.CsvDir, "user_repo_contributions.csv"), []string{
		"user_id", "login", "repo_id", "repo_name",
		"commit_count", "issue_count", "pr_count",
	})
	if err != nil {
		c.deps.Logger.Error(ctx, "Cannot open user_repo_contributions.csv: %v", err)
		return 0
	}

	saved := 0
	for userID, repoCommits := range userRepoCommits {
		login := userLogins[userID]
		for repoID, commits := range repoCommits {
			nameWithOwner := repoNames[repoID]
			issues, prs := c.issueAndPrCounts(ctx, nameWithOwner, login)
			row := map[string]interface{}{
				"user_id":      userID,
				"login":        login,
				"repo_id":      repoID,
				"repo_name":    nameWithOwner,
				"commit_count": commits,
				"issue_count":  issues,
				"pr_count":     prs,
			}
			if err := writer.WriteRow(row); err != nil {
				c.deps.Logger.Error(ctx, "Error saving contribution %s -> %s: %v", login, nameWithOwner, err)
				continue
			}
			saved++
		}
	}
	return saved
}

// issueAndPrCounts đếm issue user đã mở trong repo qua GraphQL; khi GraphQL
// không trả được thì fallback đếm qua REST issues endpoint.
func (c *CollabCrawler) issueAndPrCounts(ctx context.Context, nameWithOwner, login string) (int, int) {
	owner, name := splitNameWithOwner(nameWithOwner)
	if owner == "" || login == "" {
		return 0, 0
	}

	result := c.deps.Graphql.Execute(ctx, githubapi.UserRepoContributionsQuery, map[string]interface{}{
		"owner": owner,
		"name":  name,
		"login": login,
	})
	if repository := jsonutil.GetMap(result, []string{"data", "repository"}); repository != nil {
		return jsonutil.GetInt(repository, []string{"issues", "totalCount"}, 0),
			jsonutil.GetInt(repository, []string{"pullRequests", "totalCount"}, 0)
	}

	rest := c.deps.Rest.Get(ctx, fmt.Sprintf("repos/%s/%s/issues", owner, name), map[string]string{
		"creator":  login,
		"state":    "all",
		"per_page": strconv.Itoa(100),
	})
	if list, ok := rest.([]interface{}); ok {
		return len(list), 0
	}
	return 0, 0
}

// pairStat gom thống kê của một cặp user trên các repo chung của họ.
type pairStat struct {
	commonRepos int
	commitsA    int
	commitsB    int
}

// computeEdges dựng thống kê theo cặp từ ma trận user-repo: mỗi cặp user
// cùng xuất hiện trong ít nhất một repo sinh đúng một entry, key là cặp id
// đã sắp thứ tự.
func computeEdges(userRepoCommits map[string]map[string]int) map[[2]string]*pairStat {
	// repoID -> danh sách userID để duyệt theo cặp trong từng repo
	repoUsers := make(map[string][]string)
	for userID, repoCommits := range userRepoCommits {
		for repoID := range repoCommits {
			repoUsers[repoID] = append(repoUsers[repoID], userID)
		}
	}

	pairs := make(map[[2]string]*pairStat)
	for repoID, users := range repoUsers {
		for i := 0; i < len(users); i++ {
			for j := i + 1; j < len(users); j++ {
				a, b := sortPair(users[i], users[j])
				key := [2]string{a, b}
				if pairs[key] == nil {
					pairs[key] = &pairStat{}
				}
				pairs[key].commonRepos++
				pairs[key].commitsA += userRepoCommits[a][repoID]
				pairs[key].commitsB += userRepoCommits[b][repoID]
			}
		}
	}
	return pairs
}

// saveEdges ghi các cạnh cộng tác ra CSV và publish lên Kafka, trọng số
// cạnh là số repo chung.
func (c *CollabCrawler) saveEdges(ctx context.Context, userRepoCommits map[string]map[string]int, userLogins map[string]string) int {
	writer, err := csvout.NewWriter(filepath.Join(c.deps.Config.Storage.CsvDir, "collaboration_edges.csv"), []string{
		"user_a", "user_b", "login_a", "login_b",
		"common_repo_count", "commit_count_a", "commit_count_b", "weight",
	})
	if err != nil {
		c.deps.Logger.Error(ctx, "Cannot open collaboration_edges.csv: %v", err)
		return 0
	}

	pairs := computeEdges(userRepoCommits)

	saved := 0
	for key, stat := range pairs {
		row := map[string]interface{}{
			"user_a":            key[0],
			"user_b":            key[1],
			"login_a":           userLogins[key[0]],
			"login_b":           userLogins[key[1]],
			"common_repo_count": stat.commonRepos,
			"commit_count_a":    stat.commitsA,
			"commit_count_b":    stat.commitsB,
			"weight":            stat.commonRepos,
		}
		if err := writer.WriteRow(row); err != nil {
			c.deps.Logger.Error(ctx, "Error saving collaboration edge %s-%s: %v", key[0], key[1], err)
			continue
		}

		msg := model.CollabEdgeMessage{
			UserA:           key[0],
			UserB:           key[1],
			CommonRepoCount: stat.commonRepos,
			CommitCountA:    stat.commitsA,
			CommitCountB:    stat.commitsB,
			Weight:          stat.commonRepos,
		}
		if err := c.collabProducer.Publish(ctx, "collab", msg); err != nil {
			c.deps.Logger.Error(ctx, "Failed to publish collaboration edge to kafka: %v", err)
		}
		saved++
	}
	return saved
}
