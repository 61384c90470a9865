// Giai đoạn 2: thu thập chi tiết các user đã đóng góp vào top repo, quan hệ
// follow, hoạt động đóng góp và sự kiện star. Ghi ra CSV + gửi Kafka.

package crawler

import (
	"context"
	"path/filepath"
	"time"

	"github.com/thep200/github-graph-crawler/internal/githubapi"
	"github.com/thep200/github-graph-crawler/internal/model"
	"github.com/thep200/github-graph-crawler/pkg/csvout"
	"github.com/thep200/github-graph-crawler/pkg/jsonutil"
	kafkapkg "github.com/thep200/github-graph-crawler/pkg/kafka"
)

type UserCrawler struct {
	deps         *Deps
	userProducer *kafkapkg.Producer

	userWriter     *csvout.Writer
	socialWriter   *csvout.Writer
	activityWriter *csvout.Writer
	starWriter     *csvout.Writer
}

func NewUserCrawler(deps *Deps) (*UserCrawler, error) {
	dir := deps.Config.Storage.CsvDir

	userWriter, err := csvout.NewWriter(filepath.Join(dir, "users.csv"), []string{
		"user_id", "login", "name", "bio", "company", "location",
		"email", "website", "public_repos", "public_gists",
		"followers_count", "following_count", "starred_count",
		"organizations", "created_at", "updated_at", "active_years",
	})
	if err != nil {
		return nil, err
	}

	socialWriter, err := csvout.NewWriter(filepath.Join(dir, "social_graph_edges.csv"), []string{
		"source_id", "source_login", "target_id", "target_login", "edge_type",
	})
	if err != nil {
		return nil, err
	}

	activityWriter, err := csvout.NewWriter(filepath.Join(dir, "activity.csv"), []string{
		"user_id", "login", "total_commits", "total_prs",
		"total_issues", "total_reviews", "total_contributions",
		"languages", "stars_received", "active_years",
	})
	if err != nil {
		return nil, err
	}

	starWriter, err := csvout.NewWriter(filepath.Join(dir, "star_events.csv"), []string{
		"user_id", "login", "repo_id", "repo_name", "starred_at",
	})
	if err != nil {
		return nil, err
	}

	return &UserCrawler{
		deps:           deps,
		userProducer:   kafkapkg.NewProducer(deps.Config, deps.Logger, deps.Config.Kafka.Producer.TopicUser),
		userWriter:     userWriter,
		socialWriter:   socialWriter,
		activityWriter: activityWriter,
		starWriter:     starWriter,
	}, nil
}

func (c *UserCrawler) Crawl() bool {
	ctx := context.Background()
	startTime := time.Now()
	c.deps.Logger.Info(ctx, "===== Phase 2: users =====")

	var logins []string
	if !c.deps.Checkpoint.GetSlot("contributor_logins", &logins) || len(logins) == 0 {
		c.deps.Logger.Error(ctx, "No contributor logins in checkpoint. Run the repos stage first")
		return false
	}

	processed := 0
	for i, login := range logins {
		if c.deps.Checkpoint.IsUserProcessed(login) {
			continue
		}
		c.deps.Logger.Info(ctx, "Processing user %d/%d: %s", i+1, len(logins), login)
		if c.crawlUser(ctx, login) {
			c.deps.Checkpoint.MarkUserProcessed(login)
			processed++
		}
	}

	if err := c.userProducer.Close(); err != nil {
		c.deps.Logger.Error(ctx, "Error closing user producer: %v", err)
	}

	c.deps.Logger.Info(ctx, "==== KẾT QUẢ PHASE 2 ====")
	c.deps.Logger.Info(ctx, "Tổng thời gian thực hiện: %v", time.Since(startTime))
	c.deps.Logger.Info(ctx, "Đã xử lý %d/%d user", processed, len(logins))
	return true
}

// crawlUser xử lý một user: chi tiết, quan hệ follow, hoạt động, star.
// User không tra được chi tiết không được đánh dấu processed, lần chạy sau
// sẽ thử lại.
func (c *UserCrawler) crawlUser(ctx context.Context, login string) bool {
	result := c.deps.Graphql.Execute(ctx, githubapi.UserDetailsQuery, map[string]interface{}{"login": login})
	user := jsonutil.GetMap(result, []string{"data", "user"})
	if user == nil {
		c.deps.Logger.Warn(ctx, "Cannot fetch details for user %s, skipping", login)
		return false
	}

	userID := jsonutil.GetString(user, []string{"id"}, "")
	if userID == "" {
		return false
	}

	c.saveUser(ctx, userID, login, user)
	c.saveActivity(ctx, userID, login, user)
	c.saveSocialEdges(ctx, userID, login)
	c.saveStarEvents(ctx, userID, login)
	return true
}

func (c *UserCrawler) saveUser(ctx context.Context, userID, login string, user map[string]interface{}) {
	orgs := ""
	for _, node := range jsonutil.GetSlice(user, []string{"organizations", "nodes"}) {
		orgLogin := jsonutil.GetString(node, []string{"login"}, "")
		if orgLogin == "" {
			continue
		}
		if orgs != "" {
			orgs += ","
		}
		orgs += orgLogin
	}

	createdAt := jsonutil.GetString(user, []string{"createdAt"}, "")
	row := map[string]interface{}{
		"user_id":         userID,
		"login":           login,
		"name":            jsonutil.GetString(user, []string{"name"}, ""),
		"bio":             jsonutil.GetString(user, []string{"bio"}, ""),
		"company":         jsonutil.GetString(user, []string{"company"}, ""),
		"location":        jsonutil.GetString(user, []string{"location"}, ""),
		"email":           jsonutil.GetString(user, []string{"email"}, ""),
		"website":         jsonutil.GetString(user, []string{"websiteUrl"}, ""),
		"public_repos":    jsonutil.GetInt(user, []string{"repositories", "totalCount"}, 0),
		"public_gists":    jsonutil.GetInt(user, []string{"gists", "totalCount"}, 0),
		"followers_count": jsonutil.GetInt(user, []string{"followers", "totalCount"}, 0),
		"following_count": jsonutil.GetInt(user, []string{"following", "totalCount"}, 0),
		"starred_count":   jsonutil.GetInt(user, []string{"starredRepositories", "totalCount"}, 0),
		"organizations":   orgs,
		"created_at":      parseDatetime(createdAt),
		"updated_at":      parseDatetime(jsonutil.GetString(user, []string{"updatedAt"}, "")),
		"active_years":    activeYears(createdAt),
	}
	if err := c.userWriter.WriteRow(row); err != nil {
		c.deps.Logger.Error(ctx, "Error saving user %s: %v", login, err)
		return
	}

	msg := model.UserMessage{
		NodeID:         userID,
		Login:          login,
		Name:           jsonutil.GetString(user, []string{"name"}, ""),
		Bio:            jsonutil.GetString(user, []string{"bio"}, ""),
		Company:        jsonutil.GetString(user, []string{"company"}, ""),
		Location:       jsonutil.GetString(user, []string{"location"}, ""),
		PublicRepos:    jsonutil.GetInt(user, []string{"repositories", "totalCount"}, 0),
		FollowerCount:  jsonutil.GetInt(user, []string{"followers", "totalCount"}, 0),
		FollowingCount: jsonutil.GetInt(user, []string{"following", "totalCount"}, 0),
		Organizations:  orgs,
	}
	if err := c.userProducer.Publish(ctx, "user", msg); err != nil {
		c.deps.Logger.Error(ctx, "Failed to publish user %s to kafka: %v", login, err)
	}
}

func (c *UserCrawler) saveActivity(ctx context.Context, userID, login string, user map[string]interface{}) {
	contributions := jsonutil.GetMap(user, []string{"contributionsCollection"})
	if contributions == nil {
		return
	}

	// Phân bố ngôn ngữ và tổng sao nhận được tính từ trang repo public
	// đầu tiên của user
	languages := make(map[string]interface{})
	starsReceived := 0
	for _, node := range jsonutil.GetSlice(user, []string{"repositories", "nodes"}) {
		starsReceived += jsonutil.GetInt(node, []string{"stargazerCount"}, 0)
		lang := jsonutil.GetString(node, []string{"primaryLanguage", "name"}, "")
		if lang == "" {
			continue
		}
		count, _ := languages[lang].(int)
		languages[lang] = count + 1
	}

	row := map[string]interface{}{
		"user_id":             userID,
		"login":               login,
		"total_commits":       jsonutil.GetInt(contributions, []string{"totalCommitContributions"}, 0),
		"total_prs":           jsonutil.GetInt(contributions, []string{"totalPullRequestContributions"}, 0),
		"total_issues":        jsonutil.GetInt(contributions, []string{"totalIssueContributions"}, 0),
		"total_reviews":       jsonutil.GetInt(contributions, []string{"totalPullRequestReviewContributions"}, 0),
		"total_contributions": jsonutil.GetInt(contributions, []string{"contributionCalendar", "totalContributions"}, 0),
		"languages":           languages,
		"stars_received":      starsReceived,
		"active_years":        activeYears(jsonutil.GetString(user, []string{"createdAt"}, "")),
	}
	if err := c.activityWriter.WriteRow(row); err != nil {
		c.deps.Logger.Error(ctx, "Error saving activity for %s: %v", login, err)
	}
}

// saveSocialEdges ghi cạnh follow theo hai chiều: follower -> user và
// user -> following.
func (c *UserCrawler) saveSocialEdges(ctx context.Context, userID, login string) {
	variables := map[string]interface{}{"login": login, "first": 100}

	pages, aborted := c.deps.Graphql.Paginate(ctx, githubapi.UserFollowersQuery, variables, []string{"user", "followers"}, 0)
	if aborted {
		c.deps.Logger.Warn(ctx, "Follower pagination for %s aborted early", login)
	}
	for _, page := range pages {
		for _, node := range jsonutil.GetSlice(page, []string{"data", "user", "followers", "nodes"}) {
			row := map[string]interface{}{
				"source_id":    jsonutil.GetString(node, []string{"id"}, ""),
				"source_login": jsonutil.GetString(node, []string{"login"}, ""),
				"target_id":    userID,
				"target_login": login,
				"edge_type":    "follows",
			}
			if err := c.socialWriter.WriteRow(row); err != nil {
				c.deps.Logger.Error(ctx, "Error saving follower edge for %s: %v", login, err)
			}
		}
	}

	pages, aborted = c.deps.Graphql.Paginate(ctx, githubapi.UserFollowingQuery, variables, []string{"user", "following"}, 0)
	if aborted {
		c.deps.Logger.Warn(ctx, "Following pagination for %s aborted early", login)
	}
	for _, page := range pages {
		for _, node := range jsonutil.GetSlice(page, []string{"data", "user", "following", "nodes"}) {
			row := map[string]interface{}{
				"source_id":    userID,
				"source_login": login,
				"target_id":    jsonutil.GetString(node, []string{"id"}, ""),
				"target_login": jsonutil.GetString(node, []string{"login"}, ""),
				"edge_type":    "follows",
			}
			if err := c.socialWriter.WriteRow(row); err != nil {
				c.deps.Logger.Error(ctx, "Error saving following edge for %s: %v", login, err)
			}
		}
	}
}

func (c *UserCrawler) saveStarEvents(ctx context.Context, userID, login string) {
	variables := map[string]interface{}{"login": login, "first": 100}
	pages, aborted := c.deps.Graphql.Paginate(ctx, githubapi.UserStarredReposQuery, variables, []string{"user", "starredRepositories"}, 0)
	if aborted {
		c.deps.Logger.Warn(ctx, "Starred repos pagination for %s aborted early", login)
	}
	for _, page := range pages {
		for _, edge := range jsonutil.GetSlice(page, []string{"data", "user", "starredRepositories", "edges"}) {
			row := map[string]interface{}{
				"user_id":    userID,
				"login":      login,
				"repo_id":    jsonutil.GetString(edge, []string{"node", "id"}, ""),
				"repo_name":  jsonutil.GetString(edge, []string{"node", "nameWithOwner"}, ""),
				"starred_at": parseDatetime(jsonutil.GetString(edge, []string{"starredAt"}, "")),
			}
			if err := c.starWriter.WriteRow(row); err != nil {
				c.deps.Logger.Error(ctx, "Error saving star event for %s: %v", login, err)
			}
		}
	}
}
