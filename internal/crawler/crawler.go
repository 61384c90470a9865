// Gói crawler điều phối quá trình thu thập dữ liệu GitHub: repository theo
// topic, user đóng góp, và quan hệ cộng tác giữa các user. Mỗi giai đoạn là
// một Crawler riêng, có thể chạy độc lập và resume qua checkpoint.

package crawler

import (
	"fmt"

	"github.com/thep200/github-graph-crawler/cfg"
	"github.com/thep200/github-graph-crawler/internal/checkpoint"
	"github.com/thep200/github-graph-crawler/internal/githubapi"
	"github.com/thep200/github-graph-crawler/pkg/db"
	"github.com/thep200/github-graph-crawler/pkg/log"
)

type Crawler interface {
	Crawl() bool
}

// Deps gom các thành phần dùng chung giữa các giai đoạn crawl: hai API
// client dùng chung một key pool, checkpoint store và kết nối MySQL.
type Deps struct {
	Logger     log.Logger
	Config     *cfg.Config
	Mysql      *db.Mysql
	Graphql    *githubapi.Caller
	Rest       *githubapi.RestCaller
	Checkpoint *checkpoint.Store
}

func NewDeps(logger log.Logger, config *cfg.Config, mysql *db.Mysql) (*Deps, error) {
	pool, err := githubapi.NewKeyPool(logger, config.GithubApi.ApiKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to create key pool: %w", err)
	}

	graphql, err := githubapi.NewCaller(logger, config, pool)
	if err != nil {
		return nil, fmt.Errorf("failed to create graphql caller: %w", err)
	}

	rest, err := githubapi.NewRestCaller(logger, config, pool)
	if err != nil {
		return nil, fmt.Errorf("failed to create rest caller: %w", err)
	}

	store, err := checkpoint.NewStore(logger, config.Storage.CheckpointDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	return &Deps{
		Logger:     logger,
		Config:     config,
		Mysql:      mysql,
		Graphql:    graphql,
		Rest:       rest,
		Checkpoint: store,
	}, nil
}

// FactoryCrawler tạo crawler theo giai đoạn: repos, users, collabs, hoặc all.
func FactoryCrawler(stage string, logger log.Logger, config *cfg.Config, mysql *db.Mysql) (Crawler, error) {
	deps, err := NewDeps(logger, config, mysql)
	if err != nil {
		return nil, err
	}

	switch stage {
	case "repos":
		return NewRepoCrawler(deps)
	case "users":
		return NewUserCrawler(deps)
	case "collabs":
		return NewCollabCrawler(deps)
	case "all":
		return NewGraphCrawler(deps)
	default:
		return nil, fmt.Errorf("[ERROR] Unsupported crawl stage: %s", stage)
	}
}

// GraphCrawler chạy lần lượt cả ba giai đoạn.
type GraphCrawler struct {
	deps *Deps
}

func NewGraphCrawler(deps *Deps) (*GraphCrawler, error) {
	return &GraphCrawler{deps: deps}, nil
}

func (g *GraphCrawler) Crawl() bool {
	repos, err := NewRepoCrawler(g.deps)
	if err != nil {
		return false
	}
	users, err := NewUserCrawler(g.deps)
	if err != nil {
		return false
	}
	collabs, err := NewCollabCrawler(g.deps)
	if err != nil {
		return false
	}

	ok := repos.Crawl()
	ok = users.Crawl() && ok
	ok = collabs.Crawl() && ok
	return ok
}
