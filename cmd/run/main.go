package main

import (
	"context"
	"flag"

	"github.com/thep200/github-graph-crawler/cfg"
	"github.com/thep200/github-graph-crawler/internal/crawler"
	"github.com/thep200/github-graph-crawler/internal/model"
	"github.com/thep200/github-graph-crawler/pkg/db"
	"github.com/thep200/github-graph-crawler/pkg/log"
)

type Handler struct {
	Crawler crawler.Crawler
	Logger  log.Logger
}

func NewHandler(crawler crawler.Crawler, logger log.Logger) *Handler {
	return &Handler{
		Crawler: crawler,
		Logger:  logger,
	}
}

func main() {
	stage := flag.String("stage", "all", "Crawl stage to run (repos, users, collabs, all)")
	flag.Parse()

	ctx := context.Background()
	// loader, _ := cfg.NewMockLoader()
	loader, _ := cfg.NewViperLoader()
	config, _ := loader.Load()
	mysql, _ := db.NewMysql(config)
	logger, _ := log.NewCslLogger()
	repoMd, _ := model.NewRepo(config, logger, mysql)
	userMd, _ := model.NewUser(config, logger, mysql)
	collabMd, _ := model.NewCollabEdge(config, logger, mysql)

	// Migrate database
	mysql.Migrate(repoMd, userMd, collabMd)

	stageCrawler, err := crawler.FactoryCrawler(*stage, logger, config, mysql)
	if err != nil {
		logger.Error(ctx, "Cannot create crawler: %v", err)
		return
	}

	//
	logger.Info(ctx, "Starting Github graph crawler, stage=%s", *stage)
	handler := NewHandler(stageCrawler, logger)
	if handler.Crawler.Crawl() {
		logger.Info(ctx, "Successfully!")
	} else {
		logger.Error(ctx, "Failed!")
	}
}
