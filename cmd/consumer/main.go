package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thep200/github-graph-crawler/cfg"
	"github.com/thep200/github-graph-crawler/internal/model"
	"github.com/thep200/github-graph-crawler/pkg/db"
	"github.com/thep200/github-graph-crawler/pkg/kafka"
	"github.com/thep200/github-graph-crawler/pkg/log"
)

func main() {
	// Parse command line arguments
	consumerType := flag.String("type", "", "Type of consumer to run (repo, user, collab)")
	flag.Parse()

	if *consumerType == "" {
		fmt.Println("Please specify a consumer type: -type=[repo|user|collab]")
		os.Exit(1)
	}

	// Load configuration
	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, _ := log.NewCslLogger()

	// Setup database
	mysql, _ := db.NewMysql(config)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create models
	repoModel, _ := model.NewRepo(config, logger, mysql)
	userModel, _ := model.NewUser(config, logger, mysql)
	collabModel, _ := model.NewCollabEdge(config, logger, mysql)
	mysql.Migrate(repoModel, userModel, collabModel)

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start the appropriate consumer based on type
	switch *consumerType {
	case "repo":
		startRepoConsumer(ctx, config, logger, repoModel)
	case "user":
		startUserConsumer(ctx, config, logger, userModel)
	case "collab":
		startCollabConsumer(ctx, config, logger, collabModel)
	default:
		logger.Error(ctx, "Unknown consumer type: %s", *consumerType)
		os.Exit(1)
	}

	// Wait for termination signal
	<-sigCh
	logger.Info(ctx, "Received shutdown signal, gracefully shutting down...")
	cancel()
}

func startRepoConsumer(ctx context.Context, config *cfg.Config, logger log.Logger, repoModel *model.Repo) {
	consumer := kafka.NewConsumer(config, logger, config.Kafka.Producer.TopicRepo, "repo-consumer-group")

	// Repo được ghi theo batch vì phase 1 bắn dồn dập
	batchSize := 100
	batchTimeout := 5 * time.Second
	messages := make(chan model.RepoMessage, batchSize*2)

	go processBatchedRepos(ctx, messages, batchSize, batchTimeout, logger, repoModel)

	consumer.RegisterHandler("repo", func(data []byte) error {
		var repoMsg model.RepoMessage
		if err := json.Unmarshal(data, &repoMsg); err != nil {
			return fmt.Errorf("failed to unmarshal repo message: %w", err)
		}

		select {
		case messages <- repoMsg:
			// Message added to batch
		case <-ctx.Done():
			return ctx.Err()
		}

		return nil
	})

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error(ctx, "Repo consumer error: %v", err)
		}
	}()

	logger.Info(ctx, "Repository consumer started successfully")
}

func processBatchedRepos(ctx context.Context, messages <-chan model.RepoMessage, batchSize int,
	batchTimeout time.Duration, logger log.Logger, repoModel *model.Repo) {

	var batch []model.RepoMessage
	timer := time.NewTimer(batchTimeout)

	for {
		select {
		case <-ctx.Done():
			// Process remaining messages before exiting
			if len(batch) > 0 {
				processSingleBatch(ctx, batch, logger, repoModel)
			}
			return

		case msg := <-messages:
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				processSingleBatch(ctx, batch, logger, repoModel)
				batch = nil
				timer.Reset(batchTimeout)
			}

		case <-timer.C:
			if len(batch) > 0 {
				processSingleBatch(ctx, batch, logger, repoModel)
				batch = nil
			}
			timer.Reset(batchTimeout)
		}
	}
}

func processSingleBatch(ctx context.Context, batch []model.RepoMessage, logger log.Logger, repoModel *model.Repo) {
	if len(batch) == 0 {
		return
	}

	logger.Info(ctx, "Processing batch of %d repositories", len(batch))

	if err := repoModel.CreateBatch(batch); err != nil {
		logger.Error(ctx, "Failed to save batch of repositories: %v", err)
	} else {
		logger.Info(ctx, "Successfully saved batch of %d repositories", len(batch))
	}
}

func startUserConsumer(ctx context.Context, config *cfg.Config, logger log.Logger, userModel *model.User) {
	consumer := kafka.NewConsumer(config, logger, config.Kafka.Producer.TopicUser, "user-consumer-group")

	consumer.RegisterHandler("user", func(data []byte) error {
		var userMsg model.UserMessage
		if err := json.Unmarshal(data, &userMsg); err != nil {
			return fmt.Errorf("failed to unmarshal user message: %w", err)
		}

		if err := userModel.Create(userMsg); err != nil {
			return fmt.Errorf("failed to save user to database: %w", err)
		}

		return nil
	})

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error(ctx, "User consumer error: %v", err)
		}
	}()

	logger.Info(ctx, "User consumer started successfully")
}

func startCollabConsumer(ctx context.Context, config *cfg.Config, logger log.Logger, collabModel *model.CollabEdge) {
	consumer := kafka.NewConsumer(config, logger, config.Kafka.Producer.TopicCollab, "collab-consumer-group")

	consumer.RegisterHandler("collab", func(data []byte) error {
		var edgeMsg model.CollabEdgeMessage
		if err := json.Unmarshal(data, &edgeMsg); err != nil {
			return fmt.Errorf("failed to unmarshal collab message: %w", err)
		}

		if err := collabModel.Create(edgeMsg); err != nil {
			return fmt.Errorf("failed to save collaboration edge to database: %w", err)
		}

		return nil
	})

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error(ctx, "Collab consumer error: %v", err)
		}
	}()

	logger.Info(ctx, "Collaboration consumer started successfully")
}
