package model

import (
	"fmt"
	"time"

	"github.com/thep200/github-graph-crawler/cfg"
	"github.com/thep200/github-graph-crawler/pkg/db"
	"github.com/thep200/github-graph-crawler/pkg/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	Model
	NodeID           string    `json:"node_id" gorm:"column:node_id;type:varchar(64);primaryKey"`
	Name             string    `json:"name" gorm:"column:name;type:varchar(255);not null"`
	Owner            string    `json:"owner" gorm:"column:owner;type:varchar(255);not null"`
	OwnerID          string    `json:"owner_id" gorm:"column:owner_id;type:varchar(64)"`
	OwnerType        string    `json:"owner_type" gorm:"column:owner_type;type:varchar(32)"`
	Description      string    `json:"description" gorm:"column:description;type:text"`
	Language         string    `json:"language" gorm:"column:language;type:varchar(64)"`
	StarCount        int       `json:"star_count" gorm:"column:star_count;default:0"`
	ForkCount        int       `json:"fork_count" gorm:"column:fork_count;default:0"`
	WatchCount       int       `json:"watch_count" gorm:"column:watch_count;default:0"`
	IssueCount       int       `json:"issue_count" gorm:"column:issue_count;default:0"`
	PullCount        int       `json:"pull_count" gorm:"column:pull_count;default:0"`
	CommitCount      int       `json:"commit_count" gorm:"column:commit_count;default:0"`
	ContributorCount int       `json:"contributor_count" gorm:"column:contributor_count;default:0"`
	Topics           string    `json:"topics" gorm:"column:topics;type:text"`
	PushedAt         time.Time `json:"pushed_at" gorm:"column:pushed_at"`
}

func NewRepo(config *cfg.Config, logger log.Logger, mysql *db.Mysql) (*Repo, error) {
	return &Repo{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  mysql,
		},
	}, nil
}

func (r *Repo) TableName() string {
	return "repos"
}

// CreateBatch upsert một lô repo theo node_id trong một transaction.
func (r *Repo) CreateBatch(messages []RepoMessage) error {
	db, err := r.Mysql.Db()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	now := time.Now()
	repos := make([]Repo, 0, len(messages))
	for _, msg := range messages {
		repos = append(repos, Repo{
			NodeID:           msg.NodeID,
			Name:             TruncateString(msg.Name, 250),
			Owner:            TruncateString(msg.Owner, 250),
			OwnerID:          msg.OwnerID,
			OwnerType:        msg.OwnerType,
			Description:      TruncateString(msg.Description, 65000),
			Language:         msg.Language,
			StarCount:        msg.StarCount,
			ForkCount:        msg.ForkCount,
			WatchCount:       msg.WatchCount,
			IssueCount:       msg.IssueCount,
			PullCount:        msg.PullCount,
			CommitCount:      msg.CommitCount,
			ContributorCount: msg.ContributorCount,
			Topics:           msg.Topics,
			Model: Model{
				CreatedAt: now,
				UpdatedAt: now,
			},
		})
	}

	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "node_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"star_count", "fork_count", "watch_count", "issue_count",
				"pull_count", "commit_count", "contributor_count", "updated_at",
			}),
		}).CreateInBatches(repos, 100)

		if result.Error != nil {
			return fmt.Errorf("failed to batch create repositories: %w", result.Error)
		}
		return nil
	})
}
