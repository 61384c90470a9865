package model

import (
	"time"

	"github.com/thep200/github-graph-crawler/cfg"
	"github.com/thep200/github-graph-crawler/pkg/db"
	"github.com/thep200/github-graph-crawler/pkg/log"
	"gorm.io/gorm/clause"
)

// CollabEdge là một cạnh cộng tác giữa hai user. UserA < UserB theo thứ tự
// chuỗi để mỗi cặp chỉ có một cạnh; weight là số repo chung.
type CollabEdge struct {
	Model
	UserA           string `json:"user_a" gorm:"column:user_a;type:varchar(64);primaryKey"`
	UserB           string `json:"user_b" gorm:"column:user_b;type:varchar(64);primaryKey"`
	CommonRepoCount int    `json:"common_repo_count" gorm:"column:common_repo_count;default:0"`
	CommitCountA    int    `json:"commit_count_a" gorm:"column:commit_count_a;default:0"`
	CommitCountB    int    `json:"commit_count_b" gorm:"column:commit_count_b;default:0"`
	Weight          int    `json:"weight" gorm:"column:weight;default:0"`
}

func NewCollabEdge(config *cfg.Config, logger log.Logger, mysql *db.Mysql) (*CollabEdge, error) {
	return &CollabEdge{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  mysql,
		},
	}, nil
}

func (c *CollabEdge) TableName() string {
	return "collab_edges"
}

// Create upsert một cạnh theo cặp (user_a, user_b).
func (c *CollabEdge) Create(msg CollabEdgeMessage) error {
	db, err := c.Mysql.Db()
	if err != nil {
		return err
	}

	now := time.Now()
	edge := &CollabEdge{
		UserA:           msg.UserA,
		UserB:           msg.UserB,
		CommonRepoCount: msg.CommonRepoCount,
		CommitCountA:    msg.CommitCountA,
		CommitCountB:    msg.CommitCountB,
		Weight:          msg.Weight,
		Model: Model{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_a"}, {Name: "user_b"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"common_repo_count", "commit_count_a", "commit_count_b", "weight", "updated_at",
		}),
	}).Create(edge).Error
}
