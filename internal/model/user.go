package model

import (
	"time"

	"github.com/thep200/github-graph-crawler/cfg"
	"github.com/thep200/github-graph-crawler/pkg/db"
	"github.com/thep200/github-graph-crawler/pkg/log"
	"gorm.io/gorm/clause"
)

type User struct {
	Model
	NodeID         string `json:"node_id" gorm:"column:node_id;type:varchar(64);primaryKey"`
	Login          string `json:"login" gorm:"column:login;type:varchar(255);not null;index"`
	Name           string `json:"name" gorm:"column:name;type:varchar(255)"`
	Bio            string `json:"bio" gorm:"column:bio;type:text"`
	Company        string `json:"company" gorm:"column:company;type:varchar(255)"`
	Location       string `json:"location" gorm:"column:location;type:varchar(255)"`
	PublicRepos    int    `json:"public_repos" gorm:"column:public_repos;default:0"`
	FollowerCount  int    `json:"follower_count" gorm:"column:follower_count;default:0"`
	FollowingCount int    `json:"following_count" gorm:"column:following_count;default:0"`
	Organizations  string `json:"organizations" gorm:"column:organizations;type:text"`
}

func NewUser(config *cfg.Config, logger log.Logger, mysql *db.Mysql) (*User, error) {
	return &User{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  mysql,
		},
	}, nil
}

func (u *User) TableName() string {
	return "users"
}

// Create upsert một user theo node_id.
func (u *User) Create(msg UserMessage) error {
	db, err := u.Mysql.Db()
	if err != nil {
		return err
	}

	now := time.Now()
	newUser := &User{
		NodeID:         msg.NodeID,
		Login:          TruncateString(msg.Login, 250),
		Name:           TruncateString(msg.Name, 250),
		Bio:            TruncateString(msg.Bio, 65000),
		Company:        TruncateString(msg.Company, 250),
		Location:       TruncateString(msg.Location, 250),
		PublicRepos:    msg.PublicRepos,
		FollowerCount:  msg.FollowerCount,
		FollowingCount: msg.FollowingCount,
		Organizations:  msg.Organizations,
		Model: Model{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "node_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "bio", "company", "location", "public_repos",
			"follower_count", "following_count", "organizations", "updated_at",
		}),
	}).Create(newUser).Error
}
