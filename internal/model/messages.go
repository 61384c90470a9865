package model

// RepoMessage là cấu trúc dữ liệu Repository gửi tới Kafka
type RepoMessage struct {
	NodeID           string `json:"node_id"`
	Name             string `json:"name"`
	Owner            string `json:"owner"`
	OwnerID          string `json:"owner_id"`
	OwnerType        string `json:"owner_type"`
	Description      string `json:"description"`
	Language         string `json:"language"`
	StarCount        int    `json:"star_count"`
	ForkCount        int    `json:"fork_count"`
	WatchCount       int    `json:"watch_count"`
	IssueCount       int    `json:"issue_count"`
	PullCount        int    `json:"pull_count"`
	CommitCount      int    `json:"commit_count"`
	ContributorCount int    `json:"contributor_count"`
	Topics           string `json:"topics"`
}

// UserMessage là cấu trúc dữ liệu User gửi tới Kafka
type UserMessage struct {
	NodeID         string `json:"node_id"`
	Login          string `json:"login"`
	Name           string `json:"name"`
	Bio            string `json:"bio"`
	Company        string `json:"company"`
	Location       string `json:"location"`
	PublicRepos    int    `json:"public_repos"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
	Organizations  string `json:"organizations"`
}

// CollabEdgeMessage là cấu trúc dữ liệu cạnh cộng tác gửi tới Kafka
type CollabEdgeMessage struct {
	UserA           string `json:"user_a"`
	UserB           string `json:"user_b"`
	CommonRepoCount int    `json:"common_repo_count"`
	CommitCountA    int    `json:"commit_count_a"`
	CommitCountB    int    `json:"commit_count_b"`
	Weight          int    `json:"weight"`
}
