package crawler

import (
	"strings"
	"time"
)

// RepoSummary là thông tin tối thiểu của một repo giữ trong checkpoint,
// đủ để các giai đoạn sau tiếp tục làm việc.
type RepoSummary struct {
	ID               string `json:"id"`
	NameWithOwner    string `json:"name_with_owner"`
	ContributorCount int    `json:"contributor_count"`
}

// ContributorSummary là một contributor của một repo cụ thể.
type ContributorSummary struct {
	UserID      string `json:"user_id"`
	Login       string `json:"login"`
	Name        string `json:"name"`
	RepoID      string `json:"repo_id"`
	CommitCount int    `json:"commit_count"`
}

// splitNameWithOwner tách "owner/name" thành hai phần.
func splitNameWithOwner(nameWithOwner string) (string, string) {
	parts := strings.SplitN(nameWithOwner, "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", nameWithOwner
}

// sortPair trả về cặp id theo thứ tự chuỗi để mỗi cặp user chỉ sinh một cạnh.
func sortPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// parseDatetime chuẩn hóa timestamp ISO của GitHub về dạng "2006-01-02 15:04:05";
// chuỗi không parse được giữ nguyên.
func parseDatetime(value string) string {
	if value == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.Format("2006-01-02 15:04:05")
}

// activeYears tính số năm hoạt động từ thời điểm tạo tài khoản đến nay.
func activeYears(createdAt string) int {
	if createdAt == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return 0
	}
	years := time.Now().Year() - t.Year() + 1
	if years < 0 {
		return 0
	}
	return years
}
