// Gói checkpoint lưu trạng thái crawl để resume giữa các lần chạy.
// Thay cho một key-value bag phẳng với tiền tố chuỗi, store chia thành các
// bảng có tên rõ ràng: tập repo đã xử lý, tập user đã xử lý, và các slot
// kết quả theo tên query. Mỗi mutation flush ngay xuống file của bảng đó.

package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thep200/github-graph-crawler/pkg/log"
)

const (
	processedReposFile = "processed_repos.json"
	processedUsersFile = "processed_users.json"
	slotsFile          = "checkpoint.json"
)

type Store struct {
	Logger log.Logger
	dir    string

	processedRepoIDs    map[string]bool
	processedUserLogins map[string]bool
	slots               map[string]json.RawMessage
}

func NewStore(logger log.Logger, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint dir: %w", err)
	}

	s := &Store{
		Logger:              logger,
		dir:                 dir,
		processedRepoIDs:    make(map[string]bool),
		processedUserLogins: make(map[string]bool),
		slots:               make(map[string]json.RawMessage),
	}
	s.loadAll()
	return s, nil
}

// loadAll nạp trạng thái từ đĩa. File thiếu hoặc hỏng nạp thành trạng thái
// rỗng, không làm process chết: mất checkpoint chỉ khiến crawl lại từ đầu.
func (s *Store) loadAll() {
	ctx := context.Background()

	var repoIDs []string
	if s.loadJSON(processedReposFile, &repoIDs) {
		for _, id := range repoIDs {
			s.processedRepoIDs[id] = true
		}
	}

	var logins []string
	if s.loadJSON(processedUsersFile, &logins) {
		for _, l := range logins {
			s.processedUserLogins[l] = true
		}
	}

	var slots map[string]json.RawMessage
	if s.loadJSON(slotsFile, &slots) && slots != nil {
		s.slots = slots
	}

	s.Logger.Info(ctx, "Checkpoint loaded: %d repos, %d users, %d slots",
		len(s.processedRepoIDs), len(s.processedUserLogins), len(s.slots))
}

func (s *Store) loadJSON(name string, out interface{}) bool {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.Logger.Error(context.Background(), "Corrupt checkpoint file %s, starting empty: %v", name, err)
		return false
	}
	return true
}

func (s *Store) flushJSON(name string, value interface{}) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		s.Logger.Error(context.Background(), "Failed to marshal checkpoint %s: %v", name, err)
		return
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		s.Logger.Error(context.Background(), "Failed to write checkpoint %s: %v", name, err)
	}
}

// IsRepoProcessed kiểm tra repo đã được ghi nhận xử lý xong chưa.
func (s *Store) IsRepoProcessed(id string) bool {
	return s.processedRepoIDs[id]
}

// MarkRepoProcessed ghi nhận repo đã xử lý xong và flush xuống đĩa.
func (s *Store) MarkRepoProcessed(id string) {
	if id == "" {
		return
	}
	s.processedRepoIDs[id] = true
	s.flushJSON(processedReposFile, keys(s.processedRepoIDs))
}

// IsUserProcessed kiểm tra user đã được ghi nhận xử lý xong chưa.
func (s *Store) IsUserProcessed(login string) bool {
	return s.processedUserLogins[login]
}

// MarkUserProcessed ghi nhận user đã xử lý xong và flush xuống đĩa.
func (s *Store) MarkUserProcessed(login string) {
	if login == "" {
		return
	}
	s.processedUserLogins[login] = true
	s.flushJSON(processedUsersFile, keys(s.processedUserLogins))
}

// GetSlot đọc một slot kết quả theo tên vào out; trả về false nếu slot
// chưa tồn tại hoặc không decode được.
func (s *Store) GetSlot(name string, out interface{}) bool {
	raw, ok := s.slots[name]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.Logger.Error(context.Background(), "Failed to decode checkpoint slot %s: %v", name, err)
		return false
	}
	return true
}

// SetSlot ghi một slot kết quả theo tên và flush xuống đĩa.
func (s *Store) SetSlot(name string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.Logger.Error(context.Background(), "Failed to encode checkpoint slot %s: %v", name, err)
		return
	}
	s.slots[name] = raw
	s.flushJSON(slotsFile, s.slots)
}

// HasSlot kiểm tra slot đã tồn tại chưa.
func (s *Store) HasSlot(name string) bool {
	_, ok := s.slots[name]
	return ok
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
