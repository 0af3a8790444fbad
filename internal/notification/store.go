package notification

import "github.com/mktitov/kiko-test/pkg/model"

// Store はテナントごとの通知ログを保持する。
// 並行制御を持たないため、通知ワーカーのゴルーチンからのみ呼び出すこと。
type Store interface {
	// Append は次の連番を採番して通知を追記し、作成したレコードを返す。
	Append(tenantID int, n model.Notification) (model.NotificationRecord, error)
	// List はID昇順の通知レコードを返す。fromIDが指定された場合はID >= fromIDのみに絞り込む。
	List(tenantID int, fromID *int) ([]model.NotificationRecord, error)
	// Close はストアが保持するリソースを解放する。
	Close() error
}

// MemoryStore はマップとスライスによるインメモリの通知ストア。
type MemoryStore struct {
	// logs はテナントIDごとの通知ログ。スライスの添字がそのままレコードIDになる。
	logs map[int][]model.NotificationRecord
}

// NewMemoryStore は空のインメモリ通知ストアを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: make(map[int][]model.NotificationRecord)}
}

// Append は次の連番を採番して通知を追記する。
// 連番はテナントのレコードが空なら0、そうでなければ最後のID+1。
func (s *MemoryStore) Append(tenantID int, n model.Notification) (model.NotificationRecord, error) {
	log := s.logs[tenantID]
	nextID := 0
	if len(log) > 0 {
		nextID = log[len(log)-1].ID + 1
	}
	rec := model.NotificationRecord{ID: nextID, Notification: n}
	s.logs[tenantID] = append(log, rec)
	return rec, nil
}

// List はID昇順の通知レコードのコピーを返す。レコードがなければ空スライスを返す。
func (s *MemoryStore) List(tenantID int, fromID *int) ([]model.NotificationRecord, error) {
	log := s.logs[tenantID]
	start := 0
	if fromID != nil && *fromID > 0 {
		start = min(*fromID, len(log))
	}
	out := make([]model.NotificationRecord, len(log)-start)
	copy(out, log[start:])
	return out, nil
}

// Close は何もしない。
func (s *MemoryStore) Close() error {
	return nil
}
