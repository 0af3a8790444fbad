package notification

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mktitov/kiko-test/pkg/migration"
	"github.com/mktitov/kiko-test/pkg/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore はSQLiteに通知ログを保存する通知ストア。
// 通知ワーカーのゴルーチンからのみ呼び出される前提で、接続は1本に固定する。
type SQLiteStore struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// OpenSQLiteStore はSQLiteデータベースを開き、スキーマを適用したストアを返す。
// dsnに ":memory:" を指定するとプロセス内だけで完結するインメモリDBになる。
func OpenSQLiteStore(ctx context.Context, dsn string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// :memory: は接続ごとに別のDBになるため1接続に固定する
	db.SetMaxOpenConns(1)

	if err := migration.Run(ctx, db, migrations, "migrations", logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ適用に失敗: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append は次の連番を採番して通知をINSERTする。
// 採番とINSERTは同一トランザクション内で行う。
func (s *SQLiteStore) Append(tenantID int, n model.Notification) (model.NotificationRecord, error) {
	payload, err := model.EncodeNotification(n)
	if err != nil {
		return model.NotificationRecord{}, fmt.Errorf("通知のエンコードに失敗: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return model.NotificationRecord{}, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var nextID int
	if err := tx.QueryRow(
		"SELECT COALESCE(MAX(id), -1) + 1 FROM notifications WHERE tenant_id = ?",
		tenantID,
	).Scan(&nextID); err != nil {
		return model.NotificationRecord{}, fmt.Errorf("連番の採番に失敗: %w", err)
	}

	if _, err := tx.Exec(
		"INSERT INTO notifications (tenant_id, id, type, payload) VALUES (?, ?, ?, ?)",
		tenantID, nextID, string(n.Type()), string(payload),
	); err != nil {
		return model.NotificationRecord{}, fmt.Errorf("通知の保存に失敗: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.NotificationRecord{}, fmt.Errorf("コミットに失敗: %w", err)
	}

	return model.NotificationRecord{ID: nextID, Notification: n}, nil
}

// List はテナントの通知レコードをID昇順で返す。
func (s *SQLiteStore) List(tenantID int, fromID *int) ([]model.NotificationRecord, error) {
	from := 0
	if fromID != nil {
		from = *fromID
	}

	rows, err := s.db.Query(
		"SELECT id, payload FROM notifications WHERE tenant_id = ? AND id >= ? ORDER BY id",
		tenantID, from,
	)
	if err != nil {
		return nil, fmt.Errorf("通知の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []model.NotificationRecord{}
	for rows.Next() {
		var (
			id      int
			payload string
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("通知の読み取りに失敗: %w", err)
		}
		n, err := model.DecodeNotification([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("通知 %d のデコードに失敗: %w", id, err)
		}
		records = append(records, model.NotificationRecord{ID: id, Notification: n})
	}
	return records, rows.Err()
}

// Close はデータベース接続を閉じる。
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
