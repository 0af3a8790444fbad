// Package config は環境変数からサービスの設定値を読み込む。
// カレントディレクトリに .env ファイルがあれば先に読み込み、既存の環境変数は上書きしない。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 通知ストアの種類。
const (
	// StoreMemory はインメモリの通知ストア。
	StoreMemory = "memory"
	// StoreSQLite はSQLiteの通知ストア。
	StoreSQLite = "sqlite"
)

// Config はviewingサービスの設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// Environment は実行環境（development / production）。
	Environment string
	// LogLevel はログレベル。
	LogLevel string
	// JWTSecret はテナントトークンの署名鍵。空の場合Bearerトークンは無効。
	JWTSecret string
	// CORSOrigins はCORSで許可するオリジン。
	CORSOrigins []string
	// ShutdownTimeout はグレースフルシャットダウンの待ち時間。
	ShutdownTimeout time.Duration

	// FlatCount は起動時に生成する物件数。
	FlatCount int
	// VacantFlatIDs は空室にする物件ID。
	VacantFlatIDs []int
	// ScheduleDays は内見枠を生成する日数。
	ScheduleDays int
	// SlotFromHour は1日の最初の枠の時。
	SlotFromHour int
	// SlotToHour は1日の枠の終わりの時（含まない）。
	SlotToHour int
	// SlotInterval は枠の間隔。
	SlotInterval time.Duration
	// SlotLayout は枠の配置方式（daily / legacy）。
	SlotLayout string

	// ScheduleMailboxSize はスケジュールワーカーのメールボックス容量。
	ScheduleMailboxSize int
	// NotificationMailboxSize は通知ワーカーのメールボックス容量。
	NotificationMailboxSize int
	// NotificationStore は通知ストアの種類（memory / sqlite）。
	NotificationStore string
	// NotificationDSN はSQLite通知ストアの接続文字列。
	NotificationDSN string
}

// Load は .env ファイルと環境変数から設定を読み込んで検証する。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf(".envファイルの読み込みに失敗: %w", err)
	}
	return FromEnv()
}

// FromEnv は現在の環境変数から設定を組み立てて検証する。
func FromEnv() (*Config, error) {
	vacant, err := getEnvAsIntList("VACANT_FLAT_IDS")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		CORSOrigins:     getEnvAsList("CORS_ORIGINS"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		FlatCount:     getEnvAsInt("FLAT_COUNT", 10),
		VacantFlatIDs: vacant,
		ScheduleDays:  getEnvAsInt("SCHEDULE_DAYS", 7),
		SlotFromHour:  getEnvAsInt("SLOT_FROM_HOUR", 10),
		SlotToHour:    getEnvAsInt("SLOT_TO_HOUR", 20),
		SlotInterval:  getEnvAsDuration("SLOT_INTERVAL", 20*time.Minute),
		SlotLayout:    strings.ToLower(getEnv("SLOT_LAYOUT", "daily")),

		ScheduleMailboxSize:     getEnvAsInt("SCHEDULE_MAILBOX_SIZE", 0),
		NotificationMailboxSize: getEnvAsInt("NOTIFICATION_MAILBOX_SIZE", 0),
		NotificationStore:       strings.ToLower(getEnv("NOTIFICATION_STORE", StoreMemory)),
		NotificationDSN:         getEnv("NOTIFICATION_DSN", ":memory:"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値の整合性を検証する。枠の生成条件はスケジュール側で検証する。
func (c *Config) Validate() error {
	switch c.NotificationStore {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("NOTIFICATION_STOREが不正です: %q", c.NotificationStore)
	}
	if c.ScheduleMailboxSize < 0 || c.NotificationMailboxSize < 0 {
		return errors.New("メールボックス容量は0以上である必要があります")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUTが不正です: %s", c.ShutdownTimeout)
	}
	return nil
}

// getEnv は環境変数を取得し、未設定の場合はデフォルト値を返す。
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得する。未設定や不正な値の場合はデフォルト値を返す。
func getEnvAsInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvAsDuration は環境変数を time.ParseDuration 形式で取得する。
// 単位のない整数は秒として扱う。
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if sec, err := strconv.Atoi(value); err == nil {
		return time.Duration(sec) * time.Second
	}
	return defaultValue
}

// getEnvAsList はカンマ区切りの環境変数を空要素を除いたスライスとして取得する。
func getEnvAsList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// getEnvAsIntList はカンマ区切りの環境変数を整数のスライスとして取得する。
func getEnvAsIntList(key string) ([]int, error) {
	var out []int
	for _, v := range getEnvAsList(key) {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%sに整数でない値が含まれています: %q", key, v)
		}
		out = append(out, n)
	}
	return out, nil
}
