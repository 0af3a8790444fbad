// Package logger はzapによる構造化ロガーの初期化とコンテキスト連携を提供する。
package logger

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig はロガーの設定を保持する。
type LogConfig struct {
	// Level はログレベル（debug / info / warn / error）。不明な値はinfoとして扱う。
	Level string
	// Environment は実行環境。productionの場合はJSON出力になる。
	Environment string
	// ServiceName は全ログに付与するサービス名。
	ServiceName string
}

// ParseLevel はログレベル文字列をzapのレベルに変換する。
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New は設定に従ってロガーを生成する。
// productionではJSON形式、それ以外では色付きのコンソール形式で出力する。
func New(cfg LogConfig) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	fields := zap.Fields(
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
	)

	var zcfg zap.Config
	if cfg.Environment == "production" {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "timestamp"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.Level = level

	log, err := zcfg.Build(fields)
	if err != nil {
		return nil, fmt.Errorf("ロガーの初期化に失敗: %w", err)
	}
	return log, nil
}

type contextKey string

const loggerKey contextKey = "logger"

// WithContext はロガーをコンテキストに格納する。
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext はコンテキストからロガーを取り出す。格納されていなければグローバルロガーを返す。
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return log
	}
	return zap.L()
}
