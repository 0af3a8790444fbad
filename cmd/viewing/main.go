// viewingサービスのエントリポイント。
// 物件ディレクトリと内見枠を生成し、スケジュールワーカーと通知ワーカーを起動して
// HTTPで予約の受け付けと通知の配信を行う。
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mktitov/kiko-test/internal/config"
	"github.com/mktitov/kiko-test/internal/notification"
	"github.com/mktitov/kiko-test/internal/schedule"
	"github.com/mktitov/kiko-test/internal/viewing"
	"github.com/mktitov/kiko-test/pkg/logger"
	"github.com/mktitov/kiko-test/pkg/metrics"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("viewingサービスの起動に失敗: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zl, err := logger.New(logger.LogConfig{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: viewing.ServiceName,
	})
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(viewing.ServiceName)

	store, err := openStore(ctx, cfg, zl)
	if err != nil {
		return err
	}
	nw := notification.NewWorker(store, cfg.NotificationMailboxSize, zl, m)
	nw.Start()
	defer func() {
		if err := nw.Close(); err != nil {
			zl.Error("通知ストアのクローズに失敗しました", zap.Error(err))
		}
	}()

	flats, slots, err := schedule.Seed(schedule.SeedConfig{
		FlatCount:     cfg.FlatCount,
		VacantFlatIDs: cfg.VacantFlatIDs,
		Days:          cfg.ScheduleDays,
		FromHour:      cfg.SlotFromHour,
		ToHour:        cfg.SlotToHour,
		Interval:      cfg.SlotInterval,
		Layout:        cfg.SlotLayout,
	}, time.Now())
	if err != nil {
		return fmt.Errorf("内見枠の生成に失敗: %w", err)
	}
	sw := schedule.NewWorker(schedule.Config{
		Flats:       flats,
		Slots:       slots,
		MailboxSize: cfg.ScheduleMailboxSize,
	}, nw, zl, m)
	sw.Start()
	// 通知ワーカーより先に止める
	defer sw.Close()

	server := viewing.NewServer(sw, nw, viewing.Options{
		Port:            cfg.Port,
		JWTSecret:       cfg.JWTSecret,
		CORSOrigins:     cfg.CORSOrigins,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          zl,
		Metrics:         m,
	})

	zl.Info("viewingサービスを起動します",
		zap.String("port", cfg.Port),
		zap.Int("flats", len(flats)),
		zap.Int("slots", len(slots)),
		zap.String("notification_store", cfg.NotificationStore),
	)
	if err := server.Run(ctx); err != nil {
		return err
	}
	zl.Info("viewingサービスを停止しました")
	return nil
}

// openStore は設定に従って通知ストアを開く。
func openStore(ctx context.Context, cfg *config.Config, zl *zap.Logger) (notification.Store, error) {
	switch cfg.NotificationStore {
	case config.StoreSQLite:
		store, err := notification.OpenSQLiteStore(ctx, cfg.NotificationDSN, zl)
		if err != nil {
			return nil, fmt.Errorf("通知ストアの初期化に失敗: %w", err)
		}
		return store, nil
	default:
		return notification.NewMemoryStore(), nil
	}
}
