package viewing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mktitov/kiko-test/pkg/metrics"
	"github.com/mktitov/kiko-test/pkg/middleware"
	"github.com/mktitov/kiko-test/pkg/model"
)

// ServiceName はヘルスチェックとメトリクスに使うサービス名。
const ServiceName = "viewing"

// Scheduler はスケジュールワーカーが提供する操作。
type Scheduler interface {
	GetFlat(ctx context.Context, flatID int) (model.Flat, bool, error)
	GetSchedule(ctx context.Context, flatID int) ([]model.ViewingSlot, bool, error)
	Reserve(ctx context.Context, flatID int, slotTime int64, tenantID int) (bool, error)
	Confirm(ctx context.Context, flatID int, slotTime int64, tenantID int, agreed bool) (bool, error)
	Cancel(ctx context.Context, flatID int, slotTime int64, tenantID int) (bool, error)
}

// NotificationReader は通知ワーカーが提供する読み取り操作。
type NotificationReader interface {
	Read(ctx context.Context, tenantID int, fromID *int) ([]model.NotificationRecord, error)
}

// Options はHTTPサーバーの動作設定。
type Options struct {
	// Port はリッスンポート。
	Port string
	// JWTSecret はテナントトークンの署名鍵。空の場合はクエリパラメータのみでテナントを識別する。
	JWTSecret string
	// CORSOrigins はCORSで許可するオリジン。
	CORSOrigins []string
	// ShutdownTimeout はグレースフルシャットダウンの待ち時間。0以下なら10秒。
	ShutdownTimeout time.Duration
	// Logger はロガー。nilの場合は出力しない。
	Logger *zap.Logger
	// Metrics はメトリクス。nilの場合は記録しない。
	Metrics *metrics.Metrics
}

// Server はviewingサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// shutdownTimeout はグレースフルシャットダウンの待ち時間。
	shutdownTimeout time.Duration
	// schedule はスケジュールワーカー。
	schedule Scheduler
	// notifications は通知ワーカー。
	notifications NotificationReader
	// logger はロガー。
	logger *zap.Logger
}

// NewServer は新しいviewingサーバーを生成する。
func NewServer(schedule Scheduler, notifications NotificationReader, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.AccessLog(logger))
	router.Use(opts.Metrics.Middleware())
	router.Use(middleware.CORS(opts.CORSOrigins))
	router.Use(middleware.TenantAuth(opts.JWTSecret))

	s := &Server{
		router:          router,
		port:            opts.Port,
		shutdownTimeout: shutdownTimeout,
		schedule:        schedule,
		notifications:   notifications,
		logger:          logger,
	}
	s.setupRoutes(opts.Metrics)

	return s
}

// Handler はルーターをhttp.Handlerとして返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxが終了するとグレースフルシャットダウンする。
// 処理中のリクエストの完了を待ってから戻る。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("HTTPサーバーを停止します", zap.Duration("timeout", s.shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTPサーバーの停止に失敗: %w", err)
	}
	return nil
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes(m *metrics.Metrics) {
	flats := s.router.Group("/flats/:id")
	{
		flats.GET("", s.handleGetFlat())
		flats.GET("/schedules", s.handleGetSchedule())
	}

	// テナント必須のエンドポイント。テナントの確認はパスの解析より先に行う
	slots := flats.Group("/schedules/:time", middleware.RequireTenant())
	{
		slots.GET("/reserve", s.handleReserve())
		slots.GET("/confirm", s.handleConfirm(true))
		slots.GET("/reject", s.handleConfirm(false))
		slots.GET("/cancel", s.handleCancel())
	}

	notifications := s.router.Group("/notifications", middleware.RequireTenant())
	{
		notifications.GET("", s.handleNotifications())
		notifications.GET("/:from", s.handleNotifications())
	}

	s.router.GET("/metrics", gin.WrapH(m.Handler()))

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": ServiceName})
	})
}

// handleGetFlat は物件を返すハンドラを返す。
func (s *Server) handleGetFlat() gin.HandlerFunc {
	return func(c *gin.Context) {
		flatID, ok := flatIDParam(c)
		if !ok {
			return
		}

		flat, found, err := s.schedule.GetFlat(c.Request.Context(), flatID)
		if err != nil {
			s.internalError(c, err)
			return
		}
		if !found {
			notFound(c, "物件が見つかりません")
			return
		}
		c.JSON(http.StatusOK, flat)
	}
}

// handleGetSchedule は物件の内見枠一覧を返すハンドラを返す。
func (s *Server) handleGetSchedule() gin.HandlerFunc {
	return func(c *gin.Context) {
		flatID, ok := flatIDParam(c)
		if !ok {
			return
		}

		slots, found, err := s.schedule.GetSchedule(c.Request.Context(), flatID)
		if err != nil {
			s.internalError(c, err)
			return
		}
		if !found {
			notFound(c, "物件が見つかりません")
			return
		}
		c.JSON(http.StatusOK, slots)
	}
}

// handleReserve は内見枠を予約するハンドラを返す。
func (s *Server) handleReserve() gin.HandlerFunc {
	return s.handleSlotCommand(s.schedule.Reserve)
}

// handleConfirm は入居者が予約を承認または拒否するハンドラを返す。
func (s *Server) handleConfirm(agreed bool) gin.HandlerFunc {
	return s.handleSlotCommand(func(ctx context.Context, flatID int, slotTime int64, tenantID int) (bool, error) {
		return s.schedule.Confirm(ctx, flatID, slotTime, tenantID, agreed)
	})
}

// handleCancel は予約者が予約を取り消すハンドラを返す。
func (s *Server) handleCancel() gin.HandlerFunc {
	return s.handleSlotCommand(s.schedule.Cancel)
}

// slotCommand は内見枠に対する状態遷移の呼び出し。
type slotCommand func(ctx context.Context, flatID int, slotTime int64, tenantID int) (bool, error)

// handleSlotCommand はパスの物件IDと時刻を解析し、状態遷移の結果をboolで返すハンドラを返す。
// 業務ルールによる拒否は200でfalseを返す。
func (s *Server) handleSlotCommand(run slotCommand) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _ := middleware.GetTenantID(c)
		flatID, ok := flatIDParam(c)
		if !ok {
			return
		}
		slotTime, err := strconv.ParseInt(c.Param("time"), 10, 64)
		if err != nil {
			notFound(c, "時刻の形式が不正です")
			return
		}

		accepted, err := run(c.Request.Context(), flatID, slotTime, tenantID)
		if err != nil {
			s.internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, accepted)
	}
}

// handleNotifications はテナントの通知一覧を返すハンドラを返す。
// パスの from が整数として解釈できない場合はカーソルなしとして扱う。
func (s *Server) handleNotifications() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _ := middleware.GetTenantID(c)

		var fromID *int
		if from, err := strconv.Atoi(c.Param("from")); err == nil {
			fromID = &from
		}

		records, err := s.notifications.Read(c.Request.Context(), tenantID, fromID)
		if err != nil {
			s.internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
	}
}

// flatIDParam はパスの物件IDを解析する。解析できない場合は404を返してfalse。
func flatIDParam(c *gin.Context) (int, bool) {
	flatID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		notFound(c, "物件IDの形式が不正です")
		return 0, false
	}
	return flatID, true
}

// notFound は404エラーを返す。
func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, gin.H{"error": msg})
}

// internalError はワーカーの内部障害を500エラーとして返す。
func (s *Server) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	s.logger.Error("リクエスト処理中に内部エラーが発生しました",
		zap.String("path", c.FullPath()),
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "内部エラーが発生しました"})
}
