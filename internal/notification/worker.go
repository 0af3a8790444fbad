package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mktitov/kiko-test/internal/actor"
	"github.com/mktitov/kiko-test/pkg/metrics"
	"github.com/mktitov/kiko-test/pkg/model"
)

// workerName はメトリクスとログに使うワーカー名。
const workerName = "notification"

// command は通知ワーカーのメールボックスに流れるコマンド。
type command interface {
	name() string
}

// appendCmd は通知の追記コマンド。応答を持たない。
type appendCmd struct {
	tenantID     int
	notification model.Notification
}

// readCmd は通知の読み取りコマンド。
type readCmd struct {
	tenantID int
	fromID   *int
	reply    actor.Reply[[]model.NotificationRecord]
}

func (appendCmd) name() string { return "append" }
func (readCmd) name() string   { return "read" }

// Worker は通知ストアを専有する直列コマンドプロセッサ。
// ストアに触れるのは内部の単一ゴルーチンだけで、呼び出し側とはメールボックスで通信する。
type Worker struct {
	// store は通知ストア。ワーカーのゴルーチンからのみ参照する。
	store Store
	// mailbox はコマンドを受け付けるメールボックス。
	mailbox *actor.Mailbox[command]
	// logger はロガー。
	logger *zap.Logger
	// metrics はコマンド処理結果の記録先。nilでもよい。
	metrics *metrics.Metrics
}

// NewWorker は通知ワーカーを生成する。Startを呼ぶまでコマンドは処理されない。
func NewWorker(store Store, mailboxSize int, logger *zap.Logger, m *metrics.Metrics) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		store:   store,
		mailbox: actor.NewMailbox[command](mailboxSize),
		logger:  logger.With(zap.String("worker", workerName)),
		metrics: m,
	}
}

// Start はコマンド処理ゴルーチンを起動する。
func (w *Worker) Start() {
	w.mailbox.Run(w.handle)
}

// Close はワーカーを停止し、受理済みのコマンドを処理し終えてからストアを閉じる。
func (w *Worker) Close() error {
	w.mailbox.Close()
	return w.store.Close()
}

// Append は通知の追記をワーカーに引き渡す。
// 返すエラーは引き渡しが受理されなかった場合（停止済み・コンテキスト終了）のみで、
// 受理後のストア障害はログとメトリクスに記録される。
func (w *Worker) Append(ctx context.Context, tenantID int, n model.Notification) error {
	return w.mailbox.Send(ctx, appendCmd{tenantID: tenantID, notification: n})
}

// Notify はAppendの別名で、スケジュールワーカーからの通知の引き渡し口になる。
func (w *Worker) Notify(ctx context.Context, tenantID int, n model.Notification) error {
	return w.Append(ctx, tenantID, n)
}

// Read はテナントの通知レコードをID昇順で返す。
// fromIDを指定するとID >= fromIDのレコードのみを返す。通知がないテナントは空スライスになる。
func (w *Worker) Read(ctx context.Context, tenantID int, fromID *int) ([]model.NotificationRecord, error) {
	if fromID != nil {
		from := *fromID
		fromID = &from
	}
	reply := actor.NewReply[[]model.NotificationRecord]()
	if err := w.mailbox.Send(ctx, readCmd{tenantID: tenantID, fromID: fromID, reply: reply}); err != nil {
		return nil, err
	}
	return reply.Await(ctx, w.mailbox.Stopped())
}

// handle は1コマンドを処理する。パニックは回復して呼び出し側に内部エラーとして返す。
func (w *Worker) handle(cmd command) {
	defer func() { w.metrics.SetMailboxDepth(workerName, w.mailbox.Len()) }()
	defer func() {
		if r := recover(); r != nil {
			err := actor.Recover(r)
			w.logger.Error("コマンド処理中にパニックが発生しました",
				zap.String("command", cmd.name()),
				zap.Error(err),
			)
			w.metrics.ObserveCommand(workerName, cmd.name(), metrics.OutcomeError)
			if c, ok := cmd.(readCmd); ok {
				c.reply.Fail(err)
			}
		}
	}()

	switch c := cmd.(type) {
	case appendCmd:
		w.handleAppend(c)
	case readCmd:
		w.handleRead(c)
	}
}

// handleAppend は通知をストアに追記する。
func (w *Worker) handleAppend(c appendCmd) {
	rec, err := w.store.Append(c.tenantID, c.notification)
	if err != nil {
		w.logger.Error("通知の保存に失敗しました",
			zap.Int("tenant_id", c.tenantID),
			zap.String("type", string(c.notification.Type())),
			zap.Error(err),
		)
		w.metrics.ObserveCommand(workerName, c.name(), metrics.OutcomeError)
		return
	}
	w.logger.Debug("通知を保存しました",
		zap.Int("tenant_id", c.tenantID),
		zap.Int("id", rec.ID),
		zap.String("type", string(c.notification.Type())),
	)
	w.metrics.ObserveCommand(workerName, c.name(), metrics.OutcomeOK)
}

// handleRead はストアから通知レコードを読み取って応答する。
func (w *Worker) handleRead(c readCmd) {
	records, err := w.store.List(c.tenantID, c.fromID)
	if err != nil {
		w.logger.Error("通知の取得に失敗しました", zap.Int("tenant_id", c.tenantID), zap.Error(err))
		w.metrics.ObserveCommand(workerName, c.name(), metrics.OutcomeError)
		c.reply.Fail(fmt.Errorf("%w: %w", actor.ErrInternal, err))
		return
	}
	w.metrics.ObserveCommand(workerName, c.name(), metrics.OutcomeOK)
	c.reply.Complete(records)
}
