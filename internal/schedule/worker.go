package schedule

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mktitov/kiko-test/internal/actor"
	"github.com/mktitov/kiko-test/pkg/metrics"
	"github.com/mktitov/kiko-test/pkg/model"
)

//go:generate mockgen -source=worker.go -destination=../mocks/mock_notifier.go -package=mocks Notifier

// workerName はメトリクスとログに使うワーカー名。
const workerName = "schedule"

// Notifier は状態遷移に伴う通知の引き渡し先。
// 引き渡しが受理されるまでブロックし、受理されなかった場合はエラーを返す。
type Notifier interface {
	Notify(ctx context.Context, tenantID int, n model.Notification) error
}

// Config はスケジュールワーカーの初期状態と動作設定。
type Config struct {
	// Flats は物件ディレクトリ。起動後は変更されない。
	Flats []model.Flat
	// Slots は初期の内見枠。
	Slots []model.ViewingSlot
	// MailboxSize はメールボックスの容量。0の場合はランデブー受け渡し。
	MailboxSize int
}

// Worker は物件ディレクトリと内見枠ストアを専有する直列コマンドプロセッサ。
// 予約・承認・取り消しの状態遷移を1コマンドずつ到着順に適用する。
type Worker struct {
	// flats は物件ID → 物件のディレクトリ。
	flats map[int]model.Flat
	// store は内見枠ストア。ワーカーのゴルーチンからのみ参照する。
	store *Store
	// notifier は通知の引き渡し先。
	notifier Notifier
	// mailbox はコマンドを受け付けるメールボックス。
	mailbox *actor.Mailbox[command]
	// logger はロガー。
	logger *zap.Logger
	// metrics はコマンド処理結果の記録先。nilでもよい。
	metrics *metrics.Metrics
}

// NewWorker はスケジュールワーカーを生成する。Startを呼ぶまでコマンドは処理されない。
func NewWorker(cfg Config, notifier Notifier, logger *zap.Logger, m *metrics.Metrics) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	flats := make(map[int]model.Flat, len(cfg.Flats))
	for _, f := range cfg.Flats {
		flats[f.ID] = f.Clone()
	}
	return &Worker{
		flats:    flats,
		store:    NewStore(cfg.Slots),
		notifier: notifier,
		mailbox:  actor.NewMailbox[command](cfg.MailboxSize),
		logger:   logger.With(zap.String("worker", workerName)),
		metrics:  m,
	}
}

// Start はコマンド処理ゴルーチンを起動する。
func (w *Worker) Start() {
	w.mailbox.Run(w.handle)
}

// Close はワーカーを停止し、受理済みのコマンドを処理し終えるまで待つ。
func (w *Worker) Close() {
	w.mailbox.Close()
}

// GetFlat は物件を返す。存在しない場合はfalse。
func (w *Worker) GetFlat(ctx context.Context, flatID int) (model.Flat, bool, error) {
	cmd := getFlatCmd{flatID: flatID, reply: actor.NewReply[lookup[model.Flat]]()}
	r, err := call(ctx, w, cmd, cmd.reply)
	return r.value, r.found, err
}

// GetSchedule は物件の全枠を時刻昇順で返す。物件が存在しない場合はfalse。
func (w *Worker) GetSchedule(ctx context.Context, flatID int) ([]model.ViewingSlot, bool, error) {
	cmd := getScheduleCmd{flatID: flatID, reply: actor.NewReply[lookup[[]model.ViewingSlot]]()}
	r, err := call(ctx, w, cmd, cmd.reply)
	return r.value, r.found, err
}

// Reserve は枠を予約する。前提条件を満たさない場合はfalseを返し、状態は変わらない。
func (w *Worker) Reserve(ctx context.Context, flatID int, time int64, tenantID int) (bool, error) {
	cmd := reserveCmd{slotCmd: newSlotCmd(flatID, time, tenantID)}
	return call(ctx, w, cmd, cmd.reply)
}

// Confirm は入居者として判断待ちの予約を承認（agreed=true）または拒否する。
func (w *Worker) Confirm(ctx context.Context, flatID int, time int64, tenantID int, agreed bool) (bool, error) {
	cmd := confirmCmd{slotCmd: newSlotCmd(flatID, time, tenantID), agreed: agreed}
	return call(ctx, w, cmd, cmd.reply)
}

// Cancel は予約者として自分の予約を取り消す。
func (w *Worker) Cancel(ctx context.Context, flatID int, time int64, tenantID int) (bool, error) {
	cmd := cancelCmd{slotCmd: newSlotCmd(flatID, time, tenantID)}
	return call(ctx, w, cmd, cmd.reply)
}

// call はコマンドをメールボックスに送り、応答を待つ。
// 呼び出し側のコンテキストが応答前に終了しても、受理済みのコマンドは最後まで実行される。
func call[T any](ctx context.Context, w *Worker, cmd command, reply actor.Reply[T]) (T, error) {
	if err := w.mailbox.Send(ctx, cmd); err != nil {
		var zero T
		return zero, err
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
			cmd.fail(err)
		}
	}()

	switch c := cmd.(type) {
	case getFlatCmd:
		flat, ok := w.flats[c.flatID]
		w.observeLookup(c, ok)
		c.reply.Complete(lookup[model.Flat]{value: flat.Clone(), found: ok})
	case getScheduleCmd:
		slots, ok := w.scheduleOf(c.flatID)
		w.observeLookup(c, ok)
		c.reply.Complete(lookup[[]model.ViewingSlot]{value: slots, found: ok})
	case reserveCmd:
		flat, slot := w.resolve(c.slotRef)
		t, ok := reserve(flat, slot, c.tenantID)
		w.commit(c, c.slotCmd, t, ok)
	case confirmCmd:
		flat, slot := w.resolve(c.slotRef)
		t, ok := confirm(flat, slot, c.tenantID, c.agreed)
		w.commit(c, c.slotCmd, t, ok)
	case cancelCmd:
		flat, slot := w.resolve(c.slotRef)
		t, ok := cancel(flat, slot, c.tenantID)
		w.commit(c, c.slotCmd, t, ok)
	}
}

// scheduleOf は物件の枠一覧を返す。物件がディレクトリになければfalse。
func (w *Worker) scheduleOf(flatID int) ([]model.ViewingSlot, bool) {
	if _, ok := w.flats[flatID]; !ok {
		return nil, false
	}
	slots, ok := w.store.List(flatID)
	if !ok {
		slots = []model.ViewingSlot{}
	}
	return slots, true
}

// resolve はコマンドが参照する物件と枠を引く。存在しないものはnilになる。
func (w *Worker) resolve(ref slotRef) (*model.Flat, *model.ViewingSlot) {
	var (
		flat *model.Flat
		slot *model.ViewingSlot
	)
	if f, ok := w.flats[ref.flatID]; ok {
		flat = &f
	}
	if s, ok := w.store.Get(ref.flatID, ref.time); ok {
		slot = &s
	}
	return flat, slot
}

// commit は受理された状態遷移を適用する。
// 通知の引き渡しを先に行い、受理された場合にだけ枠を書き換える。
func (w *Worker) commit(cmd command, sc slotCmd, t transition, accepted bool) {
	if !accepted {
		w.metrics.ObserveCommand(workerName, cmd.name(), metrics.OutcomeRejected)
		sc.reply.Complete(false)
		return
	}

	if t.notice != nil {
		if err := w.notifier.Notify(context.Background(), t.notice.tenantID, t.notice.notification); err != nil {
			w.logger.Error("通知の引き渡しに失敗しました",
				zap.String("command", cmd.name()),
				zap.Int("flat_id", sc.flatID),
				zap.Int64("time", sc.time),
				zap.Error(err),
			)
			w.metrics.ObserveCommand(workerName, cmd.name(), metrics.OutcomeError)
			sc.reply.Fail(fmt.Errorf("%w: 通知の引き渡しに失敗: %w", actor.ErrInternal, err))
			return
		}
	}

	w.store.Update(t.slot)
	w.logger.Debug("状態遷移を適用しました",
		zap.String("command", cmd.name()),
		zap.Int("flat_id", sc.flatID),
		zap.Int64("time", sc.time),
		zap.Int("tenant_id", sc.tenantID),
		zap.String("state", string(t.slot.State())),
	)
	w.metrics.ObserveCommand(workerName, cmd.name(), metrics.OutcomeAccepted)
	sc.reply.Complete(true)
}

// observeLookup は参照系コマンドの結果を記録する。
func (w *Worker) observeLookup(cmd command, found bool) {
	outcome := metrics.OutcomeOK
	if !found {
		outcome = metrics.OutcomeNotFound
	}
	w.metrics.ObserveCommand(workerName, cmd.name(), outcome)
}
