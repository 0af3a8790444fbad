package actor

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrClosed はワーカーが停止済みでコマンドを受け付けられない場合のエラー。
	ErrClosed = errors.New("ワーカーは停止しています")
	// ErrInternal はコマンド処理中に予期しない障害が発生した場合のエラー。
	ErrInternal = errors.New("ワーカー内部エラー")
)

// Mailbox は単一のコンシューマーゴルーチンが到着順に処理するコマンドキュー。
// ストアはこのゴルーチンからのみ触れられるため、ロックなしで相互排他が成立する。
type Mailbox[C any] struct {
	// ch はコマンドの受け渡しチャネル。容量0の場合はランデブー受け渡しになる。
	ch chan C
	// done はClose時にクローズされ、送信側と受信ループに停止を伝える。
	done chan struct{}
	// stopped はコンシューマーが残りのコマンドを処理し終えて終了した時にクローズされる。
	stopped chan struct{}
	// sending は送信中のSendが読み取りロックを保持する。
	// コンシューマーは書き込みロックで送信中のSendが抜けるのを待ってから残りを処理する。
	sending sync.RWMutex
	// closeOnce はCloseの多重実行を防ぐ。
	closeOnce sync.Once
	// runOnce はコンシューマーゴルーチンが1つだけ起動されることを保証する。
	runOnce sync.Once
}

// NewMailbox は指定容量のメールボックスを生成する。負の値は0として扱う。
func NewMailbox[C any](size int) *Mailbox[C] {
	if size < 0 {
		size = 0
	}
	return &Mailbox[C]{
		ch:      make(chan C, size),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Send はコマンドがメールボックスに受理されるまでブロックする。
// コンテキストが先に終了した場合はコマンドは受理されず、ctx.Err()を返す。
// nilを返したコマンドは停止処理中であっても必ず処理される。
func (m *Mailbox[C]) Send(ctx context.Context, cmd C) error {
	m.sending.RLock()
	defer m.sending.RUnlock()

	select {
	case <-m.done:
		return ErrClosed
	default:
	}

	select {
	case m.ch <- cmd:
		return nil
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run はコンシューマーゴルーチンを起動する。2回目以降の呼び出しは無視される。
// handleは1コマンドずつ到着順に呼び出され、前のコマンドが完了するまで次は始まらない。
func (m *Mailbox[C]) Run(handle func(C)) {
	m.runOnce.Do(func() {
		go func() {
			defer close(m.stopped)
			for {
				select {
				case cmd := <-m.ch:
					handle(cmd)
				case <-m.done:
					// 以降のSendはErrClosedになる。送信中のものが抜けてから残りを処理する
					m.sending.Lock()
					m.sending.Unlock()
					m.drain(handle)
					return
				}
			}
		}()
	})
}

// drain は停止時点でバッファに残っている受理済みコマンドを処理する。
func (m *Mailbox[C]) drain(handle func(C)) {
	for {
		select {
		case cmd := <-m.ch:
			handle(cmd)
		default:
			return
		}
	}
}

// Close はメールボックスを停止し、処理中と受理済みのコマンドの完了を待つ。複数回呼んでも安全。
// Runが呼ばれていない場合はそのまま停止済みになり、以降のRunは無視される。
func (m *Mailbox[C]) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	m.runOnce.Do(func() {
		close(m.stopped)
	})
	<-m.stopped
}

// Done はClose時にクローズされるチャネルを返す。
func (m *Mailbox[C]) Done() <-chan struct{} {
	return m.done
}

// Stopped はコンシューマーの終了時にクローズされるチャネルを返す。
// 応答待ちにはこちらを使う。Doneのクローズ後も受理済みのコマンドは処理されるため。
func (m *Mailbox[C]) Stopped() <-chan struct{} {
	return m.stopped
}

// Len はバッファに滞留しているコマンド数を返す。
func (m *Mailbox[C]) Len() int {
	return len(m.ch)
}

// Recover はパニックをErrInternalにラップして返す。
// ハンドラ内で defer と組み合わせて使用し、ワーカーゴルーチンの停止を防ぐ。
func Recover(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return fmt.Errorf("%w: %v", ErrInternal, r)
}
