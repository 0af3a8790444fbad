package actor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// TestMailboxOrdering はコマンドが送信順に1つずつ処理されることを検証する。
func TestMailboxOrdering(t *testing.T) {
	t.Parallel()

	m := NewMailbox[int](4)
	var got []int
	finished := make(chan struct{})
	m.Run(func(v int) {
		got = append(got, v)
		if v == 99 {
			close(finished)
		}
	})
	t.Cleanup(m.Close)

	for i := 0; i < 100; i++ {
		if err := m.Send(t.Context(), i); err != nil {
			t.Fatalf("Send(%d)でエラーが発生: %v", i, err)
		}
	}

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("全コマンドの処理がタイムアウトした")
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d, want %d", i, v, i)
		}
	}
}

// TestMailboxSerialHandling は並行送信でもハンドラが同時に実行されないことを検証する。
func TestMailboxSerialHandling(t *testing.T) {
	t.Parallel()

	m := NewMailbox[struct{}](0)
	var (
		active  int
		overlap bool
		count   int
	)
	m.Run(func(struct{}) {
		// 同時実行されるとactiveが1を超える
		active++
		if active > 1 {
			overlap = true
		}
		time.Sleep(time.Millisecond)
		count++
		active--
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Send(context.Background(), struct{}{})
		}()
	}
	wg.Wait()
	m.Close()

	if overlap {
		t.Error("ハンドラが同時に実行された")
	}
	if count != 20 {
		t.Errorf("処理件数 = %d, want 20", count)
	}
}

// TestMailboxClose は停止後の送信がErrClosedになることを検証する。
func TestMailboxClose(t *testing.T) {
	t.Parallel()

	t.Run("停止後の送信はErrClosed", func(t *testing.T) {
		t.Parallel()

		m := NewMailbox[int](1)
		m.Run(func(int) {})
		m.Close()
		m.Close()

		if err := m.Send(t.Context(), 1); !errors.Is(err, ErrClosed) {
			t.Errorf("err = %v, want ErrClosed", err)
		}
	})

	t.Run("受理済みのバッファ内コマンドは停止時に処理される", func(t *testing.T) {
		t.Parallel()

		m := NewMailbox[int](8)
		for i := 0; i < 5; i++ {
			if err := m.Send(t.Context(), i); err != nil {
				t.Fatalf("Send()でエラーが発生: %v", err)
			}
		}
		count := 0
		m.Run(func(int) { count++ })
		m.Close()

		if count != 5 {
			t.Errorf("処理件数 = %d, want 5", count)
		}
	})

	t.Run("受信されない送信はコンテキスト終了で諦める", func(t *testing.T) {
		t.Parallel()

		m := NewMailbox[int](0)
		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()

		if err := m.Send(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want DeadlineExceeded", err)
		}
	})
}

// TestMailboxCloseWhileBusy は停止処理中も受理済みのコマンドが処理されることを検証する。
func TestMailboxCloseWhileBusy(t *testing.T) {
	t.Parallel()

	t.Run("処理中のコマンドの応答を停止後に受け取れること", func(t *testing.T) {
		t.Parallel()

		m := NewMailbox[Reply[int]](0)
		entered := make(chan struct{})
		release := make(chan struct{})
		m.Run(func(r Reply[int]) {
			close(entered)
			<-release
			r.Complete(7)
		})

		r := NewReply[int]()
		if err := m.Send(t.Context(), r); err != nil {
			t.Fatalf("Send()でエラーが発生: %v", err)
		}
		<-entered

		closed := make(chan struct{})
		go func() {
			m.Close()
			close(closed)
		}()
		<-m.Done()

		got := make(chan error, 1)
		go func() {
			_, err := r.Await(context.Background(), m.Stopped())
			got <- err
		}()
		close(release)

		if err := <-got; err != nil {
			t.Errorf("Await() err = %v, want nil", err)
		}
		<-closed
	})

	t.Run("受理を返したコマンドは全て停止前に処理されること", func(t *testing.T) {
		t.Parallel()

		m := NewMailbox[int](4)
		var handled int
		m.Run(func(int) { handled++ })

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := m.Send(context.Background(), i); err == nil {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}()
		}
		m.Close()
		wg.Wait()

		if handled != accepted {
			t.Errorf("処理件数 = %d, 受理件数 = %d", handled, accepted)
		}
	})

	t.Run("Runを呼ばずに停止できること", func(t *testing.T) {
		t.Parallel()

		m := NewMailbox[int](0)
		m.Close()
		select {
		case <-m.Stopped():
		default:
			t.Error("Stopped()がクローズされていない")
		}
	})
}

// TestReply は応答ハンドルの一回性と待機動作を検証する。
func TestReply(t *testing.T) {
	t.Parallel()

	t.Run("最初の完了だけが有効", func(t *testing.T) {
		t.Parallel()

		r := NewReply[int]()
		r.Complete(1)
		r.Complete(2)
		r.Fail(errors.New("無視される"))

		v, err := r.Await(t.Context(), nil)
		if err != nil {
			t.Fatalf("Await()でエラーが発生: %v", err)
		}
		if v != 1 {
			t.Errorf("v = %d, want 1", v)
		}
	})

	t.Run("呼び出し側のタイムアウトでctx.Errを返す", func(t *testing.T) {
		t.Parallel()

		r := NewReply[bool]()
		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
		defer cancel()

		if _, err := r.Await(ctx, nil); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want DeadlineExceeded", err)
		}
	})

	t.Run("停止済みで応答がなければErrClosed", func(t *testing.T) {
		t.Parallel()

		r := NewReply[bool]()
		done := make(chan struct{})
		close(done)

		if _, err := r.Await(t.Context(), done); !errors.Is(err, ErrClosed) {
			t.Errorf("err = %v, want ErrClosed", err)
		}
	})
}

// TestRecover はパニック値がErrInternalにラップされることを検証する。
func TestRecover(t *testing.T) {
	t.Parallel()

	cause := errors.New("原因")
	if err := Recover(cause); !errors.Is(err, ErrInternal) || !errors.Is(err, cause) {
		t.Errorf("err = %v, want ErrInternal かつ 原因", err)
	}
	if err := Recover("文字列"); !errors.Is(err, ErrInternal) {
		t.Errorf("err = %v, want ErrInternal", err)
	}
}
