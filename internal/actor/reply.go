package actor

import "context"

// Outcome はコマンド処理の結果。ErrがnilでなければValueは無効。
type Outcome[T any] struct {
	// Value は処理結果の値。
	Value T
	// Err は内部障害を表すエラー。業務ルールによる拒否はErrではなくValueで表す。
	Err error
}

// Reply はコマンドごとの一回限りの応答ハンドル。
// 容量1のチャネルなので、ワーカーは応答送信でブロックしない。
type Reply[T any] chan Outcome[T]

// NewReply は新しい応答ハンドルを生成する。
func NewReply[T any]() Reply[T] {
	return make(Reply[T], 1)
}

// Complete は処理結果を返す。最初の完了だけが有効で、以降の呼び出しは無視される。
func (r Reply[T]) Complete(v T) {
	select {
	case r <- Outcome[T]{Value: v}:
	default:
	}
}

// Fail はエラーを返す。最初の完了だけが有効で、以降の呼び出しは無視される。
func (r Reply[T]) Fail(err error) {
	select {
	case r <- Outcome[T]{Err: err}:
	default:
	}
}

// Await は応答を待つ。呼び出し側のコンテキストが終了した場合は待機をやめてctx.Err()を返すが、
// 受理済みのコマンド自体は最後まで実行される。
// stoppedにはMailbox.Stoppedを渡す。コンシューマーが終了しても応答がない場合はErrClosed。
func (r Reply[T]) Await(ctx context.Context, stopped <-chan struct{}) (T, error) {
	var zero T
	select {
	case o := <-r:
		return o.Value, o.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-stopped:
		// 停止と応答が同時に起きた場合は応答を優先する
		select {
		case o := <-r:
			return o.Value, o.Err
		default:
			return zero, ErrClosed
		}
	}
}
