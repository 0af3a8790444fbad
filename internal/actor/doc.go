// Package actor はワーカーが共有するメッセージパッシングの基盤を提供する。
//
// 各ワーカーは1つのMailboxを持ち、単一のゴルーチンがコマンドを到着順に処理する。
// 呼び出し側はコマンドに一回限りのReplyを同梱して送信し、応答を待つ。
package actor
