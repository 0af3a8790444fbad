// Package schedule は内見枠の予約状態機械を実行するスケジュールワーカーを提供する。
//
// Workerは物件ディレクトリと内見枠ストアを専有する単一のゴルーチンで、
// 予約・承認・拒否・取り消しのコマンドを到着順に1つずつ適用する。
// 状態遷移が受理されると、枠を書き換える前に通知をNotifierへ引き渡す。
// 引き渡しが受理されなかった場合、そのコマンドは内部エラーになり枠は変わらない。
//
// 拒否された枠（agreed=false）は取り消し後も閉じたままで、再予約はできない。
package schedule
