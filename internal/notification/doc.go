// Package notification はテナントごとの通知ログを管理する通知ワーカーを提供する。
//
// Workerは通知ストアを専有する単一のゴルーチンで、追記と読み取りを到着順に処理する。
// レコードIDはテナントごとに0から始まる連番で、追記時にワーカーが採番する。
// ストアはインメモリ（MemoryStore）とSQLite（SQLiteStore）から選択できる。
package notification
