// Package viewing は内見予約サービスのHTTP境界層を提供する。
//
// リクエストをスケジュールワーカーと通知ワーカーへのコマンドに変換し、
// 応答をJSONで返す。テナントはクエリパラメータ tenantId またはBearerトークンで識別する。
package viewing
