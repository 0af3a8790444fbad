// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// テナントIDの解決（クエリパラメータまたはJWT）、リクエストIDの払い出し、
// zapによるアクセスログ、パニックリカバリ、CORS設定を含む。
package middleware
