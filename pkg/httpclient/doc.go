// Package httpclient はviewingサービスのAPIを呼び出すクライアントを提供する。
//
// テナントIDとBearerトークンはコンテキスト経由で渡す。
// 業務ルールによる拒否はfalseで返り、404と401はそれぞれ ErrNotFound と ErrUnauthorized になる。
package httpclient
