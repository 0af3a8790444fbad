package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderRequestID はリクエストIDを伝播するHTTPヘッダーキー。
	HeaderRequestID = "X-Request-ID"
	// contextKeyRequestID はGinコンテキストにリクエストIDを格納するキー。
	contextKeyRequestID = "request_id"
)

// RequestID はリクエストIDを払い出すGinミドルウェアを返す。
// X-Request-IDヘッダーがあればそれを引き継ぎ、なければUUIDを生成する。
// リクエストIDはレスポンスヘッダーにも設定する。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID はGinコンテキストからリクエストIDを取得する。未設定の場合は空文字列を返す。
func GetRequestID(c *gin.Context) string {
	return c.GetString(contextKeyRequestID)
}
