package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mktitov/kiko-test/pkg/model"
)

var (
	// ErrNotFound はサーバーが404を返した場合のエラー。
	ErrNotFound = errors.New("リソースが見つかりません")
	// ErrUnauthorized はサーバーが401を返した場合のエラー。
	ErrUnauthorized = errors.New("テナントの認証に失敗しました")
)

// StatusError は2xx以外のレスポンスを表すエラー。
type StatusError struct {
	// StatusCode はHTTPステータスコード。
	StatusCode int
	// Body はレスポンスボディ。
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTPエラー: status=%d, body=%s", e.StatusCode, e.Body)
}

// Unwrap はステータスコードに対応する番兵エラーを返す。
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return nil
	}
}

// Client はviewingサービスのAPIクライアント。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先サービスのベースURL。
	baseURL string
}

// New は新しいAPIクライアントを生成する。
// baseURLには接続先のベースURL（例: "http://localhost:8080"）を指定する。
// httpClientがnilの場合はタイムアウト30秒のクライアントを使う。
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// GetFlat は物件を取得する。
func (c *Client) GetFlat(ctx context.Context, flatID int) (model.Flat, error) {
	var flat model.Flat
	err := c.getJSON(ctx, fmt.Sprintf("/flats/%d", flatID), &flat)
	return flat, err
}

// GetSchedule は物件の内見枠一覧を取得する。
func (c *Client) GetSchedule(ctx context.Context, flatID int) ([]model.ViewingSlot, error) {
	var slots []model.ViewingSlot
	err := c.getJSON(ctx, fmt.Sprintf("/flats/%d/schedules", flatID), &slots)
	return slots, err
}

// Reserve は内見枠を予約する。受理された場合true。
func (c *Client) Reserve(ctx context.Context, flatID int, slotTime int64) (bool, error) {
	return c.slotAction(ctx, flatID, slotTime, "reserve")
}

// Confirm は入居者として予約を承認する。
func (c *Client) Confirm(ctx context.Context, flatID int, slotTime int64) (bool, error) {
	return c.slotAction(ctx, flatID, slotTime, "confirm")
}

// Reject は入居者として予約を拒否する。
func (c *Client) Reject(ctx context.Context, flatID int, slotTime int64) (bool, error) {
	return c.slotAction(ctx, flatID, slotTime, "reject")
}

// Cancel は予約者として予約を取り消す。
func (c *Client) Cancel(ctx context.Context, flatID int, slotTime int64) (bool, error) {
	return c.slotAction(ctx, flatID, slotTime, "cancel")
}

// Notifications はテナントの通知一覧を取得する。fromがnilでなければそのID以降を返す。
func (c *Client) Notifications(ctx context.Context, from *int) ([]model.NotificationRecord, error) {
	path := "/notifications"
	if from != nil {
		path += "/" + strconv.Itoa(*from)
	}
	var records []model.NotificationRecord
	err := c.getJSON(ctx, path, &records)
	return records, err
}

// slotAction は枠の状態遷移エンドポイントを呼び出す。
func (c *Client) slotAction(ctx context.Context, flatID int, slotTime int64, action string) (bool, error) {
	var accepted bool
	err := c.getJSON(ctx, fmt.Sprintf("/flats/%d/schedules/%d/%s", flatID, slotTime, action), &accepted)
	return accepted, err
}

// getJSON はGETリクエストを送信し、レスポンスボディをresultにデシリアライズする。
func (c *Client) getJSON(ctx context.Context, path string, result any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("URLの組み立てに失敗: %w", err)
	}

	// コンテキストからテナントを伝播する
	if tenantID, ok := ctx.Value(contextKeyTenantID).(int); ok {
		q := u.Query()
		q.Set("tenantId", strconv.Itoa(tenantID))
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token, ok := ctx.Value(contextKeyToken).(string); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
	}
	return nil
}

// contextKey はコンテキストキーの型。
type contextKey string

const (
	// contextKeyTenantID はコンテキストにテナントIDを格納するためのキー。
	contextKeyTenantID contextKey = "tenant_id"
	// contextKeyToken はコンテキストにBearerトークンを格納するためのキー。
	contextKeyToken contextKey = "token"
)

// WithTenantID はコンテキストにテナントIDを設定する。
// リクエストにはクエリパラメータ tenantId として付与される。
func WithTenantID(ctx context.Context, tenantID int) context.Context {
	return context.WithValue(ctx, contextKeyTenantID, tenantID)
}

// WithToken はコンテキストにBearerトークンを設定する。
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKeyToken, token)
}
