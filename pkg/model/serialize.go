package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownNotificationType は "type" 判別子が既知のバリアントに一致しない場合のエラー。
var ErrUnknownNotificationType = errors.New("不明な通知タイプ")

// MarshalJSON はペイロードに "type" 判別子を付与してシリアライズする。
func (n ReservationConfirmation) MarshalJSON() ([]byte, error) {
	type plain ReservationConfirmation
	return json.Marshal(struct {
		plain
		Type NotificationType `json:"type"`
	}{plain(n), n.Type()})
}

// MarshalJSON はペイロードに "type" 判別子を付与してシリアライズする。
func (n NeedConfirmation) MarshalJSON() ([]byte, error) {
	type plain NeedConfirmation
	return json.Marshal(struct {
		plain
		Type NotificationType `json:"type"`
	}{plain(n), n.Type()})
}

// MarshalJSON はペイロードに "type" 判別子を付与してシリアライズする。
func (n ReservationCanceled) MarshalJSON() ([]byte, error) {
	type plain ReservationCanceled
	return json.Marshal(struct {
		plain
		Type NotificationType `json:"type"`
	}{plain(n), n.Type()})
}

// EncodeNotification は通知を判別子付きのJSONにシリアライズする。
func EncodeNotification(n Notification) ([]byte, error) {
	if n == nil {
		return nil, errors.New("通知がnilです")
	}
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("通知のシリアライズに失敗: %w", err)
	}
	return data, nil
}

// DecodeNotification は "type" 判別子を読み取り、対応するバリアントに復元する。
func DecodeNotification(data []byte) (Notification, error) {
	var head struct {
		Type NotificationType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("通知のデシリアライズに失敗: %w", err)
	}

	switch head.Type {
	case TypeReservationConfirmation:
		return decodeAs[ReservationConfirmation](data)
	case TypeNeedConfirmation:
		return decodeAs[NeedConfirmation](data)
	case TypeReservationCanceled:
		return decodeAs[ReservationCanceled](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNotificationType, head.Type)
	}
}

// decodeAs はJSONを指定されたバリアント型にデシリアライズする。
func decodeAs[T Notification](data []byte) (Notification, error) {
	var n T
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("%sのデシリアライズに失敗: %w", n.Type(), err)
	}
	return n, nil
}

// UnmarshalJSON は判別子付きのペイロードを含むレコードを復元する。
func (r *NotificationRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID           int             `json:"id"`
		Notification json.RawMessage `json:"notification"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("通知レコードのデシリアライズに失敗: %w", err)
	}

	n, err := DecodeNotification(raw.Notification)
	if err != nil {
		return err
	}
	r.ID = raw.ID
	r.Notification = n
	return nil
}
