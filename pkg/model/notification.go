package model

// NotificationType は通知の種類を表す。JSONの "type" 判別子にそのまま使われる。
type NotificationType string

const (
	// TypeReservationConfirmation は予約の確定または拒否を予約者に伝える通知。
	TypeReservationConfirmation NotificationType = "ReservationConfirmation"
	// TypeNeedConfirmation は入居者に予約の判断を求める通知。
	TypeNeedConfirmation NotificationType = "NeedConfirmation"
	// TypeReservationCanceled は予約の取り消しを入居者に伝える通知。
	TypeReservationCanceled NotificationType = "ReservationCanceled"
)

// Notification は通知ペイロードの閉じた直和型。
// 非公開メソッドを持つため、このパッケージ外で新しいバリアントを定義することはできない。
type Notification interface {
	// Type は通知の種類を返す。
	Type() NotificationType
	// Slot は通知対象の内見枠（物件IDと時刻）を返す。
	Slot() (flatID int, time int64)

	notification()
}

// ReservationConfirmation は予約の判断結果を予約者に伝える通知。
type ReservationConfirmation struct {
	// FlatID は対象物件のID。
	FlatID int `json:"flatId"`
	// Time は対象枠の時刻（Unix秒）。
	Time int64 `json:"time"`
	// Agreed は予約が確定した場合true、拒否された場合false。
	Agreed bool `json:"agreed"`
}

// NeedConfirmation は入居者に予約の判断を求める通知。
type NeedConfirmation struct {
	// FlatID は対象物件のID。
	FlatID int `json:"flatId"`
	// Time は対象枠の時刻（Unix秒）。
	Time int64 `json:"time"`
}

// ReservationCanceled は予約が取り消されたことを入居者に伝える通知。
type ReservationCanceled struct {
	// FlatID は対象物件のID。
	FlatID int `json:"flatId"`
	// Time は対象枠の時刻（Unix秒）。
	Time int64 `json:"time"`
}

func (ReservationConfirmation) Type() NotificationType { return TypeReservationConfirmation }
func (NeedConfirmation) Type() NotificationType        { return TypeNeedConfirmation }
func (ReservationCanceled) Type() NotificationType     { return TypeReservationCanceled }

func (n ReservationConfirmation) Slot() (int, int64) { return n.FlatID, n.Time }
func (n NeedConfirmation) Slot() (int, int64)        { return n.FlatID, n.Time }
func (n ReservationCanceled) Slot() (int, int64)     { return n.FlatID, n.Time }

func (ReservationConfirmation) notification() {}
func (NeedConfirmation) notification()        {}
func (ReservationCanceled) notification()     {}

// NotificationRecord はテナントごとの通知ログの1レコードを表す。
// IDは通知ワーカーが追記時に採番する0始まりの連番で、テナントごとに独立している。
type NotificationRecord struct {
	// ID はテナント内で一意かつ単調増加する連番。
	ID int `json:"id"`
	// Notification は通知ペイロード。
	Notification Notification `json:"notification"`
}
