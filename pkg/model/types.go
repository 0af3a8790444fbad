package model

// Flat は内見対象の賃貸物件を表す。
// プロセスの生存期間中は不変で、スケジュールワーカーの起動時にディレクトリから生成される。
type Flat struct {
	// ID は物件の一意識別子。
	ID int `json:"id"`
	// Address は表示用の住所文字列。
	Address string `json:"address"`
	// CurrentTenantID は現在の入居者のテナントID。nilの場合は空室。
	CurrentTenantID *int `json:"currentTenantId"`
}

// Vacant は物件が空室かどうかを返す。
func (f Flat) Vacant() bool {
	return f.CurrentTenantID == nil
}

// OccupiedBy は指定テナントが現在の入居者かどうかを返す。
func (f Flat) OccupiedBy(tenantID int) bool {
	return f.CurrentTenantID != nil && *f.CurrentTenantID == tenantID
}

// Clone はポインタフィールドを複製した物件のコピーを返す。
func (f Flat) Clone() Flat {
	if f.CurrentTenantID != nil {
		f.CurrentTenantID = TenantRef(*f.CurrentTenantID)
	}
	return f
}

// SlotState は (RequestedBy, Agreed) の組から導出される内見枠の論理状態。
type SlotState string

const (
	// SlotStateOpen は予約可能な空き枠を表す。
	SlotStateOpen SlotState = "open"
	// SlotStatePending は入居者の判断待ちの枠を表す。
	SlotStatePending SlotState = "pending_owner_decision"
	// SlotStateConfirmed は確定済みの枠を表す。
	SlotStateConfirmed SlotState = "confirmed"
	// SlotStateClosed は拒否されて閉じられた枠を表す。終端状態。
	SlotStateClosed SlotState = "closed"
)

// ViewingSlot は物件ごとの1つの内見枠を表す。
// スケジュールワーカーの状態遷移関数からのみ更新され、削除されることはない。
type ViewingSlot struct {
	// FlatID は所属する物件のID。
	FlatID int `json:"flatId"`
	// Time は枠の開始時刻（Unix秒）。物件内で一意。
	Time int64 `json:"time"`
	// RequestedBy は現在予約を保持しているテナントのID。nilの場合は未予約。
	RequestedBy *int `json:"requestedBy"`
	// Agreed は入居者の判断状態。
	Agreed Agreement `json:"agreed"`
}

// State は枠の論理状態を返す。
func (s ViewingSlot) State() SlotState {
	switch {
	case s.Agreed == AgreementRejected:
		return SlotStateClosed
	case s.RequestedBy == nil:
		return SlotStateOpen
	case s.Agreed == AgreementConfirmed:
		return SlotStateConfirmed
	default:
		return SlotStatePending
	}
}

// RequestedByTenant は指定テナントが予約保持者かどうかを返す。
func (s ViewingSlot) RequestedByTenant(tenantID int) bool {
	return s.RequestedBy != nil && *s.RequestedBy == tenantID
}

// Clone はポインタフィールドを複製した枠のコピーを返す。
// ワーカーの外へ渡す値がストア内部の状態を共有しないようにするために使用する。
func (s ViewingSlot) Clone() ViewingSlot {
	if s.RequestedBy != nil {
		s.RequestedBy = TenantRef(*s.RequestedBy)
	}
	return s
}

// TenantRef はテナントIDのポインタを返すヘルパー関数。
func TenantRef(id int) *int {
	return &id
}
