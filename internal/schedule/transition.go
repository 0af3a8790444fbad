package schedule

import "github.com/mktitov/kiko-test/pkg/model"

// delivery は状態遷移に伴って送る通知と宛先テナント。
type delivery struct {
	tenantID     int
	notification model.Notification
}

// transition は受理された状態遷移の結果。
type transition struct {
	// slot は遷移後の枠。
	slot model.ViewingSlot
	// notice は送るべき通知。nilなら通知しない。
	notice *delivery
}

// reserve は予約の状態遷移を計算する。前提条件を満たさなければfalse。
// 空室なら即時確定して予約者に、入居中なら入居者に判断依頼を通知する。
func reserve(flat *model.Flat, slot *model.ViewingSlot, tenantID int) (transition, bool) {
	if flat == nil || slot == nil {
		return transition{}, false
	}
	if slot.Agreed == model.AgreementRejected || slot.RequestedBy != nil || flat.OccupiedBy(tenantID) {
		return transition{}, false
	}

	next := slot.Clone()
	next.RequestedBy = model.TenantRef(tenantID)

	if flat.Vacant() {
		next.Agreed = model.AgreementConfirmed
		return transition{
			slot: next,
			notice: &delivery{
				tenantID:     tenantID,
				notification: model.ReservationConfirmation{FlatID: slot.FlatID, Time: slot.Time, Agreed: true},
			},
		}, true
	}

	return transition{
		slot: next,
		notice: &delivery{
			tenantID:     *flat.CurrentTenantID,
			notification: model.NeedConfirmation{FlatID: slot.FlatID, Time: slot.Time},
		},
	}, true
}

// confirm は入居者による承認・拒否の状態遷移を計算する。
// 判断できるのは入居者本人だけで、対象は判断待ちの枠に限る。
func confirm(flat *model.Flat, slot *model.ViewingSlot, tenantID int, agreed bool) (transition, bool) {
	if flat == nil || flat.Vacant() || !flat.OccupiedBy(tenantID) {
		return transition{}, false
	}
	if slot == nil || slot.RequestedBy == nil || slot.Agreed != model.AgreementPending {
		return transition{}, false
	}

	next := slot.Clone()
	next.Agreed = model.AgreementOf(agreed)
	return transition{
		slot: next,
		notice: &delivery{
			tenantID:     *slot.RequestedBy,
			notification: model.ReservationConfirmation{FlatID: flat.ID, Time: slot.Time, Agreed: agreed},
		},
	}, true
}

// cancel は予約者による取り消しの状態遷移を計算する。
// 拒否済みの枠は取り消し後も閉じたままで、入居者への通知も行わない。
func cancel(flat *model.Flat, slot *model.ViewingSlot, tenantID int) (transition, bool) {
	if slot == nil || !slot.RequestedByTenant(tenantID) {
		return transition{}, false
	}

	rejected := slot.Agreed == model.AgreementRejected
	next := slot.Clone()
	next.RequestedBy = nil
	if !rejected {
		next.Agreed = model.AgreementPending
	}

	t := transition{slot: next}
	if flat != nil && !flat.Vacant() && !rejected {
		t.notice = &delivery{
			tenantID:     *flat.CurrentTenantID,
			notification: model.ReservationCanceled{FlatID: flat.ID, Time: slot.Time},
		}
	}
	return t, true
}
