package schedule

import (
	"github.com/mktitov/kiko-test/internal/actor"
	"github.com/mktitov/kiko-test/pkg/model"
)

// command はスケジュールワーカーのメールボックスに流れるコマンド。
type command interface {
	// name はログとメトリクスに使うコマンド名を返す。
	name() string
	// fail は内部障害を呼び出し側に返す。
	fail(err error)
}

// lookup は参照系コマンドの結果。foundがfalseなら対象は存在しない。
type lookup[T any] struct {
	value T
	found bool
}

// getFlatCmd は物件の取得コマンド。
type getFlatCmd struct {
	flatID int
	reply  actor.Reply[lookup[model.Flat]]
}

// getScheduleCmd は物件の枠一覧の取得コマンド。
type getScheduleCmd struct {
	flatID int
	reply  actor.Reply[lookup[[]model.ViewingSlot]]
}

// slotRef は状態遷移コマンドの対象枠と操作テナント。
type slotRef struct {
	flatID   int
	time     int64
	tenantID int
}

// slotCmd は状態遷移コマンドの共通部分。
type slotCmd struct {
	slotRef
	reply actor.Reply[bool]
}

// reserveCmd は予約コマンド。
type reserveCmd struct {
	slotCmd
}

// confirmCmd は入居者による承認・拒否コマンド。
type confirmCmd struct {
	slotCmd
	agreed bool
}

// cancelCmd は予約者による取り消しコマンド。
type cancelCmd struct {
	slotCmd
}

func (getFlatCmd) name() string     { return "get_flat" }
func (getScheduleCmd) name() string { return "get_schedule" }
func (reserveCmd) name() string     { return "reserve" }
func (cancelCmd) name() string      { return "cancel" }

func (c confirmCmd) name() string {
	if c.agreed {
		return "confirm"
	}
	return "reject"
}

func (c getFlatCmd) fail(err error)     { c.reply.Fail(err) }
func (c getScheduleCmd) fail(err error) { c.reply.Fail(err) }
func (c slotCmd) fail(err error)        { c.reply.Fail(err) }

// newSlotCmd は状態遷移コマンドの共通部分を生成する。
func newSlotCmd(flatID int, time int64, tenantID int) slotCmd {
	return slotCmd{
		slotRef: slotRef{flatID: flatID, time: time, tenantID: tenantID},
		reply:   actor.NewReply[bool](),
	}
}
