package schedule

import (
	"slices"

	"github.com/mktitov/kiko-test/pkg/model"
)

// Store は物件ごとの内見枠を保持する。
// 並行制御を持たないため、スケジュールワーカーのゴルーチンからのみ呼び出すこと。
type Store struct {
	// slots は物件ID → 時刻 → 内見枠のマップ。
	slots map[int]map[int64]model.ViewingSlot
	// times は物件IDごとの昇順に並んだ枠の時刻。
	times map[int][]int64
}

// NewStore は初期の内見枠一覧からストアを生成する。同じ枠が重複した場合は後勝ち。
func NewStore(initial []model.ViewingSlot) *Store {
	s := &Store{
		slots: make(map[int]map[int64]model.ViewingSlot),
		times: make(map[int][]int64),
	}
	for _, slot := range initial {
		byTime, ok := s.slots[slot.FlatID]
		if !ok {
			byTime = make(map[int64]model.ViewingSlot)
			s.slots[slot.FlatID] = byTime
		}
		if _, exists := byTime[slot.Time]; !exists {
			s.times[slot.FlatID] = append(s.times[slot.FlatID], slot.Time)
		}
		byTime[slot.Time] = slot.Clone()
	}
	for _, ts := range s.times {
		slices.Sort(ts)
	}
	return s
}

// Get は指定された枠のコピーを返す。存在しない場合はfalse。
func (s *Store) Get(flatID int, time int64) (model.ViewingSlot, bool) {
	slot, ok := s.slots[flatID][time]
	if !ok {
		return model.ViewingSlot{}, false
	}
	return slot.Clone(), true
}

// List は物件の全枠のコピーを時刻昇順で返す。物件に枠がなければfalse。
func (s *Store) List(flatID int) ([]model.ViewingSlot, bool) {
	ts, ok := s.times[flatID]
	if !ok {
		return nil, false
	}
	out := make([]model.ViewingSlot, 0, len(ts))
	for _, t := range ts {
		out = append(out, s.slots[flatID][t].Clone())
	}
	return out, true
}

// Update は既存の枠を置き換える。存在しない枠は追加せずfalseを返す。
func (s *Store) Update(slot model.ViewingSlot) bool {
	byTime, ok := s.slots[slot.FlatID]
	if !ok {
		return false
	}
	if _, ok := byTime[slot.Time]; !ok {
		return false
	}
	byTime[slot.Time] = slot.Clone()
	return true
}
