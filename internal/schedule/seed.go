package schedule

import (
	"fmt"
	"slices"
	"time"

	"github.com/mktitov/kiko-test/pkg/model"
)

// occupantOffset は物件IDから初期入居者のテナントIDを求めるオフセット。
const occupantOffset = 10

// 枠の配置方式。
const (
	// LayoutDaily はDays日分、毎日FromHourからToHourの手前までInterval刻みで枠を置く。
	LayoutDaily = "daily"
	// LayoutLegacy は従来のサービスと同じ枠の並びを再現する。
	// 開始日のFromHour時から (ToHour-1)*3-FromHour+1 個の枠を1日分だけ連続して置く。
	LayoutLegacy = "legacy"
)

// SeedConfig は起動時に生成する物件ディレクトリと内見枠の設定。
type SeedConfig struct {
	// FlatCount は生成する物件数。IDは1からFlatCountまで。
	FlatCount int
	// VacantFlatIDs は空室にする物件IDの一覧。
	VacantFlatIDs []int
	// Days は枠を生成する日数。開始日の0時から連続する日を対象にする。
	Days int
	// FromHour は1日の最初の枠の時（この時刻を含む）。
	FromHour int
	// ToHour は1日の枠の終わりの時（この時刻を含まない）。
	ToHour int
	// Interval は枠の間隔。
	Interval time.Duration
	// Layout は枠の配置方式。空の場合はLayoutDaily。
	Layout string
}

// Validate は設定値の整合性を検証する。
func (c SeedConfig) Validate() error {
	switch {
	case c.FlatCount < 0:
		return fmt.Errorf("物件数が不正です: %d", c.FlatCount)
	case c.Days < 0:
		return fmt.Errorf("日数が不正です: %d", c.Days)
	case c.FromHour < 0 || c.ToHour > 24 || c.FromHour > c.ToHour:
		return fmt.Errorf("時間帯が不正です: %d-%d", c.FromHour, c.ToHour)
	case c.Interval <= 0:
		return fmt.Errorf("枠の間隔が不正です: %s", c.Interval)
	}
	switch c.Layout {
	case "", LayoutDaily, LayoutLegacy:
	default:
		return fmt.Errorf("枠の配置方式が不正です: %q", c.Layout)
	}
	return nil
}

// Seed は設定に従って物件ディレクトリと内見枠を生成する。
func Seed(cfg SeedConfig, now time.Time) ([]model.Flat, []model.ViewingSlot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	flats := GenerateFlats(cfg.FlatCount, cfg.VacantFlatIDs)
	if cfg.Layout == LayoutLegacy {
		return flats, GenerateLegacySlots(flats, now, cfg.Days, cfg.FromHour, cfg.ToHour, cfg.Interval), nil
	}
	slots := GenerateSlots(flats, now, cfg.Days, cfg.FromHour, cfg.ToHour, cfg.Interval)
	return flats, slots, nil
}

// GenerateFlats はID 1..countの物件を生成する。
// 住所は "address N"、入居者はN+10で、vacantに含まれるIDは空室になる。
func GenerateFlats(count int, vacant []int) []model.Flat {
	flats := make([]model.Flat, 0, max(count, 0))
	for id := 1; id <= count; id++ {
		flat := model.Flat{ID: id, Address: fmt.Sprintf("address %d", id)}
		if !slices.Contains(vacant, id) {
			flat.CurrentTenantID = model.TenantRef(id + occupantOffset)
		}
		flats = append(flats, flat)
	}
	return flats
}

// GenerateSlots は各物件について、startの属する日の0時（startのタイムゾーン）から
// days日分、fromHour時からtoHour時の手前までinterval刻みの空き枠を生成する。
func GenerateSlots(flats []model.Flat, start time.Time, days, fromHour, toHour int, interval time.Duration) []model.ViewingSlot {
	if interval <= 0 {
		return nil
	}

	midnight := startOfDay(start)
	var times []int64
	for d := 0; d < days; d++ {
		day := midnight.AddDate(0, 0, d)
		from := day.Add(time.Duration(fromHour) * time.Hour)
		end := day.Add(time.Duration(toHour) * time.Hour)
		for t := from; t.Before(end); t = t.Add(interval) {
			times = append(times, t.Unix())
		}
	}

	return slotsAt(flats, times)
}

// GenerateLegacySlots はLayoutLegacyの枠を生成する。
// 日付は進まないため、daysが1以上なら開始日の同じ枠が1組だけできる。
func GenerateLegacySlots(flats []model.Flat, start time.Time, days, fromHour, toHour int, interval time.Duration) []model.ViewingSlot {
	if interval <= 0 || days <= 0 {
		return nil
	}

	from := startOfDay(start).Add(time.Duration(fromHour) * time.Hour)
	var times []int64
	for i := fromHour; i <= (toHour-1)*3; i++ {
		times = append(times, from.Add(time.Duration(i-fromHour)*interval).Unix())
	}
	return slotsAt(flats, times)
}

// startOfDay はtの属する日の0時をtのタイムゾーンで返す。
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// slotsAt は各物件について指定時刻の空き枠を生成する。
func slotsAt(flats []model.Flat, times []int64) []model.ViewingSlot {
	slots := make([]model.ViewingSlot, 0, len(flats)*len(times))
	for _, flat := range flats {
		for _, t := range times {
			slots = append(slots, model.ViewingSlot{FlatID: flat.ID, Time: t})
		}
	}
	return slots
}
