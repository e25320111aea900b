package analytics

import (
	"fmt"
	"strings"
	"time"
)

// Range is a half-open [Start, End) reporting window.
type Range struct {
	Start  time.Time
	End    time.Time
	Preset string
}

// Presets supported by ResolveRange.
const (
	PresetToday      = "today"
	PresetLast7Days  = "last_7_days"
	PresetLast30Days = "last_30_days"
	PresetThisMonth  = "this_month"
	PresetThisYear   = "this_year"
	PresetCustom     = "custom"
)

// ResolveRange turns a preset name, or a custom from/to pair, into a
// concrete window. Custom dates are inclusive on both ends as users expect
// from date pickers, so End is the day after to.
func ResolveRange(preset, from, to string, now time.Time) (Range, error) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	preset = strings.ToLower(strings.TrimSpace(preset))
	if preset == "" {
		preset = PresetLast30Days
	}

	switch preset {
	case PresetToday:
		return Range{Start: today, End: today.AddDate(0, 0, 1), Preset: preset}, nil
	case PresetLast7Days:
		return Range{Start: today.AddDate(0, 0, -6), End: today.AddDate(0, 0, 1), Preset: preset}, nil
	case PresetLast30Days:
		return Range{Start: today.AddDate(0, 0, -29), End: today.AddDate(0, 0, 1), Preset: preset}, nil
	case PresetThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Range{Start: start, End: start.AddDate(0, 1, 0), Preset: preset}, nil
	case PresetThisYear:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return Range{Start: start, End: start.AddDate(1, 0, 0), Preset: preset}, nil
	case PresetCustom:
		start, err := time.Parse("2006-01-02", strings.TrimSpace(from))
		if err != nil {
			return Range{}, fmt.Errorf("from must be in YYYY-MM-DD format")
		}
		endDay, err := time.Parse("2006-01-02", strings.TrimSpace(to))
		if err != nil {
			return Range{}, fmt.Errorf("to must be in YYYY-MM-DD format")
		}
		end := endDay.AddDate(0, 0, 1)
		if !end.After(start) {
			return Range{}, fmt.Errorf("to must not be before from")
		}
		return Range{Start: start, End: end, Preset: preset}, nil
	default:
		return Range{}, fmt.Errorf("unknown range preset %q", preset)
	}
}

// Days returns the number of whole days covered by the range.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}
