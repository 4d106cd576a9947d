package appointment

import (
	"sort"
	"time"

	"github.com/unihealth/care-api/internal/model"
)

// GenerateSlots tiles each availability block on date into windows of exactly d
// and removes windows overlapping a booked appointment. Block times are wall-clock
// times in loc. The result is sorted by start and pairwise non-overlapping.
func GenerateSlots(blocks []*model.AvailabilityBlock, date time.Time, loc *time.Location, d time.Duration, booked []*model.Appointment) []model.TimeSlot {
	if d <= 0 {
		return []model.TimeSlot{}
	}
	y, m, day := date.Date()

	var candidates []model.TimeSlot
	for _, b := range blocks {
		startMin, endMin, err := b.Minutes()
		if err != nil || endMin <= startMin {
			continue
		}
		start := time.Date(y, m, day, startMin/60, startMin%60, 0, 0, loc)
		end := time.Date(y, m, day, endMin/60, endMin%60, 0, 0, loc)
		for t := start; !t.Add(d).After(end); t = t.Add(d) {
			candidates = append(candidates, model.TimeSlot{Start: t, End: t.Add(d)})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Start.Before(candidates[j].Start)
	})

	slots := make([]model.TimeSlot, 0, len(candidates))
	for _, c := range candidates {
		if n := len(slots); n > 0 && model.Overlaps(slots[n-1].Start, slots[n-1].End, c.Start, c.End) {
			continue
		}
		if overlapsAny(c, booked) {
			continue
		}
		slots = append(slots, c)
	}
	return slots
}

func overlapsAny(slot model.TimeSlot, booked []*model.Appointment) bool {
	for _, a := range booked {
		if a.Status == model.AppointmentStatusCancelled {
			continue
		}
		if a.Overlaps(slot.Start, slot.End) {
			return true
		}
	}
	return false
}

// dayBounds returns [midnight, next midnight) of date in loc.
func dayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
