package availability

import "time"

// Opening hours of every clinic. Slots fall on a fixed half-hour grid, with
// the last one starting half a step before closing.
const (
	OpeningHour = 8
	ClosingHour = 19
	SlotStep    = 30 * time.Minute
)

// How far ahead to search for free slots before giving up. A doctor with no
// weekly presence at the clinic yields nothing regardless.
const searchHorizonDays = 60

// NextFreeSlots returns the next n slot start times at which a doctor could be
// booked: on one of their working weekdays at the clinic, on the slot grid
// within opening hours, strictly after now, and not colliding with an already
// booked (date, time) pair.
func NextFreeSlots(weekdays []time.Weekday, booked []time.Time, now time.Time, n int) []time.Time {
	if n <= 0 || len(weekdays) == 0 {
		return nil
	}

	working := make(map[time.Weekday]bool, len(weekdays))
	for _, wd := range weekdays {
		working[wd] = true
	}
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[slotKey(b)] = struct{}{}
	}

	var slots []time.Time
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i := 0; i < searchHorizonDays && len(slots) < n; i++ {
		if !working[day.Weekday()] {
			day = day.AddDate(0, 0, 1)
			continue
		}
		open := day.Add(OpeningHour * time.Hour)
		close := day.Add(ClosingHour * time.Hour)
		for t := open; t.Before(close) && len(slots) < n; t = t.Add(SlotStep) {
			if !t.After(now) {
				continue
			}
			if _, ok := taken[slotKey(t)]; ok {
				continue
			}
			slots = append(slots, t)
		}
		day = day.AddDate(0, 0, 1)
	}
	return slots
}

// Upcoming filters appointment times to those strictly after now and returns
// at most n of them, ascending. Input is assumed sorted ascending.
func Upcoming(times []time.Time, now time.Time, n int) []time.Time {
	var out []time.Time
	for _, t := range times {
		if !t.After(now) {
			continue
		}
		out = append(out, t)
		if len(out) == n {
			break
		}
	}
	return out
}

func slotKey(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
