package handlers

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

var dataHoraLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// parseDataHora accepts the ISO-8601 forms the clients send, with either a
// 'T' or a space separator and optional seconds. Values are naive local
// date-times; they are interpreted in UTC throughout.
func parseDataHora(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dataHoraLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid data_hora %q", s)
}

// slotPair renders a slot as the [data, hora] pair the API speaks.
func slotPair(t time.Time) [2]string {
	return [2]string{t.Format(dateLayout), t.Format(timeLayout)}
}

func slotPairs(times []time.Time) [][2]string {
	out := make([][2]string, 0, len(times))
	for _, t := range times {
		out = append(out, slotPair(t))
	}
	return out
}
