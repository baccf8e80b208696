// Package controllers file: controllers/format.go
package controllers

import (
	"strings"
	"time"
)

// FormatPrettyTimestamp renders a prayer time the way the prayed list
// shows it: "today at 14:30", "yesterday at 09:15" or
// "on 15 Jan 2023 at 10:00".
func FormatPrettyTimestamp(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	now := time.Now()
	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tDate := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	deltaDays := int(nowDate.Sub(tDate).Hours() / 24)

	timeStr := t.Format("15:04")
	switch deltaDays {
	case 0:
		return "today at " + timeStr
	case 1:
		return "yesterday at " + timeStr
	default:
		return "on " + t.Format("02 Jan 2006") + " at " + timeStr
	}
}

// partyClass turns a party short name into a CSS class fragment.
func partyClass(shortName string) string {
	class := strings.ToLower(shortName)
	class = strings.ReplaceAll(class, " ", "-")
	class = strings.ReplaceAll(class, "&", "and")
	return class
}
