// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import "time"

// FormatTimestamp renders ts relative to now: "15:04" for today,
// "Mon 15:04" within the last week, "Jan 2 15:04" before that.
func FormatTimestamp(ts, now time.Time) string {
	if ts.IsZero() {
		return ""
	}
	ts = ts.In(now.Location())

	y1, m1, d1 := ts.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return ts.Format("15:04")
	}

	startOfToday := time.Date(y2, m2, d2, 0, 0, 0, 0, now.Location())
	if ts.After(startOfToday.AddDate(0, 0, -6)) && ts.Before(now) {
		return ts.Format("Mon 15:04")
	}
	return ts.Format("Jan 2 15:04")
}
