package routing

import (
	"fmt"
	"time"

	"github.com/dispatchlab/notifykit/pkg/notification"
)

// minutesOfDay parses an "HH:mm" value into minutes since midnight.
// Format validity is guaranteed by preference construction; a malformed value
// here means the QuietHours value bypassed validation.
func minutesOfDay(hhmm string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("malformed time of day %q: %w", hhmm, err)
	}
	return h*60 + m, nil
}

// quietHoursActive reports whether now falls inside the quiet-hours window.
// Containment is tested on [start, end) as minute offsets in the window's
// timezone; end < start means the window wraps midnight.
func quietHoursActive(qh notification.QuietHours, now time.Time) (bool, error) {
	loc, err := time.LoadLocation(qh.Timezone)
	if err != nil {
		return false, fmt.Errorf("quiet hours timezone: %w", err)
	}

	start, err := minutesOfDay(qh.Start)
	if err != nil {
		return false, err
	}
	end, err := minutesOfDay(qh.End)
	if err != nil {
		return false, err
	}

	local := now.In(loc)
	cur := local.Hour()*60 + local.Minute()

	if start <= end {
		return cur >= start && cur < end, nil
	}
	// Window wraps midnight, e.g. 22:00-08:00.
	return cur >= start || cur < end, nil
}

// quietHoursEnd computes when the currently active window closes: today's end
// time when it is still ahead, otherwise the same time tomorrow. Must only be
// called while the window is active.
func quietHoursEnd(qh notification.QuietHours, now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(qh.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("quiet hours timezone: %w", err)
	}

	end, err := minutesOfDay(qh.End)
	if err != nil {
		return time.Time{}, err
	}

	local := now.In(loc)
	endToday := time.Date(local.Year(), local.Month(), local.Day(), end/60, end%60, 0, 0, loc)
	if !endToday.After(local) {
		endToday = endToday.AddDate(0, 0, 1)
	}
	return endToday, nil
}
