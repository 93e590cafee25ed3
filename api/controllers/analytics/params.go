package analytics

import (
	"net/http"
	"strings"
	"time"

	"github.com/Kiran3100/Hostel-Main-sub019/api/validators"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/dates"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
)

var timeNowUTC = func() time.Time {
	return time.Now().UTC()
}

// resolvePeriod reads an explicit start/end date pair, or a trailing preset ending today.
func resolvePeriod(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	start, err := validators.ParseQueryDate(r, "start")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := validators.ParseQueryDate(r, "end")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if !start.IsZero() || !end.IsZero() {
		if start.IsZero() || end.IsZero() {
			return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "start and end must be provided together")
		}
		if end.Before(start) {
			return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "end must not precede start")
		}
		return start, end, nil
	}

	preset := strings.TrimSpace(r.URL.Query().Get("preset"))
	days, ok := presetDays(preset)
	if !ok {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid preset").WithDetails(map[string]any{"allowed": []string{"7d", "30d", "90d", "365d"}})
	}

	end = dates.Date(now)
	return dates.AddDays(end, -(days - 1)), end, nil
}

func presetDays(value string) (int, bool) {
	if value == "" {
		value = "30d"
	}
	switch strings.ToLower(value) {
	case "7d":
		return 7, true
	case "30d":
		return 30, true
	case "90d":
		return 90, true
	case "365d":
		return 365, true
	default:
		return 0, false
	}
}
