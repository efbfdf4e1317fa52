package models

import (
	"time"

	json "github.com/goccy/go-json"
)

// DailyKPIs groups the daily vendor reports. A section the vendor failed to
// return is an empty object.
type DailyKPIs struct {
	Date    time.Time
	Summary json.RawMessage
	HRV     json.RawMessage
	Sleep   json.RawMessage
	Stress  json.RawMessage
}
