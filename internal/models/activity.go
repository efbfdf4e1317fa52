package models

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

const (
	ActivityTypeRunning = "running"

	// vendor timestamp layout of startTimeLocal
	activityTimeLayout = "2006-01-02 15:04:05"
)

// Activity is a raw vendor activity. The payload is forwarded untouched; the
// accessors read the few fields the service needs.
type Activity json.RawMessage

func (a Activity) get(path string) gjson.Result {
	return gjson.GetBytes(a, path)
}

func (a Activity) ID() int64 {
	return a.get("activityId").Int()
}

func (a Activity) Name() string {
	return a.get("activityName").String()
}

// TypeKey is the sport of the activity. Search results carry it in
// activityType, activity details in activityTypeDTO.
func (a Activity) TypeKey() string {
	if r := a.get("activityType.typeKey"); r.Exists() {
		return r.String()
	}
	return a.get("activityTypeDTO.typeKey").String()
}

// DistanceM is the distance in meters.
func (a Activity) DistanceM() float64 {
	return a.get("distance").Float()
}

// DurationS is the duration in seconds.
func (a Activity) DurationS() float64 {
	return a.get("duration").Float()
}

func (a Activity) AverageHR() *float64 {
	r := a.get("averageHR")
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	v := r.Float()
	return &v
}

func (a Activity) StartLocal() (time.Time, bool) {
	t, err := time.Parse(activityTimeLayout, a.get("startTimeLocal").String())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// PaceSPerKm is the average pace in seconds per kilometer, nil when the
// activity has no distance or duration.
func (a Activity) PaceSPerKm() *float64 {
	dist, dur := a.DistanceM(), a.DurationS()
	if dist <= 0 || dur <= 0 {
		return nil
	}
	p := dur / (dist / 1000)
	return &p
}

func (a Activity) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return []byte("null"), nil
	}
	return []byte(a), nil
}

type ActivitySteps struct {
	ActivityID int64
	Steps      json.RawMessage
}
