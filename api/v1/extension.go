package v1

import (
	"encoding/json"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/fitness-proxy/garmin-proxy/internal/models"
)

// healthTimeLayout is ISO 8601 with microseconds, in UTC.
const healthTimeLayout = "2006-01-02T15:04:05.000000"

func NewHealth(now time.Time) Health {
	return Health{
		Ok:   true,
		Time: now.UTC().Format(healthTimeLayout) + "Z",
	}
}

func (p *Params) FromModel(m models.Params) {
	p.HRmax = m.HRMax
	p.HRrest = m.HRRest
	p.LTHRRun = m.LTHRRun
	p.LTHRCycle = m.LTHRCycle
	p.FTPBikeW = m.FTPBikeW
	p.RThresholdPaceSPerKm = m.ThresholdPaceSPK
	p.VO2max = m.VO2Max
	p.WeightKg = m.WeightKg
	p.UpdatedAt = openapi_types.Date{Time: m.UpdatedAt}
	p.Source = m.Source
}

func NewActivityList(activities []models.Activity) ActivityList {
	items := make([]RawObject, 0, len(activities))
	for _, a := range activities {
		items = append(items, json.RawMessage(a))
	}
	return ActivityList{Items: items}
}

func NewActivitySteps(m models.ActivitySteps) ActivitySteps {
	return ActivitySteps{
		ActivityId: m.ActivityID,
		Steps:      json.RawMessage(m.Steps),
	}
}

func NewDaily(m models.DailyKPIs) Daily {
	return Daily{
		Date:    openapi_types.Date{Time: m.Date},
		Summary: json.RawMessage(m.Summary),
		Hrv:     json.RawMessage(m.HRV),
		Sleep:   json.RawMessage(m.Sleep),
		Stress:  json.RawMessage(m.Stress),
	}
}
