package services

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/fitness-proxy/garmin-proxy/internal/models"
	srvErrors "github.com/fitness-proxy/garmin-proxy/pkg/errors"
	"github.com/fitness-proxy/garmin-proxy/pkg/scheduler"
)

const (
	activitiesPageSize = 100
	// upper bound on pages fetched for one range
	activitiesMaxPages = 50

	thresholdPaceWindowDays = 90
	thresholdPaceMinDistM   = 10000
	weightWindowDays        = 30
)

// Vendor is the subset of the vendor API used by the service.
type Vendor interface {
	UserSettings(ctx context.Context) (json.RawMessage, error)
	HeartRates(ctx context.Context, day time.Time) (json.RawMessage, error)
	HeartRateZones(ctx context.Context) (json.RawMessage, error)
	MaxMetrics(ctx context.Context, day time.Time) (json.RawMessage, error)
	CyclingFTP(ctx context.Context) (json.RawMessage, error)
	BodyComposition(ctx context.Context, start, end time.Time) (json.RawMessage, error)
	Activities(ctx context.Context, start, end time.Time, offset, limit int) (json.RawMessage, error)
	ActivitySplits(ctx context.Context, activityID int64) (json.RawMessage, error)
	UserSummary(ctx context.Context, day time.Time) (json.RawMessage, error)
	HRV(ctx context.Context, day time.Time) (json.RawMessage, error)
	Sleep(ctx context.Context, day time.Time) (json.RawMessage, error)
	Stress(ctx context.Context, day time.Time) (json.RawMessage, error)
}

type FitnessService struct {
	vendor    Vendor
	scheduler *scheduler.Scheduler
	now       func() time.Time
}

func NewFitnessService(vendor Vendor, s *scheduler.Scheduler) *FitnessService {
	return &FitnessService{
		vendor:    vendor,
		scheduler: s,
		now:       time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (f *FitnessService) WithClock(now func() time.Time) *FitnessService {
	f.now = now
	return f
}

// Params collects the training parameters. Every value is best effort: a failed
// vendor call leaves the matching fields nil.
func (f *FitnessService) Params(ctx context.Context) models.Params {
	today := f.today()

	res := f.fanOut(ctx, map[string]scheduler.Work[any]{
		"heart_rates": func(ctx context.Context) (any, error) {
			return f.vendor.HeartRates(ctx, today)
		},
		"heart_rate_zones": func(ctx context.Context) (any, error) {
			return f.vendor.HeartRateZones(ctx)
		},
		"user_settings": func(ctx context.Context) (any, error) {
			return f.vendor.UserSettings(ctx)
		},
		"max_metrics": func(ctx context.Context) (any, error) {
			return f.vendor.MaxMetrics(ctx, today)
		},
		"cycling_ftp": func(ctx context.Context) (any, error) {
			return f.vendor.CyclingFTP(ctx)
		},
		"body_composition": func(ctx context.Context) (any, error) {
			return f.vendor.BodyComposition(ctx, today.AddDate(0, 0, -weightWindowDays), today)
		},
		"threshold_pace": func(ctx context.Context) (any, error) {
			return f.thresholdPace(ctx, today)
		},
	})

	heartRates := rawOf(res["heart_rates"])
	zones := rawOf(res["heart_rate_zones"])
	settings := rawOf(res["user_settings"])
	maxMetrics := rawOf(res["max_metrics"])
	ftp := rawOf(res["cycling_ftp"])
	bodyComposition := rawOf(res["body_composition"])

	params := models.Params{
		HRMax:     intOf(firstOf(zones, `#(sport=="DEFAULT").maxHeartRateUsed`, `0.maxHeartRateUsed`)),
		HRRest:    intOf(gjson.GetBytes(heartRates, "restingHeartRate")),
		LTHRRun:   intOf(firstOf(zones, `#(sport=="RUNNING").lactateThresholdHeartRateUsed`, `#(sport=="DEFAULT").lactateThresholdHeartRateUsed`)),
		LTHRCycle: intOf(firstOf(zones, `#(sport=="CYCLING").lactateThresholdHeartRateUsed`)),
		FTPBikeW:  intOf(firstOf(ftp, "functionalThresholdPower", "0.functionalThresholdPower", "currentFTP", "ftp")),
		VO2Max:    floatOf(firstOf(maxMetrics, "0.generic.vo2MaxPreciseValue", "0.generic.vo2MaxValue")),
		WeightKg:  latestWeightKg(bodyComposition),
		UpdatedAt: today,
		Source:    models.ParamsSource,
	}

	if params.LTHRRun == nil {
		params.LTHRRun = intOf(gjson.GetBytes(settings, "userData.lactateThresholdHeartRate"))
	}
	if params.VO2Max == nil {
		params.VO2Max = floatOf(gjson.GetBytes(settings, "userData.vo2MaxRunning"))
	}
	if params.WeightKg == nil {
		params.WeightKg = gramsToKg(gjson.GetBytes(settings, "userData.weight"))
	}
	if pace, ok := res["threshold_pace"].(*float64); ok {
		params.ThresholdPaceSPK = pace
	}

	return params
}

// Activities returns the raw activities started between start and end, both inclusive.
// A failure after the first page returns the activities collected so far.
func (f *FitnessService) Activities(ctx context.Context, start, end time.Time) ([]models.Activity, error) {
	if end.Before(start) {
		return nil, srvErrors.NewInvalidParameterError("end", "must not be before start")
	}

	items := []models.Activity{}
	for page := 0; page < activitiesMaxPages; page++ {
		body, err := f.vendor.Activities(ctx, start, end, page*activitiesPageSize, activitiesPageSize)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("failed to list activities: %w", err)
			}
			// keep what the earlier pages returned
			zap.S().Named("fitness_service").Warnw("activity listing truncated", "page", page, "items", len(items), "error", err)
			break
		}

		batch := gjson.ParseBytes(body)
		if batch.Type == gjson.Null {
			break
		}
		if !batch.IsArray() {
			return nil, fmt.Errorf("failed to list activities: unexpected payload")
		}

		results := batch.Array()
		for _, r := range results {
			items = append(items, models.Activity(r.Raw))
		}
		if len(results) < activitiesPageSize {
			break
		}
	}

	return items, nil
}

// ActivitySteps returns the splits of an activity, or an empty object when the
// vendor has none.
func (f *FitnessService) ActivitySteps(ctx context.Context, activityID int64) models.ActivitySteps {
	steps, err := f.vendor.ActivitySplits(ctx, activityID)
	if err != nil {
		zap.S().Named("fitness_service").Warnw("failed to get activity splits", "activity_id", activityID, "error", err)
		steps = emptyObject()
	}
	if len(steps) == 0 || string(steps) == "null" {
		steps = emptyObject()
	}
	return models.ActivitySteps{ActivityID: activityID, Steps: steps}
}

// Daily fetches the four daily reports concurrently. A failed report is an empty object.
func (f *FitnessService) Daily(ctx context.Context, day time.Time) models.DailyKPIs {
	res := f.fanOut(ctx, map[string]scheduler.Work[any]{
		"summary": func(ctx context.Context) (any, error) {
			return f.vendor.UserSummary(ctx, day)
		},
		"hrv": func(ctx context.Context) (any, error) {
			return f.vendor.HRV(ctx, day)
		},
		"sleep": func(ctx context.Context) (any, error) {
			return f.vendor.Sleep(ctx, day)
		},
		"stress": func(ctx context.Context) (any, error) {
			return f.vendor.Stress(ctx, day)
		},
	})

	section := func(name string) json.RawMessage {
		body := rawOf(res[name])
		if len(body) == 0 || string(body) == "null" {
			return emptyObject()
		}
		return body
	}

	return models.DailyKPIs{
		Date:    day,
		Summary: section("summary"),
		HRV:     section("hrv"),
		Sleep:   section("sleep"),
		Stress:  section("stress"),
	}
}

// thresholdPace is the best pace in seconds per kilometer over the running
// activities of at least 10 km in the last 90 days. Nil when there is none.
func (f *FitnessService) thresholdPace(ctx context.Context, today time.Time) (*float64, error) {
	activities, err := f.Activities(ctx, today.AddDate(0, 0, -thresholdPaceWindowDays), today)
	if err != nil {
		return nil, err
	}

	var best *float64
	for _, a := range activities {
		if a.TypeKey() != models.ActivityTypeRunning || a.DistanceM() < thresholdPaceMinDistM {
			continue
		}
		pace := a.PaceSPerKm()
		if pace == nil {
			continue
		}
		if best == nil || *pace < *best {
			best = pace
		}
	}
	return best, nil
}

// fanOut runs every call on the scheduler and collects the successful results by name.
func (f *FitnessService) fanOut(ctx context.Context, calls map[string]scheduler.Work[any]) map[string]any {
	futures := make(map[string]*scheduler.Future[scheduler.Result[any]], len(calls))
	for name, call := range calls {
		futures[name] = f.scheduler.AddWork(call)
	}

	results := make(map[string]any, len(calls))
	for name, future := range futures {
		result, err := future.Await(ctx)
		if err == nil {
			err = result.Err
		}
		if err != nil {
			zap.S().Named("fitness_service").Warnw("vendor call failed", "call", name, "error", err)
			continue
		}
		results[name] = result.Data
	}

	return results
}

func (f *FitnessService) today() time.Time {
	now := f.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func latestWeightKg(body []byte) *float64 {
	var (
		latest gjson.Result
		at     int64 = -1
	)
	for _, entry := range gjson.GetBytes(body, "dateWeightList").Array() {
		w := entry.Get("weight")
		if !w.Exists() || w.Type == gjson.Null {
			continue
		}
		if d := entry.Get("date").Int(); d > at {
			at, latest = d, w
		}
	}
	if at >= 0 {
		return gramsToKg(latest)
	}
	return gramsToKg(gjson.GetBytes(body, "totalAverage.weight"))
}

// gramsToKg converts a vendor weight, expressed in grams.
func gramsToKg(r gjson.Result) *float64 {
	v := floatOf(r)
	if v == nil {
		return nil
	}
	kg := *v / 1000
	return &kg
}

func rawOf(v any) json.RawMessage {
	body, _ := v.(json.RawMessage)
	return body
}

func firstOf(body []byte, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := gjson.GetBytes(body, p); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

func intOf(r gjson.Result) *int64 {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	v := r.Int()
	return &v
}

func floatOf(r gjson.Result) *float64 {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	v := r.Float()
	return &v
}

func emptyObject() json.RawMessage {
	return json.RawMessage("{}")
}
