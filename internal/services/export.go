package services

import (
	"bytes"
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/fitness-proxy/garmin-proxy/internal/models"
)

const activitiesSheet = "Activities"

var activitiesHeader = []any{
	"activity_id", "name", "type", "start_local", "distance_m", "duration_s", "avg_hr", "pace_s_per_km", "pace_min_per_km",
}

// ActivitiesWorkbook renders activities as an xlsx workbook, one row per activity.
func ActivitiesWorkbook(activities []models.Activity) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", activitiesSheet); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(activitiesSheet, "A1", &activitiesHeader); err != nil {
		return nil, err
	}

	for i, a := range activities {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}

		row := []any{a.ID(), a.Name(), a.TypeKey(), "", a.DistanceM(), a.DurationS(), nil, nil, ""}
		if start, ok := a.StartLocal(); ok {
			row[3] = start
		}
		if hr := a.AverageHR(); hr != nil {
			row[6] = *hr
		}
		if pace := a.PaceSPerKm(); pace != nil {
			row[7] = math.Round(*pace*10) / 10
			row[8] = PaceMinPerKm(*pace)
		}

		if err := f.SetSheetRow(activitiesSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}

// PaceMinPerKm formats a pace in seconds per kilometer as m:ss.
func PaceMinPerKm(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	total := int(math.Round(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
