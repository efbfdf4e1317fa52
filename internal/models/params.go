package models

import "time"

const ParamsSource = "GarminConnect"

// Params are the current training parameters of the athlete.
// A nil field means the vendor could not provide the value.
type Params struct {
	HRMax            *int64
	HRRest           *int64
	LTHRRun          *int64
	LTHRCycle        *int64
	FTPBikeW         *int64
	ThresholdPaceSPK *float64
	VO2Max           *float64
	WeightKg         *float64
	UpdatedAt        time.Time
	Source           string
}
