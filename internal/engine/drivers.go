// Package engine turns raw health inputs into drivers and fired rule triggers.
// Everything here is pure: no I/O, no logging, no shared state.
package engine

import (
	"math"

	"github.com/lifelens/lifelens-cli/internal/model"
)

// DeriveDrivers normalizes a raw input into drivers. It never fails; absent
// or non-finite values fall back to the documented defaults.
func DeriveDrivers(in model.RawHealthInput) model.Drivers {
	smoking := in.SmokingStatus
	if smoking == "" {
		smoking = model.SmokingNone
	}

	return model.Drivers{
		SleepDebtHours:     sleepDebt(in.SleepHoursAvg7d),
		LateScreenMins:     finite(in.LateScreenMinsAvg7d),
		AvgSteps7d:         copyInt(in.StepsAvg7d),
		CaffeineLoadMg:     finite(in.CaffeineMgDay),
		RestingHRTrend:     in.RestingHRTrend14d,
		HRVTrend:           coerceTrend(in.HRVTrend14d),
		AQILevel:           finite(in.AQIDailyMax),
		SedentaryHours:     finite(in.SedentaryHoursDay),
		CircadianShiftMins: 0,
		AlcoholUnitsWeek:   orZero(in.AlcoholUnitsWeek),
		SmokingStatus:      smoking,
		BMI:                finite(in.BMI),
		MoodTrend:          coerceTrend(in.MoodTrend14d),
		WaterAdvisoryFlag:  in.WaterAdvisoryFlag != nil && *in.WaterAdvisoryFlag,
		AllergensHighToday: in.AllergensHighToday != nil && *in.AllergensHighToday,
		LateMealsPerWeek:   intOrZero(in.LateMealsPerWeek),
		FamHxHypertension:  copyInt(in.FamHxHypertension),
		FamHxDiabetes:      copyInt(in.FamHxDiabetes),
		Age:                finite(in.Age),
		SexAtBirth:         in.SexAtBirth,
	}
}

// sleepDebt is max(0, target - hours). Missing or non-finite sleep counts
// as no debt so the result is never negative or NaN.
func sleepDebt(hours *float64) float64 {
	h := finite(hours)
	if h == nil {
		return 0
	}
	return math.Max(0, model.TargetSleepHours-*h)
}

// coerceTrend maps anything outside up/down/flat to unknown.
func coerceTrend(t model.Trend) model.Trend {
	if t.Known() {
		return t
	}
	return model.TrendUnknown
}

// finite copies v, dropping NaN and infinities.
func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	out := *v
	return &out
}

func orZero(v *float64) float64 {
	if f := finite(v); f != nil {
		return *f
	}
	return 0
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
