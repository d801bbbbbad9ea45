package model

// Trend is a 14-day direction reported by a device or survey.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendFlat    Trend = "flat"
	TrendUnknown Trend = "unknown"
)

// Known reports whether t is one of up, down or flat.
func (t Trend) Known() bool {
	switch t {
	case TrendUp, TrendDown, TrendFlat:
		return true
	default:
		return false
	}
}

// SexAtBirth is the self-reported sex recorded at birth.
type SexAtBirth string

const (
	SexMale    SexAtBirth = "male"
	SexFemale  SexAtBirth = "female"
	SexOther   SexAtBirth = "other"
	SexUnknown SexAtBirth = "unknown"
)

// SmokingStatus is the self-reported smoking habit.
type SmokingStatus string

const (
	SmokingNone    SmokingStatus = "none"
	SmokingFormer  SmokingStatus = "former"
	SmokingCurrent SmokingStatus = "current"
)

// RawHealthInput is one person's self-reported and device-derived metrics.
// Every field is optional; nil means the value was not supplied.
// The engine only reads it.
type RawHealthInput struct {
	Age        *float64   `json:"age,omitempty" yaml:"age,omitempty"`
	SexAtBirth SexAtBirth `json:"sexAtBirth,omitempty" yaml:"sexAtBirth,omitempty"`
	BMI        *float64   `json:"bmi,omitempty" yaml:"bmi,omitempty"`

	FamHxHypertension *int `json:"famHxHypertension,omitempty" yaml:"famHxHypertension,omitempty"` // 0-2 relatives
	FamHxDiabetes     *int `json:"famHxDiabetes,omitempty" yaml:"famHxDiabetes,omitempty"`         // 0-2 relatives

	SleepHoursAvg7d     *float64 `json:"sleepHoursAvg7d,omitempty" yaml:"sleepHoursAvg7d,omitempty"`
	LateScreenMinsAvg7d *float64 `json:"lateScreenMinsAvg7d,omitempty" yaml:"lateScreenMinsAvg7d,omitempty"`
	StepsAvg7d          *int     `json:"stepsAvg7d,omitempty" yaml:"stepsAvg7d,omitempty"`
	RestingHRTrend14d   Trend    `json:"restingHRTrend14d,omitempty" yaml:"restingHRTrend14d,omitempty"`
	HRVTrend14d         Trend    `json:"hrvTrend14d,omitempty" yaml:"hrvTrend14d,omitempty"`

	CaffeineMgDay     *float64      `json:"caffeineMgDay,omitempty" yaml:"caffeineMgDay,omitempty"`
	SedentaryHoursDay *float64      `json:"sedentaryHoursDay,omitempty" yaml:"sedentaryHoursDay,omitempty"`
	AlcoholUnitsWeek  *float64      `json:"alcoholUnitsWeek,omitempty" yaml:"alcoholUnitsWeek,omitempty"`
	SmokingStatus     SmokingStatus `json:"smokingStatus,omitempty" yaml:"smokingStatus,omitempty"`
	MoodTrend14d      Trend         `json:"moodTrend14d,omitempty" yaml:"moodTrend14d,omitempty"`

	AQIDailyMax        *float64 `json:"aqiDailyMax,omitempty" yaml:"aqiDailyMax,omitempty"`
	WaterAdvisoryFlag  *bool    `json:"waterAdvisoryFlag,omitempty" yaml:"waterAdvisoryFlag,omitempty"`
	AllergensHighToday *bool    `json:"allergensHighToday,omitempty" yaml:"allergensHighToday,omitempty"`
	LateMealsPerWeek   *int     `json:"lateMealsPerWeek,omitempty" yaml:"lateMealsPerWeek,omitempty"`
}

// Float returns a pointer to v. Handy for building inputs in code.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
