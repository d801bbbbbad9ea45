package model

// TargetSleepHours is the nightly sleep target sleep debt is measured against.
const TargetSleepHours = 8.0

// Drivers are the normalized values the rule battery reads. They are
// derived fresh for every engine run and never modified afterwards.
//
// Pass-through numerics stay nil when the input did not supply them (or
// supplied NaN/Inf); rules treat a nil value as failing every comparison.
type Drivers struct {
	SleepDebtHours     float64       `json:"sleepDebtHours"` // always >= 0
	LateScreenMins     *float64      `json:"lateScreenMins"`
	AvgSteps7d         *int          `json:"avgSteps7d"`
	CaffeineLoadMg     *float64      `json:"caffeineLoadMg"`
	RestingHRTrend     Trend         `json:"restingHRTrend"` // raw, not coerced
	HRVTrend           Trend         `json:"hrvTrend"`
	AQILevel           *float64      `json:"aqiLevel"`
	SedentaryHours     *float64      `json:"sedentaryHours"`
	CircadianShiftMins float64       `json:"circadianShiftMins"` // reserved, always 0
	AlcoholUnitsWeek   float64       `json:"alcoholUnitsWeek"`
	SmokingStatus      SmokingStatus `json:"smokingStatus"`
	BMI                *float64      `json:"bmi"`
	MoodTrend          Trend         `json:"moodTrend"`
	WaterAdvisoryFlag  bool          `json:"waterAdvisoryFlag"`
	AllergensHighToday bool          `json:"allergensHighToday"`
	LateMealsPerWeek   int           `json:"lateMealsPerWeek"`
	FamHxHypertension  *int          `json:"famHxHypertension"`
	FamHxDiabetes      *int          `json:"famHxDiabetes"`
	Age                *float64      `json:"age"`
	SexAtBirth         SexAtBirth    `json:"sexAtBirth"`
}
