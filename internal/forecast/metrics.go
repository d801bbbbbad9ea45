package forecast

import "github.com/lifelens/lifelens-cli/internal/model"

// TodayMetrics flattens the numeric drivers into a metric map. Absent
// values are left out.
func TodayMetrics(d model.Drivers) map[string]float64 {
	m := map[string]float64{
		"sleepDebtHours":   d.SleepDebtHours,
		"alcoholUnitsWeek": d.AlcoholUnitsWeek,
		"lateMealsPerWeek": float64(d.LateMealsPerWeek),
	}
	putFloat(m, "lateScreenMins", d.LateScreenMins)
	putFloat(m, "caffeineLoadMg", d.CaffeineLoadMg)
	putFloat(m, "aqiLevel", d.AQILevel)
	putFloat(m, "sedentaryHours", d.SedentaryHours)
	putFloat(m, "bmi", d.BMI)
	putFloat(m, "age", d.Age)
	if d.AvgSteps7d != nil {
		m["avgSteps7d"] = float64(*d.AvgSteps7d)
	}
	return m
}

func putFloat(m map[string]float64, k string, v *float64) {
	if v != nil {
		m[k] = *v
	}
}
