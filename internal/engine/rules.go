package engine

import (
	"fmt"
	"strconv"

	"github.com/lifelens/lifelens-cli/internal/model"
)

// Rule is one entry of the battery: a condition over drivers plus the
// triggers emitted when it holds. Rules never read each other's output.
type Rule struct {
	Name string
	When func(d *model.Drivers) bool
	Emit func(d *model.Drivers) []model.Trigger
}

// Rules returns the battery in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(battery))
	copy(out, battery)
	return out
}

// EvaluateRules runs every rule against d in declaration order and returns
// the concatenated triggers. The result is never nil.
func EvaluateRules(d model.Drivers) []model.Trigger {
	out := make([]model.Trigger, 0, 8)
	for _, r := range battery {
		if r.When(&d) {
			out = append(out, r.Emit(&d)...)
		}
	}
	return out
}

var battery = []Rule{
	{
		Name: "sleep_debt",
		When: func(d *model.Drivers) bool {
			return d.SleepDebtHours >= 1.5 || (gt(d.LateScreenMins, 60) && d.SleepDebtHours >= 1)
		},
		Emit: func(d *model.Drivers) []model.Trigger {
			sev := model.SeverityModerate
			if d.SleepDebtHours >= 2 {
				sev = model.SeveritySevere
			}
			return one(model.CategorySleepDebt, model.TypeInsight, sev, 0.85,
				[]string{"short_sleep", "late_screen"}, sleepCallout(d), lateScreenCallout(d))
		},
	},
	{
		Name: "screen_time",
		When: func(d *model.Drivers) bool { return gt(d.LateScreenMins, 60) },
		Emit: func(d *model.Drivers) []model.Trigger {
			sev := model.SeverityMild
			if gt(d.LateScreenMins, 120) {
				sev = model.SeverityModerate
			}
			return one(model.CategoryScreenTime, model.TypeAction, sev, 0.8,
				[]string{"late_screen>60"}, lateScreenCallout(d))
		},
	},
	{
		Name: "sedentary_lifestyle",
		When: func(d *model.Drivers) bool { return lt(d.AvgSteps7d, 5000) || gt(d.SedentaryHours, 8) },
		Emit: func(d *model.Drivers) []model.Trigger {
			sev := model.SeverityModerate
			if lt(d.AvgSteps7d, 3000) || gt(d.SedentaryHours, 10) {
				sev = model.SeveritySevere
			}
			return []model.Trigger{
				trigger(model.CategorySedentaryLifestyle, model.TypeInsight, sev, 0.8,
					[]string{"low_steps", "high_sedentary"}, stepsCallout(d), sedentaryCallout(d)),
				trigger(model.CategoryExercise, model.TypeAction, model.SeverityModerate, 0.7,
					[]string{"needs_activity"}, "Add +2000 steps today"),
			}
		},
	},
	{
		Name: "caffeine",
		When: func(d *model.Drivers) bool { return gt(d.CaffeineLoadMg, 250) },
		Emit: func(d *model.Drivers) []model.Trigger {
			sev := model.SeverityMild
			if gt(d.CaffeineLoadMg, 350) {
				sev = model.SeverityModerate
			}
			return one(model.CategoryCaffeine, model.TypeAction, sev, 0.8,
				[]string{"caffeine>250mg"}, caffeineCallout(d))
		},
	},
	{
		Name: "migraine",
		When: func(d *model.Drivers) bool {
			return gt(d.CaffeineLoadMg, 250) && (d.SleepDebtHours > 1 || gt(d.LateScreenMins, 60))
		},
		Emit: func(d *model.Drivers) []model.Trigger {
			return one(model.CategoryMigraine, model.TypeAction, model.SeverityModerate, 0.6,
				[]string{"caffeine+sleep/screen"}, caffeineCallout(d), sleepCallout(d))
		},
	},
	{
		Name: "heart_rate",
		When: func(d *model.Drivers) bool {
			return d.RestingHRTrend == model.TrendUp && (d.SleepDebtHours > 1 || gt(d.SedentaryHours, 8))
		},
		Emit: func(d *model.Drivers) []model.Trigger {
			return one(model.CategoryHeartRate, model.TypeAlert, model.SeverityModerate, 0.7,
				[]string{"rhr_up + stressors"}, rhrCallout(d), sleepCallout(d), sedentaryCallout(d))
		},
	},
	{
		Name: "stress",
		When: func(d *model.Drivers) bool {
			return d.RestingHRTrend == model.TrendUp && (d.SleepDebtHours > 1 || lt(d.AvgSteps7d, 5000))
		},
		Emit: func(d *model.Drivers) []model.Trigger {
			return one(model.CategoryStress, model.TypeInsight, model.SeverityMild, 0.6,
				[]string{"rhr_up + recovery_needed"}, "Try 10m recovery walk")
		},
	},
	{
		Name: "air_quality",
		When: func(d *model.Drivers) bool { return gte(d.AQILevel, 100) },
		Emit: func(d *model.Drivers) []model.Trigger {
			sev := model.SeveritySevere
			if gte(d.AQILevel, 100) && lt(d.AQILevel, 150) {
				sev = model.SeverityModerate
			}
			return one(model.CategoryAirQuality, model.TypeAlert, sev, 0.85,
				[]string{"aqi>=100"}, aqiCallout(d))
		},
	},
	{
		Name: "environmental_allergies",
		When: func(d *model.Drivers) bool { return d.AllergensHighToday && gte(d.AQILevel, 80) },
		Emit: func(d *model.Drivers) []model.Trigger {
			return one(model.CategoryEnvironmentalAllergies, model.TypeAction, model.SeverityMild, 0.6,
				[]string{"allergens_high"}, "Consider indoor time; shower after outdoor")
		},
	},
	{
		Name: "water_quality",
		When: func(d *model.Drivers) bool { return d.WaterAdvisoryFlag },
		Emit: func(d *model.Drivers) []model.Trigger {
			return one(model.CategoryWaterQuality, model.TypeAlert, model.SeveritySevere, 0.9,
				[]string{"local_advisory"}, "Use filtered/bottled per local guidance")
		},
	},
	{
		Name: "hydration",
		When: func(d *model.Drivers) bool { return gt(d.CaffeineLoadMg, 300) },
		Emit: func(d *model.Drivers) []model.Trigger {
			return one(model.CategoryHydration, model.TypeAction, model.SeverityMild, 0.55,
				[]string{"caffeine_diuretic_proxy"}, "Add +1–2 cups water")
		},
	},
	{
		Name: "circadian_disruption",
		When: func(d *model.Drivers) bool { return gt(d.LateScreenMins, 60) && d.SleepDebtHours > 1 },
		Emit: func(d *model.Drivers) []model.Trigger {
			return one(model.CategoryCircadianDisruption, model.TypeAction, model.SeverityMild, 0.6,
				[]string{"late_light + short_sleep"}, "Aim screen cutoff ≤23:00")
		},
	},
	{
		Name: "mood",
		When: func(d *model.Drivers) bool {
			return d.MoodTrend == model.TrendDown && (d.SleepDebtHours > 1 || lt(d.AvgSteps7d, 5000))
		},
		Emit: func(d *model.Drivers) []model.Trigger {
			return []model.Trigger{
				trigger(model.CategoryMood, model.TypeInsight, model.SeverityMild, 0.6,
					[]string{"mood_down + recovery_needed"}, "Try 10m sunlight walk"),
				trigger(model.CategoryAnxiety, model.TypeAction, model.SeverityMild, 0.5,
					[]string{"mood_down + sleep"}, "2 min breathing tonight"),
				trigger(model.CategoryDepression, model.TypeAction, model.SeverityMild, 0.5,
					[]string{"mood_down + sedentary"}, "Text a friend / quick check-in"),
			}
		},
	},
	{
		Name: "weight_management",
		When: func(d *model.Drivers) bool {
			return gte(d.BMI, 27) && (lt(d.AvgSteps7d, 7000) || d.AlcoholUnitsWeek >= 6)
		},
		Emit: func(d *model.Drivers) []model.Trigger {
			sev := model.SeverityMild
			if gte(d.BMI, 30) {
				sev = model.SeverityModerate
			}
			return one(model.CategoryWeightManagement, model.TypeAction, sev, 0.7,
				[]string{"bmi + lifestyle"}, bmiCallout(d), stepsCallout(d), alcoholCallout(d))
		},
	},
	{
		Name: "prediabetes",
		When: func(d *model.Drivers) bool {
			return (gte(d.BMI, 27) && gte(d.FamHxDiabetes, 1)) || (lt(d.AvgSteps7d, 5000) && gte(d.BMI, 27))
		},
		Emit: func(d *model.Drivers) []model.Trigger {
			return one(model.CategoryPrediabetes, model.TypeInsight, model.SeverityMild, 0.6,
				[]string{"bmi + famHx or lowSteps"}, "Favor 10–15m post-meal walk")
		},
	},
	{
		Name: "diabetes_type2",
		When: func(d *model.Drivers) bool {
			return gte(d.BMI, 30) && lt(d.AvgSteps7d, 5000) && gte(d.FamHxDiabetes, 1)
		},
		Emit: func(d *model.Drivers) []model.Trigger {
			return one(model.CategoryDiabetesType2, model.TypeInsight, model.SeverityModerate, 0.55,
				[]string{"clustered_risk_factors"}, "Smaller carb portion at dinner")
		},
	},
	{
		Name: "hypertension",
		When: func(d *model.Drivers) bool {
			return (gte(d.BMI, 27) && gte(d.FamHxHypertension, 1)) || gt(d.SedentaryHours, 8)
		},
		Emit: func(d *model.Drivers) []model.Trigger {
			return one(model.CategoryHypertension, model.TypeAction, model.SeverityMild, 0.6,
				[]string{"bmi/family/sedentary"}, "Low-salt meal swap 1x")
		},
	},
	{
		Name: "alcohol_use",
		When: func(d *model.Drivers) bool { return d.AlcoholUnitsWeek >= 7 },
		Emit: func(d *model.Drivers) []model.Trigger {
			sev := model.SeverityMild
			if d.AlcoholUnitsWeek >= 14 {
				sev = model.SeverityModerate
			}
			return one(model.CategoryAlcoholUse, model.TypeAction, sev, 0.75,
				[]string{"alcohol>=7/wk"}, alcoholCallout(d))
		},
	},
	{
		Name: "smoking",
		When: func(d *model.Drivers) bool { return d.SmokingStatus == model.SmokingCurrent },
		Emit: func(d *model.Drivers) []model.Trigger {
			return one(model.CategorySmoking, model.TypeAction, model.SeveritySevere, 0.9,
				[]string{"smoking_current"}, "Explore a quit plan resource")
		},
	},
	{
		Name: "sleep_apnea",
		When: func(d *model.Drivers) bool { return gte(d.BMI, 30) && d.SleepDebtHours > 1 },
		Emit: func(d *model.Drivers) []model.Trigger {
			return one(model.CategorySleepApnea, model.TypeInsight, model.SeverityMild, 0.5,
				[]string{"bmi + short_sleep"}, "Aim consistent bedtime this week")
		},
	},
	{
		Name: "social_isolation",
		When: func(d *model.Drivers) bool { return d.MoodTrend == model.TrendDown && lt(d.AvgSteps7d, 5000) },
		Emit: func(d *model.Drivers) []model.Trigger {
			return one(model.CategorySocialIsolation, model.TypeAction, model.SeverityMild, 0.5,
				[]string{"mood_down + low_steps"}, "Plan a 10m walk w/ a friend")
		},
	},
	{
		Name: "gerd",
		When: func(d *model.Drivers) bool { return d.LateMealsPerWeek >= 3 && gt(d.CaffeineLoadMg, 250) },
		Emit: func(d *model.Drivers) []model.Trigger {
			return one(model.CategoryGERD, model.TypeAction, model.SeverityMild, 0.55,
				[]string{"late_meals + caffeine"}, "Avoid eating 2–3h before bed")
		},
	},
}

func trigger(c model.Category, t model.TriggerType, s model.Severity, conf float64, reasons []string, callouts ...string) model.Trigger {
	return model.Trigger{
		Category:       c,
		Type:           t,
		Severity:       s,
		Confidence:     conf,
		Reasons:        reasons,
		MetricCallouts: callouts,
	}
}

func one(c model.Category, t model.TriggerType, s model.Severity, conf float64, reasons []string, callouts ...string) []model.Trigger {
	return []model.Trigger{trigger(c, t, s, conf, reasons, callouts...)}
}

// Comparisons against a missing value are false.

type number interface {
	~int | ~float64
}

func gt[T number](v *T, th T) bool  { return v != nil && *v > th }
func gte[T number](v *T, th T) bool { return v != nil && *v >= th }
func lt[T number](v *T, th T) bool  { return v != nil && *v < th }

// --- metric callouts ---

const missing = "n/a"

func num(v *float64) string {
	if v == nil {
		return missing
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func sleepCallout(d *model.Drivers) string {
	return fmt.Sprintf("Sleep debt %.1fh", d.SleepDebtHours)
}

func lateScreenCallout(d *model.Drivers) string {
	return "Late screen " + num(d.LateScreenMins) + "m"
}

func stepsCallout(d *model.Drivers) string {
	steps := missing
	if d.AvgSteps7d != nil {
		steps = strconv.Itoa(*d.AvgSteps7d)
	}
	return "Steps " + steps + " (goal 7–10k)"
}

func caffeineCallout(d *model.Drivers) string {
	return "Caffeine " + num(d.CaffeineLoadMg) + "mg"
}

func aqiCallout(d *model.Drivers) string {
	return "AQI " + num(d.AQILevel)
}

func rhrCallout(d *model.Drivers) string {
	return "RHR trend " + string(d.RestingHRTrend)
}

func bmiCallout(d *model.Drivers) string {
	if d.BMI == nil {
		return "BMI " + missing
	}
	return fmt.Sprintf("BMI %.1f", *d.BMI)
}

func sedentaryCallout(d *model.Drivers) string {
	return "Sedentary " + num(d.SedentaryHours) + "h"
}

func alcoholCallout(d *model.Drivers) string {
	return "Alcohol " + strconv.FormatFloat(d.AlcoholUnitsWeek, 'f', -1, 64) + "/wk"
}
