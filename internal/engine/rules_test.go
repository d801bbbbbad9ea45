package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifelens/lifelens-cli/internal/model"
)

func ruleByName(t *testing.T, name string) Rule {
	t.Helper()
	for _, r := range Rules() {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("rule %q not found", name)
	return Rule{}
}

func categories(triggers []model.Trigger) []model.Category {
	out := make([]model.Category, len(triggers))
	for i, tr := range triggers {
		out[i] = tr.Category
	}
	return out
}

func find(triggers []model.Trigger, c model.Category) (model.Trigger, bool) {
	for _, tr := range triggers {
		if tr.Category == c {
			return tr, true
		}
	}
	return model.Trigger{}, false
}

func TestRules_NamesUnique(t *testing.T) {
	t.Parallel()
	seen := map[string]bool{}
	for _, r := range Rules() {
		assert.False(t, seen[r.Name], "duplicate rule %s", r.Name)
		seen[r.Name] = true
		assert.NotNil(t, r.When)
		assert.NotNil(t, r.Emit)
	}
	assert.Len(t, seen, 22)
}

func TestEvaluateRules_EmptyDrivers(t *testing.T) {
	t.Parallel()
	out := EvaluateRules(DeriveDrivers(model.RawHealthInput{}))
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestRules_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rule  string
		d     model.Drivers
		fires bool
		sev   model.Severity
	}{
		// Sleep debt: >= 1.5, or late screen > 60 with debt >= 1.
		{"sleep debt below", "sleep_debt", model.Drivers{SleepDebtHours: 1.49}, false, 0},
		{"sleep debt at 1.5", "sleep_debt", model.Drivers{SleepDebtHours: 1.5}, true, 2},
		{"sleep debt at 2", "sleep_debt", model.Drivers{SleepDebtHours: 2}, true, 3},
		{"sleep debt screen at 60", "sleep_debt", model.Drivers{SleepDebtHours: 1, LateScreenMins: model.Float(60)}, false, 0},
		{"sleep debt screen 61", "sleep_debt", model.Drivers{SleepDebtHours: 1, LateScreenMins: model.Float(61)}, true, 2},
		{"sleep debt screen debt 0.9", "sleep_debt", model.Drivers{SleepDebtHours: 0.9, LateScreenMins: model.Float(200)}, false, 0},

		{"screen at 60", "screen_time", model.Drivers{LateScreenMins: model.Float(60)}, false, 0},
		{"screen 61", "screen_time", model.Drivers{LateScreenMins: model.Float(61)}, true, 1},
		{"screen at 120", "screen_time", model.Drivers{LateScreenMins: model.Float(120)}, true, 1},
		{"screen 121", "screen_time", model.Drivers{LateScreenMins: model.Float(121)}, true, 2},

		{"steps at 5000", "sedentary_lifestyle", model.Drivers{AvgSteps7d: model.Int(5000)}, false, 0},
		{"steps 4999", "sedentary_lifestyle", model.Drivers{AvgSteps7d: model.Int(4999)}, true, 2},
		{"steps at 3000", "sedentary_lifestyle", model.Drivers{AvgSteps7d: model.Int(3000)}, true, 2},
		{"steps 2999", "sedentary_lifestyle", model.Drivers{AvgSteps7d: model.Int(2999)}, true, 3},
		{"sitting at 8", "sedentary_lifestyle", model.Drivers{SedentaryHours: model.Float(8)}, false, 0},
		{"sitting 8.5", "sedentary_lifestyle", model.Drivers{SedentaryHours: model.Float(8.5)}, true, 2},
		{"sitting at 10", "sedentary_lifestyle", model.Drivers{SedentaryHours: model.Float(10)}, true, 2},
		{"sitting 10.5", "sedentary_lifestyle", model.Drivers{SedentaryHours: model.Float(10.5)}, true, 3},

		{"caffeine at 250", "caffeine", model.Drivers{CaffeineLoadMg: model.Float(250)}, false, 0},
		{"caffeine 251", "caffeine", model.Drivers{CaffeineLoadMg: model.Float(251)}, true, 1},
		{"caffeine at 350", "caffeine", model.Drivers{CaffeineLoadMg: model.Float(350)}, true, 1},
		{"caffeine 351", "caffeine", model.Drivers{CaffeineLoadMg: model.Float(351)}, true, 2},

		{"migraine debt at 1", "migraine", model.Drivers{CaffeineLoadMg: model.Float(300), SleepDebtHours: 1}, false, 0},
		{"migraine debt 1.1", "migraine", model.Drivers{CaffeineLoadMg: model.Float(300), SleepDebtHours: 1.1}, true, 2},
		{"migraine screen", "migraine", model.Drivers{CaffeineLoadMg: model.Float(300), LateScreenMins: model.Float(61)}, true, 2},

		{"heart rate flat", "heart_rate", model.Drivers{RestingHRTrend: model.TrendFlat, SleepDebtHours: 3}, false, 0},
		{"heart rate up sitting", "heart_rate", model.Drivers{RestingHRTrend: model.TrendUp, SedentaryHours: model.Float(9)}, true, 2},
		{"heart rate up no stressor", "heart_rate", model.Drivers{RestingHRTrend: model.TrendUp, SleepDebtHours: 1}, false, 0},

		{"stress up low steps", "stress", model.Drivers{RestingHRTrend: model.TrendUp, AvgSteps7d: model.Int(4000)}, true, 1},
		{"stress up sitting only", "stress", model.Drivers{RestingHRTrend: model.TrendUp, SedentaryHours: model.Float(12)}, false, 0},

		{"aqi 99", "air_quality", model.Drivers{AQILevel: model.Float(99)}, false, 0},
		{"aqi 100", "air_quality", model.Drivers{AQILevel: model.Float(100)}, true, 2},
		{"aqi 149.9", "air_quality", model.Drivers{AQILevel: model.Float(149.9)}, true, 2},
		{"aqi 150", "air_quality", model.Drivers{AQILevel: model.Float(150)}, true, 3},

		{"allergens aqi 79", "environmental_allergies", model.Drivers{AllergensHighToday: true, AQILevel: model.Float(79)}, false, 0},
		{"allergens aqi 80", "environmental_allergies", model.Drivers{AllergensHighToday: true, AQILevel: model.Float(80)}, true, 1},
		{"no allergens aqi 200", "environmental_allergies", model.Drivers{AQILevel: model.Float(200)}, false, 0},

		{"water advisory", "water_quality", model.Drivers{WaterAdvisoryFlag: true}, true, 3},
		{"no water advisory", "water_quality", model.Drivers{}, false, 0},

		{"hydration at 300", "hydration", model.Drivers{CaffeineLoadMg: model.Float(300)}, false, 0},
		{"hydration 301", "hydration", model.Drivers{CaffeineLoadMg: model.Float(301)}, true, 1},

		{"circadian debt at 1", "circadian_disruption", model.Drivers{LateScreenMins: model.Float(90), SleepDebtHours: 1}, false, 0},
		{"circadian", "circadian_disruption", model.Drivers{LateScreenMins: model.Float(90), SleepDebtHours: 1.2}, true, 1},

		{"mood flat", "mood", model.Drivers{MoodTrend: model.TrendFlat, SleepDebtHours: 3}, false, 0},
		{"mood down debt", "mood", model.Drivers{MoodTrend: model.TrendDown, SleepDebtHours: 1.5}, true, 1},

		{"weight bmi 26.9", "weight_management", model.Drivers{BMI: model.Float(26.9), AvgSteps7d: model.Int(1000)}, false, 0},
		{"weight bmi 27", "weight_management", model.Drivers{BMI: model.Float(27), AvgSteps7d: model.Int(6999)}, true, 1},
		{"weight steps 7000", "weight_management", model.Drivers{BMI: model.Float(27), AvgSteps7d: model.Int(7000)}, false, 0},
		{"weight alcohol 6", "weight_management", model.Drivers{BMI: model.Float(30), AlcoholUnitsWeek: 6}, true, 2},

		{"prediabetes famhx", "prediabetes", model.Drivers{BMI: model.Float(27), FamHxDiabetes: model.Int(1)}, true, 1},
		{"prediabetes famhx 0", "prediabetes", model.Drivers{BMI: model.Float(27), FamHxDiabetes: model.Int(0)}, false, 0},
		{"prediabetes low steps", "prediabetes", model.Drivers{BMI: model.Float(27), AvgSteps7d: model.Int(4999)}, true, 1},

		{"diabetes all three", "diabetes_type2", model.Drivers{BMI: model.Float(30), AvgSteps7d: model.Int(4999), FamHxDiabetes: model.Int(1)}, true, 2},
		{"diabetes bmi 29.9", "diabetes_type2", model.Drivers{BMI: model.Float(29.9), AvgSteps7d: model.Int(4999), FamHxDiabetes: model.Int(1)}, false, 0},
		{"diabetes no famhx", "diabetes_type2", model.Drivers{BMI: model.Float(35), AvgSteps7d: model.Int(1000)}, false, 0},

		{"hypertension famhx", "hypertension", model.Drivers{BMI: model.Float(27), FamHxHypertension: model.Int(1)}, true, 1},
		{"hypertension sitting at 8", "hypertension", model.Drivers{SedentaryHours: model.Float(8)}, false, 0},
		{"hypertension sitting 8.1", "hypertension", model.Drivers{SedentaryHours: model.Float(8.1)}, true, 1},

		{"alcohol 6.9", "alcohol_use", model.Drivers{AlcoholUnitsWeek: 6.9}, false, 0},
		{"alcohol 7", "alcohol_use", model.Drivers{AlcoholUnitsWeek: 7}, true, 1},
		{"alcohol 14", "alcohol_use", model.Drivers{AlcoholUnitsWeek: 14}, true, 2},

		{"smoking former", "smoking", model.Drivers{SmokingStatus: model.SmokingFormer}, false, 0},
		{"smoking current", "smoking", model.Drivers{SmokingStatus: model.SmokingCurrent}, true, 3},

		{"apnea", "sleep_apnea", model.Drivers{BMI: model.Float(30), SleepDebtHours: 1.01}, true, 1},
		{"apnea bmi 29", "sleep_apnea", model.Drivers{BMI: model.Float(29), SleepDebtHours: 3}, false, 0},

		{"isolation", "social_isolation", model.Drivers{MoodTrend: model.TrendDown, AvgSteps7d: model.Int(4999)}, true, 1},
		{"isolation steps 5000", "social_isolation", model.Drivers{MoodTrend: model.TrendDown, AvgSteps7d: model.Int(5000)}, false, 0},

		{"gerd", "gerd", model.Drivers{LateMealsPerWeek: 3, CaffeineLoadMg: model.Float(251)}, true, 1},
		{"gerd 2 meals", "gerd", model.Drivers{LateMealsPerWeek: 2, CaffeineLoadMg: model.Float(400)}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := ruleByName(t, tt.rule)
			d := tt.d
			require.Equal(t, tt.fires, r.When(&d))
			if !tt.fires {
				return
			}
			out := r.Emit(&d)
			require.NotEmpty(t, out)
			assert.Equal(t, tt.sev, out[0].Severity)
		})
	}
}

func TestRules_MissingValuesNeverFire(t *testing.T) {
	t.Parallel()

	// All pointer drivers nil: only the sleep debt rule can still see a value.
	d := model.Drivers{SleepDebtHours: 0, MoodTrend: model.TrendDown, RestingHRTrend: model.TrendUp}
	assert.Empty(t, EvaluateRules(d))
}

func TestRules_EveryTriggerHasCallout(t *testing.T) {
	t.Parallel()

	d := DeriveDrivers(model.RawHealthInput{
		BMI: model.Float(33), FamHxHypertension: model.Int(1), FamHxDiabetes: model.Int(2),
		SleepHoursAvg7d: model.Float(4), LateScreenMinsAvg7d: model.Float(180), StepsAvg7d: model.Int(1200),
		RestingHRTrend14d: model.TrendUp, CaffeineMgDay: model.Float(500), SedentaryHoursDay: model.Float(12),
		AlcoholUnitsWeek: model.Float(20), SmokingStatus: model.SmokingCurrent, MoodTrend14d: model.TrendDown,
		AQIDailyMax: model.Float(180), WaterAdvisoryFlag: model.Bool(true), AllergensHighToday: model.Bool(true),
		LateMealsPerWeek: model.Int(5),
	})
	out := EvaluateRules(d)

	// Every rule fires: 22 rules, two of which emit extra triggers.
	assert.Len(t, out, 25)
	for _, tr := range out {
		assert.True(t, tr.Category.Valid(), "category %q", tr.Category)
		assert.True(t, tr.Type.Valid(), "type %q", tr.Type)
		assert.GreaterOrEqual(t, int(tr.Severity), 1)
		assert.LessOrEqual(t, int(tr.Severity), 3)
		assert.Greater(t, tr.Confidence, 0.0)
		assert.LessOrEqual(t, tr.Confidence, 1.0)
		assert.NotEmpty(t, tr.MetricCallouts, "category %s", tr.Category)
		assert.NotEmpty(t, tr.Reasons, "category %s", tr.Category)
	}
}

func TestRules_SedentaryEmitsExercise(t *testing.T) {
	t.Parallel()

	out := EvaluateRules(model.Drivers{AvgSteps7d: model.Int(2000), SedentaryHours: model.Float(6)})
	require.Len(t, out, 2)
	assert.Equal(t, model.CategorySedentaryLifestyle, out[0].Category)
	assert.Equal(t, []string{"Steps 2000 (goal 7–10k)", "Sedentary 6h"}, out[0].MetricCallouts)
	assert.Equal(t, model.CategoryExercise, out[1].Category)
	assert.Equal(t, model.TypeAction, out[1].Type)
	assert.Equal(t, model.SeverityModerate, out[1].Severity)
	assert.InDelta(t, 0.7, out[1].Confidence, 1e-9)
	assert.Equal(t, []string{"Add +2000 steps today"}, out[1].MetricCallouts)
}

func TestRules_MoodTripleOrder(t *testing.T) {
	t.Parallel()

	out := EvaluateRules(model.Drivers{MoodTrend: model.TrendDown, SleepDebtHours: 1.2})
	assert.Equal(t, []model.Category{
		model.CategoryMood, model.CategoryAnxiety, model.CategoryDepression,
	}, categories(out))
	assert.Equal(t, model.TypeInsight, out[0].Type)
	assert.InDelta(t, 0.6, out[0].Confidence, 1e-9)
	assert.Equal(t, model.TypeAction, out[1].Type)
	assert.InDelta(t, 0.5, out[1].Confidence, 1e-9)
	assert.Equal(t, model.TypeAction, out[2].Type)
	assert.InDelta(t, 0.5, out[2].Confidence, 1e-9)
}

func TestRules_CaffeineHydrationMigraineCoFire(t *testing.T) {
	t.Parallel()

	out := EvaluateRules(DeriveDrivers(model.RawHealthInput{
		CaffeineMgDay:       model.Float(320),
		SleepHoursAvg7d:     model.Float(6),
		LateScreenMinsAvg7d: model.Float(70),
	}))

	caf, ok := find(out, model.CategoryCaffeine)
	require.True(t, ok)
	assert.Equal(t, model.SeverityMild, caf.Severity)
	_, ok = find(out, model.CategoryHydration)
	assert.True(t, ok)
	mig, ok := find(out, model.CategoryMigraine)
	require.True(t, ok)
	assert.Equal(t, []string{"Caffeine 320mg", "Sleep debt 2.0h"}, mig.MetricCallouts)
}

func TestRules_StressAndHeartRateCoFire(t *testing.T) {
	t.Parallel()

	out := EvaluateRules(model.Drivers{RestingHRTrend: model.TrendUp, SleepDebtHours: 2})
	hr, ok := find(out, model.CategoryHeartRate)
	require.True(t, ok)
	assert.Equal(t, model.TypeAlert, hr.Type)
	assert.Equal(t, []string{"RHR trend up", "Sleep debt 2.0h", "Sedentary n/a"}, hr.MetricCallouts)
	_, ok = find(out, model.CategoryStress)
	assert.True(t, ok)
}

func TestRules_SmokingCeiling(t *testing.T) {
	t.Parallel()

	inputs := []model.RawHealthInput{
		{SmokingStatus: model.SmokingCurrent},
		{SmokingStatus: model.SmokingCurrent, BMI: model.Float(40), SleepHoursAvg7d: model.Float(3)},
		{SmokingStatus: model.SmokingCurrent, AlcoholUnitsWeek: model.Float(30), AQIDailyMax: model.Float(300)},
	}
	for _, in := range inputs {
		tr, ok := find(EvaluateRules(DeriveDrivers(in)), model.CategorySmoking)
		require.True(t, ok)
		assert.Equal(t, model.SeveritySevere, tr.Severity)
		assert.Equal(t, 0.9, tr.Confidence)
	}
}

func TestRules_BMICallout(t *testing.T) {
	t.Parallel()

	out := EvaluateRules(model.Drivers{BMI: model.Float(27.26), AlcoholUnitsWeek: 6})
	wm, ok := find(out, model.CategoryWeightManagement)
	require.True(t, ok)
	assert.Equal(t, []string{"BMI 27.3", "Steps n/a (goal 7–10k)", "Alcohol 6/wk"}, wm.MetricCallouts)
}
