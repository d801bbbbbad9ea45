package forecast

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lifelens/lifelens-cli/internal/model"
)

type fakeGenerator struct {
	mock.Mock
}

func (f *fakeGenerator) Text(ctx context.Context, purpose, system, prompt string) (string, error) {
	args := f.Called(ctx, purpose, system, prompt)
	return args.String(0), args.Error(1)
}

func today() map[string]float64 {
	return map[string]float64{"sleepDebtHours": 2, "avgSteps7d": 4000}
}

const fullReply = `{
  "horizon_months": 24,
  "today_metrics": {"sleepDebtHours": 2, "avgSteps7d": 4000},
  "future_metrics": {"sleepDebtHours": 3.5, "bmi": 29, "note": "n/a"},
  "risk_changes": [{"risk":"Hypertension","direction":"worsen","confidence":0.6,"drivers":["low steps"]}],
  "watch": ["Resting heart rate"],
  "warnings": ["Illustrative only."],
  "narrative": "Today, you are here..."
}`

func TestClampHorizon(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want int }{
		{-5, 1}, {0, 1}, {1, 1}, {12, 12}, {480, 480}, {481, 480}, {10000, 480},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampHorizon(tt.in), "in=%d", tt.in)
	}
}

func TestSimulate_Success(t *testing.T) {
	gen := &fakeGenerator{}
	gen.On("Text", mock.Anything, "forecast", "", mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, `TODAY_METRICS: {"avgSteps7d":4000,"sleepDebtHours":2}`) &&
			strings.Contains(p, "HORIZON: 24 months") &&
			strings.Contains(p, `"horizon_months": 24`)
	})).Return("```json\n"+fullReply+"\n```", nil).Once()

	fc, err := New(gen).Simulate(context.Background(), Request{TodayMetrics: today(), HorizonMonths: 24})
	require.NoError(t, err)
	assert.False(t, fc.Fallback)
	assert.Equal(t, 24, fc.HorizonMonths)
	assert.Empty(t, fc.MissingFields)
	assert.Equal(t, map[string]float64{"sleepDebtHours": 3.5, "avgSteps7d": 4000, "bmi": 29}, fc.FutureMetrics)
	assert.Equal(t, today(), fc.TodayMetrics)
	require.Len(t, fc.RiskChanges, 1)
	assert.Equal(t, "Hypertension", fc.RiskChanges[0].Risk)
	assert.Equal(t, []string{"Resting heart rate"}, fc.Watch)
	assert.Equal(t, []string{"Illustrative only."}, fc.Warnings)
	assert.Equal(t, "Today, you are here...", fc.Narrative)
	gen.AssertExpectations(t)
}

func TestSimulate_ClampsHorizon(t *testing.T) {
	gen := &fakeGenerator{}
	gen.On("Text", mock.Anything, mock.Anything, mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "HORIZON: 480 months")
	})).Return("", errors.New("down")).Once()

	fc, err := New(gen).Simulate(context.Background(), Request{HorizonMonths: 9999})
	require.NoError(t, err)
	assert.Equal(t, 480, fc.HorizonMonths)
	gen.AssertExpectations(t)
}

func TestSimulate_GenerationFailure(t *testing.T) {
	gen := &fakeGenerator{}
	gen.On("Text", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("down")).Once()

	fc, err := New(gen).Simulate(context.Background(), Request{TodayMetrics: today(), HorizonMonths: 12})
	require.NoError(t, err)
	assert.True(t, fc.Fallback)
	assert.Equal(t, NarrativeCallFailed, fc.Narrative)
	assert.Equal(t, today(), fc.FutureMetrics)
	assert.Equal(t, DefaultRiskChanges(), fc.RiskChanges)
	assert.Equal(t, DefaultWatch(), fc.Watch)
	assert.NotNil(t, fc.Warnings)
}

func TestParse_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		narrative string
	}{
		{"no json", "Sorry, I can't do that.", NarrativeNoJSON},
		{"invalid json", `{"narrative": "oops",}`, NarrativeInvalidJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := Parse(tt.text, today(), 6)
			assert.True(t, fc.Fallback)
			assert.Equal(t, tt.narrative, fc.Narrative)
			assert.Equal(t, 6, fc.HorizonMonths)
			assert.Equal(t, today(), fc.FutureMetrics)
		})
	}
}

func TestParse_MissingFieldsAndDefaults(t *testing.T) {
	t.Parallel()

	fc := Parse(`Here: {"future_metrics": {"bmi": 31}, "risk_changes": [], "watch": []}`, today(), 12)
	assert.False(t, fc.Fallback)
	assert.Equal(t, []string{"horizon_months", "today_metrics", "warnings", "narrative"}, fc.MissingFields)
	assert.Equal(t, DefaultRiskChanges(), fc.RiskChanges)
	assert.Equal(t, DefaultWatch(), fc.Watch)
	assert.Equal(t, NarrativeEmpty, fc.Narrative)
	assert.NotNil(t, fc.Warnings)
	assert.InDelta(t, 31, fc.FutureMetrics["bmi"], 1e-9)
	assert.InDelta(t, 2, fc.FutureMetrics["sleepDebtHours"], 1e-9)
}

func TestParse_MalformedSectionKeepsOthers(t *testing.T) {
	t.Parallel()

	fc := Parse(`{"watch": "not a list", "narrative": "Still here."}`, today(), 12)
	assert.Equal(t, "Still here.", fc.Narrative)
	assert.Equal(t, DefaultWatch(), fc.Watch)
}

func TestParse_DoesNotAliasToday(t *testing.T) {
	t.Parallel()

	in := today()
	fc := Parse(`{"future_metrics": {"sleepDebtHours": 9}}`, in, 12)
	assert.InDelta(t, 2, in["sleepDebtHours"], 1e-9)
	fc.TodayMetrics["x"] = 1
	assert.NotContains(t, in, "x")
}

func TestTodayMetrics(t *testing.T) {
	t.Parallel()

	d := model.Drivers{
		SleepDebtHours:   1.5,
		AvgSteps7d:       model.Int(3000),
		AQILevel:         model.Float(120),
		AlcoholUnitsWeek: 4,
		LateMealsPerWeek: 2,
	}
	m := TodayMetrics(d)
	assert.Equal(t, map[string]float64{
		"sleepDebtHours":   1.5,
		"avgSteps7d":       3000,
		"aqiLevel":         120,
		"alcoholUnitsWeek": 4,
		"lateMealsPerWeek": 2,
	}, m)
}
