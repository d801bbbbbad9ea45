package refiner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifelens/lifelens-cli/internal/model"
)

func TestFormat_OrderAndShape(t *testing.T) {
	t.Parallel()

	in := []model.Trigger{
		trig(model.CategoryMood, model.TypeInsight, model.SeverityMild, 0.55),
		trig(model.CategoryAirQuality, model.TypeAlert, model.SeveritySevere, 0.9, "AQI 180"),
		trig(model.CategorySleepDebt, model.TypeInsight, model.SeverityModerate, 0.8, "Sleep debt 2.0h"),
		trig(model.CategoryCaffeine, model.TypeAction, model.SeverityModerate, 0.7, "Caffeine 400mg"),
		trig(model.CategorySedentaryLifestyle, model.TypeAction, model.SeverityModerate, 0.8, "Sedentary 10h"),
	}

	cards := Format(in)
	require.Len(t, cards, 5)

	want := []model.Category{
		model.CategoryAirQuality,
		model.CategorySleepDebt,
		model.CategorySedentaryLifestyle,
		model.CategoryCaffeine,
		model.CategoryMood,
	}
	for i, c := range cards {
		assert.Equal(t, want[i], c.Category, "rank %d", i)
		assert.Equal(t, float64(i+1), c.Priority)
	}

	assert.Equal(t, "Alert: Air quality", cards[0].Title)
	assert.Equal(t, "Air is elevated today. Prefer indoor or shorter sessions.", cards[0].Body)
	assert.Equal(t, []string{"AQI 180"}, cards[0].MetricCallouts)
	assert.Equal(t, "Heads-up: Sleep debt", cards[1].Title)
	assert.Contains(t, cards[1].Body, "wind-down")
	assert.Equal(t, "Try this: Sedentary lifestyle", cards[2].Title)
	assert.Contains(t, cards[2].Body, "short walks")
	assert.Equal(t, "Try this: Caffeine", cards[3].Title)
	assert.Equal(t, defaultBody, cards[3].Body)
	assert.NotNil(t, cards[4].MetricCallouts)
}

func TestFormat_TopSixAndStableTies(t *testing.T) {
	t.Parallel()

	var in []model.Trigger
	for _, c := range model.Categories[:8] {
		in = append(in, trig(c, model.TypeInsight, model.SeverityMild, 0.5))
	}
	cards := Format(in)
	require.Len(t, cards, MaxCards)
	for i := range cards {
		assert.Equal(t, model.Categories[i], cards[i].Category)
	}
}

func TestFormat_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := []model.Trigger{
		trig(model.CategoryMood, model.TypeInsight, model.SeverityMild, 0.5),
		trig(model.CategorySmoking, model.TypeAlert, model.SeveritySevere, 0.9),
	}
	_ = Format(in)
	assert.Equal(t, model.CategoryMood, in[0].Category)
}

func TestLocal_Refine(t *testing.T) {
	t.Parallel()

	cards, err := Local{}.Refine(context.Background(), Request{})
	require.NoError(t, err)
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}
