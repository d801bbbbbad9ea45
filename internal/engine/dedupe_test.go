package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lifelens/lifelens-cli/internal/model"
)

func mk(c model.Category, typ model.TriggerType, sev model.Severity, conf float64, callouts ...string) model.Trigger {
	return model.Trigger{Category: c, Type: typ, Severity: sev, Confidence: conf, MetricCallouts: callouts}
}

func TestSignature(t *testing.T) {
	t.Parallel()

	tr := mk(model.CategoryCaffeine, model.TypeAction, 2, 0.8, "Caffeine 420mg", "x")
	assert.Equal(t, "Caffeine|action|2|0.8|Caffeine 420mg,x", Signature(tr))

	tr.MetricCallouts = nil
	assert.Equal(t, "Caffeine|action|2|0.8|", Signature(tr))
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	a := mk(model.CategorySleepDebt, model.TypeInsight, 3, 0.85, "Sleep debt 2.0h")
	aAgain := a
	aAgain.Reasons = []string{"different", "reasons"}
	b := mk(model.CategorySleepDebt, model.TypeInsight, 2, 0.85, "Sleep debt 2.0h")
	c := mk(model.CategorySleepDebt, model.TypeInsight, 3, 0.85, "Sleep debt 2.1h")
	d := mk(model.CategorySleepDebt, model.TypeInsight, 3, 0.8, "Sleep debt 2.0h")
	e := mk(model.CategorySleepDebt, model.TypeAction, 3, 0.85, "Sleep debt 2.0h")

	got := Dedupe([]model.Trigger{a, b, aAgain, c, d, a, e})

	assert.Equal(t, []model.Trigger{a, b, c, d, e}, got)
}

func TestDedupe_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Dedupe(nil))
	assert.NotNil(t, Dedupe(nil))
}

func TestDedupe_Idempotent(t *testing.T) {
	t.Parallel()

	in := []model.Trigger{
		mk(model.CategoryMood, model.TypeInsight, 1, 0.6, "Try 10m sunlight walk"),
		mk(model.CategoryHydration, model.TypeAction, 1, 0.55, "Add +1–2 cups water"),
		mk(model.CategoryMood, model.TypeInsight, 1, 0.6, "Try 10m sunlight walk"),
		mk(model.CategoryStress, model.TypeInsight, 1, 0.6, "Try 10m recovery walk"),
		mk(model.CategoryHydration, model.TypeAction, 1, 0.55, "Add +1–2 cups water"),
	}
	once := Dedupe(in)
	twice := Dedupe(once)

	assert.Equal(t, once, twice)
	assert.LessOrEqual(t, len(once), len(in))
	assert.Equal(t, []model.Category{model.CategoryMood, model.CategoryHydration, model.CategoryStress}, categories(once))
}

func TestUniqBy(t *testing.T) {
	t.Parallel()
	got := UniqBy([]string{"b", "a", "B", "a", "c"}, func(s string) string { return s })
	assert.Equal(t, []string{"b", "a", "B", "c"}, got)
}
