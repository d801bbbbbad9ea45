// Package forecast projects today's metrics forward over a horizon of
// months, the "time machine" view. The model writes the projection; every
// failure mode still yields a usable Forecast.
package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lifelens/lifelens-cli/internal/model"
)

// Horizon bounds in months.
const (
	MinHorizonMonths     = 1
	MaxHorizonMonths     = 480
	DefaultHorizonMonths = 12
)

// Narratives used when the model reply cannot be used.
const (
	NarrativeCallFailed  = "Simulation failed due to a network or API error. Try again later."
	NarrativeInvalidJSON = "The model returned invalid JSON. Try again or adjust your inputs."
	NarrativeNoJSON      = "The model did not return JSON. Try again or adjust your inputs."
	NarrativeEmpty       = "No narrative generated."
)

// RequiredFields are the top-level keys a reply must carry.
var RequiredFields = []string{
	"horizon_months",
	"today_metrics",
	"future_metrics",
	"risk_changes",
	"watch",
	"warnings",
	"narrative",
}

// TextGenerator produces a model reply for a prompt.
type TextGenerator interface {
	Text(ctx context.Context, purpose, system, prompt string) (string, error)
}

// Request is the input to Simulate.
type Request struct {
	TodayMetrics  map[string]float64
	HorizonMonths int
}

// Forecaster runs simulations.
type Forecaster struct {
	gen TextGenerator
}

// New creates a Forecaster.
func New(gen TextGenerator) *Forecaster {
	return &Forecaster{gen: gen}
}

// ClampHorizon bounds months to [MinHorizonMonths, MaxHorizonMonths].
func ClampHorizon(months int) int {
	return max(MinHorizonMonths, min(MaxHorizonMonths, months))
}

// Simulate asks the model for a projection over req.HorizonMonths. Model
// and parse failures come back as a fallback Forecast, not an error.
func (f *Forecaster) Simulate(ctx context.Context, req Request) (model.Forecast, error) {
	horizon := ClampHorizon(req.HorizonMonths)
	today := req.TodayMetrics
	if today == nil {
		today = map[string]float64{}
	}

	prompt, err := buildPrompt(today, horizon)
	if err != nil {
		return model.Forecast{}, err
	}

	text, err := f.gen.Text(ctx, "forecast", "", prompt)
	if err != nil {
		zap.L().Warn("forecast generation failed", zap.Int("horizon_months", horizon), zap.Error(err))
		return Fallback(today, horizon, NarrativeCallFailed), nil
	}
	return Parse(text, today, horizon), nil
}

var (
	fence      = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
	jsonObject = regexp.MustCompile(`(?s)\{.*\}`)
)

type reply struct {
	FutureMetrics map[string]any     `json:"future_metrics"`
	RiskChanges   []model.RiskChange `json:"risk_changes"`
	Watch         []string           `json:"watch"`
	Warnings      []string           `json:"warnings"`
	Narrative     string             `json:"narrative"`
}

// Parse turns a model reply into a Forecast, filling defaults for empty
// sections and reporting missing keys.
func Parse(text string, today map[string]float64, horizon int) model.Forecast {
	clean := strings.TrimSpace(text)
	if m := fence.FindStringSubmatch(clean); m != nil {
		clean = m[1]
	}

	obj := jsonObject.FindString(clean)
	if obj == "" {
		return Fallback(today, horizon, NarrativeNoJSON)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &keys); err != nil {
		return Fallback(today, horizon, NarrativeInvalidJSON)
	}
	var r reply
	if err := json.Unmarshal([]byte(obj), &r); err != nil {
		zap.L().Debug("forecast reply has unexpected shapes", zap.Error(err))
		r = lenientReply(keys)
	}

	var missing []string
	for _, f := range RequiredFields {
		if _, ok := keys[f]; !ok {
			missing = append(missing, f)
		}
	}

	fc := model.Forecast{
		HorizonMonths: horizon,
		TodayMetrics:  maps.Clone(today),
		FutureMetrics: mergeMetrics(today, r.FutureMetrics),
		RiskChanges:   r.RiskChanges,
		Watch:         r.Watch,
		Warnings:      r.Warnings,
		Narrative:     r.Narrative,
		MissingFields: missing,
	}
	if len(fc.RiskChanges) == 0 {
		fc.RiskChanges = DefaultRiskChanges()
	}
	if len(fc.Watch) == 0 {
		fc.Watch = DefaultWatch()
	}
	if fc.Warnings == nil {
		fc.Warnings = []string{}
	}
	if fc.Narrative == "" {
		fc.Narrative = NarrativeEmpty
	}
	return fc
}

// lenientReply decodes each field on its own so one malformed section
// does not discard the rest.
func lenientReply(keys map[string]json.RawMessage) reply {
	var r reply
	decode := func(k string, v any) {
		if raw, ok := keys[k]; ok {
			_ = json.Unmarshal(raw, v)
		}
	}
	decode("future_metrics", &r.FutureMetrics)
	decode("risk_changes", &r.RiskChanges)
	decode("watch", &r.Watch)
	decode("warnings", &r.Warnings)
	decode("narrative", &r.Narrative)
	return r
}

func mergeMetrics(today map[string]float64, future map[string]any) map[string]float64 {
	out := maps.Clone(today)
	if out == nil {
		out = map[string]float64{}
	}
	for k, v := range future {
		if n, ok := v.(float64); ok {
			out[k] = n
		}
	}
	return out
}

// Fallback is the deterministic forecast used when the model reply is
// unusable: today's metrics carried forward with default risks and watch
// items.
func Fallback(today map[string]float64, horizon int, narrative string) model.Forecast {
	return model.Forecast{
		HorizonMonths: horizon,
		TodayMetrics:  maps.Clone(today),
		FutureMetrics: mergeMetrics(today, nil),
		RiskChanges:   DefaultRiskChanges(),
		Watch:         DefaultWatch(),
		Warnings:      []string{},
		Narrative:     narrative,
		Fallback:      true,
	}
}

// DefaultRiskChanges is used when the reply lists none.
func DefaultRiskChanges() []model.RiskChange {
	return []model.RiskChange{{
		Risk:       "General health decline",
		Direction:  model.RiskWorsen,
		Confidence: 0.5,
		Drivers:    []string{"unknown"},
	}}
}

// DefaultWatch is used when the reply lists nothing to monitor.
func DefaultWatch() []string {
	return []string{"Sleep quality", "Physical activity", "Diet consistency"}
}

func buildPrompt(today map[string]float64, horizon int) (string, error) {
	b, err := json.Marshal(today)
	if err != nil {
		return "", eris.Wrap(err, "forecast: marshal today metrics")
	}
	return fmt.Sprintf(promptTemplate, string(b), horizon, MaxHorizonMonths, MaxHorizonMonths/12), nil
}

const promptTemplate = `You are LifeLens, a cautious, non-diagnostic health explainer.

Inputs:
- TODAY_METRICS: %[1]s
- HORIZON: %[2]d months into the future (up to %[3]d months / %[4]d years, with month precision).

Your task:
- Infer negative drivers from TODAY_METRICS.
- Project FUTURE_METRICS for each metric, based on TODAY_METRICS and the negative drivers.
- Write a comparison-based narrative of 150-220 words.
- Begin with: "Today, you are here..."
- Then contrast with: "But in %[2]d months, if nothing changes, here's how things may look..."
- Emphasise what gets worse, by how much, and why.
- Use cautious language (may, could, likely).
- Provide 3-5 things to monitor over time.
- End with 1-2 disclaimers (illustrative only, not medical advice).

Constraints:
- Do NOT leave 'future_metrics', 'risk_changes' or 'watch' empty.
- Always include ALL keys from TODAY_METRICS in 'future_metrics'.
- Ensure 'risk_changes' and 'watch' have at least 3 entries each.
- Escape all newlines in string values as \n.

Return ONLY valid JSON, no prose and no markdown, with exactly this structure:
{
  "horizon_months": %[2]d,
  "today_metrics": { ... },
  "future_metrics": { ... },
  "risk_changes": [ { "risk": "...", "direction": "worsen|unchanged|improve", "confidence": 0-1, "drivers": ["..."] } ],
  "watch": [ "thing to monitor", ... ],
  "warnings": [ "disclaimer or caveat", ... ],
  "narrative": "150-220 word plain-English scenario"
}`
