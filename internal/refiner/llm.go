package refiner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lifelens/lifelens-cli/internal/model"
)

// TextGenerator produces a model reply for a prompt.
type TextGenerator interface {
	Text(ctx context.Context, purpose, system, prompt string) (string, error)
}

// LLM refines triggers with a generative model and falls back to the local
// formatter on any failure.
type LLM struct {
	gen         TextGenerator
	fallback    Refiner
	maxTriggers int

	cache CardCache
	ttl   time.Duration
}

// NewLLM creates an LLM refiner. maxTriggers <= 0 uses MaxPreparedTriggers.
func NewLLM(gen TextGenerator, maxTriggers int) *LLM {
	return &LLM{gen: gen, fallback: Local{}, maxTriggers: maxTriggers}
}

// Refine implements Refiner. Errors from the model are logged and answered
// with locally formatted cards, so the returned error is always nil.
func (r *LLM) Refine(ctx context.Context, req Request) ([]model.Card, error) {
	req.Triggers = PrepareTriggers(req.Triggers, r.maxTriggers)
	if req.Palette == "" {
		req.Palette = DefaultPalette
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		return r.fallbackCards(ctx, req, err)
	}

	key := promptKey(prompt)
	if cards, ok := r.cachedCards(ctx, key); ok {
		return cards, nil
	}

	cards, err := r.generate(ctx, prompt)
	if err != nil {
		return r.fallbackCards(ctx, req, err)
	}
	zap.L().Debug("cards refined", zap.Int("cards", len(cards)))
	r.storeCards(ctx, key, cards)
	return cards, nil
}

func (r *LLM) fallbackCards(ctx context.Context, req Request, err error) ([]model.Card, error) {
	zap.L().Warn("card refine failed, using local formatter",
		zap.Int("triggers", len(req.Triggers)),
		zap.Error(err),
	)
	return r.fallback.Refine(ctx, req)
}

func (r *LLM) generate(ctx context.Context, prompt string) ([]model.Card, error) {
	text, err := r.gen.Text(ctx, "card_refine", systemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return ParseCards(text)
}

type promptPayload struct {
	Palette  string          `json:"palette"`
	Triggers []model.Trigger `json:"triggers"`
	Context  promptContext   `json:"context"`
}

type promptContext struct {
	Extremes []extremeRef `json:"extremes"`
	Todos    []todoRef    `json:"todos"`
}

type extremeRef struct {
	Title    string   `json:"title"`
	Callouts []string `json:"callouts"`
}

type todoRef struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

func buildPrompt(req Request) (string, error) {
	payload := promptPayload{
		Palette:  req.Palette,
		Triggers: req.Triggers,
		Context: promptContext{
			Extremes: make([]extremeRef, 0, len(req.Extremes)),
			Todos:    make([]todoRef, 0, len(req.Todos)),
		},
	}
	for _, c := range req.Extremes {
		payload.Context.Extremes = append(payload.Context.Extremes, extremeRef{Title: c.Title, Callouts: c.MetricCallouts})
	}
	for _, t := range req.Todos {
		payload.Context.Todos = append(payload.Context.Todos, todoRef{Title: t.Title, Done: t.Done})
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", eris.Wrap(err, "refiner: marshal prompt payload")
	}

	var sb strings.Builder
	sb.WriteString("INPUT:\n")
	sb.Write(b)
	sb.WriteString("\n\nOUTPUT: JSON array only")
	return sb.String(), nil
}

var systemPrompt = strings.TrimSpace(fmt.Sprintf(`
You are LifeLens' card refiner. You receive rule-based wellness triggers.
Return %[1]d-%[2]d JSON objects ONLY (no prose, no markdown), each shaped as:
{
  "category": "<one of the 25>",
  "type": "insight|action|alert",
  "title": "...",
  "body": "...",
  "metric_callouts": ["..."],
  "priority": <number>
}

Rules:
- Output ONLY a JSON array of %[1]d-%[2]d objects, nothing before or after it.
- category MUST be one of: %[3]s. Do not invent new categories.
- No medical advice or diagnosis; wellness tone only.
- Use the triggers' facts. Keep metric_callouts truthful and brief, at most 4.
- Titles at most 60 characters. Bodies are 1-2 sentences. Prioritise actions doable today.
- Prefer a diverse mix of categories and avoid duplicates.
`, MinCards, MaxCards, categoryList()))

func categoryList() string {
	names := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
