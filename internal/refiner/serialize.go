package refiner

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/lifelens/lifelens-cli/internal/model"
)

// Payload metadata.
const (
	PayloadVersion = "1.0"
	Disclaimer     = "Wellness insights only; not medical advice."
)

// Serialize refines out's triggers and wraps the cards in an app payload.
// When prior is non-nil its extremes are passed to the refiner as context,
// along with the user's saved to-dos.
func Serialize(ctx context.Context, r Refiner, out model.EngineOutput, palette string, prior *model.AppPayload, todos []model.Todo) (model.AppPayload, error) {
	if palette == "" {
		palette = DefaultPalette
	}
	req := Request{Triggers: out.Triggers, Palette: palette, Todos: todos}
	if prior != nil {
		req.Extremes = Partition(*prior).Extremes
	}

	cards, err := r.Refine(ctx, req)
	if err != nil {
		return model.AppPayload{}, eris.Wrap(err, "refiner: refine cards")
	}
	if cards == nil {
		cards = []model.Card{}
	}
	return model.AppPayload{
		Meta:    model.PayloadMeta{Version: PayloadVersion, Palette: palette, Disclaimer: Disclaimer},
		Drivers: out.Drivers,
		Cards:   cards,
	}, nil
}
