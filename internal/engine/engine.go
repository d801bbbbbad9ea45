package engine

import "github.com/lifelens/lifelens-cli/internal/model"

// Run is the risk engine entry point: derive drivers, evaluate the rule
// battery, dedupe. Safe for concurrent use.
func Run(in model.RawHealthInput) model.EngineOutput {
	d := DeriveDrivers(in)
	return model.EngineOutput{
		Drivers:  d,
		Triggers: Dedupe(EvaluateRules(d)),
	}
}
