package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/lifelens/lifelens-cli/internal/model"
	"github.com/lifelens/lifelens-cli/internal/scenario"
)

// loadInput reads a RawHealthInput from a JSON file ("-" for stdin) or a
// named scenario. Exactly one source must be given.
func loadInput(stdin io.Reader, path, scenarioName string) (model.RawHealthInput, error) {
	switch {
	case path != "" && scenarioName != "":
		return model.RawHealthInput{}, eris.New("use either --input or --scenario, not both")
	case scenarioName != "":
		return scenario.Get(scenarioName)
	case path == "":
		return model.RawHealthInput{}, eris.New("one of --input or --scenario is required")
	}

	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return model.RawHealthInput{}, eris.Wrapf(err, "open input %s", path)
		}
		defer f.Close() //nolint:errcheck
		r = f
	}

	var in model.RawHealthInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return model.RawHealthInput{}, eris.Wrap(err, "decode input json")
	}
	return in, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "encode output")
	}
	return nil
}
