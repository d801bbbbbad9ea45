// Package scenario ships the built-in demo inputs.
package scenario

import (
	_ "embed"
	"slices"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/lifelens/lifelens-cli/internal/model"
)

//go:embed scenarios.yaml
var catalogue []byte

var (
	loadOnce sync.Once
	loaded   map[string]model.RawHealthInput
	loadErr  error
)

// Load parses the embedded catalogue. Callers get a fresh map each time.
func Load() (map[string]model.RawHealthInput, error) {
	loadOnce.Do(func() {
		loaded, loadErr = parse(catalogue)
	})
	if loadErr != nil {
		return nil, loadErr
	}
	out := make(map[string]model.RawHealthInput, len(loaded))
	for k, v := range loaded {
		out[k] = v
	}
	return out, nil
}

func parse(data []byte) (map[string]model.RawHealthInput, error) {
	var m map[string]model.RawHealthInput
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "scenario: parse catalogue")
	}
	return m, nil
}

// Get returns the named scenario.
func Get(name string) (model.RawHealthInput, error) {
	all, err := Load()
	if err != nil {
		return model.RawHealthInput{}, err
	}
	in, ok := all[name]
	if !ok {
		return model.RawHealthInput{}, eris.Errorf("scenario: unknown scenario %q (valid: %s)", name, strings.Join(sortedKeys(all), ", "))
	}
	return in, nil
}

// Names lists the scenario names in sorted order.
func Names() []string {
	all, err := Load()
	if err != nil {
		return nil
	}
	return sortedKeys(all)
}

func sortedKeys(m map[string]model.RawHealthInput) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
