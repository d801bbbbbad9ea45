package refiner

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/lifelens/lifelens-cli/internal/model"
)

// Extreme thresholds read back out of card callouts.
const (
	extremeAQI       = 150
	extremeSleepDebt = 2.5
	extremeMinSteps  = 3000
	extremeCaffeine  = 350
)

// Partitioned splits a payload's cards for presentation.
type Partitioned struct {
	Flagged     []model.Card `json:"flagged"`
	Extremes    []model.Card `json:"extremes"`
	Suggestions []model.Card `json:"suggestions"`
}

var (
	extremeTitle  = regexp.MustCompile(`Alert:|Air quality|Smoking`)
	suggestTitle  = regexp.MustCompile(`(?i)Try this:|action`)
	aqiCallout    = regexp.MustCompile(`AQI\s*(\d+)`)
	sleepCallout  = regexp.MustCompile(`Sleep debt\s*(\d+(?:\.\d+)?)h`)
	stepsCallout  = regexp.MustCompile(`Steps\s*(\d+)`)
	coffeeCallout = regexp.MustCompile(`Caffeine\s*(\d+)mg`)
	nonSlug       = regexp.MustCompile(`[^a-z0-9]+`)
)

// Partition returns every card as flagged, the subset that needs urgent
// attention as extremes, and the actionable subset as suggestions with
// action IDs assigned.
func Partition(p model.AppPayload) Partitioned {
	out := Partitioned{
		Flagged:     append([]model.Card{}, p.Cards...),
		Extremes:    []model.Card{},
		Suggestions: []model.Card{},
	}
	for _, c := range p.Cards {
		if isExtreme(c) {
			out.Extremes = append(out.Extremes, c)
		}
	}
	for _, c := range p.Cards {
		if c.Type != model.TypeAction && !suggestTitle.MatchString(c.Title) {
			continue
		}
		c.Actionable = true
		c.ActionID = Slug(string(c.Category)) + "-" + strconv.Itoa(len(out.Suggestions))
		out.Suggestions = append(out.Suggestions, c)
	}
	return out
}

func isExtreme(c model.Card) bool {
	if extremeTitle.MatchString(c.Title) {
		return true
	}
	for _, m := range c.MetricCallouts {
		if v, ok := capture(aqiCallout, m); ok && v >= extremeAQI {
			return true
		}
		if v, ok := capture(sleepCallout, m); ok && v >= extremeSleepDebt {
			return true
		}
		if v, ok := capture(stepsCallout, m); ok && v < extremeMinSteps {
			return true
		}
		if v, ok := capture(coffeeCallout, m); ok && v >= extremeCaffeine {
			return true
		}
	}
	return false
}

func capture(re *regexp.Regexp, s string) (float64, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	return v, err == nil
}

// Slug lowercases s, folds accents and joins alphanumeric runs with
// hyphens. Empty input yields "action".
func Slug(s string) string {
	if s == "" {
		return "action"
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return nonSlug.ReplaceAllString(strings.ToLower(folded), "-")
}
