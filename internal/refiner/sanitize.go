package refiner

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/lifelens/lifelens-cli/internal/model"
)

var jsonArray = regexp.MustCompile(`(?s)\[.*\]`)

// ExtractJSONArray returns the outermost bracketed span of text, or "[]"
// when there is none.
func ExtractJSONArray(text string) string {
	if m := jsonArray.FindString(text); m != "" {
		return m
	}
	return "[]"
}

// ParseCards extracts and sanitises the card array in a model reply.
func ParseCards(text string) ([]model.Card, error) {
	var raw []any
	if err := json.Unmarshal([]byte(ExtractJSONArray(text)), &raw); err != nil {
		return nil, eris.Wrap(err, "refiner: parse card array")
	}
	cards := Sanitize(raw)
	if len(cards) == 0 {
		return nil, eris.New("refiner: no usable cards in reply")
	}
	return cards, nil
}

// Sanitize keeps well-formed cards from a decoded JSON array: category in
// the closed set, a known type, trimmed title/body/callouts, no duplicates,
// at most MaxCards. Missing priorities become position+1.
func Sanitize(raw []any) []model.Card {
	seen := make(map[string]bool)
	out := make([]model.Card, 0, MaxCards)
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		cat, _ := obj["category"].(string)
		typ, _ := obj["type"].(string)
		category := model.Category(cat)
		ttype := model.TriggerType(typ)
		if !category.Valid() || !ttype.Valid() {
			continue
		}

		title := truncate(stringify(obj["title"]), model.MaxCardTitle)
		body := truncate(stringify(obj["body"]), model.MaxCardBody)
		callouts := calloutList(obj["metric_callouts"])

		key := cat + "|" + typ + "|" + title + "|" + body + "|" + strings.Join(callouts, ",")
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, model.Card{
			Category:       category,
			Type:           ttype,
			Title:          title,
			Body:           body,
			MetricCallouts: callouts,
			Priority:       priority(obj["priority"], len(out)+1),
		})
		if len(out) >= MaxCards {
			break
		}
	}
	return out
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func calloutList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return []string{}
	}
	if len(arr) > model.MaxCardCallouts {
		arr = arr[:model.MaxCardCallouts]
	}
	out := make([]string, 0, len(arr))
	for _, c := range arr {
		out = append(out, stringify(c))
	}
	return out
}

// priority reads a number or numeric string. Zero, missing and unparseable
// values fall back to def.
func priority(v any, def int) float64 {
	switch x := v.(type) {
	case float64:
		if x != 0 {
			return x
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil && f != 0 {
			return f
		}
	}
	return float64(def)
}
