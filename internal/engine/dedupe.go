package engine

import (
	"strconv"
	"strings"

	"github.com/lifelens/lifelens-cli/internal/model"
)

// Signature identifies a trigger for deduplication:
// category|type|severity|confidence|callouts.
func Signature(t model.Trigger) string {
	var b strings.Builder
	b.WriteString(string(t.Category))
	b.WriteByte('|')
	b.WriteString(string(t.Type))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(int(t.Severity)))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(t.Confidence, 'f', -1, 64))
	b.WriteByte('|')
	b.WriteString(t.CalloutsKey())
	return b.String()
}

// Dedupe drops triggers whose signature was already seen, keeping the first
// occurrence and the original relative order. Reasons are not part of the
// signature.
func Dedupe(triggers []model.Trigger) []model.Trigger {
	return UniqBy(triggers, Signature)
}

// UniqBy keeps the first element for each key, preserving order.
func UniqBy[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
