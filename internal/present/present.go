// Package present orders a parsed field map into the fixed display
// sequence used by every consumer.
package present

import (
	"strings"

	"sdmeta/internal/parser"
)

// CanonicalOrder is the display sequence of the ten recognized labels.
// It affects presentation only, never parsing.
var CanonicalOrder = []string{
	"Prompt",
	"Negative Prompt",
	"Steps",
	"Sampler",
	"CFG Scale",
	"Seed",
	"Size",
	"Model hash",
	"Model",
	"Version",
}

// Order walks CanonicalOrder, moving the case-insensitive match for each
// canonical label (at most one) to its canonical position under the
// canonical spelling. Unrecognized labels follow in their original
// insertion order. The input is not modified.
func Order(f *parser.Fields) []parser.Field {
	remaining := f.Pairs()
	out := make([]parser.Field, 0, len(remaining))
	for _, want := range CanonicalOrder {
		for i, p := range remaining {
			if strings.EqualFold(p.Label, want) {
				out = append(out, parser.Field{Label: want, Value: p.Value})
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}
	return append(out, remaining...)
}
