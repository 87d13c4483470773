// Package parser turns the free-text generation parameters embedded by
// image-generation tools into an ordered field map. The text has no fixed
// schema, only a loose "Label: value" convention over a closed set of ten
// labels, so parsing is regex-driven and total: any string input yields a
// result, never an error.
package parser

import (
	"regexp"
	"strings"
)

// The grammar is fixed at process start; nothing mutates it afterwards.
var (
	// labelRe matches a recognized label immediately followed by a colon.
	labelRe = regexp.MustCompile(`(?i)(Prompt|Negative prompt|Steps|Sampler|CFG scale|Seed|Size|Model hash|Model|Version):`)

	// terminatorRe marks where a value ends. The bare Model and Version
	// alternatives (no colon) mean either word silently terminates a value
	// even mid-prompt. That quirk matches what existing tools emit and
	// consumers expect, so it is kept rather than fixed.
	terminatorRe = regexp.MustCompile(`(?i)Prompt:|Negative prompt:|Steps:|Sampler:|CFG scale:|Seed:|Size:|Model hash:|Model|Version`)

	// nextLabelRe finds the earliest non-Prompt label (colon plus a space)
	// for the no-prompt recovery path.
	nextLabelRe = regexp.MustCompile(`(?i)(?:Negative prompt:|Steps:|Sampler:|CFG scale:|Seed:|Size:|Model hash:|Model:|Version:) `)
)

// Parse extracts labeled fields from text. When the text carries no
// "Prompt" label at all it falls back to treating the leading run of text
// as the prompt. RawSnippet on the result is always the verbatim input.
func Parse(text string) *Fields {
	f := parseLabeled(text)
	if !f.hasPromptKey() {
		f = parseNoPromptLabel(text)
	}
	f.RawSnippet = text
	return f
}

// parseLabeled scans left to right for "<label>:" occurrences. Each value
// runs from just after the colon to the next terminator (or end of
// input), spanning newlines, and is stored trimmed under its canonical
// label.
func parseLabeled(text string) *Fields {
	f := &Fields{}
	for _, m := range labelRe.FindAllStringSubmatchIndex(text, -1) {
		label := text[m[2]:m[3]]
		valueStart := m[1]
		valueEnd := len(text)
		if loc := terminatorRe.FindStringIndex(text[valueStart:]); loc != nil {
			valueEnd = valueStart + loc[0]
		}
		f.Set(canonicalLabel(label), strings.TrimSpace(text[valueStart:valueEnd]))
	}
	return f
}

// parseNoPromptLabel recovers a prompt from text that omits the leading
// "Prompt:" label. Everything before the earliest labeled field becomes
// the prompt; the remainder is re-parsed normally. Text with no labels at
// all is the prompt in its entirety.
func parseNoPromptLabel(text string) *Fields {
	f := &Fields{}
	loc := nextLabelRe.FindStringIndex(text)
	if loc == nil {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			f.Set("Prompt", trimmed)
		}
		return f
	}
	if prompt := strings.TrimSpace(text[:loc[0]]); prompt != "" {
		f.Set("Prompt", prompt)
	}
	for _, p := range parseLabeled(strings.TrimSpace(text[loc[0]:])).pairs {
		f.Set(p.Label, p.Value)
	}
	return f
}

// canonicalLabel normalizes a matched label to its stored key.
func canonicalLabel(raw string) string {
	switch strings.ToLower(raw) {
	case "cfg scale":
		return "CFG Scale"
	case "negative prompt":
		return "Negative Prompt"
	case "model hash":
		return "Model hash"
	default:
		return titleCase(raw)
	}
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
