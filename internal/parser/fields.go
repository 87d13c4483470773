package parser

import "strings"

// Field is a single label/value pair.
type Field struct {
	Label string
	Value string
}

// Fields is an ordered label→value map. Insertion order is the order of
// first assignment; re-assigning an existing label overwrites the value
// in place. RawSnippet always holds the exact text handed to Parse.
type Fields struct {
	RawSnippet string

	pairs []Field
}

// Set stores value under label, preserving the label's original position
// if it was already present.
func (f *Fields) Set(label, value string) {
	for i := range f.pairs {
		if f.pairs[i].Label == label {
			f.pairs[i].Value = value
			return
		}
	}
	f.pairs = append(f.pairs, Field{Label: label, Value: value})
}

// Get returns the value stored under the exact label.
func (f *Fields) Get(label string) (string, bool) {
	for _, p := range f.pairs {
		if p.Label == label {
			return p.Value, true
		}
	}
	return "", false
}

// Pairs returns the fields in insertion order. The slice is a copy.
func (f *Fields) Pairs() []Field {
	out := make([]Field, len(f.pairs))
	copy(out, f.pairs)
	return out
}

// Len reports the number of stored fields, RawSnippet excluded.
func (f *Fields) Len() int { return len(f.pairs) }

func (f *Fields) hasPromptKey() bool {
	for _, p := range f.pairs {
		if strings.EqualFold(p.Label, "Prompt") {
			return true
		}
	}
	return false
}
