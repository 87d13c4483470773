// Package extract wires the pipeline end to end: locate the metadata
// source, parse the text, order the fields for display.
package extract

import (
	"sdmeta/internal/container"
	"sdmeta/internal/locator"
	"sdmeta/internal/parser"
	"sdmeta/internal/present"
)

var _ locator.Decoder = container.Decoder{}

// Record is the result of extracting one image.
type Record struct {
	Format     string
	FoundIn    locator.Source
	Fields     []parser.Field // canonical display order
	RawSnippet string
}

// Extract runs the full pipeline over one image's bytes. The only error
// is a *locator.DecodeError for containers that cannot be sniffed;
// everything downstream of location is total.
func Extract(data []byte) (Record, error) {
	loc, err := locator.Default().Locate(data)
	if err != nil {
		return Record{}, err
	}
	fields := parser.Parse(loc.Text)
	return Record{
		Format:     string(loc.Format),
		FoundIn:    loc.Source,
		Fields:     present.Order(fields),
		RawSnippet: fields.RawSnippet,
	}, nil
}
