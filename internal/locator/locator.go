// Package locator picks which embedded text source holds an image's
// generation metadata. Candidate sources are tried in a fixed precedence:
// the container's "parameters" text property, then (WEBP only) the EXIF
// UserComment, then a lossy decoding of the raw bytes. Exactly one source
// is selected per image.
package locator

import (
	"strings"

	"sdmeta/internal/container"
)

// Source tags which candidate carrier supplied the located text.
type Source string

const (
	SourceEmbeddedInfo    Source = "EmbeddedInfo"
	SourceExifUserComment Source = "ExifUserComment"
	SourceFallbackBytes   Source = "FallbackBytes"
)

// parametersKey is the text property image-generation tools write their
// parameters under.
const parametersKey = "parameters"

// Located is the chosen source plus the text it yielded. Text may be
// empty on the fallback path.
type Located struct {
	Format container.Format
	Source Source
	Text   string
}

// Decoder is the container surface the locator consumes. Failures inside
// ReadExifUserComment are reported as absence, never as errors.
type Decoder interface {
	SniffFormat(data []byte) container.Format
	ReadTextProperties(data []byte) map[string]string
	ReadExifUserComment(data []byte) (string, bool)
}

// DecodeError reports a container that could not be sniffed at all. It is
// the only failure that aborts extraction; there is no byte content worth
// falling back on.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "cannot decode image: " + e.Reason
}

// Locator resolves the metadata source for raw image bytes.
type Locator struct {
	dec Decoder
}

// New returns a Locator reading containers through dec.
func New(dec Decoder) *Locator {
	return &Locator{dec: dec}
}

// Default returns a Locator backed by the real container decoder.
func Default() *Locator {
	return New(container.Decoder{})
}

// Locate selects the highest-precedence non-empty source. A structured
// "parameters" property always wins; the EXIF UserComment is consulted
// only for WEBP and only when that property is absent; otherwise the
// entire byte content is decoded lossily so there is always something to
// parse.
func (l *Locator) Locate(data []byte) (Located, error) {
	format := l.dec.SniffFormat(data)
	if format == container.FormatOther {
		return Located{}, &DecodeError{Reason: "unrecognized container format"}
	}

	if text := l.dec.ReadTextProperties(data)[parametersKey]; text != "" {
		return Located{Format: format, Source: SourceEmbeddedInfo, Text: text}, nil
	}

	if format == container.FormatWEBP {
		if text, ok := l.dec.ReadExifUserComment(data); ok && text != "" {
			return Located{Format: format, Source: SourceExifUserComment, Text: text}, nil
		}
	}

	return Located{Format: format, Source: SourceFallbackBytes, Text: lossyText(data)}, nil
}

// lossyText decodes arbitrary bytes as UTF-8, replacing undecodable
// sequences with U+FFFD. It never fails.
func lossyText(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}
