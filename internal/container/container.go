// Package container reads the image container surfaces the extraction
// pipeline depends on: format sniffing, PNG text properties and the WEBP
// EXIF UserComment. It never decodes pixel data.
package container

// Format identifies the sniffed image container.
type Format string

const (
	FormatPNG   Format = "PNG"
	FormatWEBP  Format = "WEBP"
	FormatOther Format = "Other"
)

// Decoder is the concrete container decoder. It is stateless; the zero
// value is ready to use.
type Decoder struct{}

var pngSignature = []byte{137, 80, 78, 71, 13, 10, 26, 10}

// SniffFormat inspects the magic numbers at the start of data.
func (Decoder) SniffFormat(data []byte) Format {
	switch {
	case len(data) >= 8 && string(data[:8]) == string(pngSignature):
		return FormatPNG
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return FormatWEBP
	default:
		return FormatOther
	}
}

// ReadTextProperties returns the container's textual metadata properties.
// PNG text chunks (tEXt, zTXt, iTXt) are the only carrier; WEBP has no
// equivalent, so anything else yields an empty map.
func (d Decoder) ReadTextProperties(data []byte) map[string]string {
	if d.SniffFormat(data) != FormatPNG {
		return map[string]string{}
	}
	return pngTextChunks(data)
}

// ReadExifUserComment extracts and decodes the EXIF UserComment from a
// WEBP container. The second return is false whenever the chunk is
// missing or malformed at any stage.
func (d Decoder) ReadExifUserComment(data []byte) (string, bool) {
	if d.SniffFormat(data) != FormatWEBP {
		return "", false
	}
	exif, ok := riffChunk(data, "EXIF")
	if !ok {
		return "", false
	}
	raw, ok := exifUserComment(exif)
	if !ok {
		return "", false
	}
	return decodeUserComment(raw)
}
