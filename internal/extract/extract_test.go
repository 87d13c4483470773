package extract_test

import (
	"encoding/binary"
	"hash/crc32"
	"testing"
	"unicode/utf16"

	"sdmeta/internal/extract"
	"sdmeta/internal/locator"
	"sdmeta/internal/parser"

	"github.com/stretchr/testify/require"
)

func pngWithParameters(params string) []byte {
	sig := []byte{137, 80, 78, 71, 13, 10, 26, 10}
	chunkData := append(append([]byte("parameters"), 0), params...)
	chunk := binary.BigEndian.AppendUint32(nil, uint32(len(chunkData)))
	chunk = append(chunk, "tEXt"...)
	chunk = append(chunk, chunkData...)
	crc := crc32.NewIEEE()
	crc.Write([]byte("tEXt"))
	crc.Write(chunkData)
	chunk = binary.BigEndian.AppendUint32(chunk, crc.Sum32())
	return append(append(sig, chunk...), 0, 0, 0, 0, 'I', 'E', 'N', 'D', 0, 0, 0, 0)
}

func webpWithUserComment(comment string) []byte {
	uc := []byte("UNICODE\x00")
	for _, u := range utf16.Encode([]rune(comment)) {
		uc = binary.BigEndian.AppendUint16(uc, u)
	}

	tiff := []byte("II")
	tiff = binary.LittleEndian.AppendUint16(tiff, 42)
	tiff = binary.LittleEndian.AppendUint32(tiff, 8)
	tiff = binary.LittleEndian.AppendUint16(tiff, 1)
	tiff = binary.LittleEndian.AppendUint16(tiff, 0x8769)
	tiff = binary.LittleEndian.AppendUint16(tiff, 4)
	tiff = binary.LittleEndian.AppendUint32(tiff, 1)
	tiff = binary.LittleEndian.AppendUint32(tiff, 26)
	tiff = binary.LittleEndian.AppendUint32(tiff, 0)
	tiff = binary.LittleEndian.AppendUint16(tiff, 1)
	tiff = binary.LittleEndian.AppendUint16(tiff, 0x9286)
	tiff = binary.LittleEndian.AppendUint16(tiff, 7)
	tiff = binary.LittleEndian.AppendUint32(tiff, uint32(len(uc)))
	tiff = binary.LittleEndian.AppendUint32(tiff, 44)
	tiff = binary.LittleEndian.AppendUint32(tiff, 0)
	tiff = append(tiff, uc...)

	chunk := append([]byte("EXIF"), 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(chunk[4:], uint32(len(tiff)))
	chunk = append(chunk, tiff...)
	if len(tiff)%2 == 1 {
		chunk = append(chunk, 0)
	}

	payload := append([]byte("WEBP"), chunk...)
	out := append([]byte("RIFF"), 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(out[4:], uint32(len(payload)))
	return append(out, payload...)
}

func TestExtractPNGParameters(t *testing.T) {
	params := "Prompt: a cat\nNegative prompt: blurry\nSteps: 20"
	rec, err := extract.Extract(pngWithParameters(params))
	require.NoError(t, err)

	require.Equal(t, "PNG", rec.Format)
	require.Equal(t, locator.SourceEmbeddedInfo, rec.FoundIn)
	require.Equal(t, params, rec.RawSnippet)
	require.Equal(t, []parser.Field{
		{Label: "Prompt", Value: "a cat"},
		{Label: "Negative Prompt", Value: "blurry"},
		{Label: "Steps", Value: "20"},
	}, rec.Fields)
}

func TestExtractWEBPUserComment(t *testing.T) {
	rec, err := extract.Extract(webpWithUserComment("Prompt: a dog\nSeed: 42"))
	require.NoError(t, err)

	require.Equal(t, "WEBP", rec.Format)
	require.Equal(t, locator.SourceExifUserComment, rec.FoundIn)
	require.Equal(t, "Prompt: a dog\nSeed: 42", rec.RawSnippet)
	require.Equal(t, []parser.Field{
		{Label: "Prompt", Value: "a dog"},
		{Label: "Seed", Value: "42"},
	}, rec.Fields)
}

func TestExtractFallbackForPlainPNG(t *testing.T) {
	rec, err := extract.Extract(pngWithParameters("")[:8+12]) // sig + empty-ish chunk area
	require.NoError(t, err)

	require.Equal(t, locator.SourceFallbackBytes, rec.FoundIn)
	// the raw snippet is the lossily decoded file content, verbatim from
	// the parser's point of view
	require.NotEmpty(t, rec.RawSnippet)
	require.Contains(t, rec.RawSnippet, "�")
}

func TestExtractMalformedExifFallsBack(t *testing.T) {
	data := webpWithUserComment("Steps: 20")
	// corrupt the TIFF header inside the EXIF chunk
	data[20] = 'X'
	data[21] = 'X'

	rec, err := extract.Extract(data)
	require.NoError(t, err)
	require.Equal(t, locator.SourceFallbackBytes, rec.FoundIn)
}

func TestExtractUndecodableContainer(t *testing.T) {
	_, err := extract.Extract([]byte("definitely not an image"))
	require.Error(t, err)
	var decodeErr *locator.DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestExtractFieldsInCanonicalOrder(t *testing.T) {
	// match order in the text differs from display order
	params := "Steps: 20\nSeed: 5\nPrompt: a cat"
	rec, err := extract.Extract(pngWithParameters(params))
	require.NoError(t, err)

	require.Equal(t, []parser.Field{
		{Label: "Prompt", Value: "a cat"},
		{Label: "Steps", Value: "20"},
		{Label: "Seed", Value: "5"},
	}, rec.Fields)
}
