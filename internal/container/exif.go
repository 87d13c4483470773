package container

import (
	"encoding/binary"
	"strings"
	"unicode/utf16"
)

const (
	tagExifIFD     = 0x8769
	tagUserComment = 0x9286
)

// exifUserComment parses TIFF-formatted EXIF data and returns the raw
// UserComment value bytes, encoding tag included.
func exifUserComment(data []byte) ([]byte, bool) {
	// WEBP EXIF chunks may carry the JPEG-style header.
	if len(data) >= 6 && string(data[:6]) == "Exif\x00\x00" {
		data = data[6:]
	}
	if len(data) < 8 {
		return nil, false
	}

	var order binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		order = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, false
	}

	ifd0 := order.Uint32(data[4:8])
	exifOffset, ok := findIFDEntry(data, ifd0, order, tagExifIFD)
	if !ok {
		return nil, false
	}
	return findIFDValue(data, order.Uint32(exifOffset), order, tagUserComment)
}

// findIFDEntry walks an Image File Directory and returns the 4 value
// bytes of the entry with the given tag.
func findIFDEntry(data []byte, offset uint32, order binary.ByteOrder, tag uint16) ([]byte, bool) {
	if int(offset)+2 > len(data) {
		return nil, false
	}
	numEntries := int(order.Uint16(data[offset : offset+2]))
	entry := int(offset) + 2
	for i := 0; i < numEntries; i++ {
		if entry+12 > len(data) {
			return nil, false
		}
		if order.Uint16(data[entry:entry+2]) == tag {
			return data[entry+8 : entry+12], true
		}
		entry += 12
	}
	return nil, false
}

// findIFDValue resolves an entry's value bytes, following the offset
// indirection used for values longer than 4 bytes.
func findIFDValue(data []byte, offset uint32, order binary.ByteOrder, tag uint16) ([]byte, bool) {
	if int(offset)+2 > len(data) {
		return nil, false
	}
	numEntries := int(order.Uint16(data[offset : offset+2]))
	entry := int(offset) + 2
	for i := 0; i < numEntries; i++ {
		if entry+12 > len(data) {
			return nil, false
		}
		if order.Uint16(data[entry:entry+2]) == tag {
			count := int(order.Uint32(data[entry+4 : entry+8]))
			if count <= 4 {
				return data[entry+8 : entry+8+count], true
			}
			start := int(order.Uint32(data[entry+8 : entry+12]))
			if start+count > len(data) {
				return nil, false
			}
			return data[start : start+count], true
		}
		entry += 12
	}
	return nil, false
}

// decodeUserComment interprets the 8-byte encoding tag that prefixes an
// EXIF UserComment. Unknown or missing tags degrade to a lossy UTF-8
// reading of the payload rather than failing.
func decodeUserComment(raw []byte) (string, bool) {
	if len(raw) < 8 {
		return strings.ToValidUTF8(string(raw), "�"), true
	}
	prefix, payload := string(raw[:8]), raw[8:]
	switch prefix {
	case "ASCII\x00\x00\x00":
		return strings.TrimRight(string(payload), "\x00"), true
	case "UNICODE\x00":
		return decodeUTF16(payload), true
	default:
		return strings.ToValidUTF8(string(raw), "�"), true
	}
}

// decodeUTF16 decodes a UTF-16 payload, honoring a BOM when present and
// defaulting to big-endian as EXIF writers conventionally do.
func decodeUTF16(payload []byte) string {
	if len(payload) < 2 {
		return ""
	}
	order := binary.ByteOrder(binary.BigEndian)
	switch {
	case payload[0] == 0xFF && payload[1] == 0xFE:
		order = binary.LittleEndian
		payload = payload[2:]
	case payload[0] == 0xFE && payload[1] == 0xFF:
		payload = payload[2:]
	}
	units := make([]uint16, 0, len(payload)/2)
	for i := 0; i+1 < len(payload); i += 2 {
		units = append(units, order.Uint16(payload[i:i+2]))
	}
	return strings.TrimRight(string(utf16.Decode(units)), "\x00")
}
