package container

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
)

// pngTextChunks walks every chunk after the signature and collects the
// keyword/text pairs from tEXt, zTXt and iTXt chunks. Chunks that fail to
// decode (bad keyword, broken zlib stream) are skipped, not fatal. CRCs
// are not verified.
func pngTextChunks(data []byte) map[string]string {
	result := make(map[string]string)
	offset := 8
	for offset+8 <= len(data) {
		length := binary.BigEndian.Uint32(data[offset : offset+4])
		chunkType := string(data[offset+4 : offset+8])
		start := offset + 8
		end := start + int(length)
		if end+4 > len(data) {
			break // truncated chunk
		}
		switch chunkType {
		case "tEXt":
			if key, text, ok := splitKeyword(data[start:end]); ok {
				result[key] = text
			}
		case "zTXt":
			if key, text, ok := ztxtEntry(data[start:end]); ok {
				result[key] = text
			}
		case "iTXt":
			if key, text, ok := itxtEntry(data[start:end]); ok {
				result[key] = text
			}
		case "IEND":
			return result
		}
		// chunk header (8) + data + CRC (4)
		offset += int(length) + 12
	}
	return result
}

func splitKeyword(chunk []byte) (string, string, bool) {
	i := bytes.IndexByte(chunk, 0)
	if i == -1 {
		return "", "", false
	}
	return string(chunk[:i]), string(chunk[i+1:]), true
}

// zTXt layout: keyword \0 compression-method zlib-data.
func ztxtEntry(chunk []byte) (string, string, bool) {
	i := bytes.IndexByte(chunk, 0)
	if i == -1 || i+2 > len(chunk) || chunk[i+1] != 0 {
		return "", "", false
	}
	text, ok := inflate(chunk[i+2:])
	if !ok {
		return "", "", false
	}
	return string(chunk[:i]), text, true
}

// iTXt layout: keyword \0 compression-flag compression-method
// language-tag \0 translated-keyword \0 text.
func itxtEntry(chunk []byte) (string, string, bool) {
	i := bytes.IndexByte(chunk, 0)
	if i == -1 || i+3 > len(chunk) {
		return "", "", false
	}
	key := string(chunk[:i])
	compressed := chunk[i+1] == 1
	rest := chunk[i+3:]
	for range 2 { // skip language tag and translated keyword
		j := bytes.IndexByte(rest, 0)
		if j == -1 {
			return "", "", false
		}
		rest = rest[j+1:]
	}
	if !compressed {
		return key, string(rest), true
	}
	text, ok := inflate(rest)
	if !ok {
		return "", "", false
	}
	return key, text, true
}

func inflate(compressed []byte) (string, bool) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return "", false
	}
	defer zr.Close()
	text, err := io.ReadAll(zr)
	if err != nil {
		return "", false
	}
	return string(text), true
}
