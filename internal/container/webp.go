package container

import "encoding/binary"

// riffChunk walks the RIFF chunk list of a WEBP container and returns the
// payload of the first chunk with the given FourCC.
func riffChunk(data []byte, fourcc string) ([]byte, bool) {
	offset := 12 // RIFF header: "RIFF" + size + "WEBP"
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		start := offset + 8
		end := start + int(size)
		if end > len(data) {
			break
		}
		if id == fourcc {
			return data[start:end], true
		}
		// chunks are padded to even length
		offset = end + int(size%2)
	}
	return nil, false
}
