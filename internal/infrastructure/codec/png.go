package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// verifyPNG walks the chunk stream up to IEND and checks every chunk CRC.
// Compressed pixel data is not inflated.
func verifyPNG(data []byte) error {
	if !bytes.HasPrefix(data, pngSignature) {
		return errors.New("png: missing signature")
	}

	rest := data[len(pngSignature):]
	seenIDAT := false
	for n := 0; ; n++ {
		if len(rest) < 8 {
			return errors.New("png: truncated chunk header")
		}
		typ := string(rest[4:8])
		size := uint64(binary.BigEndian.Uint32(rest[:4]))
		if size+12 > uint64(len(rest)) {
			return fmt.Errorf("png: truncated %s chunk", typ)
		}
		length := int(size)

		body := rest[4 : 8+length]
		want := binary.BigEndian.Uint32(rest[8+length : 12+length])
		if got := crc32.ChecksumIEEE(body); got != want {
			return fmt.Errorf("png: %s chunk checksum mismatch", typ)
		}

		switch {
		case n == 0 && typ != "IHDR":
			return fmt.Errorf("png: first chunk is %s, want IHDR", typ)
		case typ == "IDAT":
			seenIDAT = true
		case typ == "IEND":
			if !seenIDAT {
				return errors.New("png: no image data")
			}
			return nil
		}
		rest = rest[12+length:]
	}
}
