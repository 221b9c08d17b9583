package builtin

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding names reported by analyze_file.
const (
	encASCII   = "ascii"
	encUTF8    = "utf-8"
	encUTF8BOM = "utf-8-sig"
	encUTF16LE = "utf-16le"
	encUTF16BE = "utf-16be"
	encCP1252  = "windows-1252"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// detectEncoding guesses the encoding of raw text. A BOM wins; otherwise
// valid UTF-8 is UTF-8 and anything else is treated as Windows-1252, which
// maps every byte.
func detectEncoding(raw []byte) string {
	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		return encUTF8BOM
	case bytes.HasPrefix(raw, bomUTF16LE):
		return encUTF16LE
	case bytes.HasPrefix(raw, bomUTF16BE):
		return encUTF16BE
	case isASCII(raw):
		return encASCII
	case utf8.Valid(raw):
		return encUTF8
	default:
		return encCP1252
	}
}

// decodeText converts raw bytes to a UTF-8 string using the detected
// encoding and returns the encoding name.
func decodeText(raw []byte) (string, string, error) {
	enc := detectEncoding(raw)

	var dec *encoding.Decoder
	switch enc {
	case encASCII, encUTF8:
		return string(raw), enc, nil
	case encUTF8BOM:
		return string(raw[len(bomUTF8):]), enc, nil
	case encUTF16LE:
		dec = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
	case encUTF16BE:
		dec = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
	default:
		dec = charmap.Windows1252.NewDecoder()
	}

	out, err := dec.Bytes(raw)
	if err != nil {
		return "", enc, fmt.Errorf("file encoding issue (%s): %w", enc, err)
	}
	return string(out), enc, nil
}

func isASCII(raw []byte) bool {
	for _, b := range raw {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
