package answers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding names how the key file is decoded.
type Encoding string

const (
	// EncodingAuto reads UTF-8 and falls back to Windows-1251 for invalid UTF-8.
	EncodingAuto        Encoding = "auto"
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1251 Encoding = "windows-1251"
)

// ParseEncoding maps a configuration value to an Encoding.
// The empty string selects EncodingAuto.
func ParseEncoding(s string) (Encoding, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return EncodingAuto, true
	case "utf-8", "utf8":
		return EncodingUTF8, true
	case "windows-1251", "cp1251":
		return EncodingWindows1251, true
	}
	return "", false
}

// ValidEncodings lists the accepted configuration values.
func ValidEncodings() []string {
	return []string{string(EncodingAuto), string(EncodingUTF8), string(EncodingWindows1251)}
}

// Decode converts raw key file bytes to UTF-8 without a byte order mark.
// The text is otherwise left as is; answers are opaque.
func Decode(data []byte, enc Encoding) ([]byte, error) {
	if enc == "" {
		enc = EncodingAuto
	}

	var (
		out []byte
		err error
	)
	switch enc {
	case EncodingUTF8:
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("invalid UTF-8")
		}
		out, err = unicode.UTF8BOM.NewDecoder().Bytes(data)
	case EncodingWindows1251:
		out, err = charmap.Windows1251.NewDecoder().Bytes(data)
	case EncodingAuto:
		if utf8.Valid(data) {
			out, err = unicode.UTF8BOM.NewDecoder().Bytes(data)
		} else {
			out, err = charmap.Windows1251.NewDecoder().Bytes(data)
		}
	default:
		return nil, fmt.Errorf("unknown encoding %q", enc)
	}
	if err != nil {
		return nil, err
	}

	return out, nil
}
