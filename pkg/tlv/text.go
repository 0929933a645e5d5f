package tlv

import (
	"golang.org/x/text/encoding/unicode"
)

// DecodeText interprets data as UTF-8. Invalid sequences are replaced with U+FFFD,
// so the result is always a valid string whatever the card returns.
func DecodeText(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	out, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		return string([]rune(string(data)))
	}
	return string(out)
}
