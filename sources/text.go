package sources

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// UTF8Text decodes a chunk as UTF-8. Invalid bytes are replaced with U+FFFD
// instead of failing.
var UTF8Text = Text(unicode.UTF8)

// Text returns a decoder turning raw chunks in the given encoding into UTF-8
// strings, suitable for Reader.
func Text(enc encoding.Encoding) func([]byte) (string, error) {
	return func(chunk []byte) (string, error) {
		return enc.NewDecoder().String(string(chunk))
	}
}
