package builder

import (
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncoding is used when Options.Encoding is empty.
const DefaultEncoding = "UTF-8"

// textCodec reads and writes files in one character encoding.
type textCodec struct {
	enc  encoding.Encoding
	utf8 bool
}

// newTextCodec resolves a WHATWG encoding label such as "utf-8" or "shift_jis".
func newTextCodec(label string) (textCodec, error) {
	if label == "" {
		label = DefaultEncoding
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return textCodec{}, fmt.Errorf("%w: unknown encoding %q", ErrEncoding, label)
	}
	name, _ := htmlindex.Name(enc)
	return textCodec{enc: enc, utf8: name == "utf-8"}, nil
}

// readFile returns the decoded contents of the file at path.
func (c textCodec) readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if c.utf8 {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrEncoding, path)
		}
		return string(data), nil
	}
	decoded, err := c.enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: failed to decode %s: %v", ErrEncoding, path, err)
	}
	return string(decoded), nil
}

// encode converts s to the codec's encoding.
func (c textCodec) encode(s string) ([]byte, error) {
	if c.utf8 {
		return []byte(s), nil
	}
	encoded, err := c.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return encoded, nil
}
