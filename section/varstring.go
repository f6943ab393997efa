package section

import (
	"fmt"

	"github.com/coastalkit/flexmesh/errs"
)

// MaxStringLength is the maximum length of header strings (projection, item
// names, units). The uint8 length prefix bounds strings at 255 bytes.
const MaxStringLength = 255

// AppendVarString appends a length-prefixed string to buf.
//
// Encoding:
//   - 1 byte: length as uint8 (0-255)
//   - N bytes: UTF-8 string data
func AppendVarString(buf []byte, s string) ([]byte, error) {
	if len(s) > MaxStringLength {
		return nil, fmt.Errorf("string length %d exceeds maximum %d", len(s), MaxStringLength)
	}

	buf = append(buf, byte(len(s)))
	buf = append(buf, s...)

	return buf, nil
}

// ReadVarString decodes a length-prefixed string from data at pos and returns
// the string together with the position of the next field.
func ReadVarString(data []byte, pos int) (string, int, error) {
	if pos >= len(data) {
		return "", 0, fmt.Errorf("%w: truncated string at offset %d", errs.ErrCorruptHeader, pos)
	}

	n := int(data[pos])
	pos++
	if pos+n > len(data) {
		return "", 0, fmt.Errorf("%w: truncated string at offset %d", errs.ErrCorruptHeader, pos)
	}

	return string(data[pos : pos+n]), pos + n, nil
}
