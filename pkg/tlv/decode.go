package tlv

import (
	"errors"
	"fmt"
)

// DefaultMaxDepth bounds the nesting of constructed objects. Card data is untrusted
// and a deeply nested structure must not exhaust the stack.
const DefaultMaxDepth = 32

var (
	// ErrUnexpectedEOF is returned when the input ends before a tag, a length or
	// the declared value is complete.
	ErrUnexpectedEOF = errors.New("tlv: unexpected end of data")

	// ErrInvalidLength is returned for the indefinite form (0x80) and for long
	// forms wider than three bytes.
	ErrInvalidLength = errors.New("tlv: invalid length field")

	// ErrInvalidTag is returned for tags longer than the supported width.
	ErrInvalidTag = errors.New("tlv: invalid tag")

	// ErrMaxDepthExceeded is returned when constructed objects nest deeper than allowed.
	ErrMaxDepthExceeded = errors.New("tlv: maximum nesting depth exceeded")

	// ErrTagNotFound is returned by GetValue when no top-level object has the tag.
	ErrTagNotFound = errors.New("tlv: tag not found")
)

// Decoder holds the parsing options. The zero value is ready to use.
type Decoder struct {
	// MaxDepth is the deepest nesting accepted. Zero means DefaultMaxDepth.
	MaxDepth int

	// SkipPadding ignores '00' and 'FF' bytes between top-level objects, as
	// allowed by ISO/IEC 7816-4 for data read out of transparent files.
	SkipPadding bool
}

// Parse decodes one object from the beginning of data using the default options.
// It returns the object and the number of bytes consumed.
func Parse(data []byte) (Node, int, error) {
	return Decoder{}.Parse(data)
}

// ParseAll decodes consecutive objects until data is exhausted using the default options.
func ParseAll(data []byte) ([]Node, error) {
	return Decoder{}.ParseAll(data)
}

// Parse decodes one object from the beginning of data.
func (d Decoder) Parse(data []byte) (Node, int, error) {
	return d.parse(data, 1)
}

// ParseAll decodes consecutive objects until data is exhausted. Document order is preserved.
// On failure the objects decoded before the faulty one are returned along with the error.
func (d Decoder) ParseAll(data []byte) ([]Node, error) {
	if !d.SkipPadding {
		return d.parseAll(data, 1)
	}

	var nodes []Node
	offset := 0
	for offset < len(data) {
		if data[offset] == 0x00 || data[offset] == 0xFF {
			offset++
			continue
		}
		n, consumed, err := d.parse(data[offset:], 1)
		if err != nil {
			return nodes, fmt.Errorf("object at offset %d: %w", offset, err)
		}
		nodes = append(nodes, n)
		offset += consumed
	}
	return nodes, nil
}

func (d Decoder) maxDepth() int {
	if d.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return d.MaxDepth
}

func (d Decoder) parseAll(data []byte, depth int) ([]Node, error) {
	var nodes []Node
	offset := 0
	for offset < len(data) {
		n, consumed, err := d.parse(data[offset:], depth)
		if err != nil {
			return nodes, fmt.Errorf("object at offset %d: %w", offset, err)
		}
		nodes = append(nodes, n)
		offset += consumed
	}
	return nodes, nil
}

func (d Decoder) parse(data []byte, depth int) (Node, int, error) {
	if depth > d.maxDepth() {
		return Node{}, 0, fmt.Errorf("%w (%d)", ErrMaxDepthExceeded, d.maxDepth())
	}

	tag, tagSize, err := readTag(data)
	if err != nil {
		return Node{}, 0, err
	}

	length, lengthSize, err := readLength(data[tagSize:])
	if err != nil {
		return Node{}, 0, fmt.Errorf("tag %s: %w", tag, err)
	}

	start := tagSize + lengthSize
	if len(data)-start < length {
		return Node{}, 0, fmt.Errorf("%w: tag %s declares %d bytes, %d available",
			ErrUnexpectedEOF, tag, length, len(data)-start)
	}
	value := data[start : start+length]

	n := Node{Tag: tag, Length: length, lengthSize: lengthSize}
	if tag.IsConstructed() {
		children, err := d.parseAll(value, depth+1)
		if err != nil {
			return Node{}, 0, fmt.Errorf("inside tag %s: %w", tag, err)
		}
		n.Children = children
	} else {
		n.Value = append([]byte(nil), value...)
	}

	return n, start + length, nil
}

func readTag(data []byte) (Tag, int, error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("%w: missing tag", ErrUnexpectedEOF)
	}

	tag := Tag(data[0])
	n := 1
	if data[0]&0x1F != 0x1F {
		return tag, n, nil
	}

	for {
		if n >= len(data) {
			return 0, 0, fmt.Errorf("%w: truncated tag %X", ErrUnexpectedEOF, data[:n])
		}
		if n >= maxTagBytes {
			return 0, 0, fmt.Errorf("%w: more than %d bytes", ErrInvalidTag, maxTagBytes)
		}
		b := data[n]
		tag = tag<<8 | Tag(b)
		n++
		if b&0x80 == 0 {
			return tag, n, nil
		}
	}
}

func readLength(data []byte) (int, int, error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("%w: missing length", ErrUnexpectedEOF)
	}

	first := data[0]
	if first < 0x80 {
		return int(first), 1, nil
	}

	width := int(first & 0x7F)
	if width == 0 || width > 3 {
		return 0, 0, fmt.Errorf("%w: first byte %02X", ErrInvalidLength, first)
	}
	if len(data) < 1+width {
		return 0, 0, fmt.Errorf("%w: truncated length", ErrUnexpectedEOF)
	}

	length := 0
	for _, b := range data[1 : 1+width] {
		length = length<<8 | int(b)
	}
	return length, 1 + width, nil
}
