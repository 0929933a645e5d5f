package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gregLibert/evrc-reader/pkg/bits"
)

// BER-TLV STRUCTURE (ISO/IEC 8825-1, as profiled by ISO/IEC 7816-4):
//
// TAG:
//   - First byte, bits 8-7: Class (Universal, Application, Context, Private).
//   - First byte, bit 6:    0 = Primitive, 1 = Constructed.
//   - First byte, bits 5-1: Tag number, or '11111' when further bytes follow.
//   - Subsequent bytes:     bit 8 set on every byte except the last one.
//
// LENGTH:
//   - Short form: one byte, 0x00-0x7F.
//   - Long form:  0x81 XX, 0x82 XXXX, 0x83 XXXXXX (number of length bytes + 0x80).
//
// VALUE:
//   - Primitive:   raw bytes.
//   - Constructed: a concatenation of nested BER-TLV objects.

// maxTagBytes bounds the tag field. ISO 7816-4 only uses up to 3 bytes, the fourth
// keeps room for proprietary data objects.
const maxTagBytes = 4

// Tag is a BER tag kept in its raw encoded form (e.g. 0x9F33 for the two bytes 9F 33).
type Tag uint32

// ParseTag converts a hexadecimal representation (e.g. "9F33") into a Tag.
func ParseTag(s string) (Tag, error) {
	raw, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not hexadecimal", ErrInvalidTag, s)
	}

	t, n, err := readTag(raw)
	if err != nil {
		return 0, err
	}
	if n != len(raw) {
		return 0, fmt.Errorf("%w: %q has trailing bytes after the tag", ErrInvalidTag, s)
	}
	return t, nil
}

// Bytes returns the encoded tag.
func (t Tag) Bytes() []byte {
	n := 1
	for v := uint32(t) >> 8; v > 0; v >>= 8 {
		n++
	}

	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(t >> (8 * (n - 1 - i)))
	}
	return out
}

// leading returns the first encoded byte, which carries class and form.
func (t Tag) leading() byte {
	return t.Bytes()[0]
}

// IsConstructed reports whether the value of this tag is made of nested TLVs.
func (t Tag) IsConstructed() bool {
	return bits.IsSet(t.leading(), 6)
}

// String returns the upper-case hexadecimal form used as a map key (e.g. "9F33").
func (t Tag) String() string {
	return strings.ToUpper(hex.EncodeToString(t.Bytes()))
}

// Node is one decoded BER-TLV object.
//
// The value is either primitive (Value) or constructed (Children); which one is
// decided by the constructed bit of the tag only.
type Node struct {
	Tag Tag

	// Length is the declared length of the value field.
	Length int

	// Value holds the bytes of a primitive object. It is nil for constructed ones.
	Value []byte

	// Children holds the nested objects of a constructed object, in document order.
	Children []Node

	// lengthSize remembers how many bytes encoded the length so that
	// non-minimal long forms survive a decode/encode cycle.
	lengthSize int
}

// NewPrimitive builds a primitive node. Values longer than MaxLength cannot be encoded.
func NewPrimitive(tag Tag, value []byte) Node {
	return Node{Tag: tag, Length: len(value), Value: value}
}

// NewConstructed builds a constructed node from its children.
func NewConstructed(tag Tag, children ...Node) Node {
	return Node{Tag: tag, Length: len(Encode(children...)), Children: children}
}

// IsConstructed reports whether the node holds nested objects.
func (n Node) IsConstructed() bool {
	return n.Tag.IsConstructed()
}

// Find returns the first immediate child carrying the given tag.
func (n Node) Find(tag Tag) (Node, bool) {
	return First(n.Children, tag)
}

// First returns the first node of the slice carrying the given tag.
func First(nodes []Node, tag Tag) (Node, bool) {
	for _, c := range nodes {
		if c.Tag == tag {
			return c, true
		}
	}
	return Node{}, false
}

// Bytes re-encodes the node.
func (n Node) Bytes() []byte {
	return n.appendTo(nil)
}

// String returns a compact one-line representation, mainly for logs and test failures.
func (n Node) String() string {
	if n.IsConstructed() {
		return fmt.Sprintf("%s{%d children}", n.Tag, len(n.Children))
	}
	return fmt.Sprintf("%s[%X]", n.Tag, n.Value)
}
