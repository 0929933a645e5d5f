package tlv

import "fmt"

// MaxLength is the largest value length Encode can write: '83' followed by
// three length bytes, the widest form the decoder accepts.
const MaxLength = 0xFFFFFF

// Encode serializes the nodes back to BER-TLV, in order.
// The length field always reflects the actual value size.
// It panics if a value is longer than MaxLength.
func Encode(nodes ...Node) []byte {
	var buf []byte
	for _, n := range nodes {
		buf = n.appendTo(buf)
	}
	return buf
}

func (n Node) appendTo(buf []byte) []byte {
	value := n.Value
	if n.IsConstructed() {
		value = Encode(n.Children...)
	}

	buf = append(buf, n.Tag.Bytes()...)
	buf = appendLength(buf, len(value), n.lengthSize)
	return append(buf, value...)
}

// appendLength writes length using the minimal form, or width bytes when the
// object was decoded from a wider (yet valid) encoding.
func appendLength(buf []byte, length, width int) []byte {
	minimal := 1
	switch {
	case length > MaxLength:
		panic(fmt.Sprintf("tlv: value of %d bytes exceeds MaxLength", length))
	case length > 0xFFFF:
		minimal = 4
	case length > 0xFF:
		minimal = 3
	case length >= 0x80:
		minimal = 2
	}
	if width < minimal {
		width = minimal
	}

	if width == 1 {
		return append(buf, byte(length))
	}

	buf = append(buf, 0x80|byte(width-1))
	for i := width - 2; i >= 0; i-- {
		buf = append(buf, byte(length>>(8*i)))
	}
	return buf
}
