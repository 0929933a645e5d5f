package iso7816

import (
	"errors"
	"fmt"
)

// C-APDU layout (ISO/IEC 7816-3 clause 12.1, 7816-4 clause 5.1):
//
//	CLA INS P1 P2 [Lc Data] [Le]
//
// Lc and Le use one byte in short form. Extended form is selected as soon as
// Nc > 255 or Ne > 256: a '00' marker precedes a 2-byte Lc, and Le takes two
// bytes (three when no Lc is present). A zero Le encodes the maximum (256 or 65536).
//
// R-APDU layout: [Data] SW1 SW2.

// APDU length limits.
const (
	// MaxShortLc is the largest data field encodable with a 1-byte Lc.
	MaxShortLc = 255

	// MaxShortLe is the largest Ne encodable with a 1-byte Le ('00').
	MaxShortLe = 256

	// MaxExtendedLc is the largest data field encodable with a 2-byte Lc.
	MaxExtendedLc = 65535

	// MaxExtendedLe is the largest Ne encodable with a 2-byte Le ('00 00').
	MaxExtendedLe = 65536
)

// ErrMalformedCommand is returned when raw bytes do not form a valid C-APDU.
var ErrMalformedCommand = errors.New("malformed command APDU")

// CommandAPDU is a command sent to the card.
type CommandAPDU struct {
	Class       Class
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int // expected response length, 0 when no response data is expected
}

// NewCommandAPDU creates a command.
func NewCommandAPDU(cla Class, ins Instruction, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{
		Class:       cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
		Ne:          ne,
	}
}

// Bytes encodes the command, choosing short or extended lengths from Nc and Ne.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	cla, err := c.Class.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode Class: %w", err)
	}

	nc := len(c.Data)
	if nc > MaxExtendedLc {
		return nil, fmt.Errorf("data field too long: %d bytes (max %d)", nc, MaxExtendedLc)
	}
	if c.Ne < 0 || c.Ne > MaxExtendedLe {
		return nil, fmt.Errorf("Ne %d out of range (max %d)", c.Ne, MaxExtendedLe)
	}
	extended := nc > MaxShortLc || c.Ne > MaxShortLe

	buf := make([]byte, 0, 4+3+nc+3)
	buf = append(buf, cla, byte(c.Instruction.Raw), c.P1, c.P2)

	if nc > 0 {
		if extended {
			buf = append(buf, 0x00, byte(nc>>8), byte(nc))
		} else {
			buf = append(buf, byte(nc))
		}
		buf = append(buf, c.Data...)
	}

	if c.Ne > 0 {
		switch {
		case !extended:
			// 256 wraps to '00'.
			buf = append(buf, byte(c.Ne))
		case nc == 0:
			buf = append(buf, 0x00, byte(c.Ne>>8), byte(c.Ne))
		default:
			buf = append(buf, byte(c.Ne>>8), byte(c.Ne))
		}
	}

	return buf, nil
}

// ParseCommandAPDU decodes a C-APDU in any of the seven encoding cases.
func ParseCommandAPDU(raw []byte) (*CommandAPDU, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: %d bytes, header needs 4", ErrMalformedCommand, len(raw))
	}

	cla, err := NewClass(raw[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	ins, err := NewInstruction(InsCode(raw[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	cmd := NewCommandAPDU(cla, ins, raw[2], raw[3], nil, 0)

	body := raw[4:]
	switch {
	case len(body) == 0:
		return cmd, nil

	case len(body) == 1:
		cmd.Ne = shortLe(body[0])
		return cmd, nil

	case body[0] != 0x00:
		nc := int(body[0])
		switch len(body) {
		case 1 + nc:
		case 2 + nc:
			cmd.Ne = shortLe(body[1+nc])
		default:
			return nil, fmt.Errorf("%w: Lc %d does not match body of %d bytes", ErrMalformedCommand, nc, len(body))
		}
		cmd.Data = append([]byte(nil), body[1:1+nc]...)
		return cmd, nil

	case len(body) == 3:
		cmd.Ne = extendedLe(body[1], body[2])
		return cmd, nil
	}

	if len(body) < 3 {
		return nil, fmt.Errorf("%w: truncated extended length", ErrMalformedCommand)
	}
	nc := int(body[1])<<8 | int(body[2])
	switch len(body) {
	case 3 + nc:
	case 5 + nc:
		cmd.Ne = extendedLe(body[3+nc], body[4+nc])
	default:
		return nil, fmt.Errorf("%w: extended Lc %d does not match body of %d bytes", ErrMalformedCommand, nc, len(body))
	}
	if nc == 0 {
		return nil, fmt.Errorf("%w: extended Lc of zero", ErrMalformedCommand)
	}
	cmd.Data = append([]byte(nil), body[3:3+nc]...)
	return cmd, nil
}

func shortLe(b byte) int {
	if b == 0 {
		return MaxShortLe
	}
	return int(b)
}

func extendedLe(hi, lo byte) int {
	if ne := int(hi)<<8 | int(lo); ne != 0 {
		return ne
	}
	return MaxExtendedLe
}

// WithNe returns a copy of the command expecting ne response bytes.
func (c *CommandAPDU) WithNe(ne int) *CommandAPDU {
	cp := *c
	cp.Ne = ne
	return &cp
}

// String returns a readable summary of the command.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s | CLA: %s | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.Instruction.Verbose(), c.Class, c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU is the reply from the card.
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU splits a raw reply into data field and status word.
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("response too short: length %d", len(raw))
	}

	n := len(raw) - 2
	return &ResponseAPDU{
		Data:   raw[:n],
		Status: NewStatusWord(raw[n], raw[n+1]),
	}, nil
}

// Bytes returns the raw response: data field followed by SW1 SW2.
func (r *ResponseAPDU) Bytes() []byte {
	out := make([]byte, 0, len(r.Data)+2)
	out = append(out, r.Data...)
	return append(out, r.Status.SW1(), r.Status.SW2())
}

// String returns a readable summary of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
