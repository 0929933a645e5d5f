package evrc

import (
	"github.com/gregLibert/evrc-reader/pkg/iso7816"
	"github.com/gregLibert/evrc-reader/pkg/tlv"
)

// fakeCard emulates an eVRC card: it answers the application selection, keeps
// track of the selected EF and serves READ BINARY out of its content.
type fakeCard struct {
	// appResponse replaces the answer to SELECT by AID (trailer included).
	appResponse []byte

	files map[uint16][]byte

	// fcp replaces the generated FCP of a file (trailer excluded).
	fcp map[uint16][]byte

	// selectStatus makes SELECT FILE answer a bare status word.
	selectStatus map[uint16][]byte

	// failReadAt makes READ BINARY fail from the given offset on, with
	// readFailure or '6B 00' by default.
	failReadAt  map[uint16]int
	readFailure []byte

	transportErr error

	selected uint16
	sent     [][]byte
}

func newFakeCard() *fakeCard {
	return &fakeCard{
		files: map[uint16][]byte{
			FSOd.ID():          tlv.Hex("30 03 02 01 01"),
			RegistrationA.ID(): regA,
			RegistrationB.ID(): regB,
			RegistrationC.ID(): regC,
		},
	}
}

func (c *fakeCard) Transmit(cmd []byte) ([]byte, error) {
	c.sent = append(c.sent, append([]byte(nil), cmd...))
	if c.transportErr != nil {
		return nil, c.transportErr
	}

	apdu, err := iso7816.ParseCommandAPDU(cmd)
	if err != nil {
		return tlv.Hex("67 00"), nil
	}

	switch {
	case apdu.Instruction.Raw == iso7816.INS_SELECT && apdu.P1 == 0x04:
		if c.appResponse != nil {
			return c.appResponse, nil
		}
		return withStatus(expectedApplicationFCI, 0x90, 0x00), nil

	case apdu.Instruction.Raw == iso7816.INS_SELECT && apdu.P1 == 0x02 && len(apdu.Data) == 2:
		id := uint16(apdu.Data[0])<<8 | uint16(apdu.Data[1])
		if sw, ok := c.selectStatus[id]; ok {
			return sw, nil
		}
		content, ok := c.files[id]
		if !ok {
			return tlv.Hex("6A 82"), nil
		}
		c.selected = id

		fcp, ok := c.fcp[id]
		if !ok {
			fcp = fcpFor(id, len(content))
		}
		return withStatus(fcp, 0x90, 0x00), nil

	case apdu.Instruction.Raw == iso7816.INS_READ_BINARY:
		offset := int(apdu.P1)<<8 | int(apdu.P2)
		content := c.files[c.selected]
		if at, ok := c.failReadAt[c.selected]; ok && offset >= at {
			if c.readFailure != nil {
				return c.readFailure, nil
			}
			return tlv.Hex("6B 00"), nil
		}
		if offset >= len(content) {
			return tlv.Hex("6B 00"), nil
		}
		end := offset + apdu.Ne
		if end > len(content) {
			end = len(content)
		}
		return withStatus(content[offset:end], 0x90, 0x00), nil
	}

	return tlv.Hex("6D 00"), nil
}

// reads returns the offsets of the READ BINARY commands sent, in order.
func (c *fakeCard) reads() []int {
	var offsets []int
	for _, raw := range c.sent {
		cmd, err := iso7816.ParseCommandAPDU(raw)
		if err == nil && cmd.Instruction.Raw == iso7816.INS_READ_BINARY {
			offsets = append(offsets, int(cmd.P1)<<8|int(cmd.P2))
		}
	}
	return offsets
}

func withStatus(data []byte, sw1, sw2 byte) []byte {
	out := append([]byte(nil), data...)
	return append(out, sw1, sw2)
}

func fcpFor(id uint16, size int) []byte {
	return tlv.Encode(tlv.NewConstructed(tagFCP,
		tlv.NewPrimitive(tagFileSize, []byte{byte(size >> 8), byte(size)}),
		tlv.NewPrimitive(tagFileID, []byte{byte(id >> 8), byte(id)}),
	))
}

func text(tag tlv.Tag, s string) tlv.Node {
	return tlv.NewPrimitive(tag, []byte(s))
}

var (
	regA = tlv.Encode(tlv.NewConstructed(0x71,
		text(0x9F33, "F"),
		text(0x9F38, "CT-2023-0001"),
		text(0x81, "AB-123-CD"),
		text(0x82, "20190315"),
		tlv.NewConstructed(0xA1,
			tlv.NewConstructed(0xA2,
				text(0x83, "MARTINS"),
				text(0x84, "JEAN"),
				text(0x85, "1 RUE DE LA PAIX PARIS"),
			),
			tlv.NewPrimitive(0x86, []byte{0x00}),
		),
		text(0x87, "RENAULT"),
		text(0x8A, "VF1RFB00000000001"),
	))

	regB = tlv.Encode(tlv.NewConstructed(0x71,
		text(0x98, "M1"),
		text(0x9F24, "BLEU"),
		text(0x90, "1461"),
		text(0x92, "GO"),
	))

	// Transparent files are often padded up to their declared size.
	regC = append(tlv.Encode(tlv.NewConstructed(0x71,
		text(0x9F32, "EURO6"),
	)), 0x00, 0x00, 0xFF, 0xFF)
)
