package main

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/ebfe/scard"
	"github.com/gregLibert/evrc-reader/pkg/iso7816"
	"github.com/gregLibert/evrc-reader/pkg/pcsc"
	"github.com/gregLibert/evrc-reader/pkg/tlv"
	"github.com/sirupsen/logrus"
)

// cardFiles is the content of a small eVRC card, keyed by file identifier.
var cardFiles = map[uint16][]byte{
	0x001D: tlv.Hex("30 03 02 01 01"),
	0xD001: tlv.Encode(tlv.NewConstructed(0x71,
		tlv.NewPrimitive(0x81, []byte("AB-123-CD")),
		tlv.NewConstructed(0xA1,
			tlv.NewPrimitive(0x83, []byte("MARTINS")),
			tlv.NewPrimitive(0x86, []byte{0x00}),
		),
	)),
	0xD011: tlv.Encode(tlv.NewConstructed(0x71,
		tlv.NewPrimitive(0x98, []byte("M1")),
	)),
	0xD021: tlv.Encode(tlv.NewConstructed(0x71,
		tlv.NewPrimitive(0x81, []byte("XY-999-ZZ")),
	)),
}

// emulatedCard answers like an eVRC card.
type emulatedCard struct {
	aid      []byte
	files    map[uint16][]byte
	selected uint16
}

func newEmulatedCard() *emulatedCard {
	return &emulatedCard{
		aid:   tlv.Hex("A0 00 00 04 56 45 56 52 2D 30 31"),
		files: cardFiles,
	}
}

func (c *emulatedCard) Transmit(cmd []byte) ([]byte, error) {
	ok := func(data []byte) []byte {
		return append(append([]byte(nil), data...), 0x90, 0x00)
	}

	apdu, err := iso7816.ParseCommandAPDU(cmd)
	if err != nil {
		return tlv.Hex("67 00"), nil
	}

	switch apdu.Instruction.Raw {
	case iso7816.INS_SELECT:
		if apdu.P1 == 0x04 {
			return ok(tlv.Encode(tlv.NewConstructed(0x6F, tlv.NewPrimitive(0x84, c.aid)))), nil
		}
		if len(apdu.Data) != 2 {
			return tlv.Hex("6A 86"), nil
		}
		id := uint16(apdu.Data[0])<<8 | uint16(apdu.Data[1])
		content, found := c.files[id]
		if !found {
			return tlv.Hex("6A 82"), nil
		}
		c.selected = id
		size := len(content)
		return ok(tlv.Encode(tlv.NewConstructed(0x62,
			tlv.NewPrimitive(0x80, []byte{byte(size >> 8), byte(size)}),
			tlv.NewPrimitive(0x83, []byte{byte(id >> 8), byte(id)}),
		))), nil

	case iso7816.INS_READ_BINARY:
		offset := int(apdu.P1)<<8 | int(apdu.P2)
		content := c.files[c.selected]
		if offset >= len(content) {
			return tlv.Hex("6B 00"), nil
		}
		return ok(content[offset:]), nil
	}
	return tlv.Hex("6D 00"), nil
}

func (c *emulatedCard) Status() (*scard.CardStatus, error) {
	return &scard.CardStatus{Atr: tlv.Hex("3B 88 80 01 00 00 00 00 00 00 00 00 09")}, nil
}

func (c *emulatedCard) Disconnect(scard.Disposition) error {
	return nil
}

// fakePCSC serves emulated cards. GetStatusChange replays events, then calls
// onIdle and times out.
type fakePCSC struct {
	cards  map[string]pcsc.Card
	events []scard.StateFlag
	onIdle func()
}

func (p *fakePCSC) ListReaders() ([]string, error) {
	readers := make([]string, 0, len(p.cards))
	for name := range p.cards {
		readers = append(readers, name)
	}
	return readers, nil
}

func (p *fakePCSC) Connect(reader string) (pcsc.Card, error) {
	card, ok := p.cards[reader]
	if !ok || card == nil {
		return nil, scard.ErrNoSmartcard
	}
	return card, nil
}

func (p *fakePCSC) GetStatusChange(states []scard.ReaderState, timeout time.Duration) error {
	if len(p.events) == 0 {
		if p.onIdle != nil {
			p.onIdle()
		}
		return scard.ErrTimeout
	}
	states[0].EventState = p.events[0] | scard.StateChanged
	p.events = p.events[1:]
	return nil
}

func (p *fakePCSC) Release() error {
	return nil
}

func testApp(t *testing.T, pc *fakePCSC) *app {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home)

	return &app{
		openContext: func() (pcsc.Context, error) { return pc, nil },
		log:         logrus.WithField("component", "cli"),
	}
}

func oneReader() *fakePCSC {
	return &fakePCSC{cards: map[string]pcsc.Card{"ACS ACR39U 00": newEmulatedCard()}}
}

func run(ctx context.Context, a *app, args ...string) (string, error) {
	cmd := newRootCmd(a)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}
