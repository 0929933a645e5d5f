package evrc

import (
	"bytes"
	"testing"

	"github.com/gregLibert/evrc-reader/pkg/iso7816"
	"github.com/gregLibert/evrc-reader/pkg/tlv"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_Read(t *testing.T) {
	content := bytes.Repeat([]byte{0xA5}, 300)

	card := newFakeCard()
	card.files[RegistrationA.ID()] = content
	card.selected = RegistrationA.ID()

	data := NewReader(iso7816.NewClient(card), nil).Read(300)

	assert.Equal(t, []int{0x0000, 0x0100}, card.reads())
	assert.Equal(t, tlv.Hex("00 B0 01 00 00"), card.sent[1])
	assert.Equal(t, content, data)
}

func TestReader_StopsOnFailure(t *testing.T) {
	content := bytes.Repeat([]byte{0x5A}, 600)

	card := newFakeCard()
	card.files[RegistrationA.ID()] = content
	card.failReadAt = map[uint16]int{RegistrationA.ID(): 256}
	card.selected = RegistrationA.ID()

	data := NewReader(iso7816.NewClient(card), nil).Read(600)

	assert.Equal(t, []int{0x0000, 0x0100}, card.reads(), "no read after the failing one")
	assert.Equal(t, content[:256], data)
}

func TestReader_CardHoldsLessThanDeclared(t *testing.T) {
	card := newFakeCard()
	card.files[RegistrationA.ID()] = []byte{0x01, 0x02}
	card.selected = RegistrationA.ID()

	data := NewReader(iso7816.NewClient(card), nil).Read(1024)

	assert.Equal(t, []int{0x0000, 0x0100}, card.reads())
	assert.Equal(t, []byte{0x01, 0x02}, data)
}

func TestReader_EmptyFile(t *testing.T) {
	card := newFakeCard()
	data := NewReader(iso7816.NewClient(card), nil).Read(0)

	assert.Empty(t, card.sent)
	assert.Empty(t, data)
}

func TestReader_OffsetLimit(t *testing.T) {
	card := newFakeCard()
	card.files[RegistrationA.ID()] = make([]byte, 0xFFFF)
	card.selected = RegistrationA.ID()

	data := NewReader(iso7816.NewClient(card), nil).Read(0xFFFF)

	reads := card.reads()
	assert.Len(t, reads, 128)
	assert.Equal(t, 0x7F00, reads[len(reads)-1])
	assert.Len(t, data, 0x8000)
}

func TestReader_FailureLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		failure []byte
		level   logrus.Level
	}{
		{"Offset outside the EF", tlv.Hex("6B 00"), logrus.DebugLevel},
		{"Security status not satisfied", tlv.Hex("69 82"), logrus.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := newFakeCard()
			card.files[RegistrationA.ID()] = make([]byte, 512)
			card.failReadAt = map[uint16]int{RegistrationA.ID(): 256}
			card.readFailure = tt.failure
			card.selected = RegistrationA.ID()

			logger, hook := test.NewNullLogger()
			logger.SetLevel(logrus.DebugLevel)

			data := NewReader(iso7816.NewClient(card), logrus.NewEntry(logger)).Read(512)
			assert.Len(t, data, 256)

			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, tt.level, hook.LastEntry().Level)
			assert.Equal(t, 256, hook.LastEntry().Data["offset"])
		})
	}
}
