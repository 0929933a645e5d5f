package evrc

import (
	"errors"
	"testing"

	"github.com/gregLibert/evrc-reader/pkg/iso7816"
	"github.com/gregLibert/evrc-reader/pkg/tlv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFcpTemplate(t *testing.T) {
	fcp, err := ParseFcpTemplate(tlv.Hex("62 04 80 02 01 2C"))
	require.NoError(t, err)
	assert.Equal(t, uint16(300), fcp.FileSize)
	assert.Nil(t, fcp.FileID)
	require.NotNil(t, fcp.Details)
	assert.Equal(t, []byte{0x01, 0x2C}, fcp.Details.DataSizeExcludingStruct)

	fcp, err = ParseFcpTemplate(tlv.Hex("62 08 80 02 00 10 83 02 D0 11"))
	require.NoError(t, err)
	assert.Equal(t, uint16(16), fcp.FileSize)
	assert.Equal(t, []byte{0xD0, 0x11}, fcp.FileID)
}

func TestParseFcpTemplate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		check func(t *testing.T, err error)
	}{
		{
			name: "Wrong template tag",
			data: tlv.Hex("6F 04 80 02 01 2C"),
			check: func(t *testing.T, err error) {
				var tagErr *UnexpectedTagError
				require.ErrorAs(t, err, &tagErr)
				assert.Equal(t, tlv.Tag(0x62), tagErr.Expected)
				assert.Equal(t, tlv.Tag(0x6F), tagErr.Actual)
			},
		},
		{
			name: "Missing file size",
			data: tlv.Hex("62 04 83 02 D0 01"),
			check: func(t *testing.T, err error) {
				var missing *MissingFieldError
				require.ErrorAs(t, err, &missing)
				assert.Equal(t, tlv.Tag(0x80), missing.Tag)
			},
		},
		{
			name: "File size on one byte",
			data: tlv.Hex("62 03 80 01 05"),
			check: func(t *testing.T, err error) {
				var lengthErr *InvalidFieldLengthError
				require.ErrorAs(t, err, &lengthErr)
				assert.Equal(t, InvalidFieldLengthError{Tag: 0x80, Expected: 2, Actual: 1}, *lengthErr)
			},
		},
		{
			name: "Declared length longer than the data",
			data: tlv.Hex("62 06 80 02 01 2C"),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, tlv.ErrUnexpectedEOF)
			},
		},
		{
			name: "Empty response",
			data: nil,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, tlv.ErrUnexpectedEOF)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFcpTemplate(tt.data)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestFcpTemplate_CheckFile(t *testing.T) {
	assert.NoError(t, FcpTemplate{}.CheckFile(RegistrationA))
	assert.NoError(t, FcpTemplate{FileID: []byte{0xD0, 0x01}}.CheckFile(RegistrationA))
	assert.ErrorIs(t, FcpTemplate{FileID: []byte{0xD0, 0x01}}.CheckFile(RegistrationB), ErrFileIDMismatch)
	assert.ErrorIs(t, FcpTemplate{FileID: []byte{0x12, 0x34}}.CheckFile(RegistrationB), ErrFileIDMismatch)
}

func TestSelector_Select(t *testing.T) {
	card := newFakeCard()
	selector := NewSelector(iso7816.NewClient(card), nil)

	fcp, err := selector.Select(RegistrationB)
	require.NoError(t, err)

	require.Len(t, card.sent, 1)
	assert.Equal(t, tlv.Hex("00 A4 02 04 02 D0 11 00"), card.sent[0])
	assert.Equal(t, uint16(len(regB)), fcp.FileSize)
}

func TestSelector_SelectRefused(t *testing.T) {
	card := newFakeCard()
	card.selectStatus = map[uint16][]byte{RegistrationC.ID(): tlv.Hex("6A 82")}
	selector := NewSelector(iso7816.NewClient(card), nil)

	_, err := selector.Select(RegistrationC)

	var refused *iso7816.UnsuccessfulResponse
	require.ErrorAs(t, err, &refused)
	assert.Equal(t, iso7816.SW_ERR_FILE_NOT_FOUND, refused.Status())
}

func TestSelector_CheckFileID(t *testing.T) {
	card := newFakeCard()
	card.fcp = map[uint16][]byte{RegistrationB.ID(): fcpFor(RegistrationA.ID(), 10)}
	selector := NewSelector(iso7816.NewClient(card), nil)

	_, err := selector.Select(RegistrationB)
	require.NoError(t, err, "identifier is not checked by default")

	selector.CheckFileID = true
	_, err = selector.Select(RegistrationB)
	assert.True(t, errors.Is(err, ErrFileIDMismatch), "got %v", err)
}
