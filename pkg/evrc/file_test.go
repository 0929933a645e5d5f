package evrc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_Identifiers(t *testing.T) {
	tests := []struct {
		file File
		id   uint16
		name string
	}{
		{FSOd, 0x001D, "FSOd"},
		{RegistrationA, 0xD001, "RegistrationA"},
		{RegistrationB, 0xD011, "RegistrationB"},
		{RegistrationC, 0xD021, "RegistrationC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.id, tt.file.ID())
			assert.Equal(t, tt.name, tt.file.String())
			assert.Equal(t, []byte{byte(tt.id >> 8), byte(tt.id)}, tt.file.IDBytes())

			got, err := FileFromID(tt.file.IDBytes())
			require.NoError(t, err)
			assert.Equal(t, tt.file, got)

			parsed, err := ParseFile(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.file, parsed)
		})
	}
}

func TestFileFromID_Unknown(t *testing.T) {
	for _, id := range [][]byte{{0xD0, 0x02}, {0x3F, 0x00}, {0xD0}, nil} {
		_, err := FileFromID(id)
		assert.ErrorIs(t, err, ErrUnknownFile, "id %X", id)
	}
}

func TestParseFile(t *testing.T) {
	f, err := ParseFile("registrationb")
	require.NoError(t, err)
	assert.Equal(t, RegistrationB, f)

	_, err = ParseFile("RegistrationD")
	assert.ErrorIs(t, err, ErrUnknownFile)
}

func TestFile_StringUnknown(t *testing.T) {
	assert.Equal(t, "File(9)", File(9).String())
}
