package iso7816

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/gregLibert/evrc-reader/pkg/tlv"
)

func TestNewSelectCommand(t *testing.T) {
	cls, _ := NewClass(0x00)

	tests := []struct {
		name     string
		cmd      *CommandAPDU
		expected []byte
	}{
		{
			name: "Select by AID without Le",
			cmd:  SelectByAID(cls, tlv.Hex("A0 00 00 04 56 45 56 52 2D 30 31")),
			expected: tlv.Hex(
				"00 A4 04 00", // Header: CLA=00, INS=A4, P1=04 (AID), P2=00
				"0B",          // Lc=11
				"A0 00 00 04 56 45 56 52 2D 30 31",
			),
		},
		{
			name: "Select eVRC application",
			cmd:  SelectApplication(cls, tlv.Hex("A0 00 00 04 56 45 56 52 2D 30 31")),
			expected: tlv.Hex(
				"00 A4 04 00", // Header: P1=04 (AID), P2=00 (FCI)
				"0B",          // Lc=11
				"A0 00 00 04 56 45 56 52 2D 30 31",
				"00", // Le=256
			),
		},
		{
			name: "Select EF by identifier (D011)",
			cmd:  SelectFileByID(cls, 0xD011),
			expected: tlv.Hex(
				"00 A4 02 04", // Header: P1=02 (EF under current DF), P2=04 (FCP)
				"02 D0 11",    // Lc=2, File ID
				"00",          // Le=256
			),
		},
		{
			name: "Select current EF, no data",
			cmd: NewSelectCommand(
				cls,
				SelectEFUnderCurrentDF,
				FirstOrOnlyOccurrence,
				ReturnFCP,
				nil,
			),
			expected: tlv.Hex(
				"00 A4 02 04", // Header only
				"00",          // Le=256 (Allowed because no data sent)
			),
		},
		{
			name: "Select Next Occurrence FCP",
			cmd: NewSelectCommand(
				cls,
				SelectByFileID,
				NextOccurrence,
				ReturnFCP,
				[]byte{0x3F, 0x00},
			),
			expected: tlv.Hex(
				"00 A4 00 06", // Header: P2=06 (ReturnFCP 04 | Next 02)
				"02",          // Lc=2
				"3F 00",       // Data: File ID 3F00
				// NO Le "00" here due to T=0 compatibility
			),
		},
		{
			name: "Select No Data",
			cmd: NewSelectCommand(
				cls,
				SelectByFileID,
				FirstOrOnlyOccurrence,
				ReturnNoData,
				[]byte{0x3F, 0x00},
			),
			expected: tlv.Hex(
				"00 A4 00 0C", // Header: P2=0C (ReturnNoData 0C | First 00)
				"02",          // Lc=2
				"3F 00",       // Data: File ID 3F00
				// Le absent
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Bytes()
			if err != nil {
				t.Fatalf("Failed to encode bytes: %v", err)
			}

			if !bytes.Equal(got, tt.expected) {
				t.Errorf("Mismatch:\nExpected: %s\nGot:      %s",
					hex.EncodeToString(tt.expected),
					hex.EncodeToString(got))
			}
		})
	}
}

func TestSplitP2(t *testing.T) {
	tests := []struct {
		p2       byte
		wantOcc  string
		wantCtrl string
	}{
		{0x00, "First/Only", "Return FCI"},
		{0x04, "First/Only", "Return FCP"},
		{0x02, "Next", "Return FCI"},
		{0x0D, "Last", "No Response Data"},
		{0x0B, "Previous", "Return FMD"},
	}

	for _, tt := range tests {
		occ, ctrl := SplitP2(tt.p2)
		if occ.String() != tt.wantOcc || ctrl.String() != tt.wantCtrl {
			t.Errorf("SplitP2(%02X) = %s | %s, want %s | %s", tt.p2, occ, ctrl, tt.wantOcc, tt.wantCtrl)
		}
	}

	if got := SelectionMethod(0x42).String(); got != "Unknown Method (0x42)" {
		t.Errorf("unknown method = %q", got)
	}
	if got := SelectionControl(0x10).String(); got != "Unknown Control" {
		t.Errorf("unknown control = %q", got)
	}
}
