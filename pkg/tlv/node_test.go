package tlv

import (
	"bytes"
	"errors"
	"testing"
)

func TestTag(t *testing.T) {
	tests := []struct {
		in          string
		want        Tag
		constructed bool
	}{
		{"84", 0x84, false},
		{"A5", 0xA5, true},
		{"62", 0x62, true},
		{"9F33", 0x9F33, false},
		{"bf0c", 0xBF0C, true},
		{"5F 20", 0x5F20, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTag(tt.in)
			if err != nil {
				t.Fatalf("ParseTag() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseTag() = %s, want %s", got, tt.want)
			}
			if got.IsConstructed() != tt.constructed {
				t.Errorf("IsConstructed() = %v, want %v", got.IsConstructed(), tt.constructed)
			}
		})
	}
}

func TestParseTagErrors(t *testing.T) {
	for _, in := range []string{"", "ZZ", "9F", "8401"} {
		if _, err := ParseTag(in); err == nil {
			t.Errorf("ParseTag(%q) succeeded", in)
		}
	}

	if _, err := ParseTag("9F"); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("ParseTag(9F) error = %v, want %v", err, ErrUnexpectedEOF)
	}
}

func TestNodeBuilders(t *testing.T) {
	n := NewConstructed(0xA1,
		NewPrimitive(0x83, []byte("MARTIN")),
		NewPrimitive(0x84, nil),
	)

	want := Hex("A1 0A 83 06 4D415254494E 84 00")
	if got := n.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("Bytes() = %X, want %X", got, want)
	}
	if n.Length != 10 {
		t.Errorf("Length = %d, want 10", n.Length)
	}
	if got := n.String(); got != "A1{2 children}" {
		t.Errorf("String() = %s", got)
	}
}
