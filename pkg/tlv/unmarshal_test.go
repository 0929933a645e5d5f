package tlv

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/moov-io/bertlv"
)

type prefixed struct {
	Val string
}

func (c *prefixed) UnmarshalTLV(data []byte) error {
	c.Val = "custom:" + hex.EncodeToString(data)
	return nil
}

type holderNames struct {
	Surname   string `tlv:"83,text"`
	OtherName string `tlv:"84,text"`
}

type versioned struct {
	Version []byte `tlv:"82"`
}

type sample struct {
	AID     []byte       `tlv:"4F"`
	Label   string       `tlv:"50"`
	Text    string       `tlv:"50,text"`
	Details versioned    `tlv:"A5"`
	Custom  prefixed     `tlv:"9F02"`
	Names   holderNames  `tlv:",inline"`
	Other   []bertlv.TLV `tlv:",unknown"`
}

func TestUnmarshal(t *testing.T) {
	rawData := Hex(
		"4F 02 1122",
		"50 03 414243",
		"A5 03 8201FF",
		"9F02 01 AA",
		"83 05 4D41525449",
		"84 03 4A4F45",
		"DF01 01 BB",
	)

	var result sample
	if err := Unmarshal(rawData, &result); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if hex.EncodeToString(result.AID) != "1122" {
		t.Errorf("AID = %x, want 1122", result.AID)
	}
	if result.Label != "414243" {
		t.Errorf("Label = %s, want hex 414243", result.Label)
	}
	if result.Text != "ABC" {
		t.Errorf("Text = %q, want ABC", result.Text)
	}
	if hex.EncodeToString(result.Details.Version) != "ff" {
		t.Errorf("Details.Version = %x, want ff", result.Details.Version)
	}
	if result.Custom.Val != "custom:aa" {
		t.Errorf("Custom = %s, want custom:aa", result.Custom.Val)
	}

	wantNames := holderNames{Surname: "MARTI", OtherName: "JOE"}
	if diff := cmp.Diff(wantNames, result.Names); diff != "" {
		t.Errorf("inline names mismatch (-want +got):\n%s", diff)
	}

	// Inline fields do not consume packets at the parent level.
	var unknownTags []string
	for _, p := range result.Other {
		unknownTags = append(unknownTags, strings.ToUpper(p.Tag))
	}
	if diff := cmp.Diff([]string{"83", "84", "DF01"}, unknownTags); diff != "" {
		t.Errorf("unknown tags mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalSliceField(t *testing.T) {
	type record struct {
		Entries []versioned `tlv:"A5"`
	}

	var r record
	if err := Unmarshal(Hex("A5 03 820101", "A5 03 820102"), &r); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(r.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(r.Entries))
	}
	if r.Entries[1].Version[0] != 0x02 {
		t.Errorf("second entry version = %X, want 02", r.Entries[1].Version)
	}
}

func TestGetValue(t *testing.T) {
	rawData := Hex("84 02 1122", "50 03 414243", "A5 03 8201FF")

	t.Run("Existing Tag", func(t *testing.T) {
		val, err := GetValue(rawData, 0x84)
		if err != nil {
			t.Fatalf("GetValue failed: %v", err)
		}
		if hex.EncodeToString(val) != "1122" {
			t.Errorf("Expected 1122, got %x", val)
		}
	})

	t.Run("Constructed Tag", func(t *testing.T) {
		val, err := GetValue(rawData, 0xA5)
		if err != nil {
			t.Fatalf("GetValue failed: %v", err)
		}
		if diff := cmp.Diff(Hex("8201FF"), val); diff != "" {
			t.Errorf("value mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Missing Tag", func(t *testing.T) {
		if _, err := GetValue(rawData, 0x99); !errors.Is(err, ErrTagNotFound) {
			t.Errorf("error = %v, want ErrTagNotFound", err)
		}
	})
}

func TestUnmarshalErrors(t *testing.T) {
	t.Run("Non-pointer target", func(t *testing.T) {
		err := Unmarshal(Hex("84 00"), sample{})
		if err == nil || !strings.Contains(err.Error(), "pointer") {
			t.Errorf("Expected pointer error, got %v", err)
		}
	})

	t.Run("Truncated input", func(t *testing.T) {
		var s sample
		if err := Unmarshal(Hex("84 05 11"), &s); err == nil {
			t.Error("Expected decode error, got nil")
		}
	})

	t.Run("Inline on non-struct", func(t *testing.T) {
		var bad struct {
			Name string `tlv:",inline"`
		}
		if err := Unmarshal(Hex("84 00"), &bad); err == nil {
			t.Error("Expected inline error, got nil")
		}
	})

	t.Run("Invalid struct tag", func(t *testing.T) {
		var bad struct {
			Name []byte `tlv:"9F"`
		}
		if err := Unmarshal(Hex("84 00"), &bad); !errors.Is(err, ErrUnexpectedEOF) {
			t.Errorf("error = %v, want ErrUnexpectedEOF", err)
		}
	})

	t.Run("Lower-case struct tag", func(t *testing.T) {
		var s struct {
			Name []byte `tlv:"9f02"`
		}
		if err := Unmarshal(Hex("9F02 01 07"), &s); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if diff := cmp.Diff([]byte{0x07}, s.Name); diff != "" {
			t.Errorf("value mismatch (-want +got):\n%s", diff)
		}
	})
}
