package evrc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/gregLibert/evrc-reader/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// ApplicationID is the AID of the eVRC application ("...VEVR-01").
var ApplicationID = tlv.Hex("A0 00 00 04 56 45 56 52 2D 30 31")

// expectedApplicationFCI is the exact answer of an eVRC card to the application selection.
var expectedApplicationFCI = tlv.Hex("6F 0D 84 0B A0 00 00 04 56 45 56 52 2D 30 31")

const tagFCI tlv.Tag = 0x6F

// ApplicationFCI is the FCI template ('6F') returned when an application is selected.
type ApplicationFCI struct {
	DFName              []byte `tlv:"84" fmt:"ascii"`
	ApplicationLabel    []byte `tlv:"50" fmt:"ascii"`
	ProprietaryTemplate []byte `tlv:"A5"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ParseApplicationFCI maps the answer to a SELECT by AID. The '6F' wrapper is optional.
func ParseApplicationFCI(data []byte) (*ApplicationFCI, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data cannot be parsed")
	}

	inner, err := tlv.GetValue(data, tagFCI)
	switch {
	case errors.Is(err, tlv.ErrTagNotFound):
		inner = data
	case err != nil:
		return nil, fmt.Errorf("BER-TLV decode failed: %w", err)
	}

	fci := &ApplicationFCI{}
	if err := tlv.Unmarshal(inner, fci); err != nil {
		return nil, fmt.Errorf("failed to map structure: %w", err)
	}
	return fci, nil
}

// IsEVRC reports whether the DF name is the eVRC application identifier.
func (f *ApplicationFCI) IsEVRC() bool {
	return bytes.Equal(f.DFName, ApplicationID)
}

// Describe generates a report of the FCI content.
func (f *ApplicationFCI) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== APPLICATION FCI TEMPLATE ===")
	tlv.WriteStructFields(&sb, "FCI", f)
	return sb.String()
}
