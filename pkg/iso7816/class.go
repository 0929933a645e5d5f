package iso7816

import (
	"fmt"

	"github.com/gregLibert/evrc-reader/pkg/bits"
)

// CLASS BYTE (ISO/IEC 7816-4):
//
//	b8     Proprietary class when set; the remaining bits are not interpreted.
//	b7     Further interindustry class (channels 4-19) when set.
//	b5     Command chaining: more commands of the same chain follow.
//
//	First interindustry (00xx xxxx):   b4-b3 secure messaging, b2-b1 channel 0-3.
//	Further interindustry (01xx xxxx): b6 secure messaging, b4-b1 channel minus 4.
//
// eVRC cards are read on the basic channel without secure messaging, so the zero
// Class, which encodes as '00', is what every command of this module uses.

// SecureMessaging is the secure messaging indication of the class byte.
type SecureMessaging int

const (
	SMNone         SecureMessaging = 0
	SMProprietary  SecureMessaging = 1 // First interindustry only.
	SMHeaderNoProc SecureMessaging = 2
	SMHeaderAuth   SecureMessaging = 3 // First interindustry only.
)

var smNames = map[SecureMessaging]string{
	SMNone:         "no SM",
	SMProprietary:  "proprietary SM",
	SMHeaderNoProc: "ISO SM, header not processed",
	SMHeaderAuth:   "ISO SM, header authenticated",
}

func (sm SecureMessaging) String() string {
	if name, ok := smNames[sm]; ok {
		return name
	}
	return fmt.Sprintf("SecureMessaging(%d)", int(sm))
}

// Class is a decoded CLA byte.
type Class struct {
	Raw             byte
	IsProprietary   bool
	IsChained       bool
	SecureMessaging SecureMessaging
	Channel         uint8 // 0-19
}

// NewClass decodes a CLA byte. 'FF' is reserved for PPS and rejected.
func NewClass(cla byte) (Class, error) {
	if cla == 0xFF {
		return Class{}, fmt.Errorf("invalid CLA value: 0xFF is reserved")
	}

	c := Class{Raw: cla}
	switch {
	case bits.IsSet(cla, 8):
		c.IsProprietary = true

	case bits.IsSet(cla, 7):
		c.IsChained = bits.IsSet(cla, 5)
		if bits.IsSet(cla, 6) {
			c.SecureMessaging = SMHeaderNoProc
		}
		c.Channel = bits.GetRange(cla, 4, 1) + 4

	default:
		c.IsChained = bits.IsSet(cla, 5)
		c.SecureMessaging = SecureMessaging(bits.GetRange(cla, 4, 3))
		c.Channel = bits.GetRange(cla, 2, 1)
	}
	return c, nil
}

// NewChannelClass returns the interindustry class addressing a logical channel.
// Channels 4-19 only know SMNone and SMHeaderNoProc.
func NewChannelClass(channel uint8, sm SecureMessaging, chained bool) (Class, error) {
	c := Class{IsChained: chained, SecureMessaging: sm, Channel: channel}

	raw, err := c.Encode()
	if err != nil {
		return Class{}, err
	}
	c.Raw = raw
	return c, nil
}

// Encode returns the CLA byte. Proprietary classes are returned unchanged.
func (c Class) Encode() (byte, error) {
	if c.IsProprietary {
		return c.Raw, nil
	}
	if c.Channel > 19 {
		return 0, fmt.Errorf("channel %d out of range (max 19)", c.Channel)
	}

	var cla byte
	if c.IsChained {
		cla = bits.Set(cla, 5)
	}

	if c.Channel <= 3 {
		if c.SecureMessaging < SMNone || c.SecureMessaging > SMHeaderAuth {
			return 0, fmt.Errorf("invalid SM indicator %d", c.SecureMessaging)
		}
		return cla | byte(c.SecureMessaging)<<2 | c.Channel, nil
	}

	cla = bits.Set(cla, 7)
	switch c.SecureMessaging {
	case SMNone:
	case SMHeaderNoProc:
		cla = bits.Set(cla, 6)
	default:
		return 0, fmt.Errorf("%s not supported on channel %d", c.SecureMessaging, c.Channel)
	}
	return cla | (c.Channel - 4), nil
}

// Unchained returns the class with the chaining bit cleared, as required for the
// last command of a chain and for GET RESPONSE.
func (c Class) Unchained() Class {
	if c.IsProprietary {
		return c
	}
	c.IsChained = false
	c.Raw = bits.Clear(c.Raw, 5)
	return c
}

// String returns a one-line description, e.g. "00 (channel 0, no SM)".
func (c Class) String() string {
	if c.IsProprietary {
		return fmt.Sprintf("%02X (proprietary)", c.Raw)
	}

	raw, err := c.Encode()
	if err != nil {
		return fmt.Sprintf("invalid class: %v", err)
	}

	s := fmt.Sprintf("%02X (channel %d, %s", raw, c.Channel, c.SecureMessaging)
	if c.IsChained {
		s += ", chained"
	}
	return s + ")"
}
