package iso7816

import "fmt"

// READ BINARY COMMAND LOGIC (ISO 7816-4):
// The READ BINARY command (INS 'B0') returns part of the content of a transparent EF.
//
// P1-P2 (Offset):
// - P1 bit 8 = 0: P1-P2 is a 15-bit offset, big-endian, in the current EF.
// - P1 bit 8 = 1: P1 bits 5-1 are a Short File Identifier and P2 is an 8-bit offset.
//
// Le = '00' asks for up to 256 bytes; the card returns fewer at the end of the file.

// MaxReadBinaryOffset is the largest offset addressable in the current EF.
const MaxReadBinaryOffset = 0x7FFF

// ReadBinaryBlockSize is the number of bytes requested by a short Le of '00'.
const ReadBinaryBlockSize = MaxShortLe

// ReadBinary reads up to 256 bytes at offset in the currently selected EF.
func ReadBinary(cla Class, offset int) (*CommandAPDU, error) {
	if offset < 0 || offset > MaxReadBinaryOffset {
		return nil, fmt.Errorf("offset %d out of range (max %d)", offset, MaxReadBinaryOffset)
	}

	ins, _ := NewInstruction(INS_READ_BINARY)

	// Case 2 command: no data sent, Le='00' requests the full block.
	return NewCommandAPDU(cla, ins, byte(offset>>8), byte(offset), nil, ReadBinaryBlockSize), nil
}
