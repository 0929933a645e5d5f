package iso7816

import (
	"fmt"
)

// SELECT (INS 'A4', ISO/IEC 7816-4 clause 11.2.2):
//
//	P1  how the target is designated (file identifier, DF name, path)
//	P2  b4-b3 what the card answers with, b2-b1 which occurrence to select

// SelectionMethod is the P1 of a SELECT command.
type SelectionMethod byte

const (
	SelectByFileID          SelectionMethod = 0x00
	SelectChildDF           SelectionMethod = 0x01
	SelectEFUnderCurrentDF  SelectionMethod = 0x02
	SelectParentDF          SelectionMethod = 0x03
	SelectByDFName          SelectionMethod = 0x04 // Select by AID
	SelectPathFromMF        SelectionMethod = 0x08
	SelectPathFromCurrentDF SelectionMethod = 0x09
)

var selectionMethodNames = map[SelectionMethod]string{
	SelectByFileID:          "Select by File ID",
	SelectChildDF:           "Select Child DF",
	SelectEFUnderCurrentDF:  "Select EF under current DF",
	SelectParentDF:          "Select Parent DF",
	SelectByDFName:          "Select by DF Name (AID)",
	SelectPathFromMF:        "Select Path from MF",
	SelectPathFromCurrentDF: "Select Path from Current DF",
}

func (s SelectionMethod) String() string {
	if name, ok := selectionMethodNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Method (0x%02X)", byte(s))
}

// FileOccurrence is P2 b2-b1.
type FileOccurrence byte

const (
	FirstOrOnlyOccurrence FileOccurrence = 0b0000_00_00
	LastOccurrence        FileOccurrence = 0b0000_00_01
	NextOccurrence        FileOccurrence = 0b0000_00_10
	PreviousOccurrence    FileOccurrence = 0b0000_00_11
)

var occurrenceNames = [...]string{"First/Only", "Last", "Next", "Previous"}

func (f FileOccurrence) String() string {
	if int(f) < len(occurrenceNames) {
		return occurrenceNames[f]
	}
	return "Unknown Occurrence"
}

// SelectionControl is P2 b4-b3.
type SelectionControl byte

const (
	ReturnFCI    SelectionControl = 0b0000_00_00
	ReturnFCP    SelectionControl = 0b0000_01_00
	ReturnFMD    SelectionControl = 0b0000_10_00
	ReturnNoData SelectionControl = 0b0000_11_00
)

var controlNames = [...]string{"Return FCI", "Return FCP", "Return FMD", "No Response Data"}

func (s SelectionControl) String() string {
	if s&^0b0000_11_00 == 0 {
		return controlNames[s>>2]
	}
	return "Unknown Control"
}

// SplitP2 extracts occurrence and response control from a SELECT P2.
func SplitP2(p2 byte) (FileOccurrence, SelectionControl) {
	return FileOccurrence(p2 & 0b0000_00_11), SelectionControl(p2 & 0b0000_11_00)
}

// NewSelectCommand creates a generic SELECT command.
func NewSelectCommand(
	cla Class,
	method SelectionMethod,
	occurrence FileOccurrence,
	ctrl SelectionControl,
	data []byte,
) *CommandAPDU {
	p2 := byte(ctrl) | byte(occurrence)
	ins, _ := NewInstruction(INS_SELECT)

	// Case 3 leaves Le out for T=0 cards, which answer '61 XX' instead.
	// WithNe turns it into case 4 when the card expects it.
	ne := 0
	if len(data) == 0 && ctrl != ReturnNoData {
		ne = MaxShortLe
	}

	return NewCommandAPDU(cla, ins, byte(method), p2, data, ne)
}

// SelectByAID creates a simplified SELECT command to select an application by its name (AID).
func SelectByAID(cla Class, aid []byte) *CommandAPDU {
	return NewSelectCommand(
		cla,
		SelectByDFName,
		FirstOrOnlyOccurrence,
		ReturnFCI,
		aid,
	)
}

// SelectApplication selects an application by AID and requests its FCI.
// Unlike SelectByAID the command carries Le='00' (case 4), as eVRC cards expect.
func SelectApplication(cla Class, aid []byte) *CommandAPDU {
	return SelectByAID(cla, aid).WithNe(MaxShortLe)
}

// SelectFileByID selects an EF under the current DF by its 2-byte identifier and
// requests its FCP template (P1='02', P2='04', Le='00').
func SelectFileByID(cla Class, fileID uint16) *CommandAPDU {
	return NewSelectCommand(
		cla,
		SelectEFUnderCurrentDF,
		FirstOrOnlyOccurrence,
		ReturnFCP,
		[]byte{byte(fileID >> 8), byte(fileID)},
	).WithNe(MaxShortLe)
}
