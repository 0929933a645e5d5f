package evrc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFile is returned when an identifier or a name does not match any eVRC file.
var ErrUnknownFile = errors.New("unknown eVRC file")

// File is one of the elementary files of the eVRC application.
type File int

const (
	FSOd          File = iota // document security object, 00 1D
	RegistrationA             // mandatory registration data, D0 01
	RegistrationB             // optional registration data, D0 11
	RegistrationC             // optional registration data, D0 21
)

var fileIDs = map[File]uint16{
	FSOd:          0x001D,
	RegistrationA: 0xD001,
	RegistrationB: 0xD011,
	RegistrationC: 0xD021,
}

var fileNames = map[File]string{
	FSOd:          "FSOd",
	RegistrationA: "RegistrationA",
	RegistrationB: "RegistrationB",
	RegistrationC: "RegistrationC",
}

// Files lists every file of the application in card order.
var Files = []File{FSOd, RegistrationA, RegistrationB, RegistrationC}

// RegistrationFiles lists the files holding registration data, in the order their
// fields are merged. FSOd only carries a signature and is never mapped.
var RegistrationFiles = []File{RegistrationA, RegistrationB, RegistrationC}

// ID returns the 2-byte file identifier.
func (f File) ID() uint16 {
	return fileIDs[f]
}

// IDBytes returns the file identifier as sent in SELECT.
func (f File) IDBytes() []byte {
	id := f.ID()
	return []byte{byte(id >> 8), byte(id)}
}

func (f File) String() string {
	if name, ok := fileNames[f]; ok {
		return name
	}
	return fmt.Sprintf("File(%d)", int(f))
}

// FileFromID returns the file bound to a 2-byte identifier.
func FileFromID(id []byte) (File, error) {
	if len(id) != 2 {
		return 0, fmt.Errorf("%w: identifier %X is not 2 bytes", ErrUnknownFile, id)
	}

	v := uint16(id[0])<<8 | uint16(id[1])
	for f, fid := range fileIDs {
		if fid == v {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: identifier %04X", ErrUnknownFile, v)
}

// ParseFile returns the file with the given name ("RegistrationA", case-insensitive).
func ParseFile(name string) (File, error) {
	for f, n := range fileNames {
		if strings.EqualFold(n, name) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFile, name)
}
