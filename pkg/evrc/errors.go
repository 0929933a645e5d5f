package evrc

import (
	"errors"
	"fmt"

	"github.com/gregLibert/evrc-reader/pkg/tlv"
)

var (
	// ErrExpectedConstructedValue is returned when the FCP template does not hold nested objects.
	ErrExpectedConstructedValue = errors.New("expected a constructed value")

	// ErrFileIDMismatch is returned when tag '83' of the FCP names another file.
	ErrFileIDMismatch = errors.New("file identifier mismatch")
)

// UnexpectedApplicationError is returned when the card answers the application
// selection with anything but the eVRC FCI. No registration is produced.
type UnexpectedApplicationError struct {
	Response []byte

	// AID is the DF name found in the response, if any.
	AID []byte

	// Err is the refusal of the card (*iso7816.UnsuccessfulResponse), if any.
	Err error
}

func (e *UnexpectedApplicationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("not an eVRC card: %v", e.Err)
	}
	if len(e.AID) > 0 {
		return fmt.Sprintf("not an eVRC card: application %X (%q) answered",
			e.AID, tlv.MakeSafeASCII(e.AID))
	}
	return fmt.Sprintf("not an eVRC card: unexpected response [%s]", tlv.FormatHex(e.Response))
}

func (e *UnexpectedApplicationError) Unwrap() error {
	return e.Err
}

// UnexpectedTagError is returned when a TLV carries another tag than required.
type UnexpectedTagError struct {
	Expected tlv.Tag
	Actual   tlv.Tag
}

func (e *UnexpectedTagError) Error() string {
	return fmt.Sprintf("unexpected tag '%s', expected '%s'", e.Actual, e.Expected)
}

// MissingFieldError is returned when a mandatory child object is absent.
type MissingFieldError struct {
	Tag tlv.Tag
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field '%s'", e.Tag)
}

// InvalidFieldLengthError is returned when a fixed-size field has another length.
type InvalidFieldLengthError struct {
	Tag      tlv.Tag
	Expected int
	Actual   int
}

func (e *InvalidFieldLengthError) Error() string {
	return fmt.Sprintf("field '%s' is %d bytes long, expected %d", e.Tag, e.Actual, e.Expected)
}

// FileError reports a failure confined to one file. The session goes on with the
// other files.
type FileError struct {
	File File
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.File, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
