package evrc

import (
	"encoding/binary"
	"fmt"

	"github.com/gregLibert/evrc-reader/pkg/iso7816"
	"github.com/gregLibert/evrc-reader/pkg/tlv"
	"github.com/sirupsen/logrus"
)

const (
	tagFCP      tlv.Tag = 0x62
	tagFileSize tlv.Tag = 0x80
	tagFileID   tlv.Tag = 0x83
)

// FcpTemplate is what the card tells about a selected file.
type FcpTemplate struct {
	// FileSize is the number of data bytes of the file (tag '80').
	FileSize uint16

	// FileID is the identifier echoed by the card (tag '83'), nil when absent.
	FileID []byte

	// Details holds every FCP parameter mapped by tag.
	Details *iso7816.FCPTemplate
}

// ParseFcpTemplate decodes the FCP returned by SELECT. The response must start
// with a constructed '62' object holding a 2-byte '80' child.
func ParseFcpTemplate(data []byte) (FcpTemplate, error) {
	node, consumed, err := tlv.Parse(data)
	if err != nil {
		return FcpTemplate{}, fmt.Errorf("decode FCP: %w", err)
	}
	if consumed < len(data) {
		logger.WithField("remaining", len(data)-consumed).Warn("data remaining after the FCP template")
	}
	return fcpFromNode(node)
}

func fcpFromNode(node tlv.Node) (FcpTemplate, error) {
	if node.Tag != tagFCP {
		return FcpTemplate{}, &UnexpectedTagError{Expected: tagFCP, Actual: node.Tag}
	}
	if !node.IsConstructed() {
		return FcpTemplate{}, ErrExpectedConstructedValue
	}

	size, ok := node.Find(tagFileSize)
	if !ok {
		return FcpTemplate{}, &MissingFieldError{Tag: tagFileSize}
	}
	if len(size.Value) != 2 {
		return FcpTemplate{}, &InvalidFieldLengthError{Tag: tagFileSize, Expected: 2, Actual: len(size.Value)}
	}

	fcp := FcpTemplate{FileSize: binary.BigEndian.Uint16(size.Value)}
	if id, ok := node.Find(tagFileID); ok {
		fcp.FileID = id.Value
	}

	details, err := iso7816.ParseFCP(node)
	if err != nil {
		return FcpTemplate{}, err
	}
	fcp.Details = details

	return fcp, nil
}

// CheckFile verifies that the identifier echoed in tag '83', when present, is the
// one of file.
func (f FcpTemplate) CheckFile(file File) error {
	if f.FileID == nil {
		return nil
	}

	got, err := FileFromID(f.FileID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileIDMismatch, err)
	}
	if got != file {
		return fmt.Errorf("%w: selected %s, card answered for %s", ErrFileIDMismatch, file, got)
	}
	return nil
}

// Selector selects the eVRC files and decodes their FCP.
type Selector struct {
	Client *iso7816.Client

	// CheckFileID rejects an FCP whose tag '83' names another file.
	CheckFileID bool

	log *logrus.Entry
}

// NewSelector returns a selector sending its commands through client.
func NewSelector(client *iso7816.Client, log *logrus.Entry) *Selector {
	if log == nil {
		log = logger
	}
	return &Selector{Client: client, log: log}
}

// Select sends '00 A4 02 04 02 idHi idLo 00' and returns the decoded FCP.
func (s *Selector) Select(file File) (FcpTemplate, error) {
	data, err := s.Client.Exchange(iso7816.SelectFileByID(iso7816.Class{}, file.ID()))
	if err != nil {
		return FcpTemplate{}, err
	}

	fcp, err := ParseFcpTemplate(data)
	if err != nil {
		return FcpTemplate{}, err
	}

	if s.CheckFileID {
		if err := fcp.CheckFile(file); err != nil {
			return FcpTemplate{}, err
		}
	}

	s.log.WithFields(logrus.Fields{"file": file, "size": fcp.FileSize}).Debug("file selected")
	return fcp, nil
}
