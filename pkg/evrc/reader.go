package evrc

import (
	"errors"

	"github.com/gregLibert/evrc-reader/pkg/iso7816"
	"github.com/sirupsen/logrus"
)

// Reader streams the content of the selected file with READ BINARY.
type Reader struct {
	Client *iso7816.Client

	log *logrus.Entry
}

// NewReader returns a reader sending its commands through client.
func NewReader(client *iso7816.Client, log *logrus.Entry) *Reader {
	if log == nil {
		log = logger
	}
	return &Reader{Client: client, log: log}
}

// Read requests 256-byte blocks at offsets 0, 256, 512... until the offset reaches
// fileSize. The offset advances by a full block whatever the card returned.
//
// A failing READ BINARY ends the read: cards often hold less data than their FCP
// declares, so the bytes gathered so far are returned and the failure is only
// logged. Callers must not assume len(result) == fileSize.
func (r *Reader) Read(fileSize uint16) []byte {
	var data []byte

	for offset := 0; offset < int(fileSize); offset += iso7816.ReadBinaryBlockSize {
		cmd, err := iso7816.ReadBinary(iso7816.Class{}, offset)
		if err != nil {
			r.log.WithError(err).WithField("offset", offset).Debug("end of addressable data")
			break
		}

		block, err := r.Client.Exchange(cmd)
		if err != nil {
			entry := r.log.WithError(err).WithField("offset", offset)
			var failed *iso7816.UnsuccessfulResponse
			if errors.As(err, &failed) && failed.Status().IsEndOfFile() {
				entry.Debug("end of file data")
			} else {
				entry.Warn("read stopped")
			}
			break
		}
		data = append(data, block...)
	}

	return data
}
