package iso7816

import (
	"fmt"

	"github.com/gregLibert/evrc-reader/pkg/tlv"
)

// TransportError reports a failure of the physical exchange (no card, reader
// removed, I/O error). It is never retried.
type TransportError struct {
	Command []byte
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error on [%s]: %v", tlv.FormatHex(e.Command), e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnsuccessfulResponse reports a response whose trailer is not '90 00', or a
// response too short to carry a status word. Both byte sequences are kept as sent
// and received.
type UnsuccessfulResponse struct {
	Command  []byte
	Response []byte
}

func (e *UnsuccessfulResponse) Error() string {
	if len(e.Response) < 2 {
		return fmt.Sprintf("unsuccessful response to [%s]: %d byte(s) received [%s]",
			tlv.FormatHex(e.Command), len(e.Response), tlv.FormatHex(e.Response))
	}
	return fmt.Sprintf("unsuccessful response to [%s]: %s",
		tlv.FormatHex(e.Command), e.Status().Verbose())
}

// Status returns the trailing status word, or 0 when the response is too short.
func (e *UnsuccessfulResponse) Status() StatusWord {
	if len(e.Response) < 2 {
		return 0
	}
	n := len(e.Response)
	return NewStatusWord(e.Response[n-2], e.Response[n-1])
}
