package iso7816

import (
	"fmt"

	"github.com/gregLibert/evrc-reader/pkg/tlv"
)

// A Transaction is one C-APDU and the R-APDU the card sent back.
//
// A Trace holds every transaction caused by one logical command. On T=0 readers
// the card may answer '61 XX' (XX bytes are waiting for a GET RESPONSE) or
// '6C XX' (re-send with Le = XX); with auto-response enabled the Client follows
// these answers and the Trace keeps the whole conversation, the outcome being
// carried by the last transaction.

// Transaction is a completed command/response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess reports whether the response carries a success status (9000 or 61XX).
// A missing response is a failure.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// String renders the exchange for logs: "00 B0 00 00 00 -> 01 02 [9000]".
func (t *Transaction) String() string {
	cmd := "<nil>"
	if t.Command != nil {
		if raw, err := t.Command.Bytes(); err == nil {
			cmd = tlv.FormatHex(raw)
		} else {
			cmd = fmt.Sprintf("<%v>", err)
		}
	}
	if t.Response == nil {
		return cmd + " -> <no response>"
	}
	if len(t.Response.Data) == 0 {
		return fmt.Sprintf("%s -> [%04X]", cmd, uint16(t.Response.Status))
	}
	return fmt.Sprintf("%s -> %s [%04X]", cmd, tlv.FormatHex(t.Response.Data), uint16(t.Response.Status))
}

// Trace is the sequence of transactions of one logical command.
type Trace []Transaction

// Last returns the final transaction, or nil for an empty trace.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess reports whether the final transaction succeeded, whatever the
// intermediate steps answered.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Result applies the strict rule of Exchange to the final transaction and returns
// the response data when its status is exactly '90 00', an *UnsuccessfulResponse
// otherwise. Data carried by intermediate '61 XX' answers is prepended in order;
// data of '6C XX' answers is dropped since the re-sent command replaces it.
func (t Trace) Result() ([]byte, error) {
	last := t.Last()
	if last == nil || last.Command == nil {
		return nil, fmt.Errorf("empty trace")
	}
	if last.Response == nil {
		raw, _ := last.Command.Bytes()
		return nil, &UnsuccessfulResponse{Command: raw}
	}

	if last.Response.Status != SW_NO_ERROR {
		raw, _ := last.Command.Bytes()
		return nil, &UnsuccessfulResponse{Command: raw, Response: last.Response.Bytes()}
	}

	var data []byte
	for _, tx := range t[:len(t)-1] {
		if tx.Response != nil && tx.Response.Status.SW1() == 0x61 {
			data = append(data, tx.Response.Data...)
		}
	}
	if data == nil {
		return last.Response.Data, nil
	}
	return append(data, last.Response.Data...), nil
}
