package iso7816

import (
	"bytes"
	"fmt"

	"github.com/gregLibert/evrc-reader/pkg/tlv"
	"github.com/sirupsen/logrus"
)

// CLIENT & PROTOCOL LOGIC:
// The Client acts as a driver over the physical connection. A card channel is
// half-duplex: every exchange blocks until the card answers, and one Client must
// never be shared by two goroutines.
//
// Exchange() is the strict path. A command succeeds only when the card answers
// '90 00'; the data field is returned without the trailer. Any other trailer is an
// *UnsuccessfulResponse, and a failing Transmitter is a *TransportError.
//
// Send() is the diagnostic path. It returns a Trace and, when auto-response is
// enabled, implements the ISO 7816-3 transport behaviors that T=0 readers often
// expose to the application layer:
//
// 1. "61 XX" (Response Available):
//    The card indicates that XX bytes are waiting. The client automatically generates
//    and sends a GET RESPONSE command to retrieve them.
//
// 2. "6C XX" (Wrong Length):
//    The card indicates that the expected length (Le) was incorrect and suggests XX.
//    The client automatically re-sends the original command with Le = XX.

var logger = logrus.WithField("component", "iso7816")

// Transmitter abstracts the physical card connection. Command and response bytes
// must be passed through unchanged, response trailer included.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Option configures a Client.
type Option func(*Client)

// WithDebug logs every command and response at debug level.
func WithDebug(enabled bool) Option {
	return func(c *Client) { c.debug = enabled }
}

// WithAutoResponse lets Exchange follow '61XX' and '6CXX' answers instead of
// reporting them as unsuccessful.
func WithAutoResponse(enabled bool) Option {
	return func(c *Client) { c.autoResponse = enabled }
}

// WithLogger replaces the package logger.
func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// Client manages the communication with the card.
type Client struct {
	Card Transmitter

	debug        bool
	autoResponse bool
	log          *logrus.Entry
}

// NewClient creates a new Client instance.
func NewClient(card Transmitter, opts ...Option) *Client {
	c := &Client{Card: card, log: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Exchange sends cmd and returns the response data field.
func (c *Client) Exchange(cmd *CommandAPDU) ([]byte, error) {
	if !c.autoResponse {
		raw, err := cmd.Bytes()
		if err != nil {
			return nil, fmt.Errorf("encoding error: %w", err)
		}
		return c.ExchangeRaw(raw)
	}

	trace, err := c.Send(cmd)
	if err != nil {
		return nil, err
	}
	return trace.Result()
}

// ExchangeRaw sends an already encoded command and returns the response data field.
func (c *Client) ExchangeRaw(command []byte) ([]byte, error) {
	rawResp, err := c.transmit(command)
	if err != nil {
		return nil, err
	}

	n := len(rawResp)
	if n < 2 || !bytes.Equal(rawResp[n-2:], []byte{0x90, 0x00}) {
		return nil, &UnsuccessfulResponse{Command: command, Response: rawResp}
	}
	return rawResp[:n-2], nil
}

// maxAutoResponses bounds the GET RESPONSE / re-send chain of a single Send.
const maxAutoResponses = 16

// Send transmits a command and records every transaction in a Trace.
// With auto-response enabled, 61XX and 6CXX answers are followed.
func (c *Client) Send(cmd *CommandAPDU) (Trace, error) {
	return c.send(cmd, 0)
}

func (c *Client) send(cmd *CommandAPDU, step int) (Trace, error) {
	rawCmd, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	rawResp, err := c.transmit(rawCmd)
	if err != nil {
		return nil, err
	}

	resp, err := ParseResponseAPDU(rawResp)
	if err != nil {
		return nil, &UnsuccessfulResponse{Command: rawCmd, Response: rawResp}
	}

	trace := Trace{{Command: cmd, Response: resp}}
	if !c.autoResponse {
		return trace, nil
	}
	if step >= maxAutoResponses {
		return trace, fmt.Errorf("auto-response chain longer than %d steps", maxAutoResponses)
	}

	sw1 := resp.Status.SW1()
	sw2 := resp.Status.SW2()

	var next *CommandAPDU
	switch sw1 {
	case 0x61:
		// GET RESPONSE must use the same logical channel as the original command.
		ins, _ := NewInstruction(INS_GET_RESPONSE)
		ne := int(sw2)
		if ne == 0 {
			ne = MaxShortLe
		}
		next = NewCommandAPDU(cmd.Class.Unchained(), ins, 0x00, 0x00, nil, ne)

	case 0x6C:
		ne := int(sw2)
		if ne == 0 {
			ne = MaxShortLe
		}
		next = cmd.WithNe(ne)

	default:
		return trace, nil
	}

	subTrace, err := c.send(next, step+1)
	if err != nil {
		return trace, err
	}
	return append(trace, subTrace...), nil
}

func (c *Client) transmit(command []byte) ([]byte, error) {
	if c.debug {
		c.log.WithField("apdu", tlv.FormatHex(command)).Debug("sending command")
	}

	resp, err := c.Card.Transmit(command)
	if err != nil {
		return nil, &TransportError{Command: command, Err: err}
	}

	if c.debug {
		c.log.WithField("apdu", tlv.FormatHex(resp)).Debug("received response")
	}
	return resp, nil
}
