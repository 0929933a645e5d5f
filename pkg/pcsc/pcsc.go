// Package pcsc connects the eVRC reader to PC/SC smart card readers.
//
// It wraps github.com/ebfe/scard behind two small interfaces, Context and Card,
// so that the rest of the module (and its tests) never depends on a running
// PC/SC daemon.
package pcsc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ebfe/scard"
	"github.com/gregLibert/evrc-reader/pkg/iso7816"
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("component", "pcsc")

var (
	// ErrNoReader is returned when no reader is attached.
	ErrNoReader = errors.New("no smart card reader found")

	// ErrUnknownReader is returned when the requested reader is not attached.
	ErrUnknownReader = errors.New("unknown reader")

	// ErrNoCard is returned when a reader reports no card after a state change.
	ErrNoCard = errors.New("no card present")
)

// DefaultPollInterval bounds each wait on the PC/SC daemon so that a canceled
// context is noticed.
const DefaultPollInterval = 500 * time.Millisecond

// Card is a connected card. *scard.Card implements it.
type Card interface {
	iso7816.Transmitter
	Status() (*scard.CardStatus, error)
	Disconnect(d scard.Disposition) error
}

// Context is a PC/SC resource manager context.
type Context interface {
	ListReaders() ([]string, error)
	Connect(reader string) (Card, error)
	GetStatusChange(states []scard.ReaderState, timeout time.Duration) error
	Release() error
}

type scardContext struct {
	ctx *scard.Context
}

// Establish opens a context on the PC/SC daemon. Release it when done.
func Establish() (Context, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish PC/SC context: %w", err)
	}
	return &scardContext{ctx: ctx}, nil
}

func (c *scardContext) ListReaders() ([]string, error) {
	return c.ctx.ListReaders()
}

func (c *scardContext) Connect(reader string) (Card, error) {
	// Force T=0 or T=1 to avoid "Parameter Incorrect" errors (Error 57)
	card, err := c.ctx.Connect(reader, scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (c *scardContext) GetStatusChange(states []scard.ReaderState, timeout time.Duration) error {
	return c.ctx.GetStatusChange(states, timeout)
}

func (c *scardContext) Release() error {
	return c.ctx.Release()
}

// Readers lists the attached readers in name order.
func Readers(ctx Context) ([]string, error) {
	readers, err := ctx.ListReaders()
	if errors.Is(err, scard.ErrNoReadersAvailable) || (err == nil && len(readers) == 0) {
		return nil, ErrNoReader
	}
	if err != nil {
		return nil, fmt.Errorf("list readers: %w", err)
	}

	sort.Strings(readers)
	return readers, nil
}

// Connect connects to the card in the named reader, or in the first reader when
// name is empty. It returns the card and the reader used.
func Connect(ctx Context, name string) (Card, string, error) {
	readers, err := Readers(ctx)
	if err != nil {
		return nil, "", err
	}

	reader := readers[0]
	if name != "" {
		reader = ""
		for _, r := range readers {
			if r == name {
				reader = r
				break
			}
		}
		if reader == "" {
			return nil, "", fmt.Errorf("%w: %q", ErrUnknownReader, name)
		}
	}

	card, err := ctx.Connect(reader)
	if err != nil {
		return nil, "", fmt.Errorf("connect to %q: %w", reader, err)
	}

	logger.WithField("reader", reader).Debug("card connected")
	return card, reader, nil
}

// ConnectAll connects to every reader holding a card. Readers that cannot be
// connected are logged and skipped.
func ConnectAll(ctx Context) (map[string]Card, error) {
	readers, err := Readers(ctx)
	if err != nil {
		return nil, err
	}

	cards := make(map[string]Card, len(readers))
	for _, r := range readers {
		card, err := ctx.Connect(r)
		if err != nil {
			logger.WithError(err).WithField("reader", r).Warn("skipping reader")
			continue
		}
		cards[r] = card
	}
	return cards, nil
}

// Disconnect leaves the card powered and logs a failure.
func Disconnect(card Card) {
	if err := card.Disconnect(scard.LeaveCard); err != nil {
		logger.WithError(err).Warn("failed to disconnect card")
	}
}

// Release releases the context and logs a failure.
func Release(ctx Context) {
	if err := ctx.Release(); err != nil {
		logger.WithError(err).Warn("failed to release context")
	}
}

// ATR returns the Answer To Reset of a connected card.
func ATR(card Card) ([]byte, error) {
	status, err := card.Status()
	if err != nil {
		return nil, fmt.Errorf("card status: %w", err)
	}
	return status.Atr, nil
}

// WaitForCard blocks until a card is present in reader or until ctx is done.
func WaitForCard(ctx context.Context, pc Context, reader string) error {
	state := scard.StateUnaware
	for {
		present, next, err := waitChange(ctx, pc, reader, state)
		if err != nil {
			return err
		}
		if present {
			return nil
		}
		state = next
	}
}

// Watch calls fn each time a card is inserted in reader, until ctx is done or fn
// returns an error. A card already present when Watch starts counts as inserted.
func Watch(ctx context.Context, pc Context, reader string, fn func(reader string) error) error {
	state := scard.StateUnaware
	wasPresent := false
	for {
		present, next, err := waitChange(ctx, pc, reader, state)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		state = next

		if present && !wasPresent {
			logger.WithField("reader", reader).Info("card inserted")
			if err := fn(reader); err != nil {
				return err
			}
		} else if !present && wasPresent {
			logger.WithField("reader", reader).Info("card removed")
		}
		wasPresent = present
	}
}

// waitChange waits for the state of reader to differ from current. It returns
// whether a card is present and the state to wait from next time.
func waitChange(ctx context.Context, pc Context, reader string, current scard.StateFlag) (bool, scard.StateFlag, error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, current, err
		}

		rs := []scard.ReaderState{{Reader: reader, CurrentState: current}}
		err := pc.GetStatusChange(rs, DefaultPollInterval)
		if errors.Is(err, scard.ErrTimeout) {
			continue
		}
		if err != nil {
			return false, current, fmt.Errorf("status change on %q: %w", reader, err)
		}

		event := rs[0].EventState &^ scard.StateChanged
		return event&scard.StatePresent != 0, event, nil
	}
}
