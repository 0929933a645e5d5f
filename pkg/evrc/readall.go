package evrc

import (
	"context"
	"sort"

	"github.com/gregLibert/evrc-reader/pkg/iso7816"
	"golang.org/x/sync/errgroup"
)

// ReaderOutcome is the result of one session run by ReadAll.
type ReaderOutcome struct {
	Reader string
	Result *Result
	Err    error
}

// ReadAll runs one independent session per card, concurrently. A failing card
// never affects the others: errors are reported per reader and ReadAll itself
// only fails when ctx is done before a session could start.
//
// Outcomes are sorted by reader name.
func ReadAll(ctx context.Context, cards map[string]iso7816.Transmitter, cfg Config) ([]ReaderOutcome, error) {
	names := make([]string, 0, len(cards))
	for name := range cards {
		names = append(names, name)
	}
	sort.Strings(names)

	outcomes := make([]ReaderOutcome, len(names))
	g, ctx := errgroup.WithContext(ctx)

	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = ReaderOutcome{Reader: name, Err: err}
				return err
			}

			sessionCfg := cfg
			if sessionCfg.Logger == nil {
				sessionCfg.Logger = logger
			}
			sessionCfg.Logger = sessionCfg.Logger.WithField("reader", name)

			res, err := NewSession(cards[name], sessionCfg).Collect()
			if err != nil {
				sessionCfg.Logger.WithError(err).Warn("session failed")
			}
			outcomes[i] = ReaderOutcome{Reader: name, Result: res, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}
