package main

import (
	"github.com/gregLibert/evrc-reader/pkg/evrc"
	"github.com/gregLibert/evrc-reader/pkg/iso7816"
	"github.com/gregLibert/evrc-reader/pkg/pcsc"
	"github.com/spf13/cobra"
)

func newReadCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read the registration stored on a card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				return a.readAll(cmd)
			}

			return a.withCard(func(card pcsc.Card, reader string) error {
				log := a.log.WithField("reader", reader)
				res, err := evrc.NewSession(card, a.cfg.session(log)).Collect()
				if err != nil {
					return err
				}
				for _, ferr := range res.Errors() {
					log.WithError(ferr).Debug("file skipped")
				}
				return writeRegistration(cmd.OutOrStdout(), a.cfg.Output, res.Registration)
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "read every reader holding a card, in parallel")
	return cmd
}

func (a *app) readAll(cmd *cobra.Command) error {
	return a.withContext(func(pc pcsc.Context) error {
		cards, err := pcsc.ConnectAll(pc)
		if err != nil {
			return err
		}

		transmitters := make(map[string]iso7816.Transmitter, len(cards))
		for name, card := range cards {
			defer pcsc.Disconnect(card)
			transmitters[name] = card
		}

		outcomes, err := evrc.ReadAll(cmd.Context(), transmitters, a.cfg.session(a.log))
		if err != nil {
			return err
		}

		reports := make([]readerReport, 0, len(outcomes))
		for _, o := range outcomes {
			r := readerReport{Reader: o.Reader}
			if o.Err != nil {
				r.Error = o.Err.Error()
			} else {
				r.Registration = o.Result.Registration
			}
			reports = append(reports, r)
		}
		return writeReports(cmd.OutOrStdout(), a.cfg.Output, reports)
	})
}
