package main

import (
	"github.com/gregLibert/evrc-reader/pkg/evrc"
	"github.com/gregLibert/evrc-reader/pkg/pcsc"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Read every card inserted in a reader until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContext(func(pc pcsc.Context) error {
				reader := a.cfg.Reader
				if reader == "" {
					readers, err := pcsc.Readers(pc)
					if err != nil {
						return err
					}
					reader = readers[0]
				}

				log := a.log.WithField("reader", reader)
				log.Info("waiting for cards")

				return pcsc.Watch(cmd.Context(), pc, reader, func(reader string) error {
					card, _, err := pcsc.Connect(pc, reader)
					if err != nil {
						log.WithError(err).Warn("cannot connect to card")
						return nil
					}
					defer pcsc.Disconnect(card)

					reg, err := evrc.NewSession(card, a.cfg.session(log)).Read()
					if err != nil {
						log.WithError(err).Warn("card skipped")
						return nil
					}
					return writeRegistration(cmd.OutOrStdout(), a.cfg.Output, reg)
				})
			})
		},
	}
}
