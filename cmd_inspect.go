package main

import (
	"fmt"
	"io"

	"github.com/gregLibert/evrc-reader/pkg/evrc"
	"github.com/gregLibert/evrc-reader/pkg/iso7816"
	"github.com/gregLibert/evrc-reader/pkg/pcsc"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print a command report for every APDU of a read",
		Long: `inspect selects the eVRC application and each of its files, then reads the
first block of every file. Each exchange is printed as a command report with the
decoded FCI, FCP and data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCard(func(card pcsc.Card, reader string) error {
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, ">> Using reader: %s\n", reader)
				if atr, err := pcsc.ATR(card); err == nil {
					fmt.Fprintf(w, ">> ATR: %X\n\n", atr)
				}
				return inspect(w, card, a.cfg, a.log.WithField("reader", reader))
			})
		},
	}
}

func inspect(w io.Writer, card iso7816.Transmitter, cfg appConfig, log *logrus.Entry) error {
	client := iso7816.NewClient(card,
		iso7816.WithDebug(cfg.Debug),
		iso7816.WithAutoResponse(cfg.AutoResponse),
		iso7816.WithLogger(log),
	)
	cls := iso7816.Class{}

	trace, err := client.Send(iso7816.SelectApplication(cls, evrc.ApplicationID))
	if err != nil {
		return fmt.Errorf("select eVRC application: %w", err)
	}
	app, err := iso7816.NewSelectResult(trace)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, app.Describe())

	if !app.IsSuccess() {
		return fmt.Errorf("application selection failed: %s", app.Last().Response.Status.Verbose())
	}
	if fci, err := evrc.ParseApplicationFCI(app.Last().Response.Data); err == nil {
		fmt.Fprintln(w, fci.Describe())
		if !fci.IsEVRC() {
			return &evrc.UnexpectedApplicationError{Response: app.Last().Response.Data, AID: fci.DFName}
		}
	}

	for _, f := range evrc.Files {
		fmt.Fprintf(w, "\n### %s (%04X)\n", f, f.ID())

		trace, err := client.Send(iso7816.SelectFileByID(cls, f.ID()))
		if err != nil {
			return fmt.Errorf("select %s: %w", f, err)
		}
		sel, err := iso7816.NewSelectResult(trace)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, sel.Describe())
		if !sel.IsSuccess() {
			continue
		}

		readCmd, err := iso7816.ReadBinary(cls, 0)
		if err != nil {
			return err
		}
		trace, err = client.Send(readCmd)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		rb, err := iso7816.NewReadBinaryResult(trace)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, rb.Describe())
	}
	return nil
}
