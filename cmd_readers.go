package main

import (
	"fmt"

	"github.com/gregLibert/evrc-reader/pkg/pcsc"
	"github.com/spf13/cobra"
)

func newReadersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "readers",
		Short: "List the PC/SC readers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContext(func(pc pcsc.Context) error {
				readers, err := pcsc.Readers(pc)
				if err != nil {
					return err
				}
				for _, r := range readers {
					fmt.Fprintln(cmd.OutOrStdout(), r)
				}
				return nil
			})
		},
	}
}
