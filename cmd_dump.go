package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gregLibert/evrc-reader/pkg/evrc"
	"github.com/gregLibert/evrc-reader/pkg/pcsc"
	"github.com/spf13/cobra"
)

// dumpExt is appended to the file name of each dumped EF.
const dumpExt = ".data"

func newDumpCmd(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the raw content of every eVRC file to a directory",
		Long: `dump selects the eVRC application and writes FSOd.data, RegistrationA.data,
RegistrationB.data and RegistrationC.data. Files the card refuses are skipped.
The dumps can be decoded later with "evrc decode".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCard(func(card pcsc.Card, reader string) error {
				log := a.log.WithField("reader", reader)
				res, err := evrc.NewSession(card, a.cfg.session(log)).ReadFiles(evrc.Files...)
				if err != nil {
					return err
				}

				written, err := writeDump(dir, res)
				if err != nil {
					return err
				}
				for _, path := range written {
					fmt.Fprintln(cmd.OutOrStdout(), path)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "destination directory")
	return cmd
}

// writeDump stores each file read successfully and returns the paths written.
func writeDump(dir string, res *evrc.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	var written []string
	for _, f := range res.Files {
		if f.Err != nil {
			continue
		}
		path := filepath.Join(dir, f.File.String()+dumpExt)
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
