package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gregLibert/evrc-reader/pkg/evrc"
	"github.com/gregLibert/evrc-reader/pkg/tlv"
	"github.com/spf13/cobra"
)

func newDecodeCmd(a *app) *cobra.Command {
	var tree bool

	cmd := &cobra.Command{
		Use:   "decode FILE...",
		Short: "Decode dumped files into a registration",
		Long: `decode assembles a registration from files written by "evrc dump". The file
name tells which EF it holds (RegistrationA.data...). Files are merged in card
order whatever the order of the arguments.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := loadDumps(args)
			if err != nil {
				return err
			}

			dec := tlv.Decoder{MaxDepth: a.cfg.MaxDepth, SkipPadding: true}
			reg := evrc.Assemble(dec, files)

			if tree {
				var sb strings.Builder
				for _, f := range files {
					// FSOd is a signed security object, not part of the registration.
					if f.File == evrc.FSOd {
						continue
					}
					if f.Err != nil {
						fmt.Fprintf(&sb, "### %s\n    (!) %v\n", f.File, f.Err)
						continue
					}
					fmt.Fprintf(&sb, "### %s", f.File)
					tlv.WriteTree(&sb, f.Nodes, 1)
					sb.WriteString("\n")
				}
				fmt.Fprint(cmd.OutOrStdout(), sb.String())
			}

			return writeRegistration(cmd.OutOrStdout(), a.cfg.Output, &reg)
		},
	}

	cmd.Flags().BoolVar(&tree, "tree", false, "print the TLV tree of each file before the registration")
	return cmd
}

// loadDumps reads dumped files and orders them as on the card.
func loadDumps(paths []string) ([]evrc.FileResult, error) {
	files := make([]evrc.FileResult, 0, len(paths))
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		file, err := evrc.ParseFile(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, evrc.FileResult{File: file, Data: data})
	}

	sort.SliceStable(files, func(i, j int) bool { return files[i].File < files[j].File })
	return files, nil
}
