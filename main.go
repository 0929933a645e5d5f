// Command evrc reads electronic Vehicle Registration Certificates from PC/SC
// smart card readers.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gregLibert/evrc-reader/pkg/pcsc"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev" // set by the linker

// app carries what the commands share once flags and configuration are resolved.
type app struct {
	cfg        appConfig
	configFile string

	// openContext connects to the PC/SC daemon.
	openContext func() (pcsc.Context, error)

	log *logrus.Entry
}

func newApp() *app {
	return &app{
		openContext: pcsc.Establish,
		log:         logrus.WithField("component", "cli"),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Each call returns fresh commands so that
// tests do not share flag state.
func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evrc",
		Short: "Read electronic Vehicle Registration Certificates from smart cards.",
		Long: `evrc selects the eVRC application of a smart card, reads its registration
files with READ BINARY and prints the decoded registration.

Configuration is read from flags, EVRC_* environment variables and an optional
.evrc.yaml file (current directory, home directory or user config directory).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return setupLogging(cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default .evrc.yaml)")
	flags.StringP("reader", "r", "", "PC/SC reader name (default: first reader)")
	flags.Bool("debug", false, "log every APDU exchanged with the card")
	flags.StringP("output", "o", "text", `output format: "text", "json" or "yaml"`)
	flags.Int("max-depth", 0, "maximum TLV nesting depth (0: default)")
	flags.Bool("check-file-id", false, "reject an FCP naming another file than the selected one")
	flags.Bool("auto-response", false, "follow 61XX and 6CXX status words (T=0 readers)")
	flags.String("log-level", "info", "log level: panic, fatal, error, warn, info, debug, trace")
	flags.String("log-format", "text", `log format: "text" or "json"`)

	cmd.AddCommand(
		newReadCmd(a),
		newDumpCmd(a),
		newDecodeCmd(a),
		newInspectCmd(a),
		newReadersCmd(a),
		newWatchCmd(a),
	)
	return cmd
}

// withContext runs fn with an established PC/SC context.
func (a *app) withContext(fn func(pc pcsc.Context) error) error {
	pc, err := a.openContext()
	if err != nil {
		return err
	}
	defer pcsc.Release(pc)
	return fn(pc)
}

// withCard runs fn with the card of the configured reader.
func (a *app) withCard(fn func(card pcsc.Card, reader string) error) error {
	return a.withContext(func(pc pcsc.Context) error {
		card, reader, err := pcsc.Connect(pc, a.cfg.Reader)
		if err != nil {
			return err
		}
		defer pcsc.Disconnect(card)
		return fn(card, reader)
	})
}
