package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gregLibert/evrc-reader/pkg/evrc"
	"gopkg.in/yaml.v3"
)

var errUnknownFormat = errors.New("unknown output format")

var formats = map[string]struct{}{"text": {}, "json": {}, "yaml": {}}

// readerReport is one entry of a multi-reader output.
type readerReport struct {
	Reader       string             `json:"reader" yaml:"reader"`
	Registration *evrc.Registration `json:"registration,omitempty" yaml:"registration,omitempty"`
	Error        string             `json:"error,omitempty" yaml:"error,omitempty"`
}

func writeRegistration(w io.Writer, format string, reg *evrc.Registration) error {
	switch strings.ToLower(format) {
	case "json":
		return writeJSON(w, reg)
	case "yaml":
		return writeYAML(w, reg)
	case "text":
		_, err := fmt.Fprintln(w, reg.Describe())
		return err
	}
	return fmt.Errorf("%w: %q", errUnknownFormat, format)
}

func writeReports(w io.Writer, format string, reports []readerReport) error {
	switch strings.ToLower(format) {
	case "json":
		return writeJSON(w, reports)
	case "yaml":
		return writeYAML(w, reports)
	case "text":
		for _, r := range reports {
			if _, err := fmt.Fprintf(w, "### %s\n", r.Reader); err != nil {
				return err
			}
			if r.Error != "" {
				if _, err := fmt.Fprintf(w, "    (!) %s\n", r.Error); err != nil {
					return err
				}
				continue
			}
			if _, err := fmt.Fprintln(w, r.Registration.Describe()); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %q", errUnknownFormat, format)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
