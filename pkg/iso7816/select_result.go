package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/evrc-reader/pkg/tlv"
)

// SelectResult wraps the trace of a SELECT exchange, GET RESPONSE steps included.
type SelectResult struct {
	Trace
}

// NewSelectResult checks that the trace starts with a SELECT (INS A4).
func NewSelectResult(t Trace) (*SelectResult, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("cannot create result from empty trace")
	}
	if ins := t[0].Command.Instruction.Raw; ins != INS_SELECT {
		return nil, fmt.Errorf("trace must start with SELECT command (got %02X)", byte(ins))
	}
	return &SelectResult{Trace: t}, nil
}

// FCI decodes the final response data according to the P2 of the first SELECT.
func (r *SelectResult) FCI() (*FileControlInfo, error) {
	data, err := r.Result()
	if err != nil {
		return nil, fmt.Errorf("selection failed, cannot parse FCI: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no response data found")
	}
	return ParseSelectData(data, r.Trace[0].Command.P2)
}

// Describe renders the request, any protocol follow-up and the decoded FCI.
func (r *SelectResult) Describe() string {
	var sb strings.Builder
	first := r.Trace[0]
	cmd := first.Command
	occ, ctrl := SplitP2(cmd.P2)

	sb.WriteString("=== SELECT COMMAND REPORT ===\n")
	sb.WriteString("[1] Command: SELECT FILE (Initial Request)\n")
	fmt.Fprintf(&sb, "    + Class:   %s\n", cmd.Class)
	fmt.Fprintf(&sb, "    + Method:  %02X -> %s\n", cmd.P1, SelectionMethod(cmd.P1))
	fmt.Fprintf(&sb, "    + Control: %02X -> %s | %s\n", cmd.P2, occ, ctrl)
	if len(cmd.Data) > 0 {
		fmt.Fprintf(&sb, "    + Data:    %X (%q)\n", cmd.Data, tlv.MakeSafeASCII(cmd.Data))
	}
	sb.WriteString(describeStatus(first.Response.Status) + "\n")
	if n := len(first.Response.Data); n > 0 {
		fmt.Fprintf(&sb, "    + Payload: %d bytes received directly\n", n)
	}
	sb.WriteString("\n")

	describeFollowUp(&sb, r.Trace)

	sb.WriteString("[=] FINAL OUTCOME:\n")
	fci, err := r.FCI()
	switch {
	case err != nil && len(r.Last().Response.Data) == 0:
		sb.WriteString("    - No Data returned to parse.\n")
		return sb.String()
	case err != nil:
		fmt.Fprintf(&sb, "    - FCI Parsing Failed: %v\n", err)
		return sb.String()
	}

	var parts []string
	var fields strings.Builder
	if fci.FCP != nil {
		parts = append(parts, "FCP")
		tlv.WriteStructFields(&fields, "FCP", fci.FCP)
	}
	if fci.FMD != nil {
		parts = append(parts, "FMD")
		tlv.WriteStructFields(&fields, "FMD", fci.FMD)
	}
	if len(fci.ProprietaryRawData) > 0 {
		parts = append(parts, "ProprietaryRaw")
	}
	if len(parts) == 0 {
		parts = append(parts, "None")
	}

	fmt.Fprintf(&sb, "    - Structure: %s\n", strings.Join(parts, " + "))
	if fields.Len() > 0 {
		sb.WriteString(fields.String() + "\n")
	}
	if len(fci.ProprietaryRawData) > 0 {
		fmt.Fprintf(&sb, "    - Proprietary:   %X\n", fci.ProprietaryRawData)
	}
	return sb.String()
}
