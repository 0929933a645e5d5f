package iso7816

import (
	"fmt"
	"strings"

	"github.com/gregLibert/evrc-reader/pkg/tlv"
)

// ReadBinaryResult represents the outcome of a READ BINARY command execution.
type ReadBinaryResult struct {
	Trace
}

// NewReadBinaryResult checks that the trace starts with a READ BINARY (INS B0).
func NewReadBinaryResult(t Trace) (*ReadBinaryResult, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("cannot create result from empty trace")
	}

	if t[0].Command.Instruction.Raw != INS_READ_BINARY {
		return nil, fmt.Errorf("trace must start with READ BINARY command (got %02X)", byte(t[0].Command.Instruction.Raw))
	}

	return &ReadBinaryResult{Trace: t}, nil
}

// Data returns the bytes read, GET RESPONSE chunks included, or nil when the
// read did not end with '90 00'.
func (r *ReadBinaryResult) Data() []byte {
	data, err := r.Result()
	if err != nil {
		return nil
	}
	return data
}

// Describe generates a detailed, ASCII-formatted report of the read operation.
func (r *ReadBinaryResult) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== READ BINARY COMMAND REPORT ===\n")

	tx0 := r.Trace[0]
	cmd := tx0.Command

	sb.WriteString("[1] Command: READ BINARY\n")
	sb.WriteString(fmt.Sprintf("    + Class:   %s\n", cmd.Class))

	if cmd.P1&0x80 != 0 {
		sfi := cmd.P1 & 0x1F
		sb.WriteString(fmt.Sprintf("    + Target:  SFI %02X (%d)\n", sfi, sfi))
		sb.WriteString(fmt.Sprintf("    + Offset:  %02X (%d)\n", cmd.P2, cmd.P2))
	} else {
		offset := int(cmd.P1)<<8 | int(cmd.P2)
		sb.WriteString("    + Target:  Current EF\n")
		sb.WriteString(fmt.Sprintf("    + Offset:  %04X (%d)\n", offset, offset))
	}
	sb.WriteString(fmt.Sprintf("    + Le:      %d\n", cmd.Ne))
	sb.WriteString(describeStatus(tx0.Response.Status) + "\n")
	sb.WriteString("\n")

	describeFollowUp(&sb, r.Trace)

	finalPayload := r.Data()
	if finalPayload == nil {
		finalPayload = r.Last().Response.Data
	}

	sb.WriteString("[=] DATA OUTCOME:\n")
	if len(finalPayload) > 0 {
		sb.WriteString(fmt.Sprintf("    + Length: %d bytes\n", len(finalPayload)))
		sb.WriteString(fmt.Sprintf("    + Dump:   %X\n", finalPayload))
		sb.WriteString(fmt.Sprintf("    + ASCII:  %q\n", tlv.MakeSafeASCII(finalPayload)))
	} else {
		sb.WriteString("    - No Data Received.\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
