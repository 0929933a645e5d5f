package iso7816

import (
	"fmt"
	"strings"
)

// describeStatus renders the "+ Result:" line shared by the command reports.
func describeStatus(sw StatusWord) string {
	resultMsg := "[OK]"
	resultDesc := sw.String()

	switch {
	case sw.SW1() == 0x61:
		resultDesc = fmt.Sprintf("%02X (%d) bytes still available", sw.SW2(), sw.SW2())
	case sw.SW1() == 0x6C:
		resultMsg = "[!!]"
		resultDesc = fmt.Sprintf("Wrong length, correct is %02X (%d)", sw.SW2(), sw.SW2())
	case sw != SW_NO_ERROR:
		resultMsg = "[!!]"
		resultDesc = sw.Verbose()
	}

	return fmt.Sprintf("    + Result:  [%02X %02X] %s %s", sw.SW1(), sw.SW2(), resultMsg, resultDesc)
}

// describeFollowUp writes the "[2] Protocol" section when the card answered
// with 61XX or 6CXX and the client chained further commands.
func describeFollowUp(sb *strings.Builder, t Trace) {
	if len(t) < 2 {
		return
	}
	last := t.Last()

	action := last.Command.Instruction.Raw.String()
	if last.Command.Instruction.Raw == t[0].Command.Instruction.Raw {
		action = fmt.Sprintf("RE-SEND %s with Le %d", action, last.Command.Ne)
	}

	fmt.Fprintf(sb, "[2] Protocol: Auto-handling (%d steps)\n", len(t))
	fmt.Fprintf(sb, "    + Action:  %s\n", action)
	sb.WriteString(describeStatus(last.Response.Status) + "\n")
	if n := len(last.Response.Data); n > 0 {
		fmt.Fprintf(sb, "    + Payload: %d bytes received\n", n)
	}
	sb.WriteString("\n")
}
