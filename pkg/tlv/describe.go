package tlv

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// WriteStructFields writes one "    - prefix.Field (tag): value" line per set field
// of s, descending into nested structs with an extended prefix. Lines are joined
// without a trailing newline; a newline separates them from previous content.
//
// Byte slices are rendered according to their `fmt` tag, unknown packets in hex,
// other tagged values with %v.
func WriteStructFields(sb *strings.Builder, prefix string, s interface{}) {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}

	lines := fieldLines(prefix, val)
	if len(lines) == 0 {
		return
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(strings.Join(lines, "\n"))
}

var packetsType = reflect.TypeOf([]bertlv.TLV{})

func fieldLines(prefix string, val reflect.Value) []string {
	typ := val.Type()
	var lines []string

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}

		switch {
		case isByteSlice(field):
			if field.Len() > 0 {
				lines = append(lines, fmt.Sprintf("    - %s.%s: %s",
					prefix, fieldLabel(sf), formatByteValue(field.Bytes(), sf.Tag.Get("fmt"))))
			}

		case field.Type() == packetsType:
			for _, p := range field.Interface().([]bertlv.TLV) {
				lines = append(lines, fmt.Sprintf("    - %s.Unknown Tag %s: %s",
					prefix, p.Tag, strings.ToUpper(hex.EncodeToString(getPacketRawData(p)))))
			}

		case field.Kind() == reflect.String:
			if field.Len() > 0 {
				lines = append(lines, fmt.Sprintf("    - %s.%s: %s", prefix, fieldLabel(sf), field.String()))
			}

		case field.Kind() == reflect.Struct:
			lines = append(lines, fieldLines(prefix+"."+sf.Name, field)...)

		case sf.Tag.Get("tlv") != "":
			lines = append(lines, fmt.Sprintf("    - %s.%s: %v", prefix, fieldLabel(sf), field.Interface()))
		}
	}
	return lines
}

// fieldLabel is the field name followed by its tag, options stripped.
func fieldLabel(sf reflect.StructField) string {
	tag := strings.Split(sf.Tag.Get("tlv"), ",")[0]
	if tag == "" {
		return sf.Name
	}
	return fmt.Sprintf("%s (%s)", sf.Name, tag)
}

func formatByteValue(data []byte, format string) string {
	switch format {
	case "ascii":
		return fmt.Sprintf("%X (%q)", data, MakeSafeASCII(data))
	case "text":
		return fmt.Sprintf("%q", DecodeText(data))
	case "int":
		var integer int
		for _, b := range data {
			integer = (integer << 8) | int(b)
		}
		return fmt.Sprintf("%X (Dec: %d)", data, integer)
	default:
		return strings.ToUpper(hex.EncodeToString(data))
	}
}

// WriteTree writes one line per object, children indented under their parent.
// Primitive values are shown in hex followed by their printable form.
//
//	A1 (9)
//	    83 (7): 4D 41 52 54 49 4E 53 "MARTINS"
func WriteTree(sb *strings.Builder, nodes []Node, depth int) {
	for _, n := range nodes {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.Repeat("    ", depth))

		if n.IsConstructed() {
			fmt.Fprintf(sb, "%s (%d)", n.Tag, n.Length)
			WriteTree(sb, n.Children, depth+1)
			continue
		}

		fmt.Fprintf(sb, "%s (%d): %s", n.Tag, n.Length, FormatHex(n.Value))
		if len(n.Value) > 0 {
			fmt.Fprintf(sb, " %q", MakeSafeASCII(n.Value))
		}
	}
}

// MakeSafeASCII replaces every byte outside the printable ASCII range with '.'.
func MakeSafeASCII(data []byte) string {
	return strings.Map(func(r rune) rune {
		if r >= 32 && r <= 126 {
			return r
		}
		return '.'
	}, string(data))
}
