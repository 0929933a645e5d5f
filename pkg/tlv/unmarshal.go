// Package tlv decodes and encodes BER-TLV (Basic Encoding Rules - Tag-Length-Value)
// data and maps decoded objects into Go structures using struct tags.
package tlv

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// Unmarshaler allows custom types to implement their own TLV parsing logic.
type Unmarshaler interface {
	UnmarshalTLV(data []byte) error
}

// Unmarshal parses raw BER-TLV data and maps it into a target Go struct.
func Unmarshal(data []byte, target interface{}) error {
	nodes, err := ParseAll(data)
	if err != nil {
		return fmt.Errorf("tlv decode failed: %w", err)
	}
	return UnmarshalNodes(nodes, target)
}

// UnmarshalNodes maps already decoded nodes into a target struct.
func UnmarshalNodes(nodes []Node, target interface{}) error {
	return UnmarshalFromPackets(ToBERTLV(nodes), target)
}

// UnmarshalFromPackets maps a slice of bertlv.TLV objects to a target struct.
// It supports multiple occurrences of the same tag if the target field is a slice.
func UnmarshalFromPackets(packets []bertlv.TLV, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer")
	}
	v = v.Elem()
	t := v.Type()

	consumedIndices := make(map[int]bool)

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		tagConfig := fieldType.Tag.Get("tlv")

		if tagConfig == "" || tagConfig == ",unknown" || fieldType.Name == "Unknown" {
			continue
		}

		spec := parseFieldSpec(tagConfig)

		// Inline structures group fields without a TLV of their own.
		if spec.inline {
			if !isStructOrPtrToStruct(field) {
				return fmt.Errorf("field %s: inline requires a struct", fieldType.Name)
			}
			if err := UnmarshalFromPackets(packets, getTargetField(field).Interface()); err != nil {
				return fmt.Errorf("field %s: %w", fieldType.Name, err)
			}
			continue
		}

		tag, err := ParseTag(spec.tag)
		if err != nil {
			return fmt.Errorf("field %s: %w", fieldType.Name, err)
		}
		spec.tag = tag.String()

		for idx, packet := range packets {
			if strings.ToUpper(packet.Tag) == spec.tag {
				if err := mapPacketToField(packet, field, spec); err != nil {
					return fmt.Errorf("field %s (%s): %w", fieldType.Name, spec.tag, err)
				}
				consumedIndices[idx] = true
			}
		}
	}

	return handleUnknownFields(v, t, packets, consumedIndices)
}

// fieldSpec is the parsed form of a `tlv:"TAG,option..."` struct tag.
//
// Options:
//   - text:   string fields receive the value decoded as UTF-8 (invalid bytes are replaced).
//   - inline: struct fields are filled from the same packet list as their parent.
type fieldSpec struct {
	tag    string
	text   bool
	inline bool
}

func parseFieldSpec(config string) fieldSpec {
	parts := strings.Split(config, ",")
	spec := fieldSpec{tag: strings.ToUpper(strings.TrimSpace(parts[0]))}
	for _, opt := range parts[1:] {
		switch strings.TrimSpace(opt) {
		case "text":
			spec.text = true
		case "inline":
			spec.inline = true
		}
	}
	return spec
}

// mapPacketToField dispatches the TLV data to the appropriate reflection logic.
func mapPacketToField(packet bertlv.TLV, field reflect.Value, spec fieldSpec) error {
	// A slice of structs (but not []byte) grows by one element per occurrence.
	if field.Kind() == reflect.Slice && !isByteSlice(field) {
		newElem := reflect.New(field.Type().Elem()).Elem()
		if err := decodeToValue(packet, newElem, spec); err != nil {
			return err
		}
		field.Set(reflect.Append(field, newElem))
		return nil
	}

	return decodeToValue(packet, field, spec)
}

// decodeToValue handles the leaf-node decoding logic (Custom Unmarshaler, ByteSlice, Struct, etc.)
func decodeToValue(packet bertlv.TLV, field reflect.Value, spec fieldSpec) error {
	if field.CanAddr() {
		if u, ok := field.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalTLV(getPacketRawData(packet))
		}
	}

	if isByteSlice(field) {
		field.SetBytes(getPacketRawData(packet))
		return nil
	}

	// Strings receive the hex representation unless declared as text.
	if field.Kind() == reflect.String {
		if spec.text {
			field.SetString(DecodeText(getPacketRawData(packet)))
		} else {
			field.SetString(hex.EncodeToString(packet.Value))
		}
		return nil
	}

	if isStructOrPtrToStruct(field) {
		targetField := getTargetField(field)
		if len(packet.TLVs) > 0 {
			return UnmarshalFromPackets(packet.TLVs, targetField.Interface())
		}
		return Unmarshal(packet.Value, targetField.Interface())
	}

	return nil
}

func handleUnknownFields(v reflect.Value, t reflect.Type, packets []bertlv.TLV, consumed map[int]bool) error {
	unknownField, found := findUnknownField(v, t)
	if !found {
		return nil
	}

	var leftovers []bertlv.TLV
	for idx, packet := range packets {
		if !consumed[idx] {
			leftovers = append(leftovers, packet)
		}
	}

	if len(leftovers) > 0 && unknownField.CanSet() {
		unknownField.Set(reflect.ValueOf(leftovers))
	}
	return nil
}

func findUnknownField(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	for i := 0; i < v.NumField(); i++ {
		tag := t.Field(i).Tag.Get("tlv")
		if tag == ",unknown" || t.Field(i).Name == "Unknown" {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func getPacketRawData(p bertlv.TLV) []byte {
	if len(p.TLVs) > 0 {
		if enc, err := bertlv.Encode(p.TLVs); err == nil {
			return enc
		}
	}
	return p.Value
}

// GetValue scans the raw data for a top-level tag and returns its value field.
func GetValue(data []byte, tag Tag) ([]byte, error) {
	nodes, err := ParseAll(data)
	if err != nil {
		return nil, err
	}

	n, ok := First(nodes, tag)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTagNotFound, tag)
	}
	if n.IsConstructed() {
		return Encode(n.Children...), nil
	}
	return n.Value, nil
}

func isByteSlice(v reflect.Value) bool {
	return v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8
}

func isStructOrPtrToStruct(v reflect.Value) bool {
	if v.Kind() == reflect.Struct {
		return true
	}
	if v.Kind() == reflect.Ptr && v.Type().Elem().Kind() == reflect.Struct {
		return true
	}
	return false
}

func getTargetField(field reflect.Value) reflect.Value {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return field
	}
	return field.Addr()
}
