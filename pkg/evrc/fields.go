package evrc

import (
	"sort"

	"github.com/gregLibert/evrc-reader/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// Fields maps an upper-case hex tag ("9F33") to the raw value of a primitive object.
type Fields map[string][]byte

// Flatten walks the forests depth-first and collects every primitive object.
// When a tag occurs more than once, the last occurrence wins.
func Flatten(nodes ...tlv.Node) Fields {
	f := Fields{}
	f.Add(nodes...)
	return f
}

// Add flattens more nodes into f, overwriting tags already present.
func (f Fields) Add(nodes ...tlv.Node) {
	for _, n := range nodes {
		if n.IsConstructed() {
			f.Add(n.Children...)
			continue
		}
		f[n.Tag.String()] = n.Value
	}
}

// Tags returns the collected tags in ascending order.
func (f Fields) Tags() []string {
	tags := make([]string, 0, len(f))
	for t := range f {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// packets exposes the mapping as primitive packets for the struct-tag mapper.
func (f Fields) packets() []bertlv.TLV {
	packets := make([]bertlv.TLV, 0, len(f))
	for _, t := range f.Tags() {
		packets = append(packets, bertlv.TLV{Tag: t, Value: f[t]})
	}
	return packets
}
