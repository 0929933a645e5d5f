package tlv

import "github.com/moov-io/bertlv"

// ToBERTLV converts decoded nodes into moov-io/bertlv packets, the representation
// consumed by the struct-tag mapper and the report writers.
func ToBERTLV(nodes []Node) []bertlv.TLV {
	packets := make([]bertlv.TLV, 0, len(nodes))
	for _, n := range nodes {
		p := bertlv.TLV{Tag: n.Tag.String()}
		if n.IsConstructed() {
			p.TLVs = ToBERTLV(n.Children)
		} else {
			p.Value = n.Value
		}
		packets = append(packets, p)
	}
	return packets
}
