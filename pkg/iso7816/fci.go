package iso7816

import (
	"fmt"

	"github.com/gregLibert/evrc-reader/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// File control information returned by SELECT (ISO/IEC 7816-4 clause 7.4):
//
//	'6F' FCI  optional wrapper holding an FCP and/or an FMD, or their objects flat
//	'62' FCP  technical attributes (size, identifier, descriptor, security)
//	'64' FMD  administrative data (application identifier, label)
//
// P2 b4-b3 of the SELECT command tells which of them the card answers with.

// Template tags.
const (
	tagFCI tlv.Tag = 0x6F
	tagFCP tlv.Tag = 0x62
	tagFMD tlv.Tag = 0x64
)

// FCPTemplate (File Control Parameters) - Tag '62'.
type FCPTemplate struct {
	DataSizeExcludingStruct []byte `tlv:"80" fmt:"int"`
	TotalFileSize           []byte `tlv:"81" fmt:"int"`
	FileDescriptor          []byte `tlv:"82"`
	FileIdentifier          []byte `tlv:"83"`
	DFName                  []byte `tlv:"84" fmt:"ascii"`
	ProprietaryInfoRaw      []byte `tlv:"85"`
	SecurityAttrProprietary []byte `tlv:"86"`
	ExtFileControlInfoID    []byte `tlv:"87"`
	ShortEFIdentifier       []byte `tlv:"88"`
	LifeCycleStatus         []byte `tlv:"8A"`
	SecAttrRefExpanded      []byte `tlv:"8B"`
	SecurityAttrCompact     []byte `tlv:"8C"`
	SecEnvTemplateID        []byte `tlv:"8D"`
	ChannelSecurityAttr     []byte `tlv:"8E"`
	SecAttrTemplateData     []byte `tlv:"A0"`
	SecAttrTemplateProp     []byte `tlv:"A1"`
	OneOrMorePairs          []byte `tlv:"A2"`
	ProprietaryDataBER      []byte `tlv:"A5"`
	SecurityAttrExpanded    []byte `tlv:"AB"`
	CryptoMechanismID       []byte `tlv:"AC"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// FileSize returns the number of data bytes of a transparent EF (tag '80'),
// or the total file size (tag '81') when '80' is absent.
func (fcp *FCPTemplate) FileSize() (int, bool) {
	size := fcp.DataSizeExcludingStruct
	if len(size) == 0 {
		size = fcp.TotalFileSize
	}
	if len(size) == 0 {
		return 0, false
	}

	n := 0
	for _, b := range size {
		n = n<<8 | int(b)
	}
	return n, true
}

// ParseFCP maps the children of an FCP template node ('62') into an FCPTemplate.
func ParseFCP(node tlv.Node) (*FCPTemplate, error) {
	if node.Tag != tagFCP {
		return nil, fmt.Errorf("expected FCP template '62', got '%s'", node.Tag)
	}

	fcp := &FCPTemplate{}
	if err := tlv.UnmarshalNodes(node.Children, fcp); err != nil {
		return nil, err
	}
	return fcp, nil
}

// FMDTemplate (File Management Data) - Tag '64'.
type FMDTemplate struct {
	ApplicationIdentifier []byte `tlv:"84" fmt:"ascii"`
	ApplicationLabel      []byte `tlv:"50" fmt:"ascii"`
	ProprietaryData53     []byte `tlv:"53"`
	ProprietaryData73     []byte `tlv:"73"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// FileControlInfo represents the parsed result of a SELECT command.
type FileControlInfo struct {
	FCP *FCPTemplate
	FMD *FMDTemplate

	// Unknown contains TLV tags that did not match FCP or FMD definitions
	Unknown []bertlv.TLV // (only populated in "flat" FCI parsing mode).

	ProprietaryRawData []byte
}

// GetAID attempts to retrieve the Application ID (Tag 84).
func (fci *FileControlInfo) GetAID() []byte {
	if fci.FCP != nil && len(fci.FCP.DFName) > 0 {
		return fci.FCP.DFName
	}
	if fci.FMD != nil && len(fci.FMD.ApplicationIdentifier) > 0 {
		return fci.FMD.ApplicationIdentifier
	}
	return nil
}

// DFName returns the Dedicated File Name (Tag 84) from FCP.
func (fci *FileControlInfo) DFName() []byte {
	if fci.FCP != nil {
		return fci.FCP.DFName
	}
	return nil
}

// ApplicationLabel returns the Application Label (Tag 50) from FMD.
func (fci *FileControlInfo) ApplicationLabel() []byte {
	if fci.FMD != nil {
		return fci.FMD.ApplicationLabel
	}
	return nil
}

// ParseSelectData interprets the data field of a SELECT response according to the
// response control bits of p2. Data starting with a tag from 'C0' up is not
// interindustry and is kept raw.
func ParseSelectData(data []byte, p2 byte) (*FileControlInfo, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] >= 0xC0 {
		return &FileControlInfo{ProprietaryRawData: data}, nil
	}

	nodes, err := tlv.ParseAll(data)
	if err != nil {
		return nil, fmt.Errorf("BER-TLV decode failed: %w", err)
	}

	fci := &FileControlInfo{
		FCP: &FCPTemplate{},
		FMD: &FMDTemplate{},
	}

	_, ctrl := SplitP2(p2)
	switch ctrl {
	case ReturnFCP:
		return fci, mandatoryTemplate(nodes, tagFCP, fci.FCP)

	case ReturnFMD:
		return fci, mandatoryTemplate(nodes, tagFMD, fci.FMD)

	case ReturnFCI:
		if wrapper, ok := tlv.First(nodes, tagFCI); ok {
			nodes = wrapper.Children
		}

		foundFCP, err := mapTemplate(nodes, tagFCP, fci.FCP)
		if err != nil {
			return nil, err
		}
		foundFMD, err := mapTemplate(nodes, tagFMD, fci.FMD)
		if err != nil {
			return nil, err
		}
		if foundFCP || foundFMD {
			return fci, nil
		}

		// Flat FCI: FCP objects first, the rest is offered to the FMD.
		if err := tlv.UnmarshalNodes(nodes, fci.FCP); err != nil {
			return nil, fmt.Errorf("flat FCP unmarshal failed: %w", err)
		}
		rest := fci.FCP.Unknown
		fci.FCP.Unknown = nil

		if err := tlv.UnmarshalFromPackets(rest, fci.FMD); err != nil {
			return nil, fmt.Errorf("flat FMD unmarshal failed: %w", err)
		}
		fci.Unknown = fci.FMD.Unknown
		fci.FMD.Unknown = nil
		return fci, nil

	default:
		return nil, nil
	}
}

func mandatoryTemplate(nodes []tlv.Node, tag tlv.Tag, target interface{}) error {
	found, err := mapTemplate(nodes, tag, target)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("mandatory tag '%s' not found", tag)
	}
	return nil
}

func mapTemplate(nodes []tlv.Node, tag tlv.Tag, target interface{}) (bool, error) {
	n, ok := tlv.First(nodes, tag)
	if !ok {
		return false, nil
	}
	if err := tlv.UnmarshalNodes(n.Children, target); err != nil {
		return true, fmt.Errorf("template '%s': %w", tag, err)
	}
	return true, nil
}
