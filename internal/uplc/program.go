package uplc

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Program is a parsed flat-encoded UPLC program. The body term is kept
// as an opaque bit range into the original encoding; only its extent
// matters for the rewrites the toolchain performs.
type Program struct {
	Version [3]uint64

	raw       []byte
	bodyStart int // bit offset of the body term
	bodyBits  int
}

// Parse decodes the program envelope: the three version naturals, the
// body term (skipped, not interpreted) and the trailing filler.
func Parse(raw []byte) (*Program, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("uplc: empty program")
	}
	r := &bitReader{data: raw}
	p := &Program{raw: raw}
	for i := range p.Version {
		v, err := r.readNatural()
		if err != nil {
			return nil, fmt.Errorf("uplc: read version: %w", err)
		}
		p.Version[i] = v
	}
	p.bodyStart = r.pos
	if err := skipTerm(r); err != nil {
		return nil, fmt.Errorf("uplc: parse body: %w", err)
	}
	p.bodyBits = r.pos - p.bodyStart
	if err := r.readFiller(); err != nil {
		return nil, fmt.Errorf("uplc: trailing filler: %w", err)
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("uplc: %d byte(s) after program end", r.remaining()/8)
	}
	return p, nil
}

// VersionString renders the program version as e.g. "1.0.0".
func (p *Program) VersionString() string {
	return fmt.Sprintf("%d.%d.%d", p.Version[0], p.Version[1], p.Version[2])
}

// Encode re-serializes the program unchanged.
func (p *Program) Encode() ([]byte, error) {
	w := &bitWriter{}
	for _, v := range p.Version {
		w.writeNatural(v)
	}
	w.copyBits(p.raw, p.bodyStart, p.bodyBits)
	w.writeFiller()
	return w.bytes()
}

// ApplyData returns a new program whose body is the old body applied to
// a data constant: body' = [body (con data d)]. The argument is the CBOR
// serialization of the Plutus data value and is validated for
// well-formedness before splicing.
func (p *Program) ApplyData(dataCBOR []byte) (*Program, error) {
	if err := cbor.Wellformed(dataCBOR); err != nil {
		return nil, fmt.Errorf("uplc: parameter is not well-formed CBOR: %w", err)
	}
	w := &bitWriter{}
	for _, v := range p.Version {
		w.writeNatural(v)
	}
	w.writeBits(tagApply, 4)
	w.copyBits(p.raw, p.bodyStart, p.bodyBits)
	w.writeBits(tagConst, 4)
	w.writeBit(1)
	w.writeBits(typeData, 4)
	w.writeBit(0)
	w.writeChunks(dataCBOR)
	w.writeFiller()
	raw, err := w.bytes()
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// DescribeData classifies the top-level shape of a CBOR-encoded Plutus
// data value for error messages and logs: constr, map, list, int or
// bytes.
func DescribeData(dataCBOR []byte) (string, error) {
	if err := cbor.Wellformed(dataCBOR); err != nil {
		return "", fmt.Errorf("uplc: not well-formed CBOR: %w", err)
	}
	if len(dataCBOR) == 0 {
		return "", fmt.Errorf("uplc: empty data")
	}
	major := dataCBOR[0] >> 5
	switch major {
	case 0, 1:
		return "int", nil
	case 2:
		return "bytes", nil
	case 4:
		return "list", nil
	case 5:
		return "map", nil
	case 6:
		return "constr", nil
	default:
		return "", fmt.Errorf("uplc: major type %d is not Plutus data", major)
	}
}
