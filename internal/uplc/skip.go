package uplc

import "fmt"

// Term tags from the flat encoding, 4 bits each.
const (
	tagVar     = 0
	tagDelay   = 1
	tagLam     = 2
	tagApply   = 3
	tagConst   = 4
	tagForce   = 5
	tagError   = 6
	tagBuiltin = 7
	tagConstr  = 8
	tagCase    = 9
)

// Constant type tags. Lists and pairs appear as type applications
// (tagTypeApply) over the proto tags.
const (
	typeInteger    = 0
	typeByteString = 1
	typeString     = 2
	typeUnit       = 3
	typeBool       = 4
	typeProtoList  = 5
	typeProtoPair  = 6
	tagTypeApply   = 7
	typeData       = 8
)

// constType is a decoded constant type expression.
type constType struct {
	tag  uint64
	args []constType
}

// skipTerm advances the reader past one complete term, recursing into
// subterms. It is the piece that makes parameter application sound: the
// body's exact bit extent cannot be recovered from the trailing filler
// alone, since a term may legitimately end in zero bits.
func skipTerm(r *bitReader) error {
	tag, err := r.readBits(4)
	if err != nil {
		return err
	}
	switch tag {
	case tagVar:
		return r.skipNatural()
	case tagDelay, tagLam, tagForce:
		return skipTerm(r)
	case tagApply:
		if err := skipTerm(r); err != nil {
			return err
		}
		return skipTerm(r)
	case tagConst:
		ct, err := readConstType(r)
		if err != nil {
			return err
		}
		return skipConstant(r, ct)
	case tagError:
		return nil
	case tagBuiltin:
		_, err := r.readBits(7)
		return err
	case tagConstr:
		if err := r.skipNatural(); err != nil {
			return err
		}
		return skipTermList(r)
	case tagCase:
		if err := skipTerm(r); err != nil {
			return err
		}
		return skipTermList(r)
	default:
		return fmt.Errorf("uplc: unknown term tag %d", tag)
	}
}

// skipTermList consumes a bit-prefixed list of terms: a one bit before
// each element, a zero bit to terminate.
func skipTermList(r *bitReader) error {
	for {
		more, err := r.readBit()
		if err != nil {
			return err
		}
		if more == 0 {
			return nil
		}
		if err := skipTerm(r); err != nil {
			return err
		}
	}
}

// readConstType decodes the bit-prefixed list of 4-bit type tags and
// folds the type applications back into a tree.
func readConstType(r *bitReader) (constType, error) {
	var tags []uint64
	for {
		more, err := r.readBit()
		if err != nil {
			return constType{}, err
		}
		if more == 0 {
			break
		}
		t, err := r.readBits(4)
		if err != nil {
			return constType{}, err
		}
		tags = append(tags, t)
	}
	if len(tags) == 0 {
		return constType{}, fmt.Errorf("uplc: empty constant type")
	}
	ct, rest, err := parseTypeTags(tags)
	if err != nil {
		return constType{}, err
	}
	if len(rest) != 0 {
		return constType{}, fmt.Errorf("uplc: %d trailing type tag(s)", len(rest))
	}
	return ct, nil
}

func parseTypeTags(tags []uint64) (constType, []uint64, error) {
	if len(tags) == 0 {
		return constType{}, nil, fmt.Errorf("uplc: truncated constant type")
	}
	head, rest := tags[0], tags[1:]
	switch head {
	case typeInteger, typeByteString, typeString, typeUnit, typeBool, typeData,
		typeProtoList, typeProtoPair:
		return constType{tag: head}, rest, nil
	case tagTypeApply:
		fn, rest, err := parseTypeTags(rest)
		if err != nil {
			return constType{}, nil, err
		}
		arg, rest, err := parseTypeTags(rest)
		if err != nil {
			return constType{}, nil, err
		}
		fn.args = append(fn.args, arg)
		return fn, rest, nil
	default:
		return constType{}, nil, fmt.Errorf("uplc: unknown constant type tag %d", head)
	}
}

// skipConstant advances past one constant value of the given type.
func skipConstant(r *bitReader, ct constType) error {
	switch ct.tag {
	case typeInteger:
		return r.skipNatural()
	case typeByteString, typeString, typeData:
		return r.skipChunks()
	case typeUnit:
		return nil
	case typeBool:
		_, err := r.readBit()
		return err
	case typeProtoList:
		if len(ct.args) != 1 {
			return fmt.Errorf("uplc: list type applied to %d argument(s)", len(ct.args))
		}
		for {
			more, err := r.readBit()
			if err != nil {
				return err
			}
			if more == 0 {
				return nil
			}
			if err := skipConstant(r, ct.args[0]); err != nil {
				return err
			}
		}
	case typeProtoPair:
		if len(ct.args) != 2 {
			return fmt.Errorf("uplc: pair type applied to %d argument(s)", len(ct.args))
		}
		if err := skipConstant(r, ct.args[0]); err != nil {
			return err
		}
		return skipConstant(r, ct.args[1])
	default:
		return fmt.Errorf("uplc: unsupported constant type tag %d", ct.tag)
	}
}
