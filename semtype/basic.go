package semtype

import (
	"fmt"
	"iter"
	"math/bits"
)

// BasicTypeCode identifies one of the basic types every value belongs to.
// Lists and mappings are split by mutability so that the read-only view of a
// type is just a bitset intersection.
type BasicTypeCode uint8

const (
	BTNil BasicTypeCode = iota
	BTBoolean
	BTInt
	BTFloat
	BTDecimal
	BTString
	BTError
	BTTypedesc
	BTHandle
	BTFunction
	BTListRO
	BTMappingRO
	BTListRW
	BTMappingRW
	// BTUndef marks an absent mapping field. It never appears in Top.
	BTUndef

	basicTypeCount
)

var basicTypeNames = [basicTypeCount]string{
	BTNil:       "nil",
	BTBoolean:   "boolean",
	BTInt:       "int",
	BTFloat:     "float",
	BTDecimal:   "decimal",
	BTString:    "string",
	BTError:     "error",
	BTTypedesc:  "typedesc",
	BTHandle:    "handle",
	BTFunction:  "function",
	BTListRO:    "list_ro",
	BTMappingRO: "mapping_ro",
	BTListRW:    "list_rw",
	BTMappingRW: "mapping_rw",
	BTUndef:     "undef",
}

func (c BasicTypeCode) String() string {
	if c >= basicTypeCount {
		return fmt.Sprintf("basic(%d)", uint8(c))
	}
	return basicTypeNames[c]
}

func (c BasicTypeCode) bit() BasicTypeBitSet {
	return 1 << c
}

// isComplex is true for the basic types whose subtypes are described by a Bdd
func (c BasicTypeCode) isComplex() bool {
	return complexMask&c.bit() != 0
}

// BasicTypeBitSet has bit i set when BasicTypeCode i is present
type BasicTypeBitSet uint32

const (
	bitNil       BasicTypeBitSet = 1 << BTNil
	bitBoolean   BasicTypeBitSet = 1 << BTBoolean
	bitInt       BasicTypeBitSet = 1 << BTInt
	bitFloat     BasicTypeBitSet = 1 << BTFloat
	bitDecimal   BasicTypeBitSet = 1 << BTDecimal
	bitString    BasicTypeBitSet = 1 << BTString
	bitError     BasicTypeBitSet = 1 << BTError
	bitTypedesc  BasicTypeBitSet = 1 << BTTypedesc
	bitHandle    BasicTypeBitSet = 1 << BTHandle
	bitFunction  BasicTypeBitSet = 1 << BTFunction
	bitListRO    BasicTypeBitSet = 1 << BTListRO
	bitMappingRO BasicTypeBitSet = 1 << BTMappingRO
	bitListRW    BasicTypeBitSet = 1 << BTListRW
	bitMappingRW BasicTypeBitSet = 1 << BTMappingRW
	bitUndef     BasicTypeBitSet = 1 << BTUndef

	complexMask  = bitFunction | bitListRO | bitMappingRO | bitListRW | bitMappingRW
	rwMask       = bitListRW | bitMappingRW
	allMask      = BasicTypeBitSet(1)<<basicTypeCount - 1
	topMask      = allMask &^ bitUndef
	readOnlyMask = topMask &^ rwMask
)

func (b BasicTypeBitSet) has(c BasicTypeCode) bool {
	return b&c.bit() != 0
}

func (b BasicTypeBitSet) count() int {
	return bits.OnesCount32(uint32(b))
}

// codes yields the codes present in b in ascending order
func (b BasicTypeBitSet) codes() iter.Seq[BasicTypeCode] {
	return func(yield func(BasicTypeCode) bool) {
		for rest := b; rest != 0; rest &= rest - 1 {
			if !yield(BasicTypeCode(bits.TrailingZeros32(uint32(rest)))) {
				return
			}
		}
	}
}

// basicTypeOps is the per-basic-type behaviour of the Bdd carried by a SemType.
// Only complex basic types have one, see BasicTypeCode.ops.
type basicTypeOps struct {
	union      func(b1, b2 Bdd) Bdd
	intersect  func(b1, b2 Bdd) Bdd
	diff       func(b1, b2 Bdd) Bdd
	complement func(b Bdd) Bdd
	isEmpty    func(tc *Context, b Bdd) bool
}

func (c BasicTypeCode) ops() basicTypeOps {
	switch c {
	case BTMappingRO:
		return basicTypeOps{
			union:      bddUnion,
			intersect:  bddIntersect,
			diff:       bddDiff,
			complement: mappingROComplement,
			isEmpty:    mappingROIsEmpty,
		}
	case BTMappingRW:
		return basicTypeOps{
			union:      bddUnion,
			intersect:  bddIntersect,
			diff:       bddDiff,
			complement: bddComplement,
			isEmpty:    mappingRWIsEmpty,
		}
	case BTListRO:
		return basicTypeOps{
			union:      bddUnion,
			intersect:  bddIntersect,
			diff:       bddDiff,
			complement: listROComplement,
			isEmpty:    listROIsEmpty,
		}
	case BTListRW:
		return basicTypeOps{
			union:      bddUnion,
			intersect:  bddIntersect,
			diff:       bddDiff,
			complement: bddComplement,
			isEmpty:    listRWIsEmpty,
		}
	case BTFunction:
		return basicTypeOps{
			union:      bddUnion,
			intersect:  bddIntersect,
			diff:       bddDiff,
			complement: bddComplement,
			isEmpty:    functionIsEmpty,
		}
	default:
		panic(fmt.Sprintf("no subtype operations for uniform basic type %s", c))
	}
}
