package semtype

import (
	"cmp"
	"fmt"
)

// Atom is the leaf of a Bdd: either a *TypeAtom pointing straight at an
// interned AtomicType, or a RecAtom naming a rec slot of an Env which may be
// filled after the atom is first used.
type Atom interface {
	fmt.Stringer
	atomIndex() int32
}

// RecAtom indexes the rec slots of one AtomKind in an Env.
// RecAtom(0) of lists and mappings is the read-only top of that kind.
type RecAtom int32

func (r RecAtom) atomIndex() int32 { return int32(r) }
func (r RecAtom) String() string   { return fmt.Sprintf("@%d", int32(r)) }

type TypeAtom struct {
	Index int32
	Type  AtomicType
}

func (t *TypeAtom) atomIndex() int32 { return t.Index }
func (t *TypeAtom) String() string   { return fmt.Sprintf("#%d", t.Index) }

// atomCmp orders every RecAtom before every TypeAtom, then by index
func atomCmp(a1, a2 Atom) int {
	_, rec1 := a1.(RecAtom)
	_, rec2 := a2.(RecAtom)
	switch {
	case rec1 && !rec2:
		return -1
	case !rec1 && rec2:
		return 1
	default:
		return cmp.Compare(a1.atomIndex(), a2.atomIndex())
	}
}

func atomHash(a Atom) uint64 {
	if _, ok := a.(RecAtom); ok {
		return uint64(uint32(a.atomIndex())) | 1<<40
	}
	return uint64(uint32(a.atomIndex()))
}

// AtomicType is the descriptor behind an atom
type AtomicType interface {
	fmt.Stringer
	Kind() AtomKind
	hash() uint64
	equal(other AtomicType) bool
	memberTypes() []SemType
}

type AtomKind uint8

const (
	KindList AtomKind = iota
	KindMapping
	KindFunction
)

func (k AtomKind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindMapping:
		return "mapping"
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// RecSlot names one rec slot of an Env
type RecSlot struct {
	Kind AtomKind
	Atom RecAtom
}

func (s RecSlot) String() string {
	return fmt.Sprintf("%s%s", s.Kind, s.Atom)
}

func compareRecSlots(a, b RecSlot) int {
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	return cmp.Compare(a.Atom, b.Atom)
}

// semTypesHash mixes the hashes of ts the same way a Bdd node mixes its children
func semTypesHash(seed uint64, ts ...SemType) uint64 {
	const prime uint64 = 1099511628211
	hash := seed
	for _, t := range ts {
		hash ^= t.Hash()
		hash *= prime
	}
	return hash
}
