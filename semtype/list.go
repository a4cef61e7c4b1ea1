package semtype

import (
	"slices"
	"strings"
)

// ListAtomicType is a list of at least len(Members) elements, element i being
// of type Members[i] and any further element of type Rest. A list is of
// exactly len(Members) elements when Rest is Never.
type ListAtomicType struct {
	Members []SemType
	Rest    SemType
}

var _ AtomicType = &ListAtomicType{}

func (l *ListAtomicType) Kind() AtomKind {
	return KindList
}

func (l *ListAtomicType) IsClosed() bool {
	return IsNever(l.Rest)
}

// memberAt is the type of element i
func (l *ListAtomicType) memberAt(i int) SemType {
	if i < len(l.Members) {
		return l.Members[i]
	}
	return l.Rest
}

// extended pads Members with Rest up to n elements
func (l *ListAtomicType) extended(n int, rest SemType) *ListAtomicType {
	members := slices.Clone(l.Members)
	for len(members) < n {
		members = append(members, l.Rest)
	}
	return &ListAtomicType{Members: members, Rest: rest}
}

func (l *ListAtomicType) hash() uint64 {
	return semTypesHash(uint64(len(l.Members)), l.memberTypes()...)
}

func (l *ListAtomicType) equal(other AtomicType) bool {
	o, ok := other.(*ListAtomicType)
	if !ok {
		return false
	}
	return semTypesEqual(l.Members, o.Members) && semTypeEqual(l.Rest, o.Rest)
}

func (l *ListAtomicType) String() string {
	parts := make([]string, 0, len(l.Members)+1)
	for _, member := range l.Members {
		parts = append(parts, member.String())
	}
	if !l.IsClosed() {
		parts = append(parts, l.Rest.String()+"...")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *ListAtomicType) memberTypes() []SemType {
	return append(slices.Clone(l.Members), l.Rest)
}

// intersectList returns nil when no list is in both l1 and l2
func intersectList(l1, l2 *ListAtomicType) *ListAtomicType {
	n := max(len(l1.Members), len(l2.Members))
	if len(l1.Members) < n && l1.IsClosed() || len(l2.Members) < n && l2.IsClosed() {
		return nil
	}
	members := make([]SemType, n)
	for i := range members {
		members[i] = Intersect(l1.memberAt(i), l2.memberAt(i))
		if IsNever(members[i]) {
			return nil
		}
	}
	return &ListAtomicType{Members: members, Rest: Intersect(l1.Rest, l2.Rest)}
}

func listFormulaIsEmpty(tc *Context, pos, neg *Conjunction) bool {
	var combined *ListAtomicType
	if pos == nil {
		combined = &ListAtomicType{Rest: Top}
	} else {
		combined = tc.listAtomType(pos.Atom)
		for p := pos.Next; p != nil; p = p.Next {
			combined = intersectList(combined, tc.listAtomType(p.Atom))
			if combined == nil {
				return true
			}
		}
		for _, t := range combined.Members {
			if IsEmpty(tc, t) {
				return true
			}
		}
	}
	if IsEmpty(tc, combined.Rest) {
		return !listInhabited(tc, &ListAtomicType{Members: combined.Members, Rest: Never}, neg)
	}

	// Lengths shorter than the longest negative are tried one by one as
	// closed lists. Past it, every negative treats the remaining elements
	// uniformly.
	maxNegLen := 0
	for atom := range neg.Atoms() {
		maxNegLen = max(maxNegLen, len(tc.listAtomType(atom).Members))
	}
	for n := len(combined.Members); n < maxNegLen; n++ {
		if listInhabited(tc, combined.extended(n, Never), neg) {
			return false
		}
	}
	return !listInhabited(tc, combined.extended(maxNegLen, combined.Rest), neg)
}

// listInhabited is true when some value of pos is in none of the lists of
// negList. pos is either closed or at least as long as every negative.
func listInhabited(tc *Context, pos *ListAtomicType, negList *Conjunction) bool {
	if negList == nil {
		return true
	}
	neg := tc.listAtomType(negList.Atom)
	posLen, negLen := len(pos.Members), len(neg.Members)

	// lengths are disjoint
	if pos.IsClosed() && negLen > posLen || neg.IsClosed() && negLen < posLen {
		return listInhabited(tc, pos, negList.Next)
	}
	for i := range pos.Members {
		if IsNever(Intersect(pos.Members[i], neg.memberAt(i))) {
			return listInhabited(tc, pos, negList.Next)
		}
	}
	// elements past posLen are uniform in every negative, so a longer list
	// can hold a value of pos's rest outside neg's rest
	if !IsEmpty(tc, Diff(pos.Rest, neg.Rest)) {
		return listInhabited(tc, pos, negList.Next)
	}
	for i := range pos.Members {
		d := Diff(pos.Members[i], neg.memberAt(i))
		if IsEmpty(tc, d) {
			continue
		}
		members := slices.Clone(pos.Members)
		members[i] = d
		if listInhabited(tc, &ListAtomicType{Members: members, Rest: pos.Rest}, negList.Next) {
			return true
		}
	}
	return false
}

func readOnlyListAtomicType(l *ListAtomicType) *ListAtomicType {
	if typeListIsReadOnly(l.Members) && IsReadOnly(l.Rest) {
		return l
	}
	return &ListAtomicType{
		Members: readOnlyTypeList(l.Members),
		Rest:    Intersect(l.Rest, ReadOnly),
	}
}

func listROComplement(b Bdd) Bdd {
	return bddDiff(bddAtom(RecAtom(0)), b)
}

func listROIsEmpty(tc *Context, b Bdd) bool {
	return tc.memoized(&tc.listMemo, bddFixReadOnly(b), func(b Bdd) bool {
		return bddEveryPositive(tc, b, nil, nil, listFormulaIsEmpty)
	})
}

func listRWIsEmpty(tc *Context, b Bdd) bool {
	return tc.memoized(&tc.listMemo, b, func(b Bdd) bool {
		return bddEvery(tc, b, nil, nil, listFormulaIsEmpty)
	})
}

func listSemType(ro, rw Atom) SemType {
	return createComplexSemType(0,
		[]BasicTypeCode{BTListRO, BTListRW},
		[]Bdd{bddAtom(ro), bddAtom(rw)})
}

// ListDefinition builds a possibly recursive list type, the same way
// MappingDefinition does for mappings
type ListDefinition struct {
	roRec   RecAtom
	rwRec   RecAtom
	semType *SemType
	defined bool
}

func (d *ListDefinition) SemType(env *Env) SemType {
	if d.semType == nil {
		d.roRec = env.RecListAtom()
		d.rwRec = env.RecListAtom()
		t := listSemType(d.roRec, d.rwRec)
		d.semType = &t
	}
	return *d.semType
}

func (d *ListDefinition) Define(env *Env, members []SemType, rest SemType) SemType {
	if d.defined {
		fail(ErrSlotAlreadyDefined)
	}
	d.defined = true
	rw := &ListAtomicType{Members: slices.Clone(members), Rest: rest}
	ro := readOnlyListAtomicType(rw)

	if d.semType != nil {
		env.SetRecListAtomType(d.rwRec, rw)
		env.SetRecListAtomType(d.roRec, ro)
		return *d.semType
	}
	rwAtom := env.typeAtom(rw)
	roAtom := rwAtom
	if ro != rw {
		roAtom = env.typeAtom(ro)
	}
	t := listSemType(roAtom, rwAtom)
	d.semType = &t
	return t
}

// ListOf is the type of lists starting with members, followed by any number
// of rest elements
func ListOf(env *Env, members []SemType, rest SemType) SemType {
	return (&ListDefinition{}).Define(env, members, rest)
}

func TupleOf(env *Env, members ...SemType) SemType {
	return ListOf(env, members, Never)
}

func ArrayOf(env *Env, elem SemType) SemType {
	return ListOf(env, nil, elem)
}
