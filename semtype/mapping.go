package semtype

import (
	"github.com/pkg/errors"
	"github.com/xtgo/set"
	"hash/fnv"
	"iter"
	"slices"
	"sort"
	"strings"
)

// MappingAtomicType is a mapping with the fields Names, sorted by code point,
// of types Types. Any other field is either absent or of type Rest, so a
// mapping is closed when Rest is Never. The type of an optional field
// includes Undef.
type MappingAtomicType struct {
	Names []string
	Types []SemType
	Rest  SemType
}

var _ AtomicType = &MappingAtomicType{}

func NewMappingAtomicType(names []string, types []SemType, rest SemType) (*MappingAtomicType, error) {
	m := &MappingAtomicType{
		Names: slices.Clone(names),
		Types: slices.Clone(types),
		Rest:  rest,
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MappingAtomicType) validate() error {
	if len(m.Names) != len(m.Types) {
		return errors.Wrapf(ErrMalformedAtomicType, "%d field names but %d field types", len(m.Names), len(m.Types))
	}
	for i := 1; i < len(m.Names); i++ {
		if !codePointLess(m.Names[i-1], m.Names[i]) {
			return errors.Wrapf(ErrMalformedAtomicType, "field names %q and %q are not strictly increasing", m.Names[i-1], m.Names[i])
		}
	}
	if m.Rest.hasUndef() {
		return errors.Wrapf(ErrMalformedAtomicType, "rest type %s may not be undef", m.Rest)
	}
	return nil
}

func (m *MappingAtomicType) Kind() AtomKind {
	return KindMapping
}

// IsClosed is true when m has no fields besides Names
func (m *MappingAtomicType) IsClosed() bool {
	return IsNever(m.Rest)
}

func (m *MappingAtomicType) hash() uint64 {
	h := fnv.New64a()
	for _, name := range m.Names {
		_, _ = h.Write([]byte(name))
		_, _ = h.Write([]byte{0})
	}
	return semTypesHash(h.Sum64(), append(slices.Clone(m.Types), m.Rest)...)
}

func (m *MappingAtomicType) equal(other AtomicType) bool {
	o, ok := other.(*MappingAtomicType)
	if !ok {
		return false
	}
	return slices.Equal(m.Names, o.Names) && semTypesEqual(m.Types, o.Types) && semTypeEqual(m.Rest, o.Rest)
}

func (m *MappingAtomicType) String() string {
	parts := make([]string, 0, len(m.Names)+1)
	for i, name := range m.Names {
		parts = append(parts, fieldString(name, m.Types[i]))
	}
	if !m.IsClosed() {
		parts = append(parts, "..."+m.Rest.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func fieldString(name string, t SemType) string {
	if t.hasUndef() {
		return name + "?: " + Diff(t, Undef).String()
	}
	return name + ": " + t.String()
}

// memberTypes lists the types m refers to
func (m *MappingAtomicType) memberTypes() []SemType {
	return append(slices.Clone(m.Types), m.Rest)
}

// Field is a named field of a mapping being defined
type Field struct {
	Name     string
	Type     SemType
	Optional bool
}

type fieldsByName []Field

func (f fieldsByName) Len() int           { return len(f) }
func (f fieldsByName) Less(i, j int) bool { return codePointLess(f[i].Name, f[j].Name) }
func (f fieldsByName) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }

// splitFields sorts fields by name into the parallel arrays of a
// MappingAtomicType. Optional fields get Undef added to their type.
func splitFields(fields []Field) ([]string, []SemType, error) {
	sorted := slices.Clone(fields)
	sort.Sort(fieldsByName(sorted))
	// Uniq moves the collapsed duplicates past the unique prefix
	if unique := set.Uniq(fieldsByName(sorted)); unique != len(sorted) {
		return nil, nil, errors.Wrapf(ErrMalformedAtomicType, "duplicate field %q", sorted[unique].Name)
	}
	names := make([]string, len(sorted))
	types := make([]SemType, len(sorted))
	for i, field := range sorted {
		names[i] = field.Name
		types[i] = field.Type
		if field.Optional {
			types[i] = Union(field.Type, Undef)
		}
	}
	return names, types, nil
}

// FieldPair is a field of either of two mappings with its type in each.
// Index1 or Index2 is -1 when the field is not listed in that mapping and its
// type comes from the rest.
type FieldPair struct {
	Name   string
	Type1  SemType
	Type2  SemType
	Index1 int
	Index2 int
}

// restFieldType is the type of a field not listed in m: absent or of the rest type
func restFieldType(m *MappingAtomicType) SemType {
	return Union(m.Rest, Undef)
}

// fieldPairs merges the sorted field names of m1 and m2
func fieldPairs(m1, m2 *MappingAtomicType) iter.Seq[FieldPair] {
	return func(yield func(FieldPair) bool) {
		rest1, rest2 := restFieldType(m1), restFieldType(m2)
		i1, i2 := 0, 0
		for i1 < len(m1.Names) || i2 < len(m2.Names) {
			var pair FieldPair
			switch {
			case i2 == len(m2.Names) || i1 < len(m1.Names) && codePointLess(m1.Names[i1], m2.Names[i2]):
				pair = FieldPair{Name: m1.Names[i1], Type1: m1.Types[i1], Type2: rest2, Index1: i1, Index2: -1}
				i1++
			case i1 == len(m1.Names) || codePointLess(m2.Names[i2], m1.Names[i1]):
				pair = FieldPair{Name: m2.Names[i2], Type1: rest1, Type2: m2.Types[i2], Index1: -1, Index2: i2}
				i2++
			default:
				pair = FieldPair{Name: m1.Names[i1], Type1: m1.Types[i1], Type2: m2.Types[i2], Index1: i1, Index2: i2}
				i1++
				i2++
			}
			if !yield(pair) {
				return
			}
		}
	}
}

// intersectMapping returns nil when the intersection has a field of type never
func intersectMapping(m1, m2 *MappingAtomicType) *MappingAtomicType {
	var names []string
	var types []SemType
	for pair := range fieldPairs(m1, m2) {
		t := Intersect(pair.Type1, pair.Type2)
		if IsNever(t) {
			return nil
		}
		names = append(names, pair.Name)
		types = append(types, t)
	}
	return &MappingAtomicType{
		Names: names,
		Types: types,
		Rest:  Intersect(m1.Rest, m2.Rest),
	}
}

// insertField returns a copy of m with the field name of type t added in
// code point order
func insertField(m *MappingAtomicType, name string, t SemType) *MappingAtomicType {
	i := 0
	for i < len(m.Names) && codePointLess(m.Names[i], name) {
		i++
	}
	names := make([]string, len(m.Names)+1)
	types := make([]SemType, len(m.Types)+1)
	copy(names, m.Names[:i])
	copy(types, m.Types[:i])
	names[i], types[i] = name, t
	copy(names[i+1:], m.Names[i:])
	copy(types[i+1:], m.Types[i:])
	return &MappingAtomicType{Names: names, Types: types, Rest: m.Rest}
}

func replaceField(m *MappingAtomicType, index int, t SemType) *MappingAtomicType {
	types := slices.Clone(m.Types)
	types[index] = t
	return &MappingAtomicType{Names: m.Names, Types: types, Rest: m.Rest}
}

func hasOptionalField(m *MappingAtomicType) bool {
	return slices.ContainsFunc(m.Types, SemType.hasUndef)
}

func mappingFormulaIsEmpty(tc *Context, pos, neg *Conjunction) bool {
	var combined *MappingAtomicType
	if pos == nil {
		combined = &MappingAtomicType{Rest: Top}
	} else {
		combined = tc.mappingAtomType(pos.Atom)
		for p := pos.Next; p != nil; p = p.Next {
			combined = intersectMapping(combined, tc.mappingAtomType(p.Atom))
			if combined == nil {
				return true
			}
		}
		for _, t := range combined.Types {
			if IsEmpty(tc, t) {
				return true
			}
		}
	}
	return !mappingInhabited(tc, combined, neg)
}

// mappingInhabited is true when some value of pos is in none of the mappings
// of negList
func mappingInhabited(tc *Context, pos *MappingAtomicType, negList *Conjunction) bool {
	if negList == nil {
		return true
	}
	neg := tc.mappingAtomType(negList.Atom)

	// two closed mappings with different names and only required fields are disjoint
	if pos.IsClosed() && neg.IsClosed() && !slices.Equal(pos.Names, neg.Names) &&
		!hasOptionalField(pos) && !hasOptionalField(neg) {
		return mappingInhabited(tc, pos, negList.Next)
	}
	for pair := range fieldPairs(pos, neg) {
		if IsNever(Intersect(pair.Type1, pair.Type2)) {
			return mappingInhabited(tc, pos, negList.Next)
		}
	}
	// infinitely many unlisted fields are left: one of them can hold a value
	// of pos's rest outside neg's rest without affecting the other negatives
	if !IsEmpty(tc, Diff(pos.Rest, neg.Rest)) {
		return mappingInhabited(tc, pos, negList.Next)
	}
	for pair := range fieldPairs(pos, neg) {
		d := Diff(pair.Type1, pair.Type2)
		if IsEmpty(tc, d) {
			continue
		}
		var narrowed *MappingAtomicType
		if pair.Index1 < 0 {
			narrowed = insertField(pos, pair.Name, d)
		} else {
			narrowed = replaceField(pos, pair.Index1, d)
		}
		if mappingInhabited(tc, narrowed, negList.Next) {
			return true
		}
	}
	return false
}

// readOnlyMappingAtomicType narrows the fields of m to their read-only
// values. It returns m itself when m is already read-only.
func readOnlyMappingAtomicType(m *MappingAtomicType) *MappingAtomicType {
	if typeListIsReadOnly(m.Types) && IsReadOnly(m.Rest) {
		return m
	}
	return &MappingAtomicType{
		Names: m.Names,
		Types: readOnlyTypeList(m.Types),
		Rest:  Intersect(m.Rest, ReadOnly),
	}
}

func mappingROComplement(b Bdd) Bdd {
	return bddDiff(bddAtom(RecAtom(0)), b)
}

func mappingROIsEmpty(tc *Context, b Bdd) bool {
	return tc.memoized(&tc.mappingMemo, bddFixReadOnly(b), func(b Bdd) bool {
		return bddEveryPositive(tc, b, nil, nil, mappingFormulaIsEmpty)
	})
}

func mappingRWIsEmpty(tc *Context, b Bdd) bool {
	return tc.memoized(&tc.mappingMemo, b, func(b Bdd) bool {
		return bddEvery(tc, b, nil, nil, mappingFormulaIsEmpty)
	})
}

func mappingSemType(ro, rw Atom) SemType {
	return createComplexSemType(0,
		[]BasicTypeCode{BTMappingRO, BTMappingRW},
		[]Bdd{bddAtom(ro), bddAtom(rw)})
}

// MappingDefinition builds a possibly recursive mapping type. SemType may be
// called before Define to refer to the mapping from its own fields.
// It is not safe for concurrent use.
type MappingDefinition struct {
	roRec   RecAtom
	rwRec   RecAtom
	semType *SemType
	defined bool
}

func (d *MappingDefinition) SemType(env *Env) SemType {
	if d.semType == nil {
		d.roRec = env.RecMappingAtom()
		d.rwRec = env.RecMappingAtom()
		t := mappingSemType(d.roRec, d.rwRec)
		d.semType = &t
	}
	return *d.semType
}

// Define sets the fields of the mapping and returns its type. Values of the
// type are read-only mappings whose fields are narrowed to read-only values,
// plus mutable mappings of the fields as given.
func (d *MappingDefinition) Define(env *Env, fields []Field, rest SemType) (SemType, error) {
	if d.defined {
		return Never, errors.Wrap(ErrSlotAlreadyDefined, "mapping definition")
	}
	names, types, err := splitFields(fields)
	if err != nil {
		return Never, err
	}
	rw, err := NewMappingAtomicType(names, types, rest)
	if err != nil {
		return Never, err
	}
	ro := readOnlyMappingAtomicType(rw)
	d.defined = true

	if d.semType != nil {
		env.SetRecMappingAtomType(d.rwRec, rw)
		env.SetRecMappingAtomType(d.roRec, ro)
		return *d.semType, nil
	}
	// nothing refers to this definition yet, so interned atoms will do
	rwAtom := env.typeAtom(rw)
	roAtom := rwAtom
	if ro != rw {
		roAtom = env.typeAtom(ro)
	}
	t := mappingSemType(roAtom, rwAtom)
	d.semType = &t
	return t, nil
}

// MappingOf builds a non-recursive mapping type
func MappingOf(env *Env, fields []Field, rest SemType) (SemType, error) {
	return (&MappingDefinition{}).Define(env, fields, rest)
}
