package semtype

import (
	"fmt"
	"math/bits"
	"strings"
)

// SemType is a set of values, split by basic type. Basic types in all are
// fully included, those in some are included as far as their Bdd says.
// subtypes holds one Bdd per bit of some, ordered by code.
//
// A SemType is immutable and safe to share.
type SemType struct {
	all      BasicTypeBitSet
	some     BasicTypeBitSet
	subtypes []Bdd
}

func uniform(bits BasicTypeBitSet) SemType {
	return SemType{all: bits}
}

// basicSubtype builds a SemType made of a single complex basic type
func basicSubtype(code BasicTypeCode, bdd Bdd) SemType {
	return createComplexSemType(0, []BasicTypeCode{code}, []Bdd{bdd})
}

// createComplexSemType normalises the Bdds of codes: an all Bdd moves to the
// all bitset and a nothing Bdd is dropped
func createComplexSemType(all BasicTypeBitSet, codes []BasicTypeCode, bdds []Bdd) SemType {
	var some BasicTypeBitSet
	subtypes := make([]Bdd, 0, len(bdds))
	for i, code := range codes {
		switch bdd := bdds[i]; {
		case isAll(bdd):
			all |= code.bit()
		case isNothing(bdd):
		default:
			some |= code.bit()
			subtypes = append(subtypes, bdd)
		}
	}
	if some == 0 {
		return uniform(all)
	}
	return SemType{all: all, some: some, subtypes: subtypes}
}

func (t SemType) subtypeData(code BasicTypeCode) Bdd {
	switch {
	case t.all.has(code):
		return BddAll
	case t.some.has(code):
		return t.subtypes[bits.OnesCount32(uint32(t.some&(code.bit()-1)))]
	default:
		return BddNothing
	}
}

// IsUniform is true when t is described by its bitset only
func (t SemType) IsUniform() bool {
	return t.some == 0
}

func combine(t1, t2 SemType, all, some BasicTypeBitSet, op func(code BasicTypeCode, d1, d2 Bdd) Bdd) SemType {
	if some == 0 {
		return uniform(all)
	}
	codes := make([]BasicTypeCode, 0, some.count())
	bdds := make([]Bdd, 0, some.count())
	for code := range some.codes() {
		codes = append(codes, code)
		bdds = append(bdds, op(code, t1.subtypeData(code), t2.subtypeData(code)))
	}
	return createComplexSemType(all, codes, bdds)
}

func Union(t1, t2 SemType) SemType {
	all := t1.all | t2.all
	some := (t1.some | t2.some) &^ all
	return combine(t1, t2, all, some, func(code BasicTypeCode, d1, d2 Bdd) Bdd {
		return code.ops().union(d1, d2)
	})
}

func Intersect(t1, t2 SemType) SemType {
	all := t1.all & t2.all
	some := ((t1.some | t1.all) & (t2.some | t2.all)) &^ all
	return combine(t1, t2, all, some, func(code BasicTypeCode, d1, d2 Bdd) Bdd {
		return code.ops().intersect(d1, d2)
	})
}

func Diff(t1, t2 SemType) SemType {
	all := t1.all &^ (t2.all | t2.some)
	some := (t1.all | t1.some) &^ t2.all &^ all
	return combine(t1, t2, all, some, func(code BasicTypeCode, d1, d2 Bdd) Bdd {
		if isAll(d1) {
			return code.ops().complement(d2)
		}
		return code.ops().diff(d1, d2)
	})
}

// Complement is relative to Top, so it never contains undef
func Complement(t SemType) SemType {
	return Diff(Top, t)
}

// UnionOf folds Union over ts, the union of nothing is Never
func UnionOf(ts ...SemType) SemType {
	result := Never
	for _, t := range ts {
		result = Union(result, t)
	}
	return result
}

// IntersectOf folds Intersect over ts, the intersection of nothing is Top
func IntersectOf(ts ...SemType) SemType {
	result := Top
	for _, t := range ts {
		result = Intersect(result, t)
	}
	return result
}

// IsNever is a structural check that needs no Context. A type for which
// IsNever is false may still be empty, see IsEmpty.
func IsNever(t SemType) bool {
	return t.some == 0 && t.all == 0
}

func IsEmpty(tc *Context, t SemType) bool {
	if t.some == 0 {
		return t.all == 0
	}
	if t.all != 0 {
		return false
	}
	i := 0
	for code := range t.some.codes() {
		if !code.ops().isEmpty(tc, t.subtypes[i]) {
			return false
		}
		i++
	}
	return true
}

func IsSubtype(tc *Context, t1, t2 SemType) bool {
	return IsEmpty(tc, Diff(t1, t2))
}

func IsEquivalent(tc *Context, t1, t2 SemType) bool {
	return IsSubtype(tc, t1, t2) && IsSubtype(tc, t2, t1)
}

// IsReadOnly is true when t has no mutable list or mapping values
func IsReadOnly(t SemType) bool {
	return (t.all|t.some)&rwMask == 0
}

func (t SemType) hasUndef() bool {
	return (t.all | t.some).has(BTUndef)
}

func (t SemType) Hash() uint64 {
	const prime uint64 = 1099511628211
	hash := uint64(14695981039346656037)
	hash = (hash ^ uint64(t.all)) * prime
	hash = (hash ^ uint64(t.some)<<32) * prime
	for _, bdd := range t.subtypes {
		hash = (hash ^ bdd.Hash()) * prime
	}
	return hash
}

// semTypeEqual is structural equality, equivalent types may still differ
func semTypeEqual(t1, t2 SemType) bool {
	if t1.all != t2.all || t1.some != t2.some {
		return false
	}
	for i := range t1.subtypes {
		if !bddEqual(t1.subtypes[i], t2.subtypes[i]) {
			return false
		}
	}
	return true
}

func semTypesEqual(ts1, ts2 []SemType) bool {
	if len(ts1) != len(ts2) {
		return false
	}
	for i := range ts1 {
		if !semTypeEqual(ts1[i], ts2[i]) {
			return false
		}
	}
	return true
}

var uniformNames = []struct {
	bits BasicTypeBitSet
	name string
}{
	{topMask, "top"},
	{topMask &^ bitError, "any"},
	{readOnlyMask, "readonly"},
	{bitListRO | bitListRW, "list"},
	{bitMappingRO | bitMappingRW, "map"},
}

func (t SemType) String() string {
	if IsNever(t) {
		return "never"
	}
	var parts []string
	all := t.all
	for _, named := range uniformNames {
		if all&named.bits == named.bits {
			parts = append(parts, named.name)
			all &^= named.bits
		}
	}
	for code := range all.codes() {
		parts = append(parts, code.String())
	}
	i := 0
	for code := range t.some.codes() {
		parts = append(parts, fmt.Sprintf("%s(%s)", code, t.subtypes[i]))
		i++
	}
	return strings.Join(parts, "|")
}
