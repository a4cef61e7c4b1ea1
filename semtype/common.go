package semtype

import (
	"fmt"
	"slices"
)

// BddPredicate decides a single path of a Bdd, pos and neg being the atoms
// taken positively and negatively along it
type BddPredicate func(tc *Context, pos, neg *Conjunction) bool

// bddEvery is true when predicate holds for every path of b that reaches BddAll
func bddEvery(tc *Context, b Bdd, pos, neg *Conjunction, predicate BddPredicate) bool {
	switch b := b.(type) {
	case BddAllOrNothing:
		return !bool(b) || predicate(tc, pos, neg)
	case *BddNode:
		return bddEvery(tc, b.Left, and(b.Atom, pos), neg, predicate) &&
			bddEvery(tc, b.Middle, pos, neg, predicate) &&
			bddEvery(tc, b.Right, pos, and(b.Atom, neg), predicate)
	default:
		panic(fmt.Sprintf("unexpected bdd %T", b))
	}
}

// bddEveryPositive is bddEvery where negative RecAtoms never enter a conjunction
func bddEveryPositive(tc *Context, b Bdd, pos, neg *Conjunction, predicate BddPredicate) bool {
	switch b := b.(type) {
	case BddAllOrNothing:
		return !bool(b) || predicate(tc, pos, neg)
	case *BddNode:
		return bddEveryPositive(tc, b.Left, andIfPositive(b.Atom, pos), neg, predicate) &&
			bddEveryPositive(tc, b.Middle, pos, neg, predicate) &&
			bddEveryPositive(tc, b.Right, pos, andIfPositive(b.Atom, neg), predicate)
	default:
		panic(fmt.Sprintf("unexpected bdd %T", b))
	}
}

// bddPosMaybeEmpty is true when some path of b may reach BddAll without
// taking any atom positively
func bddPosMaybeEmpty(b Bdd) bool {
	switch b := b.(type) {
	case BddAllOrNothing:
		return bool(b)
	case *BddNode:
		return bddPosMaybeEmpty(b.Middle) || bddPosMaybeEmpty(b.Right)
	default:
		panic(fmt.Sprintf("unexpected bdd %T", b))
	}
}

// bddFixReadOnly bounds b by the read-only top atom when a path of b has no
// positive atom. Read-only and mutable views share Bdds, and in the read-only
// view an empty positive conjunction must mean the read-only top.
func bddFixReadOnly(b Bdd) Bdd {
	if !bddPosMaybeEmpty(b) {
		return b
	}
	return bddIntersect(b, bddAtom(RecAtom(0)))
}

func typeListIsReadOnly(ts []SemType) bool {
	for _, t := range ts {
		if !IsReadOnly(t) {
			return false
		}
	}
	return true
}

// readOnlyTypeList returns a new slice where every type is narrowed to its
// read-only values. Undef survives so that optional fields stay optional.
func readOnlyTypeList(ts []SemType) []SemType {
	result := slices.Clone(ts)
	for i, t := range result {
		if !IsReadOnly(t) {
			result[i] = Intersect(t, readOnlyOrUndef)
		}
	}
	return result
}

var readOnlyOrUndef = Union(ReadOnly, Undef)

// codePointLess orders strings by code point. Go strings are UTF-8, whose
// byte order is code point order.
func codePointLess(a, b string) bool {
	return a < b
}
