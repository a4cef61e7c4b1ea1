package semtype

import (
	"fmt"
	"strings"
)

// Bdd is a ternary decision diagram over atoms. A node stands for
//
//	(atom ∧ Left) ∨ Middle ∨ (¬atom ∧ Right)
//
// and the leaves are BddAll and BddNothing.
type Bdd interface {
	fmt.Stringer
	Hash() uint64
}

type BddAllOrNothing bool

const (
	BddAll     BddAllOrNothing = true
	BddNothing BddAllOrNothing = false
)

func (b BddAllOrNothing) Hash() uint64 {
	if b {
		return 16777619 // FNV-1a prime for all
	}
	return 1099511628211 // FNV-1a prime for nothing
}

func (b BddAllOrNothing) String() string {
	if b {
		return "⊤"
	}
	return "⊥"
}

type BddNode struct {
	Atom   Atom
	Left   Bdd
	Middle Bdd
	Right  Bdd

	hash uint64
}

func (n *BddNode) Hash() uint64 {
	return n.hash
}

// String prints n as a disjunction of the paths that reach BddAll
func (n *BddNode) String() string {
	var paths []string
	var walk func(b Bdd, path []string)
	walk = func(b Bdd, path []string) {
		switch b := b.(type) {
		case BddAllOrNothing:
			if !b {
				return
			}
			if len(path) == 0 {
				paths = append(paths, "⊤")
				return
			}
			paths = append(paths, strings.Join(path, "&"))
		case *BddNode:
			walk(b.Left, append(path[:len(path):len(path)], b.Atom.String()))
			walk(b.Middle, path)
			walk(b.Right, append(path[:len(path):len(path)], "!"+b.Atom.String()))
		}
	}
	walk(n, nil)
	if len(paths) == 0 {
		return "⊥"
	}
	return strings.Join(paths, " | ")
}

func bddNodeHash(atom Atom, left, middle, right Bdd) uint64 {
	const prime uint64 = 1099511628211
	hash := uint64(14695981039346656037)
	for _, h := range [...]uint64{atomHash(atom), left.Hash(), middle.Hash(), right.Hash()} {
		hash ^= h
		hash *= prime
	}
	return hash
}

func isAll(b Bdd) bool {
	all, ok := b.(BddAllOrNothing)
	return ok && bool(all)
}

func isNothing(b Bdd) bool {
	all, ok := b.(BddAllOrNothing)
	return ok && !bool(all)
}

// bddAtom is the Bdd containing exactly the values of atom
func bddAtom(atom Atom) Bdd {
	return bddCreate(atom, BddAll, BddNothing, BddNothing)
}

func bddCreate(atom Atom, left, middle, right Bdd) Bdd {
	if isAll(middle) {
		return BddAll
	}
	if bddEqual(left, right) {
		return bddUnion(left, middle)
	}
	return &BddNode{
		Atom:   atom,
		Left:   left,
		Middle: middle,
		Right:  right,
		hash:   bddNodeHash(atom, left, middle, right),
	}
}

func bddUnion(b1, b2 Bdd) Bdd {
	if bddEqual(b1, b2) {
		return b1
	}
	if all, ok := b1.(BddAllOrNothing); ok {
		if all {
			return BddAll
		}
		return b2
	}
	if all, ok := b2.(BddAllOrNothing); ok {
		if all {
			return BddAll
		}
		return b1
	}
	n1, n2 := b1.(*BddNode), b2.(*BddNode)
	switch cmp := atomCmp(n1.Atom, n2.Atom); {
	case cmp < 0:
		return bddCreate(n1.Atom, n1.Left, bddUnion(n1.Middle, b2), n1.Right)
	case cmp > 0:
		return bddCreate(n2.Atom, n2.Left, bddUnion(b1, n2.Middle), n2.Right)
	default:
		return bddCreate(n1.Atom,
			bddUnion(n1.Left, n2.Left),
			bddUnion(n1.Middle, n2.Middle),
			bddUnion(n1.Right, n2.Right))
	}
}

func bddIntersect(b1, b2 Bdd) Bdd {
	if bddEqual(b1, b2) {
		return b1
	}
	if all, ok := b1.(BddAllOrNothing); ok {
		if all {
			return b2
		}
		return BddNothing
	}
	if all, ok := b2.(BddAllOrNothing); ok {
		if all {
			return b1
		}
		return BddNothing
	}
	n1, n2 := b1.(*BddNode), b2.(*BddNode)
	switch cmp := atomCmp(n1.Atom, n2.Atom); {
	case cmp < 0:
		return bddCreate(n1.Atom,
			bddIntersect(n1.Left, b2),
			bddIntersect(n1.Middle, b2),
			bddIntersect(n1.Right, b2))
	case cmp > 0:
		return bddCreate(n2.Atom,
			bddIntersect(b1, n2.Left),
			bddIntersect(b1, n2.Middle),
			bddIntersect(b1, n2.Right))
	default:
		return bddCreate(n1.Atom,
			bddIntersect(bddUnion(n1.Left, n1.Middle), bddUnion(n2.Left, n2.Middle)),
			BddNothing,
			bddIntersect(bddUnion(n1.Right, n1.Middle), bddUnion(n2.Right, n2.Middle)))
	}
}

func bddDiff(b1, b2 Bdd) Bdd {
	if bddEqual(b1, b2) {
		return BddNothing
	}
	if all, ok := b2.(BddAllOrNothing); ok {
		if all {
			return BddNothing
		}
		return b1
	}
	if all, ok := b1.(BddAllOrNothing); ok {
		if all {
			return bddComplement(b2)
		}
		return BddNothing
	}
	n1, n2 := b1.(*BddNode), b2.(*BddNode)
	switch cmp := atomCmp(n1.Atom, n2.Atom); {
	case cmp < 0:
		return bddCreate(n1.Atom,
			bddDiff(bddUnion(n1.Left, n1.Middle), b2),
			BddNothing,
			bddDiff(bddUnion(n1.Right, n1.Middle), b2))
	case cmp > 0:
		return bddCreate(n2.Atom,
			bddDiff(b1, bddUnion(n2.Left, n2.Middle)),
			BddNothing,
			bddDiff(b1, bddUnion(n2.Right, n2.Middle)))
	default:
		return bddCreate(n1.Atom,
			bddDiff(bddUnion(n1.Left, n1.Middle), bddUnion(n2.Left, n2.Middle)),
			BddNothing,
			bddDiff(bddUnion(n1.Right, n1.Middle), bddUnion(n2.Right, n2.Middle)))
	}
}

func bddComplement(b Bdd) Bdd {
	switch b := b.(type) {
	case BddAllOrNothing:
		return !b
	case *BddNode:
		return bddNodeComplement(b)
	default:
		panic(fmt.Sprintf("unexpected bdd %T", b))
	}
}

func bddNodeComplement(n *BddNode) Bdd {
	switch {
	case isNothing(n.Right):
		return bddCreate(n.Atom,
			BddNothing,
			bddComplement(bddUnion(n.Left, n.Middle)),
			bddComplement(n.Middle))
	case isNothing(n.Left):
		return bddCreate(n.Atom,
			bddComplement(n.Middle),
			bddComplement(bddUnion(n.Right, n.Middle)),
			BddNothing)
	case isNothing(n.Middle):
		return bddCreate(n.Atom,
			bddComplement(n.Left),
			bddComplement(bddUnion(n.Left, n.Right)),
			bddComplement(n.Right))
	default:
		return bddCreate(n.Atom,
			bddComplement(bddUnion(n.Left, n.Middle)),
			BddNothing,
			bddComplement(bddUnion(n.Right, n.Middle)))
	}
}

// bddEqual is structural equality
func bddEqual(b1, b2 Bdd) bool {
	switch b1 := b1.(type) {
	case BddAllOrNothing:
		b2, ok := b2.(BddAllOrNothing)
		return ok && b1 == b2
	case *BddNode:
		b2, ok := b2.(*BddNode)
		if !ok {
			return false
		}
		if b1 == b2 {
			return true
		}
		return b1.hash == b2.hash &&
			atomCmp(b1.Atom, b2.Atom) == 0 &&
			bddEqual(b1.Left, b2.Left) &&
			bddEqual(b1.Middle, b2.Middle) &&
			bddEqual(b1.Right, b2.Right)
	default:
		return false
	}
}
