package semtype

import (
	"github.com/cottand/semtype/util"
	"iter"
)

// Conjunction is a linked list of atoms along one Bdd path.
// A nil *Conjunction is the empty conjunction.
type Conjunction struct {
	Atom Atom
	Next *Conjunction
}

func and(atom Atom, next *Conjunction) *Conjunction {
	return &Conjunction{Atom: atom, Next: next}
}

// andIfPositive drops RecAtoms with a negative index, which act as
// placeholders and never describe values
func andIfPositive(atom Atom, next *Conjunction) *Conjunction {
	if rec, ok := atom.(RecAtom); ok && rec < 0 {
		return next
	}
	return and(atom, next)
}

func (c *Conjunction) Atoms() iter.Seq[Atom] {
	return func(yield func(Atom) bool) {
		for it := c; it != nil; it = it.Next {
			if !yield(it.Atom) {
				return
			}
		}
	}
}

func (c *Conjunction) Len() int {
	n := 0
	for it := c; it != nil; it = it.Next {
		n++
	}
	return n
}

func (c *Conjunction) String() string {
	if c == nil {
		return "⊤"
	}
	return util.JoinSeq(c.Atoms(), "&")
}
