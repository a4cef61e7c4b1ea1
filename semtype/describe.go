package semtype

import (
	"fmt"
	"strings"
)

func (c BasicTypeCode) atomKind() AtomKind {
	switch c {
	case BTListRO, BTListRW:
		return KindList
	case BTMappingRO, BTMappingRW:
		return KindMapping
	case BTFunction:
		return KindFunction
	default:
		panic(fmt.Sprintf("uniform basic type %s has no atoms", c))
	}
}

type describedAtom struct {
	kind AtomKind
	atom Atom
}

func (a describedAtom) key() string {
	if rec, ok := a.atom.(RecAtom); ok {
		return RecSlot{Kind: a.kind, Atom: rec}.String()
	}
	return a.atom.String()
}

func collectAtoms(kind AtomKind, b Bdd, into func(describedAtom)) {
	node, ok := b.(*BddNode)
	if !ok {
		return
	}
	into(describedAtom{kind: kind, atom: node.Atom})
	collectAtoms(kind, node.Left, into)
	collectAtoms(kind, node.Middle, into)
	collectAtoms(kind, node.Right, into)
}

// Describe prints t followed by the descriptor of every atom reachable from
// it, one per line. Unfilled rec slots are printed as such.
func (e *Env) Describe(t SemType) string {
	sb := &strings.Builder{}
	sb.WriteString(t.String())

	seen := map[string]bool{}
	var queue []describedAtom
	enqueue := func(types ...SemType) {
		for _, t := range types {
			i := 0
			for code := range t.some.codes() {
				collectAtoms(code.atomKind(), t.subtypes[i], func(a describedAtom) {
					if !seen[a.key()] {
						seen[a.key()] = true
						queue = append(queue, a)
					}
				})
				i++
			}
		}
	}
	enqueue(t)

	state := e.state.Load()
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		var atomic AtomicType
		switch atom := next.atom.(type) {
		case *TypeAtom:
			atomic = atom.Type
		case RecAtom:
			switch next.kind {
			case KindList:
				if t := lookupSlot(state.recListAtoms, atom); t != nil {
					atomic = t
				}
			case KindMapping:
				if t := lookupSlot(state.recMappingAtoms, atom); t != nil {
					atomic = t
				}
			case KindFunction:
				if t := lookupSlot(state.recFunctionAtoms, atom); t != nil {
					atomic = t
				}
			}
		}
		if atomic == nil {
			_, _ = fmt.Fprintf(sb, "\n  %s = <unresolved>", next.key())
			continue
		}
		_, _ = fmt.Fprintf(sb, "\n  %s = %s", next.key(), atomic)
		enqueue(atomic.memberTypes()...)
	}
	return sb.String()
}
