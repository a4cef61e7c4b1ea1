package semtype

import (
	"github.com/cottand/semtype/internal/log"
	"math"
)

var memoLogger = log.DefaultLogger.With("section", "semtype.memo")

type memoState uint8

const (
	memoInProgress memoState = iota
	memoEmpty
	memoNonEmpty
)

type memoEntry struct {
	bdd   Bdd
	state memoState
	depth int
}

// memoTable maps Bdds, compared structurally, to emptiness results
type memoTable struct {
	entries map[uint64][]*memoEntry
}

func (m *memoTable) lookup(b Bdd) *memoEntry {
	for _, e := range m.entries[b.Hash()] {
		if bddEqual(e.bdd, b) {
			return e
		}
	}
	return nil
}

func (m *memoTable) insert(b Bdd, depth int) *memoEntry {
	if m.entries == nil {
		m.entries = make(map[uint64][]*memoEntry)
	}
	e := &memoEntry{bdd: b, depth: depth}
	m.entries[b.Hash()] = append(m.entries[b.Hash()], e)
	return e
}

func (m *memoTable) remove(e *memoEntry) {
	bucket := m.entries[e.bdd.Hash()]
	for i, other := range bucket {
		if other == e {
			m.entries[e.bdd.Hash()] = append(bucket[:i:i], bucket[i+1:]...)
			return
		}
	}
}

func (m *memoTable) len() int {
	n := 0
	for _, bucket := range m.entries {
		n += len(bucket)
	}
	return n
}

// Context carries the memo tables of emptiness queries over one Env.
// It is not safe for concurrent use, create one per goroutine.
type Context struct {
	env *Env

	mappingMemo  memoTable
	listMemo     memoTable
	functionMemo memoTable

	// depth of the memo entry being computed
	depth int
	// shallowest in-progress entry hit since the current entry started
	minLoopDepth int
}

func NewContext(env *Env) *Context {
	return &Context{
		env:          env,
		minLoopDepth: math.MaxInt,
	}
}

func (tc *Context) Env() *Env {
	return tc.env
}

// memoized answers whether b is empty, computing it with isEmpty at most once
// per Context.
//
// Meeting b again while it is being computed is a loop, answered as empty:
// the result is the least fixed point, so a type that can only be built by
// infinite unfolding is empty. An empty result that relied on such an answer
// for an entry further up the stack is provisional and is not cached.
func (tc *Context) memoized(table *memoTable, b Bdd, isEmpty func(b Bdd) bool) bool {
	if e := table.lookup(b); e != nil {
		switch e.state {
		case memoEmpty:
			return true
		case memoNonEmpty:
			return false
		default:
			memoLogger.Debug("loop in emptiness check", "bdd", b, "depth", e.depth)
			tc.minLoopDepth = min(tc.minLoopDepth, e.depth)
			return true
		}
	}

	depth := tc.depth
	savedMinLoopDepth := tc.minLoopDepth
	tc.depth++
	tc.minLoopDepth = math.MaxInt
	entry := table.insert(b, depth)
	completed := false
	defer func() {
		// a Failure unwinding through here must not leave entries in progress
		if !completed {
			table.remove(entry)
			tc.depth = depth
			tc.minLoopDepth = savedMinLoopDepth
		}
	}()

	result := isEmpty(b)
	completed = true

	tc.depth--
	switch {
	case !result:
		entry.state = memoNonEmpty
	case tc.minLoopDepth < depth:
		table.remove(entry)
	default:
		entry.state = memoEmpty
	}
	tc.minLoopDepth = min(savedMinLoopDepth, tc.minLoopDepth)
	return result
}

func (tc *Context) mappingAtomType(atom Atom) *MappingAtomicType {
	switch atom := atom.(type) {
	case *TypeAtom:
		return atom.Type.(*MappingAtomicType)
	case RecAtom:
		t := lookupSlot(tc.env.state.Load().recMappingAtoms, atom)
		if t == nil {
			fail(&UnresolvedRecAtomError{Slot: RecSlot{Kind: KindMapping, Atom: atom}})
		}
		return t
	default:
		panic("unexpected atom")
	}
}

func (tc *Context) listAtomType(atom Atom) *ListAtomicType {
	switch atom := atom.(type) {
	case *TypeAtom:
		return atom.Type.(*ListAtomicType)
	case RecAtom:
		t := lookupSlot(tc.env.state.Load().recListAtoms, atom)
		if t == nil {
			fail(&UnresolvedRecAtomError{Slot: RecSlot{Kind: KindList, Atom: atom}})
		}
		return t
	default:
		panic("unexpected atom")
	}
}

func (tc *Context) functionAtomType(atom Atom) *FunctionAtomicType {
	switch atom := atom.(type) {
	case *TypeAtom:
		return atom.Type.(*FunctionAtomicType)
	case RecAtom:
		t := lookupSlot(tc.env.state.Load().recFunctionAtoms, atom)
		if t == nil {
			fail(&UnresolvedRecAtomError{Slot: RecSlot{Kind: KindFunction, Atom: atom}})
		}
		return t
	default:
		panic("unexpected atom")
	}
}
