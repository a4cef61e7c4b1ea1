package semtype

import (
	"fmt"
	"fortio.org/safecast"
	"github.com/benbjohnson/immutable"
	"github.com/cottand/semtype/internal/log"
	"github.com/cottand/semtype/util"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
	"iter"
	"sync"
	"sync/atomic"
)

var envLogger = log.DefaultLogger.With("section", "semtype.env")

// Env is the atom table shared by every Context of one type universe.
//
// Its state is an immutable snapshot swapped atomically: writers serialise on
// mu and publish a new snapshot, readers load the current one without locking.
// Once all definitions are filled an Env can back any number of Contexts
// running concurrently.
type Env struct {
	mu    sync.Mutex
	state atomic.Pointer[envState]
}

type envState struct {
	atoms     *immutable.Map[AtomicType, *TypeAtom]
	atomCount int

	recListAtoms     *immutable.List[*ListAtomicType]
	recMappingAtoms  *immutable.List[*MappingAtomicType]
	recFunctionAtoms *immutable.List[*FunctionAtomicType]
}

type atomicTypeHasher struct{}

func (atomicTypeHasher) Hash(key AtomicType) uint32 {
	h := key.hash()
	return uint32(h ^ h>>32)
}

func (atomicTypeHasher) Equal(a, b AtomicType) bool {
	return a.equal(b)
}

func NewEnv() *Env {
	env := &Env{}
	env.state.Store(&envState{
		atoms: immutable.NewMap[AtomicType, *TypeAtom](atomicTypeHasher{}),
		// slot 0 of lists and mappings is the read-only top of each kind
		recListAtoms:     immutable.NewList(listAtomicRO),
		recMappingAtoms:  immutable.NewList(mappingAtomicRO),
		recFunctionAtoms: immutable.NewList[*FunctionAtomicType](),
	})
	return env
}

// update runs f on a copy of the current snapshot and publishes the result
func (e *Env) update(f func(s *envState)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := *e.state.Load()
	f(&next)
	e.state.Store(&next)
}

// typeAtom interns t, so that structurally equal descriptors share one TypeAtom
func (e *Env) typeAtom(t AtomicType) *TypeAtom {
	if atom, ok := e.state.Load().atoms.Get(t); ok {
		return atom
	}
	var atom *TypeAtom
	e.update(func(s *envState) {
		// another writer may have interned t after our lock-free read
		if existing, ok := s.atoms.Get(t); ok {
			atom = existing
			return
		}
		index, err := safecast.Conv[int32](s.atomCount)
		if err != nil {
			fail(errors.Wrapf(err, "too many atoms interned"))
		}
		atom = &TypeAtom{Index: index, Type: t}
		s.atoms = s.atoms.Set(t, atom)
		s.atomCount++
	})
	return atom
}

// AtomCount is the number of interned TypeAtoms
func (e *Env) AtomCount() int {
	return e.state.Load().atomCount
}

func appendSlot[T any](slots *immutable.List[*T]) (*immutable.List[*T], RecAtom) {
	index, err := safecast.Conv[int32](slots.Len())
	if err != nil {
		fail(errors.Wrapf(err, "too many rec atoms"))
	}
	return slots.Append(nil), RecAtom(index)
}

func fillSlot[T any](slots *immutable.List[*T], slot RecSlot, t *T) *immutable.List[*T] {
	index := int(slot.Atom)
	if index < 0 || index >= slots.Len() {
		fail(&UnresolvedRecAtomError{Slot: slot})
	}
	if slots.Get(index) != nil {
		fail(errors.Wrapf(ErrSlotAlreadyDefined, "%s", slot))
	}
	return slots.Set(index, t)
}

func lookupSlot[T any](slots *immutable.List[*T], atom RecAtom) *T {
	index := int(atom)
	if index < 0 || index >= slots.Len() {
		return nil
	}
	return slots.Get(index)
}

func (e *Env) RecListAtom() RecAtom {
	var atom RecAtom
	e.update(func(s *envState) {
		s.recListAtoms, atom = appendSlot(s.recListAtoms)
	})
	envLogger.Debug("allocated rec atom", "slot", RecSlot{Kind: KindList, Atom: atom})
	return atom
}

func (e *Env) RecMappingAtom() RecAtom {
	var atom RecAtom
	e.update(func(s *envState) {
		s.recMappingAtoms, atom = appendSlot(s.recMappingAtoms)
	})
	envLogger.Debug("allocated rec atom", "slot", RecSlot{Kind: KindMapping, Atom: atom})
	return atom
}

func (e *Env) RecFunctionAtom() RecAtom {
	var atom RecAtom
	e.update(func(s *envState) {
		s.recFunctionAtoms, atom = appendSlot(s.recFunctionAtoms)
	})
	envLogger.Debug("allocated rec atom", "slot", RecSlot{Kind: KindFunction, Atom: atom})
	return atom
}

// SetRecListAtomType fills the slot of atom. Filling a slot twice is a failure.
func (e *Env) SetRecListAtomType(atom RecAtom, t *ListAtomicType) {
	slot := RecSlot{Kind: KindList, Atom: atom}
	if t == nil {
		fail(errors.Wrapf(ErrMalformedAtomicType, "no list for %s", slot))
	}
	e.update(func(s *envState) {
		s.recListAtoms = fillSlot(s.recListAtoms, slot, t)
	})
	envLogger.Debug("filled rec atom", "slot", slot, "type", t)
}

// SetRecMappingAtomType fills the slot of atom. A malformed t is a failure,
// see NewMappingAtomicType.
func (e *Env) SetRecMappingAtomType(atom RecAtom, t *MappingAtomicType) {
	slot := RecSlot{Kind: KindMapping, Atom: atom}
	if t == nil {
		fail(errors.Wrapf(ErrMalformedAtomicType, "no mapping for %s", slot))
	}
	if err := t.validate(); err != nil {
		fail(errors.Wrapf(err, "%s", slot))
	}
	e.update(func(s *envState) {
		s.recMappingAtoms = fillSlot(s.recMappingAtoms, slot, t)
	})
	envLogger.Debug("filled rec atom", "slot", slot, "type", t)
}

func (e *Env) SetRecFunctionAtomType(atom RecAtom, t *FunctionAtomicType) {
	slot := RecSlot{Kind: KindFunction, Atom: atom}
	if t == nil {
		fail(errors.Wrapf(ErrMalformedAtomicType, "no function for %s", slot))
	}
	e.update(func(s *envState) {
		s.recFunctionAtoms = fillSlot(s.recFunctionAtoms, slot, t)
	})
	envLogger.Debug("filled rec atom", "slot", slot, "type", t)
}

func unfilledSlots[T any](kind AtomKind, slots *immutable.List[*T]) iter.Seq[RecSlot] {
	return func(yield func(RecSlot) bool) {
		itr := slots.Iterator()
		for !itr.Done() {
			index, t := itr.Next()
			if t == nil && !yield(RecSlot{Kind: kind, Atom: RecAtom(index)}) {
				return
			}
		}
	}
}

// Unresolved returns the rec slots that were allocated but never filled,
// ordered by kind then index
func (e *Env) Unresolved() *set.TreeSet[RecSlot] {
	s := e.state.Load()
	unresolved := set.NewTreeSet[RecSlot](compareRecSlots)
	for slot := range util.ConcatIter(
		unfilledSlots(KindList, s.recListAtoms),
		unfilledSlots(KindMapping, s.recMappingAtoms),
		unfilledSlots(KindFunction, s.recFunctionAtoms),
	) {
		unresolved.Insert(slot)
	}
	return unresolved
}

// Validate reports unfilled rec slots as an ErrUnresolvedDefinitions
func (e *Env) Validate() error {
	unresolved := e.Unresolved()
	if unresolved.Empty() {
		return nil
	}
	return errors.Wrapf(ErrUnresolvedDefinitions, "%s", util.JoinString(unresolved.Slice(), ", "))
}

func (e *Env) String() string {
	s := e.state.Load()
	return fmt.Sprintf("Env(atoms=%d, lists=%d, mappings=%d, functions=%d)",
		s.atomCount, s.recListAtoms.Len(), s.recMappingAtoms.Len(), s.recFunctionAtoms.Len())
}
