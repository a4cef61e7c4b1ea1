package semtype

// FunctionAtomicType is the type of functions mapping Param to Return
type FunctionAtomicType struct {
	Param  SemType
	Return SemType
}

var _ AtomicType = &FunctionAtomicType{}

func (f *FunctionAtomicType) Kind() AtomKind {
	return KindFunction
}

func (f *FunctionAtomicType) hash() uint64 {
	return semTypesHash(uint64(KindFunction), f.Param, f.Return)
}

func (f *FunctionAtomicType) equal(other AtomicType) bool {
	o, ok := other.(*FunctionAtomicType)
	return ok && semTypeEqual(f.Param, o.Param) && semTypeEqual(f.Return, o.Return)
}

func (f *FunctionAtomicType) String() string {
	return "(" + f.Param.String() + ") -> " + f.Return.String()
}

func (f *FunctionAtomicType) memberTypes() []SemType {
	return []SemType{f.Param, f.Return}
}

func functionIsEmpty(tc *Context, b Bdd) bool {
	return tc.memoized(&tc.functionMemo, b, func(b Bdd) bool {
		return bddEvery(tc, b, nil, nil, functionFormulaIsEmpty)
	})
}

func functionFormulaIsEmpty(tc *Context, pos, neg *Conjunction) bool {
	return functionPathIsEmpty(tc, functionUnionParams(tc, pos), pos, neg)
}

func functionUnionParams(tc *Context, pos *Conjunction) SemType {
	params := Never
	for atom := range pos.Atoms() {
		params = Union(params, tc.functionAtomType(atom).Param)
	}
	return params
}

// functionPathIsEmpty is true when some negative arrow is implied by the
// intersection of the positive ones
func functionPathIsEmpty(tc *Context, params SemType, pos, neg *Conjunction) bool {
	for ; neg != nil; neg = neg.Next {
		t := tc.functionAtomType(neg.Atom)
		if IsSubtype(tc, t.Param, params) && functionTheta(tc, t.Param, Complement(t.Return), pos) {
			return true
		}
	}
	return false
}

// functionTheta checks that for every split of pos, either the params of one
// half cover t0 or the returns of the other half avoid t1
func functionTheta(tc *Context, t0, t1 SemType, pos *Conjunction) bool {
	if pos == nil {
		return IsEmpty(tc, t0) || IsEmpty(tc, t1)
	}
	s := tc.functionAtomType(pos.Atom)
	return (IsSubtype(tc, t0, s.Param) || functionTheta(tc, Diff(t0, s.Param), t1, pos.Next)) &&
		(IsSubtype(tc, t1, Complement(s.Return)) || functionTheta(tc, t0, Intersect(t1, s.Return), pos.Next))
}

// FunctionDefinition builds a possibly recursive function type
type FunctionDefinition struct {
	rec     RecAtom
	semType *SemType
	defined bool
}

func (d *FunctionDefinition) SemType(env *Env) SemType {
	if d.semType == nil {
		d.rec = env.RecFunctionAtom()
		t := basicSubtype(BTFunction, bddAtom(d.rec))
		d.semType = &t
	}
	return *d.semType
}

func (d *FunctionDefinition) Define(env *Env, param, ret SemType) SemType {
	if d.defined {
		fail(ErrSlotAlreadyDefined)
	}
	d.defined = true
	atomic := &FunctionAtomicType{Param: param, Return: ret}
	if d.semType != nil {
		env.SetRecFunctionAtomType(d.rec, atomic)
		return *d.semType
	}
	t := basicSubtype(BTFunction, bddAtom(env.typeAtom(atomic)))
	d.semType = &t
	return t
}

func FunctionOf(env *Env, param, ret SemType) SemType {
	return (&FunctionDefinition{}).Define(env, param, ret)
}
