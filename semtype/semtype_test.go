package semtype_test

import (
	"github.com/cottand/semtype/semtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"testing"
)

func mustMapping(t *testing.T, env *semtype.Env, rest semtype.SemType, fields ...semtype.Field) semtype.SemType {
	t.Helper()
	m, err := semtype.MappingOf(env, fields, rest)
	require.NoError(t, err)
	return m
}

func field(name string, t semtype.SemType) semtype.Field {
	return semtype.Field{Name: name, Type: t}
}

func optional(name string, t semtype.SemType) semtype.Field {
	return semtype.Field{Name: name, Type: t, Optional: true}
}

func TestUniformSubtyping(t *testing.T) {
	tc := semtype.NewContext(semtype.NewEnv())
	testCases := []struct {
		name     string
		sub      semtype.SemType
		super    semtype.SemType
		expected bool
	}{
		{"int <: int|string", semtype.Int, semtype.Union(semtype.Int, semtype.String), true},
		{"int|string </: int", semtype.Union(semtype.Int, semtype.String), semtype.Int, false},
		{"never <: int", semtype.Never, semtype.Int, true},
		{"error </: any", semtype.Error, semtype.Any, false},
		{"any <: top", semtype.Any, semtype.Top, true},
		{"list <: readonly", semtype.List, semtype.ReadOnly, false},
		{"list_ro <: readonly", semtype.ListRO, semtype.ReadOnly, true},
		{"map <: top", semtype.Mapping, semtype.Top, true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, semtype.IsSubtype(tc, testCase.sub, testCase.super))
		})
	}
}

func TestComplementOfTopIsNever(t *testing.T) {
	tc := semtype.NewContext(semtype.NewEnv())
	assert.True(t, semtype.IsNever(semtype.Complement(semtype.Top)))
	assert.True(t, semtype.IsEquivalent(tc, semtype.Top, semtype.Complement(semtype.Never)))
	assert.False(t, semtype.IsSubtype(tc, semtype.Undef, semtype.Top), "undef is internal")
}

func TestAlgebraLaws(t *testing.T) {
	env := semtype.NewEnv()
	tc := semtype.NewContext(env)

	types := map[string]semtype.SemType{
		"int":          semtype.Int,
		"string|nil":   semtype.Union(semtype.String, semtype.Nil),
		"map":          semtype.Mapping,
		"{a:int}":      mustMapping(t, env, semtype.Never, field("a", semtype.Int)),
		"{a?:string}":  mustMapping(t, env, semtype.Any, optional("a", semtype.String)),
		"[int...]":     semtype.ArrayOf(env, semtype.Int),
		"[int,string]": semtype.TupleOf(env, semtype.Int, semtype.String),
		"int->int":     semtype.FunctionOf(env, semtype.Int, semtype.Int),
		"top":          semtype.Top,
		"never":        semtype.Never,
	}

	for name, x := range types {
		t.Run(name, func(t *testing.T) {
			assert.True(t, semtype.IsEquivalent(tc, semtype.Top, semtype.Union(x, semtype.Complement(x))), "x | !x = top")
			assert.True(t, semtype.IsEmpty(tc, semtype.Intersect(x, semtype.Complement(x))), "x & !x = never")
			assert.True(t, semtype.IsEquivalent(tc, x, semtype.Complement(semtype.Complement(x))), "!!x = x")
			assert.True(t, semtype.IsSubtype(tc, x, semtype.Top))
			assert.True(t, semtype.IsSubtype(tc, semtype.Never, x))
		})
		for name2, y := range types {
			t.Run(name+" and "+name2, func(t *testing.T) {
				union, intersect := semtype.Union(x, y), semtype.Intersect(x, y)
				assert.True(t, semtype.IsEquivalent(tc, union, semtype.Union(y, x)))
				assert.True(t, semtype.IsEquivalent(tc, intersect, semtype.Intersect(y, x)))
				assert.True(t, semtype.IsSubtype(tc, x, union))
				assert.True(t, semtype.IsSubtype(tc, intersect, x))
				assert.True(t, semtype.IsEquivalent(tc, semtype.Diff(x, y), semtype.Intersect(x, semtype.Complement(y))))
				assert.True(t, semtype.IsEquivalent(tc,
					semtype.Complement(union),
					semtype.Intersect(semtype.Complement(x), semtype.Complement(y))), "De Morgan")
			})
		}
	}
}

func TestAlgebraAssociativity(t *testing.T) {
	env := semtype.NewEnv()
	tc := semtype.NewContext(env)

	types := []semtype.SemType{
		semtype.Int,
		semtype.Union(semtype.String, semtype.Nil),
		semtype.Mapping,
		mustMapping(t, env, semtype.Never, field("a", semtype.Int)),
		mustMapping(t, env, semtype.Any, optional("a", semtype.String)),
		semtype.ArrayOf(env, semtype.Int),
		semtype.TupleOf(env, semtype.Int, semtype.String),
		semtype.FunctionOf(env, semtype.Int, semtype.Int),
		semtype.Complement(semtype.FunctionOf(env, semtype.String, semtype.Int)),
		semtype.ReadOnly,
		semtype.Never,
	}

	for _, a := range types {
		for _, b := range types {
			for _, c := range types {
				assert.True(t, semtype.IsEquivalent(tc,
					semtype.Union(a, semtype.Union(b, c)),
					semtype.Union(semtype.Union(a, b), c)), "union of %s, %s, %s", a, b, c)
				assert.True(t, semtype.IsEquivalent(tc,
					semtype.Intersect(a, semtype.Intersect(b, c)),
					semtype.Intersect(semtype.Intersect(a, b), c)), "intersection of %s, %s, %s", a, b, c)
			}
		}
	}
}

func TestMappingSubtyping(t *testing.T) {
	env := semtype.NewEnv()
	tc := semtype.NewContext(env)

	closedA := mustMapping(t, env, semtype.Never, field("a", semtype.Int))
	closedAWide := mustMapping(t, env, semtype.Never, field("a", semtype.Union(semtype.Int, semtype.String)))
	closedAB := mustMapping(t, env, semtype.Never, field("a", semtype.Int), field("b", semtype.String))
	openA := mustMapping(t, env, semtype.Any, field("a", semtype.Int))
	optionalA := mustMapping(t, env, semtype.Never, optional("a", semtype.Int))
	empty := mustMapping(t, env, semtype.Never)
	mapInt := mustMapping(t, env, semtype.Int)

	testCases := []struct {
		name       string
		sub, super semtype.SemType
		expected   bool
	}{
		{"{a:int} <: {a:int|string}", closedA, closedAWide, true},
		{"{a:int|string} </: {a:int}", closedAWide, closedA, false},
		{"{a:int,b:string} </: {a:int}", closedAB, closedA, false},
		{"{a:int,b:string} <: {a:int,...any}", closedAB, openA, true},
		{"{a:int,...any} </: {a:int,b:string}", openA, closedAB, false},
		{"{a:int} <: map", closedA, semtype.Mapping, true},
		{"map </: {a:int}", semtype.Mapping, closedA, false},
		{"{a?:int} </: {a:int}", optionalA, closedA, false},
		{"{a:int} <: {a?:int}", closedA, optionalA, true},
		{"{} <: {a?:int}", empty, optionalA, true},
		{"{} </: {a:int}", empty, closedA, false},
		{"{a:int} <: map<int>", closedA, mapInt, true},
		{"{a:int,b:string} </: map<int>", closedAB, mapInt, false},
		{"map<int> </: {a?:int}", mapInt, optionalA, false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, semtype.IsSubtype(tc, testCase.sub, testCase.super))
		})
	}
}

func TestMappingMultipleNegatives(t *testing.T) {
	env := semtype.NewEnv()
	tc := semtype.NewContext(env)
	mapAny := mustMapping(t, env, semtype.Any)
	mapInt := mustMapping(t, env, semtype.Int)

	withoutInt := semtype.Diff(mapAny, mapInt)
	assert.False(t, semtype.IsEmpty(tc, withoutInt))
	assert.True(t, semtype.IsEmpty(tc, semtype.Diff(withoutInt, mapAny)))
}

func TestMappingReadOnlyView(t *testing.T) {
	env := semtype.NewEnv()
	tc := semtype.NewContext(env)

	withList := mustMapping(t, env, semtype.Never, field("xs", semtype.ArrayOf(env, semtype.Int)))
	assert.False(t, semtype.IsReadOnly(withList))

	readOnly := semtype.Intersect(withList, semtype.ReadOnly)
	assert.True(t, semtype.IsReadOnly(readOnly))
	assert.False(t, semtype.IsEmpty(tc, readOnly))
	assert.True(t, semtype.IsSubtype(tc, readOnly, semtype.MappingRO))
	assert.True(t, semtype.IsSubtype(tc, readOnly, withList))
}

func TestRecursiveMappings(t *testing.T) {
	env := semtype.NewEnv()
	tc := semtype.NewContext(env)

	// type L = {next: L}
	loopDef := &semtype.MappingDefinition{}
	loop, err := loopDef.Define(env, []semtype.Field{field("next", loopDef.SemType(env))}, semtype.Never)
	require.NoError(t, err)
	assert.True(t, semtype.IsEmpty(tc, loop))

	// type N = {next: N|nil}
	nodeDef := &semtype.MappingDefinition{}
	node, err := nodeDef.Define(env, []semtype.Field{
		field("next", semtype.Union(nodeDef.SemType(env), semtype.Nil)),
	}, semtype.Never)
	require.NoError(t, err)
	assert.False(t, semtype.IsEmpty(tc, node))

	// type O = {next?: O}
	optionalDef := &semtype.MappingDefinition{}
	optionalLoop, err := optionalDef.Define(env, []semtype.Field{
		optional("next", optionalDef.SemType(env)),
	}, semtype.Never)
	require.NoError(t, err)
	assert.False(t, semtype.IsEmpty(tc, optionalLoop))

	require.NoError(t, env.Validate())
	assert.True(t, semtype.IsSubtype(tc, node, semtype.Mapping))
	assert.True(t, semtype.IsSubtype(tc, loop, node))
	assert.False(t, semtype.IsSubtype(tc, node, loop))
}

func TestMutuallyRecursiveMappings(t *testing.T) {
	env := semtype.NewEnv()
	tc := semtype.NewContext(env)

	// type A = {b: B|nil}; type B = {a: A}
	aDef, bDef := &semtype.MappingDefinition{}, &semtype.MappingDefinition{}
	a, err := aDef.Define(env, []semtype.Field{field("b", semtype.Union(bDef.SemType(env), semtype.Nil))}, semtype.Never)
	require.NoError(t, err)
	b, err := bDef.Define(env, []semtype.Field{field("a", aDef.SemType(env))}, semtype.Never)
	require.NoError(t, err)

	assert.False(t, semtype.IsEmpty(tc, a))
	assert.False(t, semtype.IsEmpty(tc, b))
	assert.False(t, semtype.IsSubtype(tc, a, b))
}

func TestMappingDefinitionDefinedTwice(t *testing.T) {
	env := semtype.NewEnv()
	def := &semtype.MappingDefinition{}
	_, err := def.Define(env, nil, semtype.Never)
	require.NoError(t, err)
	_, err = def.Define(env, nil, semtype.Never)
	assert.ErrorIs(t, err, semtype.ErrSlotAlreadyDefined)

	_, err = semtype.MappingOf(env, []semtype.Field{field("a", semtype.Int), field("a", semtype.String)}, semtype.Never)
	assert.ErrorIs(t, err, semtype.ErrMalformedAtomicType)
}

func TestListSubtyping(t *testing.T) {
	env := semtype.NewEnv()
	tc := semtype.NewContext(env)

	intArray := semtype.ArrayOf(env, semtype.Int)
	intOrStringArray := semtype.ArrayOf(env, semtype.Union(semtype.Int, semtype.String))
	pair := semtype.TupleOf(env, semtype.Int, semtype.Int)
	single := semtype.TupleOf(env, semtype.Int)
	emptyTuple := semtype.TupleOf(env)
	atLeastOne := semtype.ListOf(env, []semtype.SemType{semtype.Int}, semtype.Int)

	testCases := []struct {
		name       string
		sub, super semtype.SemType
		expected   bool
	}{
		{"[int,int] <: [int...]", pair, intArray, true},
		{"[int...] <: [int|string...]", intArray, intOrStringArray, true},
		{"[int|string...] </: [int...]", intOrStringArray, intArray, false},
		{"[int...] </: [int,int]", intArray, pair, false},
		{"[int,int...] </: [int,int]", atLeastOne, pair, false},
		{"[int...] <: [] | [int,int...]", intArray, semtype.Union(emptyTuple, atLeastOne), true},
		{"[int...] </: [] | [int,int]", intArray, semtype.Union(emptyTuple, pair), false},
		{"[int,int...] <: [int] | [int,int] | [int,int,int...]", atLeastOne,
			semtype.UnionOf(single, pair, semtype.ListOf(env, []semtype.SemType{semtype.Int, semtype.Int}, semtype.Int)), true},
		{"[int] </: [int,int...] minus [int]", single, semtype.Diff(atLeastOne, single), false},
		{"[int,int] <: list", pair, semtype.List, true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, semtype.IsSubtype(tc, testCase.sub, testCase.super))
		})
	}

	assert.True(t, semtype.IsEmpty(tc, semtype.Intersect(single, pair)), "lengths differ")
	assert.False(t, semtype.IsEmpty(tc, semtype.Diff(atLeastOne, pair)))
}

func TestRecursiveList(t *testing.T) {
	env := semtype.NewEnv()
	tc := semtype.NewContext(env)

	// type J = nil | int | [J...]
	def := &semtype.ListDefinition{}
	json := semtype.UnionOf(semtype.Nil, semtype.Int, def.SemType(env))
	def.Define(env, nil, json)

	assert.False(t, semtype.IsEmpty(tc, json))
	nested := semtype.ArrayOf(env, semtype.ArrayOf(env, semtype.Int))
	assert.True(t, semtype.IsSubtype(tc, nested, json))
	assert.False(t, semtype.IsSubtype(tc, semtype.ArrayOf(env, semtype.String), json))

	// type P = [P]
	loopDef := &semtype.ListDefinition{}
	loop := loopDef.Define(env, []semtype.SemType{loopDef.SemType(env)}, semtype.Never)
	assert.True(t, semtype.IsEmpty(tc, loop))
}

func TestFunctionSubtyping(t *testing.T) {
	env := semtype.NewEnv()
	tc := semtype.NewContext(env)
	intOrString := semtype.Union(semtype.Int, semtype.String)

	wideToNarrow := semtype.FunctionOf(env, intOrString, semtype.Int)
	narrowToWide := semtype.FunctionOf(env, semtype.Int, intOrString)
	intToInt := semtype.FunctionOf(env, semtype.Int, semtype.Int)
	stringToString := semtype.FunctionOf(env, semtype.String, semtype.String)

	testCases := []struct {
		name       string
		sub, super semtype.SemType
		expected   bool
	}{
		{"contravariant parameter", wideToNarrow, narrowToWide, true},
		{"not the other way round", narrowToWide, wideToNarrow, false},
		{"overloaded intersection", semtype.Intersect(intToInt, stringToString), semtype.FunctionOf(env, intOrString, intOrString), true},
		{"intersection is not a single arrow", semtype.Intersect(intToInt, stringToString), semtype.FunctionOf(env, intOrString, semtype.Int), false},
		{"everything accepts never", semtype.Function, semtype.FunctionOf(env, semtype.Never, semtype.Int), true},
		{"arrow <: function", intToInt, semtype.Function, true},
		{"function </: arrow", semtype.Function, intToInt, false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, semtype.IsSubtype(tc, testCase.sub, testCase.super))
		})
	}
}

func TestUnresolvedDefinitionFails(t *testing.T) {
	env := semtype.NewEnv()
	tc := semtype.NewContext(env)
	def := &semtype.FunctionDefinition{}
	pending := def.SemType(env)

	assert.ErrorIs(t, env.Validate(), semtype.ErrUnresolvedDefinitions)

	var err error
	func() {
		defer semtype.CatchFailure(&err)
		semtype.IsEmpty(tc, pending)
	}()
	var unresolved *semtype.UnresolvedRecAtomError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, semtype.KindFunction, unresolved.Slot.Kind)
}

func TestConcurrentQueriesAgree(t *testing.T) {
	env := semtype.NewEnv()
	nodeDef := &semtype.MappingDefinition{}
	node, err := nodeDef.Define(env, []semtype.Field{
		field("value", semtype.Int),
		field("next", semtype.Union(nodeDef.SemType(env), semtype.Nil)),
	}, semtype.Never)
	require.NoError(t, err)
	queries := []struct{ sub, super semtype.SemType }{
		{node, semtype.Mapping},
		{semtype.Mapping, node},
		{node, mustMapping(t, env, semtype.Never, field("value", semtype.Int), field("next", semtype.Top))},
		{semtype.ArrayOf(env, node), semtype.ArrayOf(env, semtype.Mapping)},
	}

	expected := make([]bool, len(queries))
	sequential := semtype.NewContext(env)
	for i, query := range queries {
		expected[i] = semtype.IsSubtype(sequential, query.sub, query.super)
	}

	const workers = 8
	results := make([][]bool, workers)
	group := errgroup.Group{}
	for w := range workers {
		group.Go(func() error {
			tc := semtype.NewContext(env)
			for _, query := range queries {
				results[w] = append(results[w], semtype.IsSubtype(tc, query.sub, query.super))
			}
			return nil
		})
	}
	require.NoError(t, group.Wait())
	for _, result := range results {
		assert.Equal(t, expected, result)
	}
}

func TestDescribe(t *testing.T) {
	env := semtype.NewEnv()
	def := &semtype.MappingDefinition{}
	node, err := def.Define(env, []semtype.Field{
		field("next", semtype.Union(def.SemType(env), semtype.Nil)),
		optional("tag", semtype.String),
	}, semtype.Never)
	require.NoError(t, err)

	described := env.Describe(node)
	assert.Contains(t, described, "mapping@2 = {next: nil|mapping_ro(@1)|mapping_rw(@2), tag?: string}")
	assert.Contains(t, described, "mapping@1 = {next: nil|mapping_ro(@1), tag?: string}")
}
