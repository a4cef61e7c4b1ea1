package typedefs_test

import (
	"github.com/cottand/semtype/semtype"
	"github.com/cottand/semtype/typedefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"os"
	"path/filepath"
	"testing"
)

const people = `
[types.Person]
kind = "record"
fields = { name = "string", age = "int" }
optional = ["age"]

[types.Named]
kind = "record"
fields = { name = "string" }
rest = "any"

[types.Node]
kind = "record"
fields = { value = "int", next = "Node|nil" }

[types.Loop]
kind = "record"
fields = { next = "Loop" }

[types.Json]
kind = "union"
of = ["nil", "boolean", "int", "string", "JsonList", "JsonMap"]

[types.JsonList]
kind = "list"
rest = "Json"

[types.JsonMap]
kind = "record"
rest = "Json"

[types.Pair]
kind = "list"
members = ["int", "string"]

[types.Handler]
kind = "function"
param = "int|string"
return = "int"

[types.NotNil]
kind = "not"
type = "nil"

[types.Scalar]
kind = "alias"
type = "int | string & !nil"

[[check]]
sub = "Person"
super = "Named"

[[check]]
sub = "Named"
super = "Person"
expect = false

[[check]]
empty = "Loop"

[[check]]
name = "nodes exist"
empty = "Node"
expect = false

[[check]]
sub = "Pair"
super = "JsonList"

[[check]]
sub = "Node"
super = "JsonMap"

[[check]]
sub = "Handler"
super = "function"
`

func TestDecodeAndEvaluate(t *testing.T) {
	defs, err := typedefs.Decode(people)
	require.NoError(t, err)
	assert.Equal(t, []string{"Handler", "Json", "JsonList", "JsonMap", "Loop", "Named", "Node", "NotNil", "Pair", "Person", "Scalar"}, defs.Names())
	require.Len(t, defs.Checks, 7)

	tc := semtype.NewContext(defs.Env)
	for _, check := range defs.Checks {
		t.Run(check.Name, func(t *testing.T) {
			result, err := check.Evaluate(tc)
			require.NoError(t, err)
			assert.Equal(t, check.Expect, result)
		})
	}
}

func TestCheckNames(t *testing.T) {
	defs, err := typedefs.Decode(people)
	require.NoError(t, err)

	assert.Equal(t, "Person <: Named", defs.Checks[0].Name)
	assert.Equal(t, "not Named <: Person", defs.Checks[1].Name)
	assert.Equal(t, "empty(Loop)", defs.Checks[2].Name)
	assert.Equal(t, "not nodes exist", defs.Checks[3].Name)
	assert.Equal(t, typedefs.CheckEmpty, defs.Checks[2].Kind)
}

func TestResolve(t *testing.T) {
	defs, err := typedefs.Decode(people)
	require.NoError(t, err)
	tc := semtype.NewContext(defs.Env)

	scalar, err := defs.Resolve("int|string")
	require.NoError(t, err)
	assert.True(t, semtype.IsEquivalent(tc, scalar, defs.Types["Scalar"]))
	assert.True(t, semtype.IsEquivalent(tc, semtype.Complement(semtype.Nil), defs.Types["NotNil"]))

	json, err := defs.Resolve("Json & !nil")
	require.NoError(t, err)
	assert.True(t, semtype.IsSubtype(tc, defs.Types["Pair"], json))
	assert.True(t, semtype.IsSubtype(tc, defs.Types["Person"], json))

	_, err = defs.Resolve("Missing")
	assert.ErrorContains(t, err, "undefined type 'Missing'")
}

func TestResolveConcurrently(t *testing.T) {
	defs, err := typedefs.Decode(people)
	require.NoError(t, err)

	refs := []string{"Json & !nil", "Missing", "Person | Pair", "Node & Loop", "int | Undeclared"}
	results := make([]error, 20*len(refs))
	g := errgroup.Group{}
	for i := range results {
		g.Go(func() error {
			_, results[i] = defs.Resolve(refs[i%len(refs)])
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for i, err := range results {
		switch refs[i%len(refs)] {
		case "Missing":
			assert.EqualError(t, err, "(E002) undefined type 'Missing' referenced in query")
		case "int | Undeclared":
			assert.EqualError(t, err, "(E002) undefined type 'Undeclared' referenced in query")
		default:
			assert.NoError(t, err)
		}
	}
}

func TestDiagnostics(t *testing.T) {
	testCases := []struct {
		name     string
		source   string
		expected []typedefs.ErrCode
	}{{
		name:     "syntax",
		source:   `[types.A`,
		expected: []typedefs.ErrCode{typedefs.DecodeFailed},
	}, {
		name: "undefined",
		source: `
[types.A]
kind = "record"
fields = { b = "B" }`,
		expected: []typedefs.ErrCode{typedefs.UndefinedType},
	}, {
		name: "cycle without a definition",
		source: `
[types.A]
kind = "union"
of = ["int", "B"]

[types.B]
kind = "alias"
type = "A"`,
		expected: []typedefs.ErrCode{typedefs.CyclicAlias},
	}, {
		name: "unknown kind",
		source: `
[types.A]
kind = "enum"`,
		expected: []typedefs.ErrCode{typedefs.UnknownKind},
	}, {
		name: "missing attributes",
		source: `
[types.F]
kind = "function"
param = "int"

[types.U]
kind = "union"`,
		expected: []typedefs.ErrCode{typedefs.MissingAttribute, typedefs.MissingAttribute},
	}, {
		name: "unknown key",
		source: `
[types.A]
kind = "record"
naem = "A"`,
		expected: []typedefs.ErrCode{typedefs.UnknownKey},
	}, {
		name: "optional field not declared",
		source: `
[types.A]
kind = "record"
fields = { a = "int" }
optional = ["b"]`,
		expected: []typedefs.ErrCode{typedefs.InvalidField},
	}, {
		name: "malformed reference",
		source: `
[[check]]
sub = "int | "
super = "int"`,
		expected: []typedefs.ErrCode{typedefs.MalformedRef},
	}, {
		name: "ambiguous check",
		source: `
[[check]]
sub = "int"
empty = "int"`,
		expected: []typedefs.ErrCode{typedefs.MissingAttribute},
	}}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := typedefs.Decode(testCase.source)
			require.Error(t, err)
			var errs *typedefs.Errors
			require.ErrorAs(t, err, &errs)

			var codes []typedefs.ErrCode
			for _, e := range errs.Errors() {
				codes = append(codes, e.Code())
			}
			assert.Equal(t, testCase.expected, codes, "got %s", errs)
		})
	}
}

func TestRecursionThroughUnionIsAllowed(t *testing.T) {
	defs, err := typedefs.Decode(`
[types.Tree]
kind = "union"
of = ["int", "Branch"]

[types.Branch]
kind = "record"
fields = { left = "Tree", right = "Tree" }

[[check]]
empty = "Branch"
expect = false
`)
	require.NoError(t, err)
	tc := semtype.NewContext(defs.Env)
	result, err := defs.Checks[0].Evaluate(tc)
	require.NoError(t, err)
	assert.False(t, result)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.toml")
	require.NoError(t, os.WriteFile(path, []byte(people), 0o600))

	defs, err := typedefs.LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, defs.Types, 11)

	_, err = typedefs.LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	var errs *typedefs.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, typedefs.DecodeFailed, errs.Errors()[0].Code())
}

func TestFormatWithCode(t *testing.T) {
	_, err := typedefs.Decode(`
[types.A]
kind = "alias"
type = "B"`)
	assert.EqualError(t, err, "(E002) undefined type 'B' referenced in type 'A'")
}
