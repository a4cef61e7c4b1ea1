// Package typedefs loads named type definitions and subtyping assertions
// from a TOML file into a semtype.Env.
package typedefs

import (
	"fmt"
	"github.com/BurntSushi/toml"
	"github.com/cottand/semtype/internal/log"
	"github.com/cottand/semtype/semtype"
	"github.com/cottand/semtype/util"
)

var logger = log.DefaultLogger.With("section", "typedefs")

// File is the TOML layout of a definitions file
type File struct {
	Types  map[string]TypeDecl `toml:"types"`
	Checks []CheckDecl         `toml:"check"`
}

type TypeDecl struct {
	Kind string `toml:"kind"`

	// record
	Fields   map[string]string `toml:"fields"`
	Optional []string          `toml:"optional"`
	// record and list, never when absent
	Rest string `toml:"rest"`
	// list
	Members []string `toml:"members"`
	// function
	Param  string `toml:"param"`
	Return string `toml:"return"`
	// union and intersection
	Of []string `toml:"of"`
	// not and alias
	Type string `toml:"type"`
}

type CheckDecl struct {
	Name  string `toml:"name"`
	Sub   string `toml:"sub"`
	Super string `toml:"super"`
	Empty string `toml:"empty"`
	// true when absent
	Expect *bool `toml:"expect"`
}

// Definitions is the result of loading a definitions file
type Definitions struct {
	Env    *semtype.Env
	Types  map[string]semtype.SemType
	Checks []*Check

	resolver *resolver
}

// Names lists the declared types in order
func (d *Definitions) Names() []string {
	return util.SortedKeys(d.Types)
}

// Resolve reads a type reference against the loaded and predefined names.
// It is safe for concurrent use.
func (d *Definitions) Resolve(ref string) (semtype.SemType, error) {
	// every declared name is resolved by now, so the copy only reads the
	// shared maps and collects its own errors
	r := *d.resolver
	r.errs = nil
	t := r.resolveRef(ref, "query")
	if r.errs.HasError() {
		return semtype.Never, r.errs
	}
	return t, nil
}

// Decode loads definitions from TOML source
func Decode(source string) (*Definitions, error) {
	var file File
	meta, err := toml.Decode(source, &file)
	if err != nil {
		return nil, (&Errors{}).With(newError(NewDecode{From: err}))
	}
	return build(file, meta)
}

// LoadFile loads definitions from the TOML file at path
func LoadFile(path string) (*Definitions, error) {
	var file File
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, (&Errors{}).With(newError(NewDecode{From: err}))
	}
	logger.Debug("decoded definitions", "path", path, "types", len(file.Types), "checks", len(file.Checks))
	return build(file, meta)
}

func build(file File, meta toml.MetaData) (*Definitions, error) {
	var errs *Errors
	for _, key := range meta.Undecoded() {
		errs = errs.With(newError(NewUnknownKey{Key: key.String()}))
	}

	env := semtype.NewEnv()
	r := newResolver(env, file.Types)
	r.resolveAll()
	errs = errs.Merge(r.errs)

	defs := &Definitions{
		Env:      env,
		Types:    r.types,
		resolver: r,
	}
	r.errs = nil
	for i, decl := range file.Checks {
		defs.Checks = append(defs.Checks, r.check(i, decl))
	}
	errs = errs.Merge(r.errs)

	// unfilled definitions follow from earlier diagnostics, so only report them alone
	if !errs.HasError() {
		if err := env.Validate(); err != nil {
			errs = errs.With(newError(NewUnresolvedDefinition{From: err}))
		}
	}
	if errs.HasError() {
		logger.Warn("invalid definitions", "errors", errs)
		return nil, errs
	}
	return defs, nil
}

type CheckKind int

const (
	CheckSubtype CheckKind = iota
	CheckEmpty
)

// Check is an assertion about the loaded types: either Left is a subtype of
// Right, or Left is empty
type Check struct {
	Name   string
	Kind   CheckKind
	Left   semtype.SemType
	Right  semtype.SemType
	Expect bool
}

func (c *Check) String() string {
	return c.Name
}

// Evaluate answers the check with tc. Whether it passes is Evaluate's result
// compared with Expect.
func (c *Check) Evaluate(tc *semtype.Context) (result bool, err error) {
	defer semtype.CatchFailure(&err)
	if c.Kind == CheckEmpty {
		return semtype.IsEmpty(tc, c.Left), nil
	}
	return semtype.IsSubtype(tc, c.Left, c.Right), nil
}

func (r *resolver) check(i int, decl CheckDecl) *Check {
	in := fmt.Sprintf("check #%d", i)
	c := &Check{Name: decl.Name, Expect: decl.Expect == nil || *decl.Expect}

	switch {
	case decl.Empty != "" && decl.Sub == "" && decl.Super == "":
		c.Kind = CheckEmpty
		c.Left = r.resolveRef(decl.Empty, in)
		if c.Name == "" {
			c.Name = fmt.Sprintf("empty(%s)", decl.Empty)
		}
	case decl.Empty == "" && decl.Sub != "" && decl.Super != "":
		c.Kind = CheckSubtype
		c.Left = r.resolveRef(decl.Sub, in)
		c.Right = r.resolveRef(decl.Super, in)
		if c.Name == "" {
			c.Name = fmt.Sprintf("%s <: %s", decl.Sub, decl.Super)
		}
	default:
		r.errs = r.errs.With(newError(NewMissingAttribute{In: in, Attribute: "either 'sub' and 'super', or 'empty'"}))
	}
	if !c.Expect {
		c.Name = "not " + c.Name
	}
	return c
}
