package typedefs

import (
	"fmt"
	"github.com/cottand/semtype/semtype"
	"github.com/cottand/semtype/util"
	"github.com/hashicorp/go-set/v3"
	"slices"
	"strings"
)

const (
	kindRecord       = "record"
	kindList         = "list"
	kindFunction     = "function"
	kindUnion        = "union"
	kindIntersection = "intersection"
	kindNot          = "not"
	kindAlias        = "alias"
)

var predefined = map[string]semtype.SemType{
	"never":    semtype.Never,
	"nil":      semtype.Nil,
	"boolean":  semtype.Boolean,
	"int":      semtype.Int,
	"float":    semtype.Float,
	"decimal":  semtype.Decimal,
	"string":   semtype.String,
	"error":    semtype.Error,
	"typedesc": semtype.Typedesc,
	"handle":   semtype.Handle,
	"function": semtype.Function,
	"list":     semtype.List,
	"map":      semtype.Mapping,
	"any":      semtype.Any,
	"top":      semtype.Top,
	"readonly": semtype.ReadOnly,
}

// resolver turns declarations into SemTypes in two passes. The first gives
// every name a type, where records, lists and functions are only allocated
// as definitions. The second defines their bodies, which may then refer to
// any name, themselves included.
type resolver struct {
	env   *semtype.Env
	decls map[string]TypeDecl
	types map[string]semtype.SemType

	mappingDefs  map[string]*semtype.MappingDefinition
	listDefs     map[string]*semtype.ListDefinition
	functionDefs map[string]*semtype.FunctionDefinition

	// combinators currently being resolved, outermost first
	inProgress *set.Set[string]
	stack      []string

	errs *Errors
}

func newResolver(env *semtype.Env, decls map[string]TypeDecl) *resolver {
	return &resolver{
		env:          env,
		decls:        decls,
		types:        map[string]semtype.SemType{},
		mappingDefs:  map[string]*semtype.MappingDefinition{},
		listDefs:     map[string]*semtype.ListDefinition{},
		functionDefs: map[string]*semtype.FunctionDefinition{},
		inProgress:   set.New[string](0),
	}
}

func (r *resolver) resolveAll() {
	names := util.SortedKeys(r.decls)
	for _, name := range names {
		r.typeOf(name, "declarations")
	}
	for _, name := range names {
		switch {
		case r.mappingDefs[name] != nil:
			r.defineRecord(name, r.decls[name], r.mappingDefs[name])
		case r.listDefs[name] != nil:
			r.defineList(name, r.decls[name], r.listDefs[name])
		case r.functionDefs[name] != nil:
			r.defineFunction(name, r.decls[name], r.functionDefs[name])
		}
	}
}

func (r *resolver) typeOf(name string, in string) semtype.SemType {
	if t, ok := predefined[name]; ok {
		return t
	}
	if t, ok := r.types[name]; ok {
		return t
	}
	decl, ok := r.decls[name]
	if !ok {
		r.errs = r.errs.With(newError(NewUndefinedType{Name: name, In: in}))
		return semtype.Never
	}

	var t semtype.SemType
	switch decl.Kind {
	case kindRecord:
		def := &semtype.MappingDefinition{}
		r.mappingDefs[name] = def
		t = def.SemType(r.env)
	case kindList:
		def := &semtype.ListDefinition{}
		r.listDefs[name] = def
		t = def.SemType(r.env)
	case kindFunction:
		def := &semtype.FunctionDefinition{}
		r.functionDefs[name] = def
		t = def.SemType(r.env)
	case kindUnion, kindIntersection, kindNot, kindAlias:
		if r.inProgress.Contains(name) {
			cycle := append(slices.Clone(r.stack[slices.Index(r.stack, name):]), name)
			r.errs = r.errs.With(newError(NewCyclicAlias{Cycle: cycle}))
			return semtype.Never
		}
		r.inProgress.Insert(name)
		r.stack = append(r.stack, name)
		t = r.combinator(name, decl)
		r.stack = r.stack[:len(r.stack)-1]
		r.inProgress.Remove(name)
	default:
		r.errs = r.errs.With(newError(NewUnknownKind{Name: name, Kind: decl.Kind}))
		t = semtype.Never
	}
	logger.Debug("resolved type", "name", name, "kind", decl.Kind, "type", t)
	r.types[name] = t
	return t
}

func (r *resolver) combinator(name string, decl TypeDecl) semtype.SemType {
	in := fmt.Sprintf("type '%s'", name)
	switch decl.Kind {
	case kindUnion, kindIntersection:
		if len(decl.Of) == 0 {
			r.errs = r.errs.With(newError(NewMissingAttribute{In: in, Attribute: "of"}))
			return semtype.Never
		}
		operands := make([]semtype.SemType, len(decl.Of))
		for i, ref := range decl.Of {
			operands[i] = r.resolveRef(ref, in)
		}
		if decl.Kind == kindUnion {
			return semtype.UnionOf(operands...)
		}
		return semtype.IntersectOf(operands...)
	default:
		if decl.Type == "" {
			r.errs = r.errs.With(newError(NewMissingAttribute{In: in, Attribute: "type"}))
			return semtype.Never
		}
		t := r.resolveRef(decl.Type, in)
		if decl.Kind == kindNot {
			return semtype.Complement(t)
		}
		return t
	}
}

// resolveRef reads a reference of the form "A | B & !C", where & binds
// tighter than | and ! applies to a single name
func (r *resolver) resolveRef(ref string, in string) semtype.SemType {
	result := semtype.Never
	for _, term := range strings.Split(ref, "|") {
		termType := semtype.Top
		for _, factor := range strings.Split(term, "&") {
			factor = strings.TrimSpace(factor)
			negated := strings.HasPrefix(factor, "!")
			name := strings.TrimSpace(strings.TrimPrefix(factor, "!"))
			if name == "" || strings.ContainsAny(name, " \t!") {
				r.errs = r.errs.With(newError(NewMalformedRef{Ref: ref, In: in}))
				return semtype.Never
			}
			t := r.typeOf(name, in)
			if negated {
				t = semtype.Complement(t)
			}
			termType = semtype.Intersect(termType, t)
		}
		result = semtype.Union(result, termType)
	}
	return result
}

func (r *resolver) restOf(decl TypeDecl, in string) semtype.SemType {
	if decl.Rest == "" {
		return semtype.Never
	}
	return r.resolveRef(decl.Rest, in)
}

func (r *resolver) defineRecord(name string, decl TypeDecl, def *semtype.MappingDefinition) {
	in := fmt.Sprintf("type '%s'", name)
	optional := set.From(decl.Optional)
	for _, fieldName := range decl.Optional {
		if _, ok := decl.Fields[fieldName]; !ok {
			r.errs = r.errs.With(newError(NewInvalidField{Type: name, Field: fieldName, Reason: "listed as optional but not declared"}))
		}
	}

	fields := make([]semtype.Field, 0, len(decl.Fields))
	for _, fieldName := range util.SortedKeys(decl.Fields) {
		fieldIn := fmt.Sprintf("field '%s' of %s", fieldName, in)
		fields = append(fields, semtype.Field{
			Name:     fieldName,
			Type:     r.resolveRef(decl.Fields[fieldName], fieldIn),
			Optional: optional.Contains(fieldName),
		})
	}
	if _, err := def.Define(r.env, fields, r.restOf(decl, in)); err != nil {
		r.errs = r.errs.With(newError(Unclassified{From: err}))
	}
}

func (r *resolver) defineList(name string, decl TypeDecl, def *semtype.ListDefinition) {
	in := fmt.Sprintf("type '%s'", name)
	members := make([]semtype.SemType, len(decl.Members))
	for i, ref := range decl.Members {
		members[i] = r.resolveRef(ref, fmt.Sprintf("member %d of %s", i, in))
	}
	def.Define(r.env, members, r.restOf(decl, in))
}

func (r *resolver) defineFunction(name string, decl TypeDecl, def *semtype.FunctionDefinition) {
	in := fmt.Sprintf("type '%s'", name)
	required := func(attribute, ref string) semtype.SemType {
		if ref == "" {
			r.errs = r.errs.With(newError(NewMissingAttribute{In: in, Attribute: attribute}))
			return semtype.Never
		}
		return r.resolveRef(ref, in)
	}
	param := required("param", decl.Param)
	ret := required("return", decl.Return)
	def.Define(r.env, param, ret)
}
