package typedefs

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
)

// enableDebugErrorPrinting makes errors include the line that raised them
const enableDebugErrorPrinting bool = false

type ErrCode int

const (
	None ErrCode = iota
	DecodeFailed
	UndefinedType
	CyclicAlias
	UnknownKind
	MissingAttribute
	UnknownKey
	InvalidField
	MalformedRef
	UnresolvedDefinition
)

type DefError interface {
	Error() string
	Code() ErrCode

	withStack([]byte) DefError
	getStack() []byte
}

func FormatWithCode(e DefError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := strings.Split(string(e.getStack()), "\n")
		if len(stack) > 6 {
			return fmt.Sprintf("%s:(E%03d) %s", strings.TrimSpace(stack[6]), e.Code(), e.Error())
		}
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

func newError[E DefError](err E) DefError {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From  error
	stack []byte
}

func (e Unclassified) Error() string    { return e.From.Error() }
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) Unwrap() error    { return e.From }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) DefError {
	e.stack = stack
	return e
}

type NewDecode struct {
	From  error
	stack []byte
}

func (e NewDecode) Error() string    { return fmt.Sprintf("could not decode definitions: %v", e.From) }
func (e NewDecode) Code() ErrCode    { return DecodeFailed }
func (e NewDecode) Unwrap() error    { return e.From }
func (e NewDecode) getStack() []byte { return e.stack }
func (e NewDecode) withStack(stack []byte) DefError {
	e.stack = stack
	return e
}

type NewUndefinedType struct {
	Name  string
	In    string
	stack []byte
}

func (e NewUndefinedType) Error() string {
	return fmt.Sprintf("undefined type '%s' referenced in %s", e.Name, e.In)
}
func (e NewUndefinedType) Code() ErrCode    { return UndefinedType }
func (e NewUndefinedType) getStack() []byte { return e.stack }
func (e NewUndefinedType) withStack(stack []byte) DefError {
	e.stack = stack
	return e
}

type NewCyclicAlias struct {
	Cycle []string
	stack []byte
}

func (e NewCyclicAlias) Error() string {
	return fmt.Sprintf("type '%s' is defined in terms of itself without going through a record, list or function: %s",
		e.Cycle[0], strings.Join(e.Cycle, " -> "))
}
func (e NewCyclicAlias) Code() ErrCode    { return CyclicAlias }
func (e NewCyclicAlias) getStack() []byte { return e.stack }
func (e NewCyclicAlias) withStack(stack []byte) DefError {
	e.stack = stack
	return e
}

type NewUnknownKind struct {
	Name  string
	Kind  string
	stack []byte
}

func (e NewUnknownKind) Error() string {
	return fmt.Sprintf("type '%s' has unknown kind '%s'", e.Name, e.Kind)
}
func (e NewUnknownKind) Code() ErrCode    { return UnknownKind }
func (e NewUnknownKind) getStack() []byte { return e.stack }
func (e NewUnknownKind) withStack(stack []byte) DefError {
	e.stack = stack
	return e
}

type NewMissingAttribute struct {
	In        string
	Attribute string
	stack     []byte
}

func (e NewMissingAttribute) Error() string {
	return fmt.Sprintf("%s is missing '%s'", e.In, e.Attribute)
}
func (e NewMissingAttribute) Code() ErrCode    { return MissingAttribute }
func (e NewMissingAttribute) getStack() []byte { return e.stack }
func (e NewMissingAttribute) withStack(stack []byte) DefError {
	e.stack = stack
	return e
}

type NewUnknownKey struct {
	Key   string
	stack []byte
}

func (e NewUnknownKey) Error() string    { return fmt.Sprintf("unknown key '%s'", e.Key) }
func (e NewUnknownKey) Code() ErrCode    { return UnknownKey }
func (e NewUnknownKey) getStack() []byte { return e.stack }
func (e NewUnknownKey) withStack(stack []byte) DefError {
	e.stack = stack
	return e
}

type NewInvalidField struct {
	Type   string
	Field  string
	Reason string
	stack  []byte
}

func (e NewInvalidField) Error() string {
	return fmt.Sprintf("field '%s' of type '%s': %s", e.Field, e.Type, e.Reason)
}
func (e NewInvalidField) Code() ErrCode    { return InvalidField }
func (e NewInvalidField) getStack() []byte { return e.stack }
func (e NewInvalidField) withStack(stack []byte) DefError {
	e.stack = stack
	return e
}

type NewMalformedRef struct {
	Ref   string
	In    string
	stack []byte
}

func (e NewMalformedRef) Error() string {
	return fmt.Sprintf("malformed type reference '%s' in %s", e.Ref, e.In)
}
func (e NewMalformedRef) Code() ErrCode    { return MalformedRef }
func (e NewMalformedRef) getStack() []byte { return e.stack }
func (e NewMalformedRef) withStack(stack []byte) DefError {
	e.stack = stack
	return e
}

type NewUnresolvedDefinition struct {
	From  error
	stack []byte
}

func (e NewUnresolvedDefinition) Error() string    { return e.From.Error() }
func (e NewUnresolvedDefinition) Code() ErrCode    { return UnresolvedDefinition }
func (e NewUnresolvedDefinition) Unwrap() error    { return e.From }
func (e NewUnresolvedDefinition) getStack() []byte { return e.stack }
func (e NewUnresolvedDefinition) withStack(stack []byte) DefError {
	e.stack = stack
	return e
}

// Errors collects the diagnostics of loading a definitions file
type Errors struct {
	errs []DefError
}

func (r *Errors) With(err ...DefError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil || len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

func (r *Errors) Errors() []DefError {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) HasError() bool {
	if r == nil {
		return false
	}
	return len(r.errs) > 0
}

// Error lists every diagnostic, one per line
func (r *Errors) Error() string {
	lines := make([]string, 0, len(r.errs))
	for _, e := range r.errs {
		lines = append(lines, FormatWithCode(e))
	}
	return strings.Join(lines, "\n")
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("e", i),
			Value: slog.GroupValue(
				slog.Attr{
					Key:   "msg",
					Value: slog.StringValue(FormatWithCode(v)),
				},
			),
		})
	}
	return slog.GroupValue(vals...)
}
