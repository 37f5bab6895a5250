// Package query builds declarative read requests against catalogue
// collections.
//
// A Request names a collection, a field-selection tree and an optional
// filter. It carries no knowledge of the remote schema: invalid field paths
// are reported by the service, not here.
package query

import (
	"net/url"
	"slices"
	"strings"

	"github.com/go-faster/errors"

	"github.com/spheraeng/catalogue-client/internal/jsonval"
)

// Wildcard selects all scalar fields of a level.
const Wildcard = "*"

// All selects all scalar fields of the current level.
var All = Path(Wildcard)

// Field is one entry of a field selection: either a plain (possibly dotted)
// path or a nested selection under a relation.
type Field struct {
	path   string
	nested []Field
}

// Path selects a plain or dotted field path such as "product.tests.item.*".
func Path(p string) Field {
	return Field{path: p}
}

// Nested selects fields of a related collection. Without fields it selects
// every scalar field of the relation.
func Nested(relation string, fields ...Field) Field {
	if len(fields) == 0 {
		fields = []Field{All}
	}
	return Field{path: relation, nested: fields}
}

// Paths flattens the selection into dotted paths.
func (f Field) Paths() []string {
	if f.nested == nil {
		return []string{f.path}
	}
	var out []string
	for _, n := range f.nested {
		for _, p := range n.Paths() {
			out = append(out, f.path+"."+p)
		}
	}
	return out
}

// Op is a filter comparison operator.
type Op string

// Supported filter operators.
const (
	OpEq      Op = "_eq"
	OpNeq     Op = "_neq"
	OpIn      Op = "_in"
	OpNotNull Op = "_nnull"
)

// Condition compares a field against a value.
type Condition struct {
	Op    Op
	Value any
}

// Eq matches fields equal to v. Equality is the implicit operator.
func Eq(v any) Condition { return Condition{Op: OpEq, Value: v} }

// Neq matches fields not equal to v.
func Neq(v any) Condition { return Condition{Op: OpNeq, Value: v} }

// NotNull matches fields that are present and non-null.
func NotNull() Condition { return Condition{Op: OpNotNull, Value: true} }

// In matches fields whose value is a member of values.
func In(values ...string) Condition {
	arr := make(jsonval.Array, len(values))
	for i, v := range values {
		arr[i] = v
	}
	return Condition{Op: OpIn, Value: arr}
}

// Filter maps a dotted field path to its condition.
type Filter map[string]Condition

// Tree expands dotted paths into nested objects, the form the service
// expects: "product.tests.collection" becomes
// {"product":{"tests":{"collection":{"_eq":...}}}}.
func (f Filter) Tree() jsonval.Object {
	root := jsonval.Object{}
	for path, cond := range f {
		node := root
		for _, part := range strings.Split(path, ".") {
			child, ok := node[part].(jsonval.Object)
			if !ok {
				child = jsonval.Object{}
				node[part] = child
			}
			node = child
		}
		op := cond.Op
		if op == "" {
			op = OpEq
		}
		node[string(op)] = cond.Value
	}
	return root
}

// Request describes a read of a collection.
type Request struct {
	Collection string
	Fields     []Field
	Filter     Filter
}

// Path returns the REST path of the collection.
func (r Request) Path() string {
	return "/items/" + url.PathEscape(r.Collection)
}

// FieldPaths flattens the field selection, preserving order and dropping
// duplicates.
func (r Request) FieldPaths() []string {
	var out []string
	for _, f := range r.Fields {
		for _, p := range f.Paths() {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// Values encodes the request as URL query parameters.
func (r Request) Values() (url.Values, error) {
	v := url.Values{}
	if paths := r.FieldPaths(); len(paths) > 0 {
		v.Set("fields", strings.Join(paths, ","))
	}
	if len(r.Filter) > 0 {
		raw, err := jsonval.Marshal(r.Filter.Tree())
		if err != nil {
			return nil, errors.Wrap(err, "encode filter")
		}
		v.Set("filter", string(raw))
	}
	return v, nil
}
