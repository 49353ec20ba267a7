// Package attrs implements the typed structured-parameter variant threaded
// through the Graph Adapter: when a patch carries a structured value (a map
// of scalars), the adapter must hand the backend a native map/list literal,
// never a pre-quoted JSON string interpolated into the query text. Each
// backend's Encode implementation decides how its own driver wants a
// scalar/map/list represented, instead of the caller guessing.
package attrs

import "fmt"

// Kind discriminates the three shapes a Value can hold.
type Kind int

const (
	KindScalar Kind = iota
	KindMap
	KindList
)

// Value is a typed variant threaded through the Graph Adapter for any
// attribute that is not a plain scalar Go value. A zero Value is an empty
// scalar (nil).
type Value struct {
	kind   Kind
	scalar any
	m      map[string]Value
	list   []Value
}

// Scalar wraps a plain value (string, number, bool, nil) as a Value.
func Scalar(v any) Value { return Value{kind: KindScalar, scalar: v} }

// Map wraps a map of named values as a Value. The caller's map is copied
// key-by-key; mutating it after the call does not affect the Value.
func Map(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, m: cp}
}

// List wraps an ordered sequence of values as a Value.
func List(vs []Value) Value {
	cp := make([]Value, len(vs))
	copy(cp, vs)
	return Value{kind: KindList, list: cp}
}

// Kind reports which shape v holds.
func (v Value) Kind() Kind { return v.kind }

// AsScalar returns v's scalar payload and true, or (nil, false) if v is
// not a scalar.
func (v Value) AsScalar() (any, bool) {
	if v.kind != KindScalar {
		return nil, false
	}
	return v.scalar, true
}

// AsMap returns v's map payload and true, or (nil, false) if v is not a
// map. The returned map is the Value's own backing map; callers must not
// mutate it.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// AsList returns v's list payload and true, or (nil, false) if v is not a
// list.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// Native converts v into a plain Go value built from map[string]any and
// []any — the shape every backend driver in this module accepts as a
// native parameter (pgx jsonb args, badger's own JSON encoder), never as
// a pre-serialized JSON string. This is the function that prevents the
// "quoted JSON string" bug: callers pass Native's result straight to the
// driver, which encodes it itself.
func (v Value) Native() any {
	switch v.kind {
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, sub := range v.m {
			out[k] = sub.Native()
		}
		return out
	case KindList:
		out := make([]any, len(v.list))
		for i, sub := range v.list {
			out[i] = sub.Native()
		}
		return out
	default:
		return v.scalar
	}
}

// String implements fmt.Stringer for debugging; it is never used to
// serialize a Value for a backend call.
func (v Value) String() string {
	return fmt.Sprintf("%v", v.Native())
}
