// Package tree defines the in-memory document model shared by codecs: ordered
// objects, arrays, strings, numbers, booleans and null.
//
// Value space:
//
//	*Object      JSON object, keys in insertion order
//	[]any        JSON array
//	string       JSON string
//	json.Number  JSON number (text preserved)
//	bool         JSON boolean
//	nil          JSON null
//
// Normalize converts foreign Go shapes (map[string]any, float64, int, ...) into
// this value space.
package tree

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// Kind names used in messages.
const (
	KindObject = "object"
	KindArray  = "array"
	KindString = "string"
	KindNumber = "number"
	KindBool   = "bool"
	KindNull   = "null"
)

// KindOf returns the JSON kind of a tree value, or the Go type for values
// outside the value space.
func KindOf(v any) string {
	switch v.(type) {
	case nil:
		return KindNull
	case *Object, map[string]any:
		return KindObject
	case []any:
		return KindArray
	case string:
		return KindString
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindNumber
	case bool:
		return KindBool
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Normalize converts v into the tree value space. Maps with string keys become
// objects with sorted keys; Go numbers become json.Number. Values already in
// the value space are returned unchanged; Normalize never mutates its input.
func Normalize(v any) any {
	if inSpace(v) {
		return v
	}
	switch t := v.(type) {
	case *Object:
		o := NewObject(t.Len())
		t.Range(func(k string, vv any) bool {
			o.Set(k, Normalize(vv))
			return true
		})
		return o
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := NewObject(len(keys))
		for _, k := range keys {
			o.Set(k, Normalize(t[k]))
		}
		return o
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = Normalize(t[i])
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = Normalize(t[i])
		}
		return out
	case float64:
		return FloatNumber(t)
	case float32:
		return FloatNumber(float64(t))
	case int:
		return json.Number(strconv.FormatInt(int64(t), 10))
	case int8:
		return json.Number(strconv.FormatInt(int64(t), 10))
	case int16:
		return json.Number(strconv.FormatInt(int64(t), 10))
	case int32:
		return json.Number(strconv.FormatInt(int64(t), 10))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case uint:
		return json.Number(strconv.FormatUint(uint64(t), 10))
	case uint8:
		return json.Number(strconv.FormatUint(uint64(t), 10))
	case uint16:
		return json.Number(strconv.FormatUint(uint64(t), 10))
	case uint32:
		return json.Number(strconv.FormatUint(uint64(t), 10))
	case uint64:
		return json.Number(strconv.FormatUint(t, 10))
	default:
		return v
	}
}

// inSpace reports whether v (recursively) already uses only tree values.
func inSpace(v any) bool {
	switch t := v.(type) {
	case nil, string, bool, json.Number:
		return true
	case *Object:
		ok := true
		t.Range(func(_ string, vv any) bool {
			ok = inSpace(vv)
			return ok
		})
		return ok
	case []any:
		for _, e := range t {
			if !inSpace(e) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// FloatNumber formats f the way encoding/json does for float64 values.
// NaN and infinities have no JSON form and are returned as their Go text; the
// writer rejects them.
func FloatNumber(f float64) json.Number {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return json.Number(strconv.FormatFloat(f, 'g', -1, 64))
	}
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	b := strconv.AppendFloat(nil, f, format, -1, 64)
	if format == 'e' {
		// 1e-07 -> 1e-7, matching encoding/json
		if n := len(b); n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	return json.Number(b)
}

// Equal reports whether a and b describe the same document. Object key order
// is ignored and numbers are compared numerically when both parse as floats.
func Equal(a, b any) bool {
	a, b = Normalize(a), Normalize(b)
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case json.Number:
		y, ok := b.(json.Number)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		fx, errx := x.Float64()
		fy, erry := y.Float64()
		return errx == nil && erry == nil && fx == fy
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Object:
		y, ok := b.(*Object)
		if !ok || x.Len() != y.Len() {
			return false
		}
		eq := true
		x.Range(func(k string, xv any) bool {
			yv, ok := y.Get(k)
			if !ok || !Equal(xv, yv) {
				eq = false
			}
			return eq
		})
		return eq
	default:
		return reflect.DeepEqual(a, b)
	}
}
