package codec

import (
	"encoding/json"
	"reflect"

	polyjson "github.com/reoring/polyjson"
	"github.com/reoring/polyjson/i18n"
	"github.com/reoring/polyjson/tree"
)

// Passthrough returns a Provider that keeps values of type t as tree values
// without reflection. t must be an empty interface type (named or not),
// *tree.Object or []any; other types make the provider abstain.
//
// Encoding normalizes the value (map[string]any becomes an object with
// sorted keys) and rejects anything outside the tree value space. Decoding
// stores the document as is.
func Passthrough(t reflect.Type) polyjson.Provider {
	return passthroughProvider{t: t}
}

type passthroughProvider struct{ t reflect.Type }

func (p passthroughProvider) Create(_ *polyjson.Mapper, t reflect.Type) polyjson.TreeCodec {
	if t != p.t || !passthroughable(t) {
		return nil
	}
	return passthroughCodec{t: t}
}

func passthroughable(t reflect.Type) bool {
	switch {
	case t == nil:
		return false
	case t.Kind() == reflect.Interface:
		return t.NumMethod() == 0
	case t == reflect.TypeFor[*tree.Object](), t == reflect.TypeFor[[]any]():
		return true
	}
	return false
}

type passthroughCodec struct{ t reflect.Type }

func (c passthroughCodec) Encode(v reflect.Value) (any, error) {
	if isNil(v) {
		return nil, nil
	}
	doc := tree.Normalize(v.Interface())
	if !inTree(doc) {
		return nil, mismatch(polyjson.ErrSerialization, "tree value", tree.KindOf(doc))
	}
	return doc, nil
}

func (c passthroughCodec) Decode(doc any, dst reflect.Value) error {
	if doc == nil {
		dst.SetZero()
		return nil
	}
	dv := reflect.ValueOf(doc)
	if !dv.Type().AssignableTo(c.t) {
		return mismatch(polyjson.ErrDeserialization, c.t.String(), tree.KindOf(doc))
	}
	dst.Set(dv)
	return nil
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	}
	return false
}

func inTree(v any) bool {
	switch x := v.(type) {
	case nil, string, bool, json.Number:
		return true
	case *tree.Object:
		ok := true
		x.Range(func(_ string, e any) bool {
			ok = inTree(e)
			return ok
		})
		return ok
	case []any:
		for _, e := range x {
			if !inTree(e) {
				return false
			}
		}
		return true
	}
	return false
}

func mismatch(kind error, expected, got string) polyjson.Issues {
	data := map[string]string{"expected": expected, "got": got}
	return polyjson.Issues{{
		Kind:    kind,
		Path:    "/",
		Code:    polyjson.CodeInvalidType,
		Message: i18n.T(polyjson.CodeInvalidType, data),
	}}
}
