package polyjson

import (
	"reflect"

	js "github.com/reoring/polyjson/jsonschema"
)

// JSONSchema describes the wire contract of T: one oneOf entry per label
// whose discriminator property is constant, plus an OpenAPI discriminator
// mapping labels to variant titles. Variant properties are derived from the
// subtypes' exported fields.
//
// The schema describes what encoding writes: the discriminator is always a
// string. It is stricter than decoding, which also accepts number and boolean
// discriminators by their JSON text.
func (p *Polymorphic[T]) JSONSchema() *js.Schema {
	out := &js.Schema{
		Title:         p.reg.base.String(),
		OneOf:         make([]*js.Schema, 0, len(p.reg.labels)),
		Discriminator: &js.Discriminator{PropertyName: p.reg.field, Mapping: map[string]string{}},
	}
	for _, label := range p.reg.labels {
		st := p.reg.byLabel[label]
		v := schemaFor(st, map[reflect.Type]bool{})
		if v.Type == "" {
			v.Type = "object"
		}
		if v.Properties == nil {
			v.Properties = map[string]*js.Schema{}
		}
		v.Title = st.String()
		v.Properties[p.reg.field] = &js.Schema{Type: "string", Const: label}
		v.Required = []string{p.reg.field}
		out.OneOf = append(out.OneOf, v)
		out.Discriminator.Mapping[label] = st.String()
	}
	if p.reg.def != nil {
		out.XDefault = p.reg.def.String()
	}
	return out
}

// schemaFor projects a Go type following the reflective codec's rules.
// Types reached again while projecting themselves are left open ({}).
func schemaFor(t reflect.Type, visiting map[reflect.Type]bool) *js.Schema {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case objectPtrType.Elem():
		return &js.Schema{Type: "object"}
	case numberType:
		return &js.Schema{Type: "number"}
	}
	if t.Implements(marshalerType) || reflect.PointerTo(t).Implements(marshalerType) {
		return &js.Schema{}
	}
	switch t.Kind() {
	case reflect.Bool:
		return &js.Schema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &js.Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &js.Schema{Type: "number"}
	case reflect.String:
		return &js.Schema{Type: "string"}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return &js.Schema{Type: "string", Format: "byte"}
		}
		return &js.Schema{Type: "array", Items: schemaFor(t.Elem(), visiting)}
	case reflect.Array:
		return &js.Schema{Type: "array", Items: schemaFor(t.Elem(), visiting)}
	case reflect.Map:
		return &js.Schema{Type: "object", AdditionalProperties: schemaFor(t.Elem(), visiting)}
	case reflect.Struct:
		if visiting[t] {
			return &js.Schema{Type: "object"}
		}
		visiting[t] = true
		defer delete(visiting, t)
		s := &js.Schema{Type: "object", Properties: map[string]*js.Schema{}}
		// decoding tolerates absent members, so nothing but the
		// discriminator is required
		for _, f := range structFields(t) {
			s.Properties[f.name] = schemaFor(f.typ, visiting)
		}
		return s
	}
	return &js.Schema{}
}
