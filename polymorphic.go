package polyjson

import (
	"encoding/json"
	"reflect"
	"strconv"

	"go.uber.org/zap"

	"github.com/reoring/polyjson/internal/naming"
	"github.com/reoring/polyjson/tree"
)

// DefaultField is the discriminator field used by Of.
const DefaultField = "type"

// Builder collects subtype registrations for one base type. Registration
// errors are recorded and reported by Err and Build, so calls chain freely.
// A Builder is not safe for concurrent use and is consumed by Build.
type Builder[T any] struct {
	reg    registry
	strict bool
	errs   Issues
	built  bool
}

// registry holds the label and type mappings, both insertion ordered.
type registry struct {
	base    reflect.Type
	field   string
	labels  []string
	byLabel map[string]reflect.Type
	types   []reflect.Type
	byType  map[reflect.Type][]string
	def     reflect.Type
}

// Of starts a registry for base type T using the "type" discriminator.
func Of[T any]() *Builder[T] { return OfField[T](DefaultField) }

// OfField starts a registry for base type T with a custom discriminator
// field. Field names are case sensitive.
func OfField[T any](field string) *Builder[T] {
	return newBuilder[T](reflect.TypeFor[T](), field)
}

// OfType starts a registry for a base type known only at run time.
func OfType(base reflect.Type, field string) *Builder[any] {
	return newBuilder[any](base, field)
}

func newBuilder[T any](base reflect.Type, field string) *Builder[T] {
	b := &Builder[T]{reg: registry{
		base:    base,
		field:   field,
		byLabel: map[string]reflect.Type{},
		byType:  map[reflect.Type][]string{},
	}}
	if base == nil {
		b.invalid("base type is required")
	}
	if field == "" {
		b.invalid("discriminator field is required")
	}
	return b
}

func (b *Builder[T]) invalid(detail string) {
	b.errs = append(b.errs, rootPath().Issue(ErrInvalidArgument, CodeInvalidArgument, map[string]string{"detail": detail}))
}

func (b *Builder[T]) fail(code string, data map[string]string) {
	b.errs = append(b.errs, rootPath().Issue(ErrInvalidArgument, code, data))
}

// RejectDuplicateLabels makes registering a label that already names another
// type an error instead of moving the label.
func (b *Builder[T]) RejectDuplicateLabels() *Builder[T] {
	b.strict = true
	return b
}

// RegisterSubtype registers the dynamic type of proto under label.
func (b *Builder[T]) RegisterSubtype(proto T, label string) *Builder[T] {
	return b.RegisterType(reflect.TypeOf(any(proto)), label)
}

// RegisterSubtypeNamed registers the dynamic type of proto under its bare
// type name.
func (b *Builder[T]) RegisterSubtypeNamed(proto T) *Builder[T] {
	return b.RegisterTypeNamed(reflect.TypeOf(any(proto)))
}

// RegisterTypeNamed registers t under its bare type name: pointers are
// unwrapped and type arguments dropped, so *Box[int] becomes "Box".
func (b *Builder[T]) RegisterTypeNamed(t reflect.Type) *Builder[T] {
	name := naming.BareName(t)
	if t != nil && name == "" {
		b.invalid("type " + t.String() + " has no name; pass a label")
		return b
	}
	return b.RegisterType(t, name)
}

// RegisterType registers t under label.
//
// A label maps to one type. Re-registering a label for another type moves
// it: the old type loses the label. A type may hold several labels, in which
// case encoding leaves the discriminator to the type's own codec; once moves
// leave it a single label, it writes that label again.
func (b *Builder[T]) RegisterType(t reflect.Type, label string) *Builder[T] {
	if !b.checkType(t) {
		return b
	}
	if label == "" {
		b.invalid("label is required")
		return b
	}
	r := &b.reg
	if old, ok := r.byLabel[label]; ok {
		if old == t {
			return b
		}
		if b.strict {
			b.fail(CodeDuplicateLabel, map[string]string{"label": label, "type": old.String()})
			return b
		}
		r.byType[old] = without(r.byType[old], label)
	} else {
		r.labels = append(r.labels, label)
	}
	r.byLabel[label] = t
	if _, seen := r.byType[t]; !seen {
		r.types = append(r.types, t)
	}
	r.byType[t] = append(r.byType[t], label)
	return b
}

// RegisterDefault makes the dynamic type of proto the fallback type.
func (b *Builder[T]) RegisterDefault(proto T) *Builder[T] {
	return b.RegisterDefaultType(reflect.TypeOf(any(proto)))
}

// RegisterDefaultType makes t the fallback for unknown labels on decode and
// unregistered types on encode. A later call replaces the previous default.
func (b *Builder[T]) RegisterDefaultType(t reflect.Type) *Builder[T] {
	if b.checkType(t) {
		b.reg.def = t
	}
	return b
}

func (b *Builder[T]) checkType(t reflect.Type) bool {
	if b.built {
		b.fail(CodeBuilderConsumed, nil)
		return false
	}
	if t == nil {
		b.invalid("subtype is required")
		return false
	}
	if b.reg.base == nil {
		return false
	}
	if !t.AssignableTo(b.reg.base) {
		b.fail(CodeNotSubtype, map[string]string{"type": t.String(), "base": b.reg.base.String()})
		return false
	}
	return true
}

func without(labels []string, label string) []string {
	out := labels[:0:0]
	for _, l := range labels {
		if l != label {
			out = append(out, l)
		}
	}
	return out
}

// Err returns the registration errors recorded so far.
func (b *Builder[T]) Err() error {
	if len(b.errs) == 0 {
		return nil
	}
	return append(Issues(nil), b.errs...)
}

// Build freezes the registrations. The Builder is consumed: later
// registrations only record errors and never affect the result.
func (b *Builder[T]) Build() (*Polymorphic[T], error) {
	if b.built {
		return nil, Issues{rootPath().Issue(ErrInvalidArgument, CodeBuilderConsumed, nil)}
	}
	b.built = true
	if err := b.Err(); err != nil {
		return nil, err
	}
	r := b.reg
	frozen := registry{
		base:    r.base,
		field:   r.field,
		labels:  append([]string(nil), r.labels...),
		byLabel: make(map[string]reflect.Type, len(r.byLabel)),
		types:   make([]reflect.Type, 0, len(r.types)),
		byType:  make(map[reflect.Type][]string, len(r.byType)),
		def:     r.def,
	}
	for l, t := range r.byLabel {
		frozen.byLabel[l] = t
	}
	for _, t := range r.types {
		// a type whose labels all moved away is no longer registered
		if len(r.byType[t]) == 0 {
			continue
		}
		frozen.types = append(frozen.types, t)
		frozen.byType[t] = append([]string(nil), r.byType[t]...)
	}
	return &Polymorphic[T]{reg: frozen}, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder[T]) MustBuild() *Polymorphic[T] {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

// Polymorphic is an immutable registry for base type T. It is a Provider:
// add it to a Mapper to encode and decode T through the discriminator.
type Polymorphic[T any] struct {
	reg registry
}

// Base returns the base type.
func (p *Polymorphic[T]) Base() reflect.Type { return p.reg.base }

// Field returns the discriminator field name.
func (p *Polymorphic[T]) Field() string { return p.reg.field }

// Labels returns the registered labels in registration order.
func (p *Polymorphic[T]) Labels() []string { return append([]string(nil), p.reg.labels...) }

// Types returns the registered subtypes in registration order.
func (p *Polymorphic[T]) Types() []reflect.Type { return append([]reflect.Type(nil), p.reg.types...) }

// LabelsOf returns the labels registered for t.
func (p *Polymorphic[T]) LabelsOf(t reflect.Type) []string {
	return append([]string(nil), p.reg.byType[t]...)
}

// TypeOf returns the subtype registered under label.
func (p *Polymorphic[T]) TypeOf(label string) (reflect.Type, bool) {
	t, ok := p.reg.byLabel[label]
	return t, ok
}

// Default returns the default type, or nil.
func (p *Polymorphic[T]) Default() reflect.Type { return p.reg.def }

// Create returns a codec when t is exactly the base type and nil otherwise,
// subtypes included. Delegates for every subtype are resolved eagerly from
// the providers after p.
func (p *Polymorphic[T]) Create(m *Mapper, t reflect.Type) TreeCodec {
	if t != p.reg.base {
		return nil
	}
	c := &polyCodec{
		reg:     &p.reg,
		log:     m.Logger().With(zap.Stringer("base", t), zap.String("field", p.reg.field)),
		byType:  make(map[reflect.Type]TreeCodec, len(p.reg.types)),
		byLabel: make(map[string]TreeCodec, len(p.reg.byLabel)),
	}
	for _, st := range p.reg.types {
		c.byType[st] = m.Delegate(p, st)
	}
	for l, st := range p.reg.byLabel {
		c.byLabel[l] = c.byType[st]
	}
	if def := p.reg.def; def != nil {
		if d, ok := c.byType[def]; ok {
			c.def = d
		} else {
			c.def = m.Delegate(p, def)
		}
	}
	return c
}

type polyCodec struct {
	reg     *registry
	log     *zap.Logger
	byType  map[reflect.Type]TreeCodec
	byLabel map[string]TreeCodec
	def     TreeCodec
}

func (c *polyCodec) Encode(v reflect.Value) (any, error) {
	rv := v
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		rv = v.Elem()
	}
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}
	rt := rv.Type()
	var label string
	if ls := c.reg.byType[rt]; len(ls) == 1 {
		label = ls[0]
	}
	d, ok := c.byType[rt]
	if !ok {
		var adapted reflect.Value
		if c.def != nil {
			adapted, ok = adaptTo(rv, c.reg.def)
		}
		if !ok && c.def != nil {
			return nil, rootPath().Err(ErrSerialization, CodeDefaultMismatch, map[string]string{"type": rt.String(), "default": c.reg.def.String()})
		}
		if !ok {
			return nil, rootPath().Err(ErrSerialization, CodeUnregisteredType, map[string]string{"type": rt.String(), "base": c.reg.base.String()})
		}
		c.log.Debug("encoding unregistered type with default type", zap.Stringer("type", rt), zap.Stringer("default", c.reg.def))
		d, rv = c.def, adapted
	}
	doc, err := d.Encode(rv)
	if err != nil {
		return nil, wrapForeign(err, ErrSerialization, rt.String())
	}
	obj, ok := tree.Normalize(doc).(*tree.Object)
	if !ok {
		return nil, rootPath().Err(ErrSerialization, CodeInvalidType, map[string]string{"expected": tree.KindObject, "got": tree.KindOf(doc)})
	}
	out := obj.Clone()
	if label != "" {
		out.SetFirst(c.reg.field, label)
	}
	return out, nil
}

func (c *polyCodec) Decode(doc any, dst reflect.Value) error {
	if doc == nil {
		dst.SetZero()
		return nil
	}
	obj, ok := doc.(*tree.Object)
	if !ok {
		return typeMismatch(ErrDeserialization, tree.KindObject, doc)
	}
	raw, _ := obj.Get(c.reg.field)
	if raw == nil {
		return rootPath().Err(ErrDeserialization, CodeDiscriminatorMissing, map[string]string{"base": c.reg.base.String(), "field": c.reg.field})
	}
	at := rootPath().Field(c.reg.field)
	label, ok := labelText(raw)
	if !ok {
		return at.Err(ErrDeserialization, CodeInvalidType, map[string]string{"expected": tree.KindString, "got": tree.KindOf(raw)})
	}
	d, st := c.byLabel[label], c.reg.byLabel[label]
	if d == nil {
		if c.def == nil {
			return at.Err(ErrDeserialization, CodeDiscriminatorUnknown, map[string]string{"base": c.reg.base.String(), "label": label})
		}
		c.log.Debug("unknown label, decoding default type", zap.String("label", label), zap.Stringer("default", c.reg.def))
		d, st = c.def, c.reg.def
	}
	nv := reflect.New(st).Elem()
	if err := d.Decode(obj, nv); err != nil {
		return wrapForeign(err, ErrDeserialization, st.String())
	}
	if canBeNil(nv) && nv.IsNil() {
		dst.SetZero()
		return nil
	}
	dst.Set(nv)
	return nil
}

// labelText reads a scalar discriminator. Numbers and booleans are read by
// their JSON text.
func labelText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return string(x), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

// adaptTo converts an unregistered value to the default type when their
// shapes allow it: T and *T are interchangeable, and struct types with
// identical fields convert.
func adaptTo(v reflect.Value, def reflect.Type) (reflect.Value, bool) {
	t := v.Type()
	switch {
	case t == def:
		return v, true
	case def.Kind() == reflect.Pointer && t == def.Elem():
		p := reflect.New(t)
		p.Elem().Set(v)
		return p, true
	case t.Kind() == reflect.Pointer && t.Elem() == def:
		return v.Elem(), true
	case t.Kind() == def.Kind() && t.ConvertibleTo(def):
		return v.Convert(def), true
	}
	return reflect.Value{}, false
}

func canBeNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}
