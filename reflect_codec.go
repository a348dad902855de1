package polyjson

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/reoring/polyjson/tree"
)

var (
	marshalerType   = reflect.TypeFor[json.Marshaler]()
	unmarshalerType = reflect.TypeFor[json.Unmarshaler]()
	objectPtrType   = reflect.TypeFor[*tree.Object]()
	numberType      = reflect.TypeFor[json.Number]()
)

// newReflectCodec builds the fallback codec for t. Element and field codecs
// are looked up through m at use time, so recursive types (a struct holding
// a slice of its own interface) resolve without building cycles eagerly.
func newReflectCodec(m *Mapper, t reflect.Type) TreeCodec {
	switch t {
	case objectPtrType:
		return objectCodec{}
	case numberType:
		return numberCodec{}
	}
	inner := kindCodec(m, t)
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return inner
	}
	enc := t.Implements(marshalerType)
	encAddr := !enc && reflect.PointerTo(t).Implements(marshalerType)
	dec := reflect.PointerTo(t).Implements(unmarshalerType)
	if enc || encAddr || dec {
		return &marshalerCodec{t: t, enc: enc, encAddr: encAddr, dec: dec, inner: inner}
	}
	return inner
}

func kindCodec(m *Mapper, t reflect.Type) TreeCodec {
	switch t.Kind() {
	case reflect.Bool:
		return boolCodec{}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intCodec{t: t}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintCodec{t: t}
	case reflect.Float32, reflect.Float64:
		return floatCodec{t: t}
	case reflect.String:
		return stringCodec{}
	case reflect.Pointer:
		return &ptrCodec{m: m, t: t}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && !reflect.PointerTo(t.Elem()).Implements(marshalerType) {
			return bytesCodec{t: t}
		}
		return &sliceCodec{m: m, t: t}
	case reflect.Array:
		return &arrayCodec{m: m, t: t}
	case reflect.Map:
		if t.Key().Kind() == reflect.String {
			return &mapCodec{m: m, t: t}
		}
	case reflect.Struct:
		return &structCodec{m: m, t: t, fields: structFields(t)}
	case reflect.Interface:
		return &ifaceCodec{m: m, t: t}
	}
	return unsupportedCodec{t: t}
}

func typeMismatch(kind error, expected string, doc any) error {
	return rootPath().Err(kind, CodeInvalidType, map[string]string{"expected": expected, "got": tree.KindOf(doc)})
}

type boolCodec struct{}

func (boolCodec) Encode(v reflect.Value) (any, error) { return v.Bool(), nil }

func (boolCodec) Decode(doc any, dst reflect.Value) error {
	switch b := doc.(type) {
	case nil:
		dst.SetZero()
	case bool:
		dst.SetBool(b)
	default:
		return typeMismatch(ErrDeserialization, tree.KindBool, doc)
	}
	return nil
}

type intCodec struct{ t reflect.Type }

func (intCodec) Encode(v reflect.Value) (any, error) {
	return json.Number(strconv.FormatInt(v.Int(), 10)), nil
}

func (c intCodec) Decode(doc any, dst reflect.Value) error {
	if doc == nil {
		dst.SetZero()
		return nil
	}
	n, ok := doc.(json.Number)
	if !ok {
		return typeMismatch(ErrDeserialization, tree.KindNumber, doc)
	}
	i, err := strconv.ParseInt(string(n), 10, c.t.Bits())
	if err != nil {
		return rootPath().Err(ErrDeserialization, CodeInvalidType, map[string]string{"expected": c.t.String(), "got": string(n)})
	}
	dst.SetInt(i)
	return nil
}

type uintCodec struct{ t reflect.Type }

func (uintCodec) Encode(v reflect.Value) (any, error) {
	return json.Number(strconv.FormatUint(v.Uint(), 10)), nil
}

func (c uintCodec) Decode(doc any, dst reflect.Value) error {
	if doc == nil {
		dst.SetZero()
		return nil
	}
	n, ok := doc.(json.Number)
	if !ok {
		return typeMismatch(ErrDeserialization, tree.KindNumber, doc)
	}
	u, err := strconv.ParseUint(string(n), 10, c.t.Bits())
	if err != nil {
		return rootPath().Err(ErrDeserialization, CodeInvalidType, map[string]string{"expected": c.t.String(), "got": string(n)})
	}
	dst.SetUint(u)
	return nil
}

type floatCodec struct{ t reflect.Type }

func (c floatCodec) Encode(v reflect.Value) (any, error) {
	f := v.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, rootPath().Err(ErrSerialization, CodeInvalidType, map[string]string{"expected": "finite number", "got": strconv.FormatFloat(f, 'g', -1, 64)})
	}
	if c.t.Bits() == 32 {
		// shortest text that round-trips through float32
		return json.Number(strconv.FormatFloat(f, 'g', -1, 32)), nil
	}
	return tree.FloatNumber(f), nil
}

func (c floatCodec) Decode(doc any, dst reflect.Value) error {
	if doc == nil {
		dst.SetZero()
		return nil
	}
	n, ok := doc.(json.Number)
	if !ok {
		return typeMismatch(ErrDeserialization, tree.KindNumber, doc)
	}
	f, err := strconv.ParseFloat(string(n), c.t.Bits())
	if err != nil {
		return rootPath().Err(ErrDeserialization, CodeInvalidType, map[string]string{"expected": c.t.String(), "got": string(n)})
	}
	dst.SetFloat(f)
	return nil
}

type stringCodec struct{}

func (stringCodec) Encode(v reflect.Value) (any, error) { return v.String(), nil }

func (stringCodec) Decode(doc any, dst reflect.Value) error {
	switch s := doc.(type) {
	case nil:
		dst.SetZero()
	case string:
		dst.SetString(s)
	default:
		return typeMismatch(ErrDeserialization, tree.KindString, doc)
	}
	return nil
}

type numberCodec struct{}

func (numberCodec) Encode(v reflect.Value) (any, error) {
	n := json.Number(v.String())
	if n == "" {
		return json.Number("0"), nil
	}
	return n, nil
}

func (numberCodec) Decode(doc any, dst reflect.Value) error {
	switch n := doc.(type) {
	case nil:
		dst.SetZero()
	case json.Number:
		dst.SetString(string(n))
	default:
		return typeMismatch(ErrDeserialization, tree.KindNumber, doc)
	}
	return nil
}

// objectCodec keeps *tree.Object values as they are.
type objectCodec struct{}

func (objectCodec) Encode(v reflect.Value) (any, error) {
	if v.IsNil() {
		return nil, nil
	}
	return v.Interface().(*tree.Object).Clone(), nil
}

func (objectCodec) Decode(doc any, dst reflect.Value) error {
	switch o := doc.(type) {
	case nil:
		dst.SetZero()
	case *tree.Object:
		dst.Set(reflect.ValueOf(o.Clone()))
	default:
		return typeMismatch(ErrDeserialization, tree.KindObject, doc)
	}
	return nil
}

type bytesCodec struct{ t reflect.Type }

func (bytesCodec) Encode(v reflect.Value) (any, error) {
	if v.IsNil() {
		return nil, nil
	}
	return base64.StdEncoding.EncodeToString(v.Bytes()), nil
}

func (c bytesCodec) Decode(doc any, dst reflect.Value) error {
	switch s := doc.(type) {
	case nil:
		dst.SetZero()
	case string:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return rootPath().Err(ErrDeserialization, CodeInvalidType, map[string]string{"expected": "base64 string", "got": tree.KindString})
		}
		dst.Set(reflect.ValueOf(b).Convert(c.t))
	default:
		return typeMismatch(ErrDeserialization, tree.KindString, doc)
	}
	return nil
}

type ptrCodec struct {
	m *Mapper
	t reflect.Type
}

func (c *ptrCodec) Encode(v reflect.Value) (any, error) {
	if v.IsNil() {
		return nil, nil
	}
	return c.m.Codec(c.t.Elem()).Encode(v.Elem())
}

func (c *ptrCodec) Decode(doc any, dst reflect.Value) error {
	if doc == nil {
		dst.SetZero()
		return nil
	}
	nv := reflect.New(c.t.Elem())
	if err := c.m.Codec(c.t.Elem()).Decode(doc, nv.Elem()); err != nil {
		return err
	}
	dst.Set(nv)
	return nil
}

type sliceCodec struct {
	m *Mapper
	t reflect.Type
}

func (c *sliceCodec) Encode(v reflect.Value) (any, error) {
	if v.IsNil() {
		return nil, nil
	}
	return encodeElems(c.m, c.t.Elem(), v)
}

func (c *sliceCodec) Decode(doc any, dst reflect.Value) error {
	if doc == nil {
		dst.SetZero()
		return nil
	}
	arr, ok := doc.([]any)
	if !ok {
		return typeMismatch(ErrDeserialization, tree.KindArray, doc)
	}
	out := reflect.MakeSlice(c.t, len(arr), len(arr))
	ec := c.m.Codec(c.t.Elem())
	for i, e := range arr {
		if err := ec.Decode(e, out.Index(i)); err != nil {
			return nest(err, ErrDeserialization, strconv.Itoa(i), c.t.Elem().String())
		}
	}
	dst.Set(out)
	return nil
}

type arrayCodec struct {
	m *Mapper
	t reflect.Type
}

func (c *arrayCodec) Encode(v reflect.Value) (any, error) {
	return encodeElems(c.m, c.t.Elem(), v)
}

// Decode fills the array from the document; missing trailing elements are
// zeroed and extra ones are ignored.
func (c *arrayCodec) Decode(doc any, dst reflect.Value) error {
	if doc == nil {
		dst.SetZero()
		return nil
	}
	arr, ok := doc.([]any)
	if !ok {
		return typeMismatch(ErrDeserialization, tree.KindArray, doc)
	}
	ec := c.m.Codec(c.t.Elem())
	for i := 0; i < dst.Len(); i++ {
		if i >= len(arr) {
			dst.Index(i).SetZero()
			continue
		}
		if err := ec.Decode(arr[i], dst.Index(i)); err != nil {
			return nest(err, ErrDeserialization, strconv.Itoa(i), c.t.Elem().String())
		}
	}
	return nil
}

func encodeElems(m *Mapper, et reflect.Type, v reflect.Value) (any, error) {
	ec := m.Codec(et)
	out := make([]any, v.Len())
	for i := range out {
		e, err := ec.Encode(v.Index(i))
		if err != nil {
			return nil, nest(err, ErrSerialization, strconv.Itoa(i), et.String())
		}
		out[i] = e
	}
	return out, nil
}

type mapCodec struct {
	m *Mapper
	t reflect.Type
}

// Encode writes entries sorted by key so output is deterministic.
func (c *mapCodec) Encode(v reflect.Value) (any, error) {
	if v.IsNil() {
		return nil, nil
	}
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	ec := c.m.Codec(c.t.Elem())
	out := tree.NewObject(len(keys))
	for _, k := range keys {
		e, err := ec.Encode(v.MapIndex(k))
		if err != nil {
			return nil, nest(err, ErrSerialization, escapeToken(k.String()), c.t.Elem().String())
		}
		out.Set(k.String(), e)
	}
	return out, nil
}

func (c *mapCodec) Decode(doc any, dst reflect.Value) error {
	if doc == nil {
		dst.SetZero()
		return nil
	}
	obj, ok := doc.(*tree.Object)
	if !ok {
		return typeMismatch(ErrDeserialization, tree.KindObject, doc)
	}
	out := reflect.MakeMapWithSize(c.t, obj.Len())
	ec := c.m.Codec(c.t.Elem())
	var err error
	obj.Range(func(k string, e any) bool {
		ev := reflect.New(c.t.Elem()).Elem()
		if err = ec.Decode(e, ev); err != nil {
			err = nest(err, ErrDeserialization, escapeToken(k), c.t.Elem().String())
			return false
		}
		out.SetMapIndex(reflect.ValueOf(k).Convert(c.t.Key()), ev)
		return true
	})
	if err != nil {
		return err
	}
	dst.Set(out)
	return nil
}

// field describes one serialized struct field.
type field struct {
	name      string
	index     []int
	typ       reflect.Type
	omitEmpty bool
}

// resolveStructKey resolves a struct field's external key and options.
// Priority: json tag name > field name; "-" disables the field.
func resolveStructKey(sf reflect.StructField) (name string, omitEmpty, tagged bool) {
	jt, ok := sf.Tag.Lookup("json")
	if !ok {
		return sf.Name, false, false
	}
	if jt == "-" {
		return "-", false, true
	}
	name, opts, _ := strings.Cut(jt, ",")
	for opts != "" {
		var o string
		o, opts, _ = strings.Cut(opts, ",")
		if o == "omitempty" || o == "omitzero" {
			omitEmpty = true
		}
	}
	if name == "" {
		return sf.Name, omitEmpty, false
	}
	return name, omitEmpty, true
}

// structFields lists the serialized fields of t in declaration order.
// Untagged embedded structs are flattened; a name defined at a shallower
// depth hides deeper ones, and at equal depth the first field wins.
func structFields(t reflect.Type) []field {
	var out []field
	seen := map[string]int{} // name -> depth
	var walk func(t reflect.Type, index []int, visiting map[reflect.Type]bool)
	walk = func(t reflect.Type, index []int, visiting map[reflect.Type]bool) {
		if visiting[t] {
			return
		}
		visiting[t] = true
		defer delete(visiting, t)
		var embedded []reflect.StructField
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			name, omit, tagged := resolveStructKey(sf)
			if name == "-" {
				continue
			}
			if sf.Anonymous && !tagged {
				ft := sf.Type
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					embedded = append(embedded, sf)
					continue
				}
			}
			if !sf.IsExported() {
				continue
			}
			if d, ok := seen[name]; ok && d <= len(index) {
				continue
			}
			seen[name] = len(index)
			idx := append(append([]int{}, index...), i)
			out = append(out, field{name: name, index: idx, typ: sf.Type, omitEmpty: omit})
		}
		for _, sf := range embedded {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				// cannot allocate through an unexported pointer
				if !sf.IsExported() {
					continue
				}
				ft = ft.Elem()
			}
			walk(ft, append(append([]int{}, index...), sf.Index...), visiting)
		}
	}
	walk(t, nil, map[reflect.Type]bool{})
	sort.Slice(out, func(i, j int) bool { return indexLess(out[i].index, out[j].index) })
	return out
}

func indexLess(a, b []int) bool {
	for k := 0; k < len(a) && k < len(b); k++ {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return len(a) < len(b)
}

type structCodec struct {
	m      *Mapper
	t      reflect.Type
	fields []field
}

func (c *structCodec) Encode(v reflect.Value) (any, error) {
	out := tree.NewObject(len(c.fields))
	for _, f := range c.fields {
		fv, ok := fieldForRead(v, f.index)
		if !ok || (f.omitEmpty && fv.IsZero()) {
			continue
		}
		e, err := c.m.Codec(f.typ).Encode(fv)
		if err != nil {
			return nil, nest(err, ErrSerialization, escapeToken(f.name), f.typ.String())
		}
		out.Set(f.name, e)
	}
	return out, nil
}

// Decode assigns the members that match a field. Unknown members are ignored
// and absent ones leave the field untouched.
func (c *structCodec) Decode(doc any, dst reflect.Value) error {
	if doc == nil {
		dst.SetZero()
		return nil
	}
	obj, ok := doc.(*tree.Object)
	if !ok {
		return typeMismatch(ErrDeserialization, tree.KindObject, doc)
	}
	for _, f := range c.fields {
		val, ok := obj.Get(f.name)
		if !ok {
			continue
		}
		if err := c.m.Codec(f.typ).Decode(val, fieldForWrite(dst, f.index)); err != nil {
			return nest(err, ErrDeserialization, escapeToken(f.name), f.typ.String())
		}
	}
	return nil
}

// fieldForRead walks index through embedded pointers, reporting false when a
// nil embedded pointer hides the field.
func fieldForRead(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

// fieldForWrite walks index, allocating nil embedded pointers on the way.
func fieldForWrite(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

// ifaceCodec encodes the dynamic value of an interface. Only the empty
// interface can be decoded without a provider: it receives the tree value.
type ifaceCodec struct {
	m *Mapper
	t reflect.Type
}

func (c *ifaceCodec) Encode(v reflect.Value) (any, error) {
	if v.IsNil() {
		return nil, nil
	}
	e := v.Elem()
	return c.m.Codec(e.Type()).Encode(e)
}

func (c *ifaceCodec) Decode(doc any, dst reflect.Value) error {
	if doc == nil {
		dst.SetZero()
		return nil
	}
	if c.t.NumMethod() != 0 {
		return rootPath().Err(ErrDeserialization, CodeUnsupportedType, map[string]string{"type": c.t.String()})
	}
	dst.Set(reflect.ValueOf(doc))
	return nil
}

// marshalerCodec bridges json.Marshaler and json.Unmarshaler implementations.
// Directions the type does not implement fall back to inner.
type marshalerCodec struct {
	t       reflect.Type
	enc     bool
	encAddr bool
	dec     bool
	inner   TreeCodec
}

func (c *marshalerCodec) Encode(v reflect.Value) (any, error) {
	var mj json.Marshaler
	switch {
	case c.enc:
		mj = v.Interface().(json.Marshaler)
	case c.encAddr && v.CanAddr():
		mj = v.Addr().Interface().(json.Marshaler)
	default:
		return c.inner.Encode(v)
	}
	b, err := mj.MarshalJSON()
	if err != nil {
		return nil, wrapForeign(err, ErrSerialization, c.t.String())
	}
	doc, err := ReadTree(GoJSONDriver().NewBytes(b))
	if err != nil {
		return nil, wrapForeign(err, ErrSerialization, c.t.String())
	}
	return doc, nil
}

func (c *marshalerCodec) Decode(doc any, dst reflect.Value) error {
	if !c.dec {
		return c.inner.Decode(doc, dst)
	}
	b, err := tree.Marshal(doc)
	if err != nil {
		return wrapForeign(err, ErrDeserialization, c.t.String())
	}
	if err := dst.Addr().Interface().(json.Unmarshaler).UnmarshalJSON(b); err != nil {
		return wrapForeign(err, ErrDeserialization, c.t.String())
	}
	return nil
}

type unsupportedCodec struct{ t reflect.Type }

func (c unsupportedCodec) Encode(reflect.Value) (any, error) {
	return nil, rootPath().Err(ErrSerialization, CodeUnsupportedType, map[string]string{"type": c.t.String()})
}

func (c unsupportedCodec) Decode(any, reflect.Value) error {
	return rootPath().Err(ErrDeserialization, CodeUnsupportedType, map[string]string{"type": c.t.String()})
}
