package polyjson

import (
	"context"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/reoring/polyjson/tree"
)

// TreeCodec converts between Go values of one type and tree values.
//
// Encode receives a value of the codec's type and returns a tree value.
// Decode receives a tree value and stores the result into dst, which is
// settable and has the codec's type.
type TreeCodec interface {
	Encode(v reflect.Value) (any, error)
	Decode(doc any, dst reflect.Value) error
}

// Provider creates codecs on demand. Create returns nil to abstain, letting
// later providers (and finally the reflective fallback) handle t.
type Provider interface {
	Create(m *Mapper, t reflect.Type) TreeCodec
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(m *Mapper, t reflect.Type) TreeCodec

func (f ProviderFunc) Create(m *Mapper, t reflect.Type) TreeCodec { return f(m, t) }

// Mapper resolves codecs for Go types through an ordered provider chain.
// The first provider returning a codec wins. Types no provider claims are
// handled by a reflective codec. A Mapper is safe for concurrent use.
type Mapper struct {
	providers []Provider
	log       *zap.Logger
	decodeOpt DecodeOpt
	cache     sync.Map // reflect.Type -> TreeCodec
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithProvider appends providers to the chain, in order.
func WithProvider(p ...Provider) MapperOption {
	return func(m *Mapper) {
		for _, x := range p {
			if x != nil {
				m.providers = append(m.providers, x)
			}
		}
	}
}

// WithLogger sets the logger used by codecs. nil keeps the no-op logger.
func WithLogger(l *zap.Logger) MapperOption {
	return func(m *Mapper) {
		if l != nil {
			m.log = l
		}
	}
}

// WithDecodeOpt sets the input enforcement applied by Unmarshal and
// UnmarshalFrom when the caller passes no options.
func WithDecodeOpt(o DecodeOpt) MapperOption {
	return func(m *Mapper) { m.decodeOpt = o }
}

// NewMapper builds a Mapper.
func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{log: zap.NewNop()}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Logger returns the Mapper's logger (never nil).
func (m *Mapper) Logger() *zap.Logger { return m.log }

// DecodeOpt returns the default decode options.
func (m *Mapper) DecodeOpt() DecodeOpt { return m.decodeOpt }

// Codec returns the codec for t. Results are cached per type.
func (m *Mapper) Codec(t reflect.Type) TreeCodec {
	if c, ok := m.cache.Load(t); ok {
		return c.(TreeCodec)
	}
	c := m.resolve(nil, t)
	actual, _ := m.cache.LoadOrStore(t, c)
	return actual.(TreeCodec)
}

// Delegate returns a codec for t consulting only the providers after skip.
// Providers use it to obtain the codec they wrap without finding themselves
// again. When skip is not in the chain every provider is consulted.
// Delegates are not cached.
func (m *Mapper) Delegate(skip Provider, t reflect.Type) TreeCodec {
	return m.resolve(skip, t)
}

func (m *Mapper) resolve(skip Provider, t reflect.Type) TreeCodec {
	start := 0
	if skip != nil {
		for i, p := range m.providers {
			if sameProvider(p, skip) {
				start = i + 1
				break
			}
		}
	}
	for _, p := range m.providers[start:] {
		if c := p.Create(m, t); c != nil {
			return c
		}
	}
	return newReflectCodec(m, t)
}

// sameProvider compares providers without panicking on uncomparable
// dynamic types such as ProviderFunc.
func sameProvider(a, b Provider) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// Encode converts v into a tree value using the codec for the static type T,
// so interface-typed values go through the provider registered for the
// interface.
func Encode[T any](ctx context.Context, m *Mapper, v T) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(&v).Elem()
	return m.Codec(rv.Type()).Encode(rv)
}

// Decode converts a document into T. doc may be a tree value or a foreign
// shape accepted by tree.Normalize (map[string]any, float64, ...).
func Decode[T any](ctx context.Context, m *Mapper, doc any) (T, error) {
	var out T
	if err := ctx.Err(); err != nil {
		return out, err
	}
	dst := reflect.ValueOf(&out).Elem()
	if err := m.Codec(dst.Type()).Decode(tree.Normalize(doc), dst); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Marshal encodes v as compact JSON.
func Marshal[T any](ctx context.Context, m *Mapper, v T) ([]byte, error) {
	doc, err := Encode(ctx, m, v)
	if err != nil {
		return nil, err
	}
	b, err := tree.Marshal(doc)
	if err != nil {
		return nil, Issues{rootPath().Issue(ErrSerialization, CodeInvalidType, map[string]string{"expected": "JSON value", "got": err.Error()})}
	}
	return b, nil
}

// Unmarshal reads JSON with the current driver and decodes it into T.
func Unmarshal[T any](ctx context.Context, m *Mapper, data []byte, opts ...DecodeOpt) (T, error) {
	return UnmarshalFrom[T](ctx, m, JSONBytes(data), opts...)
}

// UnmarshalFrom reads one document from src and decodes it into T. Without
// opts the Mapper's default decode options apply.
func UnmarshalFrom[T any](ctx context.Context, m *Mapper, src Source, opts ...DecodeOpt) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	doc, err := ReadTree(src, lastOpt(opts, m.decodeOpt))
	if err != nil {
		return zero, err
	}
	return Decode[T](ctx, m, doc)
}
