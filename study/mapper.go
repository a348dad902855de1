package study

import (
	polyjson "github.com/reoring/polyjson"
	"github.com/reoring/polyjson/codec"
)

// Registries holds the polymorphic registries of the study records.
type Registries struct {
	Steps  *polyjson.Polymorphic[Step]
	Themes *polyjson.Polymorphic[ImageTheme]
}

// NewRegistries registers every known step and theme under field. An empty
// field means polyjson.DefaultField.
func NewRegistries(field string) (*Registries, error) {
	if field == "" {
		field = polyjson.DefaultField
	}
	steps, err := polyjson.OfField[Step](field).
		RegisterSubtype(InstructionStep{}, "instruction").
		RegisterSubtype(FormStep{}, "form").
		RegisterSubtype(ActiveStep{}, "active").
		RegisterSubtype(CompletionStep{}, "completion").
		RegisterSubtype(SectionStep{}, "section").
		RegisterDefault(UIStep{}).
		Build()
	if err != nil {
		return nil, err
	}
	themes, err := polyjson.OfField[ImageTheme](field).
		RegisterSubtype(FetchableImageTheme{}, "fetchable").
		RegisterSubtype(AnimationImageTheme{}, "animation").
		Build()
	if err != nil {
		return nil, err
	}
	return &Registries{Steps: steps, Themes: themes}, nil
}

// Mapper returns a Mapper resolving both registries, UIStep labels and time
// values. opts are applied after the study providers, so extra providers run
// after them.
func (r *Registries) Mapper(opts ...polyjson.MapperOption) *polyjson.Mapper {
	all := append([]polyjson.MapperOption{
		polyjson.WithProvider(r.Steps, r.Themes, &labelKeeper{field: r.Steps.Field()}, codec.TimeRFC3339()),
	}, opts...)
	return polyjson.NewMapper(all...)
}

// NewMapper is NewRegistries followed by Mapper.
func NewMapper(field string, opts ...polyjson.MapperOption) (*polyjson.Mapper, error) {
	r, err := NewRegistries(field)
	if err != nil {
		return nil, err
	}
	return r.Mapper(opts...), nil
}
