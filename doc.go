// Package polyjson encodes and decodes polymorphic values through a
// discriminator member.
//
// Package polyjson provides:
//
// - Polymorphic registries: a base type, its labelled subtypes and an optional default type (Of/OfField/Builder/Polymorphic)
// - A Mapper resolving codecs per Go type through an ordered Provider chain with a reflective fallback
// - An ordered document tree (package tree) shared by every codec
// - A stable error model via Issues (JSON Pointer, code, message) and kind sentinels for errors.Is
// - Input enforcement for duplicate keys, depth and size while reading JSON or YAML
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations under internal/.
// - Place extra providers under codec/, record types under study/ and the CLI under cmd/polyjson.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	shapes := polyjson.Of[Shape]().
//		RegisterSubtype(Circle{}, "circle").
//		RegisterSubtype(Rectangle{}, "rectangle").
//		MustBuild()
//	m := polyjson.NewMapper(polyjson.WithProvider(shapes))
//
//	data, err := polyjson.Marshal[Shape](ctx, m, Circle{Radius: 1})
//	s, err := polyjson.Unmarshal[Shape](ctx, m, data)
package polyjson
