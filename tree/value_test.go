package tree

import (
	"encoding/json"
	"math"
	"testing"
)

func TestFloatNumber(t *testing.T) {
	cases := map[float64]json.Number{
		0:         "0",
		1.5:       "1.5",
		-2:        "-2",
		1e21:      "1e+21",
		1e20:      "100000000000000000000",
		0.0000001: "1e-7",
		0.000001:  "0.000001",
	}
	for in, want := range cases {
		if got := FloatNumber(in); got != want {
			t.Errorf("FloatNumber(%v) = %s, want %s", in, got, want)
		}
	}
	if got := FloatNumber(math.Inf(1)); got != "+Inf" {
		t.Errorf("inf: %s", got)
	}
}

func TestNormalize(t *testing.T) {
	in := map[string]any{
		"z": []any{int8(1), uint64(2), float32(0.5)},
		"a": map[string]any{"n": nil},
	}
	got := Normalize(in)
	o, ok := got.(*Object)
	if !ok {
		t.Fatalf("expected *Object, got %T", got)
	}
	if keys := o.Keys(); len(keys) != 2 || keys[0] != "a" || keys[1] != "z" {
		t.Fatalf("map keys must be sorted, got %v", keys)
	}
	arr, _ := o.Get("z")
	want := []any{json.Number("1"), json.Number("2"), json.Number("0.5")}
	if !Equal(arr, want) {
		t.Fatalf("got %#v", arr)
	}
	for i, e := range arr.([]any) {
		if _, ok := e.(json.Number); !ok {
			t.Fatalf("element %d not normalized: %T", i, e)
		}
	}

	tv := ObjectOf("k", "v")
	if Normalize(tv) != any(tv) {
		t.Fatalf("tree values are returned unchanged")
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		v    any
		want string
	}{
		{nil, KindNull},
		{ObjectOf(), KindObject},
		{map[string]any{}, KindObject},
		{[]any{}, KindArray},
		{"s", KindString},
		{json.Number("1"), KindNumber},
		{3, KindNumber},
		{true, KindBool},
		{struct{}{}, "struct {}"},
	}
	for _, c := range cases {
		if got := KindOf(c.v); got != c.want {
			t.Errorf("KindOf(%#v) = %s, want %s", c.v, got, c.want)
		}
	}
}

func TestEqual(t *testing.T) {
	a := ObjectOf("x", json.Number("1.0"), "y", []any{"a", nil})
	b := map[string]any{"y": []any{"a", nil}, "x": 1}
	if !Equal(a, b) {
		t.Fatalf("expected equal documents")
	}
	if Equal(a, ObjectOf("x", json.Number("1"))) {
		t.Fatalf("missing member must differ")
	}
	if Equal("1", json.Number("1")) {
		t.Fatalf("string and number must differ")
	}
}
