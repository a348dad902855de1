package tree

import (
	"reflect"
	"testing"
)

func TestObject_OrderAndMutation(t *testing.T) {
	var o Object
	o.Set("b", 1)
	o.Set("a", 2)
	o.Set("b", 3)
	if got := o.Keys(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("existing keys keep their position, got %v", got)
	}
	if v, _ := o.Get("b"); v != 3 {
		t.Fatalf("expected overwrite, got %v", v)
	}

	o.SetFirst("type", "circle")
	o.SetFirst("a", 9)
	if got := o.Keys(); !reflect.DeepEqual(got, []string{"a", "type", "b"}) {
		t.Fatalf("SetFirst order, got %v", got)
	}
	if !o.Delete("type") || o.Delete("type") {
		t.Fatalf("Delete should report presence once")
	}
	if o.Len() != 2 {
		t.Fatalf("len = %d", o.Len())
	}
}

func TestObject_NilReceiver(t *testing.T) {
	var o *Object
	if o.Len() != 0 || o.Has("x") || o.Delete("x") || o.Keys() != nil {
		t.Fatalf("nil object must behave as empty")
	}
	if c := o.Clone(); c == nil || c.Len() != 0 {
		t.Fatalf("clone of nil should be empty, got %#v", c)
	}
}

func TestObject_NullCountsAsPresent(t *testing.T) {
	o := ObjectOf("type", nil, "dangling")
	if !o.Has("type") || o.Has("dangling") {
		t.Fatalf("unexpected keys %v", o.Keys())
	}
}

func TestObject_CloneIsIndependent(t *testing.T) {
	o := ObjectOf("a", "1", "b", "2")
	c := o.Clone()
	c.Delete("a")
	c.SetFirst("z", true)
	if !reflect.DeepEqual(o.Keys(), []string{"a", "b"}) {
		t.Fatalf("source mutated: %v", o.Keys())
	}
}

func TestObject_RangeStops(t *testing.T) {
	o := ObjectOf("a", 1, "b", 2, "c", 3)
	var seen []string
	o.Range(func(k string, _ any) bool {
		seen = append(seen, k)
		return k != "b"
	})
	if !reflect.DeepEqual(seen, []string{"a", "b"}) {
		t.Fatalf("got %v", seen)
	}
}
