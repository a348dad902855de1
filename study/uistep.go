package study

import (
	"encoding/json"
	"reflect"
	"strconv"

	polyjson "github.com/reoring/polyjson"
	"github.com/reoring/polyjson/tree"
)

var uiStepType = reflect.TypeFor[UIStep]()

// labelKeeper wraps the reflective UIStep codec so that UIStep.Type follows
// the discriminator field, whatever its name.
type labelKeeper struct{ field string }

func (p *labelKeeper) Create(m *polyjson.Mapper, t reflect.Type) polyjson.TreeCodec {
	if t != uiStepType {
		return nil
	}
	return labelCodec{field: p.field, inner: m.Delegate(p, t)}
}

type labelCodec struct {
	field string
	inner polyjson.TreeCodec
}

func (c labelCodec) Encode(v reflect.Value) (any, error) {
	doc, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	obj, ok := doc.(*tree.Object)
	if !ok {
		return doc, nil
	}
	if label := v.Interface().(UIStep).Type; label != "" {
		obj.SetFirst(c.field, label)
	}
	return obj, nil
}

func (c labelCodec) Decode(doc any, dst reflect.Value) error {
	if err := c.inner.Decode(doc, dst); err != nil {
		return err
	}
	obj, ok := doc.(*tree.Object)
	if !ok {
		return nil
	}
	raw, _ := obj.Get(c.field)
	switch x := raw.(type) {
	case string:
		dst.FieldByName("Type").SetString(x)
	case json.Number:
		dst.FieldByName("Type").SetString(string(x))
	case bool:
		dst.FieldByName("Type").SetString(strconv.FormatBool(x))
	}
	return nil
}
