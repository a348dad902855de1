package codec

import (
	"reflect"
	"time"

	polyjson "github.com/reoring/polyjson"
	"github.com/reoring/polyjson/i18n"
	"github.com/reoring/polyjson/tree"
)

var timeType = reflect.TypeFor[time.Time]()

// TimeRFC3339 returns a Provider that converts between RFC3339 strings and
// time.Time. Times are written in UTC with RFC3339Nano precision.
func TimeRFC3339() polyjson.Provider { return rfc3339Provider{} }

type rfc3339Provider struct{}

func (rfc3339Provider) Create(_ *polyjson.Mapper, t reflect.Type) polyjson.TreeCodec {
	if t != timeType {
		return nil
	}
	return rfc3339Codec{}
}

type rfc3339Codec struct{}

func (rfc3339Codec) Encode(v reflect.Value) (any, error) {
	t := v.Interface().(time.Time)
	if y := t.UTC().Year(); y < 0 || y > 9999 {
		return nil, formatIssue(polyjson.ErrSerialization, t.String())
	}
	return formatRFC3339Canonical(t), nil
}

func (rfc3339Codec) Decode(doc any, dst reflect.Value) error {
	switch s := doc.(type) {
	case nil:
		dst.SetZero()
		return nil
	case string:
		t, err := parseRFC3339(s)
		if err != nil {
			iss := formatIssue(polyjson.ErrDeserialization, s)
			iss[0].Cause = err
			return iss
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	default:
		return polyjson.Issues{{
			Kind:    polyjson.ErrDeserialization,
			Path:    "/",
			Code:    polyjson.CodeInvalidType,
			Message: i18n.T(polyjson.CodeInvalidType, map[string]string{"expected": "RFC3339 string", "got": tree.KindOf(doc)}),
		}}
	}
}

func formatIssue(kind error, value string) polyjson.Issues {
	data := map[string]string{"format": "RFC3339", "value": value}
	return polyjson.Issues{{
		Kind:    kind,
		Path:    "/",
		Code:    polyjson.CodeInvalidFormat,
		Message: i18n.T(polyjson.CodeInvalidFormat, data),
		Params:  map[string]any{"format": "RFC3339"},
	}}
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func formatRFC3339Canonical(t time.Time) string {
	// Normalize to UTC and format using RFC3339Nano (Go trims trailing zeros)
	return t.UTC().Format(time.RFC3339Nano)
}
