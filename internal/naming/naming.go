// Package naming derives default labels from Go types.
package naming

import (
	"reflect"
	"strings"
)

// BareName returns the unqualified name of t with pointers unwrapped and
// generic type arguments removed: *pkg.Box[int] yields "Box". Unnamed types
// yield "".
func BareName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return stripTypeParams(t.Name())
}

func stripTypeParams(s string) string {
	if i := strings.IndexByte(s, '['); i >= 0 {
		return s[:i]
	}
	return s
}
