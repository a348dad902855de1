package tree

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"
)

// Marshal encodes a tree value as compact JSON.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes a tree value as compact JSON to w.
func Write(w io.Writer, v any) error {
	bw := bufio.NewWriter(w)
	if err := writeValue(bw, v); err != nil {
		return err
	}
	return bw.Flush()
}

type byteWriter interface {
	io.Writer
	WriteByte(c byte) error
	WriteString(s string) (int, error)
}

func writeValue(w byteWriter, v any) error {
	switch t := v.(type) {
	case nil:
		_, err := w.WriteString("null")
		return err
	case bool:
		if t {
			_, err := w.WriteString("true")
			return err
		}
		_, err := w.WriteString("false")
		return err
	case string:
		return writeString(w, t)
	case json.Number:
		if !isNumberLiteral(t) {
			return fmt.Errorf("tree: invalid number literal %q", string(t))
		}
		_, err := w.WriteString(string(t))
		return err
	case *Object:
		if t == nil {
			_, err := w.WriteString("null")
			return err
		}
		if err := w.WriteByte('{'); err != nil {
			return err
		}
		var err error
		first := true
		t.Range(func(k string, vv any) bool {
			if !first {
				if err = w.WriteByte(','); err != nil {
					return false
				}
			}
			first = false
			if err = writeString(w, k); err != nil {
				return false
			}
			if err = w.WriteByte(':'); err != nil {
				return false
			}
			err = writeValue(w, vv)
			return err == nil
		})
		if err != nil {
			return err
		}
		return w.WriteByte('}')
	case []any:
		if err := w.WriteByte('['); err != nil {
			return err
		}
		for i, e := range t {
			if i > 0 {
				if err := w.WriteByte(','); err != nil {
					return err
				}
			}
			if err := writeValue(w, e); err != nil {
				return err
			}
		}
		return w.WriteByte(']')
	default:
		n := Normalize(v)
		switch n.(type) {
		case *Object, []any, json.Number:
			return writeValue(w, n)
		}
		// values outside the tree space go through the JSON encoder
		b, err := gojson.MarshalNoEscape(v)
		if err != nil {
			return fmt.Errorf("tree: cannot encode %T: %w", v, err)
		}
		_, err = w.Write(b)
		return err
	}
}

func writeString(w byteWriter, s string) error {
	b, err := gojson.MarshalNoEscape(s)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func isNumberLiteral(n json.Number) bool {
	if n == "" {
		return false
	}
	if c := n[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	return gojson.Valid([]byte(n))
}
