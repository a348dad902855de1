// Package yaml reads YAML documents into tree values so they can be decoded
// by the same codecs as JSON input.
package yaml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/polyjson/tree"
)

// DuplicateKeyError reports a duplicate key found in a YAML mapping with both
// the first occurrence position and the duplicate occurrence position.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// DepthError reports a mapping or sequence nested deeper than the reader
// allows. Path is the JSON Pointer of the offending collection.
type DepthError struct {
	Path string
	Line int
	Col  int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("max depth exceeded at %s (%d:%d)", e.Path, e.Line, e.Col)
}

// StrictReader decodes a multi-document YAML stream through yaml.Node so that
// key order is kept and duplicate keys are rejected.
type StrictReader struct {
	dec      *yaml.Decoder
	maxDepth int
}

// NewStrictReader constructs a StrictReader.
func NewStrictReader(r io.Reader) *StrictReader {
	return &StrictReader{dec: yaml.NewDecoder(r)}
}

// LimitDepth makes the reader fail with a *DepthError when collections nest
// deeper than n. The document root counts as depth 1; n <= 0 disables the
// limit.
func (s *StrictReader) LimitDepth(n int) *StrictReader {
	s.maxDepth = n
	return s
}

// Next returns the next document as a tree value. It returns (nil, io.EOF)
// when the stream is exhausted.
func (s *StrictReader) Next() (any, error) {
	var root yaml.Node
	if err := s.dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	w := walker{maxDepth: s.maxDepth}
	return w.toTree(&root, "", 0)
}

// ReadAll reads all documents from the stream.
func (s *StrictReader) ReadAll() ([]any, error) {
	var out []any
	for {
		v, err := s.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		out = append(out, v)
	}
}

type walker struct{ maxDepth int }

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func (w walker) enter(n *yaml.Node, path string, depth int) error {
	if w.maxDepth > 0 && depth > w.maxDepth {
		if path == "" {
			path = "/"
		}
		return &DepthError{Path: path, Line: n.Line, Col: n.Column}
	}
	return nil
}

func (w walker) toTree(n *yaml.Node, path string, depth int) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return w.toTree(n.Content[0], path, depth)
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, nil
		}
		return w.toTree(n.Alias, path, depth)
	case yaml.MappingNode:
		if err := w.enter(n, path, depth+1); err != nil {
			return nil, err
		}
		o := tree.NewObject(len(n.Content) / 2)
		first := make(map[string][2]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if pos, dup := first[k.Value]; dup {
				return nil, &DuplicateKeyError{Key: k.Value, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
			}
			first[k.Value] = [2]int{k.Line, k.Column}
			val, err := w.toTree(v, path+"/"+pointerEscaper.Replace(k.Value), depth+1)
			if err != nil {
				return nil, err
			}
			o.Set(k.Value, val)
		}
		return o, nil
	case yaml.SequenceNode:
		if err := w.enter(n, path, depth+1); err != nil {
			return nil, err
		}
		arr := make([]any, 0, len(n.Content))
		for i, c := range n.Content {
			v, err := w.toTree(c, path+"/"+strconv.Itoa(i), depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		return scalar(n)
	default:
		return nil, nil
	}
}

func scalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return n.Value, nil
		}
		return b, nil
	case "!!int":
		// base prefixes (0x, 0o) are YAML-only; emit the decimal form
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return json.Number(strconv.FormatInt(i, 10)), nil
		}
		if u, err := strconv.ParseUint(n.Value, 0, 64); err == nil {
			return json.Number(strconv.FormatUint(u, 10)), nil
		}
		return n.Value, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("yaml: float %q at %d:%d has no JSON form", n.Value, n.Line, n.Column)
		}
		return tree.FloatNumber(f), nil
	default:
		return n.Value, nil
	}
}
