package polyjson_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	polyjson "github.com/reoring/polyjson"
	"github.com/reoring/polyjson/tree"
)

func dupError() polyjson.DecodeOpt {
	return polyjson.DecodeOpt{Strictness: polyjson.Strictness{OnDuplicateKey: polyjson.Error}}
}

func TestReadTree_DuplicateKey_Error(t *testing.T) {
	_, err := polyjson.ReadTree(polyjson.JSONBytes([]byte(`{"a":1,"a":2}`)), dupError())
	if err == nil {
		t.Fatalf("expected error for duplicate key")
	}
	if iss, ok := polyjson.AsIssues(err); ok {
		if len(iss) == 0 || iss[0].Code != polyjson.CodeDuplicateKey {
			t.Fatalf("expected duplicate_key issue, got: %v", iss)
		} else if iss[0].Path != "/a" {
			t.Fatalf("expected path=/a, got: %s", iss[0].Path)
		}
	} else {
		t.Fatalf("expected Issues error, got: %v", err)
	}
	if !errors.Is(err, polyjson.ErrDeserialization) {
		t.Fatalf("expected deserialization kind")
	}
}

func TestReadTree_DuplicateKey_NestedPath(t *testing.T) {
	_, err := polyjson.ReadTree(polyjson.JSONBytes([]byte(`[{"a":1},{"b/c":1,"b/c":2}]`)), dupError())
	iss, ok := polyjson.AsIssues(err)
	if !ok || len(iss) == 0 {
		t.Fatalf("expected Issues, got: %v", err)
	}
	if iss[0].Path != "/1/b~1c" {
		t.Fatalf("expected path=/1/b~1c, got: %s", iss[0].Path)
	}
}

func TestReadTree_DuplicateKey_Warn(t *testing.T) {
	var got []polyjson.Issue
	opt := polyjson.DecodeOpt{
		Strictness: polyjson.Strictness{OnDuplicateKey: polyjson.Warn},
		OnIssue:    func(is polyjson.Issue) { got = append(got, is) },
	}
	v, err := polyjson.ReadTree(polyjson.JSONBytes([]byte(`{"a":1,"b":true,"a":2}`)), opt)
	if err != nil {
		t.Fatalf("warn must not fail: %v", err)
	}
	if len(got) != 1 || got[0].Code != polyjson.CodeDuplicateKey || got[0].Path != "/a" {
		t.Fatalf("expected one duplicate_key warning, got: %v", got)
	}
	obj := v.(*tree.Object)
	if keys := obj.Keys(); len(keys) != 2 || keys[0] != "a" {
		t.Fatalf("unexpected keys: %v", keys)
	}
	if a, _ := obj.Get("a"); !tree.Equal(a, 2) {
		t.Fatalf("expected last value, got %v", a)
	}

	opt.FailFast = true
	if _, err := polyjson.ReadTree(polyjson.JSONBytes([]byte(`{"a":1,"a":2}`)), opt); polyjson.FirstCode(err) != polyjson.CodeDuplicateKey {
		t.Fatalf("fail-fast should turn the warning into an error, got %v", err)
	}
}

func TestReadTree_MaxDepth(t *testing.T) {
	in := []byte(`{"a":{"b":{"c":1}}}`)
	if _, err := polyjson.ReadTree(polyjson.JSONBytes(in), polyjson.DecodeOpt{MaxDepth: 3}); err != nil {
		t.Fatalf("depth 3 should pass: %v", err)
	}
	_, err := polyjson.ReadTree(polyjson.JSONBytes(in), polyjson.DecodeOpt{MaxDepth: 2})
	iss, ok := polyjson.AsIssues(err)
	if !ok || iss[0].Code != polyjson.CodeParseError || iss[0].Path != "/a/b" {
		t.Fatalf("expected parse_error at /a/b, got %v", err)
	}
}

func TestReadTree_MaxBytes(t *testing.T) {
	in := []byte(`{"a":"` + strings.Repeat("x", 64) + `"}`)
	for _, d := range []polyjson.JSONDriver{polyjson.GoJSONDriver(), polyjson.StdJSONDriver()} {
		_, err := polyjson.ReadTree(d.NewBytes(in), polyjson.DecodeOpt{MaxBytes: 16})
		if polyjson.FirstCode(err) != polyjson.CodeTruncated {
			t.Fatalf("%s: expected truncated, got %v", d.Name(), err)
		}
		if _, err := polyjson.ReadTree(d.NewBytes(in), polyjson.DecodeOpt{MaxBytes: 4096}); err != nil {
			t.Fatalf("%s: limit above size should pass: %v", d.Name(), err)
		}
	}
}

func TestReadTree_MalformedInput(t *testing.T) {
	for _, d := range []polyjson.JSONDriver{polyjson.GoJSONDriver(), polyjson.StdJSONDriver()} {
		for _, in := range []string{``, `{"a":`, `{"a":1`, `[1,2`, `{} {}`, `1 2`} {
			_, err := polyjson.ReadTree(d.NewBytes([]byte(in)))
			if !errors.Is(err, polyjson.ErrDeserialization) || polyjson.FirstCode(err) != polyjson.CodeParseError {
				t.Fatalf("%s %q: expected parse_error, got %v", d.Name(), in, err)
			}
		}
	}
}

func TestReadTree_DriversAgree(t *testing.T) {
	in := []byte(`{"z":[1,2.5,-3e2,"s",true,false,null],"a":{"nested":{}},"e":[]}`)
	a, err := polyjson.ReadTree(polyjson.GoJSONDriver().NewBytes(in))
	if err != nil {
		t.Fatalf("go-json: %v", err)
	}
	b, err := polyjson.ReadTree(polyjson.StdJSONDriver().NewBytes(in))
	if err != nil {
		t.Fatalf("encoding/json: %v", err)
	}
	if !tree.Equal(a, b) {
		t.Fatalf("drivers disagree: %v vs %v", a, b)
	}
	out, err := tree.Marshal(a)
	if err != nil || string(out) != string(in) {
		t.Fatalf("re-encode: %s, %v", out, err)
	}
}

func TestSetJSONDriver(t *testing.T) {
	t.Cleanup(polyjson.UseDefaultJSONDriver)
	if polyjson.CurrentJSONDriver().Name() != "go-json" {
		t.Fatalf("unexpected default driver %s", polyjson.CurrentJSONDriver().Name())
	}
	polyjson.SetJSONDriver(polyjson.StdJSONDriver())
	polyjson.SetJSONDriver(nil)
	if polyjson.CurrentJSONDriver().Name() != "encoding/json" {
		t.Fatalf("driver not switched")
	}
}

// sliceSource is a Source implemented outside the module's drivers.
type sliceSource struct {
	toks []polyjson.Token
	i    int
}

func (s *sliceSource) NextToken() (polyjson.Token, error) {
	if s.i >= len(s.toks) {
		return polyjson.Token{}, io.EOF
	}
	t := s.toks[s.i]
	s.i++
	return t, nil
}

func (s *sliceSource) Location() int64 { return -1 }

func TestReadTree_CustomSource(t *testing.T) {
	src := &sliceSource{toks: []polyjson.Token{
		{Kind: polyjson.TokenBeginObject},
		{Kind: polyjson.TokenKey, String: "n"},
		{Kind: polyjson.TokenNumber, Number: "7"},
		{Kind: polyjson.TokenKey, String: "n"},
		{Kind: polyjson.TokenNull},
		{Kind: polyjson.TokenEndObject},
	}}
	_, err := polyjson.ReadTree(src, dupError())
	if polyjson.FirstCode(err) != polyjson.CodeDuplicateKey {
		t.Fatalf("expected duplicate_key from custom source, got %v", err)
	}
}

func TestReadYAML(t *testing.T) {
	docs, err := polyjson.ReadYAMLBytes([]byte("type: circle\nradius: 2\n---\n- 1\n- 0x10\n"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if !tree.Equal(docs[0], tree.ObjectOf("type", "circle", "radius", 2)) {
		t.Fatalf("unexpected first document: %v", docs[0])
	}
	if !tree.Equal(docs[1], []any{1, 16}) {
		t.Fatalf("unexpected second document: %v", docs[1])
	}

	_, err = polyjson.ReadYAMLBytes([]byte("a: 1\na: 2\n"))
	if polyjson.FirstCode(err) != polyjson.CodeParseError || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate key failure, got %v", err)
	}
}

func TestReadYAML_Limits(t *testing.T) {
	in := []byte("a:\n  b: [1, 2]\n---\nc: 1\n")

	docs, err := polyjson.ReadYAMLBytes(in, polyjson.DecodeOpt{MaxDepth: 3, MaxBytes: int64(len(in))})
	if err != nil || len(docs) != 2 {
		t.Fatalf("expected both documents within limits, got %d, %v", len(docs), err)
	}

	_, err = polyjson.ReadYAMLBytes(in, polyjson.DecodeOpt{MaxDepth: 2})
	iss, ok := polyjson.AsIssues(err)
	if !ok || iss[0].Code != polyjson.CodeParseError || iss[0].Path != "/a/b" || iss[0].Message != "max depth exceeded" {
		t.Fatalf("expected max depth at /a/b, got %v", err)
	}

	_, err = polyjson.ReadYAMLBytes(in, polyjson.DecodeOpt{MaxBytes: int64(len(in)) - 1})
	if polyjson.FirstCode(err) != polyjson.CodeTruncated || !errors.Is(err, polyjson.ErrDeserialization) {
		t.Fatalf("expected truncated, got %v", err)
	}
}
