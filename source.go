package polyjson

import (
	"bytes"
	"errors"
	"io"
	"sync"

	eng "github.com/reoring/polyjson/internal/engine"
	drvgojson "github.com/reoring/polyjson/source/gojson"
	jsonsrc "github.com/reoring/polyjson/source/json"
	yamlsrc "github.com/reoring/polyjson/source/yaml"
)

// TokenKind enumerates JSON token kinds. Values mirror the engine's kinds one
// to one, so conversions are plain casts.
type TokenKind int

const (
	TokenBeginObject TokenKind = iota
	TokenEndObject
	TokenBeginArray
	TokenEndArray
	TokenKey
	TokenString
	TokenNumber
	TokenBool
	TokenNull
)

// Token describes a token in the input stream. Offset records the byte position
// when known (-1 otherwise).
type Token struct {
	Kind   TokenKind
	String string // Stored for key/string tokens.
	Number string // Number literal text.
	Bool   bool
	Offset int64
}

// Source abstracts over streaming document input.
type Source interface {
	NextToken() (Token, error)
	Location() int64 // byte offset; -1 if unknown
}

// JSONDriver converts JSON input into a Source via a pluggable SPI. The default
// implementation is backed by goccy/go-json and may be swapped with
// SetJSONDriver.
type JSONDriver interface {
	NewReader(r io.Reader) Source
	NewBytes(b []byte) Source
	Name() string
}

var (
	jsonDriverMu      sync.RWMutex
	currentJSONDriver JSONDriver = goJSONDriver{}
)

// SetJSONDriver replaces the global JSON driver; nil values are ignored.
func SetJSONDriver(d JSONDriver) {
	if d == nil {
		return
	}
	jsonDriverMu.Lock()
	currentJSONDriver = d
	jsonDriverMu.Unlock()
}

// UseDefaultJSONDriver restores the go-json backed driver.
func UseDefaultJSONDriver() { SetJSONDriver(goJSONDriver{}) }

// CurrentJSONDriver returns the driver used by JSONBytes and JSONReader.
func CurrentJSONDriver() JSONDriver {
	jsonDriverMu.RLock()
	d := currentJSONDriver
	jsonDriverMu.RUnlock()
	return d
}

// GoJSONDriver returns the goccy/go-json backed driver (the default).
func GoJSONDriver() JSONDriver { return goJSONDriver{} }

// StdJSONDriver returns the encoding/json backed driver. It reports exact byte
// offsets, which makes MaxBytes enforcement precise.
func StdJSONDriver() JSONDriver { return stdJSONDriver{} }

type goJSONDriver struct{}

func (goJSONDriver) NewReader(r io.Reader) Source { return SourceFromEngine(drvgojson.NewReader(r)) }
func (goJSONDriver) NewBytes(b []byte) Source     { return SourceFromEngine(drvgojson.NewBytes(b)) }
func (goJSONDriver) Name() string                 { return "go-json" }

type stdJSONDriver struct{}

func (stdJSONDriver) NewReader(r io.Reader) Source { return SourceFromEngine(jsonsrc.NewReader(r)) }
func (stdJSONDriver) NewBytes(b []byte) Source     { return SourceFromEngine(jsonsrc.NewBytes(b)) }
func (stdJSONDriver) Name() string                 { return "encoding/json" }

// JSONReader wraps an io.Reader as a JSON Source.
func JSONReader(r io.Reader) Source { return CurrentJSONDriver().NewReader(r) }

// JSONBytes wraps a byte slice as a JSON Source.
func JSONBytes(b []byte) Source { return CurrentJSONDriver().NewBytes(b) }

// ReadYAML reads every document of a YAML stream as tree values. Duplicate
// mapping keys are rejected with their positions. The last option's MaxBytes
// bounds the whole stream and MaxDepth bounds every document, with the same
// issues ReadTree reports for JSON.
func ReadYAML(r io.Reader, opts ...DecodeOpt) ([]any, error) {
	opt := lastOpt(opts, DecodeOpt{})
	if opt.MaxBytes > 0 {
		b, err := io.ReadAll(io.LimitReader(r, opt.MaxBytes+1))
		if err != nil {
			return nil, yamlIssue(err)
		}
		if int64(len(b)) > opt.MaxBytes {
			return nil, singleIssue(ErrDeserialization, CodeTruncated, "max bytes exceeded")
		}
		r = bytes.NewReader(b)
	}
	docs, err := yamlsrc.NewStrictReader(r).LimitDepth(opt.MaxDepth).ReadAll()
	if err != nil {
		var de *yamlsrc.DepthError
		if errors.As(err, &de) {
			return nil, AppendIssues(nil, Issue{Kind: ErrDeserialization, Path: de.Path, Code: CodeParseError, Message: "max depth exceeded", Cause: err})
		}
		return nil, yamlIssue(err)
	}
	return docs, nil
}

func yamlIssue(err error) Issues {
	return AppendIssues(nil, Issue{Kind: ErrDeserialization, Path: "/", Code: CodeParseError, Message: err.Error(), Cause: err})
}

// ReadYAMLBytes is ReadYAML over a byte slice.
func ReadYAMLBytes(b []byte, opts ...DecodeOpt) ([]any, error) {
	return ReadYAML(bytes.NewReader(b), opts...)
}

// SourceFromEngine wraps an engine.TokenSource as a polyjson.Source.
func SourceFromEngine(inner eng.TokenSource) Source {
	return &engineSourceAdapter{inner: inner}
}

type engineSourceAdapter struct{ inner eng.TokenSource }

func (s *engineSourceAdapter) NextToken() (Token, error) {
	t, err := s.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	return Token{Kind: TokenKind(t.Kind), String: t.String, Number: t.Number, Bool: t.Bool, Offset: t.Offset}, nil
}
func (s *engineSourceAdapter) Location() int64 { return s.inner.Location() }

// tokenSourceAdapter is the reverse view, for Sources implemented outside
// this module.
type tokenSourceAdapter struct{ inner Source }

func (a *tokenSourceAdapter) NextToken() (eng.Token, error) {
	t, err := a.inner.NextToken()
	if err != nil {
		return eng.Token{}, err
	}
	return eng.Token{Kind: eng.Kind(t.Kind), String: t.String, Number: t.Number, Bool: t.Bool, Offset: t.Offset}, nil
}

func (a *tokenSourceAdapter) Location() int64 { return a.inner.Location() }

func engineTokenSource(s Source) eng.TokenSource {
	if ea, ok := s.(*engineSourceAdapter); ok {
		return ea.inner
	}
	return &tokenSourceAdapter{inner: s}
}
