// Package gojson provides the default token source, backed by goccy/go-json.
package gojson

import (
	"bytes"
	"io"
	"strconv"

	j "github.com/goccy/go-json"

	eng "github.com/reoring/polyjson/internal/engine"
)

type source struct {
	dec *j.Decoder
	cr  *countingReader
	tk  eng.Tokenizer
}

// NewReader wraps an io.Reader into an engine.TokenSource for JSON using go-json.
func NewReader(r io.Reader) eng.TokenSource {
	cr := &countingReader{r: r}
	dec := j.NewDecoder(cr)
	dec.UseNumber()
	return &source{dec: dec, cr: cr}
}

// NewBytes wraps a byte slice into an engine.TokenSource for JSON using go-json.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (s *source) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return eng.Token{}, err
	}
	off := s.cr.n
	switch v := tok.(type) {
	case j.Delim:
		return s.tk.Delim(rune(v), off), nil
	case string:
		return s.tk.String(v, off), nil
	case bool:
		return s.tk.Bool(v, off), nil
	case j.Number:
		return s.tk.Number(string(v), off), nil
	case float64:
		return s.tk.Number(strconv.FormatFloat(v, 'g', -1, 64), off), nil
	default:
		return s.tk.Null(off), nil
	}
}

// Location reports the bytes pulled from the underlying reader so far. The
// decoder buffers ahead, so this is an upper bound of the bytes tokenized.
func (s *source) Location() int64 { return s.cr.n }

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
