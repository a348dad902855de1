package engine

// Tokenizer turns the flat token stream of a JSON decoder (delimiters and
// scalars) into engine tokens, telling object keys apart from string values.
// Drivers feed it whatever their decoder returns.
type Tokenizer struct {
	stack []tokFrame
}

type tokFrame struct {
	object       bool
	expectingKey bool
}

// Delim classifies one of '{', '}', '[' or ']'.
func (t *Tokenizer) Delim(d rune, off int64) Token {
	switch d {
	case '{':
		t.stack = append(t.stack, tokFrame{object: true, expectingKey: true})
		return Token{Kind: KindBeginObject, Offset: off}
	case '[':
		t.stack = append(t.stack, tokFrame{})
		return Token{Kind: KindBeginArray, Offset: off}
	case '}':
		t.pop()
		return Token{Kind: KindEndObject, Offset: off}
	default:
		t.pop()
		return Token{Kind: KindEndArray, Offset: off}
	}
}

// String classifies a string token as a key or a value.
func (t *Tokenizer) String(s string, off int64) Token {
	if n := len(t.stack); n > 0 && t.stack[n-1].object && t.stack[n-1].expectingKey {
		t.stack[n-1].expectingKey = false
		return Token{Kind: KindKey, String: s, Offset: off}
	}
	t.valueDone()
	return Token{Kind: KindString, String: s, Offset: off}
}

// Number classifies a number literal.
func (t *Tokenizer) Number(lit string, off int64) Token {
	t.valueDone()
	return Token{Kind: KindNumber, Number: lit, Offset: off}
}

// Bool classifies a boolean.
func (t *Tokenizer) Bool(b bool, off int64) Token {
	t.valueDone()
	return Token{Kind: KindBool, Bool: b, Offset: off}
}

// Null classifies a null.
func (t *Tokenizer) Null(off int64) Token {
	t.valueDone()
	return Token{Kind: KindNull, Offset: off}
}

func (t *Tokenizer) pop() {
	if n := len(t.stack); n > 0 {
		t.stack = t.stack[:n-1]
	}
	t.valueDone()
}

func (t *Tokenizer) valueDone() {
	if n := len(t.stack); n > 0 && t.stack[n-1].object {
		t.stack[n-1].expectingKey = true
	}
}
