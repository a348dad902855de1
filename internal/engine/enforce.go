package engine

import (
	"strconv"
	"strings"
)

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// Issue codes produced by the enforcement layer.
const (
	CodeDuplicateKey = "duplicate_key"
	CodeParseError   = "parse_error"
	CodeTruncated    = "truncated"
)

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	MaxBytes    int64
	// IssueSink receives every issue, including non-fatal duplicate warnings.
	IssueSink func(SimpleIssue)
	// FailFast turns warnings into errors.
	FailFast bool
}

// Disabled reports whether the options would never reject or report anything.
func (o EnforceOptions) Disabled() bool {
	return o.OnDuplicate == DupIgnore && o.MaxDepth <= 0 && o.MaxBytes <= 0
}

// WrapWithEnforcement returns a TokenSource that enforces duplicate key policy,
// maximum nesting depth, and maximum consumed bytes.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	return &enforcer{inner: inner, opt: opt}
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind       containerKind
	path       string
	keys       map[string]struct{}
	pendingKey string
	haveKey    bool
	nextIndex  int
}

type enforcer struct {
	inner TokenSource
	opt   EnforceOptions
	stack []frame
}

func (e *enforcer) Location() int64 { return e.inner.Location() }

func (e *enforcer) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}

	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		path := e.valuePath()
		f := frame{kind: kindArray, path: path}
		if tok.Kind == KindBeginObject {
			f.kind = kindObject
			f.keys = make(map[string]struct{})
		}
		e.stack = append(e.stack, f)
		if e.opt.MaxDepth > 0 && len(e.stack) > e.opt.MaxDepth {
			return Token{}, e.fail(SimpleIssue{Code: CodeParseError, Path: pointer(path), Message: "max depth exceeded"})
		}
	case KindEndObject, KindEndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
		e.valueDone()
	case KindKey:
		if err := e.key(tok.String); err != nil {
			return Token{}, err
		}
	default:
		e.valuePath()
		e.valueDone()
	}

	if e.opt.MaxBytes > 0 {
		if off := e.Location(); off >= 0 && off > e.opt.MaxBytes {
			return Token{}, e.fail(SimpleIssue{Code: CodeTruncated, Path: pointer(e.currentPath()), Message: "max bytes exceeded"})
		}
	}
	return tok, nil
}

func (e *enforcer) key(name string) error {
	n := len(e.stack)
	if n == 0 || e.stack[n-1].kind != kindObject {
		return nil
	}
	top := &e.stack[n-1]
	if _, dup := top.keys[name]; dup && e.opt.OnDuplicate != DupIgnore {
		si := SimpleIssue{Code: CodeDuplicateKey, Path: joinPointer(top.path, name), Message: "key '" + name + "' duplicated"}
		if e.opt.OnDuplicate == DupError || e.opt.FailFast {
			return e.fail(si)
		}
		e.report(si)
	}
	top.keys[name] = struct{}{}
	top.pendingKey = name
	top.haveKey = true
	return nil
}

// valuePath returns the pointer of the value about to be read and advances
// array indexes.
func (e *enforcer) valuePath() string {
	n := len(e.stack)
	if n == 0 {
		return ""
	}
	top := &e.stack[n-1]
	if top.kind == kindArray {
		p := joinPointer(top.path, strconv.Itoa(top.nextIndex))
		top.nextIndex++
		return p
	}
	if top.haveKey {
		return joinPointer(top.path, top.pendingKey)
	}
	return top.path
}

// valueDone marks the pending object member as consumed.
func (e *enforcer) valueDone() {
	if n := len(e.stack); n > 0 && e.stack[n-1].kind == kindObject {
		e.stack[n-1].haveKey = false
		e.stack[n-1].pendingKey = ""
	}
}

func (e *enforcer) currentPath() string {
	if n := len(e.stack); n > 0 {
		return e.stack[n-1].path
	}
	return ""
}

func (e *enforcer) report(si SimpleIssue) {
	if e.opt.IssueSink != nil {
		e.opt.IssueSink(si)
	}
}

func (e *enforcer) fail(si SimpleIssue) error {
	e.report(si)
	return IssueError{si}
}

func pointer(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func joinPointer(base, token string) string {
	return base + "/" + pointerEscaper.Replace(token)
}
