package polyjson

import (
	"strconv"
	"strings"

	"github.com/reoring/polyjson/i18n"
)

// pathRef builds JSON Pointer paths in a chain-safe way and creates Issues.
type pathRef struct {
	parts []string
}

func rootPath() pathRef { return pathRef{} }

// Field appends an object member, escaping '~' and '/' per RFC 6901.
func (p pathRef) Field(name string) pathRef {
	return pathRef{parts: append(append([]string{}, p.parts...), escapeToken(name))}
}

func (p pathRef) Index(i int) pathRef {
	return pathRef{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

func (p pathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

// Issue creates an Issue at p with a translated message.
func (p pathRef) Issue(kind error, code string, data map[string]string) Issue {
	var params map[string]any
	if len(data) > 0 {
		params = make(map[string]any, len(data))
		for k, v := range data {
			params[k] = v
		}
	}
	return Issue{Kind: kind, Path: p.Pointer(), Code: code, Message: i18n.T(code, data), Params: params}
}

func (p pathRef) Err(kind error, code string, data map[string]string) error {
	return Issues{p.Issue(kind, code, data)}
}

var tokenEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapeToken(s string) string { return tokenEscaper.Replace(s) }

// nest rewrites the paths of err so they are relative to the parent of the
// member or element named by token. Errors that are not Issues are wrapped as
// codec failures of type typeName.
func nest(err error, kind error, token, typeName string) error {
	if err == nil {
		return nil
	}
	iss, ok := AsIssues(err)
	if !ok {
		iss = Issues{rootPath().Issue(kind, CodeCodecFailure, map[string]string{"type": typeName, "detail": err.Error()})}
		iss[0].Cause = err
	}
	prefix := "/" + token
	out := make(Issues, len(iss))
	for i, it := range iss {
		if p := pathOrRoot(it.Path); p == "/" {
			it.Path = prefix
		} else {
			it.Path = prefix + p
		}
		out[i] = it
	}
	return out
}

// wrapForeign turns errors from custom codecs into Issues at the root.
func wrapForeign(err error, kind error, typeName string) error {
	if err == nil {
		return nil
	}
	if _, ok := AsIssues(err); ok {
		return err
	}
	it := rootPath().Issue(kind, CodeCodecFailure, map[string]string{"type": typeName, "detail": err.Error()})
	it.Cause = err
	return Issues{it}
}
