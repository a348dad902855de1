package polyjson

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidArgument      = "invalid_argument"
	CodeNotSubtype           = "not_subtype"
	CodeDuplicateLabel       = "duplicate_label"
	CodeBuilderConsumed      = "builder_consumed"
	CodeUnregisteredType     = "unregistered_type"
	CodeDefaultMismatch      = "default_mismatch"
	CodeUnsupportedType      = "unsupported_type"
	CodeInvalidType          = "invalid_type"
	CodeInvalidFormat        = "invalid_format"
	CodeDiscriminatorMissing = "discriminator_missing"
	CodeDiscriminatorUnknown = "discriminator_unknown"
	CodeParseError           = "parse_error"
	CodeDuplicateKey         = "duplicate_key"
	CodeTruncated            = "truncated"
	CodeCodecFailure         = "codec_failure"
)

// Error kinds. Every Issue belongs to exactly one kind, so callers can branch
// with errors.Is without inspecting codes.
var (
	// ErrInvalidArgument marks misuse of the registration API.
	ErrInvalidArgument = errors.New("polyjson: invalid argument")
	// ErrSerialization marks failures while encoding a value into a document.
	ErrSerialization = errors.New("polyjson: serialization failed")
	// ErrDeserialization marks failures while reading or decoding a document.
	ErrDeserialization = errors.New("polyjson: deserialization failed")
)

// Issue represents a single failure entry.
type Issue struct {
	Kind    error  // ErrInvalidArgument, ErrSerialization or ErrDeserialization.
	Path    string // JSON Pointer (for example: /steps/2/type).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"label":"circle"}) for
	// i18n and observability.
	Params map[string]any
}

// Issues is a collection of failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. discriminator_missing at /: missing field named "type"
		fmt.Fprintf(b, "%s at %s", it.Code, pathOrRoot(it.Path))
		if it.Message != "" {
			b.WriteString(": ")
			b.WriteString(it.Message)
		}
	}
	if n := len(iss); n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Is reports whether the first issue has the target kind, so that
// errors.Is(err, ErrDeserialization) works on Issues.
func (iss Issues) Is(target error) bool {
	return len(iss) > 0 && iss[0].Kind == target
}

// Unwrap exposes the first issue's cause.
func (iss Issues) Unwrap() error {
	if len(iss) == 0 {
		return nil
	}
	return iss[0].Cause
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// FirstCode returns the code of the first issue in err, or "" when err does
// not carry Issues.
func FirstCode(err error) string {
	if iss, ok := AsIssues(err); ok && len(iss) > 0 {
		return iss[0].Code
	}
	return ""
}

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
