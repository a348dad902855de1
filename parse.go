package polyjson

import (
	"errors"
	"io"

	eng "github.com/reoring/polyjson/internal/engine"
)

// ReadTree consumes a Source and builds the document tree (ordered objects,
// json.Number numbers) while enforcing the given options. The last option
// wins; without options nothing is enforced.
func ReadTree(src Source, opts ...DecodeOpt) (any, error) {
	if src == nil {
		return nil, singleIssue(ErrDeserialization, CodeParseError, "nil source")
	}
	opt := lastOpt(opts, DecodeOpt{})
	v, err := eng.DecodeTree(enforce(engineTokenSource(src), opt))
	if err != nil {
		return nil, toIssues(err)
	}
	return v, nil
}

func enforce(src eng.TokenSource, opt DecodeOpt) eng.TokenSource {
	eo := eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		FailFast:    opt.FailFast,
	}
	if eo.Disabled() {
		return src
	}
	if opt.OnIssue != nil {
		eo.IssueSink = func(si eng.SimpleIssue) {
			opt.OnIssue(Issue{Kind: ErrDeserialization, Path: si.Path, Code: si.Code, Message: si.Message})
		}
	}
	return eng.WrapWithEnforcement(src, eo)
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Error:
		return eng.DupError
	case Warn:
		return eng.DupWarn
	default:
		return eng.DupIgnore
	}
}

// toIssues maps reader failures onto deserialization Issues.
func toIssues(err error) Issues {
	if err == nil {
		return nil
	}
	if ii, ok := AsIssues(err); ok {
		return ii
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return AppendIssues(nil, Issue{Kind: ErrDeserialization, Code: ie.Code, Path: ie.Path, Message: ie.Message})
	}
	msg := err.Error()
	if errors.Is(err, io.ErrUnexpectedEOF) {
		msg = "unexpected end of input"
	}
	return AppendIssues(nil, Issue{Kind: ErrDeserialization, Path: "/", Code: CodeParseError, Message: msg, Cause: err})
}

func singleIssue(kind error, code, msg string) Issues {
	return AppendIssues(nil, Issue{Kind: kind, Path: "/", Code: code, Message: msg})
}
