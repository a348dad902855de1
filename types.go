package polyjson

// Severity expresses the severity level for input anomalies.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures enforcement for duplicate keys.
type Strictness struct {
	OnDuplicateKey Severity // Ignore, Warn or Error (duplicate JSON keys).
}

// DecodeOpt bundles input enforcement options applied while reading a
// document tree.
type DecodeOpt struct {
	Strictness Strictness
	MaxDepth   int   // 0 disables the nesting limit.
	MaxBytes   int64 // 0 disables the size limit.
	FailFast   bool  // Treat warnings as errors.
	// OnIssue receives non-fatal issues (duplicate-key warnings).
	OnIssue func(Issue)
}

func lastOpt(opts []DecodeOpt, def DecodeOpt) DecodeOpt {
	if len(opts) > 0 {
		return opts[len(opts)-1]
	}
	return def
}
