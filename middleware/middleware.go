// Package middleware holds the framework-neutral parts of the HTTP
// adapters: decoding a request body through a Mapper, carrying the decoded
// value in the request context, and shaping issues for error responses.
package middleware

import (
	"context"
	"errors"
	"net/http"

	gojson "github.com/goccy/go-json"

	polyjson "github.com/reoring/polyjson"
)

// ctxKeyDecoded is a typed context key for storing a decoded T.
// Using a generic struct type ensures uniqueness per T.
type ctxKeyDecoded[T any] struct{}

// ContextWithDecoded attaches a decoded T to the context.
func ContextWithDecoded[T any](ctx context.Context, v T) context.Context {
	return context.WithValue(ctx, ctxKeyDecoded[T]{}, v)
}

// DecodedFromContext retrieves a decoded T from context.
func DecodedFromContext[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(ctxKeyDecoded[T]{}).(T)
	return v, ok
}

// DefaultDecodeOpt returns a recommended default for HTTP JSON boundaries.
// - Duplicate keys are errors
// - Nesting deeper than 64 levels is rejected
func DefaultDecodeOpt() polyjson.DecodeOpt {
	return polyjson.DecodeOpt{
		Strictness: polyjson.Strictness{OnDuplicateKey: polyjson.Error},
		MaxDepth:   64,
	}
}

// OrDefault returns DefaultDecodeOpt when opt is the zero value.
func OrDefault(opt polyjson.DecodeOpt) polyjson.DecodeOpt {
	if opt.Strictness.OnDuplicateKey == polyjson.Ignore && opt.MaxDepth == 0 && opt.MaxBytes == 0 && !opt.FailFast && opt.OnIssue == nil {
		return DefaultDecodeOpt()
	}
	return opt
}

// DecodeRequest reads the request body as JSON and decodes it into T.
func DecodeRequest[T any](r *http.Request, m *polyjson.Mapper, opt polyjson.DecodeOpt) (T, error) {
	return polyjson.UnmarshalFrom[T](r.Context(), m, polyjson.JSONReader(r.Body), opt)
}

// IssuePayload is the JSON form of one issue.
type IssuePayload struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// ErrorPayload shapes an error for JSON responses: {"issues": [...]} when it
// carries Issues, {"error": "..."} otherwise.
func ErrorPayload(err error) map[string]any {
	iss, ok := polyjson.AsIssues(err)
	if !ok {
		return map[string]any{"error": err.Error()}
	}
	out := make([]IssuePayload, 0, len(iss))
	for _, it := range iss {
		path := it.Path
		if path == "" {
			path = "/"
		}
		out = append(out, IssuePayload{Code: it.Code, Path: path, Message: it.Message, Hint: it.Hint})
	}
	return map[string]any{"issues": out}
}

// Status maps a decode error to an HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	case polyjson.FirstCode(err) == polyjson.CodeTruncated:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadRequest
	}
}

// Handler decodes the body of every request into T before calling next,
// which reads it back with DecodedFromContext. Failures are answered with
// ErrorPayload and never reach next.
func Handler[T any](m *polyjson.Mapper, opt polyjson.DecodeOpt, next http.Handler) http.Handler {
	opt = OrDefault(opt)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, err := DecodeRequest[T](r, m, opt)
		if err != nil {
			WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithDecoded(r.Context(), v)))
	})
}

// WriteError writes ErrorPayload(err) with the status from Status.
func WriteError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(Status(err))
	_ = gojson.NewEncoder(w).Encode(ErrorPayload(err))
}
