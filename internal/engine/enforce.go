package engine

import (
	"strconv"
	"strings"
)

// Enforcement wrapper for TokenSource to apply duplicate key handling,
// max depth checks, and max bytes truncation in a streaming fashion.

// DuplicatePolicy controls duplicate key handling.
type DuplicatePolicy int

const (
	DupIgnore DuplicatePolicy = iota
	DupWarn
	DupError
)

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicatePolicy
	MaxDepth    int   // 0: unlimited
	MaxBytes    int64 // 0: unlimited
	// OnWarn receives non-fatal violations (DupWarn). Nil drops them.
	OnWarn func(*Violation)
}

// Enabled reports whether any check is switched on.
func (o EnforceOptions) Enabled() bool {
	return o.OnDuplicate != DupIgnore || o.MaxDepth > 0 || o.MaxBytes > 0
}

// Violation is an enforcement failure with the JSON pointer of the offending
// token.
type Violation struct {
	Code    string // parse_error, duplicate_key or truncated
	Path    string
	Message string
	Key     string // duplicate_key only
	Offset  int64
}

func (v *Violation) Error() string { return v.Message + " at " + v.Path }

// WrapWithEnforcement returns a TokenSource that enforces duplicate key policy,
// maximum nesting depth, and maximum consumed bytes.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	return &enforcingTokenSource{inner: inner, opt: opt}
}

type scope struct {
	kind    containerKind
	path    string
	keys    map[string]struct{}
	pending string // key awaiting its value
	next    int    // next array index
}

type enforcingTokenSource struct {
	inner TokenSource
	opt   EnforceOptions
	stack []scope
}

func (e *enforcingTokenSource) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	if v := e.observe(tok); v != nil {
		if v.Code == "duplicate_key" && e.opt.OnDuplicate == DupWarn {
			if e.opt.OnWarn != nil {
				e.opt.OnWarn(v)
			}
		} else {
			return Token{}, v
		}
	}
	if e.opt.MaxBytes > 0 {
		if off := e.Location(); off > e.opt.MaxBytes {
			return Token{}, e.violation("truncated", e.containerPath(), "max bytes exceeded")
		}
	}
	return tok, nil
}

func (e *enforcingTokenSource) observe(tok Token) *Violation {
	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		s := scope{kind: kindArray, path: e.valuePath()}
		if tok.Kind == KindBeginObject {
			s.kind, s.keys = kindObject, map[string]struct{}{}
		}
		e.stack = append(e.stack, s)
		if e.opt.MaxDepth > 0 && len(e.stack) > e.opt.MaxDepth {
			return e.violation("parse_error", s.path, "max depth exceeded")
		}
	case KindEndObject, KindEndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
		e.completeValue()
	case KindKey:
		if len(e.stack) == 0 {
			return nil
		}
		top := &e.stack[len(e.stack)-1]
		top.pending = tok.String
		if e.opt.OnDuplicate == DupIgnore || top.keys == nil {
			return nil
		}
		if _, dup := top.keys[tok.String]; dup {
			v := e.violation("duplicate_key", joinPointer(top.path, tok.String), "key '"+tok.String+"' duplicated")
			v.Key = tok.String
			return v
		}
		top.keys[tok.String] = struct{}{}
	default:
		e.valuePath()
		e.completeValue()
	}
	return nil
}

// valuePath returns the pointer of the value about to be read and advances
// the array index.
func (e *enforcingTokenSource) valuePath() string {
	if len(e.stack) == 0 {
		return ""
	}
	top := &e.stack[len(e.stack)-1]
	if top.kind == kindArray {
		p := joinPointer(top.path, strconv.Itoa(top.next))
		top.next++
		return p
	}
	return joinPointer(top.path, top.pending)
}

func (e *enforcingTokenSource) containerPath() string {
	if n := len(e.stack); n > 0 {
		return e.stack[n-1].path
	}
	return ""
}

func (e *enforcingTokenSource) completeValue() {
	if n := len(e.stack); n > 0 {
		e.stack[n-1].pending = ""
	}
}

func (e *enforcingTokenSource) violation(code, path, msg string) *Violation {
	if path == "" {
		path = "/"
	}
	return &Violation{Code: code, Path: path, Message: msg, Offset: e.Location()}
}

func (e *enforcingTokenSource) Location() int64 { return e.inner.Location() }

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func joinPointer(base, token string) string {
	return base + "/" + pointerEscaper.Replace(token)
}
