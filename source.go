package protoasm

import (
	"io"
	"sync"

	eng "github.com/reoring/protoasm/internal/engine"
	jsonsrc "github.com/reoring/protoasm/source/json"
	yamlsrc "github.com/reoring/protoasm/source/yaml"
)

// TokenKind enumerates token kinds of a structured source.
type TokenKind = eng.Kind

const (
	TokenBeginObject = eng.KindBeginObject
	TokenEndObject   = eng.KindEndObject
	TokenBeginArray  = eng.KindBeginArray
	TokenEndArray    = eng.KindEndArray
	TokenKey         = eng.KindKey
	TokenString      = eng.KindString
	TokenNumber      = eng.KindNumber
	TokenBool        = eng.KindBool
	TokenNull        = eng.KindNull
)

// Token describes a token in the input stream. Offset records the byte
// position when known (-1 otherwise).
type Token = eng.Token

// Format names the syntax a Source was read from. Readers pick their default
// Literals from it.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Source abstracts over structured input sources.
type Source interface {
	NextToken() (Token, error)
	Format() Format
	Location() int64 // byte offset; -1 if unknown
}

// JSONDriver converts JSON input into a Source via a pluggable SPI. The
// built-in implementation is based on encoding/json; importing package
// github.com/reoring/protoasm/source swaps in go-json.
type JSONDriver interface {
	NewReader(r io.Reader) Source
	NewBytes(b []byte) Source
	Name() string
}

var (
	jsonDriverMu      sync.RWMutex
	currentJSONDriver JSONDriver = defaultJSONDriver{}
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

// UseDefaultJSONDriver restores the encoding/json-backed driver.
func UseDefaultJSONDriver() { SetJSONDriver(defaultJSONDriver{}) }

// JSONDriverName returns the name of the installed driver.
func JSONDriverName() string { return getJSONDriver().Name() }

func getJSONDriver() JSONDriver {
	jsonDriverMu.RLock()
	d := currentJSONDriver
	jsonDriverMu.RUnlock()
	return d
}

type defaultJSONDriver struct{}

func (defaultJSONDriver) NewReader(r io.Reader) Source {
	return SourceFromEngine(jsonsrc.NewReader(r), FormatJSON)
}
func (defaultJSONDriver) NewBytes(b []byte) Source {
	return SourceFromEngine(jsonsrc.NewBytes(b), FormatJSON)
}
func (defaultJSONDriver) Name() string { return "encoding/json" }

// JSONReader wraps an io.Reader as a JSON Source.
func JSONReader(r io.Reader) Source { return getJSONDriver().NewReader(r) }

// JSONBytes wraps a byte slice as a JSON Source.
func JSONBytes(b []byte) Source { return getJSONDriver().NewBytes(b) }

// YAMLReader wraps an io.Reader as a YAML Source. Every document in the stream
// is one top-level value.
func YAMLReader(r io.Reader) Source { return SourceFromEngine(yamlsrc.NewReader(r), FormatYAML) }

// StrictYAMLReader is YAMLReader but fails on a repeated mapping key, with
// Issue params reporting both positions.
func StrictYAMLReader(r io.Reader) Source {
	return SourceFromEngine(yamlsrc.NewReader(r, yamlsrc.RejectDuplicateKeys()), FormatYAML)
}

// SourceFromEngine wraps an engine token source as a Source of format f.
func SourceFromEngine(inner eng.TokenSource, f Format) Source {
	return &engineSource{TokenSource: inner, format: f}
}

type engineSource struct {
	eng.TokenSource
	format Format
}

func (s *engineSource) Format() Format { return s.format }

// EnforceSource wraps a Source with duplicate key, depth and size checks. Duplicate
// keys under Warn are passed to warn, which may be nil.
func EnforceSource(s Source, opt ReadOpt, warn func(*Issue)) Source {
	eo := eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
	}
	if !eo.Enabled() {
		return s
	}
	if warn != nil {
		eo.OnWarn = func(v *eng.Violation) { warn(violationIssue(v)) }
	}
	var inner eng.TokenSource = s
	if es, ok := s.(*engineSource); ok {
		inner = es.TokenSource
	}
	return SourceFromEngine(eng.WrapWithEnforcement(inner, eo), s.Format())
}

func toEngineDup(s Severity) eng.DuplicatePolicy {
	switch s {
	case Warn:
		return eng.DupWarn
	case Error:
		return eng.DupError
	}
	return eng.DupIgnore
}

func violationIssue(v *eng.Violation) *Issue {
	params := map[string]string{"reason": v.Message}
	if v.Key != "" {
		params = map[string]string{"key": v.Key}
	}
	iss := newIssue(v.Code, params)
	iss.Path, iss.Offset = v.Path, v.Offset
	return iss
}
