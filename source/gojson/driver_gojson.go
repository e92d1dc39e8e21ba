package gojson

import (
	"bytes"
	"io"
	"strconv"

	j "github.com/goccy/go-json"

	"github.com/reoring/protoasm"
	eng "github.com/reoring/protoasm/internal/engine"
)

// Driver returns a protoasm.JSONDriver backed by goccy/go-json.
func Driver() protoasm.JSONDriver { return driverGoJSON{} }

type driverGoJSON struct{}

func (driverGoJSON) NewReader(r io.Reader) protoasm.Source {
	return protoasm.SourceFromEngine(NewReader(r), protoasm.FormatJSON)
}
func (driverGoJSON) NewBytes(b []byte) protoasm.Source {
	return protoasm.SourceFromEngine(NewBytes(b), protoasm.FormatJSON)
}
func (driverGoJSON) Name() string { return "go-json" }

// ---- engine.TokenSource implementation using go-json Decoder ----

type source struct {
	dec    *j.Decoder
	frames eng.Frames
}

// NewReader wraps an io.Reader into an engine.TokenSource for JSON using go-json.
func NewReader(r io.Reader) eng.TokenSource {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	return &source{dec: dec}
}

// NewBytes wraps a byte slice into an engine.TokenSource for JSON using go-json.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (s *source) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return eng.Token{}, err
	}
	t := eng.Token{Offset: -1}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.frames.OpenObject()
			t.Kind = eng.KindBeginObject
		case '}':
			s.frames.Close()
			t.Kind = eng.KindEndObject
		case '[':
			s.frames.OpenArray()
			t.Kind = eng.KindBeginArray
		case ']':
			s.frames.Close()
			t.Kind = eng.KindEndArray
		}
		return t, nil
	case string:
		t.Kind, t.String = s.frames.StringKind(), v
		return t, nil
	case bool:
		t.Kind, t.Bool = eng.KindBool, v
	case j.Number:
		t.Kind, t.Number = eng.KindNumber, string(v)
	case float64:
		t.Kind, t.Number = eng.KindNumber, strconv.FormatFloat(v, 'g', -1, 64)
	default:
		t.Kind = eng.KindNull
	}
	s.frames.Value()
	return t, nil
}

func (s *source) Location() int64 { return -1 }
