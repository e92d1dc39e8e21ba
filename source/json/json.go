// Package json is the encoding/json token driver. It is kept as the fallback
// for callers that want the standard library decoder; package source installs
// the go-json driver by default.
package json

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	eng "github.com/reoring/protoasm/internal/engine"
)

type jsonSource struct {
	dec        *json.Decoder
	frames     eng.Frames
	lastOffset int64
}

// NewReader wraps an io.Reader into an engine.TokenSource for JSON.
func NewReader(r io.Reader) eng.TokenSource {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &jsonSource{dec: dec, lastOffset: -1}
}

// NewBytes wraps a byte slice into an engine.TokenSource for JSON.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (s *jsonSource) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return eng.Token{}, err
	}
	s.lastOffset = s.dec.InputOffset()
	t := eng.Token{Offset: s.lastOffset}

	switch v := tok.(type) {
	case json.Delim:
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
	case json.Number:
		t.Kind, t.Number = eng.KindNumber, string(v)
	case float64:
		t.Kind, t.Number = eng.KindNumber, strconv.FormatFloat(v, 'g', -1, 64)
	default:
		t.Kind = eng.KindNull
	}
	s.frames.Value()
	return t, nil
}

func (s *jsonSource) Location() int64 { return s.lastOffset }
