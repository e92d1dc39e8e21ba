// Package yaml turns YAML documents into the engine token stream. Each
// document becomes one top-level value; scalars map by their resolved tag so
// that plain numbers and booleans read as unquoted literals while strings,
// quoted or not, read as quoted ones.
package yaml

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	y "gopkg.in/yaml.v3"

	eng "github.com/reoring/protoasm/internal/engine"
)

// DuplicateKeyError reports a duplicate key found in a YAML mapping with both
// the first occurrence position and the duplicate occurrence position.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// Option configures a YAML token source.
type Option func(*source)

// RejectDuplicateKeys fails with *DuplicateKeyError on the first repeated
// mapping key.
func RejectDuplicateKeys() Option { return func(s *source) { s.strict = true } }

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type source struct {
	in     *countingReader
	dec    *y.Decoder
	strict bool
	queue  []eng.Token
}

// NewReader wraps r into an engine.TokenSource. Location reports the bytes
// handed to the YAML decoder so far, which runs ahead of the token position.
func NewReader(r io.Reader, opts ...Option) eng.TokenSource {
	in := &countingReader{r: r}
	s := &source{in: in, dec: y.NewDecoder(in)}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *source) NextToken() (eng.Token, error) {
	for len(s.queue) == 0 {
		var doc y.Node
		if err := s.dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return eng.Token{}, io.EOF
			}
			return eng.Token{}, err
		}
		if len(doc.Content) == 0 {
			continue
		}
		toks, err := s.flatten(doc.Content[0], nil)
		if err != nil {
			return eng.Token{}, err
		}
		s.queue = toks
	}
	t := s.queue[0]
	s.queue = s.queue[1:]
	return t, nil
}

func (s *source) Location() int64 { return s.in.n }

func (s *source) flatten(n *y.Node, out []eng.Token) ([]eng.Token, error) {
	switch n.Kind {
	case y.DocumentNode:
		for _, c := range n.Content {
			var err error
			if out, err = s.flatten(c, out); err != nil {
				return nil, err
			}
		}
		return out, nil
	case y.AliasNode:
		return s.flatten(n.Alias, out)
	case y.MappingNode:
		out = append(out, token(eng.KindBeginObject))
		first := make(map[string][2]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if s.strict {
				if pos, dup := first[k.Value]; dup {
					return nil, &DuplicateKeyError{Key: k.Value, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
				}
				first[k.Value] = [2]int{k.Line, k.Column}
			}
			out = append(out, eng.Token{Kind: eng.KindKey, String: k.Value, Offset: -1})
			var err error
			if out, err = s.flatten(v, out); err != nil {
				return nil, err
			}
		}
		return append(out, token(eng.KindEndObject)), nil
	case y.SequenceNode:
		out = append(out, token(eng.KindBeginArray))
		for _, c := range n.Content {
			var err error
			if out, err = s.flatten(c, out); err != nil {
				return nil, err
			}
		}
		return append(out, token(eng.KindEndArray)), nil
	case y.ScalarNode:
		return append(out, scalar(n)), nil
	}
	return nil, fmt.Errorf("yaml: unsupported node kind %d at %d:%d", n.Kind, n.Line, n.Column)
}

func token(k eng.Kind) eng.Token { return eng.Token{Kind: k, Offset: -1} }

func scalar(n *y.Node) eng.Token {
	t := token(eng.KindString)
	switch n.ShortTag() {
	case "!!null":
		t.Kind = eng.KindNull
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			t.Kind, t.Bool = eng.KindBool, b
		} else {
			t.String = n.Value
		}
	case "!!int":
		t.Kind, t.Number = eng.KindNumber, decimal(n.Value)
	case "!!float":
		t.Kind, t.Number = eng.KindNumber, n.Value
	default:
		t.String = n.Value
	}
	return t
}

// decimal rewrites YAML integer notations (0x, 0o, underscores) as base 10.
func decimal(s string) string {
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return strconv.FormatInt(v, 10)
	}
	if v, err := strconv.ParseUint(s, 0, 64); err == nil {
		return strconv.FormatUint(v, 10)
	}
	return s
}
