package engine_test

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eng "github.com/reoring/protoasm/internal/engine"
)

type sliceSource struct {
	toks []eng.Token
	i    int
}

func (s *sliceSource) NextToken() (eng.Token, error) {
	if s.i >= len(s.toks) {
		return eng.Token{}, io.EOF
	}
	t := s.toks[s.i]
	s.i++
	return t, nil
}

func (s *sliceSource) Location() int64 { return int64(s.i * 10) }

func tk(k eng.Kind, s string) eng.Token { return eng.Token{Kind: k, String: s} }

// {"a": {"b": 1, "b": 2}, "c": [1, {"d": true}]}
func sample() []eng.Token {
	return []eng.Token{
		tk(eng.KindBeginObject, ""),
		tk(eng.KindKey, "a"),
		tk(eng.KindBeginObject, ""),
		tk(eng.KindKey, "b"),
		{Kind: eng.KindNumber, Number: "1"},
		tk(eng.KindKey, "b"),
		{Kind: eng.KindNumber, Number: "2"},
		tk(eng.KindEndObject, ""),
		tk(eng.KindKey, "c"),
		tk(eng.KindBeginArray, ""),
		{Kind: eng.KindNumber, Number: "1"},
		tk(eng.KindBeginObject, ""),
		tk(eng.KindKey, "d"),
		{Kind: eng.KindBool, Bool: true},
		tk(eng.KindEndObject, ""),
		tk(eng.KindEndArray, ""),
		tk(eng.KindEndObject, ""),
	}
}

func drain(src eng.TokenSource) (int, error) {
	n := 0
	for {
		_, err := src.NextToken()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

func TestEnforce_DuplicateError(t *testing.T) {
	src := eng.WrapWithEnforcement(&sliceSource{toks: sample()}, eng.EnforceOptions{OnDuplicate: eng.DupError})
	_, err := drain(src)
	var v *eng.Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "duplicate_key", v.Code)
	assert.Equal(t, "/a/b", v.Path)
	assert.Equal(t, "b", v.Key)
}

func TestEnforce_DuplicateWarn(t *testing.T) {
	var warned []*eng.Violation
	src := eng.WrapWithEnforcement(&sliceSource{toks: sample()}, eng.EnforceOptions{
		OnDuplicate: eng.DupWarn,
		OnWarn:      func(v *eng.Violation) { warned = append(warned, v) },
	})
	n, err := drain(src)
	require.NoError(t, err)
	assert.Equal(t, len(sample()), n)
	require.Len(t, warned, 1)
	assert.Equal(t, "/a/b", warned[0].Path)
}

func TestEnforce_MaxDepth(t *testing.T) {
	src := eng.WrapWithEnforcement(&sliceSource{toks: sample()}, eng.EnforceOptions{MaxDepth: 2})
	_, err := drain(src)
	var v *eng.Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "parse_error", v.Code)
	assert.Equal(t, "/c/1", v.Path)
}

func TestEnforce_MaxBytes(t *testing.T) {
	src := eng.WrapWithEnforcement(&sliceSource{toks: sample()}, eng.EnforceOptions{MaxBytes: 25})
	n, err := drain(src)
	var v *eng.Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "truncated", v.Code)
	assert.Equal(t, 2, n)
}

func TestEnforce_Disabled(t *testing.T) {
	assert.False(t, eng.EnforceOptions{}.Enabled())
	assert.True(t, eng.EnforceOptions{MaxDepth: 1}.Enabled())
}

func TestFrames_ClassifiesKeys(t *testing.T) {
	var f eng.Frames
	f.OpenObject()
	assert.Equal(t, eng.KindKey, f.StringKind())
	assert.Equal(t, eng.KindString, f.StringKind())
	assert.Equal(t, eng.KindKey, f.StringKind())
	f.OpenArray()
	assert.Equal(t, eng.KindString, f.StringKind())
	assert.Equal(t, eng.KindString, f.StringKind())
	f.Close()
	assert.Equal(t, eng.KindKey, f.StringKind())
	assert.Equal(t, 1, f.Depth())
}
