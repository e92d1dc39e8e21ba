package protoasm

import "slices"

// Literals recognizes the format-specific keywords for bool, infinity and NaN.
// Matching is exact; case is significant.
type Literals interface {
	IsTrue(s string) bool
	IsFalse(s string) bool
	IsPositiveInfinity(s string) bool
	IsNegativeInfinity(s string) bool
	IsNaN(s string) bool
}

// KeywordLiterals is a Literals backed by fixed keyword lists.
type KeywordLiterals struct {
	True             []string
	False            []string
	PositiveInfinity []string
	NegativeInfinity []string
	NaN              []string
}

func (k KeywordLiterals) IsTrue(s string) bool             { return slices.Contains(k.True, s) }
func (k KeywordLiterals) IsFalse(s string) bool            { return slices.Contains(k.False, s) }
func (k KeywordLiterals) IsPositiveInfinity(s string) bool { return slices.Contains(k.PositiveInfinity, s) }
func (k KeywordLiterals) IsNegativeInfinity(s string) bool { return slices.Contains(k.NegativeInfinity, s) }
func (k KeywordLiterals) IsNaN(s string) bool              { return slices.Contains(k.NaN, s) }

var (
	// DefaultLiterals are the JSON keywords.
	DefaultLiterals = KeywordLiterals{
		True:             []string{"true", "1"},
		False:            []string{"false", "0"},
		PositiveInfinity: []string{"Infinity"},
		NegativeInfinity: []string{"-Infinity"},
		NaN:              []string{"NaN"},
	}
	JSONLiterals = DefaultLiterals
	// XMLLiterals follow XML Schema float lexical forms.
	XMLLiterals = KeywordLiterals{
		True:             []string{"true", "1"},
		False:            []string{"false", "0"},
		PositiveInfinity: []string{"INF"},
		NegativeInfinity: []string{"-INF"},
		NaN:              []string{"NaN"},
	}
	// YAMLLiterals follow the YAML 1.2 core schema.
	YAMLLiterals = KeywordLiterals{
		True:             []string{"true", "1"},
		False:            []string{"false", "0"},
		PositiveInfinity: []string{".inf", ".Inf", ".INF", "+.inf", "+.Inf", "+.INF"},
		NegativeInfinity: []string{"-.inf", "-.Inf", "-.INF"},
		NaN:              []string{".nan", ".NaN", ".NAN"},
	}
)

// LiteralsByName returns the keyword set for "json", "xml" or "yaml".
func LiteralsByName(name string) (Literals, bool) {
	switch name {
	case "json":
		return JSONLiterals, true
	case "xml":
		return XMLLiterals, true
	case "yaml":
		return YAMLLiterals, true
	}
	return nil, false
}
