package protoasm

import (
	"encoding/base64"
	"unicode/utf8"

	"github.com/reoring/protoasm/classify"
)

// StringResolver decides how a string literal maps onto string, bytes and
// message-as-bytes fields.
type StringResolver interface {
	StrictBytes(s string) ([]byte, error)
	CompatibleString(s string) (string, error)
	CompatibleBytes(s string) ([]byte, error)
	CompatibleMessageBytes(s string) ([]byte, error)
}

// ConservativeResolver never guesses. Strict bytes and message bytes are
// always base64; compatible strings and bytes keep the literal text.
type ConservativeResolver struct{}

func (ConservativeResolver) StrictBytes(s string) ([]byte, error)      { return DecodeBase64Lenient(s), nil }
func (ConservativeResolver) CompatibleString(s string) (string, error) { return s, nil }
func (ConservativeResolver) CompatibleBytes(s string) ([]byte, error)  { return []byte(s), nil }
func (ConservativeResolver) CompatibleMessageBytes(s string) ([]byte, error) {
	return DecodeBase64Lenient(s), nil
}

// HeuristicResolver guesses with the classify package when a literal could be
// either text or base64.
type HeuristicResolver struct{}

func (HeuristicResolver) StrictBytes(s string) ([]byte, error) { return canonicalBytes(s) }

// CompatibleString decodes likely base64 when the result is valid UTF-8 and
// keeps the literal otherwise.
func (HeuristicResolver) CompatibleString(s string) (string, error) {
	if classify.IsLikelyBase64String(s) {
		if b := DecodeBase64Lenient(s); utf8.Valid(b) {
			return string(b), nil
		}
	}
	return s, nil
}

func (HeuristicResolver) CompatibleBytes(s string) ([]byte, error) {
	if classify.IsLikelyBase64String(s) {
		return DecodeBase64Lenient(s), nil
	}
	return []byte(s), nil
}

func (HeuristicResolver) CompatibleMessageBytes(s string) ([]byte, error) { return canonicalBytes(s) }

func canonicalBytes(s string) ([]byte, error) {
	if !classify.IsCanonicalBase64([]byte(s)) {
		return nil, newIssue(CodeMalformedBinary, map[string]string{"reason": "not canonical base64"})
	}
	return DecodeBase64Lenient(s), nil
}

// DecodeBase64Lenient decodes standard base64 while skipping characters outside
// the alphabet. Decoding stops at the first '=', a dangling final character is
// dropped and unused padding bits are ignored.
func DecodeBase64Lenient(s string) []byte {
	clean := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '=' {
			break
		}
		if isBase64Char(c) {
			clean = append(clean, c)
		}
	}
	if len(clean)%4 == 1 {
		clean = clean[:len(clean)-1]
	}
	out := make([]byte, base64.RawStdEncoding.DecodedLen(len(clean)))
	n, _ := base64.RawStdEncoding.Decode(out, clean)
	return out[:n]
}

func isBase64Char(c byte) bool {
	return 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9' || c == '+' || c == '/'
}
