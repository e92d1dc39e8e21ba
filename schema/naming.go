package schema

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Separator joins package components of a serialized root name.
type Separator byte

const (
	Dot    Separator = '.'
	Dash   Separator = '-'
	Colon  Separator = ':'
	Dollar Separator = '$'
)

// ParseSeparator maps "dot", "dash", "colon" or "dollar" to a Separator. The
// empty string selects Dot.
func ParseSeparator(name string) (Separator, error) {
	switch name {
	case "", "dot":
		return Dot, nil
	case "dash":
		return Dash, nil
	case "colon":
		return Colon, nil
	case "dollar":
		return Dollar, nil
	}
	return 0, fmt.Errorf("schema: unknown package separator %q", name)
}

// separatedIdent matches identifiers joined by any supported separator.
var separatedIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(?:[.\-:$][A-Za-z_][A-Za-z0-9_]*)*$`)

var toDots = strings.NewReplacer("-", ".", ":", ".", "$", ".")

// normalizeFullName converts a serialized name written with any separator to
// a dotted full name. ok is false when name is not a separated identifier.
func normalizeFullName(name string) (string, bool) {
	if !separatedIdent.MatchString(name) {
		return "", false
	}
	return toDots.Replace(name), true
}

// camelToSnake converts lowerCamel to lower_underscore.
func camelToSnake(s string) string {
	b := &strings.Builder{}
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
