package engine

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindBeginObject:
		return "begin-object"
	case KindEndObject:
		return "end-object"
	case KindBeginArray:
		return "begin-array"
	case KindEndArray:
		return "end-array"
	case KindKey:
		return "key"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	}
	return "unknown"
}

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string // key and string tokens
	Number string // number text as written (YAML integers are normalized to decimal)
	Bool   bool
	Offset int64 // -1 when unknown
}

// TokenSource is a minimal interface required by the readers.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

// Frames tracks container nesting for drivers whose underlying decoder does
// not distinguish object keys from string values.
type Frames struct {
	stack []frame
}

// OpenObject records a '{'.
func (f *Frames) OpenObject() { f.stack = append(f.stack, frame{kind: kindObject, expectingKey: true}) }

// OpenArray records a '['.
func (f *Frames) OpenArray() { f.stack = append(f.stack, frame{kind: kindArray}) }

// Close records a '}' or ']'. The closed container completes the parent
// member's value.
func (f *Frames) Close() {
	if n := len(f.stack); n > 0 {
		f.stack = f.stack[:n-1]
	}
	f.Value()
}

// StringKind classifies a string token as a key or a value.
func (f *Frames) StringKind() Kind {
	if n := len(f.stack); n > 0 {
		top := &f.stack[n-1]
		if top.kind == kindObject && top.expectingKey {
			top.expectingKey = false
			return KindKey
		}
	}
	f.Value()
	return KindString
}

// Value records a completed value.
func (f *Frames) Value() {
	if n := len(f.stack); n > 0 {
		top := &f.stack[n-1]
		if top.kind == kindObject {
			top.expectingKey = true
		}
	}
}

// Depth returns the number of open containers.
func (f *Frames) Depth() int { return len(f.stack) }
