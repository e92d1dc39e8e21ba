package protoasm

import (
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Mode selects how literals are matched against field types. It is fixed for
// the lifetime of an Assembler.
type Mode int

const (
	Strict     Mode = iota // Literal syntax must match the declared wire type.
	Compatible             // Accept any wire-compatible representation.
)

func (m Mode) String() string {
	if m == Compatible {
		return "compatible"
	}
	return "strict"
}

// StructureContext records whether the source syntax marked a position as a
// single value or as one element of a list.
type StructureContext int

const (
	StructureUnspecified StructureContext = iota // Format does not distinguish.
	StructureObject                              // Single-valued position.
	StructureArray                               // Multi-valued position.
)

func (c StructureContext) String() string {
	switch c {
	case StructureObject:
		return "object"
	case StructureArray:
		return "array"
	default:
		return "unspecified"
	}
}

// CanRepresent reports whether fd's cardinality is legal in this context under
// strict rules.
func (c StructureContext) CanRepresent(fd protoreflect.FieldDescriptor) bool {
	repeated := fd.Cardinality() == protoreflect.Repeated
	switch c {
	case StructureObject:
		return !repeated
	case StructureArray:
		return repeated
	default:
		return true
	}
}

// ScalarContext records whether a literal was quoted in the source.
type ScalarContext int

const (
	ScalarUnspecified ScalarContext = iota
	ScalarQuoted
	ScalarUnquoted
)

func (c ScalarContext) String() string {
	switch c {
	case ScalarQuoted:
		return "quoted"
	case ScalarUnquoted:
		return "unquoted"
	default:
		return "unspecified"
	}
}

func (c ScalarContext) allowsQuoted() bool   { return c != ScalarUnquoted }
func (c ScalarContext) allowsUnquoted() bool { return c != ScalarQuoted }

// CanRepresent reports whether a literal in this context may carry a value of
// the given kind. Message kinds are representable only as quoted bytes and
// only when allowMessageAsBytes is set; groups never are.
func (c ScalarContext) CanRepresent(kind protoreflect.Kind, allowMessageAsBytes bool) bool {
	switch kind {
	case protoreflect.StringKind, protoreflect.BytesKind, protoreflect.EnumKind:
		return c.allowsQuoted()
	case protoreflect.MessageKind:
		return allowMessageAsBytes && c.allowsQuoted()
	case protoreflect.GroupKind:
		return false
	default:
		return c.allowsUnquoted()
	}
}

// Literal is the text content of a leaf together with its quoting.
type Literal struct {
	Text    string
	Context ScalarContext
}

// Options configures an Assembler.
type Options struct {
	Mode Mode
	// Resolver decides between text and base64 for string, bytes and
	// message-as-bytes literals. Defaults to ConservativeResolver.
	Resolver StringResolver
	// Literals overrides the bool/infinity/NaN keywords. When nil each reader
	// installs its own format's keywords and DefaultLiterals applies otherwise.
	Literals Literals
	// AllowPartial skips the required-field check when a root is popped.
	AllowPartial bool
	Logger       *zap.Logger // nil: no logging
	Metrics      *Metrics    // nil: no metrics
}

// Severity expresses the severity level for reader issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures reader-level enforcement.
type Strictness struct {
	OnDuplicateKey Severity // Warn logs, Error fails (duplicate object keys).
}

// ReadOpt bundles options for the format readers.
type ReadOpt struct {
	Strictness Strictness
	MaxDepth   int
	MaxBytes   int64
}
