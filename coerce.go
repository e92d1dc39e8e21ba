package protoasm

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// floatPattern excludes hex floats, underscores and keywords that
// strconv.ParseFloat would otherwise accept.
var floatPattern = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?$`)

// Coercer converts literal text into a typed value for one field. A zero
// Coercer is strict with the conservative resolver and JSON keywords.
//
// The returned Value is invalid (no value) only for an unknown enumerator in
// compatible mode. Message fields yield the raw bytes to merge into a builder
// of the field's message type.
type Coercer struct {
	Mode     Mode
	Resolver StringResolver
	Literals Literals
}

func (c Coercer) resolver() StringResolver {
	if c.Resolver == nil {
		return ConservativeResolver{}
	}
	return c.Resolver
}

func (c Coercer) literals() Literals {
	if c.Literals == nil {
		return DefaultLiterals
	}
	return c.Literals
}

// Parse converts literal, found in scalar context sc, to a value for fd.
func (c Coercer) Parse(fd protoreflect.FieldDescriptor, literal string, sc ScalarContext) (protoreflect.Value, error) {
	strict := c.Mode == Strict
	if !sc.CanRepresent(fd.Kind(), !strict) {
		iss := fieldIssue(CodeIncompatibleContext, fd, map[string]string{"context": sc.String(), "kind": fd.Kind().String()})
		return protoreflect.Value{}, iss
	}
	var (
		v   protoreflect.Value
		err error
	)
	if strict {
		v, err = c.parseStrict(fd, literal)
	} else {
		v, err = c.parseCompatible(fd, literal)
	}
	if err != nil {
		return protoreflect.Value{}, fieldError(fd, literal, err)
	}
	return v, nil
}

func (c Coercer) parseStrict(fd protoreflect.FieldDescriptor, s string) (protoreflect.Value, error) {
	switch fd.Kind() {
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		v, err := strconv.ParseInt(s, 10, 32)
		return protoreflect.ValueOfInt32(int32(v)), err
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		v, err := strconv.ParseInt(s, 10, 64)
		return protoreflect.ValueOfInt64(v), err
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		v, err := strconv.ParseUint(s, 10, 32)
		return protoreflect.ValueOfUint32(uint32(v)), err
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		v, err := strconv.ParseUint(s, 10, 64)
		return protoreflect.ValueOfUint64(v), err
	case protoreflect.FloatKind:
		f, err := c.parseFloat(s, 32)
		return protoreflect.ValueOfFloat32(float32(f)), err
	case protoreflect.DoubleKind:
		f, err := c.parseFloat(s, 64)
		return protoreflect.ValueOfFloat64(f), err
	case protoreflect.BoolKind:
		switch lit := c.literals(); {
		case lit.IsTrue(s):
			return protoreflect.ValueOfBool(true), nil
		case lit.IsFalse(s):
			return protoreflect.ValueOfBool(false), nil
		}
		return protoreflect.Value{}, errNotBool
	case protoreflect.StringKind:
		return protoreflect.ValueOfString(s), nil
	case protoreflect.BytesKind:
		b, err := c.resolver().StrictBytes(s)
		return protoreflect.ValueOfBytes(b), err
	case protoreflect.EnumKind:
		ev := fd.Enum().Values().ByName(protoreflect.Name(s))
		if ev == nil {
			return protoreflect.Value{}, errUnknownEnumerator
		}
		return protoreflect.ValueOfEnum(ev.Number()), nil
	}
	return protoreflect.Value{}, errNotScalar
}

// parseCompatible follows the protobuf wire compatibility rules: the literal
// is read at the widest width and truncated like a C++ integer cast.
func (c Coercer) parseCompatible(fd protoreflect.FieldDescriptor, s string) (protoreflect.Value, error) {
	switch fd.Kind() {
	case protoreflect.Int32Kind:
		bits, err := c.parseIntegral(s)
		return protoreflect.ValueOfInt32(int32(bits)), err
	case protoreflect.Uint32Kind:
		bits, err := c.parseIntegral(s)
		return protoreflect.ValueOfUint32(uint32(bits)), err
	case protoreflect.Int64Kind:
		bits, err := c.parseIntegral(s)
		return protoreflect.ValueOfInt64(int64(bits)), err
	case protoreflect.Uint64Kind:
		bits, err := c.parseIntegral(s)
		return protoreflect.ValueOfUint64(bits), err
	case protoreflect.BoolKind:
		bits, err := c.parseIntegral(s)
		return protoreflect.ValueOfBool(bits != 0), err

	// zigzag encodings only interoperate with each other
	case protoreflect.Sint32Kind:
		v, err := strconv.ParseInt(s, 10, 64)
		return protoreflect.ValueOfInt32(int32(v)), err
	case protoreflect.Sint64Kind:
		v, err := strconv.ParseInt(s, 10, 64)
		return protoreflect.ValueOfInt64(v), err

	// fixed widths accept either signedness at their own width
	case protoreflect.Fixed32Kind:
		bits, err := parseFixed(s, 32)
		return protoreflect.ValueOfUint32(uint32(bits)), err
	case protoreflect.Sfixed32Kind:
		bits, err := parseFixed(s, 32)
		return protoreflect.ValueOfInt32(int32(uint32(bits))), err
	case protoreflect.Fixed64Kind:
		bits, err := parseFixed(s, 64)
		return protoreflect.ValueOfUint64(bits), err
	case protoreflect.Sfixed64Kind:
		bits, err := parseFixed(s, 64)
		return protoreflect.ValueOfInt64(int64(bits)), err

	case protoreflect.FloatKind:
		f, err := c.parseFloat(s, 32)
		return protoreflect.ValueOfFloat32(float32(f)), err
	case protoreflect.DoubleKind:
		f, err := c.parseFloat(s, 64)
		return protoreflect.ValueOfFloat64(f), err

	case protoreflect.EnumKind:
		ev := fd.Enum().Values().ByName(protoreflect.Name(s))
		if ev == nil {
			return protoreflect.Value{}, nil
		}
		return protoreflect.ValueOfEnum(ev.Number()), nil

	case protoreflect.StringKind:
		str, err := c.resolver().CompatibleString(s)
		return protoreflect.ValueOfString(str), err
	case protoreflect.BytesKind:
		b, err := c.resolver().CompatibleBytes(s)
		return protoreflect.ValueOfBytes(b), err
	case protoreflect.MessageKind:
		b, err := c.resolver().CompatibleMessageBytes(s)
		return protoreflect.ValueOfBytes(b), err
	}
	return protoreflect.Value{}, errNotScalar
}

// parseIntegral accepts bool keywords and any integer in
// [math.MinInt64, math.MaxUint64], returning its 64-bit two's complement bits.
func (c Coercer) parseIntegral(s string) (uint64, error) {
	lit := c.literals()
	switch {
	case lit.IsTrue(s):
		return 1, nil
	case lit.IsFalse(s):
		return 0, nil
	case strings.HasPrefix(s, "-"):
		v, err := strconv.ParseInt(s, 10, 64)
		return uint64(v), err
	}
	return strconv.ParseUint(s, 10, 64)
}

func parseFixed(s string, bitSize int) (uint64, error) {
	if !strings.HasPrefix(s, "-") {
		return strconv.ParseUint(s, 10, bitSize)
	}
	v, err := strconv.ParseInt(s, 10, bitSize)
	if bitSize == 32 {
		return uint64(uint32(int32(v))), err
	}
	return uint64(v), err
}

func (c Coercer) parseFloat(s string, bitSize int) (float64, error) {
	lit := c.literals()
	switch {
	case lit.IsPositiveInfinity(s):
		return math.Inf(1), nil
	case lit.IsNegativeInfinity(s):
		return math.Inf(-1), nil
	case lit.IsNaN(s):
		return math.NaN(), nil
	case !floatPattern.MatchString(s):
		return 0, errNotFloat
	}
	f, err := strconv.ParseFloat(s, bitSize)
	if errors.Is(err, strconv.ErrRange) {
		// overflow saturates to infinity
		return f, nil
	}
	return f, err
}

var (
	errNotBool           = errors.New("not a bool literal")
	errNotFloat          = errors.New("not a float literal")
	errNotScalar         = errors.New("field is not scalar")
	errUnknownEnumerator = errors.New("unknown enumerator")
)

func fieldIssue(code string, fd protoreflect.FieldDescriptor, params map[string]string) *Issue {
	if params == nil {
		params = map[string]string{}
	}
	params["field"] = string(fd.Name())
	iss := newIssue(code, params)
	iss.Field = string(fd.FullName())
	return iss
}

// fieldError maps a conversion failure onto an Issue for fd.
func fieldError(fd protoreflect.FieldDescriptor, literal string, err error) error {
	if iss, ok := AsIssue(err); ok {
		if iss.Field == "" {
			iss.Field = string(fd.FullName())
		}
		return iss
	}
	params := map[string]string{"literal": literal, "kind": fd.Kind().String()}
	switch {
	case errors.Is(err, errUnknownEnumerator):
		return fieldIssue(CodeUnknownEnumerator, fd, params).withCause(err)
	case errors.Is(err, errNotScalar):
		return fieldIssue(CodeIncompatibleContext, fd, params).withCause(err)
	}
	return fieldIssue(CodeNumberFormat, fd, params).withCause(err)
}
