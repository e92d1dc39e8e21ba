package protoasm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/reoring/protoasm"
	"github.com/reoring/protoasm/internal/testpb"
	"github.com/reoring/protoasm/schema"
)

const (
	rootBool     = "protoasm.test.Bool"
	rootMessage  = "protoasm.test.Message"
	rootScalars  = "protoasm.test.Scalars"
	obj          = protoasm.StructureObject
	arr          = protoasm.StructureArray
	unspecStruct = protoasm.StructureUnspecified
)

func q(s string) protoasm.Literal { return protoasm.Literal{Text: s, Context: protoasm.ScalarQuoted} }
func u(s string) protoasm.Literal { return protoasm.Literal{Text: s, Context: protoasm.ScalarUnquoted} }

func ptr(l protoasm.Literal) *protoasm.Literal { return &l }

func newAssembler(mode protoasm.Mode) *protoasm.Assembler {
	return protoasm.NewAssembler(schema.NewRegistry(testpb.Files()), protoasm.Options{Mode: mode})
}

func get(t *testing.T, m protoreflect.Message, name string) protoreflect.Value {
	t.Helper()
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	require.NotNil(t, fd, name)
	return m.Get(fd)
}

func has(t *testing.T, m protoreflect.Message, name string) bool {
	t.Helper()
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	require.NotNil(t, fd, name)
	return m.Has(fd)
}

func requireCode(t *testing.T, err error, code string) *protoasm.Issue {
	t.Helper()
	require.Error(t, err)
	iss, ok := protoasm.AsIssue(err)
	require.Truef(t, ok, "not an Issue: %v", err)
	require.Equalf(t, code, iss.Code, "%v", err)
	return iss
}

func TestAssembler_ScalarRoot(t *testing.T) {
	a := newAssembler(protoasm.Strict)
	assert.True(t, a.IsEmpty())
	assert.Equal(t, protoasm.Strict, a.Mode())

	require.NoError(t, a.PushRoot(rootBool))
	assert.True(t, a.IsRootPoppable())
	require.NoError(t, a.AddOrSetScalarField("required", obj, u("true")))
	require.NoError(t, a.AddOrSetScalarField("repeated", arr, u("false")))
	require.NoError(t, a.AddOrSetScalarField("repeated", arr, u("1")))

	m, err := a.PopRoot(rootBool)
	require.NoError(t, err)
	assert.True(t, a.IsEmpty())
	assert.True(t, get(t, m, "required").Bool())
	assert.False(t, has(t, m, "optional"))
	assert.True(t, get(t, m, "defaulted").Bool())
	list := get(t, m, "repeated").List()
	require.Equal(t, 2, list.Len())
	assert.False(t, list.Get(0).Bool())
	assert.True(t, list.Get(1).Bool())
}

func TestAssembler_StackDiscipline(t *testing.T) {
	a := newAssembler(protoasm.Strict)

	_, err := a.PopRoot(rootBool)
	requireCode(t, err, protoasm.CodeIllegalState)
	requireCode(t, a.PushField("required", obj), protoasm.CodeIllegalState)
	requireCode(t, a.PushRoot("protoasm.test.Nope"), protoasm.CodeUnknownName)

	require.NoError(t, a.PushRoot(rootBool))
	requireCode(t, a.PushRoot(rootBool), protoasm.CodeIllegalState)
	requireCode(t, a.PushRootBuilder(dynamicpb.NewMessage(testpb.Message("Bool"))), protoasm.CodeIllegalState)

	// nothing pushed to pop
	requireCode(t, a.PopField("required", nil), protoasm.CodeIllegalState)

	require.NoError(t, a.PushField("required", obj))
	assert.False(t, a.IsRootPoppable())
	kind, ok := a.CurrentFieldType()
	require.True(t, ok)
	assert.Equal(t, protoreflect.BoolKind, kind)

	// premature root pop
	_, err = a.PopRoot(rootBool)
	requireCode(t, err, protoasm.CodeIllegalState)
	requireCode(t, a.PushField("optional", obj), protoasm.CodeIllegalState)
	requireCode(t, a.PopField("optional", nil), protoasm.CodeNameMismatch)
	requireCode(t, a.PopField("bogus", nil), protoasm.CodeUnknownName)

	require.NoError(t, a.PopField("required", ptr(u("true"))))
	_, ok = a.CurrentFieldType()
	assert.False(t, ok)

	_, err = a.PopRoot("protoasm.other.Bool")
	requireCode(t, err, protoasm.CodeNameMismatch)

	// any separator names the same root
	m, err := a.PopRoot("protoasm-test-Bool")
	require.NoError(t, err)
	assert.True(t, get(t, m, "required").Bool())

	require.NoError(t, a.PushRoot(rootBool))
	a.Clear()
	assert.True(t, a.IsEmpty())
}

func TestAssembler_NestedMessages(t *testing.T) {
	a := newAssembler(protoasm.Strict)
	require.NoError(t, a.PushRoot(rootMessage))

	require.NoError(t, a.PushField("required", obj))
	kind, ok := a.CurrentFieldType()
	assert.False(t, ok, "child builder has no open field: %v", kind)
	require.NoError(t, a.AddOrSetScalarField("required", obj, u("true")))

	err := a.AddOrSetScalarField("bogus", obj, u("1"))
	iss := requireCode(t, err, protoasm.CodeUnknownName)
	assert.Equal(t, "/protoasm.test.Message/required", iss.Path)

	requireCode(t, a.PopField("optional", nil), protoasm.CodeNameMismatch)
	require.NoError(t, a.PopField("required", nil))

	for _, v := range []string{"true", "false"} {
		require.NoError(t, a.PushField("repeated", arr))
		require.NoError(t, a.AddOrSetScalarField("required", obj, u(v)))
		require.NoError(t, a.PopField("repeated", nil))
	}

	m, err := a.PopRoot(rootMessage)
	require.NoError(t, err)
	assert.True(t, get(t, get(t, m, "required").Message(), "required").Bool())
	list := get(t, m, "repeated").List()
	require.Equal(t, 2, list.Len())
	assert.True(t, get(t, list.Get(0).Message(), "required").Bool())
	assert.False(t, get(t, list.Get(1).Message(), "required").Bool())
}

func TestAssembler_RequiredFields(t *testing.T) {
	a := newAssembler(protoasm.Strict)
	require.NoError(t, a.PushRoot(rootMessage))
	require.NoError(t, a.PushField("required", obj))
	require.NoError(t, a.PopField("required", nil))
	_, err := a.PopRoot(rootMessage)
	requireCode(t, err, protoasm.CodeRequired)

	partial := protoasm.NewAssembler(schema.NewRegistry(testpb.Files()), protoasm.Options{AllowPartial: true})
	require.NoError(t, partial.PushRoot(rootMessage))
	m, err := partial.PopRoot(rootMessage)
	require.NoError(t, err)
	assert.False(t, has(t, m, "required"))
}

func TestAssembler_StructureContext(t *testing.T) {
	strict := newAssembler(protoasm.Strict)
	require.NoError(t, strict.PushRoot(rootBool))
	requireCode(t, strict.AddOrSetScalarField("repeated", obj, u("true")), protoasm.CodeIncompatibleContext)
	requireCode(t, strict.AddOrSetScalarField("optional", arr, u("true")), protoasm.CodeIncompatibleContext)
	requireCode(t, strict.PushField("optional", arr), protoasm.CodeIncompatibleContext)
	require.NoError(t, strict.AddOrSetScalarField("optional", unspecStruct, u("true")))
	require.NoError(t, strict.AddOrSetScalarField("repeated", unspecStruct, u("true")))

	compat := newAssembler(protoasm.Compatible)
	require.NoError(t, compat.PushRoot(rootBool))
	require.NoError(t, compat.AddOrSetScalarField("required", obj, u("1")))
	// singular field in a list: last value wins
	require.NoError(t, compat.AddOrSetScalarField("optional", arr, u("true")))
	require.NoError(t, compat.AddOrSetScalarField("optional", arr, u("false")))
	// repeated field written as single values
	require.NoError(t, compat.AddOrSetScalarField("repeated", obj, u("true")))
	require.NoError(t, compat.AddOrSetScalarField("repeated", obj, u("true")))
	m, err := compat.PopRoot(rootBool)
	require.NoError(t, err)
	assert.True(t, has(t, m, "optional"))
	assert.False(t, get(t, m, "optional").Bool())
	assert.Equal(t, 2, get(t, m, "repeated").List().Len())
}

func TestAssembler_UnknownFields(t *testing.T) {
	strict := newAssembler(protoasm.Strict)
	require.NoError(t, strict.PushRoot(rootBool))
	requireCode(t, strict.PushField("mystery", obj), protoasm.CodeUnknownName)
	requireCode(t, strict.AddOrSetScalarField("mystery", obj, u("1")), protoasm.CodeUnknownName)

	a := newAssembler(protoasm.Compatible)
	require.NoError(t, a.PushRoot(rootBool))
	require.NoError(t, a.AddOrSetScalarField("required", obj, u("true")))

	require.NoError(t, a.PushField("mystery", obj))
	assert.False(t, a.IsRootPoppable())
	require.NoError(t, a.PushField("required", obj)) // swallowed, even though Bool has it
	require.NoError(t, a.AddOrSetScalarField("optional", obj, u("true")))
	require.NoError(t, a.ClearScalarField("required"))
	requireCode(t, a.PopField("other", nil), protoasm.CodeNameMismatch)
	require.NoError(t, a.PopField("required", ptr(q("junk"))))
	require.NoError(t, a.PopField("mystery", nil))
	assert.True(t, a.IsRootPoppable())

	require.NoError(t, a.AddOrSetScalarField("alsoUnknown", obj, u("1")))
	requireCode(t, a.ClearScalarField("alsoUnknown"), protoasm.CodeUnknownName)

	m, err := a.PopRoot(rootBool)
	require.NoError(t, err)
	assert.True(t, get(t, m, "required").Bool())
	assert.False(t, has(t, m, "optional"))
}

func TestAssembler_ClearScalarField(t *testing.T) {
	a := newAssembler(protoasm.Strict)
	require.NoError(t, a.PushRoot(rootBool))
	require.NoError(t, a.AddOrSetScalarField("optional", obj, u("true")))
	require.NoError(t, a.ClearScalarField("optional"))
	require.NoError(t, a.AddOrSetScalarField("required", obj, u("false")))
	requireCode(t, a.ClearScalarField("bogus"), protoasm.CodeUnknownName)

	m, err := a.PopRoot(rootBool)
	require.NoError(t, err)
	assert.False(t, has(t, m, "optional"))
}

func TestAssembler_MessageAsBytes(t *testing.T) {
	// Message{required: Bool{required: true}}
	const encoded = "CgIIAQ=="

	a := newAssembler(protoasm.Compatible)
	require.NoError(t, a.PushRoot(rootScalars))
	require.NoError(t, a.PushField("nested", obj))
	require.NoError(t, a.PopField("nested", ptr(q(encoded))))
	m, err := a.PopRoot(rootScalars)
	require.NoError(t, err)
	nested := get(t, m, "nested").Message()
	assert.True(t, get(t, get(t, nested, "required").Message(), "required").Bool())

	require.NoError(t, a.PushRoot(rootScalars))
	require.NoError(t, a.AddOrSetScalarField("nested", obj, q(encoded)))
	m, err = a.PopRoot(rootScalars)
	require.NoError(t, err)
	assert.True(t, has(t, m, "nested"))

	require.NoError(t, a.PushRoot(rootScalars))
	requireCode(t, a.AddOrSetScalarField("nested", obj, q("AAAAAA==")), protoasm.CodeMalformedBinary)

	strict := newAssembler(protoasm.Strict)
	require.NoError(t, strict.PushRoot(rootScalars))
	requireCode(t, strict.AddOrSetScalarField("nested", obj, q(encoded)), protoasm.CodeIncompatibleContext)
	require.NoError(t, strict.PushField("nested", obj))
	requireCode(t, strict.PopField("nested", ptr(q(encoded))), protoasm.CodeIncompatibleContext)
}

func TestAssembler_UnknownEnumerator(t *testing.T) {
	a := newAssembler(protoasm.Compatible)
	require.NoError(t, a.PushRoot(rootScalars))
	require.NoError(t, a.AddOrSetScalarField("color", obj, q("RED")))
	require.NoError(t, a.AddOrSetScalarField("color", obj, q("BLUE")))
	m, err := a.PopRoot(rootScalars)
	require.NoError(t, err)
	assert.False(t, has(t, m, "color"))

	strict := newAssembler(protoasm.Strict)
	require.NoError(t, strict.PushRoot(rootScalars))
	iss := requireCode(t, strict.AddOrSetScalarField("color", obj, q("BLUE")), protoasm.CodeUnknownEnumerator)
	assert.Equal(t, "protoasm.test.Scalars.color", iss.Field)
	assert.Equal(t, "/"+rootScalars, iss.Path)
}

func TestAssembler_Maps(t *testing.T) {
	a := newAssembler(protoasm.Strict)
	require.NoError(t, a.PushRoot(rootScalars))
	for _, kv := range [][2]string{{"a", "3"}, {"b", "4"}, {"a", "5"}} {
		require.NoError(t, a.PushField("counters", arr))
		require.NoError(t, a.AddOrSetScalarField("key", obj, q(kv[0])))
		require.NoError(t, a.AddOrSetScalarField("value", obj, u(kv[1])))
		require.NoError(t, a.PopField("counters", nil))
	}

	require.NoError(t, a.PushField("flags", arr))
	require.NoError(t, a.AddOrSetScalarField("key", obj, q("x")))
	require.NoError(t, a.PushField("value", obj))
	require.NoError(t, a.AddOrSetScalarField("required", obj, u("true")))
	require.NoError(t, a.PopField("value", nil))
	require.NoError(t, a.PopField("flags", nil))

	requireCode(t, a.PushField("counters", obj), protoasm.CodeIncompatibleContext)

	m, err := a.PopRoot(rootScalars)
	require.NoError(t, err)
	counters := get(t, m, "counters").Map()
	assert.Equal(t, 2, counters.Len())
	assert.Equal(t, int64(5), counters.Get(protoreflect.ValueOfString("a").MapKey()).Int())
	assert.Equal(t, int64(4), counters.Get(protoreflect.ValueOfString("b").MapKey()).Int())

	flags := get(t, m, "flags").Map()
	require.Equal(t, 1, flags.Len())
	x := flags.Get(protoreflect.ValueOfString("x").MapKey()).Message()
	assert.True(t, get(t, x, "required").Bool())
}

func TestAssembler_Extensions(t *testing.T) {
	reg := schema.NewRegistry(testpb.Files())
	a := protoasm.NewAssembler(reg, protoasm.Options{})
	require.NoError(t, a.PushRoot(rootScalars))
	require.NoError(t, a.AddOrSetScalarField("[protoasm.test.note]", obj, q("hi")))
	m, err := a.PopRoot(rootScalars)
	require.NoError(t, err)

	xd := reg.FieldForName(testpb.Message("Scalars"), "[protoasm.test.note]")
	require.NotNil(t, xd)
	assert.Equal(t, "hi", m.Get(xd).String())
}

func TestAssembler_RootBuilder(t *testing.T) {
	a := newAssembler(protoasm.Strict)
	dst := dynamicpb.NewMessage(testpb.Message("Bool"))
	require.NoError(t, a.PushRootBuilder(dst))
	require.NoError(t, a.AddOrSetScalarField("required", obj, u("false")))
	m, err := a.PopRootBuilder()
	require.NoError(t, err)
	assert.Same(t, dst, m.Interface())

	_, err = a.PopRootBuilder()
	requireCode(t, err, protoasm.CodeIllegalState)
}

func TestAssembler_RootOrField(t *testing.T) {
	a := newAssembler(protoasm.Strict)
	unspec := func(s string) *protoasm.Literal {
		return &protoasm.Literal{Text: s, Context: protoasm.ScalarUnspecified}
	}

	require.NoError(t, a.PushRootOrField(rootMessage))
	require.NoError(t, a.PushRootOrField("required"))
	require.NoError(t, a.PushRootOrField("required"))
	m, err := a.PopRootOrField("required", unspec("true"))
	require.NoError(t, err)
	assert.Nil(t, m)
	m, err = a.PopRootOrField("required", nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = a.PopRootOrField(rootMessage, unspec("ignored"))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, get(t, get(t, m, "required").Message(), "required").Bool())
}

func TestAssembler_AddOrSetField(t *testing.T) {
	a := newAssembler(protoasm.Strict)
	md := testpb.Message("Bool")
	repeated := md.Fields().ByName("repeated")
	optional := md.Fields().ByName("optional")

	require.NoError(t, a.PushRoot(rootBool))
	require.NoError(t, a.AddOrSetField(repeated, protoreflect.ValueOfBool(true)))
	require.NoError(t, a.AddOrSetField(repeated, protoreflect.ValueOfBool(false)))
	requireCode(t, a.AddOrSetField(repeated, protoreflect.Value{}), protoasm.CodeIncompatibleContext)
	require.NoError(t, a.AddOrSetField(optional, protoreflect.ValueOfBool(true)))
	require.NoError(t, a.AddOrSetField(optional, protoreflect.Value{}))
	require.NoError(t, a.AddOrSetScalarField("required", obj, u("true")))

	m, err := a.PopRoot(rootBool)
	require.NoError(t, err)
	assert.Equal(t, 2, get(t, m, "repeated").List().Len())
	assert.False(t, has(t, m, "optional"))
}

func TestAssembler_CoercionErrorsCarryField(t *testing.T) {
	a := newAssembler(protoasm.Strict)
	require.NoError(t, a.PushRoot(rootScalars))
	iss := requireCode(t, a.AddOrSetScalarField("int32Value", obj, u("x")), protoasm.CodeNumberFormat)
	assert.Equal(t, "protoasm.test.Scalars.int32_value", iss.Field)
	assert.Equal(t, "x", iss.Params["literal"])
	assert.Error(t, iss.Unwrap())
}
