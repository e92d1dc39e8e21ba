// Package testpb builds the descriptors used by tests without a protoc step.
//
//	package protoasm.test;            // coverage.proto (proto2)
//	enum Color { COLOR_UNSPECIFIED = 0; RED = 1; GREEN = 2; }
//	message Bool {
//	  required bool required = 1; optional bool optional = 2;
//	  repeated bool repeated = 3; optional bool defaulted = 4 [default = true];
//	}
//	message Message { required Bool required = 1; optional Bool optional = 2; repeated Bool repeated = 3; }
//	message Scalars {
//	  optional int32 int32_value = 1; ... optional Color color = 16;
//	  repeated int32 repeated_int32 = 17; repeated string repeated_string = 18;
//	  map<string, int32> counters = 19; optional Message nested = 20; repeated Bool items = 21;
//	  map<string, Bool> flags = 22;
//	  extensions 100 to 199;
//	}
//	extend Scalars { optional string note = 100; }
//
//	package protoasm.other;           // other.proto
//	message Bool { optional bool value = 1; }
//	message Widget { optional string name = 1; }
package testpb

import (
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

const Package = "protoasm.test"

type (
	fdp   = descriptorpb.FieldDescriptorProto
	label = descriptorpb.FieldDescriptorProto_Label
	ftype = descriptorpb.FieldDescriptorProto_Type
)

const (
	optional = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	required = descriptorpb.FieldDescriptorProto_LABEL_REQUIRED
	repeated = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
)

func field(name string, num int32, l label, t ftype, typeName string) *fdp {
	f := &fdp{Name: proto.String(name), Number: proto.Int32(num), Label: l.Enum(), Type: t.Enum()}
	if typeName != "" {
		f.TypeName = proto.String(typeName)
	}
	return f
}

func mapEntry(name string, value *fdp) *descriptorpb.DescriptorProto {
	value.Name, value.Number, value.Label = proto.String("value"), proto.Int32(2), optional.Enum()
	return &descriptorpb.DescriptorProto{
		Name: proto.String(name),
		Field: []*fdp{
			field("key", 1, optional, descriptorpb.FieldDescriptorProto_TYPE_STRING, ""),
			value,
		},
		Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
	}
}

// Set returns the descriptor set for both test files.
func Set() *descriptorpb.FileDescriptorSet {
	const (
		tBool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
		tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
		tString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
		tInt32   = descriptorpb.FieldDescriptorProto_TYPE_INT32
	)
	defaulted := field("defaulted", 4, optional, tBool, "")
	defaulted.DefaultValue = proto.String("true")

	scalarKinds := []struct {
		name string
		t    ftype
	}{
		{"int32_value", tInt32},
		{"int64_value", descriptorpb.FieldDescriptorProto_TYPE_INT64},
		{"uint32_value", descriptorpb.FieldDescriptorProto_TYPE_UINT32},
		{"uint64_value", descriptorpb.FieldDescriptorProto_TYPE_UINT64},
		{"sint32_value", descriptorpb.FieldDescriptorProto_TYPE_SINT32},
		{"sint64_value", descriptorpb.FieldDescriptorProto_TYPE_SINT64},
		{"fixed32_value", descriptorpb.FieldDescriptorProto_TYPE_FIXED32},
		{"fixed64_value", descriptorpb.FieldDescriptorProto_TYPE_FIXED64},
		{"sfixed32_value", descriptorpb.FieldDescriptorProto_TYPE_SFIXED32},
		{"sfixed64_value", descriptorpb.FieldDescriptorProto_TYPE_SFIXED64},
		{"float_value", descriptorpb.FieldDescriptorProto_TYPE_FLOAT},
		{"double_value", descriptorpb.FieldDescriptorProto_TYPE_DOUBLE},
		{"bool_value", tBool},
		{"string_value", tString},
		{"bytes_value", descriptorpb.FieldDescriptorProto_TYPE_BYTES},
	}
	var scalarFields []*fdp
	for i, k := range scalarKinds {
		scalarFields = append(scalarFields, field(k.name, int32(i+1), optional, k.t, ""))
	}
	scalarFields = append(scalarFields,
		field("color", 16, optional, descriptorpb.FieldDescriptorProto_TYPE_ENUM, ".protoasm.test.Color"),
		field("repeated_int32", 17, repeated, tInt32, ""),
		field("repeated_string", 18, repeated, tString, ""),
		field("counters", 19, repeated, tMessage, ".protoasm.test.Scalars.CountersEntry"),
		field("nested", 20, optional, tMessage, ".protoasm.test.Message"),
		field("items", 21, repeated, tMessage, ".protoasm.test.Bool"),
		field("flags", 22, repeated, tMessage, ".protoasm.test.Scalars.FlagsEntry"),
	)

	note := field("note", 100, optional, tString, "")
	note.Extendee = proto.String(".protoasm.test.Scalars")

	coverage := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("protoasm/test/coverage.proto"),
		Package: proto.String(Package),
		Syntax:  proto.String("proto2"),
		EnumType: []*descriptorpb.EnumDescriptorProto{{
			Name: proto.String("Color"),
			Value: []*descriptorpb.EnumValueDescriptorProto{
				{Name: proto.String("COLOR_UNSPECIFIED"), Number: proto.Int32(0)},
				{Name: proto.String("RED"), Number: proto.Int32(1)},
				{Name: proto.String("GREEN"), Number: proto.Int32(2)},
			},
		}},
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Bool"),
				Field: []*fdp{
					field("required", 1, required, tBool, ""),
					field("optional", 2, optional, tBool, ""),
					field("repeated", 3, repeated, tBool, ""),
					defaulted,
				},
			},
			{
				Name: proto.String("Message"),
				Field: []*fdp{
					field("required", 1, required, tMessage, ".protoasm.test.Bool"),
					field("optional", 2, optional, tMessage, ".protoasm.test.Bool"),
					field("repeated", 3, repeated, tMessage, ".protoasm.test.Bool"),
				},
			},
			{
				Name:  proto.String("Scalars"),
				Field: scalarFields,
				NestedType: []*descriptorpb.DescriptorProto{
					mapEntry("CountersEntry", &fdp{Type: tInt32.Enum()}),
					mapEntry("FlagsEntry", &fdp{Type: tMessage.Enum(), TypeName: proto.String(".protoasm.test.Bool")}),
				},
				ExtensionRange: []*descriptorpb.DescriptorProto_ExtensionRange{
					{Start: proto.Int32(100), End: proto.Int32(200)},
				},
			},
		},
		Extension: []*fdp{note},
	}

	other := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("protoasm/other/other.proto"),
		Package: proto.String("protoasm.other"),
		Syntax:  proto.String("proto2"),
		MessageType: []*descriptorpb.DescriptorProto{
			{Name: proto.String("Bool"), Field: []*fdp{field("value", 1, optional, tBool, "")}},
			{Name: proto.String("Widget"), Field: []*fdp{field("name", 1, optional, tString, "")}},
		},
	}
	return &descriptorpb.FileDescriptorSet{File: []*descriptorpb.FileDescriptorProto{coverage, other}}
}

var (
	filesOnce sync.Once
	files     *protoregistry.Files
)

// Files returns the registry of the test files. It panics on an invalid
// descriptor.
func Files() *protoregistry.Files {
	filesOnce.Do(func() {
		f, err := protodesc.NewFiles(Set())
		if err != nil {
			panic(err)
		}
		files = f
	})
	return files
}

// Message returns the descriptor of protoasm.test.<name>.
func Message(name string) protoreflect.MessageDescriptor {
	d, err := Files().FindDescriptorByName(protoreflect.FullName(Package + "." + name))
	if err != nil {
		panic(err)
	}
	return d.(protoreflect.MessageDescriptor)
}
