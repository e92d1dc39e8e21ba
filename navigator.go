package protoasm

import "google.golang.org/protobuf/reflect/protoreflect"

// Navigator maps serialized names onto schema descriptors. Naming policy
// (package separators, short names, camel or snake case fields) belongs to the
// implementation; see package schema.
type Navigator interface {
	// RootForName returns nil when name is not a known root message.
	RootForName(name string) protoreflect.MessageDescriptor
	// FieldForName returns nil when md has no field serialized as name.
	FieldForName(md protoreflect.MessageDescriptor, name string) protoreflect.FieldDescriptor
	SerializedMessageName(md protoreflect.MessageDescriptor) string
	NewMessage(md protoreflect.MessageDescriptor) protoreflect.Message
}

// extensionResolver is implemented by Navigators that can resolve extensions
// found while merging message bytes.
type extensionResolver interface {
	FindExtensionByName(field protoreflect.FullName) (protoreflect.ExtensionType, error)
	FindExtensionByNumber(message protoreflect.FullName, field protoreflect.FieldNumber) (protoreflect.ExtensionType, error)
}
