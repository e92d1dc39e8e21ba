// Package schema resolves serialized names to protobuf descriptors.
//
// A Registry maps root message names (package-qualified with a configurable
// separator, or bare short names) and lowerCamel or snake_case field names onto
// descriptors, and constructs empty messages for them. It satisfies the
// protoasm.Navigator interface and the extension resolver used by
// proto.UnmarshalOptions.
package schema
