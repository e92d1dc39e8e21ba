// Package protoasm assembles protobuf messages from textual formats.
//
// - An Assembler turns balanced push/pop events into populated messages (dynamicpb or generated)
// - A Coercer converts literals to typed field values in strict or compatible mode
// - StringResolvers decide between text and base64 for string, bytes and message-as-bytes literals
// - Readers drive an Assembler from JSON, YAML and XML, with duplicate-key/depth/size enforcement
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations under internal/.
// - Schema naming lives in schema/, literal classification in classify/, token drivers under source/.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	reg, err := schema.Load([]string{"api.binpb"}, schema.WithSeparator(schema.Dash))
//	asm := protoasm.NewAssembler(reg, protoasm.Options{Mode: protoasm.Compatible})
//	msgs, err := protoasm.ReadNamed(ctx, asm, protoasm.JSONBytes(data), protoasm.ReadOpt{})
//
//	// or push events directly
//	_ = asm.PushRoot("acme-Person")
//	_ = asm.AddOrSetScalarField("name", protoasm.StructureObject, protoasm.Literal{Text: "Ada", Context: protoasm.ScalarQuoted})
//	person, err := asm.PopRoot("acme-Person")
package protoasm
