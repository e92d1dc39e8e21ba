package schema

import (
	"strings"

	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Types finds concrete message and extension types.
type Types interface {
	FindMessageByName(protoreflect.FullName) (protoreflect.MessageType, error)
	FindExtensionByName(protoreflect.FullName) (protoreflect.ExtensionType, error)
	FindExtensionByNumber(protoreflect.FullName, protoreflect.FieldNumber) (protoreflect.ExtensionType, error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithSeparator sets the separator used when serializing root names.
func WithSeparator(sep Separator) Option { return func(r *Registry) { r.sep = sep } }

// WithShortRootNames serializes roots by their bare message name.
func WithShortRootNames() Option { return func(r *Registry) { r.short = true } }

// WithTypes overrides the message and extension types used to build messages.
func WithTypes(t Types) Option { return func(r *Registry) { r.types = t } }

// Registry implements name resolution over a set of file descriptors.
type Registry struct {
	files   *protoregistry.Files
	types   Types
	sep     Separator
	short   bool
	byShort map[string][]protoreflect.MessageDescriptor
}

// NewRegistry indexes files. Messages are built as dynamic messages unless
// WithTypes supplies concrete types.
func NewRegistry(files *protoregistry.Files, opts ...Option) *Registry {
	r := &Registry{files: files, sep: Dot, byShort: map[string][]protoreflect.MessageDescriptor{}}
	for _, o := range opts {
		o(r)
	}
	if r.types == nil {
		r.types = dynamicpb.NewTypes(files)
	}
	files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		r.indexMessages(fd.Messages())
		return true
	})
	return r
}

// FromGlobal resolves against the generated types linked into the binary.
func FromGlobal(opts ...Option) *Registry {
	return NewRegistry(protoregistry.GlobalFiles, append([]Option{WithTypes(protoregistry.GlobalTypes)}, opts...)...)
}

// FromDescriptorSet builds a Registry from a FileDescriptorSet.
func FromDescriptorSet(set *descriptorpb.FileDescriptorSet, opts ...Option) (*Registry, error) {
	files, err := protodesc.NewFiles(set)
	if err != nil {
		return nil, err
	}
	return NewRegistry(files, opts...), nil
}

func (r *Registry) indexMessages(mds protoreflect.MessageDescriptors) {
	for i := 0; i < mds.Len(); i++ {
		md := mds.Get(i)
		if md.IsMapEntry() {
			continue
		}
		name := string(md.Name())
		r.byShort[name] = append(r.byShort[name], md)
		r.indexMessages(md.Messages())
	}
}

// Files returns the underlying descriptor registry.
func (r *Registry) Files() *protoregistry.Files { return r.files }

// RootForName resolves a package-qualified name written with any separator,
// or a short name that is unique in the registry. It returns nil otherwise.
func (r *Registry) RootForName(name string) protoreflect.MessageDescriptor {
	full, ok := normalizeFullName(name)
	if !ok {
		return nil
	}
	if d, err := r.files.FindDescriptorByName(protoreflect.FullName(full)); err == nil {
		if md, ok := d.(protoreflect.MessageDescriptor); ok && !md.IsMapEntry() {
			return md
		}
	}
	if candidates := r.byShort[name]; len(candidates) == 1 {
		return candidates[0]
	}
	return nil
}

// SerializedMessageName is the name a root of type md is written under.
func (r *Registry) SerializedMessageName(md protoreflect.MessageDescriptor) string {
	if r.short {
		return string(md.Name())
	}
	full := string(md.FullName())
	if r.sep == Dot {
		return full
	}
	return strings.ReplaceAll(full, ".", string(rune(r.sep)))
}

// FieldForName resolves name within md by JSON name, proto name, or the
// snake_case form of a lowerCamel name. Extensions of md are found by full
// name, optionally in brackets.
func (r *Registry) FieldForName(md protoreflect.MessageDescriptor, name string) protoreflect.FieldDescriptor {
	fields := md.Fields()
	if fd := fields.ByJSONName(name); fd != nil {
		return fd
	}
	if fd := fields.ByName(protoreflect.Name(name)); fd != nil {
		return fd
	}
	if fd := fields.ByName(protoreflect.Name(camelToSnake(name))); fd != nil {
		return fd
	}
	if md.ExtensionRanges().Len() == 0 {
		return nil
	}
	full, ok := normalizeFullName(strings.TrimSuffix(strings.TrimPrefix(name, "["), "]"))
	if !ok {
		return nil
	}
	xt, err := r.types.FindExtensionByName(protoreflect.FullName(full))
	if err != nil {
		return nil
	}
	xd := xt.TypeDescriptor()
	if xd.ContainingMessage().FullName() != md.FullName() {
		return nil
	}
	return xd
}

// NewMessage returns an empty mutable message of type md.
func (r *Registry) NewMessage(md protoreflect.MessageDescriptor) protoreflect.Message {
	if mt, err := r.types.FindMessageByName(md.FullName()); err == nil {
		return mt.New()
	}
	return dynamicpb.NewMessage(md)
}

func (r *Registry) FindExtensionByName(field protoreflect.FullName) (protoreflect.ExtensionType, error) {
	return r.types.FindExtensionByName(field)
}

func (r *Registry) FindExtensionByNumber(message protoreflect.FullName, field protoreflect.FieldNumber) (protoreflect.ExtensionType, error) {
	return r.types.FindExtensionByNumber(message, field)
}
