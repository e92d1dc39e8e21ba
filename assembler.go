package protoasm

import (
	"strings"

	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

type entryKind int

const (
	realEntry    entryKind = iota // owns a builder
	unknownEntry                  // swallows an unrecognized subtree
)

// entry is one frame of the assembly stack.
type entry struct {
	kind entryKind

	// realEntry
	msg       protoreflect.Message
	field     protoreflect.FieldDescriptor // pending field, nil when none
	fieldName string                       // name the pending field was pushed as

	// unknownEntry: names pushed inside the skipped subtree, outermost first
	names []string
}

func (e *entry) hasField() bool {
	if e.kind == unknownEntry {
		return len(e.names) > 1
	}
	return e.field != nil
}

// Assembler turns a balanced stream of push/pop events into populated
// protobuf messages.
//
// Format readers call PushRoot/PushField when entering a name and the matching
// PopRoot/PopField when leaving it, supplying scalar leaves through
// AddOrSetScalarField or as the content of a pop. An Assembler holds a single
// mutable stack and must not be shared between goroutines; use one per
// document and Clear it to reuse. Any returned error leaves the stack in an
// unspecified state.
type Assembler struct {
	nav    Navigator
	opt    Options
	coerce Coercer
	log    *zap.Logger
	stack  []*entry
}

// NewAssembler returns an empty Assembler resolving names through nav.
func NewAssembler(nav Navigator, opt Options) *Assembler {
	lit := opt.Literals
	if lit == nil {
		lit = DefaultLiterals
	}
	res := opt.Resolver
	if res == nil {
		res = ConservativeResolver{}
	}
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{
		nav:    nav,
		opt:    opt,
		coerce: Coercer{Mode: opt.Mode, Resolver: res, Literals: lit},
		log:    log,
	}
}

// Mode returns the assembly mode.
func (a *Assembler) Mode() Mode { return a.opt.Mode }

// IsEmpty reports whether no root is being assembled.
func (a *Assembler) IsEmpty() bool { return len(a.stack) == 0 }

// Clear discards any partially assembled message.
func (a *Assembler) Clear() { a.stack = a.stack[:0] }

// IsRootPoppable reports whether the stack holds only the root and it has no
// open field.
func (a *Assembler) IsRootPoppable() bool {
	return len(a.stack) == 1 && a.stack[0].kind == realEntry && !a.stack[0].hasField()
}

// CurrentFieldType returns the kind of the innermost open field.
func (a *Assembler) CurrentFieldType() (protoreflect.Kind, bool) {
	if len(a.stack) == 0 {
		return 0, false
	}
	top := a.stack[len(a.stack)-1]
	if top.kind != realEntry || top.field == nil {
		return 0, false
	}
	return top.field.Kind(), true
}

// PushRootBuilder starts assembling into m. The stack must be empty.
func (a *Assembler) PushRootBuilder(m protoreflect.Message) error {
	if len(a.stack) != 0 {
		return a.fail(CodeIllegalState, kv{"reason": "root pushed onto non-empty stack"})
	}
	a.stack = append(a.stack, &entry{kind: realEntry, msg: m})
	return nil
}

// PopRootBuilder finishes the root and returns its message regardless of the
// root's serialized name.
func (a *Assembler) PopRootBuilder() (protoreflect.Message, error) {
	if err := a.checkRootPoppable(); err != nil {
		return nil, err
	}
	return a.finishRoot()
}

// PushRoot starts assembling a new message of the root type serialized as name.
func (a *Assembler) PushRoot(name string) error {
	md := a.nav.RootForName(name)
	if md == nil {
		return a.fail(CodeUnknownName, kv{"root": name})
	}
	return a.PushRootBuilder(a.nav.NewMessage(md))
}

// PopRoot finishes the root, which must serialize as name.
func (a *Assembler) PopRoot(name string) (protoreflect.Message, error) {
	if err := a.checkRootPoppable(); err != nil {
		return nil, err
	}
	md := a.stack[0].msg.Descriptor()
	if !a.rootMatches(md, name) {
		return nil, a.fail(CodeNameMismatch, kv{"pushed": a.nav.SerializedMessageName(md), "popped": name})
	}
	return a.finishRoot()
}

// PushRootOrField pushes a root on an empty stack and a field otherwise.
func (a *Assembler) PushRootOrField(name string) error {
	if len(a.stack) == 0 {
		return a.PushRoot(name)
	}
	return a.PushField(name, StructureUnspecified)
}

// PopRootOrField pops the root when it is poppable, ignoring content, and
// returns it. Otherwise it pops a field and returns a nil message.
func (a *Assembler) PopRootOrField(name string, content *Literal) (protoreflect.Message, error) {
	if a.IsRootPoppable() {
		return a.PopRoot(name)
	}
	return nil, a.PopField(name, content)
}

// PushField opens the field serialized as name on the innermost message.
// Message fields get a fresh child builder on top of the stack.
func (a *Assembler) PushField(name string, sc StructureContext) error {
	top, err := a.top()
	if err != nil {
		return err
	}
	if top.kind == unknownEntry {
		top.names = append(top.names, name)
		return nil
	}
	if top.field != nil {
		return a.fail(CodeIllegalState, kv{"reason": "field " + top.fieldName + " still open", "field": name})
	}
	fd := a.nav.FieldForName(top.msg.Descriptor(), name)
	if fd == nil {
		if a.opt.Mode == Strict {
			return a.fail(CodeUnknownName, kv{"field": name})
		}
		a.skipUnknown(top, name)
		a.stack = append(a.stack, &entry{kind: unknownEntry, names: []string{name}})
		return nil
	}
	if err := a.checkStructure(fd, sc); err != nil {
		return err
	}
	top.field, top.fieldName = fd, name
	if isMessage(fd) {
		a.stack = append(a.stack, &entry{kind: realEntry, msg: newFieldMessage(top.msg, fd)})
	}
	return nil
}

// PopField closes the field serialized as name. For a scalar field, content
// (when not nil) is coerced and assigned. For a message field the finished
// child is assigned to the parent, or, when content is given, the child is
// replaced by the message decoded from the content.
func (a *Assembler) PopField(name string, content *Literal) error {
	top, err := a.top()
	if err != nil {
		return err
	}
	if top.kind == unknownEntry {
		last := len(top.names) - 1
		if top.names[last] != name {
			return a.fail(CodeNameMismatch, kv{"pushed": top.names[last], "popped": name})
		}
		if last == 0 {
			a.stack = a.stack[:len(a.stack)-1]
		} else {
			top.names = top.names[:last]
		}
		return nil
	}
	if top.field == nil {
		return a.popChild(name, content)
	}
	fd := a.nav.FieldForName(top.msg.Descriptor(), name)
	if fd == nil {
		return a.fail(CodeUnknownName, kv{"field": name})
	}
	if fd.FullName() != top.field.FullName() {
		return a.fail(CodeNameMismatch, kv{"pushed": top.fieldName, "popped": name})
	}
	if content != nil {
		if err := a.setScalar(top, fd, *content); err != nil {
			return err
		}
	}
	top.field, top.fieldName = nil, ""
	return nil
}

// popChild closes the message field whose child builder is on top.
func (a *Assembler) popChild(name string, content *Literal) error {
	if len(a.stack) < 2 {
		return a.fail(CodeIllegalState, kv{"reason": "no open field", "field": name})
	}
	child, parent := a.stack[len(a.stack)-1], a.stack[len(a.stack)-2]
	fd := parent.field
	if fd == nil || !isMessage(fd) {
		return a.fail(CodeIllegalState, kv{"reason": "no open field", "field": name})
	}
	if popped := a.nav.FieldForName(parent.msg.Descriptor(), name); popped == nil || popped.FullName() != fd.FullName() {
		return a.fail(CodeNameMismatch, kv{"pushed": parent.fieldName, "popped": name})
	}
	var err error
	if content != nil {
		err = a.setScalar(parent, fd, *content)
	} else {
		err = a.assign(parent.msg, fd, protoreflect.ValueOfMessage(child.msg))
	}
	if err != nil {
		return err
	}
	a.stack = a.stack[:len(a.stack)-1]
	parent.field, parent.fieldName = nil, ""
	return nil
}

// AddOrSetScalarField assigns a leaf value to the field serialized as name on
// the innermost message. Unknown names are ignored in compatible mode.
func (a *Assembler) AddOrSetScalarField(name string, sc StructureContext, content Literal) error {
	top, err := a.top()
	if err != nil {
		return err
	}
	if top.kind == unknownEntry {
		return nil
	}
	fd := a.nav.FieldForName(top.msg.Descriptor(), name)
	if fd == nil {
		if a.opt.Mode == Strict {
			return a.fail(CodeUnknownName, kv{"field": name})
		}
		a.skipUnknown(top, name)
		return nil
	}
	if err := a.checkStructure(fd, sc); err != nil {
		return err
	}
	return a.setScalar(top, fd, content)
}

// AddOrSetField appends v to a repeated field or overwrites a singular one on
// the innermost message. An invalid v clears a singular field and is rejected
// for repeated fields.
func (a *Assembler) AddOrSetField(fd protoreflect.FieldDescriptor, v protoreflect.Value) error {
	top, err := a.top()
	if err != nil {
		return err
	}
	if top.kind == unknownEntry {
		return a.fail(CodeIllegalState, kv{"reason": "inside unknown field", "field": string(fd.Name())})
	}
	return a.assign(top.msg, fd, v)
}

// ClearScalarField clears the field serialized as name on the innermost
// message. The name must be known even in compatible mode.
func (a *Assembler) ClearScalarField(name string) error {
	top, err := a.top()
	if err != nil {
		return err
	}
	if top.kind == unknownEntry {
		return nil
	}
	fd := a.nav.FieldForName(top.msg.Descriptor(), name)
	if fd == nil {
		return a.fail(CodeUnknownName, kv{"field": name})
	}
	top.msg.Clear(fd)
	return nil
}

func (a *Assembler) setScalar(e *entry, fd protoreflect.FieldDescriptor, content Literal) error {
	v, err := a.coerce.Parse(fd, content.Text, content.Context)
	if err != nil {
		return a.annotate(err)
	}
	if isMessage(fd) {
		child := newFieldMessage(e.msg, fd)
		opts := proto.UnmarshalOptions{Merge: true, AllowPartial: true}
		if r, ok := a.nav.(extensionResolver); ok {
			opts.Resolver = r
		}
		if err := opts.Unmarshal(v.Bytes(), child.Interface()); err != nil {
			return a.annotate(fieldIssue(CodeMalformedBinary, fd, nil).withCause(err))
		}
		a.opt.Metrics.mergedMessage()
		a.log.Debug("merged message field from bytes",
			zap.String("field", string(fd.FullName())), zap.Int("bytes", len(v.Bytes())))
		v = protoreflect.ValueOfMessage(child)
	}
	if !v.IsValid() && fd.Enum() != nil {
		a.opt.Metrics.droppedEnum()
		a.log.Debug("dropping unknown enumerator",
			zap.String("field", string(fd.FullName())), zap.String("literal", content.Text))
	}
	return a.assign(e.msg, fd, v)
}

// assign is add_or_set_field: repeated fields append, singular fields are
// overwritten, and an invalid value clears a singular field.
func (a *Assembler) assign(m protoreflect.Message, fd protoreflect.FieldDescriptor, v protoreflect.Value) error {
	switch {
	case fd.IsList() || fd.IsMap():
		if !v.IsValid() {
			return a.annotate(fieldIssue(CodeIncompatibleContext, fd, kv{"reason": "null in repeated field"}))
		}
		if fd.IsMap() {
			setMapEntry(m, fd, v.Message())
			return nil
		}
		m.Mutable(fd).List().Append(v)
	case !v.IsValid():
		m.Clear(fd)
	default:
		m.Set(fd, v)
	}
	return nil
}

func (a *Assembler) checkStructure(fd protoreflect.FieldDescriptor, sc StructureContext) error {
	if a.opt.Mode == Strict && !sc.CanRepresent(fd) {
		return a.annotate(fieldIssue(CodeIncompatibleContext, fd, kv{"context": sc.String(), "cardinality": fd.Cardinality().String()}))
	}
	return nil
}

func (a *Assembler) checkRootPoppable() error {
	switch {
	case len(a.stack) == 0:
		return a.fail(CodeIllegalState, kv{"reason": "stack is empty"})
	case !a.IsRootPoppable():
		return a.fail(CodeIllegalState, kv{"reason": "root has open fields"})
	}
	return nil
}

func (a *Assembler) rootMatches(md protoreflect.MessageDescriptor, name string) bool {
	if a.nav.SerializedMessageName(md) == name {
		return true
	}
	r := a.nav.RootForName(name)
	return r != nil && r.FullName() == md.FullName()
}

func (a *Assembler) finishRoot() (protoreflect.Message, error) {
	m := a.stack[0].msg
	if !a.opt.AllowPartial {
		if err := proto.CheckInitialized(m.Interface()); err != nil {
			return nil, a.fail(CodeRequired, kv{"message": string(m.Descriptor().FullName())}).withCause(err)
		}
	}
	a.stack = a.stack[:0]
	a.opt.Metrics.assembled()
	return m, nil
}

func (a *Assembler) top() (*entry, error) {
	if len(a.stack) == 0 {
		return nil, a.fail(CodeIllegalState, kv{"reason": "stack is empty"})
	}
	return a.stack[len(a.stack)-1], nil
}

func (a *Assembler) skipUnknown(e *entry, name string) {
	a.opt.Metrics.unknownField()
	a.log.Debug("skipping unknown field",
		zap.String("message", string(e.msg.Descriptor().FullName())), zap.String("field", name))
}

// path renders the names currently open on the stack.
func (a *Assembler) path() string {
	if len(a.stack) == 0 {
		return ""
	}
	b := &strings.Builder{}
	b.WriteByte('/')
	b.WriteString(a.nav.SerializedMessageName(a.stack[0].msg.Descriptor()))
	for _, e := range a.stack {
		if e.kind == unknownEntry {
			for _, n := range e.names {
				b.WriteByte('/')
				b.WriteString(n)
			}
			continue
		}
		if e.field != nil {
			b.WriteByte('/')
			b.WriteString(e.fieldName)
		}
	}
	return b.String()
}

type kv = map[string]string

func (a *Assembler) fail(code string, params kv) *Issue {
	iss := newIssue(code, params)
	a.annotate(iss)
	return iss
}

// annotate stamps the current path on an Issue and counts it.
func (a *Assembler) annotate(err error) error {
	if iss, ok := AsIssue(err); ok {
		if iss.Path == "" {
			iss.Path = a.path()
		}
		a.opt.Metrics.failed(iss.Code)
	}
	return err
}

func isMessage(fd protoreflect.FieldDescriptor) bool {
	return fd.Kind() == protoreflect.MessageKind || fd.Kind() == protoreflect.GroupKind
}

// newFieldMessage returns an empty builder for one value of fd owned by parent.
// Map fields are built as their entry message.
func newFieldMessage(parent protoreflect.Message, fd protoreflect.FieldDescriptor) protoreflect.Message {
	switch {
	case fd.IsMap():
		return dynamicpb.NewMessage(fd.Message())
	case fd.IsList():
		return parent.NewField(fd).List().NewElement().Message()
	default:
		return parent.NewField(fd).Message()
	}
}

func setMapEntry(m protoreflect.Message, fd protoreflect.FieldDescriptor, entry protoreflect.Message) {
	mp := m.Mutable(fd).Map()
	key := entry.Get(fd.MapKey()).MapKey()
	val := entry.Get(fd.MapValue())
	if fd.MapValue().Message() != nil {
		nv := mp.NewValue()
		proto.Merge(nv.Message().Interface(), val.Message().Interface())
		val = nv
	}
	mp.Set(key, val)
}

// useLiterals installs l for the duration of one read unless the caller fixed
// Options.Literals.
func (a *Assembler) useLiterals(l Literals) (restore func()) {
	if a.opt.Literals != nil || l == nil {
		return func() {}
	}
	prev := a.coerce.Literals
	a.coerce.Literals = l
	return func() { a.coerce.Literals = prev }
}

// knows reports whether name resolves to a field of the innermost message.
func (a *Assembler) knows(name string) bool {
	if len(a.stack) == 0 {
		return false
	}
	top := a.stack[len(a.stack)-1]
	return top.kind == realEntry && a.nav.FieldForName(top.msg.Descriptor(), name) != nil
}

// closingMessage reports whether the next pop closes a message element rather
// than a scalar field.
func (a *Assembler) closingMessage() bool {
	if len(a.stack) == 0 {
		return false
	}
	top := a.stack[len(a.stack)-1]
	return top.kind == unknownEntry || top.field == nil
}
