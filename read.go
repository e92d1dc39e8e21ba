package protoasm

import (
	"context"
	"errors"
	"io"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"

	eng "github.com/reoring/protoasm/internal/engine"
	yamlsrc "github.com/reoring/protoasm/source/yaml"
)

// MergeInto reads one object from src into dst.
//
// Object members are pushed with StructureObject and array elements with
// StructureArray. Repeated fields, maps included, are written as arrays; map
// entries are objects with "key" and "value" members. A null member clears
// the field. The Assembler must be empty and is left empty on return.
func MergeInto(ctx context.Context, asm *Assembler, dst protoreflect.Message, src Source, opt ReadOpt) (err error) {
	ctx, span := startSpan(ctx, "protoasm.MergeInto",
		attribute.String("protoasm.format", string(src.Format())),
		attribute.String("protoasm.message", string(dst.Descriptor().FullName())))
	defer func() { endSpan(span, err) }()

	r, done := newTokenReader(asm, src, opt)
	defer func() { err = done(err) }()

	if err := r.begin(TokenBeginObject); err != nil {
		return err
	}
	if err := asm.PushRootBuilder(dst); err != nil {
		return err
	}
	if err := r.readObject(ctx); err != nil {
		return err
	}
	if _, err := asm.PopRootBuilder(); err != nil {
		return err
	}
	return r.end()
}

// ReadList reads an array of objects, each assembled as a new message of md.
func ReadList(ctx context.Context, asm *Assembler, md protoreflect.MessageDescriptor, src Source, opt ReadOpt) (out []protoreflect.Message, err error) {
	ctx, span := startSpan(ctx, "protoasm.ReadList",
		attribute.String("protoasm.format", string(src.Format())),
		attribute.String("protoasm.message", string(md.FullName())))
	defer func() {
		span.SetAttributes(attribute.Int("protoasm.messages", len(out)))
		endSpan(span, err)
	}()

	r, done := newTokenReader(asm, src, opt)
	defer func() { err = done(err) }()

	if err := r.begin(TokenBeginArray); err != nil {
		return nil, err
	}
	for {
		t, err := r.expect()
		if err != nil {
			return nil, err
		}
		switch t.Kind {
		case TokenEndArray:
			return out, r.end()
		case TokenBeginObject:
			m, err := r.readRoot(ctx, asm.nav.NewMessage(md))
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		default:
			return nil, r.unexpected(t)
		}
	}
}

// ReadNamed reads messages keyed by their serialized root name:
//
//	{"pkg.Person": {...}, "pkg.Address": {...}}
//
// An array of such objects and a stream of top-level values (JSON lines, YAML
// documents) are accepted too. Messages are returned in input order.
func ReadNamed(ctx context.Context, asm *Assembler, src Source, opt ReadOpt) (out []protoreflect.Message, err error) {
	ctx, span := startSpan(ctx, "protoasm.ReadNamed",
		attribute.String("protoasm.format", string(src.Format())))
	defer func() {
		span.SetAttributes(attribute.Int("protoasm.messages", len(out)))
		endSpan(span, err)
	}()

	r, done := newTokenReader(asm, src, opt)
	defer func() { err = done(err) }()

	for {
		t, err := r.src.NextToken()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, r.sourceError(err)
		}
		switch t.Kind {
		case TokenBeginObject:
			if out, err = r.readNamedObject(ctx, out); err != nil {
				return nil, err
			}
		case TokenBeginArray:
			if out, err = r.readNamedArray(ctx, out); err != nil {
				return nil, err
			}
		default:
			return nil, r.unexpected(t)
		}
	}
}

type tokenReader struct {
	asm *Assembler
	src Source
}

// newTokenReader applies enforcement and format literals. done restores the
// Assembler and clears it when the read failed.
func newTokenReader(asm *Assembler, src Source, opt ReadOpt) (*tokenReader, func(error) error) {
	src = EnforceSource(src, opt, func(iss *Issue) {
		asm.log.Warn("duplicate key", zap.String("path", iss.Path), zap.String("key", iss.Params["key"]))
	})
	lit, _ := LiteralsByName(string(src.Format()))
	restore := asm.useLiterals(lit)
	return &tokenReader{asm: asm, src: src}, func(err error) error {
		restore()
		if err != nil {
			asm.Clear()
		}
		return err
	}
}

func (r *tokenReader) readRoot(ctx context.Context, m protoreflect.Message) (protoreflect.Message, error) {
	if err := r.asm.PushRootBuilder(m); err != nil {
		return nil, err
	}
	if err := r.readObject(ctx); err != nil {
		return nil, err
	}
	return r.asm.PopRootBuilder()
}

func (r *tokenReader) readNamedArray(ctx context.Context, out []protoreflect.Message) ([]protoreflect.Message, error) {
	for {
		t, err := r.expect()
		if err != nil {
			return nil, err
		}
		switch t.Kind {
		case TokenEndArray:
			return out, nil
		case TokenBeginObject:
			if out, err = r.readNamedObject(ctx, out); err != nil {
				return nil, err
			}
		default:
			return nil, r.unexpected(t)
		}
	}
}

func (r *tokenReader) readNamedObject(ctx context.Context, out []protoreflect.Message) ([]protoreflect.Message, error) {
	for {
		t, err := r.expect()
		if err != nil {
			return nil, err
		}
		switch t.Kind {
		case TokenEndObject:
			return out, nil
		case TokenKey:
			if err := r.begin(TokenBeginObject); err != nil {
				return nil, err
			}
			if err := r.asm.PushRoot(t.String); err != nil {
				return nil, err
			}
			if err := r.readObject(ctx); err != nil {
				return nil, err
			}
			m, err := r.asm.PopRoot(t.String)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		default:
			return nil, r.unexpected(t)
		}
	}
}

// readObject consumes members up to and including the closing '}'.
func (r *tokenReader) readObject(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := r.expect()
		if err != nil {
			return err
		}
		switch t.Kind {
		case TokenEndObject:
			return nil
		case TokenKey:
			if err := r.readMember(ctx, t.String); err != nil {
				return err
			}
		default:
			return r.unexpected(t)
		}
	}
}

func (r *tokenReader) readMember(ctx context.Context, name string) error {
	t, err := r.expect()
	if err != nil {
		return err
	}
	if r.asm.Mode() == Compatible && !r.asm.knows(name) {
		r.asm.skipUnknown(r.asm.stack[len(r.asm.stack)-1], name)
		return r.skip(t)
	}
	switch t.Kind {
	case TokenBeginObject:
		if err := r.asm.PushField(name, StructureObject); err != nil {
			return err
		}
		if err := r.readObject(ctx); err != nil {
			return err
		}
		return r.asm.PopField(name, nil)
	case TokenBeginArray:
		return r.readArray(ctx, name)
	case TokenNull:
		return r.asm.ClearScalarField(name)
	case TokenString, TokenNumber, TokenBool:
		return r.asm.AddOrSetScalarField(name, StructureObject, literalOf(t))
	}
	return r.unexpected(t)
}

func (r *tokenReader) readArray(ctx context.Context, name string) error {
	for {
		t, err := r.expect()
		if err != nil {
			return err
		}
		switch t.Kind {
		case TokenEndArray:
			return nil
		case TokenBeginObject:
			if err := r.asm.PushField(name, StructureArray); err != nil {
				return err
			}
			if err := r.readObject(ctx); err != nil {
				return err
			}
			if err := r.asm.PopField(name, nil); err != nil {
				return err
			}
		case TokenString, TokenNumber, TokenBool:
			if err := r.asm.AddOrSetScalarField(name, StructureArray, literalOf(t)); err != nil {
				return err
			}
		case TokenNull:
			return r.asm.fail(CodeIncompatibleContext, kv{"field": name, "reason": "null array element"})
		case TokenBeginArray:
			return r.asm.fail(CodeIncompatibleContext, kv{"field": name, "reason": "nested array"})
		default:
			return r.unexpected(t)
		}
	}
}

// skip consumes the rest of the value starting with t.
func (r *tokenReader) skip(t Token) error {
	depth := 0
	for {
		switch t.Kind {
		case TokenBeginObject, TokenBeginArray:
			depth++
		case TokenEndObject, TokenEndArray:
			depth--
		}
		if depth == 0 {
			return nil
		}
		var err error
		if t, err = r.expect(); err != nil {
			return err
		}
	}
}

func literalOf(t Token) Literal {
	switch t.Kind {
	case TokenNumber:
		return Literal{Text: t.Number, Context: ScalarUnquoted}
	case TokenBool:
		return Literal{Text: strconv.FormatBool(t.Bool), Context: ScalarUnquoted}
	}
	return Literal{Text: t.String, Context: ScalarQuoted}
}

// expect returns the next token, treating end of input as an error.
func (r *tokenReader) expect() (Token, error) {
	t, err := r.src.NextToken()
	if errors.Is(err, io.EOF) {
		return Token{}, r.issue(CodeParseError, kv{"reason": "unexpected end of input"})
	}
	if err != nil {
		return Token{}, r.sourceError(err)
	}
	return t, nil
}

func (r *tokenReader) begin(k TokenKind) error {
	t, err := r.expect()
	if err != nil {
		return err
	}
	if t.Kind != k {
		return r.unexpected(t)
	}
	return nil
}

// end requires the input to be exhausted.
func (r *tokenReader) end() error {
	t, err := r.src.NextToken()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return r.sourceError(err)
	}
	return r.unexpected(t)
}

func (r *tokenReader) unexpected(t Token) error {
	return r.issue(CodeParseError, kv{"reason": "unexpected " + t.Kind.String()})
}

func (r *tokenReader) issue(code string, params kv) *Issue {
	iss := r.asm.fail(code, params)
	iss.Offset = r.src.Location()
	return iss
}

func (r *tokenReader) sourceError(err error) error {
	var v *eng.Violation
	if errors.As(err, &v) {
		iss := violationIssue(v)
		r.asm.opt.Metrics.failed(iss.Code)
		return iss
	}
	var dup *yamlsrc.DuplicateKeyError
	if errors.As(err, &dup) {
		iss := r.issue(CodeDuplicateKey, kv{
			"key":   dup.Key,
			"line":  strconv.Itoa(dup.Line),
			"col":   strconv.Itoa(dup.Col),
			"first": strconv.Itoa(dup.FirstLine) + ":" + strconv.Itoa(dup.FirstCol),
		})
		return iss.withCause(err)
	}
	return r.issue(CodeParseError, kv{"reason": "malformed input"}).withCause(err)
}
