package protoasm

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// ReadXML reads one document whose root element is a serialized root message
// name. Child elements are fields; repeated fields repeat the element.
// Attributes are ignored. Character data is the content of the innermost
// element and is coerced with ScalarUnspecified and XMLLiterals.
func ReadXML(ctx context.Context, asm *Assembler, r io.Reader, opt ReadOpt) (out protoreflect.Message, err error) {
	ctx, span := startSpan(ctx, "protoasm.ReadXML", attribute.String("protoasm.format", "xml"))
	defer func() { endSpan(span, err) }()
	return readXML(ctx, asm, nil, r, opt)
}

// MergeXML reads one document into dst. The root element name is not checked.
func MergeXML(ctx context.Context, asm *Assembler, dst protoreflect.Message, r io.Reader, opt ReadOpt) (err error) {
	ctx, span := startSpan(ctx, "protoasm.MergeXML",
		attribute.String("protoasm.format", "xml"),
		attribute.String("protoasm.message", string(dst.Descriptor().FullName())))
	defer func() { endSpan(span, err) }()
	_, err = readXML(ctx, asm, dst, r, opt)
	return err
}

type xmlReader struct {
	asm     *Assembler
	dec     *xml.Decoder
	opt     ReadOpt
	dst     protoreflect.Message // root override, may be nil
	content strings.Builder
	depth   int
	root    protoreflect.Message
}

func readXML(ctx context.Context, asm *Assembler, dst protoreflect.Message, r io.Reader, opt ReadOpt) (protoreflect.Message, error) {
	x := &xmlReader{asm: asm, dec: xml.NewDecoder(r), opt: opt, dst: dst}
	restore := asm.useLiterals(XMLLiterals)
	defer restore()
	if err := x.run(ctx); err != nil {
		asm.Clear()
		return nil, err
	}
	return x.root, nil
}

func (x *xmlReader) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tok, err := x.dec.Token()
		if errors.Is(err, io.EOF) {
			if !x.asm.IsEmpty() {
				return x.issue(CodeParseError, kv{"reason": "document ended inside a message"})
			}
			if x.root == nil {
				return x.issue(CodeParseError, kv{"reason": "no root element"})
			}
			return nil
		}
		if err != nil {
			return x.issue(CodeParseError, kv{"reason": "malformed input"}).withCause(err)
		}
		if x.opt.MaxBytes > 0 && x.dec.InputOffset() > x.opt.MaxBytes {
			return x.issue(CodeTruncated, kv{"reason": "max bytes exceeded"})
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := x.start(t.Name.Local); err != nil {
				return err
			}
		case xml.EndElement:
			if err := x.end(t.Name.Local); err != nil {
				return err
			}
		case xml.CharData:
			x.content.Write(t)
		}
	}
}

func (x *xmlReader) start(name string) error {
	x.content.Reset()
	x.depth++
	if x.opt.MaxDepth > 0 && x.depth > x.opt.MaxDepth {
		return x.issue(CodeParseError, kv{"reason": "max depth exceeded"})
	}
	if x.depth == 1 && x.root != nil {
		return x.issue(CodeParseError, kv{"reason": "multiple root elements"})
	}
	if x.asm.IsEmpty() && x.dst != nil {
		return x.asm.PushRootBuilder(x.dst)
	}
	return x.asm.PushRootOrField(name)
}

func (x *xmlReader) end(name string) error {
	text := x.content.String()
	x.content.Reset()
	x.depth--

	var content *Literal
	// Whitespace between child elements is not content of a message.
	if text != "" && !(x.asm.closingMessage() && strings.TrimSpace(text) == "") {
		content = &Literal{Text: text, Context: ScalarUnspecified}
	}
	if x.dst != nil && x.asm.IsRootPoppable() {
		if content != nil {
			return x.issue(CodeIncompatibleContext, kv{"reason": "content on root element"})
		}
		m, err := x.asm.PopRootBuilder()
		x.root = m
		return err
	}
	m, err := x.asm.PopRootOrField(name, content)
	if m != nil {
		x.root = m
	}
	return err
}

func (x *xmlReader) issue(code string, params kv) *Issue {
	line, col := x.dec.InputPos()
	params["line"], params["col"] = strconv.Itoa(line), strconv.Itoa(col)
	iss := x.asm.fail(code, params)
	iss.Offset = x.dec.InputOffset()
	return iss
}
