package protoasm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/protoasm/i18n"
)

// Issue codes.
const (
	CodeIllegalState        = "illegal_state"        // push/pop discipline violated
	CodeUnknownName         = "unknown_name"         // field or root name not in the schema
	CodeNameMismatch        = "name_mismatch"        // pop name differs from the pushed name
	CodeIncompatibleContext = "incompatible_context" // structure or scalar context cannot hold the field
	CodeNumberFormat        = "number_format"        // numeric, bool or float literal rejected
	CodeUnknownEnumerator   = "unknown_enumerator"   // strict enum lookup miss
	CodeMalformedBinary     = "malformed_binary"     // base64 or embedded message bytes rejected
	CodeRequired            = "required"             // required fields unset at root pop
	// Reader level
	CodeParseError   = "parse_error"
	CodeDuplicateKey = "duplicate_key"
	CodeTruncated    = "truncated"
)

// Issue is the error returned by every assembly operation. Errors are not
// recoverable: the Assembler that produced one should be discarded or Cleared.
type Issue struct {
	Code    string
	Path    string // Slash-joined serialized names from the root (for example: /Person/address/city).
	Field   string // Full name of the schema field involved, when known.
	Message string
	Cause   error
	Offset  int64 // Byte offset in the input source (-1 when unknown).
	// Params carries the values interpolated into Message for i18n and
	// observability.
	Params map[string]string
}

func (i *Issue) Error() string {
	b := &strings.Builder{}
	b.WriteString(i.Code)
	if i.Path != "" {
		fmt.Fprintf(b, " at %s", i.Path)
	}
	if i.Message != "" {
		b.WriteString(": ")
		b.WriteString(i.Message)
	}
	if i.Cause != nil {
		fmt.Fprintf(b, " (%v)", i.Cause)
	}
	return b.String()
}

func (i *Issue) Unwrap() error { return i.Cause }

func newIssue(code string, params map[string]string) *Issue {
	return &Issue{Code: code, Message: i18n.T(code, params), Params: params, Offset: -1}
}

func (i *Issue) withCause(err error) *Issue {
	i.Cause = err
	return i
}

// AsIssue extracts an *Issue from err using errors.As.
func AsIssue(err error) (*Issue, bool) {
	var iss *Issue
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// HasCode reports whether err carries an Issue with the given code.
func HasCode(err error, code string) bool {
	iss, ok := AsIssue(err)
	return ok && iss.Code == code
}
