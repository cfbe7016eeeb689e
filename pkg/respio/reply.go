package respio

import (
	"fmt"
	"strconv"
	"strings"
)

// Reply is one decoded RESP value. Type is one of the Type* constants.
// Integers are carried in Int, everything else textual or binary in Data,
// array elements in Array. Bulk payloads stay []byte; converting to text
// is the caller's choice.
type Reply struct {
	Type  byte
	Data  []byte
	Int   int64
	Array []*Reply
}

var nullReply = &Reply{Type: TypeNull}

func NewStatusReply(s string) *Reply {
	return &Reply{Type: TypeStatus, Data: []byte(s)}
}

func NewErrorReply(msg string) *Reply {
	return &Reply{Type: TypeError, Data: []byte(msg)}
}

func NewIntReply(n int64) *Reply {
	return &Reply{Type: TypeInt, Int: n}
}

func NewBulkReply(b []byte) *Reply {
	if b == nil {
		return nullReply
	}
	return &Reply{Type: TypeBulk, Data: b}
}

func NewArrayReply(elems ...*Reply) *Reply {
	if elems == nil {
		elems = []*Reply{}
	}
	return &Reply{Type: TypeArray, Array: elems}
}

func (r *Reply) IsNull() bool {
	return r.Type == TypeNull
}

func (r *Reply) IsError() bool {
	return r.Type == TypeError
}

// Bytes returns the raw payload of a bulk string or simple string.
// Null replies return nil.
func (r *Reply) Bytes() []byte {
	if r.Type == TypeNull {
		return nil
	}
	return r.Data
}

// Text returns the payload decoded as a string. Integers are rendered
// back to base-10 text.
func (r *Reply) Text() string {
	switch r.Type {
	case TypeInt:
		return strconv.FormatInt(r.Int, 10)
	case TypeNull:
		return ""
	default:
		return string(r.Data)
	}
}

// Int64 returns the integer value of the reply. Bulk and simple strings
// holding base-10 text parse; everything else is an error.
func (r *Reply) Int64() (int64, error) {
	switch r.Type {
	case TypeInt:
		return r.Int, nil
	case TypeBulk, TypeStatus:
		return parseInt64(r.Data)
	default:
		return 0, fmt.Errorf("respio: reply type %q is not an integer", r.Type)
	}
}

// Strings flattens an array of bulk/simple strings. Null elements become
// empty strings.
func (r *Reply) Strings() ([]string, error) {
	if r.Type == TypeNull {
		return nil, nil
	}
	if r.Type != TypeArray {
		return nil, fmt.Errorf("respio: reply type %q is not an array", r.Type)
	}
	out := make([]string, len(r.Array))
	for i, elem := range r.Array {
		if elem.Type == TypeArray {
			return nil, fmt.Errorf("respio: nested array at element %d", i)
		}
		out[i] = elem.Text()
	}
	return out, nil
}

// String returns a string representation of the Reply.
// Only for debugging purposes
func (r *Reply) String() string {
	switch r.Type {
	case TypeStatus:
		return fmt.Sprintf("Status: \"%s\"", string(r.Data))

	case TypeError:
		return fmt.Sprintf("Error: %s", string(r.Data))

	case TypeInt:
		return fmt.Sprintf("Integer: %d", r.Int)

	case TypeBulk:
		return fmt.Sprintf("String: \"%s\"", string(r.Data))

	case TypeNull:
		return "(nil)"

	case TypeArray:
		if r.Array == nil {
			return "Array: (nil)"
		}
		if len(r.Array) == 0 {
			return "Array: (empty)"
		}
		var b strings.Builder
		b.WriteString("Array:\n")
		for i, elem := range r.Array {
			elemStr := elem.String()
			lines := strings.Split(elemStr, "\n")
			b.WriteString(fmt.Sprintf("  %d) %s\n", i+1, lines[0]))
			for _, line := range lines[1:] {
				b.WriteString(fmt.Sprintf("     %s\n", line))
			}
		}
		return strings.TrimRight(b.String(), "\n")

	default:
		return fmt.Sprintf("(unknown type: %c)", r.Type)
	}
}

// parseInt64 parses signed base-10 ASCII without allocating for the
// common short case.
func parseInt64(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, ErrInvalidSyntax
	}
	if len(b) < 10 { // Fast path for small numbers
		var neg, i = false, 0
		switch b[0] {
		case '-':
			neg = true
			fallthrough
		case '+':
			i++
		}
		if len(b) != i {
			var n int64
			for ; i < len(b) && b[i] >= '0' && b[i] <= '9'; i++ {
				n = int64(b[i]-'0') + n*10
			}
			if len(b) == i {
				if neg {
					n = -n
				}
				return n, nil
			}
		}
	}
	return strconv.ParseInt(string(b), 10, 64)
}
