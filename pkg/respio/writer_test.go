package respio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commandArgs(parts ...string) [][]byte {
	args := make([][]byte, len(parts))
	for i, p := range parts {
		args[i] = []byte(p)
	}
	return args
}

func TestWriter_WriteCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     [][]byte
		inline   bool
		expected string
	}{
		{
			name:     "inline form",
			args:     commandArgs("SET", "k", "v"),
			inline:   true,
			expected: "SET k v\r\n",
		},
		{
			name:     "array form",
			args:     commandArgs("SET", "k", "v"),
			inline:   false,
			expected: "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n",
		},
		{
			name:     "inline hint downgraded for spaced argument",
			args:     commandArgs("SET", "k", "two words"),
			inline:   true,
			expected: "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$9\r\ntwo words\r\n",
		},
		{
			name:     "inline hint downgraded for CRLF in argument",
			args:     [][]byte{[]byte("SET"), []byte("k"), []byte("a\r\nb")},
			inline:   true,
			expected: "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$4\r\na\r\nb\r\n",
		},
		{
			name:     "inline hint downgraded for empty argument",
			args:     [][]byte{[]byte("SET"), []byte("k"), {}},
			inline:   true,
			expected: "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$0\r\n\r\n",
		},
		{
			name:     "binary payload counts raw bytes",
			args:     [][]byte{[]byte("SET"), []byte("bin"), {0x00, 0x01, 0x02}},
			inline:   false,
			expected: "*3\r\n$3\r\nSET\r\n$3\r\nbin\r\n$3\r\n\x00\x01\x02\r\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			w := NewWriter(&out)
			require.NoError(t, w.WriteCommand(tt.args, tt.inline))
			assert.Equal(t, tt.expected, out.String())
		})
	}
}

func TestWriter_EmptyCommand(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	assert.ErrorIs(t, w.WriteCommand(nil, false), ErrEmptyCommand)
}

func TestWriter_CommandIsOneBurst(t *testing.T) {
	// Nothing reaches the underlying writer before the final flush.
	var out countingWriter
	w := NewWriter(&out)
	payload := bytes.Repeat([]byte("x"), 512)
	require.NoError(t, w.WriteCommand([][]byte{[]byte("SET"), []byte("k"), payload}, false))
	assert.Equal(t, 1, out.writes)
}

type countingWriter struct {
	writes int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.writes++
	return len(p), nil
}

func TestWriter_WriteReply(t *testing.T) {
	tests := []struct {
		name     string
		reply    *Reply
		expected string
	}{
		{name: "status", reply: NewStatusReply("OK"), expected: "+OK\r\n"},
		{name: "error", reply: NewErrorReply("ERR nope"), expected: "-ERR nope\r\n"},
		{name: "integer", reply: NewIntReply(-42), expected: ":-42\r\n"},
		{name: "bulk", reply: NewBulkReply([]byte("hi")), expected: "$2\r\nhi\r\n"},
		{name: "empty bulk", reply: NewBulkReply([]byte{}), expected: "$0\r\n\r\n"},
		{name: "null", reply: &Reply{Type: TypeNull}, expected: "$-1\r\n"},
		{name: "null array", reply: &Reply{Type: TypeArray}, expected: "*-1\r\n"},
		{name: "empty array", reply: NewArrayReply(), expected: "*0\r\n"},
		{
			name: "nested array",
			reply: NewArrayReply(
				NewIntReply(1),
				NewArrayReply(NewBulkReply([]byte("a")), NewErrorReply("ERR in array")),
			),
			expected: "*2\r\n:1\r\n*2\r\n$1\r\na\r\n-ERR in array\r\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			w := NewWriter(&out)
			require.NoError(t, w.WriteReply(tt.reply))
			require.NoError(t, w.Flush())
			assert.Equal(t, tt.expected, out.String())
		})
	}
}

// Whatever the writer emits, the decoder reads back structurally equal.
func TestWriter_DecoderRoundTrip(t *testing.T) {
	replies := canonicalReplies()
	var out bytes.Buffer
	w := NewWriter(&out)
	for _, reply := range replies {
		require.NoError(t, w.WriteReply(reply))
	}
	require.NoError(t, w.Flush())

	d := NewDecoder()
	d.Feed(out.Bytes())
	for _, expected := range replies {
		actual, err := d.Next()
		require.NoError(t, err)
		assertReplyEqual(t, expected, actual)
	}
}
