package respio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkQueue_AppendAndLen(t *testing.T) {
	var q ChunkQueue
	assert.Equal(t, 0, q.Len())
	q.Append([]byte("abc"))
	q.Append(nil)
	q.Append([]byte("defg"))
	assert.Equal(t, 7, q.Len())
}

func TestChunkQueue_IndexOf(t *testing.T) {
	tests := []struct {
		name     string
		chunks   []string
		needle   string
		expected int
	}{
		{name: "within one chunk", chunks: []string{"+OK\r\n"}, needle: "\r\n", expected: 3},
		{name: "straddles boundary", chunks: []string{"+OK\r", "\n:1\r\n"}, needle: "\r\n", expected: 3},
		{name: "in later chunk", chunks: []string{"+OK", "AY\r\n"}, needle: "\r\n", expected: 5},
		{name: "absent", chunks: []string{"+OK\r", "x"}, needle: "\r\n", expected: -1},
		{name: "partial suffix only", chunks: []string{"abc\r"}, needle: "\r\n", expected: -1},
		{name: "first byte repeats", chunks: []string{"a\r\rb", "\r", "\nc"}, needle: "\r\n", expected: 4},
		{name: "empty queue", chunks: nil, needle: "\r\n", expected: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q ChunkQueue
			for _, c := range tt.chunks {
				q.Append([]byte(c))
			}
			assert.Equal(t, tt.expected, q.IndexOf([]byte(tt.needle)))
		})
	}
}

func TestChunkQueue_Take(t *testing.T) {
	var q ChunkQueue
	q.Append([]byte("hello"))
	q.Append([]byte(" "))
	q.Append([]byte("world"))

	// Split inside the head chunk.
	assert.Equal(t, []byte("he"), q.Take(2))
	assert.Equal(t, 9, q.Len())
	// Exactly the head remainder: handed back without copying.
	assert.Equal(t, []byte("llo"), q.Take(3))
	// Stitch across chunks.
	assert.Equal(t, []byte(" wor"), q.Take(4))
	assert.Equal(t, []byte("ld"), q.Take(2))
	assert.Equal(t, 0, q.Len())
}

func TestChunkQueue_TakeZero(t *testing.T) {
	var q ChunkQueue
	got := q.Take(0)
	require.NotNil(t, got)
	assert.Len(t, got, 0)
}

func TestChunkQueue_Discard(t *testing.T) {
	var q ChunkQueue
	q.Append([]byte("ab"))
	q.Append([]byte("cdef"))
	q.Discard(3)
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, []byte("def"), q.Take(3))
}

func TestChunkQueue_TakeBeyondBufferedPanics(t *testing.T) {
	var q ChunkQueue
	q.Append([]byte("ab"))
	assert.Panics(t, func() { q.Take(3) })
	assert.Panics(t, func() { q.Discard(3) })
}
