package respio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReply_Int64(t *testing.T) {
	n, err := NewIntReply(42).Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = NewBulkReply([]byte("-7")).Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(-7), n)

	_, err = NewBulkReply([]byte("abc")).Int64()
	assert.Error(t, err)

	_, err = NewArrayReply().Int64()
	assert.Error(t, err)
}

func TestReply_Text(t *testing.T) {
	assert.Equal(t, "OK", NewStatusReply("OK").Text())
	assert.Equal(t, "99", NewIntReply(99).Text())
	assert.Equal(t, "", (&Reply{Type: TypeNull}).Text())
}

func TestReply_Strings(t *testing.T) {
	got, err := NewArrayReply(
		NewBulkReply([]byte("a")),
		NewStatusReply("b"),
		NewIntReply(3),
		&Reply{Type: TypeNull},
	).Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "3", ""}, got)

	null, err := (&Reply{Type: TypeNull}).Strings()
	require.NoError(t, err)
	assert.Nil(t, null)

	_, err = NewBulkReply([]byte("x")).Strings()
	assert.Error(t, err)
}

func TestReply_Bytes(t *testing.T) {
	assert.Nil(t, (&Reply{Type: TypeNull}).Bytes())
	assert.Equal(t, []byte{}, NewBulkReply([]byte{}).Bytes())
}
