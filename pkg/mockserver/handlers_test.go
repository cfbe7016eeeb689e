package mockserver

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvwire/kvwire/pkg/respio"
)

func newTestServer() *Server {
	return NewServer(&Config{Port: 6399})
}

func request(parts ...string) *respio.Reply {
	elems := make([]*respio.Reply, len(parts))
	for i, p := range parts {
		elems[i] = respio.NewBulkReply([]byte(p))
	}
	return respio.NewArrayReply(elems...)
}

func TestExecute_PingEcho(t *testing.T) {
	s := newTestServer()
	assert.Equal(t, "PONG", s.Execute(request("PING")).Text())
	assert.Equal(t, "hello", s.Execute(request("ping", "hello")).Text())
	assert.Equal(t, "hi", s.Execute(request("ECHO", "hi")).Text())
	assert.True(t, s.Execute(request("ECHO")).IsError())
}

func TestExecute_SetGetDel(t *testing.T) {
	s := newTestServer()
	assert.Equal(t, "OK", s.Execute(request("SET", "k", "v")).Text())
	assert.Equal(t, "v", s.Execute(request("GET", "k")).Text())
	assert.True(t, s.Execute(request("GET", "missing")).IsNull())

	del := s.Execute(request("DEL", "k", "missing"))
	assert.Equal(t, int64(1), del.Int)
	assert.True(t, s.Execute(request("GET", "k")).IsNull())
}

func TestExecute_Exists(t *testing.T) {
	s := newTestServer()
	s.Execute(request("SET", "a", "1"))
	s.Execute(request("SET", "b", "2"))
	got := s.Execute(request("EXISTS", "a", "b", "c"))
	assert.Equal(t, int64(2), got.Int)
}

func TestExecute_IncrFamily(t *testing.T) {
	s := newTestServer()
	assert.Equal(t, int64(1), s.Execute(request("INCR", "n")).Int)
	assert.Equal(t, int64(6), s.Execute(request("INCRBY", "n", "5")).Int)

	s.Execute(request("SET", "text", "abc"))
	got := s.Execute(request("INCR", "text"))
	require.True(t, got.IsError())
	assert.Equal(t, "ERR value is not an integer or out of range", string(got.Data))
}

func TestExecute_HashFamily(t *testing.T) {
	s := newTestServer()
	assert.Equal(t, int64(1), s.Execute(request("HSET", "h", "f1", "Hello")).Int)
	assert.Equal(t, int64(1), s.Execute(request("HSET", "h", "f2", "World")).Int)
	// Overwriting an existing field adds nothing.
	assert.Equal(t, int64(0), s.Execute(request("HSET", "h", "f1", "Again")).Int)

	assert.Equal(t, "Again", s.Execute(request("HGET", "h", "f1")).Text())
	assert.True(t, s.Execute(request("HGET", "h", "nofield")).IsNull())

	keys, err := s.Execute(request("HKEYS", "h")).Strings()
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"f1", "f2"}, keys)

	empty := s.Execute(request("HKEYS", "nohash"))
	require.Equal(t, respio.TypeArray, empty.Type)
	assert.Len(t, empty.Array, 0)

	assert.Equal(t, int64(1), s.Execute(request("HDEL", "h", "f2", "nofield")).Int)

	all := s.Execute(request("HGETALL", "h"))
	require.Equal(t, respio.TypeArray, all.Type)
	assert.Len(t, all.Array, 2)
}

func TestExecute_HIncrByFloat(t *testing.T) {
	s := newTestServer()
	got := s.Execute(request("HINCRBYFLOAT", "h", "f", "10.5"))
	assert.Equal(t, "10.5", got.Text())
	got = s.Execute(request("HINCRBYFLOAT", "h", "f", "0.1"))
	assert.Equal(t, "10.6", got.Text())

	s.Execute(request("HSET", "h", "bad", "not-a-number"))
	got = s.Execute(request("HINCRBYFLOAT", "h", "bad", "0.1"))
	require.True(t, got.IsError())
	assert.Equal(t, "ERR hash value is not a float", string(got.Data))
}

func TestExecute_ListFamily(t *testing.T) {
	s := newTestServer()
	assert.Equal(t, int64(2), s.Execute(request("RPUSH", "l", "b", "c")).Int)
	assert.Equal(t, int64(3), s.Execute(request("LPUSH", "l", "a")).Int)
	assert.Equal(t, int64(3), s.Execute(request("LLEN", "l")).Int)

	got, err := s.Execute(request("LRANGE", "l", "0", "-1")).Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got, err = s.Execute(request("LRANGE", "l", "1", "1")).Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got)

	empty := s.Execute(request("LRANGE", "l", "5", "9"))
	assert.Len(t, empty.Array, 0)
}

func TestExecute_WrongType(t *testing.T) {
	s := newTestServer()
	s.Execute(request("SET", "k", "v"))
	got := s.Execute(request("HGET", "k", "f"))
	require.True(t, got.IsError())

	got = s.Execute(request("LPUSH", "k", "x"))
	require.True(t, got.IsError())
}

func TestExecute_ExpireTTLType(t *testing.T) {
	s := newTestServer()
	s.Execute(request("SET", "k", "v"))

	assert.Equal(t, int64(-1), s.Execute(request("TTL", "k")).Int)
	assert.Equal(t, int64(1), s.Execute(request("EXPIRE", "k", "100")).Int)
	ttl := s.Execute(request("TTL", "k")).Int
	assert.True(t, ttl > 0 && ttl <= 100)
	assert.Equal(t, int64(-2), s.Execute(request("TTL", "missing")).Int)
	assert.Equal(t, int64(0), s.Execute(request("EXPIRE", "missing", "100")).Int)

	assert.Equal(t, "string", s.Execute(request("TYPE", "k")).Text())
	assert.Equal(t, "none", s.Execute(request("TYPE", "missing")).Text())
}

func TestExecute_ExpiredKeyVanishes(t *testing.T) {
	s := newTestServer()
	s.Execute(request("SET", "k", "v"))
	e, ok := s.store.lookup("k")
	require.True(t, ok)
	e.expireAt = time.Now().Add(-time.Second)

	assert.True(t, s.Execute(request("GET", "k")).IsNull())
	assert.Equal(t, 0, s.store.Size())
}

func TestExecute_FlushAllAndUnknown(t *testing.T) {
	s := newTestServer()
	s.Execute(request("SET", "k", "v"))
	assert.Equal(t, "OK", s.Execute(request("FLUSHALL")).Text())
	assert.Equal(t, 0, s.store.Size())

	got := s.Execute(request("NOSUCHCMD", "x"))
	require.True(t, got.IsError())
	assert.Equal(t, "ERR unknown command 'nosuchcmd'", string(got.Data))
}
