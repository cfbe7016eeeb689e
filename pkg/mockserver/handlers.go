package mockserver

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kvwire/kvwire/pkg/respio"
)

var (
	okReply   = respio.NewStatusReply("OK")
	pongReply = respio.NewStatusReply("PONG")

	wrongTypeReply = respio.NewErrorReply(
		"WRONGTYPE Operation against a key holding the wrong kind of value")
)

func errArgs(name string) *respio.Reply {
	return respio.NewErrorReply(
		fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name)))
}

// Execute runs one decoded request against the store and returns the
// reply to serialize. Requests arrive as arrays of bulk strings (the
// inline form is normalized by the decoder).
func (s *Server) Execute(req *respio.Reply) *respio.Reply {
	if req.Type != respio.TypeArray || len(req.Array) == 0 {
		return respio.NewErrorReply("ERR protocol error: expected command array")
	}
	args := make([][]byte, len(req.Array))
	for i, elem := range req.Array {
		args[i] = elem.Data
	}
	name := strings.ToUpper(string(args[0]))
	switch name {
	case "PING":
		if len(args) == 2 {
			return respio.NewBulkReply(args[1])
		}
		return pongReply
	case "ECHO":
		if len(args) != 2 {
			return errArgs(name)
		}
		return respio.NewBulkReply(args[1])
	case "GET":
		if len(args) != 2 {
			return errArgs(name)
		}
		return s.get(string(args[1]))
	case "SET":
		if len(args) != 3 {
			return errArgs(name)
		}
		return s.set(string(args[1]), args[2])
	case "DEL":
		if len(args) < 2 {
			return errArgs(name)
		}
		return s.del(args[1:])
	case "EXISTS":
		if len(args) < 2 {
			return errArgs(name)
		}
		return s.exists(args[1:])
	case "INCR":
		if len(args) != 2 {
			return errArgs(name)
		}
		return s.incrBy(string(args[1]), 1)
	case "INCRBY":
		if len(args) != 3 {
			return errArgs(name)
		}
		delta, err := strconv.ParseInt(string(args[2]), 10, 64)
		if err != nil {
			return respio.NewErrorReply("ERR value is not an integer or out of range")
		}
		return s.incrBy(string(args[1]), delta)
	case "HSET":
		if len(args) < 4 || len(args)%2 != 0 {
			return errArgs(name)
		}
		return s.hset(string(args[1]), args[2:])
	case "HGET":
		if len(args) != 3 {
			return errArgs(name)
		}
		return s.hget(string(args[1]), string(args[2]))
	case "HDEL":
		if len(args) < 3 {
			return errArgs(name)
		}
		return s.hdel(string(args[1]), args[2:])
	case "HKEYS":
		if len(args) != 2 {
			return errArgs(name)
		}
		return s.hkeys(string(args[1]))
	case "HGETALL":
		if len(args) != 2 {
			return errArgs(name)
		}
		return s.hgetall(string(args[1]))
	case "HINCRBYFLOAT":
		if len(args) != 4 {
			return errArgs(name)
		}
		delta, err := strconv.ParseFloat(string(args[3]), 64)
		if err != nil {
			return respio.NewErrorReply("ERR value is not a valid float")
		}
		return s.hincrByFloat(string(args[1]), string(args[2]), delta)
	case "LPUSH", "RPUSH":
		if len(args) < 3 {
			return errArgs(name)
		}
		return s.push(string(args[1]), args[2:], name == "LPUSH")
	case "LRANGE":
		if len(args) != 4 {
			return errArgs(name)
		}
		start, err1 := strconv.ParseInt(string(args[2]), 10, 64)
		stop, err2 := strconv.ParseInt(string(args[3]), 10, 64)
		if err1 != nil || err2 != nil {
			return respio.NewErrorReply("ERR value is not an integer or out of range")
		}
		return s.lrange(string(args[1]), start, stop)
	case "LLEN":
		if len(args) != 2 {
			return errArgs(name)
		}
		return s.llen(string(args[1]))
	case "EXPIRE":
		if len(args) != 3 {
			return errArgs(name)
		}
		seconds, err := strconv.ParseInt(string(args[2]), 10, 64)
		if err != nil {
			return respio.NewErrorReply("ERR value is not an integer or out of range")
		}
		return s.expire(string(args[1]), seconds)
	case "TTL":
		if len(args) != 2 {
			return errArgs(name)
		}
		return s.ttl(string(args[1]))
	case "TYPE":
		if len(args) != 2 {
			return errArgs(name)
		}
		return s.typeOf(string(args[1]))
	case "FLUSHALL":
		s.store.FlushAll()
		return okReply
	default:
		return respio.NewErrorReply(
			fmt.Sprintf("ERR unknown command '%s'", strings.ToLower(name)))
	}
}

func (s *Server) get(key string) *respio.Reply {
	e, ok := s.store.lookup(key)
	if !ok {
		return respio.NewBulkReply(nil)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != kindString {
		return wrongTypeReply
	}
	return respio.NewBulkReply(e.str)
}

func (s *Server) set(key string, value []byte) *respio.Reply {
	s.store.keys.Store(key, &entry{kind: kindString, str: value})
	return okReply
}

func (s *Server) del(keys [][]byte) *respio.Reply {
	var n int64
	for _, key := range keys {
		if s.store.Delete(string(key)) {
			n++
		}
	}
	return respio.NewIntReply(n)
}

func (s *Server) exists(keys [][]byte) *respio.Reply {
	var n int64
	for _, key := range keys {
		if _, ok := s.store.lookup(string(key)); ok {
			n++
		}
	}
	return respio.NewIntReply(n)
}

func (s *Server) incrBy(key string, delta int64) *respio.Reply {
	e, ok := s.store.upsert(key, kindString)
	if !ok {
		return wrongTypeReply
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	var current int64
	if len(e.str) > 0 {
		parsed, err := strconv.ParseInt(string(e.str), 10, 64)
		if err != nil {
			return respio.NewErrorReply("ERR value is not an integer or out of range")
		}
		current = parsed
	}
	current += delta
	e.str = []byte(strconv.FormatInt(current, 10))
	return respio.NewIntReply(current)
}

func (s *Server) hset(key string, pairs [][]byte) *respio.Reply {
	e, ok := s.store.upsert(key, kindHash)
	if !ok {
		return wrongTypeReply
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hash == nil {
		e.hash = make(map[string][]byte)
	}
	var added int64
	for i := 0; i+1 < len(pairs); i += 2 {
		field := string(pairs[i])
		if _, exists := e.hash[field]; !exists {
			added++
		}
		e.hash[field] = pairs[i+1]
	}
	return respio.NewIntReply(added)
}

func (s *Server) hget(key, field string) *respio.Reply {
	e, ok := s.store.lookup(key)
	if !ok {
		return respio.NewBulkReply(nil)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != kindHash {
		return wrongTypeReply
	}
	value, exists := e.hash[field]
	if !exists {
		return respio.NewBulkReply(nil)
	}
	return respio.NewBulkReply(value)
}

func (s *Server) hdel(key string, fields [][]byte) *respio.Reply {
	e, ok := s.store.lookup(key)
	if !ok {
		return respio.NewIntReply(0)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != kindHash {
		return wrongTypeReply
	}
	var n int64
	for _, field := range fields {
		if _, exists := e.hash[string(field)]; exists {
			delete(e.hash, string(field))
			n++
		}
	}
	return respio.NewIntReply(n)
}

func (s *Server) hkeys(key string) *respio.Reply {
	e, ok := s.store.lookup(key)
	if !ok {
		return respio.NewArrayReply()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != kindHash {
		return wrongTypeReply
	}
	elems := make([]*respio.Reply, 0, len(e.hash))
	for field := range e.hash {
		elems = append(elems, respio.NewBulkReply([]byte(field)))
	}
	return respio.NewArrayReply(elems...)
}

func (s *Server) hgetall(key string) *respio.Reply {
	e, ok := s.store.lookup(key)
	if !ok {
		return respio.NewArrayReply()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != kindHash {
		return wrongTypeReply
	}
	elems := make([]*respio.Reply, 0, len(e.hash)*2)
	for field, value := range e.hash {
		elems = append(elems, respio.NewBulkReply([]byte(field)), respio.NewBulkReply(value))
	}
	return respio.NewArrayReply(elems...)
}

func (s *Server) hincrByFloat(key, field string, delta float64) *respio.Reply {
	e, ok := s.store.upsert(key, kindHash)
	if !ok {
		return wrongTypeReply
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hash == nil {
		e.hash = make(map[string][]byte)
	}
	var current float64
	if existing, exists := e.hash[field]; exists {
		parsed, err := strconv.ParseFloat(string(existing), 64)
		if err != nil {
			return respio.NewErrorReply("ERR hash value is not a float")
		}
		current = parsed
	}
	current += delta
	rendered := strconv.FormatFloat(current, 'f', -1, 64)
	e.hash[field] = []byte(rendered)
	return respio.NewBulkReply([]byte(rendered))
}

func (s *Server) push(key string, values [][]byte, front bool) *respio.Reply {
	e, ok := s.store.upsert(key, kindList)
	if !ok {
		return wrongTypeReply
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, value := range values {
		if front {
			e.list = append([][]byte{value}, e.list...)
		} else {
			e.list = append(e.list, value)
		}
	}
	return respio.NewIntReply(int64(len(e.list)))
}

func (s *Server) lrange(key string, start, stop int64) *respio.Reply {
	e, ok := s.store.lookup(key)
	if !ok {
		return respio.NewArrayReply()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != kindList {
		return wrongTypeReply
	}
	n := int64(len(e.list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return respio.NewArrayReply()
	}
	elems := make([]*respio.Reply, 0, stop-start+1)
	for _, value := range e.list[start : stop+1] {
		elems = append(elems, respio.NewBulkReply(value))
	}
	return respio.NewArrayReply(elems...)
}

func (s *Server) llen(key string) *respio.Reply {
	e, ok := s.store.lookup(key)
	if !ok {
		return respio.NewIntReply(0)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kind != kindList {
		return wrongTypeReply
	}
	return respio.NewIntReply(int64(len(e.list)))
}

func (s *Server) expire(key string, seconds int64) *respio.Reply {
	e, ok := s.store.lookup(key)
	if !ok {
		return respio.NewIntReply(0)
	}
	e.mu.Lock()
	e.expireAt = time.Now().Add(time.Duration(seconds) * time.Second)
	e.mu.Unlock()
	return respio.NewIntReply(1)
}

func (s *Server) ttl(key string) *respio.Reply {
	e, ok := s.store.lookup(key)
	if !ok {
		return respio.NewIntReply(-2)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.expireAt.IsZero() {
		return respio.NewIntReply(-1)
	}
	remain := time.Until(e.expireAt)
	if remain < 0 {
		remain = 0
	}
	return respio.NewIntReply(int64(remain / time.Second))
}

func (s *Server) typeOf(key string) *respio.Reply {
	e, ok := s.store.lookup(key)
	if !ok {
		return respio.NewStatusReply("none")
	}
	return respio.NewStatusReply(e.kind.String())
}
