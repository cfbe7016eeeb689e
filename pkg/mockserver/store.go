package mockserver

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type entryKind int

const (
	kindString entryKind = iota
	kindHash
	kindList
)

func (k entryKind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindHash:
		return "hash"
	case kindList:
		return "list"
	default:
		return "none"
	}
}

// entry is one keyspace slot. The map shards concurrently via xsync; the
// per-entry mutex serializes structure mutation.
type entry struct {
	mu       sync.Mutex
	kind     entryKind
	str      []byte
	hash     map[string][]byte
	list     [][]byte
	expireAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// Store is the in-memory keyspace backing the mock server.
type Store struct {
	keys *xsync.MapOf[string, *entry]
}

func NewStore() *Store {
	return &Store{
		keys: xsync.NewMapOf[string, *entry](),
	}
}

// lookup returns the live entry for key, dropping it first when expired.
func (s *Store) lookup(key string) (*entry, bool) {
	e, ok := s.keys.Load(key)
	if !ok {
		return nil, false
	}
	if e.expired(time.Now()) {
		s.keys.Delete(key)
		return nil, false
	}
	return e, true
}

// upsert returns the live entry for key, creating one of the given kind
// when absent. The second result is false when the key exists with a
// different kind.
func (s *Store) upsert(key string, kind entryKind) (*entry, bool) {
	for {
		e, loaded := s.keys.LoadOrCompute(key, func() *entry {
			return &entry{kind: kind}
		})
		if loaded && e.expired(time.Now()) {
			s.keys.Delete(key)
			continue
		}
		if e.kind != kind {
			return nil, false
		}
		return e, true
	}
}

func (s *Store) Delete(key string) bool {
	_, ok := s.lookup(key)
	if ok {
		s.keys.Delete(key)
	}
	return ok
}

func (s *Store) FlushAll() {
	s.keys.Clear()
}

func (s *Store) Size() int {
	return s.keys.Size()
}
