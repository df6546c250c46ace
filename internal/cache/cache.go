// Package cache keeps compiled bytecode keyed by a hash of the program
// source and the host functions it was compiled against.
package cache

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/coocood/freecache"
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/funvibe/hog/internal/vm"
)

// MinSize is the smallest store freecache accepts.
const MinSize = 512 * 1024

// Key identifies one compilation.
type Key uint64

// KeyOf hashes source together with the sorted supported function names.
func KeyOf(source []byte, supported map[string]bool) Key {
	names := make([]string, 0, len(supported))
	for name, ok := range supported {
		if ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	d := xxhash.New()
	_, _ = d.Write(source)
	for _, name := range names {
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(name)
	}
	return Key(d.Sum64())
}

func (k Key) bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k))
	return b[:]
}

// Stats is a snapshot of the store counters.
type Stats struct {
	Entries int64
	Hits    int64
	Misses  int64
}

// Cache is a bounded in-memory bytecode store. Entries are CBOR encoded so
// the store holds no Go pointers. It is safe for concurrent use.
type Cache struct {
	store *freecache.Cache
	enc   cbor.EncMode
	dec   cbor.DecMode
	log   *zap.Logger
}

// New creates a cache of roughly size bytes.
func New(size int, log *zap.Logger) (*Cache, error) {
	if size < MinSize {
		size = MinSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, errors.Wrap(err, "cbor encoder")
	}
	// opcodes and int operands must come back as int64, not uint64
	dec, err := cbor.DecOptions{IntDec: cbor.IntDecConvertSigned}.DecMode()
	if err != nil {
		return nil, errors.Wrap(err, "cbor decoder")
	}
	return &Cache{store: freecache.NewCache(size), enc: enc, dec: dec, log: log}, nil
}

// Get returns the bytecode stored under key.
func (c *Cache) Get(key Key) (vm.Bytecode, bool) {
	data, err := c.store.Get(key.bytes())
	if err != nil {
		return nil, false
	}
	var tokens []any
	if err := c.dec.Unmarshal(data, &tokens); err != nil {
		c.log.Warn("dropping undecodable cache entry", zap.Uint64("key", uint64(key)), zap.Error(err))
		c.store.Del(key.bytes())
		return nil, false
	}
	code, err := vm.NewBytecode(tokens)
	if err != nil {
		c.log.Warn("dropping invalid cache entry", zap.Uint64("key", uint64(key)), zap.Error(err))
		c.store.Del(key.bytes())
		return nil, false
	}
	return code, true
}

// Put stores code under key. Entries larger than the store allows are
// rejected by freecache and reported as errors.
func (c *Cache) Put(key Key, code vm.Bytecode) error {
	tokens := make([]any, len(code))
	for i, tok := range code {
		if op, ok := tok.(vm.Opcode); ok {
			tok = int64(op)
		}
		tokens[i] = tok
	}
	data, err := c.enc.Marshal(tokens)
	if err != nil {
		return errors.Wrap(err, "encoding bytecode")
	}
	if err := c.store.Set(key.bytes(), data, 0); err != nil {
		return errors.Wrap(err, "storing bytecode")
	}
	return nil
}

// GetOrCompile returns cached bytecode for key or calls compile and stores
// its result. The flag reports a cache hit.
func (c *Cache) GetOrCompile(key Key, compile func() (vm.Bytecode, error)) (vm.Bytecode, bool, error) {
	if code, ok := c.Get(key); ok {
		return code, true, nil
	}
	code, err := compile()
	if err != nil {
		return nil, false, err
	}
	if err := c.Put(key, code); err != nil {
		c.log.Debug("bytecode not cached", zap.Uint64("key", uint64(key)), zap.Error(err))
	}
	return code, false, nil
}

func (c *Cache) Stats() Stats {
	return Stats{
		Entries: c.store.EntryCount(),
		Hits:    c.store.HitCount(),
		Misses:  c.store.MissCount(),
	}
}

func (c *Cache) Clear() {
	c.store.Clear()
}
