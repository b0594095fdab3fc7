// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/marsfarm/farm/cache"
	"github.com/marsfarm/farm/kv"
	"github.com/marsfarm/farm/stackedmap"
	"github.com/marsfarm/farm/thor"
)

const (
	// StorageBucket is the kv bucket holding contract storage.
	StorageBucket = kv.Bucket("s")

	storageCacheSize = 4096
)

// rootKey stores the root of the latest committed state.
var rootKey = []byte("state-root")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// State manages the storage of all native contracts.
type State struct {
	db    kv.GetPutter
	cache *cache.LRU             // cache of storage loaded from db
	sm    *stackedmap.StackedMap // keeps revisions of storage
	root  thor.Bytes32
}

// New create state object on top of the given db.
// The root of the latest committed state is loaded from db.
func New(db kv.GetPutter) (*State, error) {
	lru, err := cache.NewLRU(storageCacheSize)
	if err != nil {
		return nil, &Error{err}
	}
	root, err := LoadRoot(db)
	if err != nil {
		return nil, err
	}
	s := &State{
		db:    db,
		cache: lru,
		root:  root,
	}
	s.reset()
	return s, nil
}

// LoadRoot reads the root of the latest committed state.
func LoadRoot(db kv.Getter) (thor.Bytes32, error) {
	data, err := db.Get(rootKey)
	if err != nil {
		if db.IsNotFound(err) {
			return thor.Bytes32{}, nil
		}
		return thor.Bytes32{}, &Error{err}
	}
	return thor.BytesToBytes32(data), nil
}

func (s *State) reset() {
	s.sm = stackedmap.New(func(key any) (any, bool, error) {
		return s.cacheGetter(key)
	})
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key any) (value any, exist bool, err error) {
	switch k := key.(type) {
	case storageKey:
		v, err := s.cache.GetOrLoad(k, func(any) (any, error) {
			metricStorageCounter().AddWithLabel(1, map[string]string{"type": "read", "target": "db"})
			return s.loadStorage(k)
		})
		if err != nil {
			return nil, false, err
		}
		metricStorageCounter().AddWithLabel(1, map[string]string{"type": "read", "target": "cache"})
		return v, true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

func (s *State) loadStorage(k storageKey) (rlp.RawValue, error) {
	data, err := StorageBucket.Get(s.db, k.dbKey())
	if err != nil {
		if s.db.IsNotFound(err) {
			return rlp.RawValue(nil), nil
		}
		return nil, err
	}
	return rlp.RawValue(data), nil
}

// Root returns the root of the latest committed state.
func (s *State) Root() thor.Bytes32 {
	return s.root
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr thor.Address, key thor.Bytes32) (thor.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return thor.Bytes32{}, err
	}
	if len(raw) == 0 {
		return thor.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return thor.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// special case for rlp list, it should be customized storage value
		// return hash of raw data
		return thor.Blake2b(raw), nil
	}
	return thor.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr thor.Address, key, value thor.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by end will be absorbed by State instance.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Stage makes a stage object to compute the new root or commit all changes.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey]rlp.RawValue)
	s.sm.Journal(func(k, v any) bool {
		if key, ok := k.(storageKey); ok {
			changes[key] = v.(rlp.RawValue)
		}
		return true
	})
	return newStage(s, changes)
}

// Commit commits all changes since the last commit and starts a fresh journal.
func (s *State) Commit() (thor.Bytes32, error) {
	return s.Stage().Commit()
}

type storageKey struct {
	addr thor.Address
	key  thor.Bytes32
}

func (k storageKey) dbKey() []byte {
	return append(k.addr.Bytes(), k.key.Bytes()...)
}
