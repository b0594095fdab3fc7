// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/marsfarm/farm/thor"
)

// Stage abstracts changes on the storage.
type Stage struct {
	state   *State
	keys    []storageKey
	changes map[storageKey]rlp.RawValue
	root    thor.Bytes32
}

func newStage(s *State, changes map[storageKey]rlp.RawValue) *Stage {
	keys := make([]storageKey, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i].dbKey(), keys[j].dbKey()) < 0
	})

	root := s.root
	if len(keys) > 0 {
		// chain the change set onto the previous root
		root = thor.Blake2bFn(func(w io.Writer) {
			w.Write(s.root[:])
			for _, k := range keys {
				w.Write(k.dbKey())
				w.Write(changes[k])
			}
		})
	}
	return &Stage{
		state:   s,
		keys:    keys,
		changes: changes,
		root:    root,
	}
}

// Root returns the state root after the staged changes are applied.
func (s *Stage) Root() thor.Bytes32 {
	return s.root
}

// Len returns the count of changed storage slots.
func (s *Stage) Len() int {
	return len(s.keys)
}

// Commit writes all changes into the kv store in one batch.
func (s *Stage) Commit() (thor.Bytes32, error) {
	batch := s.state.db.NewBatch()
	for _, k := range s.keys {
		v := s.changes[k]
		var err error
		if len(v) == 0 {
			err = batch.Delete(StorageBucket.Key(k.dbKey()))
		} else {
			err = StorageBucket.Put(batch, k.dbKey(), v)
		}
		if err != nil {
			return thor.Bytes32{}, &Error{err}
		}
	}
	if err := batch.Put(rootKey, s.root[:]); err != nil {
		return thor.Bytes32{}, &Error{err}
	}
	if err := batch.Write(); err != nil {
		return thor.Bytes32{}, &Error{err}
	}

	for _, k := range s.keys {
		s.state.cache.Add(k, s.changes[k])
	}
	s.state.root = s.root
	s.state.reset()
	metricStorageCounter().AddWithLabel(int64(len(s.keys)), map[string]string{"type": "write", "target": "db"})
	return s.root, nil
}
