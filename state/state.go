// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/computemarket/capstake/cache"
	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/kv"
	"github.com/computemarket/capstake/stackedmap"
)

const (
	storageBucket = kv.Bucket("s")

	defaultCacheSize = 4096
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

type storageKey struct {
	addr capstake.Address
	key  capstake.Bytes32
}

func (k storageKey) bytes() []byte {
	return append(append(make([]byte, 0, 52), k.addr[:]...), k.key[:]...)
}

// State is a journaled view over the persistent store.
// Writes are kept in memory until Commit, reads fall through to a
// committed-value cache and then the store.
type State struct {
	db     kv.Store
	getter kv.Getter
	cache  *cache.LRU
	sm     *stackedmap.StackedMap[storageKey, rlp.RawValue]
}

// New create state object.
func New(db kv.Store) *State {
	lru, err := cache.NewLRU(defaultCacheSize)
	if err != nil {
		panic(err) // only fails on a non-positive size
	}
	s := &State{
		db:     db,
		getter: storageBucket.NewGetter(db),
		cache:  lru,
	}
	s.reset()
	return s
}

func (s *State) reset() {
	s.sm = stackedmap.New(func(key storageKey) (rlp.RawValue, bool, error) {
		return s.cacheGetter(key)
	})
}

func (s *State) cacheGetter(key storageKey) (rlp.RawValue, bool, error) {
	v, err := s.cache.GetOrLoad(key, func(any) (any, error) {
		data, err := s.getter.Get(key.bytes())
		if err != nil {
			if s.getter.IsNotFound(err) {
				return rlp.RawValue(nil), nil
			}
			return nil, err
		}
		return rlp.RawValue(data), nil
	})
	if err != nil {
		return nil, false, err
	}
	raw := v.(rlp.RawValue)
	return raw, len(raw) > 0, nil
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr capstake.Address, key capstake.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw. An empty value deletes the slot.
func (s *State) SetRawStorage(addr capstake.Address, key capstake.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by end will be absorbed by State instance.
func (s *State) EncodeStorage(addr capstake.Address, key capstake.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr capstake.Address, key capstake.Bytes32, dec func([]byte) error) error {
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
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}

// Dirty returns the number of journaled writes not yet committed.
func (s *State) Dirty() int {
	n := 0
	s.sm.Journal(func(storageKey, rlp.RawValue) bool {
		n++
		return true
	})
	return n
}

// Commit writes every journaled change to the store in one batch
// and starts a fresh journal.
func (s *State) Commit() error {
	latest := make(map[storageKey]rlp.RawValue)
	order := make([]storageKey, 0)
	s.sm.Journal(func(k storageKey, v rlp.RawValue) bool {
		if _, ok := latest[k]; !ok {
			order = append(order, k)
		}
		latest[k] = v
		return true
	})

	batch := s.db.NewBatch()
	putter := storageBucket.NewPutter(batch)
	for _, k := range order {
		v := latest[k]
		if len(v) == 0 {
			if err := putter.Delete(k.bytes()); err != nil {
				return errors.Wrap(err, "delete storage")
			}
			continue
		}
		if err := putter.Put(k.bytes(), v); err != nil {
			return errors.Wrap(err, "put storage")
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{errors.Wrap(err, "write batch")}
	}
	for _, k := range order {
		s.cache.Add(k, latest[k])
	}
	s.reset()
	return nil
}
