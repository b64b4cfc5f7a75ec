// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot

import (
	"errors"
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/computemarket/capstake/capstake"
)

type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction, values are rlp encoded.
// Reading an absent key yields the zero value (a fresh allocation for pointer types).
type Mapping[K Key, V any] struct {
	context *Context
	basePos capstake.Bytes32
}

func NewMapping[K Key, V any](context *Context, pos capstake.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) capstake.Bytes32 {
	return capstake.Blake2b(key.Bytes(), m.basePos.Bytes())
}

func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = m.context.state.DecodeStorage(m.context.address, m.position(key), func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Exists reports whether a value was stored under key.
func (m *Mapping[K, V]) Exists(key K) (bool, error) {
	raw, err := m.context.state.GetRawStorage(m.context.address, m.position(key))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

// Insert stores a value under a key that must not hold one yet.
func (m *Mapping[K, V]) Insert(key K, value V) error {
	exists, err := m.Exists(key)
	if err != nil {
		return err
	}
	if exists {
		return errors.New("mapping: key already present")
	}
	return m.Upsert(key, value)
}

// Update replaces the value of a key that must already hold one.
func (m *Mapping[K, V]) Update(key K, value V) error {
	exists, err := m.Exists(key)
	if err != nil {
		return err
	}
	if !exists {
		return errors.New("mapping: key not present")
	}
	return m.Upsert(key, value)
}

func (m *Mapping[K, V]) Upsert(key K, value V) error {
	return m.context.state.EncodeStorage(m.context.address, m.position(key), func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

func (m *Mapping[K, V]) Delete(key K) {
	m.context.state.SetRawStorage(m.context.address, m.position(key), nil)
}

// BytesKey is a precomputed key.
type BytesKey []byte

func (k BytesKey) Bytes() []byte { return k }

// Compose joins the encoding of several keys into one.
func Compose(parts ...Key) BytesKey {
	var out []byte
	for _, p := range parts {
		out = append(out, p.Bytes()...)
	}
	return out
}
