// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rolling holds the fixed-size, epoch indexed containers every
// aggregate of the ledger is stored in. Readers never fail on a key that
// rolled past; they return the zero value instead.
package rolling

import (
	"errors"

	"github.com/computemarket/capstake/capstake"
)

var ErrStaleKey = errors.New("rolling: key behind current")

// Buffer keeps the value of the current key and of the key right before it.
type Buffer[T any] struct {
	Key  capstake.Epoch
	Prev T
	Cur  T
}

// Get returns the value stored for k, or the zero value when k is neither the
// current nor the previous key.
func (b *Buffer[T]) Get(k capstake.Epoch) T {
	var zero T
	switch {
	case k == b.Key:
		return b.Cur
	case b.Key > 0 && k == b.Key-1:
		return b.Prev
	default:
		return zero
	}
}

// Latest reads the buffer as a carried one: any k at or past the current key
// returns the current value, since a carried value persists across silent epochs.
// Buffers rolled without carry are read with Get.
func (b *Buffer[T]) Latest(k capstake.Epoch) T {
	if k >= b.Key {
		return b.Cur
	}
	return b.Get(k)
}

// Roll moves the buffer forward to k. Without carry the new current slot starts
// from zero; with carry it starts from the value current before the roll.
func (b *Buffer[T]) Roll(k capstake.Epoch, carry bool) error {
	var zero T
	switch {
	case k < b.Key:
		return ErrStaleKey
	case k == b.Key:
		return nil
	case k == b.Key+1:
		b.Prev = b.Cur
	default:
		if carry {
			b.Prev = b.Cur
		} else {
			b.Prev = zero
		}
	}
	if !carry {
		b.Cur = zero
	}
	b.Key = k
	return nil
}

// Mutate rolls to k and applies f to the current slot.
func (b *Buffer[T]) Mutate(k capstake.Epoch, carry bool, f func(*T) error) error {
	if err := b.Roll(k, carry); err != nil {
		return err
	}
	return f(&b.Cur)
}
