// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rolling

// Memory holds the value of the current generation and remembers the one before it.
type Memory[T any] struct {
	Key        uint32
	Remembered T
	Current    T
}

func (m *Memory[T]) GetLatest() T {
	return m.Current
}

// Get returns the value of generation k, falling back to the remembered one.
func (m *Memory[T]) Get(k uint32) T {
	if k == m.Key {
		return m.Current
	}
	return m.Remembered
}

// Roll starts generation key from zero. The current value becomes the remembered one.
func (m *Memory[T]) Roll(key uint32) {
	var zero T
	m.Remembered = m.Current
	m.Current = zero
	m.Key = key
}

func (m *Memory[T]) Mutate(f func(*T) error) error {
	return f(&m.Current)
}
