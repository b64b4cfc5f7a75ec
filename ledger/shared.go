// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import "sync"

// Shared serializes access to a ledger used by several goroutines.
// Reads go through the same lock as writes, the state cache fills on read.
type Shared struct {
	mu sync.Mutex
	l  *Ledger
}

func NewShared(l *Ledger) *Shared {
	return &Shared{l: l}
}

// Do runs f with exclusive access to the ledger.
func (s *Shared) Do(f func(l *Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(s.l)
}
