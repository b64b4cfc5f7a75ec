// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import "sync/atomic"

// ManualClock is a Clock moved explicitly, used by replays and tests.
type ManualClock struct {
	height atomic.Uint32
}

func NewManualClock(height uint32) *ManualClock {
	c := &ManualClock{}
	c.height.Store(height)
	return c
}

func (c *ManualClock) Height() uint32 {
	return c.height.Load()
}

func (c *ManualClock) Set(height uint32) {
	c.height.Store(height)
}

func (c *ManualClock) Advance(blocks uint32) uint32 {
	return c.height.Add(blocks)
}
