// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metric

import (
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
)

// Commit is the latest value a processor reported for a pool.
type Commit struct {
	Valid       bool
	Epoch       capstake.Epoch // epoch the value was measured in
	Metric      uint256.Int
	FoldedEpoch capstake.Epoch // last epoch the value was folded into sums
	Active      bool           // processor was active when last folded
}

// EpochSum of a manager's processors in one pool.
type EpochSum struct {
	Sum      uint256.Int
	BonusSum uint256.Int
}

type Sample struct {
	Pool  uint32
	Value *uint256.Int
}

// Settled is a value folded into the sums by a report.
type Settled struct {
	Pool   uint32
	Value  *uint256.Int
	Reused bool
}

// Totals receives the active values folded into the pool totals.
type Totals interface {
	AddTotals(pool uint32, epoch capstake.Epoch, total, withBonus *uint256.Int) error
	SubBonus(pool uint32, epoch capstake.Epoch, value *uint256.Int) error
}
