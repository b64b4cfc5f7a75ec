// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package capstake

import "github.com/holiman/uint256"

// Epoch is the reward/accounting period sequence number.
type Epoch = uint32

// Fixed-point scales shared by all economic quantities.
const (
	// Decimals of amounts and metrics.
	Decimals = 18
	// BasisPoints is the denominator of every ratio parameter.
	BasisPoints = 10_000
)

// Scale is 10^Decimals, the fixed-point one.
var Scale = uint256.NewInt(1_000_000_000_000_000_000)

// Units converts a whole number of units into its fixed-point representation.
func Units(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), Scale)
}

// Cycle is an epoch paired with the height at which it started.
type Cycle struct {
	Epoch Epoch
	Start uint32
}

// CycleAt returns the cycle a block height belongs to.
func CycleAt(height uint32, epochLength uint32) Cycle {
	epoch := height / epochLength
	return Cycle{Epoch: epoch, Start: epoch * epochLength}
}

// Sealed returns the most recent epoch whose aggregates are final, and false while
// the first epoch is still running.
func (c Cycle) Sealed() (Epoch, bool) {
	if c.Epoch == 0 {
		return 0, false
	}
	return c.Epoch - 1, true
}
