// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package commitment

import (
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/fixedpoint"
	"github.com/computemarket/capstake/ledger/rolling"
	"github.com/computemarket/capstake/ledger/stakes"
)

// Commitment is a committer's staking position backing one manager.
type Commitment struct {
	Stake      *stakes.Stake `rlp:"nil"` // nil while closed
	Manager    uint64        // bound manager id, zero when unbound
	Generation uint32        // incremented on every stake after a close
	Commission uint32        // basis points taken from the delegation share

	DelegationsTotalAmount     uint256.Int
	DelegationsTotalRewardable uint256.Int
	DelegationsSlashed         uint256.Int // slash pushed to delegations of the current generation

	Weights     rolling.Buffer[stakes.Weights]
	PoolRewards rolling.Memory[stakes.Accumulator]

	// LastScoringEpoch and LastSlashingEpoch hold the epoch during which the previous
	// (sealed) epoch was scored or slashed. Zero means never: nothing is sealed in epoch 0.
	LastScoringEpoch  capstake.Epoch
	LastSlashingEpoch capstake.Epoch

	// ScoredEpoch is the scored epoch awaiting distribution, if HasScored. ScoredWeights
	// are the weights it was scored with; the distribution splits by them.
	ScoredEpoch   capstake.Epoch
	HasScored     bool
	ScoredWeights stakes.Weights
	// PendingShares counts delegations whose weight changed since ScoredEpoch was scored.
	PendingShares uint32

	Delegations      uint32 // open delegations of the current generation
	StaleDelegations uint32 // open delegations of the remembered generation
}

// IsOpen reports whether the commitment currently holds a stake.
func (c *Commitment) IsOpen() bool {
	return c.Stake != nil
}

// IsCoolingDown reports whether the open stake started its cooldown.
func (c *Commitment) IsCoolingDown() bool {
	return c.Stake != nil && c.Stake.InCooldown
}

// TotalStake is the self stake plus the delegations of the current generation.
func (c *Commitment) TotalStake() (*uint256.Int, error) {
	if c.Stake == nil {
		return new(uint256.Int).Set(&c.DelegationsTotalAmount), nil
	}
	return fixedpoint.Add(&c.DelegationsTotalAmount, &c.Stake.Amount)
}

// Declaration is a committed metric level for a pool.
type Declaration struct {
	Pool   uint32
	Metric *uint256.Int
}
