// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/rolling"
)

type Config struct {
	TargetWeightPerCompute uint256.Int // caps the weight one unit of fulfilled compute can amplify
	MinCommitment          uint256.Int // smallest metric a commitment may declare
}

type Pool struct {
	ID          uint32
	Name        string
	RewardRatio rolling.Provisional[uint32]
	Config      Config
}

// Totals of all active processors for one epoch.
type Totals struct {
	Total          uint256.Int
	TotalWithBonus uint256.Int
}

// RatioChange schedules a new reward ratio from the given epoch on.
type RatioChange struct {
	Value uint32
	From  capstake.Epoch
}

// Shares are the reward ratios of all pools at one epoch.
type Shares struct {
	Ratios map[uint32]uint32
	Sum    uint64
}

// Of returns amount * ratio(pool) / sum.
func (s *Shares) Of(pool uint32, amount *uint256.Int) *uint256.Int {
	if s.Sum == 0 {
		return new(uint256.Int)
	}
	z, _ := new(uint256.Int).MulDivOverflow(amount, uint256.NewInt(uint64(s.Ratios[pool])), uint256.NewInt(s.Sum))
	return z
}
