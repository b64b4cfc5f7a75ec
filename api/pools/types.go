// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/pool"
	"github.com/computemarket/capstake/ledger/reward"
)

// Amounts are decimal strings in the smallest unit.

type Pool struct {
	ID                     uint32         `json:"id"`
	Name                   string         `json:"name"`
	RewardRatio            uint32         `json:"rewardRatio"`
	PendingRatio           *PendingRatio  `json:"pendingRatio"`
	TargetWeightPerCompute string         `json:"targetWeightPerCompute"`
	MinCommitment          string         `json:"minCommitment"`
	Epoch                  capstake.Epoch `json:"epoch"`
}

type PendingRatio struct {
	Value uint32         `json:"value"`
	From  capstake.Epoch `json:"from"`
}

type Totals struct {
	Pool           uint32         `json:"pool"`
	Epoch          capstake.Epoch `json:"epoch"`
	Total          string         `json:"total"`
	TotalWithBonus string         `json:"totalWithBonus"`
}

type Budget struct {
	Pool                   uint32         `json:"pool"`
	Epoch                  capstake.Epoch `json:"epoch"`
	Total                  string         `json:"total"`
	Distributed            string         `json:"distributed"`
	TotalScore             string         `json:"totalScore"`
	TargetWeightPerCompute string         `json:"targetWeightPerCompute"`
}

func convertPool(p *pool.Pool, epoch capstake.Epoch) *Pool {
	out := &Pool{
		ID:                     p.ID,
		Name:                   p.Name,
		RewardRatio:            p.RewardRatio.Get(epoch),
		TargetWeightPerCompute: p.Config.TargetWeightPerCompute.Dec(),
		MinCommitment:          p.Config.MinCommitment.Dec(),
		Epoch:                  epoch,
	}
	if p.RewardRatio.HasPending && p.RewardRatio.PendingFrom > epoch {
		out.PendingRatio = &PendingRatio{Value: p.RewardRatio.Pending, From: p.RewardRatio.PendingFrom}
	}
	return out
}

func convertTotals(id uint32, epoch capstake.Epoch, t *pool.Totals) *Totals {
	return &Totals{
		Pool:           id,
		Epoch:          epoch,
		Total:          t.Total.Dec(),
		TotalWithBonus: t.TotalWithBonus.Dec(),
	}
}

func convertBudget(id uint32, epoch capstake.Epoch, b *reward.Budget) *Budget {
	return &Budget{
		Pool:                   id,
		Epoch:                  epoch,
		Total:                  b.Total.Dec(),
		Distributed:            b.Distributed.Dec(),
		TotalScore:             b.TotalScore.Dec(),
		TargetWeightPerCompute: b.TargetWeightPerCompute.Dec(),
	}
}
