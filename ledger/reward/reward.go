// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reward

import (
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/ledger/fixedpoint"
	"github.com/computemarket/capstake/ledger/stakes"
)

// Budget of one pool for one epoch.
type Budget struct {
	Total                  uint256.Int
	Distributed            uint256.Int
	TotalScore             uint256.Int
	TargetWeightPerCompute uint256.Int // pool config snapshot taken by the first score
}

// Score of a commitment in one pool for one epoch.
type Score struct {
	Score          uint256.Int
	ScoreWithBonus uint256.Int
}

// ComputeScore returns the capped square-root score of fulfilled compute.
//
//	score = min(sqrt(f * totalWeight), target * f)       f = min(committed, measured)
//	bonus = min(sqrt(x * selfWeight), target * x)        x = max(0, bonusMeasured - committed)
//
// All values are fixed point, the square root is taken of the scaled product.
func ComputeScore(committed, measured, bonusMeasured, totalWeight, selfWeight, target *uint256.Int) (*Score, error) {
	f := fixedpoint.Min(committed, measured)
	score, err := capped(f, totalWeight, target)
	if err != nil {
		return nil, err
	}
	x := fixedpoint.SubFloor(bonusMeasured, committed)
	bonus, err := capped(x, selfWeight, target)
	if err != nil {
		return nil, err
	}
	withBonus, err := fixedpoint.Add(score, bonus)
	if err != nil {
		return nil, err
	}
	s := &Score{}
	s.Score.Set(score)
	s.ScoreWithBonus.Set(withBonus)
	return s, nil
}

func capped(compute, weight, target *uint256.Int) (*uint256.Int, error) {
	amplified, err := fixedpoint.SqrtProduct(compute, weight)
	if err != nil {
		return nil, err
	}
	limit, err := fixedpoint.MulScaled(target, compute)
	if err != nil {
		return nil, err
	}
	return fixedpoint.Min(amplified, limit), nil
}

// Split of a commitment's reward for one pool and epoch.
type Split struct {
	Total       *uint256.Int // everything taken from the budget
	Self        *uint256.Int // committer share, commission and bonus included
	Delegations *uint256.Int // delegation share after commission
	Commission  *uint256.Int
	Bonus       *uint256.Int
}

// SplitReward turns a score into balance deltas:
// reward = scoreWithBonus * total / totalScore, the base part is split by reward
// weight, commission is taken from the delegation share and the bonus goes to the
// committer.
func SplitReward(score *Score, budget *Budget, weights *stakes.Weights, commission uint32) (*Split, error) {
	total, err := fixedpoint.MulDiv(&score.ScoreWithBonus, &budget.Total, &budget.TotalScore)
	if err != nil {
		return nil, err
	}
	base, err := fixedpoint.MulDiv(&score.Score, &budget.Total, &budget.TotalScore)
	if err != nil {
		return nil, err
	}
	bonus := fixedpoint.SubFloor(total, base)

	totalWeight, err := weights.TotalReward()
	if err != nil {
		return nil, err
	}
	self := new(uint256.Int).Set(base)
	if !totalWeight.IsZero() {
		if self, err = fixedpoint.MulDiv(base, &weights.SelfReward, totalWeight); err != nil {
			return nil, err
		}
	}
	delegations := fixedpoint.SubFloor(base, self)
	fee, err := fixedpoint.MulBps(delegations, commission)
	if err != nil {
		return nil, err
	}
	delegations = fixedpoint.SubFloor(delegations, fee)

	selfTotal, err := fixedpoint.Sum(self, fee, bonus)
	if err != nil {
		return nil, err
	}
	return &Split{
		Total:       total,
		Self:        selfTotal,
		Delegations: delegations,
		Commission:  fee,
		Bonus:       bonus,
	}, nil
}

// SlashAmount is the slash of one pool:
// totalStake * baseFraction * (ratio / ratioSum) * shortfall / committed * missed.
func SlashAmount(
	totalStake *uint256.Int,
	baseFractionBps uint32,
	ratio uint32,
	ratioSum uint64,
	committed, measured *uint256.Int,
	missed uint32,
) (*uint256.Int, error) {
	if committed.IsZero() || ratioSum == 0 || missed == 0 {
		return new(uint256.Int), nil
	}
	shortfall := fixedpoint.SubFloor(committed, measured)
	if shortfall.IsZero() {
		return new(uint256.Int), nil
	}
	base, err := fixedpoint.MulBps(totalStake, baseFractionBps)
	if err != nil {
		return nil, err
	}
	share, err := fixedpoint.MulDiv(base, uint256.NewInt(uint64(ratio)), uint256.NewInt(ratioSum))
	if err != nil {
		return nil, err
	}
	perEpoch, err := fixedpoint.MulDiv(share, shortfall, committed)
	if err != nil {
		return nil, err
	}
	return fixedpoint.Mul(perEpoch, uint256.NewInt(uint64(missed)))
}
