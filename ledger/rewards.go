// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/commitment"
	"github.com/computemarket/capstake/ledger/fixedpoint"
	"github.com/computemarket/capstake/ledger/reverts"
	"github.com/computemarket/capstake/ledger/reward"
	"github.com/computemarket/capstake/ledger/stakes"
)

// settle brings a commitment to the current epoch before anything else touches it:
// a scored epoch is distributed once every score of it is final, then the epoch
// sealed last is scored. Both happen at most once per epoch.
func (l *Ledger) settle(id uint64, c *commitment.Commitment) error {
	current := l.cycle.Epoch
	if c.HasScored && c.ScoredEpoch+2 <= current {
		if err := l.distribute(id, c, c.ScoredEpoch); err != nil {
			return err
		}
		c.HasScored = false
		c.PendingShares = 0
	}

	sealed, ok := l.cycle.Sealed()
	if !ok || !c.IsOpen() || c.LastScoringEpoch == current {
		return nil
	}
	c.LastScoringEpoch = current
	if c.Stake.Created/l.params.EpochLength > sealed {
		return nil
	}
	if c.HasScored {
		return reverts.InternalErr("commitment %d: epoch %d still pending while scoring %d", id, c.ScoredEpoch, sealed)
	}
	scored, err := l.score(id, c, sealed)
	if err != nil {
		return err
	}
	if scored {
		c.HasScored = true
		c.ScoredEpoch = sealed
		c.ScoredWeights = c.Weights.Latest(sealed)
	}
	return nil
}

// score computes the commitment's score in every declared pool for the sealed epoch and
// adds it to the pool budgets. It reports whether any score is positive.
func (l *Ledger) score(id uint64, c *commitment.Commitment, sealed capstake.Epoch) (bool, error) {
	ids, err := l.pools.IDs()
	if err != nil {
		return false, err
	}
	weights := c.Weights.Latest(sealed)
	totalWeight, err := weights.TotalReward()
	if err != nil {
		return false, err
	}

	scored := false
	for _, poolID := range ids {
		committed, err := l.commitments.Declared(id, poolID)
		if err != nil {
			return false, err
		}
		if committed.IsZero() {
			continue
		}
		p, err := l.pools.Get(poolID)
		if err != nil {
			return false, err
		}
		sums, err := l.metrics.Sealed(c.Manager, poolID, sealed)
		if err != nil {
			return false, err
		}
		s, err := reward.ComputeScore(committed, &sums.Sum, &sums.BonusSum, totalWeight, &weights.SelfReward, &p.Config.TargetWeightPerCompute)
		if err != nil {
			return false, err
		}
		if err := l.rewards.SetScore(id, poolID, sealed, s); err != nil {
			return false, err
		}
		if s.ScoreWithBonus.IsZero() {
			continue
		}
		if err := l.rewards.AddScore(poolID, sealed, &s.ScoreWithBonus, &p.Config.TargetWeightPerCompute); err != nil {
			return false, err
		}
		scored = true
		logger.Debug("scored", "commitment", id, "pool", poolID, "epoch", sealed, "score", &s.ScoreWithBonus)
		l.emit(&Event{Kind: EventScored, Pool: poolID, Commitment: id, Amount: &s.ScoreWithBonus})
	}
	return scored, nil
}

// distribute pays out the commitment's share of each pool budget of a scored epoch,
// split by the weights the epoch was scored with. The self part accrues on the stake,
// the delegation part is pushed into the accumulator of the running generation. When
// delegations changed since scoring, the reward per weight reached is recorded for them.
func (l *Ledger) distribute(id uint64, c *commitment.Commitment, epoch capstake.Epoch) error {
	if !c.IsOpen() {
		return nil
	}
	ids, err := l.pools.IDs()
	if err != nil {
		return err
	}
	weights := c.ScoredWeights

	for _, poolID := range ids {
		s, err := l.rewards.Score(id, poolID, epoch)
		if err != nil {
			return err
		}
		if s.ScoreWithBonus.IsZero() {
			continue
		}
		budget, err := l.rewards.Budget(poolID, epoch)
		if err != nil {
			return err
		}
		if budget.Total.IsZero() || budget.TotalScore.IsZero() {
			continue
		}
		split, err := reward.SplitReward(s, budget, &weights, c.Commission)
		if err != nil {
			return err
		}
		if split.Total.IsZero() {
			continue
		}
		if err := l.rewards.Consume(poolID, epoch, split.Total); err != nil {
			return err
		}

		self := split.Self
		err = c.PoolRewards.Mutate(func(acc *stakes.Accumulator) error {
			dust, err := stakes.Push(&acc.RewardPerWeight, split.Delegations, &weights.DelegationsReward)
			if err != nil {
				return err
			}
			self, err = fixedpoint.Add(self, dust)
			return err
		})
		if err != nil {
			return err
		}
		if err := c.Stake.CreditReward(self); err != nil {
			return err
		}
		logger.Debug("distributed", "commitment", id, "pool", poolID, "epoch", epoch, "total", split.Total, "self", self)
		l.emit(&Event{Kind: EventRewarded, Pool: poolID, Commitment: id, Amount: split.Total})
	}
	if c.PendingShares > 0 {
		acc := c.PoolRewards.GetLatest()
		return l.commitments.SetCheckpoint(id, epoch, &acc.RewardPerWeight)
	}
	return nil
}

// pay moves a reward from the vault to an account.
func (l *Ledger) pay(account capstake.Address, amount *uint256.Int, commitmentID uint64) error {
	if amount.IsZero() {
		return nil
	}
	if err := l.balances.Transfer(l.params.Vault, account, amount); err != nil {
		return err
	}
	l.emit(&Event{Kind: EventPaid, Account: account, Commitment: commitmentID, Amount: amount})
	return nil
}

// sinkSlash moves an accrued slash from an account to the slash sink.
func (l *Ledger) sinkSlash(account capstake.Address, amount *uint256.Int, commitmentID uint64) error {
	if amount.IsZero() {
		return nil
	}
	if err := l.balances.Transfer(account, l.params.SlashSink, amount); err != nil {
		return err
	}
	l.emit(&Event{Kind: EventSlashed, Account: account, Commitment: commitmentID, Amount: amount})
	return nil
}

// FundRewards moves amount from the funder into the current epoch's pool budgets,
// split by the pools' reward ratios. Rounding dust goes to the last pool with a ratio.
func (l *Ledger) FundRewards(funder capstake.Address, amount *uint256.Int) error {
	return l.atomic("fund-rewards", func() error {
		if amount == nil || amount.IsZero() {
			return reverts.Precondition("nothing to fund")
		}
		shares, err := l.pools.RatioShare(l.cycle.Epoch)
		if err != nil {
			return err
		}
		if shares.Sum == 0 {
			return reverts.Precondition("no pool has a reward ratio")
		}
		if err := l.balances.Transfer(funder, l.params.Vault, amount); err != nil {
			return err
		}

		ids, err := l.pools.IDs()
		if err != nil {
			return err
		}
		var last uint32
		for _, id := range ids {
			if shares.Ratios[id] > 0 {
				last = id
			}
		}
		left := new(uint256.Int).Set(amount)
		for _, id := range ids {
			if shares.Ratios[id] == 0 {
				continue
			}
			part := shares.Of(id, amount)
			if id == last {
				part = left
			}
			left = fixedpoint.SubFloor(left, part)
			if err := l.rewards.Fund(id, l.cycle.Epoch, part); err != nil {
				return err
			}
			l.emit(&Event{Kind: EventFunded, Pool: id, Account: funder, Amount: part})
		}
		logger.Debug("funded rewards", "funder", funder, "amount", amount, "epoch", l.cycle.Epoch)
		return nil
	})
}

// FundManagerRewards adds to the reserve processor rewards are paid from.
func (l *Ledger) FundManagerRewards(funder capstake.Address, amount *uint256.Int) error {
	return l.atomic("fund-manager-rewards", func() error {
		if amount == nil || amount.IsZero() {
			return reverts.Precondition("nothing to fund")
		}
		if err := l.balances.Transfer(funder, l.params.Vault, amount); err != nil {
			return err
		}
		if err := l.rewards.AddReserve(amount); err != nil {
			return err
		}
		l.emit(&Event{Kind: EventManagerFunded, Account: funder, Amount: amount})
		return nil
	})
}

// Deposit mints funds to an account. Operator only.
func (l *Ledger) Deposit(caller, account capstake.Address, amount *uint256.Int) error {
	return l.atomic("deposit", func() error {
		if err := l.requireOperator(caller); err != nil {
			return err
		}
		if amount == nil || amount.IsZero() {
			return reverts.Precondition("nothing to deposit")
		}
		if err := l.balances.Mint(account, amount); err != nil {
			return err
		}
		l.emit(&Event{Kind: EventDeposited, Account: account, Amount: amount})
		return nil
	})
}
