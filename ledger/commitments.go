// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/balance"
	"github.com/computemarket/capstake/ledger/commitment"
	"github.com/computemarket/capstake/ledger/reverts"
	"github.com/computemarket/capstake/ledger/stakes"
)

// declare raises the commitment's metric levels. A level must reach the pool minimum
// and must not exceed what the manager's processors measured in the epoch sealed last.
func (l *Ledger) declare(id uint64, c *commitment.Commitment, decls []commitment.Declaration) error {
	for _, d := range decls {
		p, err := l.pools.Get(d.Pool)
		if err != nil {
			return err
		}
		if d.Metric == nil || d.Metric.IsZero() {
			return reverts.Precondition("pool %d: declared metric must be positive", d.Pool)
		}
		if d.Metric.Lt(&p.Config.MinCommitment) {
			return reverts.Precondition("pool %d: declared metric below minimum %s", d.Pool, &p.Config.MinCommitment)
		}
		measured, err := l.metrics.LastSealedSum(c.Manager, d.Pool, l.cycle.Epoch)
		if err != nil {
			return err
		}
		if d.Metric.Gt(measured) {
			return reverts.Precondition("pool %d: declared metric %s exceeds measured %s", d.Pool, d.Metric, measured)
		}
		if err := l.commitments.Declare(id, d.Pool, d.Metric); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) relockStaked(account capstake.Address, c *commitment.Commitment) error {
	return l.balances.Relock(account, func(a *balance.Account) error {
		if c.Stake == nil {
			a.Staked.Clear()
		} else {
			a.Staked.Set(&c.Stake.Amount)
		}
		return nil
	})
}

// CommitCompute stakes amount behind the manager the committer's commitment backs and
// declares the metric levels it vouches for.
func (l *Ledger) CommitCompute(
	committer capstake.Address,
	decls []commitment.Declaration,
	amount *uint256.Int,
	cooldown, commission uint32,
	autoCompound bool,
) error {
	return l.atomic("commit-compute", func() error {
		id, c, err := l.commitmentOf(committer)
		if err != nil {
			return err
		}
		if c.Manager == 0 {
			return reverts.NotFoundf("commitment of %s backs no manager", committer)
		}
		if c.IsOpen() {
			return reverts.Precondition("commitment of %s is already staked", committer)
		}
		if len(decls) == 0 {
			return reverts.Precondition("no declaration")
		}
		if err := l.validateStake(amount, cooldown, commission); err != nil {
			return err
		}
		logger.Debug("committing compute", "committer", committer, "amount", amount, "cooldown", cooldown)

		if err := l.settle(id, c); err != nil {
			return err
		}
		stake := stakes.New(amount, l.height, cooldown, autoCompound)
		if err := l.commitments.Open(c, stake, commission, l.cycle.Epoch, l.params.MaxCooldown); err != nil {
			logger.Info("commit compute failed", "committer", committer, "error", err)
			return err
		}
		// nothing sealed before the stake existed is scored
		c.LastScoringEpoch = l.cycle.Epoch
		if err := l.declare(id, c, decls); err != nil {
			return err
		}
		if err := l.relockStaked(committer, c); err != nil {
			return err
		}
		if err := l.commitments.Update(id, c); err != nil {
			return err
		}
		logger.Info("committed compute", "committer", committer, "commitment", id, "generation", c.Generation)
		l.emit(&Event{Kind: EventCommitted, Account: committer, Commitment: id, Amount: amount})
		return nil
	})
}

// StakeMore adds to an active stake and may raise its cooldown, lower its commission and
// raise its declarations.
func (l *Ledger) StakeMore(
	committer capstake.Address,
	extra *uint256.Int,
	cooldown, commission uint32,
	autoCompound bool,
	decls []commitment.Declaration,
) error {
	return l.atomic("stake-more", func() error {
		id, c, err := l.activeCommitmentOf(committer)
		if err != nil {
			return err
		}
		if cooldown < c.Stake.CooldownPeriod || cooldown > l.params.MaxCooldown {
			return reverts.Precondition("cooldown %d out of range [%d, %d]", cooldown, c.Stake.CooldownPeriod, l.params.MaxCooldown)
		}
		if commission > c.Commission {
			return reverts.Precondition("commission may not increase above %d", c.Commission)
		}
		if err := l.settle(id, c); err != nil {
			return err
		}
		if extra != nil && !extra.IsZero() {
			if err := c.Stake.AddAmount(extra); err != nil {
				return err
			}
		}
		c.Stake.CooldownPeriod = cooldown
		c.Stake.AutoCompound = autoCompound
		c.Commission = commission
		if err := l.commitments.UpdateWeights(c, l.cycle.Epoch, l.params.MaxCooldown); err != nil {
			return err
		}
		if err := l.declare(id, c, decls); err != nil {
			return err
		}
		if err := l.relockStaked(committer, c); err != nil {
			return err
		}
		if err := l.validateDelegationRatio(c); err != nil {
			return err
		}
		if err := l.commitments.Update(id, c); err != nil {
			return err
		}
		l.emit(&Event{Kind: EventStakeIncreased, Account: committer, Commitment: id, Amount: extra})
		return nil
	})
}

// CooldownComputeCommitment starts the exit delay of the committer's stake.
func (l *Ledger) CooldownComputeCommitment(committer capstake.Address) error {
	return l.atomic("cooldown-commitment", func() error {
		id, c, err := l.openCommitmentOf(committer)
		if err != nil {
			return err
		}
		if err := l.settle(id, c); err != nil {
			return err
		}
		if err := c.Stake.StartCooldown(l.height, l.params.CooldownRewardRatio); err != nil {
			return err
		}
		if err := l.commitments.UpdateWeights(c, l.cycle.Epoch, l.params.MaxCooldown); err != nil {
			return err
		}
		if err := l.commitments.Update(id, c); err != nil {
			return err
		}
		logger.Debug("commitment cooling down", "committer", committer, "until", l.height+c.Stake.CooldownPeriod)
		l.emit(&Event{Kind: EventCooldownStarted, Account: committer, Commitment: id})
		return nil
	})
}

// EndComputeCommitment closes a stake whose cooldown elapsed.
func (l *Ledger) EndComputeCommitment(committer capstake.Address) error {
	return l.atomic("end-commitment", func() error {
		id, c, err := l.openCommitmentOf(committer)
		if err != nil {
			return err
		}
		if !c.Stake.CooldownElapsed(l.height) {
			return reverts.Precondition("cooldown of %s has not elapsed", committer)
		}
		return l.closeCommitment(committer, id, c)
	})
}

// ForceEndCommitment closes a stake regardless of its cooldown. Operator only.
func (l *Ledger) ForceEndCommitment(caller, committer capstake.Address) error {
	return l.atomic("force-end-commitment", func() error {
		if err := l.requireOperator(caller); err != nil {
			return err
		}
		id, c, err := l.openCommitmentOf(committer)
		if err != nil {
			return err
		}
		logger.Info("force ending commitment", "committer", committer, "commitment", id)
		return l.closeCommitment(committer, id, c)
	})
}

// closeCommitment pays the accrued reward, sinks the accrued slash, unlocks the stake and
// releases the manager. An epoch scored but not yet distributed is forfeited.
func (l *Ledger) closeCommitment(committer capstake.Address, id uint64, c *commitment.Commitment) error {
	if err := l.settle(id, c); err != nil {
		return err
	}
	amount := new(uint256.Int).Set(&c.Stake.Amount)
	slash := new(uint256.Int).Set(&c.Stake.AccruedSlash)
	reward, err := c.Stake.TakeReward()
	if err != nil {
		return err
	}

	ids, err := l.pools.IDs()
	if err != nil {
		return err
	}
	l.commitments.ClearDeclared(id, ids)
	l.identities.Unbind(c.Manager)
	c.Manager = 0
	if err := l.commitments.Close(c, l.cycle.Epoch); err != nil {
		return err
	}
	if err := l.relockStaked(committer, c); err != nil {
		return err
	}
	if err := l.pay(committer, reward, id); err != nil {
		return err
	}
	if err := l.sinkSlash(committer, slash, id); err != nil {
		return err
	}
	if err := l.commitments.Update(id, c); err != nil {
		return err
	}
	logger.Info("commitment ended", "committer", committer, "commitment", id, "reward", reward, "slash", slash)
	l.emit(&Event{Kind: EventCommitmentEnded, Account: committer, Commitment: id, Amount: amount})
	return nil
}

// WithdrawCommitment pays the committer's accrued reward.
func (l *Ledger) WithdrawCommitment(committer capstake.Address) error {
	return l.atomic("withdraw-commitment", func() error {
		id, c, err := l.openCommitmentOf(committer)
		if err != nil {
			return err
		}
		if err := l.settle(id, c); err != nil {
			return err
		}
		reward, err := c.Stake.TakeReward()
		if err != nil {
			return err
		}
		if err := l.commitments.Update(id, c); err != nil {
			return err
		}
		return l.pay(committer, reward, id)
	})
}

// CompoundStake adds the committer's accrued reward to its stake. Anyone may compound a
// stake that opted in, otherwise only the committer.
func (l *Ledger) CompoundStake(caller, committer capstake.Address) error {
	return l.atomic("compound-stake", func() error {
		id, c, err := l.activeCommitmentOf(committer)
		if err != nil {
			return err
		}
		if caller != committer && !c.Stake.AutoCompound {
			return reverts.Precondition("stake of %s does not auto compound", committer)
		}
		if err := l.settle(id, c); err != nil {
			return err
		}
		reward, err := c.Stake.TakeReward()
		if err != nil {
			return err
		}
		if reward.IsZero() {
			return l.commitments.Update(id, c)
		}
		if err := l.pay(committer, reward, id); err != nil {
			return err
		}
		if err := c.Stake.AddAmount(reward); err != nil {
			return err
		}
		if err := l.commitments.UpdateWeights(c, l.cycle.Epoch, l.params.MaxCooldown); err != nil {
			return err
		}
		if err := l.relockStaked(committer, c); err != nil {
			return err
		}
		if err := l.commitments.Update(id, c); err != nil {
			return err
		}
		l.emit(&Event{Kind: EventCompounded, Account: committer, Commitment: id, Amount: reward})
		return nil
	})
}
