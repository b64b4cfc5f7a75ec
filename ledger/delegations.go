// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/balance"
	"github.com/computemarket/capstake/ledger/commitment"
	"github.com/computemarket/capstake/ledger/delegation"
	"github.com/computemarket/capstake/ledger/fixedpoint"
	"github.com/computemarket/capstake/ledger/reverts"
	"github.com/computemarket/capstake/ledger/stakes"
)

// attach adds the delegation's amounts, weights and settled slash to the commitment totals.
func (l *Ledger) attach(c *commitment.Commitment, d *delegation.Delegation) error {
	err := l.commitments.AdjustDelegations(c, l.cycle.Epoch, &d.Stake.Amount, &d.Stake.Rewardable, &d.RewardWeight, &d.SlashWeight, false)
	if err != nil {
		return err
	}
	slashed, err := fixedpoint.Add(&c.DelegationsSlashed, &d.Stake.AccruedSlash)
	if err != nil {
		return err
	}
	c.DelegationsSlashed.Set(slashed)
	return nil
}

// detach is the inverse of attach. The delegation must be synced.
func (l *Ledger) detach(c *commitment.Commitment, d *delegation.Delegation) error {
	err := l.commitments.AdjustDelegations(c, l.cycle.Epoch, &d.Stake.Amount, &d.Stake.Rewardable, &d.RewardWeight, &d.SlashWeight, true)
	if err != nil {
		return err
	}
	c.DelegationsSlashed.Set(fixedpoint.SubFloor(&c.DelegationsSlashed, &d.Stake.AccruedSlash))
	return nil
}

// checkpoint returns the reward per weight the distribution of a held epoch reached.
// ok is false while the epoch still awaits distribution. An epoch dropped on close, or
// distributed while nothing was held, resolves at the held base.
func (l *Ledger) checkpoint(id uint64, c *commitment.Commitment, generation uint32, p *delegation.Pending) (*uint256.Int, bool, error) {
	if c.HasScored && c.ScoredEpoch == p.Epoch && c.Generation == generation {
		return nil, false, nil
	}
	cp, ok, err := l.commitments.Checkpoint(id, p.Epoch)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return &p.Base, true, nil
	}
	return cp, true, nil
}

// syncDelegation brings the delegation's reward and slash up to date, crediting the
// share of a held epoch once it was distributed.
func (l *Ledger) syncDelegation(id uint64, c *commitment.Commitment, d *delegation.Delegation) error {
	if d.Pending != nil {
		cp, ok, err := l.checkpoint(id, c, d.Generation, d.Pending)
		if err != nil {
			return err
		}
		if ok {
			if err := d.Resolve(cp); err != nil {
				return err
			}
		}
	}
	acc := c.PoolRewards.Get(d.Generation)
	return d.Sync(&acc)
}

// hold keeps the weight a synced delegation of the running generation had in the scored
// epoch awaiting distribution, before that weight changes.
func (l *Ledger) hold(c *commitment.Commitment, d *delegation.Delegation, weight *uint256.Int) {
	if !c.HasScored || d.Pending != nil {
		return
	}
	acc := c.PoolRewards.Get(d.Generation)
	d.Hold(c.ScoredEpoch, weight, &acc)
	c.PendingShares++
}

// leave turns the held weight of a delegation leaving the running generation into a
// claim, so its share of the scored epoch is paid once distributed. An earlier claim
// is collected first. The delegation must be synced.
func (l *Ledger) leave(delegator capstake.Address, id uint64, c *commitment.Commitment, d *delegation.Delegation) error {
	if err := l.collectClaim(delegator, id, c); err != nil {
		return err
	}
	l.hold(c, d, &d.RewardWeight)
	if d.Pending == nil {
		return nil
	}
	claim, err := l.delegations.GetClaim(delegator, id)
	if err != nil {
		return err
	}
	if claim == nil {
		claim = &delegation.Claim{Generation: d.Generation, Pending: *d.Pending}
	} else {
		// same epoch, same base: nothing was distributed in between
		w, err := fixedpoint.Add(&claim.Pending.Weight, &d.Pending.Weight)
		if err != nil {
			return err
		}
		claim.Pending.Weight.Set(w)
	}
	d.Pending = nil
	if claim.Pending.Weight.IsZero() {
		return nil
	}
	return l.delegations.SetClaim(delegator, id, claim)
}

// collectClaim pays the delegator's claim on the commitment once its epoch was distributed.
func (l *Ledger) collectClaim(delegator capstake.Address, id uint64, c *commitment.Commitment) error {
	claim, err := l.delegations.GetClaim(delegator, id)
	if err != nil || claim == nil {
		return err
	}
	cp, ok, err := l.checkpoint(id, c, claim.Generation, &claim.Pending)
	if err != nil || !ok {
		return err
	}
	share, err := claim.Pending.Share(cp)
	if err != nil {
		return err
	}
	l.delegations.RemoveClaim(delegator, id)
	logger.Debug("claim collected", "delegator", delegator, "commitment", id, "epoch", claim.Pending.Epoch, "share", share)
	return l.pay(delegator, share, id)
}

// reshape applies f to an attached delegation of the running generation, keeping the
// commitment totals and the delegation's debts consistent.
func (l *Ledger) reshape(id uint64, c *commitment.Commitment, d *delegation.Delegation, f func() error) error {
	if err := l.syncDelegation(id, c, d); err != nil {
		return err
	}
	l.hold(c, d, &d.RewardWeight)
	acc := c.PoolRewards.Get(d.Generation)
	if err := l.detach(c, d); err != nil {
		return err
	}
	if err := f(); err != nil {
		return err
	}
	if err := d.Reweigh(l.params.MaxCooldown); err != nil {
		return err
	}
	if err := d.Snapshot(&acc); err != nil {
		return err
	}
	return l.attach(c, d)
}

func (l *Ledger) relockDelegated(account capstake.Address, delta *uint256.Int, sub bool) error {
	return l.balances.Relock(account, func(a *balance.Account) error {
		op := fixedpoint.Add
		if sub {
			op = fixedpoint.Sub
		}
		v, err := op(&a.Delegated, delta)
		if err != nil {
			return err
		}
		a.Delegated.Set(v)
		return nil
	})
}

// Delegate stakes amount towards an active commitment.
func (l *Ledger) Delegate(delegator, committer capstake.Address, amount *uint256.Int, cooldown uint32, autoCompound bool) error {
	return l.atomic("delegate", func() error {
		if delegator == committer {
			return reverts.Precondition("committer may not delegate to itself")
		}
		id, c, err := l.activeCommitmentOf(committer)
		if err != nil {
			return err
		}
		if err := l.validateDelegation(c, amount, cooldown); err != nil {
			return err
		}
		exists, err := l.delegations.Exists(delegator, id)
		if err != nil {
			return err
		}
		if exists {
			return reverts.Precondition("%s already delegates to %s", delegator, committer)
		}
		logger.Debug("delegating", "delegator", delegator, "committer", committer, "amount", amount)

		if err := l.settle(id, c); err != nil {
			return err
		}
		d := &delegation.Delegation{
			Stake:      *stakes.New(amount, l.height, cooldown, autoCompound),
			Generation: c.Generation,
		}
		// no weight in an epoch scored before joining
		l.hold(c, d, new(uint256.Int))
		if err := d.Reweigh(l.params.MaxCooldown); err != nil {
			return err
		}
		acc := c.PoolRewards.GetLatest()
		if err := d.Snapshot(&acc); err != nil {
			return err
		}
		if err := l.attach(c, d); err != nil {
			return err
		}
		c.Delegations++
		if err := l.validateDelegationRatio(c); err != nil {
			logger.Info("delegate failed", "delegator", delegator, "committer", committer, "error", err)
			return err
		}
		if err := l.relockDelegated(delegator, amount, false); err != nil {
			return err
		}
		if err := l.delegations.Add(delegator, id, d); err != nil {
			return err
		}
		if err := l.commitments.Update(id, c); err != nil {
			return err
		}
		l.emit(&Event{Kind: EventDelegated, Account: delegator, Peer: committer, Commitment: id, Amount: amount})
		return nil
	})
}

// delegationOf returns an active delegation and its commitment.
func (l *Ledger) delegationOf(delegator, committer capstake.Address) (uint64, *commitment.Commitment, *delegation.Delegation, error) {
	id, c, err := l.commitmentOf(committer)
	if err != nil {
		return 0, nil, nil, err
	}
	d, err := l.delegations.GetDelegation(delegator, id)
	if err != nil {
		return 0, nil, nil, err
	}
	return id, c, d, nil
}

// DelegateMore adds to a delegation of a commitment that is not cooling down.
func (l *Ledger) DelegateMore(delegator, committer capstake.Address, extra *uint256.Int) error {
	return l.atomic("delegate-more", func() error {
		id, c, d, err := l.delegationOf(delegator, committer)
		if err != nil {
			return err
		}
		if !isCurrent(c, d) || c.IsCoolingDown() {
			return reverts.Precondition("commitment of %s accepts no delegation", committer)
		}
		if extra == nil || extra.IsZero() {
			return reverts.Precondition("nothing to add")
		}
		if err := l.settle(id, c); err != nil {
			return err
		}
		if err := l.reshape(id, c, d, func() error { return d.Stake.AddAmount(extra) }); err != nil {
			return err
		}
		if err := l.validateDelegationRatio(c); err != nil {
			return err
		}
		if err := l.relockDelegated(delegator, extra, false); err != nil {
			return err
		}
		if err := l.delegations.Update(delegator, id, d); err != nil {
			return err
		}
		if err := l.commitments.Update(id, c); err != nil {
			return err
		}
		l.emit(&Event{Kind: EventDelegationIncreased, Account: delegator, Peer: committer, Commitment: id, Amount: extra})
		return nil
	})
}

// CooldownDelegation starts the exit delay of a delegation.
func (l *Ledger) CooldownDelegation(delegator, committer capstake.Address) error {
	return l.atomic("cooldown-delegation", func() error {
		id, c, d, err := l.delegationOf(delegator, committer)
		if err != nil {
			return err
		}
		if !isCurrent(c, d) {
			return reverts.Precondition("commitment of %s ended, the delegation may end right away", committer)
		}
		if err := l.settle(id, c); err != nil {
			return err
		}
		err = l.reshape(id, c, d, func() error {
			return d.Stake.StartCooldown(l.height, l.params.CooldownRewardRatio)
		})
		if err != nil {
			return err
		}
		if err := l.delegations.Update(delegator, id, d); err != nil {
			return err
		}
		if err := l.commitments.Update(id, c); err != nil {
			return err
		}
		l.emit(&Event{Kind: EventDelegationCooldown, Account: delegator, Peer: committer, Commitment: id})
		return nil
	})
}

// EndDelegation closes a delegation whose cooldown elapsed, or any delegation of an
// ended commitment generation.
func (l *Ledger) EndDelegation(delegator, committer capstake.Address) error {
	return l.atomic("end-delegation", func() error {
		id, c, d, err := l.delegationOf(delegator, committer)
		if err != nil {
			return err
		}
		if isCurrent(c, d) && !d.Stake.CooldownElapsed(l.height) {
			return reverts.Precondition("cooldown of the delegation to %s has not elapsed", committer)
		}
		return l.removeDelegation(delegator, committer, id, c, d)
	})
}

// KickOut lets a committer end a delegation immediately.
func (l *Ledger) KickOut(committer, delegator capstake.Address) error {
	return l.atomic("kick-out", func() error {
		id, c, d, err := l.delegationOf(delegator, committer)
		if err != nil {
			return err
		}
		logger.Debug("kicking out delegation", "committer", committer, "delegator", delegator)
		return l.removeDelegation(delegator, committer, id, c, d)
	})
}

// removeDelegation settles, pays, sinks the slash and unlocks a delegation.
func (l *Ledger) removeDelegation(
	delegator, committer capstake.Address,
	id uint64,
	c *commitment.Commitment,
	d *delegation.Delegation,
) error {
	if err := l.settle(id, c); err != nil {
		return err
	}
	if err := l.syncDelegation(id, c, d); err != nil {
		return err
	}
	switch {
	case isCurrent(c, d):
		if err := l.leave(delegator, id, c, d); err != nil {
			return err
		}
		if err := l.detach(c, d); err != nil {
			return err
		}
		c.Delegations--
		if c.Delegations == 0 {
			// truncation leftovers of the slash pushes
			c.DelegationsSlashed.Clear()
		}
	case d.Generation == c.Generation:
		c.Delegations--
	default:
		c.StaleDelegations--
	}

	reward, err := d.Stake.TakeReward()
	if err != nil {
		return err
	}
	if err := l.relockDelegated(delegator, &d.Stake.Amount, true); err != nil {
		return err
	}
	if err := l.pay(delegator, reward, id); err != nil {
		return err
	}
	if err := l.sinkSlash(delegator, &d.Stake.AccruedSlash, id); err != nil {
		return err
	}
	l.delegations.Remove(delegator, id)
	if err := l.commitments.Update(id, c); err != nil {
		return err
	}
	l.emit(&Event{Kind: EventDelegationEnded, Account: delegator, Peer: committer, Commitment: id, Amount: &d.Stake.Amount})
	return nil
}

// Redelegate moves a delegation to another commitment at least as strong: no smaller
// stake, no shorter cooldown and no lower declaration in any pool the old one declared.
// Unless the old commitment is cooling down, the delegation may not move again before
// the target cooldown passed.
func (l *Ledger) Redelegate(delegator, from, to capstake.Address) error {
	return l.atomic("redelegate", func() error {
		if delegator == to {
			return reverts.Precondition("committer may not delegate to itself")
		}
		oldID, oldC, d, err := l.delegationOf(delegator, from)
		if err != nil {
			return err
		}
		if !isCurrent(oldC, d) {
			return reverts.Precondition("commitment of %s ended", from)
		}
		if d.Stake.InCooldown {
			return reverts.Precondition("delegation is cooling down")
		}
		if l.height < d.RedelegateAfter {
			return reverts.Precondition("delegation may not move before %d", d.RedelegateAfter)
		}
		newID, newC, err := l.activeCommitmentOf(to)
		if err != nil {
			return err
		}
		if newID == oldID {
			return reverts.Precondition("already delegating to %s", to)
		}
		exists, err := l.delegations.Exists(delegator, newID)
		if err != nil {
			return err
		}
		if exists {
			return reverts.Precondition("%s already delegates to %s", delegator, to)
		}
		if err := l.validateSuccessor(oldID, oldC, newID, newC); err != nil {
			return err
		}

		if err := l.settle(oldID, oldC); err != nil {
			return err
		}
		if err := l.settle(newID, newC); err != nil {
			return err
		}
		if err := l.syncDelegation(oldID, oldC, d); err != nil {
			return err
		}
		if err := l.leave(delegator, oldID, oldC, d); err != nil {
			return err
		}
		if err := l.detach(oldC, d); err != nil {
			return err
		}
		oldC.Delegations--

		d.Generation = newC.Generation
		l.hold(newC, d, new(uint256.Int))
		newAcc := newC.PoolRewards.GetLatest()
		if err := d.Snapshot(&newAcc); err != nil {
			return err
		}
		if err := l.attach(newC, d); err != nil {
			return err
		}
		newC.Delegations++
		if err := l.validateDelegationRatio(newC); err != nil {
			return err
		}

		d.RedelegateAfter = 0
		if !oldC.IsCoolingDown() {
			d.RedelegateAfter = l.height + l.params.TargetCooldown
		}
		l.delegations.Remove(delegator, oldID)
		if err := l.delegations.Add(delegator, newID, d); err != nil {
			return err
		}
		if err := l.commitments.Update(oldID, oldC); err != nil {
			return err
		}
		if err := l.commitments.Update(newID, newC); err != nil {
			return err
		}
		logger.Debug("redelegated", "delegator", delegator, "from", from, "to", to)
		l.emit(&Event{Kind: EventRedelegated, Account: delegator, Peer: to, Commitment: newID, Amount: &d.Stake.Amount})
		return nil
	})
}

func (l *Ledger) validateSuccessor(oldID uint64, oldC *commitment.Commitment, newID uint64, newC *commitment.Commitment) error {
	if newC.Stake.Amount.Lt(&oldC.Stake.Amount) {
		return reverts.Precondition("target stake %s below current %s", &newC.Stake.Amount, &oldC.Stake.Amount)
	}
	if newC.Stake.CooldownPeriod < oldC.Stake.CooldownPeriod {
		return reverts.Precondition("target cooldown %d below current %d", newC.Stake.CooldownPeriod, oldC.Stake.CooldownPeriod)
	}
	ids, err := l.pools.IDs()
	if err != nil {
		return err
	}
	for _, poolID := range ids {
		before, err := l.commitments.Declared(oldID, poolID)
		if err != nil {
			return err
		}
		if before.IsZero() {
			continue
		}
		after, err := l.commitments.Declared(newID, poolID)
		if err != nil {
			return err
		}
		if after.Lt(before) {
			return reverts.Precondition("target declares %s in pool %d, below %s", after, poolID, before)
		}
	}
	return nil
}

// WithdrawDelegation pays the delegation's accrued reward, and the share of a delegation
// that ended while a scored epoch awaited distribution once that epoch was distributed.
func (l *Ledger) WithdrawDelegation(delegator, committer capstake.Address) error {
	return l.atomic("withdraw-delegation", func() error {
		id, c, err := l.commitmentOf(committer)
		if err != nil {
			return err
		}
		claim, err := l.delegations.GetClaim(delegator, id)
		if err != nil {
			return err
		}
		d, err := l.delegations.GetDelegation(delegator, id)
		if err != nil && (claim == nil || !reverts.Is(err, reverts.NotFound)) {
			return err
		}
		if err := l.settle(id, c); err != nil {
			return err
		}
		if err := l.collectClaim(delegator, id, c); err != nil {
			return err
		}
		if d != nil {
			if err := l.syncDelegation(id, c, d); err != nil {
				return err
			}
			reward, err := d.Stake.TakeReward()
			if err != nil {
				return err
			}
			if err := l.delegations.Update(delegator, id, d); err != nil {
				return err
			}
			if err := l.pay(delegator, reward, id); err != nil {
				return err
			}
		}
		return l.commitments.Update(id, c)
	})
}

// CompoundDelegation adds the delegation's accrued reward to its stake. Anyone may
// compound a delegation that opted in, otherwise only the delegator.
func (l *Ledger) CompoundDelegation(caller, delegator, committer capstake.Address) error {
	return l.atomic("compound-delegation", func() error {
		id, c, d, err := l.delegationOf(delegator, committer)
		if err != nil {
			return err
		}
		if caller != delegator && !d.Stake.AutoCompound {
			return reverts.Precondition("delegation of %s does not auto compound", delegator)
		}
		if !isCurrent(c, d) || c.IsCoolingDown() || d.Stake.InCooldown {
			return reverts.Precondition("delegation to %s can not grow", committer)
		}
		if err := l.settle(id, c); err != nil {
			return err
		}
		var reward *uint256.Int
		err = l.reshape(id, c, d, func() error {
			var err error
			if reward, err = d.Stake.TakeReward(); err != nil {
				return err
			}
			if reward.IsZero() {
				return nil
			}
			return d.Stake.AddAmount(reward)
		})
		if err != nil {
			return err
		}
		if !reward.IsZero() {
			if err := l.pay(delegator, reward, id); err != nil {
				return err
			}
			if err := l.relockDelegated(delegator, reward, false); err != nil {
				return err
			}
			if err := l.validateDelegationRatio(c); err != nil {
				return err
			}
			l.emit(&Event{Kind: EventCompounded, Account: delegator, Peer: committer, Commitment: id, Amount: reward})
		}
		if err := l.delegations.Update(delegator, id, d); err != nil {
			return err
		}
		return l.commitments.Update(id, c)
	})
}
