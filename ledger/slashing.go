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

// Slash penalizes the committer's commitment for the metric shortfall of the epoch sealed
// last. Anyone may call it, once per epoch.
func (l *Ledger) Slash(caller, committer capstake.Address) error {
	return l.atomic("slash", func() error {
		id, c, err := l.openCommitmentOf(committer)
		if err != nil {
			return err
		}
		sealed, ok := l.cycle.Sealed()
		if !ok {
			return reverts.Precondition("no epoch sealed yet")
		}
		if c.LastSlashingEpoch == l.cycle.Epoch {
			return reverts.Newf(reverts.AlreadySlashed, "epoch %d already slashed", sealed)
		}
		if err := l.settle(id, c); err != nil {
			return err
		}

		amount, err := l.shortfallSlash(id, c, sealed)
		if err != nil {
			return err
		}
		c.LastSlashingEpoch = l.cycle.Epoch
		if !amount.IsZero() {
			if err := l.applySlash(c, amount); err != nil {
				return err
			}
			logger.Info("slashed", "committer", committer, "commitment", id, "epoch", sealed, "amount", amount, "by", caller)
			l.emit(&Event{Kind: EventSlashed, Account: committer, Peer: caller, Commitment: id, Amount: amount})
		}
		return l.commitments.Update(id, c)
	})
}

// shortfallSlash sums the slash of every declared pool. When the manager's sums were not
// rolled up to the sealed epoch, no processor reported since, and every epoch not covered
// by an earlier slash counts as a full miss.
func (l *Ledger) shortfallSlash(id uint64, c *commitment.Commitment, sealed capstake.Epoch) (*uint256.Int, error) {
	createdEpoch := c.Stake.Created / l.params.EpochLength
	total := new(uint256.Int)
	if createdEpoch > sealed {
		return total, nil
	}
	ids, err := l.pools.IDs()
	if err != nil {
		return nil, err
	}
	shares, err := l.pools.RatioShare(sealed)
	if err != nil {
		return nil, err
	}
	totalStake, err := c.TotalStake()
	if err != nil {
		return nil, err
	}

	for _, poolID := range ids {
		committed, err := l.commitments.Declared(id, poolID)
		if err != nil {
			return nil, err
		}
		if committed.IsZero() {
			continue
		}
		sums, err := l.metrics.Sums(c.Manager, poolID)
		if err != nil {
			return nil, err
		}
		measured := new(uint256.Int)
		missed := uint32(1)
		if sums.Key >= sealed {
			sum := sums.Get(sealed)
			measured.Set(&sum.Sum)
		} else {
			from := sums.Key
			if c.LastSlashingEpoch > 0 && c.LastSlashingEpoch-1 > from {
				from = c.LastSlashingEpoch - 1
			}
			if createdEpoch > 0 && createdEpoch-1 > from {
				from = createdEpoch - 1
			}
			if from < sealed {
				missed = sealed - from
			}
		}
		amount, err := reward.SlashAmount(totalStake, l.params.BaseSlashFraction, shares.Ratios[poolID], shares.Sum, committed, measured, missed)
		if err != nil {
			return nil, err
		}
		if total, err = fixedpoint.Add(total, amount); err != nil {
			return nil, err
		}
	}
	return total, nil
}

// applySlash splits amount between the committer and the delegations by slash weight.
// Neither side is charged beyond what it has left, and the excess of one side moves to
// the other while it has room.
func (l *Ledger) applySlash(c *commitment.Commitment, amount *uint256.Int) error {
	selfRoom := c.Stake.Unslashed()
	delegationRoom := fixedpoint.SubFloor(&c.DelegationsTotalAmount, &c.DelegationsSlashed)
	room, err := fixedpoint.Add(selfRoom, delegationRoom)
	if err != nil {
		return err
	}
	amount = fixedpoint.Min(amount, room)

	weights := c.Weights.Latest(l.cycle.Epoch)
	totalWeight, err := weights.TotalSlash()
	if err != nil {
		return err
	}
	self := new(uint256.Int).Set(amount)
	if !totalWeight.IsZero() {
		if self, err = fixedpoint.MulDiv(amount, &weights.SelfSlash, totalWeight); err != nil {
			return err
		}
	}
	if self.Gt(selfRoom) {
		self.Set(selfRoom)
	}
	delegations := fixedpoint.SubFloor(amount, self)
	if delegations.Gt(delegationRoom) {
		self = fixedpoint.Min(fixedpoint.SubFloor(amount, delegationRoom), selfRoom)
		delegations.Set(delegationRoom)
	}

	if !delegations.IsZero() {
		pushed := new(uint256.Int)
		err := c.PoolRewards.Mutate(func(acc *stakes.Accumulator) error {
			dust, err := stakes.Push(&acc.SlashPerWeight, delegations, &weights.DelegationsSlash)
			if err != nil {
				return err
			}
			pushed = fixedpoint.SubFloor(delegations, dust)
			self = fixedpoint.Min(new(uint256.Int).Add(self, dust), selfRoom)
			return nil
		})
		if err != nil {
			return err
		}
		slashed, err := fixedpoint.Add(&c.DelegationsSlashed, pushed)
		if err != nil {
			return err
		}
		c.DelegationsSlashed.Set(slashed)
	}
	return c.Stake.CreditSlash(self)
}
