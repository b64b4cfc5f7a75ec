// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package commitment

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/fixedpoint"
	"github.com/computemarket/capstake/ledger/reverts"
	"github.com/computemarket/capstake/ledger/stakes"
	"github.com/computemarket/capstake/slot"
)

var (
	slotCommitments = slot.Position("commitments")
	slotDeclared    = slot.Position("commitment-declared")
	slotCheckpoints = slot.Position("commitment-checkpoints")
)

type Service struct {
	commitments *slot.Mapping[capstake.Uint64Key, *Commitment]
	declared    *slot.Mapping[slot.BytesKey, *uint256.Int]
	checkpoints *slot.Mapping[slot.BytesKey, *uint256.Int]
}

func New(sctx *slot.Context) *Service {
	return &Service{
		commitments: slot.NewMapping[capstake.Uint64Key, *Commitment](sctx, slotCommitments),
		declared:    slot.NewMapping[slot.BytesKey, *uint256.Int](sctx, slotDeclared),
		checkpoints: slot.NewMapping[slot.BytesKey, *uint256.Int](sctx, slotCheckpoints),
	}
}

func declaredKey(id uint64, pool uint32) slot.BytesKey {
	return slot.Compose(capstake.Uint64Key(id), capstake.Uint32Key(pool))
}

// Get returns the commitment, NotFound if it was never created.
func (s *Service) Get(id uint64) (*Commitment, error) {
	exists, err := s.commitments.Exists(capstake.Uint64Key(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get commitment")
	}
	if !exists {
		return nil, reverts.NotFoundf("commitment %d not found", id)
	}
	c, err := s.commitments.Get(capstake.Uint64Key(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get commitment")
	}
	return c, nil
}

func (s *Service) Update(id uint64, c *Commitment) error {
	if err := s.commitments.Upsert(capstake.Uint64Key(id), c); err != nil {
		return errors.Wrap(err, "failed to set commitment")
	}
	return nil
}

// Declared returns the committed metric for a pool, zero if none.
func (s *Service) Declared(id uint64, pool uint32) (*uint256.Int, error) {
	v, err := s.declared.Get(declaredKey(id, pool))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get declared metric")
	}
	return v, nil
}

// Declare raises the committed metric of a pool. A lower value than the current one is rejected.
func (s *Service) Declare(id uint64, pool uint32, metric *uint256.Int) error {
	current, err := s.Declared(id, pool)
	if err != nil {
		return err
	}
	if metric.Lt(current) {
		return reverts.Precondition("declared metric for pool %d may not decrease", pool)
	}
	if err := s.declared.Upsert(declaredKey(id, pool), metric); err != nil {
		return errors.Wrap(err, "failed to set declared metric")
	}
	return nil
}

func checkpointKey(id uint64, epoch capstake.Epoch) slot.BytesKey {
	return slot.Compose(capstake.Uint64Key(id), capstake.Uint32Key(epoch))
}

// SetCheckpoint records the reward per weight reached by distributing epoch.
func (s *Service) SetCheckpoint(id uint64, epoch capstake.Epoch, perWeight *uint256.Int) error {
	if err := s.checkpoints.Upsert(checkpointKey(id, epoch), perWeight); err != nil {
		return errors.Wrap(err, "failed to set checkpoint")
	}
	return nil
}

// Checkpoint returns the reward per weight recorded for epoch. ok is false when no
// delegation changed while the epoch awaited distribution, or it was never distributed.
func (s *Service) Checkpoint(id uint64, epoch capstake.Epoch) (perWeight *uint256.Int, ok bool, err error) {
	if ok, err = s.checkpoints.Exists(checkpointKey(id, epoch)); err != nil || !ok {
		return nil, false, errors.Wrap(err, "failed to get checkpoint")
	}
	if perWeight, err = s.checkpoints.Get(checkpointKey(id, epoch)); err != nil {
		return nil, false, errors.Wrap(err, "failed to get checkpoint")
	}
	return perWeight, true, nil
}

// ClearDeclared drops the declared metric of the given pools.
func (s *Service) ClearDeclared(id uint64, pools []uint32) {
	for _, pool := range pools {
		s.declared.Delete(declaredKey(id, pool))
	}
}

// UpdateWeights recomputes the committer's own weights from its stake at epoch.
func (s *Service) UpdateWeights(c *Commitment, epoch capstake.Epoch, maxCooldown uint32) error {
	reward, slash := new(uint256.Int), new(uint256.Int)
	if c.Stake != nil {
		var err error
		if reward, slash, err = c.Stake.Weights(maxCooldown); err != nil {
			return err
		}
	}
	return c.Weights.Mutate(epoch, true, func(w *stakes.Weights) error {
		w.SelfReward.Set(reward)
		w.SelfSlash.Set(slash)
		return nil
	})
}

// AdjustDelegations adds (or removes, when sub is set) a delegation's amounts and weights.
func (s *Service) AdjustDelegations(
	c *Commitment,
	epoch capstake.Epoch,
	amount, rewardable, rewardWeight, slashWeight *uint256.Int,
	sub bool,
) error {
	op := fixedpoint.Add
	if sub {
		op = fixedpoint.Sub
	}
	total, err := op(&c.DelegationsTotalAmount, amount)
	if err != nil {
		return err
	}
	totalRewardable, err := op(&c.DelegationsTotalRewardable, rewardable)
	if err != nil {
		return err
	}
	err = c.Weights.Mutate(epoch, true, func(w *stakes.Weights) error {
		r, err := op(&w.DelegationsReward, rewardWeight)
		if err != nil {
			return err
		}
		sl, err := op(&w.DelegationsSlash, slashWeight)
		if err != nil {
			return err
		}
		w.DelegationsReward.Set(r)
		w.DelegationsSlash.Set(sl)
		return nil
	})
	if err != nil {
		return err
	}
	c.DelegationsTotalAmount.Set(total)
	c.DelegationsTotalRewardable.Set(totalRewardable)
	return nil
}

// Open starts a new generation with the given stake. The accumulator of the
// previous generation is remembered so its delegations can still settle.
func (s *Service) Open(c *Commitment, stake *stakes.Stake, commission uint32, epoch capstake.Epoch, maxCooldown uint32) error {
	if c.IsOpen() {
		return reverts.Precondition("commitment already open")
	}
	if c.Generation > 0 {
		if c.StaleDelegations > 0 {
			return reverts.Precondition("%d delegations of an earlier stake still open", c.StaleDelegations)
		}
		c.StaleDelegations = c.Delegations
	}
	c.Generation++
	c.PoolRewards.Roll(c.Generation)
	c.Delegations = 0
	c.DelegationsTotalAmount.Clear()
	c.DelegationsTotalRewardable.Clear()
	c.DelegationsSlashed.Clear()
	c.HasScored = false
	c.PendingShares = 0

	c.Stake = stake
	c.Commission = commission
	err := c.Weights.Mutate(epoch, true, func(w *stakes.Weights) error {
		*w = stakes.Weights{}
		return nil
	})
	if err != nil {
		return err
	}
	return s.UpdateWeights(c, epoch, maxCooldown)
}

// Close drops the stake and zeroes all weights and delegation totals. The accumulator
// is kept so the delegations of the closed generation can still settle.
func (s *Service) Close(c *Commitment, epoch capstake.Epoch) error {
	c.Stake = nil
	c.HasScored = false
	c.PendingShares = 0
	c.DelegationsTotalAmount.Clear()
	c.DelegationsTotalRewardable.Clear()
	return c.Weights.Mutate(epoch, true, func(w *stakes.Weights) error {
		*w = stakes.Weights{}
		return nil
	})
}
