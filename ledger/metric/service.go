// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metric

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/fixedpoint"
	"github.com/computemarket/capstake/ledger/reverts"
	"github.com/computemarket/capstake/ledger/rolling"
	"github.com/computemarket/capstake/slot"
)

var (
	slotCommits = slot.Position("metric-commits")
	slotSums    = slot.Position("metric-sums")
)

type Service struct {
	commits *slot.Mapping[slot.BytesKey, *Commit]
	sums    *slot.Mapping[slot.BytesKey, *rolling.Buffer[EpochSum]]
}

func New(sctx *slot.Context) *Service {
	return &Service{
		commits: slot.NewMapping[slot.BytesKey, *Commit](sctx, slotCommits),
		sums:    slot.NewMapping[slot.BytesKey, *rolling.Buffer[EpochSum]](sctx, slotSums),
	}
}

func commitKey(processor capstake.Address, pool uint32) slot.BytesKey {
	return slot.Compose(processor, capstake.Uint32Key(pool))
}

func sumKey(manager uint64, pool uint32) slot.BytesKey {
	return slot.Compose(capstake.Uint64Key(manager), capstake.Uint32Key(pool))
}

func (s *Service) Commit(processor capstake.Address, pool uint32) (*Commit, error) {
	c, err := s.commits.Get(commitKey(processor, pool))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get metric commit")
	}
	return c, nil
}

// Sealed returns the manager's sums for epoch, zero if the epoch rolled past.
func (s *Service) Sealed(manager uint64, pool uint32, epoch capstake.Epoch) (EpochSum, error) {
	buf, err := s.Sums(manager, pool)
	if err != nil {
		return EpochSum{}, err
	}
	return buf.Get(epoch), nil
}

// Sums returns the manager's rolling sum buffer of a pool.
func (s *Service) Sums(manager uint64, pool uint32) (*rolling.Buffer[EpochSum], error) {
	buf, err := s.sums.Get(sumKey(manager, pool))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get metric sums")
	}
	return buf, nil
}

// LastSealedSum returns the manager's raw sum of the epoch sealed before current,
// zero when no report landed in it.
func (s *Service) LastSealedSum(manager uint64, pool uint32, current capstake.Epoch) (*uint256.Int, error) {
	if current == 0 {
		return new(uint256.Int), nil
	}
	sum, err := s.Sealed(manager, pool, current-1)
	if err != nil {
		return nil, err
	}
	return &sum.Sum, nil
}

func (s *Service) fold(manager uint64, pool uint32, epoch capstake.Epoch, f func(*EpochSum) error) error {
	buf, err := s.Sums(manager, pool)
	if err != nil {
		return err
	}
	if err := buf.Mutate(epoch, false, f); err != nil {
		if errors.Is(err, rolling.ErrStaleKey) {
			return reverts.InternalErr("metric sums: %v", err)
		}
		return err
	}
	return s.sums.Upsert(sumKey(manager, pool), buf)
}

// Report settles the samples of one processor report in epoch.
//
// The first value of a pool in an epoch wins, later ones in the same epoch are ignored.
// Pools missing from the report reuse the processor's previous value while it is at most
// validity epochs old; a reused value only counts towards the bonus sums.
// Values of inactive processors are stored and folded into the manager's sums but never
// into the pool totals.
func (s *Service) Report(
	processor capstake.Address,
	manager uint64,
	epoch capstake.Epoch,
	active bool,
	samples []Sample,
	pools []uint32,
	validity uint32,
	totals Totals,
) ([]Settled, error) {
	var settled []Settled
	reported := make(map[uint32]bool, len(samples))

	for _, sample := range samples {
		if reported[sample.Pool] {
			continue
		}
		reported[sample.Pool] = true

		c, err := s.Commit(processor, sample.Pool)
		if err != nil {
			return nil, err
		}
		if c.Valid && c.Epoch == epoch {
			continue
		}

		value := new(uint256.Int).Set(sample.Value)
		var reusedBefore *uint256.Int
		if c.Valid && c.FoldedEpoch == epoch && c.Epoch < epoch {
			// the previous value was already reused this epoch, the fresh one replaces it
			reusedBefore = new(uint256.Int).Set(&c.Metric)
		}

		err = s.fold(manager, sample.Pool, epoch, func(sum *EpochSum) error {
			v, err := fixedpoint.Add(&sum.Sum, value)
			if err != nil {
				return err
			}
			sum.Sum.Set(v)
			bonus, err := fixedpoint.Add(&sum.BonusSum, value)
			if err != nil {
				return err
			}
			if reusedBefore != nil {
				bonus = fixedpoint.SubFloor(bonus, reusedBefore)
			}
			sum.BonusSum.Set(bonus)
			return nil
		})
		if err != nil {
			return nil, err
		}

		if reusedBefore != nil && c.Active {
			if err := totals.SubBonus(sample.Pool, epoch, reusedBefore); err != nil {
				return nil, err
			}
		}
		if active {
			if err := totals.AddTotals(sample.Pool, epoch, value, value); err != nil {
				return nil, err
			}
		}

		next := &Commit{Valid: true, Epoch: epoch, FoldedEpoch: epoch, Active: active}
		next.Metric.Set(value)
		if err := s.commits.Upsert(commitKey(processor, sample.Pool), next); err != nil {
			return nil, errors.Wrap(err, "failed to set metric commit")
		}
		settled = append(settled, Settled{Pool: sample.Pool, Value: value})
	}

	for _, pool := range pools {
		if reported[pool] {
			continue
		}
		c, err := s.Commit(processor, pool)
		if err != nil {
			return nil, err
		}
		if !c.Valid || c.Epoch >= epoch || c.FoldedEpoch == epoch || epoch-c.Epoch > validity {
			continue
		}
		value := new(uint256.Int).Set(&c.Metric)

		err = s.fold(manager, pool, epoch, func(sum *EpochSum) error {
			bonus, err := fixedpoint.Add(&sum.BonusSum, value)
			if err != nil {
				return err
			}
			sum.BonusSum.Set(bonus)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if active {
			if err := totals.AddTotals(pool, epoch, new(uint256.Int), value); err != nil {
				return nil, err
			}
		}

		c.FoldedEpoch = epoch
		c.Active = active
		if err := s.commits.Upsert(commitKey(processor, pool), c); err != nil {
			return nil, errors.Wrap(err, "failed to set metric commit")
		}
		settled = append(settled, Settled{Pool: pool, Value: value, Reused: true})
	}
	return settled, nil
}

// ClaimShares returns, per pool, the value the processor contributed to the bonus
// adjusted totals of epoch.
func (s *Service) ClaimShares(processor capstake.Address, pools []uint32, epoch capstake.Epoch) (map[uint32]*uint256.Int, error) {
	shares := make(map[uint32]*uint256.Int)
	for _, pool := range pools {
		c, err := s.Commit(processor, pool)
		if err != nil {
			return nil, err
		}
		if c.Valid && c.Active && c.FoldedEpoch == epoch {
			shares[pool] = new(uint256.Int).Set(&c.Metric)
		}
	}
	return shares, nil
}
