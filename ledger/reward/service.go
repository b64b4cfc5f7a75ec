// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reward

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
	slotBudgets = slot.Position("reward-budgets")
	slotScores  = slot.Position("reward-scores")
	slotReserve = slot.Position("manager-reward-reserve")
)

type Service struct {
	budgets *slot.Mapping[slot.BytesKey, *Budget]
	scores  *slot.Mapping[slot.BytesKey, *rolling.Buffer[Score]]
	reserve *slot.Uint256
}

func New(sctx *slot.Context) *Service {
	return &Service{
		budgets: slot.NewMapping[slot.BytesKey, *Budget](sctx, slotBudgets),
		scores:  slot.NewMapping[slot.BytesKey, *rolling.Buffer[Score]](sctx, slotScores),
		reserve: slot.NewUint256(sctx, slotReserve),
	}
}

func budgetKey(pool uint32, epoch capstake.Epoch) slot.BytesKey {
	return slot.Compose(capstake.Uint32Key(pool), capstake.Uint32Key(epoch))
}

func scoreKey(commitment uint64, pool uint32) slot.BytesKey {
	return slot.Compose(capstake.Uint64Key(commitment), capstake.Uint32Key(pool))
}

func (s *Service) Budget(pool uint32, epoch capstake.Epoch) (*Budget, error) {
	b, err := s.budgets.Get(budgetKey(pool, epoch))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get budget")
	}
	return b, nil
}

func (s *Service) updateBudget(pool uint32, epoch capstake.Epoch, f func(*Budget) error) error {
	b, err := s.Budget(pool, epoch)
	if err != nil {
		return err
	}
	if err := f(b); err != nil {
		return err
	}
	if err := s.budgets.Upsert(budgetKey(pool, epoch), b); err != nil {
		return errors.Wrap(err, "failed to set budget")
	}
	return nil
}

// Fund adds to the budget of a pool.
func (s *Service) Fund(pool uint32, epoch capstake.Epoch, amount *uint256.Int) error {
	return s.updateBudget(pool, epoch, func(b *Budget) error {
		total, err := fixedpoint.Add(&b.Total, amount)
		if err != nil {
			return err
		}
		b.Total.Set(total)
		return nil
	})
}

// AddScore accounts a commitment's score in the budget's total score.
func (s *Service) AddScore(pool uint32, epoch capstake.Epoch, score *uint256.Int, target *uint256.Int) error {
	return s.updateBudget(pool, epoch, func(b *Budget) error {
		total, err := fixedpoint.Add(&b.TotalScore, score)
		if err != nil {
			return err
		}
		b.TotalScore.Set(total)
		if b.TargetWeightPerCompute.IsZero() {
			b.TargetWeightPerCompute.Set(target)
		}
		return nil
	})
}

// Consume marks amount of the budget as paid out. Paying more than the total is an internal error.
func (s *Service) Consume(pool uint32, epoch capstake.Epoch, amount *uint256.Int) error {
	return s.updateBudget(pool, epoch, func(b *Budget) error {
		distributed, err := fixedpoint.Add(&b.Distributed, amount)
		if err != nil {
			return err
		}
		if distributed.Gt(&b.Total) {
			return reverts.InternalErr("pool %d epoch %d: distributed %s exceeds budget %s", pool, epoch, distributed, &b.Total)
		}
		b.Distributed.Set(distributed)
		return nil
	})
}

// Score returns the score of a commitment at epoch, zero if the epoch rolled past.
func (s *Service) Score(commitment uint64, pool uint32, epoch capstake.Epoch) (*Score, error) {
	buf, err := s.scores.Get(scoreKey(commitment, pool))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get score")
	}
	score := buf.Get(epoch)
	return &score, nil
}

func (s *Service) SetScore(commitment uint64, pool uint32, epoch capstake.Epoch, score *Score) error {
	buf, err := s.scores.Get(scoreKey(commitment, pool))
	if err != nil {
		return errors.Wrap(err, "failed to get score")
	}
	err = buf.Mutate(epoch, false, func(v *Score) error {
		*v = *score
		return nil
	})
	if err != nil {
		return reverts.InternalErr("scores: %v", err)
	}
	if err := s.scores.Upsert(scoreKey(commitment, pool), buf); err != nil {
		return errors.Wrap(err, "failed to set score")
	}
	return nil
}

func (s *Service) Reserve() (*uint256.Int, error) {
	return s.reserve.Get()
}

func (s *Service) AddReserve(amount *uint256.Int) error {
	return s.reserve.Add(amount)
}

// TakeReserve removes amount from the manager reward reserve, InsufficientFunds if short.
func (s *Service) TakeReserve(amount *uint256.Int) error {
	current, err := s.reserve.Get()
	if err != nil {
		return err
	}
	if current.Lt(amount) {
		return reverts.Insufficient("manager reward reserve holds %s, %s requested", current, amount)
	}
	return s.reserve.Sub(amount)
}
