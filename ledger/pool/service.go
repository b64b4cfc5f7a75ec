// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

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
	slotPools   = slot.Position("pools")
	slotNames   = slot.Position("pool-names")
	slotCounter = slot.Position("pools-counter")
	slotTotals  = slot.Position("pool-totals")
)

type nameKey string

func (n nameKey) Bytes() []byte { return []byte(n) }

type Service struct {
	pools   *slot.Mapping[capstake.Uint32Key, *Pool]
	names   *slot.Mapping[nameKey, uint32]
	counter *slot.Raw[uint32]
	totals  *slot.Mapping[capstake.Uint32Key, *rolling.Buffer[Totals]]
}

func New(sctx *slot.Context) *Service {
	return &Service{
		pools:   slot.NewMapping[capstake.Uint32Key, *Pool](sctx, slotPools),
		names:   slot.NewMapping[nameKey, uint32](sctx, slotNames),
		counter: slot.NewRaw[uint32](sctx, slotCounter),
		totals:  slot.NewMapping[capstake.Uint32Key, *rolling.Buffer[Totals]](sctx, slotTotals),
	}
}

// Create registers a pool under a unique name. Ids start at 1.
func (s *Service) Create(name string, ratio uint32, cfg Config, current capstake.Epoch) (uint32, error) {
	if name == "" {
		return 0, reverts.Precondition("pool name is empty")
	}
	existing, err := s.names.Get(nameKey(name))
	if err != nil {
		return 0, errors.Wrap(err, "failed to get pool name")
	}
	if existing != 0 {
		return 0, reverts.Conflict("pool name %q already used by pool %d", name, existing)
	}

	count, err := s.counter.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get pool counter")
	}
	id := count + 1
	if id == 0 {
		return 0, reverts.Overflow("pool counter")
	}

	p := &Pool{
		ID:          id,
		Name:        name,
		RewardRatio: rolling.NewProvisional(current, ratio),
		Config:      cfg,
	}
	if err := s.pools.Insert(capstake.Uint32Key(id), p); err != nil {
		return 0, errors.Wrap(err, "failed to set pool")
	}
	if err := s.names.Upsert(nameKey(name), id); err != nil {
		return 0, errors.Wrap(err, "failed to set pool name")
	}
	if err := s.counter.Upsert(id); err != nil {
		return 0, errors.Wrap(err, "failed to set pool counter")
	}
	return id, nil
}

// Modify renames a pool, schedules a ratio change or replaces its config.
// A ratio change must not take effect before the first epoch whose payouts are
// not computable yet, which is the epoch after the current one.
func (s *Service) Modify(id uint32, name *string, ratio *RatioChange, cfg *Config, current capstake.Epoch) error {
	p, err := s.Get(id)
	if err != nil {
		return err
	}

	if name != nil && *name != p.Name {
		if *name == "" {
			return reverts.Precondition("pool name is empty")
		}
		other, err := s.names.Get(nameKey(*name))
		if err != nil {
			return errors.Wrap(err, "failed to get pool name")
		}
		if other != 0 && other != id {
			return reverts.Conflict("pool name %q already used by pool %d", *name, other)
		}
		s.names.Delete(nameKey(p.Name))
		if err := s.names.Upsert(nameKey(*name), id); err != nil {
			return errors.Wrap(err, "failed to set pool name")
		}
		p.Name = *name
	}

	if ratio != nil {
		if err := p.RewardRatio.Set(current+1, ratio.From, ratio.Value); err != nil {
			return reverts.Precondition("ratio change from epoch %d must not precede epoch %d", ratio.From, current+1)
		}
	}

	if cfg != nil {
		p.Config = *cfg
	}

	if err := s.pools.Update(capstake.Uint32Key(id), p); err != nil {
		return errors.Wrap(err, "failed to update pool")
	}
	return nil
}

func (s *Service) Get(id uint32) (*Pool, error) {
	exists, err := s.pools.Exists(capstake.Uint32Key(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool")
	}
	if !exists {
		return nil, reverts.NotFoundf("pool %d not found", id)
	}
	p, err := s.pools.Get(capstake.Uint32Key(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool")
	}
	return p, nil
}

// ByName returns the id of the named pool.
func (s *Service) ByName(name string) (uint32, error) {
	id, err := s.names.Get(nameKey(name))
	if err != nil {
		return 0, errors.Wrap(err, "failed to get pool name")
	}
	if id == 0 {
		return 0, reverts.NotFoundf("pool %q not found", name)
	}
	return id, nil
}

func (s *Service) Count() (uint32, error) {
	return s.counter.Get()
}

// IDs lists every registered pool id in ascending order.
func (s *Service) IDs() ([]uint32, error) {
	count, err := s.Count()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool counter")
	}
	ids := make([]uint32, 0, count)
	for id := uint32(1); id <= count; id++ {
		ids = append(ids, id)
	}
	return ids, nil
}

// RatioShare returns every pool's reward ratio effective at epoch and their sum.
func (s *Service) RatioShare(epoch capstake.Epoch) (*Shares, error) {
	ids, err := s.IDs()
	if err != nil {
		return nil, err
	}
	shares := &Shares{Ratios: make(map[uint32]uint32, len(ids))}
	for _, id := range ids {
		p, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		r := p.RewardRatio.Get(epoch)
		shares.Ratios[id] = r
		shares.Sum += uint64(r)
	}
	return shares, nil
}

// Totals returns the totals of a pool at epoch, zero if the epoch rolled past.
func (s *Service) Totals(id uint32, epoch capstake.Epoch) (Totals, error) {
	buf, err := s.totals.Get(capstake.Uint32Key(id))
	if err != nil {
		return Totals{}, errors.Wrap(err, "failed to get pool totals")
	}
	return buf.Get(epoch), nil
}

// AddTotals adds to the totals of epoch, which must not be behind the stored one.
func (s *Service) AddTotals(id uint32, epoch capstake.Epoch, total, withBonus *uint256.Int) error {
	buf, err := s.totals.Get(capstake.Uint32Key(id))
	if err != nil {
		return errors.Wrap(err, "failed to get pool totals")
	}
	err = buf.Mutate(epoch, false, func(t *Totals) error {
		sum, err := fixedpoint.Add(&t.Total, total)
		if err != nil {
			return err
		}
		sumBonus, err := fixedpoint.Add(&t.TotalWithBonus, withBonus)
		if err != nil {
			return err
		}
		t.Total.Set(sum)
		t.TotalWithBonus.Set(sumBonus)
		return nil
	})
	if err != nil {
		return wrapRolling(err)
	}
	return s.totals.Upsert(capstake.Uint32Key(id), buf)
}

// SubBonus removes a previously folded bonus value from the epoch's bonus total.
func (s *Service) SubBonus(id uint32, epoch capstake.Epoch, value *uint256.Int) error {
	buf, err := s.totals.Get(capstake.Uint32Key(id))
	if err != nil {
		return errors.Wrap(err, "failed to get pool totals")
	}
	err = buf.Mutate(epoch, false, func(t *Totals) error {
		t.TotalWithBonus.Set(fixedpoint.SubFloor(&t.TotalWithBonus, value))
		return nil
	})
	if err != nil {
		return wrapRolling(err)
	}
	return s.totals.Upsert(capstake.Uint32Key(id), buf)
}

func wrapRolling(err error) error {
	if errors.Is(err, rolling.ErrStaleKey) {
		return reverts.InternalErr("pool totals: %v", err)
	}
	return err
}
