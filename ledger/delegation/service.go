// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"github.com/pkg/errors"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/reverts"
	"github.com/computemarket/capstake/slot"
)

var (
	slotDelegations = slot.Position("delegations")
	slotClaims      = slot.Position("delegation-claims")
)

type Service struct {
	delegations *slot.Mapping[slot.BytesKey, *Delegation]
	claims      *slot.Mapping[slot.BytesKey, *Claim]
}

func New(sctx *slot.Context) *Service {
	return &Service{
		delegations: slot.NewMapping[slot.BytesKey, *Delegation](sctx, slotDelegations),
		claims:      slot.NewMapping[slot.BytesKey, *Claim](sctx, slotClaims),
	}
}

func key(delegator capstake.Address, commitment uint64) slot.BytesKey {
	return slot.Compose(delegator, capstake.Uint64Key(commitment))
}

func (s *Service) Exists(delegator capstake.Address, commitment uint64) (bool, error) {
	ok, err := s.delegations.Exists(key(delegator, commitment))
	if err != nil {
		return false, errors.Wrap(err, "failed to get delegation")
	}
	return ok, nil
}

// GetDelegation returns the delegation of delegator to commitment, NotFound if absent.
func (s *Service) GetDelegation(delegator capstake.Address, commitment uint64) (*Delegation, error) {
	ok, err := s.Exists(delegator, commitment)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, reverts.NotFoundf("no delegation from %s to commitment %d", delegator, commitment)
	}
	d, err := s.delegations.Get(key(delegator, commitment))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get delegation")
	}
	return d, nil
}

func (s *Service) Add(delegator capstake.Address, commitment uint64, d *Delegation) error {
	ok, err := s.Exists(delegator, commitment)
	if err != nil {
		return err
	}
	if ok {
		return reverts.Precondition("delegation from %s to commitment %d already exists", delegator, commitment)
	}
	if err := s.delegations.Insert(key(delegator, commitment), d); err != nil {
		return errors.Wrap(err, "failed to set delegation")
	}
	return nil
}

func (s *Service) Update(delegator capstake.Address, commitment uint64, d *Delegation) error {
	if err := s.delegations.Update(key(delegator, commitment), d); err != nil {
		return errors.Wrap(err, "failed to update delegation")
	}
	return nil
}

func (s *Service) Remove(delegator capstake.Address, commitment uint64) {
	s.delegations.Delete(key(delegator, commitment))
}

// GetClaim returns the delegator's claim on the commitment, nil if there is none.
func (s *Service) GetClaim(delegator capstake.Address, commitment uint64) (*Claim, error) {
	ok, err := s.claims.Exists(key(delegator, commitment))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get claim")
	}
	if !ok {
		return nil, nil
	}
	c, err := s.claims.Get(key(delegator, commitment))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get claim")
	}
	return c, nil
}

func (s *Service) SetClaim(delegator capstake.Address, commitment uint64, c *Claim) error {
	if err := s.claims.Upsert(key(delegator, commitment), c); err != nil {
		return errors.Wrap(err, "failed to set claim")
	}
	return nil
}

func (s *Service) RemoveClaim(delegator capstake.Address, commitment uint64) {
	s.claims.Delete(key(delegator, commitment))
}
