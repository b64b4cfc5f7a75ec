// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package identity maps accounts to commitment and manager ids, pairs processors
// with their manager and keeps the backing offers managers make to committers.
package identity

import (
	"github.com/pkg/errors"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/reverts"
	"github.com/computemarket/capstake/slot"
)

var (
	slotCommitmentIDs     = slot.Position("commitment-ids")
	slotCommitters        = slot.Position("committers")
	slotCommitmentCounter = slot.Position("commitment-counter")
	slotManagerIDs        = slot.Position("manager-ids")
	slotManagers          = slot.Position("managers")
	slotManagerCounter    = slot.Position("manager-counter")
	slotProcessors        = slot.Position("processor-managers")
	slotOffers            = slot.Position("backing-offers")
	slotBackings          = slot.Position("backings")
)

type Service struct {
	commitmentIDs     *slot.Mapping[capstake.Address, uint64]
	committers        *slot.Mapping[capstake.Uint64Key, capstake.Address]
	commitmentCounter *slot.Raw[uint64]
	managerIDs        *slot.Mapping[capstake.Address, uint64]
	managers          *slot.Mapping[capstake.Uint64Key, capstake.Address]
	managerCounter    *slot.Raw[uint64]
	processors        *slot.Mapping[capstake.Address, capstake.Address]
	offers            *slot.Mapping[slot.BytesKey, bool]
	backings          *slot.Mapping[capstake.Uint64Key, uint64] // manager id -> commitment id
}

func New(sctx *slot.Context) *Service {
	return &Service{
		commitmentIDs:     slot.NewMapping[capstake.Address, uint64](sctx, slotCommitmentIDs),
		committers:        slot.NewMapping[capstake.Uint64Key, capstake.Address](sctx, slotCommitters),
		commitmentCounter: slot.NewRaw[uint64](sctx, slotCommitmentCounter),
		managerIDs:        slot.NewMapping[capstake.Address, uint64](sctx, slotManagerIDs),
		managers:          slot.NewMapping[capstake.Uint64Key, capstake.Address](sctx, slotManagers),
		managerCounter:    slot.NewRaw[uint64](sctx, slotManagerCounter),
		processors:        slot.NewMapping[capstake.Address, capstake.Address](sctx, slotProcessors),
		offers:            slot.NewMapping[slot.BytesKey, bool](sctx, slotOffers),
		backings:          slot.NewMapping[capstake.Uint64Key, uint64](sctx, slotBackings),
	}
}

// CommitmentID returns the committer's commitment id, zero if none was created.
func (s *Service) CommitmentID(committer capstake.Address) (uint64, error) {
	id, err := s.commitmentIDs.Get(committer)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get commitment id")
	}
	return id, nil
}

// EnsureCommitmentID returns the committer's commitment id, creating it on first use.
func (s *Service) EnsureCommitmentID(committer capstake.Address) (uint64, bool, error) {
	id, err := s.CommitmentID(committer)
	if err != nil || id != 0 {
		return id, false, err
	}
	if id, err = next(s.commitmentCounter); err != nil {
		return 0, false, err
	}
	if err := s.commitmentIDs.Upsert(committer, id); err != nil {
		return 0, false, errors.Wrap(err, "failed to set commitment id")
	}
	if err := s.committers.Upsert(capstake.Uint64Key(id), committer); err != nil {
		return 0, false, errors.Wrap(err, "failed to set committer")
	}
	return id, true, nil
}

// Committer returns the account owning a commitment id.
func (s *Service) Committer(id uint64) (capstake.Address, error) {
	addr, err := s.committers.Get(capstake.Uint64Key(id))
	if err != nil {
		return capstake.Address{}, errors.Wrap(err, "failed to get committer")
	}
	if addr.IsZero() {
		return capstake.Address{}, reverts.NotFoundf("commitment %d not found", id)
	}
	return addr, nil
}

// ManagerID returns the manager's id, zero if the account never paired a processor.
func (s *Service) ManagerID(manager capstake.Address) (uint64, error) {
	id, err := s.managerIDs.Get(manager)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get manager id")
	}
	return id, nil
}

func (s *Service) ensureManagerID(manager capstake.Address) (uint64, error) {
	id, err := s.ManagerID(manager)
	if err != nil || id != 0 {
		return id, err
	}
	if id, err = next(s.managerCounter); err != nil {
		return 0, err
	}
	if err := s.managerIDs.Upsert(manager, id); err != nil {
		return 0, errors.Wrap(err, "failed to set manager id")
	}
	if err := s.managers.Upsert(capstake.Uint64Key(id), manager); err != nil {
		return 0, errors.Wrap(err, "failed to set manager")
	}
	return id, nil
}

// Manager returns the account of a manager id.
func (s *Service) Manager(id uint64) (capstake.Address, error) {
	addr, err := s.managers.Get(capstake.Uint64Key(id))
	if err != nil {
		return capstake.Address{}, errors.Wrap(err, "failed to get manager")
	}
	if addr.IsZero() {
		return capstake.Address{}, reverts.NotFoundf("manager %d not found", id)
	}
	return addr, nil
}

// PairProcessor assigns a processor to a manager, creating the manager id on first use.
func (s *Service) PairProcessor(manager, processor capstake.Address) (uint64, error) {
	owner, err := s.processors.Get(processor)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get processor manager")
	}
	if !owner.IsZero() && owner != manager {
		return 0, reverts.Precondition("processor %s is paired with another manager", processor)
	}
	id, err := s.ensureManagerID(manager)
	if err != nil {
		return 0, err
	}
	if err := s.processors.Upsert(processor, manager); err != nil {
		return 0, errors.Wrap(err, "failed to set processor manager")
	}
	return id, nil
}

// ProcessorManager returns the manager id a processor reports for.
func (s *Service) ProcessorManager(processor capstake.Address) (uint64, error) {
	owner, err := s.processors.Get(processor)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get processor manager")
	}
	if owner.IsZero() {
		return 0, reverts.NotFoundf("processor %s is not paired", processor)
	}
	return s.ManagerID(owner)
}

func offerKey(manager uint64, committer capstake.Address) slot.BytesKey {
	return slot.Compose(capstake.Uint64Key(manager), committer)
}

func (s *Service) Offer(manager uint64, committer capstake.Address) error {
	return s.offers.Upsert(offerKey(manager, committer), true)
}

func (s *Service) HasOffer(manager uint64, committer capstake.Address) (bool, error) {
	return s.offers.Get(offerKey(manager, committer))
}

func (s *Service) RemoveOffer(manager uint64, committer capstake.Address) {
	s.offers.Delete(offerKey(manager, committer))
}

// Backing returns the commitment backing a manager, zero if none.
func (s *Service) Backing(manager uint64) (uint64, error) {
	id, err := s.backings.Get(capstake.Uint64Key(manager))
	if err != nil {
		return 0, errors.Wrap(err, "failed to get backing")
	}
	return id, nil
}

func (s *Service) Bind(manager, commitment uint64) error {
	return s.backings.Upsert(capstake.Uint64Key(manager), commitment)
}

func (s *Service) Unbind(manager uint64) {
	s.backings.Delete(capstake.Uint64Key(manager))
}

func next(counter *slot.Raw[uint64]) (uint64, error) {
	id, err := counter.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get counter")
	}
	id++
	if id == 0 {
		return 0, reverts.Overflow("id counter")
	}
	if err := counter.Upsert(id); err != nil {
		return 0, errors.Wrap(err, "failed to set counter")
	}
	return id, nil
}
