// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/commitment"
	"github.com/computemarket/capstake/ledger/reverts"
)

func (l *Ledger) managerIDOf(manager capstake.Address) (uint64, error) {
	id, err := l.identities.ManagerID(manager)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, reverts.NotFoundf("%s has no paired processor", manager)
	}
	return id, nil
}

// OfferBacking allows committer to back the manager.
func (l *Ledger) OfferBacking(manager, committer capstake.Address) error {
	return l.atomic("offer-backing", func() error {
		id, err := l.managerIDOf(manager)
		if err != nil {
			return err
		}
		if committer.IsZero() {
			return reverts.Precondition("zero committer")
		}
		if err := l.identities.Offer(id, committer); err != nil {
			return err
		}
		l.emit(&Event{Kind: EventBackingOffered, Account: committer, Peer: manager})
		return nil
	})
}

func (l *Ledger) WithdrawBackingOffer(manager, committer capstake.Address) error {
	return l.atomic("withdraw-backing-offer", func() error {
		id, err := l.managerIDOf(manager)
		if err != nil {
			return err
		}
		offered, err := l.identities.HasOffer(id, committer)
		if err != nil {
			return err
		}
		if !offered {
			return reverts.NotFoundf("no offer from %s to %s", manager, committer)
		}
		l.identities.RemoveOffer(id, committer)
		l.emit(&Event{Kind: EventBackingWithdrawn, Account: committer, Peer: manager})
		return nil
	})
}

// AcceptBackingOffer binds the committer's commitment to the manager. A manager is
// backed by at most one commitment and a commitment backs at most one manager.
func (l *Ledger) AcceptBackingOffer(committer, manager capstake.Address) error {
	return l.atomic("accept-backing-offer", func() error {
		managerID, err := l.managerIDOf(manager)
		if err != nil {
			return err
		}
		offered, err := l.identities.HasOffer(managerID, committer)
		if err != nil {
			return err
		}
		if !offered {
			return reverts.NotFoundf("no offer from %s to %s", manager, committer)
		}
		backing, err := l.identities.Backing(managerID)
		if err != nil {
			return err
		}
		if backing != 0 {
			return reverts.Precondition("%s is already backed by commitment %d", manager, backing)
		}

		id, created, err := l.identities.EnsureCommitmentID(committer)
		if err != nil {
			return err
		}
		c := &commitment.Commitment{}
		if !created {
			if c, err = l.commitments.Get(id); err != nil {
				return err
			}
		}
		if c.Manager != 0 {
			return reverts.Precondition("commitment %d already backs manager %d", id, c.Manager)
		}
		if c.IsOpen() {
			return reverts.InternalErr("commitment %d open without a manager", id)
		}

		c.Manager = managerID
		if err := l.identities.Bind(managerID, id); err != nil {
			return err
		}
		l.identities.RemoveOffer(managerID, committer)
		if err := l.commitments.Update(id, c); err != nil {
			return err
		}
		logger.Debug("backing accepted", "committer", committer, "manager", manager, "commitment", id)
		l.emit(&Event{Kind: EventBackingAccepted, Account: committer, Peer: manager, Commitment: id})
		return nil
	})
}
