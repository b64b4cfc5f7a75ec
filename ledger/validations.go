// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/commitment"
	"github.com/computemarket/capstake/ledger/delegation"
	"github.com/computemarket/capstake/ledger/reverts"
)

func (l *Ledger) requireOperator(caller capstake.Address) error {
	if caller != l.params.Operator {
		return reverts.Precondition("%s is not the operator", caller)
	}
	return nil
}

func (l *Ledger) validateStake(amount *uint256.Int, cooldown, commission uint32) error {
	if amount == nil || amount.Lt(l.params.MinStake.Value()) {
		return reverts.Precondition("stake below minimum %s", l.params.MinStake.Value())
	}
	if cooldown < l.params.MinCooldown || cooldown > l.params.MaxCooldown {
		return reverts.Precondition("cooldown %d out of range [%d, %d]", cooldown, l.params.MinCooldown, l.params.MaxCooldown)
	}
	if commission > l.params.MaxCommission {
		return reverts.Precondition("commission %d exceeds maximum %d", commission, l.params.MaxCommission)
	}
	return nil
}

func (l *Ledger) validateDelegation(c *commitment.Commitment, amount *uint256.Int, cooldown uint32) error {
	if amount == nil || amount.Lt(l.params.MinDelegation.Value()) {
		return reverts.Precondition("delegation below minimum %s", l.params.MinDelegation.Value())
	}
	if cooldown < l.params.MinCooldown || cooldown > c.Stake.CooldownPeriod {
		return reverts.Precondition("cooldown %d out of range [%d, %d]", cooldown, l.params.MinCooldown, c.Stake.CooldownPeriod)
	}
	return nil
}

// validateDelegationRatio rejects a commitment whose delegations outweigh its own stake.
func (l *Ledger) validateDelegationRatio(c *commitment.Commitment) error {
	w := c.Weights.Latest(l.cycle.Epoch)
	exceeded, err := w.DelegationRatioExceeded(l.params.MaxDelegationRatio)
	if err != nil {
		return err
	}
	if exceeded {
		return reverts.Precondition("delegations exceed %d basis points of the commitment weight", l.params.MaxDelegationRatio)
	}
	return nil
}

// commitmentOf returns the committer's commitment, NotFound if none exists.
func (l *Ledger) commitmentOf(committer capstake.Address) (uint64, *commitment.Commitment, error) {
	id, err := l.identities.CommitmentID(committer)
	if err != nil {
		return 0, nil, err
	}
	if id == 0 {
		return 0, nil, reverts.NotFoundf("%s has no commitment", committer)
	}
	c, err := l.commitments.Get(id)
	if err != nil {
		return 0, nil, err
	}
	return id, c, nil
}

func (l *Ledger) openCommitmentOf(committer capstake.Address) (uint64, *commitment.Commitment, error) {
	id, c, err := l.commitmentOf(committer)
	if err != nil {
		return 0, nil, err
	}
	if !c.IsOpen() {
		return 0, nil, reverts.Precondition("commitment of %s is not staked", committer)
	}
	return id, c, nil
}

// activeCommitmentOf returns an open commitment that is not cooling down.
func (l *Ledger) activeCommitmentOf(committer capstake.Address) (uint64, *commitment.Commitment, error) {
	id, c, err := l.openCommitmentOf(committer)
	if err != nil {
		return 0, nil, err
	}
	if c.IsCoolingDown() {
		return 0, nil, reverts.Precondition("commitment of %s is cooling down", committer)
	}
	return id, c, nil
}

// isCurrent reports whether d belongs to the running generation of an open commitment.
func isCurrent(c *commitment.Commitment, d *delegation.Delegation) bool {
	return c.IsOpen() && d.Generation == c.Generation
}
