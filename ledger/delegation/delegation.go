// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/fixedpoint"
	"github.com/computemarket/capstake/ledger/stakes"
)

// Delegation is a third party stake towards a commitment.
type Delegation struct {
	Stake           stakes.Stake
	Generation      uint32 // commitment generation joined
	RewardWeight    uint256.Int
	SlashWeight     uint256.Int
	RewardDebt      uint256.Int
	SlashDebt       uint256.Int
	RedelegateAfter uint32 // height before which the delegation may not move again

	// Pending is set when the reward weight changed while a scored epoch of the
	// commitment was still awaiting distribution.
	Pending *Pending `rlp:"nil"`
}

// Pending is the reward weight a delegation held in a scored epoch that was not yet
// distributed, and the reward per weight before that distribution.
type Pending struct {
	Epoch  capstake.Epoch
	Weight uint256.Int
	Base   uint256.Int
}

// Share is the part of the epoch's distribution owed to the held weight, given the
// reward per weight the distribution reached.
func (p *Pending) Share(checkpoint *uint256.Int) (*uint256.Int, error) {
	to, err := stakes.Debt(&p.Weight, checkpoint)
	if err != nil {
		return nil, err
	}
	from, err := stakes.Debt(&p.Weight, &p.Base)
	if err != nil {
		return nil, err
	}
	return fixedpoint.SubFloor(to, from), nil
}

// Claim is the share of a scored epoch owed to a delegation that ended before the
// epoch was distributed.
type Claim struct {
	Generation uint32
	Pending    Pending
}

// Sync settles everything accrued since the last snapshot against acc and takes a new one.
func (d *Delegation) Sync(acc *stakes.Accumulator) error {
	reward, err := stakes.Pending(&d.RewardWeight, &acc.RewardPerWeight, &d.RewardDebt)
	if err != nil {
		return err
	}
	if err := d.Stake.CreditReward(reward); err != nil {
		return err
	}
	slash, err := stakes.Pending(&d.SlashWeight, &acc.SlashPerWeight, &d.SlashDebt)
	if err != nil {
		return err
	}
	// a delegation can never owe more than it staked
	room := d.Stake.Unslashed()
	if err := d.Stake.CreditSlash(fixedpoint.Min(slash, room)); err != nil {
		return err
	}
	return d.Snapshot(acc)
}

// Hold records the weight the delegation had in the scored epoch before it changes.
// A weight already held for the epoch is kept.
func (d *Delegation) Hold(epoch capstake.Epoch, weight *uint256.Int, acc *stakes.Accumulator) {
	if d.Pending != nil {
		return
	}
	d.Pending = &Pending{Epoch: epoch}
	d.Pending.Weight.Set(weight)
	d.Pending.Base.Set(&acc.RewardPerWeight)
}

// Resolve credits the held share once its epoch was distributed and moves the reward
// debt of the current weight to the checkpoint, so Sync pays only what came after.
func (d *Delegation) Resolve(checkpoint *uint256.Int) error {
	share, err := d.Pending.Share(checkpoint)
	if err != nil {
		return err
	}
	if err := d.Stake.CreditReward(share); err != nil {
		return err
	}
	debt, err := stakes.Debt(&d.RewardWeight, checkpoint)
	if err != nil {
		return err
	}
	d.RewardDebt.Set(debt)
	d.Pending = nil
	return nil
}

// Snapshot sets the debts to the current value of the weights.
func (d *Delegation) Snapshot(acc *stakes.Accumulator) error {
	rd, err := stakes.Debt(&d.RewardWeight, &acc.RewardPerWeight)
	if err != nil {
		return err
	}
	sd, err := stakes.Debt(&d.SlashWeight, &acc.SlashPerWeight)
	if err != nil {
		return err
	}
	d.RewardDebt.Set(rd)
	d.SlashDebt.Set(sd)
	return nil
}

// Reweigh recomputes the weights from the stake.
func (d *Delegation) Reweigh(maxCooldown uint32) error {
	reward, slash, err := d.Stake.Weights(maxCooldown)
	if err != nil {
		return err
	}
	d.RewardWeight.Set(reward)
	d.SlashWeight.Set(slash)
	return nil
}
