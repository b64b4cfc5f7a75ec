// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/fixedpoint"
	"github.com/computemarket/capstake/ledger/reverts"
)

// Stake is the locked position of a committer or a delegator.
type Stake struct {
	Amount          uint256.Int
	Rewardable      uint256.Int // Amount, reduced by the cooldown reward ratio once cooling down
	Created         uint32
	CooldownPeriod  uint32
	InCooldown      bool
	CooldownStarted uint32
	AccruedReward   uint256.Int
	AccruedSlash    uint256.Int
	Paid            uint256.Int
	AutoCompound    bool
}

func New(amount *uint256.Int, height, cooldown uint32, autoCompound bool) *Stake {
	s := &Stake{
		Created:        height,
		CooldownPeriod: cooldown,
		AutoCompound:   autoCompound,
	}
	s.Amount.Set(amount)
	s.Rewardable.Set(amount)
	return s
}

// Weights returns the reward and slash weights, amount scaled by cooldown/maxCooldown.
// The slash weight ignores the cooldown discount.
func (s *Stake) Weights(maxCooldown uint32) (reward, slash *uint256.Int, err error) {
	cd := uint256.NewInt(uint64(s.CooldownPeriod))
	max := uint256.NewInt(uint64(maxCooldown))
	if reward, err = fixedpoint.MulDiv(&s.Rewardable, cd, max); err != nil {
		return nil, nil, err
	}
	if slash, err = fixedpoint.MulDiv(&s.Amount, cd, max); err != nil {
		return nil, nil, err
	}
	return reward, slash, nil
}

// AddAmount grows the stake. Not allowed while cooling down.
func (s *Stake) AddAmount(extra *uint256.Int) error {
	if s.InCooldown {
		return reverts.Precondition("stake is cooling down")
	}
	amount, err := fixedpoint.Add(&s.Amount, extra)
	if err != nil {
		return err
	}
	s.Amount.Set(amount)
	s.Rewardable.Set(amount)
	return nil
}

// StartCooldown begins the exit delay and discounts the rewardable amount.
func (s *Stake) StartCooldown(height uint32, rewardRatio uint32) error {
	if s.InCooldown {
		return reverts.Precondition("cooldown already started")
	}
	rewardable, err := fixedpoint.MulBps(&s.Amount, rewardRatio)
	if err != nil {
		return err
	}
	s.InCooldown = true
	s.CooldownStarted = height
	s.Rewardable.Set(rewardable)
	return nil
}

// CooldownElapsed reports whether the stake may end at height.
func (s *Stake) CooldownElapsed(height uint32) bool {
	return s.InCooldown && uint64(height) >= uint64(s.CooldownStarted)+uint64(s.CooldownPeriod)
}

// Unslashed is the part of the amount not yet claimed by slashes.
func (s *Stake) Unslashed() *uint256.Int {
	return fixedpoint.SubFloor(&s.Amount, &s.AccruedSlash)
}

// TakeReward zeroes the accrued reward, records it as paid and returns it.
func (s *Stake) TakeReward() (*uint256.Int, error) {
	reward := new(uint256.Int).Set(&s.AccruedReward)
	paid, err := fixedpoint.Add(&s.Paid, reward)
	if err != nil {
		return nil, err
	}
	s.Paid.Set(paid)
	s.AccruedReward.Clear()
	return reward, nil
}

func (s *Stake) CreditReward(amount *uint256.Int) error {
	v, err := fixedpoint.Add(&s.AccruedReward, amount)
	if err != nil {
		return err
	}
	s.AccruedReward.Set(v)
	return nil
}

func (s *Stake) CreditSlash(amount *uint256.Int) error {
	v, err := fixedpoint.Add(&s.AccruedSlash, amount)
	if err != nil {
		return err
	}
	s.AccruedSlash.Set(v)
	return nil
}

// Weights of a commitment. Delegation fields hold the sums over the delegations
// of the current generation.
type Weights struct {
	SelfReward        uint256.Int
	SelfSlash         uint256.Int
	DelegationsReward uint256.Int
	DelegationsSlash  uint256.Int
}

func (w *Weights) TotalReward() (*uint256.Int, error) {
	return fixedpoint.Add(&w.SelfReward, &w.DelegationsReward)
}

func (w *Weights) TotalSlash() (*uint256.Int, error) {
	return fixedpoint.Add(&w.SelfSlash, &w.DelegationsSlash)
}

// DelegationRatioExceeded reports DelegationsReward / (SelfSlash + DelegationsReward) > maxBps.
func (w *Weights) DelegationRatioExceeded(maxBps uint32) (bool, error) {
	if w.DelegationsReward.IsZero() {
		return false, nil
	}
	denom, err := fixedpoint.Add(&w.SelfSlash, &w.DelegationsReward)
	if err != nil {
		return false, err
	}
	lhs, err := fixedpoint.Mul(&w.DelegationsReward, uint256.NewInt(capstake.BasisPoints))
	if err != nil {
		return false, err
	}
	rhs, err := fixedpoint.Mul(denom, uint256.NewInt(uint64(maxBps)))
	if err != nil {
		return false, err
	}
	return lhs.Gt(rhs), nil
}

// Accumulator is the per-weight reward and slash of a commitment generation.
type Accumulator struct {
	RewardPerWeight uint256.Int
	SlashPerWeight  uint256.Int
}

// Debt is the value of weight at the given per-weight ratio.
func Debt(weight, perWeight *uint256.Int) (*uint256.Int, error) {
	return fixedpoint.MulScaled(weight, perWeight)
}

// Pending is the part of weight*perWeight not yet settled by debt.
func Pending(weight, perWeight, debt *uint256.Int) (*uint256.Int, error) {
	v, err := Debt(weight, perWeight)
	if err != nil {
		return nil, err
	}
	return fixedpoint.SubFloor(v, debt), nil
}

// Push raises perWeight by amount spread over weight. It returns the part of amount
// lost to truncation, which the caller credits elsewhere.
func Push(perWeight *uint256.Int, amount, weight *uint256.Int) (dust *uint256.Int, err error) {
	if weight.IsZero() {
		return new(uint256.Int).Set(amount), nil
	}
	inc, err := fixedpoint.DivScaled(amount, weight)
	if err != nil {
		return nil, err
	}
	sum, err := fixedpoint.Add(perWeight, inc)
	if err != nil {
		return nil, err
	}
	covered, err := fixedpoint.MulScaled(inc, weight)
	if err != nil {
		return nil, err
	}
	perWeight.Set(sum)
	return fixedpoint.SubFloor(amount, covered), nil
}
