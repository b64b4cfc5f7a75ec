// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/balance"
	"github.com/computemarket/capstake/ledger/commitment"
	"github.com/computemarket/capstake/ledger/delegation"
	"github.com/computemarket/capstake/ledger/stakes"
)

type Account struct {
	Balance   string `json:"balance"`
	Locked    string `json:"locked"`
	Usable    string `json:"usable"`
	Staked    string `json:"staked"`
	Delegated string `json:"delegated"`
}

type Stake struct {
	Amount          string `json:"amount"`
	Rewardable      string `json:"rewardable"`
	Created         uint32 `json:"created"`
	CooldownPeriod  uint32 `json:"cooldownPeriod"`
	InCooldown      bool   `json:"inCooldown"`
	CooldownStarted uint32 `json:"cooldownStarted"`
	AccruedReward   string `json:"accruedReward"`
	AccruedSlash    string `json:"accruedSlash"`
	Paid            string `json:"paid"`
	AutoCompound    bool   `json:"autoCompound"`
}

type Commitment struct {
	ID                         uint64            `json:"id"`
	Stake                      *Stake            `json:"stake"`
	Manager                    uint64            `json:"manager"`
	Generation                 uint32            `json:"generation"`
	Commission                 uint32            `json:"commission"`
	DelegationsTotalAmount     string            `json:"delegationsTotalAmount"`
	DelegationsTotalRewardable string            `json:"delegationsTotalRewardable"`
	Delegations                uint32            `json:"delegations"`
	StaleDelegations           uint32            `json:"staleDelegations"`
	LastScoringEpoch           capstake.Epoch    `json:"lastScoringEpoch"`
	LastSlashingEpoch          capstake.Epoch    `json:"lastSlashingEpoch"`
	Declared                   map[uint32]string `json:"declared"`
}

type Delegation struct {
	Commitment      uint64 `json:"commitment"`
	Generation      uint32 `json:"generation"`
	Current         bool   `json:"current"`
	Stake           *Stake `json:"stake"`
	RedelegateAfter uint32 `json:"redelegateAfter"`
}

func convertAccount(a *balance.Account) *Account {
	return &Account{
		Balance:   a.Balance.Dec(),
		Locked:    a.Locked.Dec(),
		Usable:    a.Usable().Dec(),
		Staked:    a.Staked.Dec(),
		Delegated: a.Delegated.Dec(),
	}
}

func convertStake(s *stakes.Stake) *Stake {
	if s == nil {
		return nil
	}
	return &Stake{
		Amount:          s.Amount.Dec(),
		Rewardable:      s.Rewardable.Dec(),
		Created:         s.Created,
		CooldownPeriod:  s.CooldownPeriod,
		InCooldown:      s.InCooldown,
		CooldownStarted: s.CooldownStarted,
		AccruedReward:   s.AccruedReward.Dec(),
		AccruedSlash:    s.AccruedSlash.Dec(),
		Paid:            s.Paid.Dec(),
		AutoCompound:    s.AutoCompound,
	}
}

func convertCommitment(id uint64, c *commitment.Commitment) *Commitment {
	return &Commitment{
		ID:                         id,
		Stake:                      convertStake(c.Stake),
		Manager:                    c.Manager,
		Generation:                 c.Generation,
		Commission:                 c.Commission,
		DelegationsTotalAmount:     c.DelegationsTotalAmount.Dec(),
		DelegationsTotalRewardable: c.DelegationsTotalRewardable.Dec(),
		Delegations:                c.Delegations,
		StaleDelegations:           c.StaleDelegations,
		LastScoringEpoch:           c.LastScoringEpoch,
		LastSlashingEpoch:          c.LastSlashingEpoch,
		Declared:                   make(map[uint32]string),
	}
}

func convertDelegation(id uint64, generation uint32, d *delegation.Delegation) *Delegation {
	return &Delegation{
		Commitment:      id,
		Generation:      d.Generation,
		Current:         d.Generation == generation,
		Stake:           convertStake(&d.Stake),
		RedelegateAfter: d.RedelegateAfter,
	}
}
