// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package balance is the in-repo currency ledger: free balances and one lock per
// account sized to the account's stake and delegation exposure.
package balance

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/fixedpoint"
	"github.com/computemarket/capstake/ledger/reverts"
	"github.com/computemarket/capstake/slot"
)

var (
	slotAccounts    = slot.Position("accounts")
	slotTotalLocked = slot.Position("total-locked")
)

type Account struct {
	Exists    bool
	Balance   uint256.Int
	Locked    uint256.Int
	Staked    uint256.Int // own commitment stake
	Delegated uint256.Int // sum of the account's delegations
}

// Usable is the balance not held by the lock.
func (a *Account) Usable() *uint256.Int {
	return fixedpoint.SubFloor(&a.Balance, &a.Locked)
}

type Service struct {
	accounts    *slot.Mapping[capstake.Address, *Account]
	totalLocked *slot.Uint256
}

func New(sctx *slot.Context) *Service {
	return &Service{
		accounts:    slot.NewMapping[capstake.Address, *Account](sctx, slotAccounts),
		totalLocked: slot.NewUint256(sctx, slotTotalLocked),
	}
}

// TotalLocked is the sum of all account locks.
func (s *Service) TotalLocked() (*uint256.Int, error) {
	return s.totalLocked.Get()
}

func (s *Service) Get(account capstake.Address) (*Account, error) {
	a, err := s.accounts.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}
	return a, nil
}

func (s *Service) update(account capstake.Address, a *Account) error {
	a.Exists = true
	if err := s.accounts.Upsert(account, a); err != nil {
		return errors.Wrap(err, "failed to set account")
	}
	return nil
}

// Mint credits new funds to an account.
func (s *Service) Mint(account capstake.Address, amount *uint256.Int) error {
	a, err := s.Get(account)
	if err != nil {
		return err
	}
	sum, err := fixedpoint.Add(&a.Balance, amount)
	if err != nil {
		return err
	}
	a.Balance.Set(sum)
	return s.update(account, a)
}

// Transfer moves usable funds. The source must exist and hold enough unlocked balance.
func (s *Service) Transfer(from, to capstake.Address, amount *uint256.Int) error {
	if amount.IsZero() || from == to {
		return nil
	}
	src, err := s.Get(from)
	if err != nil {
		return err
	}
	if !src.Exists {
		return reverts.NotFoundf("account %s does not exist", from)
	}
	if src.Usable().Lt(amount) {
		return reverts.Insufficient("account %s has %s usable, %s required", from, src.Usable(), amount)
	}
	src.Balance.Sub(&src.Balance, amount)
	if err := s.update(from, src); err != nil {
		return err
	}

	dst, err := s.Get(to)
	if err != nil {
		return err
	}
	sum, err := fixedpoint.Add(&dst.Balance, amount)
	if err != nil {
		return err
	}
	dst.Balance.Set(sum)
	return s.update(to, dst)
}

// Relock applies f to the account's exposure and resizes its lock to Staked + Delegated.
// The lock is recomputed, never incremented, since one account may be committer and
// delegator at the same time.
func (s *Service) Relock(account capstake.Address, f func(a *Account) error) error {
	a, err := s.Get(account)
	if err != nil {
		return err
	}
	if err := f(a); err != nil {
		return err
	}
	lock, err := fixedpoint.Add(&a.Staked, &a.Delegated)
	if err != nil {
		return err
	}
	if lock.Gt(&a.Balance) {
		return reverts.Insufficient("account %s holds %s, %s must be locked", account, &a.Balance, lock)
	}
	if lock.Gt(&a.Locked) {
		err = s.totalLocked.Add(new(uint256.Int).Sub(lock, &a.Locked))
	} else {
		err = s.totalLocked.Sub(new(uint256.Int).Sub(&a.Locked, lock))
	}
	if err != nil {
		return err
	}
	a.Locked.Set(lock)
	return s.update(account, a)
}
