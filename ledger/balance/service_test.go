// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package balance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/reverts"
	"github.com/computemarket/capstake/lvldb"
	"github.com/computemarket/capstake/slot"
	"github.com/computemarket/capstake/state"
)

var (
	acc1 = capstake.BytesToAddress([]byte("account1"))
	acc2 = capstake.BytesToAddress([]byte("account2"))
	acc3 = capstake.BytesToAddress([]byte("account3"))
)

func newService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	return New(slot.NewContext(capstake.BytesToAddress([]byte("balance")), state.New(db)))
}

func TestTransfer(t *testing.T) {
	s := newService(t)
	require.NoError(t, s.Mint(acc1, capstake.Units(10)))
	require.NoError(t, s.Transfer(acc1, acc2, capstake.Units(3)))

	a, err := s.Get(acc1)
	require.NoError(t, err)
	assert.Equal(t, capstake.Units(7), &a.Balance)
	b, err := s.Get(acc2)
	require.NoError(t, err)
	assert.True(t, b.Exists)
	assert.Equal(t, capstake.Units(3), &b.Balance)

	err = s.Transfer(acc3, acc1, capstake.Units(1))
	assert.True(t, reverts.Is(err, reverts.NotFound))
	err = s.Transfer(acc2, acc1, capstake.Units(4))
	assert.True(t, reverts.Is(err, reverts.InsufficientFunds))
}

func TestRelock(t *testing.T) {
	s := newService(t)
	require.NoError(t, s.Mint(acc1, capstake.Units(7)))
	require.NoError(t, s.Mint(acc2, capstake.Units(3)))

	require.NoError(t, s.Relock(acc1, func(a *Account) error {
		a.Staked.Set(capstake.Units(5))
		return nil
	}))
	require.NoError(t, s.Relock(acc2, func(a *Account) error {
		a.Delegated.Set(capstake.Units(2))
		return nil
	}))
	total, err := s.TotalLocked()
	require.NoError(t, err)
	assert.Equal(t, capstake.Units(7), total)

	// locked funds can not move
	assert.True(t, reverts.Is(s.Transfer(acc1, acc2, capstake.Units(3)), reverts.InsufficientFunds))
	require.NoError(t, s.Transfer(acc1, acc2, capstake.Units(2)))

	// the lock never exceeds the balance
	err = s.Relock(acc1, func(a *Account) error {
		a.Delegated.Set(capstake.Units(1))
		return nil
	})
	assert.True(t, reverts.Is(err, reverts.InsufficientFunds))

	require.NoError(t, s.Relock(acc1, func(a *Account) error {
		a.Staked.Clear()
		return nil
	}))
	total, err = s.TotalLocked()
	require.NoError(t, err)
	assert.Equal(t, capstake.Units(2), total)

	a, err := s.Get(acc1)
	require.NoError(t, err)
	assert.True(t, a.Locked.IsZero())
	assert.Equal(t, capstake.Units(5), a.Usable())
}
