// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/reverts"
	"github.com/computemarket/capstake/ledger/stakes"
	"github.com/computemarket/capstake/lvldb"
	"github.com/computemarket/capstake/slot"
	"github.com/computemarket/capstake/state"
)

func TestSync(t *testing.T) {
	d := &Delegation{Stake: *stakes.New(capstake.Units(10), 0, 1000, false)}
	require.NoError(t, d.Reweigh(1000))
	acc := &stakes.Accumulator{}
	require.NoError(t, d.Snapshot(acc))

	// 0.5 reward and 0.1 slash per unit of weight
	acc.RewardPerWeight.Div(capstake.Units(1), uint256.NewInt(2))
	acc.SlashPerWeight.Div(capstake.Units(1), uint256.NewInt(10))
	require.NoError(t, d.Sync(acc))
	assert.Equal(t, capstake.Units(5), &d.Stake.AccruedReward)
	assert.Equal(t, capstake.Units(1), &d.Stake.AccruedSlash)

	// nothing new accrued
	require.NoError(t, d.Sync(acc))
	assert.Equal(t, capstake.Units(5), &d.Stake.AccruedReward)

	// the slash never exceeds the stake
	acc.SlashPerWeight.Set(capstake.Units(5))
	require.NoError(t, d.Sync(acc))
	assert.Equal(t, capstake.Units(10), &d.Stake.AccruedSlash)
}

func TestService(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	s := New(slot.NewContext(capstake.BytesToAddress([]byte("delegations")), state.New(db)))
	alice := capstake.BytesToAddress([]byte("alice"))

	_, err = s.GetDelegation(alice, 1)
	assert.True(t, reverts.Is(err, reverts.NotFound))

	d := &Delegation{Stake: *stakes.New(capstake.Units(3), 0, 100, false), Generation: 1}
	require.NoError(t, s.Add(alice, 1, d))
	assert.True(t, reverts.Is(s.Add(alice, 1, d), reverts.PreconditionViolation))

	d.RedelegateAfter = 77
	require.NoError(t, s.Update(alice, 1, d))
	got, err := s.GetDelegation(alice, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(77), got.RedelegateAfter)
	assert.Equal(t, capstake.Units(3), &got.Stake.Amount)

	s.Remove(alice, 1)
	ok, err := s.Exists(alice, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHoldResolve(t *testing.T) {
	d := &Delegation{Stake: *stakes.New(capstake.Units(10), 0, 1000, false)}
	require.NoError(t, d.Reweigh(1000))
	acc := &stakes.Accumulator{}
	acc.RewardPerWeight.Div(capstake.Units(1), uint256.NewInt(2))
	require.NoError(t, d.Snapshot(acc))

	d.Hold(1, &d.RewardWeight, acc)
	// the first weight held for the epoch is kept
	d.Hold(1, new(uint256.Int), acc)
	require.NotNil(t, d.Pending)
	assert.Equal(t, capstake.Units(10), &d.Pending.Weight)

	require.NoError(t, d.Stake.AddAmount(capstake.Units(10)))
	require.NoError(t, d.Reweigh(1000))
	require.NoError(t, d.Snapshot(acc))

	// the held epoch lifted the reward per weight from 0.5 to 0.8
	checkpoint := new(uint256.Int).Div(capstake.Units(8), uint256.NewInt(10))
	require.NoError(t, d.Resolve(checkpoint))
	assert.Nil(t, d.Pending)
	assert.Equal(t, capstake.Units(3), &d.Stake.AccruedReward)

	// later pushes pay the new weight
	acc.RewardPerWeight.Set(capstake.Units(1))
	require.NoError(t, d.Sync(acc))
	assert.Equal(t, capstake.Units(7), &d.Stake.AccruedReward)
}

func TestClaims(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	s := New(slot.NewContext(capstake.BytesToAddress([]byte("delegations")), state.New(db)))
	bob := capstake.BytesToAddress([]byte("bob"))

	claim, err := s.GetClaim(bob, 1)
	require.NoError(t, err)
	assert.Nil(t, claim)

	c := &Claim{Generation: 2, Pending: Pending{Epoch: 4}}
	c.Pending.Weight.Set(capstake.Units(5))
	require.NoError(t, s.SetClaim(bob, 1, c))
	claim, err = s.GetClaim(bob, 1)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, uint32(2), claim.Generation)
	assert.Equal(t, uint32(4), claim.Pending.Epoch)
	assert.Equal(t, capstake.Units(5), &claim.Pending.Weight)

	s.RemoveClaim(bob, 1)
	claim, err = s.GetClaim(bob, 1)
	require.NoError(t, err)
	assert.Nil(t, claim)
}
