// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reward

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

func TestComputeScore(t *testing.T) {
	units := capstake.Units

	// sqrt(4 * 9) = 6, far below the cap
	s, err := ComputeScore(units(4), units(5), units(4), units(9), units(1), units(1000))
	require.NoError(t, err)
	assert.Equal(t, units(6), &s.Score)
	assert.Equal(t, units(6), &s.ScoreWithBonus)

	// the measured value bounds the fulfilled compute
	s, err = ComputeScore(units(4), units(1), units(1), units(9), units(1), units(1000))
	require.NoError(t, err)
	assert.Equal(t, units(3), &s.Score)

	// the target caps the amplification
	s, err = ComputeScore(units(4), units(4), units(4), units(9), units(1), units(1))
	require.NoError(t, err)
	assert.Equal(t, units(4), &s.Score)

	// bonus metric above the commitment earns sqrt(x * self weight)
	s, err = ComputeScore(units(4), units(4), units(8), units(9), units(4), units(1000))
	require.NoError(t, err)
	assert.Equal(t, units(6), &s.Score)
	assert.Equal(t, units(10), &s.ScoreWithBonus)
}

func TestSplitReward(t *testing.T) {
	units := capstake.Units
	score := &Score{}
	score.Score.Set(units(8))
	score.ScoreWithBonus.Set(units(10))
	budget := &Budget{}
	budget.Total.Set(units(100))
	budget.TotalScore.Set(units(20))
	w := &stakes.Weights{}
	w.SelfReward.Set(units(1))
	w.DelegationsReward.Set(units(3))

	split, err := SplitReward(score, budget, w, 1000)
	require.NoError(t, err)
	assert.Equal(t, units(50), split.Total)
	assert.Equal(t, units(10), split.Bonus)
	assert.Equal(t, units(3), split.Commission)
	assert.Equal(t, units(27), split.Delegations)
	// 10 base + 3 commission + 10 bonus
	assert.Equal(t, units(23), split.Self)
	assert.Equal(t, split.Total, new(uint256.Int).Add(split.Self, split.Delegations))
}

func TestSlashAmount(t *testing.T) {
	units := capstake.Units

	// 1% of 100, half the ratio, a quarter short, two epochs
	v, err := SlashAmount(units(100), 100, 50, 100, units(4), units(3), 2)
	require.NoError(t, err)
	assert.Equal(t, new(uint256.Int).Div(units(1), uint256.NewInt(4)), v)

	v, err = SlashAmount(units(100), 100, 50, 100, units(4), units(5), 2)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	v, err = SlashAmount(units(100), 100, 50, 0, units(4), units(0), 1)
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}

func newService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	return New(slot.NewContext(capstake.BytesToAddress([]byte("reward")), state.New(db)))
}

func TestBudgetService(t *testing.T) {
	s := newService(t)

	require.NoError(t, s.Fund(1, 3, capstake.Units(10)))
	require.NoError(t, s.AddScore(1, 3, capstake.Units(2), capstake.Units(7)))
	require.NoError(t, s.AddScore(1, 3, capstake.Units(1), capstake.Units(9)))

	b, err := s.Budget(1, 3)
	require.NoError(t, err)
	assert.Equal(t, capstake.Units(10), &b.Total)
	assert.Equal(t, capstake.Units(3), &b.TotalScore)
	assert.Equal(t, capstake.Units(7), &b.TargetWeightPerCompute, "first score snapshots the target")

	require.NoError(t, s.Consume(1, 3, capstake.Units(6)))
	err = s.Consume(1, 3, capstake.Units(5))
	assert.True(t, reverts.Is(err, reverts.Internal))
}

func TestScoreBuffer(t *testing.T) {
	s := newService(t)
	score := &Score{}
	score.Score.Set(capstake.Units(1))
	score.ScoreWithBonus.Set(capstake.Units(2))

	require.NoError(t, s.SetScore(7, 1, 4, score))
	got, err := s.Score(7, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, score, got)

	got, err = s.Score(7, 1, 6)
	require.NoError(t, err)
	assert.True(t, got.ScoreWithBonus.IsZero())

	assert.Error(t, s.SetScore(7, 1, 3, score))
}

func TestReserve(t *testing.T) {
	s := newService(t)
	require.NoError(t, s.AddReserve(capstake.Units(2)))
	assert.True(t, reverts.Is(s.TakeReserve(capstake.Units(3)), reverts.InsufficientFunds))
	require.NoError(t, s.TakeReserve(capstake.Units(2)))
	r, err := s.Reserve()
	require.NoError(t, err)
	assert.True(t, r.IsZero())
}
