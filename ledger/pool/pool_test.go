// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

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

func newService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	return New(slot.NewContext(capstake.BytesToAddress([]byte("pools")), state.New(db)))
}

func TestCreate(t *testing.T) {
	s := newService(t)

	cpu, err := s.Create("cpu", 30, Config{}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), cpu)
	gpu, err := s.Create("gpu", 70, Config{}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), gpu)

	_, err = s.Create("cpu", 10, Config{}, 0)
	assert.True(t, reverts.Is(err, reverts.ConfigConflict))
	_, err = s.Create("", 10, Config{}, 0)
	assert.True(t, reverts.Is(err, reverts.PreconditionViolation))

	id, err := s.ByName("gpu")
	require.NoError(t, err)
	assert.Equal(t, gpu, id)
	_, err = s.ByName("storage")
	assert.True(t, reverts.Is(err, reverts.NotFound))
	_, err = s.Get(3)
	assert.True(t, reverts.Is(err, reverts.NotFound))

	ids, err := s.IDs()
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2}, ids)
}

func TestModify(t *testing.T) {
	s := newService(t)
	cpu, err := s.Create("cpu", 30, Config{}, 0)
	require.NoError(t, err)
	gpu, err := s.Create("gpu", 70, Config{}, 0)
	require.NoError(t, err)

	name := "gpu"
	assert.True(t, reverts.Is(s.Modify(cpu, &name, nil, nil, 0), reverts.ConfigConflict))

	name = "compute"
	require.NoError(t, s.Modify(cpu, &name, nil, nil, 0))
	_, err = s.ByName("cpu")
	assert.True(t, reverts.Is(err, reverts.NotFound))
	id, err := s.ByName("compute")
	require.NoError(t, err)
	assert.Equal(t, cpu, id)

	// the epoch after the current one is the earliest a change may take effect
	err = s.Modify(gpu, nil, &RatioChange{Value: 10, From: 3}, nil, 3)
	assert.True(t, reverts.Is(err, reverts.PreconditionViolation))
	require.NoError(t, s.Modify(gpu, nil, &RatioChange{Value: 10, From: 4}, nil, 3))

	shares, err := s.RatioShare(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), shares.Sum)
	shares, err = s.RatioShare(4)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), shares.Sum)
	assert.Equal(t, uint32(10), shares.Ratios[gpu])
	assert.Equal(t, capstake.Units(75), shares.Of(cpu, capstake.Units(100)))
}

func TestTotals(t *testing.T) {
	s := newService(t)
	id, err := s.Create("cpu", 1, Config{}, 0)
	require.NoError(t, err)

	require.NoError(t, s.AddTotals(id, 2, capstake.Units(3), capstake.Units(5)))
	require.NoError(t, s.SubBonus(id, 2, capstake.Units(1)))
	totals, err := s.Totals(id, 2)
	require.NoError(t, err)
	assert.Equal(t, capstake.Units(3), &totals.Total)
	assert.Equal(t, capstake.Units(4), &totals.TotalWithBonus)

	require.NoError(t, s.AddTotals(id, 3, capstake.Units(1), capstake.Units(1)))
	totals, err = s.Totals(id, 2)
	require.NoError(t, err)
	assert.Equal(t, capstake.Units(3), &totals.Total, "previous epoch still readable")

	err = s.AddTotals(id, 2, capstake.Units(1), capstake.Units(1))
	assert.True(t, reverts.Is(err, reverts.Internal))
}
