// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/reverts"
	"github.com/computemarket/capstake/lvldb"
	"github.com/computemarket/capstake/state"
)

type testStruct struct {
	Field1 uint64
	Amount uint256.Int
	Addr   capstake.Address
}

func newTestContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	return NewContext(capstake.Address{1}, state.New(db))
}

func TestMapping(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[capstake.Uint32Key, *testStruct](ctx, Position("test"))

	v, err := m.Get(1)
	require.NoError(t, err)
	require.NotNil(t, v, "absent pointer values are allocated")
	assert.Equal(t, uint64(0), v.Field1)

	assert.Error(t, m.Update(1, &testStruct{Field1: 1}))

	in := &testStruct{Field1: 5, Addr: capstake.Address{9}}
	in.Amount.SetUint64(77)
	require.NoError(t, m.Insert(1, in))
	assert.Error(t, m.Insert(1, in))

	got, err := m.Get(1)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	in.Field1 = 6
	require.NoError(t, m.Update(1, in))
	got, err = m.Get(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), got.Field1)

	m.Delete(1)
	ok, err := m.Exists(1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMappingsDoNotCollide(t *testing.T) {
	ctx := newTestContext(t)
	a := NewMapping[capstake.Uint32Key, uint64](ctx, Position("a"))
	b := NewMapping[capstake.Uint32Key, uint64](ctx, Position("b"))

	require.NoError(t, a.Upsert(1, 10))
	require.NoError(t, b.Upsert(1, 20))

	va, err := a.Get(1)
	require.NoError(t, err)
	vb, err := b.Get(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), va)
	assert.Equal(t, uint64(20), vb)
}

func TestRaw(t *testing.T) {
	ctx := newTestContext(t)
	r := NewRaw[uint64](ctx, Position("counter"))

	v, err := r.Get()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)

	require.NoError(t, r.Upsert(3))
	v, err = r.Get()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)
}

func TestUint256(t *testing.T) {
	ctx := newTestContext(t)
	u := NewUint256(ctx, Position("total"))

	require.NoError(t, u.Add(uint256.NewInt(10)))
	require.NoError(t, u.Sub(uint256.NewInt(4)))
	v, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(6), v)

	err = u.Sub(uint256.NewInt(7))
	assert.True(t, reverts.Is(err, reverts.ArithmeticOverflow))

	require.NoError(t, u.Set(new(uint256.Int)))
	v, err = u.Get()
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}
