// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/lvldb"
)

func TestCheckpointRevert(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := New(db)

	addr := capstake.BytesToAddress([]byte("ledger"))
	key := capstake.BytesToBytes32([]byte("slot"))

	st.SetRawStorage(addr, key, rlp.RawValue{0x01})
	cp := st.NewCheckpoint()
	st.SetRawStorage(addr, key, rlp.RawValue{0x02})

	v, err := st.GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, rlp.RawValue{0x02}, v)

	st.RevertTo(cp)
	v, err = st.GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, rlp.RawValue{0x01}, v)
}

func TestCommit(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := New(db)

	addr := capstake.BytesToAddress([]byte("ledger"))
	k1 := capstake.BytesToBytes32([]byte("a"))
	k2 := capstake.BytesToBytes32([]byte("b"))

	st.SetRawStorage(addr, k1, rlp.RawValue{0x01})
	st.SetRawStorage(addr, k2, rlp.RawValue{0x02})
	st.SetRawStorage(addr, k1, rlp.RawValue{0x03})
	assert.Equal(t, 3, st.Dirty())

	require.NoError(t, st.Commit())
	assert.Equal(t, 0, st.Dirty())

	// a fresh state over the same store sees the committed values
	fresh := New(db)
	v, err := fresh.GetRawStorage(addr, k1)
	require.NoError(t, err)
	assert.Equal(t, rlp.RawValue{0x03}, v)

	st.SetRawStorage(addr, k2, nil)
	require.NoError(t, st.Commit())

	fresh = New(db)
	v, err = fresh.GetRawStorage(addr, k2)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestDecodeStorage(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := New(db)

	addr := capstake.BytesToAddress([]byte("ledger"))
	key := capstake.BytesToBytes32([]byte("n"))

	require.NoError(t, st.EncodeStorage(addr, key, func() ([]byte, error) {
		return rlp.EncodeToBytes(uint64(42))
	}))

	var n uint64
	require.NoError(t, st.DecodeStorage(addr, key, func(raw []byte) error {
		return rlp.DecodeBytes(raw, &n)
	}))
	assert.Equal(t, uint64(42), n)

	err = st.DecodeStorage(addr, key, func(raw []byte) error {
		var s struct{ A, B uint64 }
		return rlp.DecodeBytes(raw, &s)
	})
	var serr *Error
	assert.ErrorAs(t, err, &serr)
}
