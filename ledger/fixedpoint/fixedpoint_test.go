// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fixedpoint

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/reverts"
)

func TestOverflowIsReported(t *testing.T) {
	max := new(uint256.Int).SetAllOne()

	_, err := Add(max, uint256.NewInt(1))
	assert.True(t, reverts.Is(err, reverts.ArithmeticOverflow))

	_, err = Sub(uint256.NewInt(1), uint256.NewInt(2))
	assert.True(t, reverts.Is(err, reverts.ArithmeticOverflow))

	_, err = Mul(max, uint256.NewInt(2))
	assert.True(t, reverts.Is(err, reverts.ArithmeticOverflow))

	_, err = Sum(max, uint256.NewInt(1))
	assert.True(t, reverts.Is(err, reverts.ArithmeticOverflow))
}

func TestMulDivWideIntermediate(t *testing.T) {
	// max * 2 / 4 needs 257 bits in the middle
	max := new(uint256.Int).SetAllOne()
	z, err := MulDiv(max, uint256.NewInt(2), uint256.NewInt(4))
	require.NoError(t, err)
	assert.Equal(t, new(uint256.Int).Rsh(max, 1), z)

	_, err = MulDiv(max, uint256.NewInt(2), uint256.NewInt(1))
	assert.True(t, reverts.Is(err, reverts.ArithmeticOverflow))

	z, err = MulDiv(max, max, new(uint256.Int))
	require.NoError(t, err)
	assert.True(t, z.IsZero())
}

func TestScaled(t *testing.T) {
	half, err := DivScaled(capstake.Units(1), capstake.Units(2))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(500_000_000_000_000_000), half)

	q, err := MulScaled(half, capstake.Units(3))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1_500_000_000_000_000_000), q)

	tenth, err := MulBps(capstake.Units(1), 1_000)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(100_000_000_000_000_000), tenth)
}

func TestSqrtProduct(t *testing.T) {
	// sqrt(4 * 9) = 6 in fixed point
	z, err := SqrtProduct(capstake.Units(4), capstake.Units(9))
	require.NoError(t, err)
	assert.Equal(t, capstake.Units(6), z)
}

func TestMinSubFloor(t *testing.T) {
	a, b := uint256.NewInt(3), uint256.NewInt(5)
	assert.Equal(t, a, Min(a, b))
	assert.Equal(t, a, Min(b, a))
	assert.True(t, SubFloor(a, b).IsZero())
	assert.Equal(t, uint256.NewInt(2), SubFloor(b, a))
}
