// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package capstake

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	v, err := ParseUnits("12.5")
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(12_500_000_000_000_000_000), v)

	v, err = ParseUnits(".000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1), v)

	v, err = ParseUnits("0")
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	_, err = ParseUnits("1.0000000000000000001")
	assert.Error(t, err)
	_, err = ParseUnits("1e3")
	assert.Error(t, err)
	_, err = ParseUnits("")
	assert.Error(t, err)
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "12.5", FormatUnits(uint256.NewInt(12_500_000_000_000_000_000)))
	assert.Equal(t, "0.000000000000000001", FormatUnits(uint256.NewInt(1)))
	assert.Equal(t, "0", FormatUnits(new(uint256.Int)))
	assert.Equal(t, "3", FormatUnits(Units(3)))
}

func TestCycle(t *testing.T) {
	c := CycleAt(250, 100)
	assert.Equal(t, Cycle{Epoch: 2, Start: 200}, c)
	sealed, ok := c.Sealed()
	assert.True(t, ok)
	assert.Equal(t, Epoch(1), sealed)

	_, ok = CycleAt(99, 100).Sealed()
	assert.False(t, ok)
}
