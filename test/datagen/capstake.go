// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"

	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
)

func RandomAddress() (addr capstake.Address) {
	rand.Read(addr[:])
	return
}

func RandomBytes32() (b capstake.Bytes32) {
	rand.Read(b[:])
	return
}

// RandomUnits returns a fixed-point amount in [0, maxUnits) whole units with a random fraction.
func RandomUnits(maxUnits uint64) *uint256.Int {
	whole := capstake.Units(uint64(RandIntN(int(maxUnits))))
	frac := uint256.NewInt(mathRandUint64() % capstake.Scale.Uint64())
	return whole.Add(whole, frac)
}
