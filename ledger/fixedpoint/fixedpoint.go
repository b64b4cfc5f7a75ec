// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fixedpoint is overflow checked arithmetic on 18 decimal fixed-point
// values. Every result is a fresh allocation; operands are never modified.
package fixedpoint

import (
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/reverts"
)

func Add(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, reverts.Overflow("add")
	}
	return z, nil
}

func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, reverts.Overflow("sub")
	}
	return z, nil
}

func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, reverts.Overflow("mul")
	}
	return z, nil
}

// MulDiv returns a*b/d with a 512-bit intermediate product. Division by zero yields zero.
func MulDiv(a, b, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return new(uint256.Int), nil
	}
	z, overflow := new(uint256.Int).MulDivOverflow(a, b, d)
	if overflow {
		return nil, reverts.Overflow("muldiv")
	}
	return z, nil
}

// MulBps scales a by a basis point ratio.
func MulBps(a *uint256.Int, bps uint32) (*uint256.Int, error) {
	return MulDiv(a, uint256.NewInt(uint64(bps)), uint256.NewInt(capstake.BasisPoints))
}

// MulScaled multiplies two fixed-point values.
func MulScaled(a, b *uint256.Int) (*uint256.Int, error) {
	return MulDiv(a, b, capstake.Scale)
}

// DivScaled divides two fixed-point values.
func DivScaled(a, b *uint256.Int) (*uint256.Int, error) {
	return MulDiv(a, capstake.Scale, b)
}

// SqrtProduct is the fixed-point square root of a*b, floor(sqrt(a*b)).
func SqrtProduct(a, b *uint256.Int) (*uint256.Int, error) {
	p, err := Mul(a, b)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Sqrt(p), nil
}

func Min(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return new(uint256.Int).Set(a)
	}
	return new(uint256.Int).Set(b)
}

// SubFloor returns max(0, a-b).
func SubFloor(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(a, b)
}

// Sum adds all values.
func Sum(values ...*uint256.Int) (*uint256.Int, error) {
	total := new(uint256.Int)
	for _, v := range values {
		if _, overflow := total.AddOverflow(total, v); overflow {
			return nil, reverts.Overflow("sum")
		}
	}
	return total, nil
}
