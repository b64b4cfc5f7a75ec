// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/reverts"
)

// Uint256 is a counter cell. Add and Sub never wrap.
type Uint256 struct {
	context *Context
	pos     capstake.Bytes32
}

func NewUint256(context *Context, pos capstake.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: pos}
}

func (u *Uint256) Get() (*uint256.Int, error) {
	value := new(uint256.Int)
	err := u.context.state.DecodeStorage(u.context.address, u.pos, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, value)
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (u *Uint256) Set(value *uint256.Int) error {
	if value.IsZero() {
		u.context.state.SetRawStorage(u.context.address, u.pos, nil)
		return nil
	}
	return u.context.state.EncodeStorage(u.context.address, u.pos, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

func (u *Uint256) Add(value *uint256.Int) error {
	current, err := u.Get()
	if err != nil {
		return err
	}
	if _, overflow := current.AddOverflow(current, value); overflow {
		return reverts.Overflow("counter add")
	}
	return u.Set(current)
}

func (u *Uint256) Sub(value *uint256.Int) error {
	current, err := u.Get()
	if err != nil {
		return err
	}
	if _, underflow := current.SubOverflow(current, value); underflow {
		return reverts.Overflow("counter sub")
	}
	return u.Set(current)
}
