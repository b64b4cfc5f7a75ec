// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package slot provides typed storage cells over state. Every cell lives in the
// namespace of an account and is addressed by a 32-byte position.
package slot

import (
	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/state"
)

type Context struct {
	address capstake.Address
	state   *state.State
}

func NewContext(address capstake.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) State() *state.State {
	return c.state
}

func (c *Context) Address() capstake.Address {
	return c.address
}

// Position derives the storage position of a named cell.
func Position(name string) capstake.Bytes32 {
	return capstake.Blake2b([]byte(name))
}
