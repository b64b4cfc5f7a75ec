// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/eventdb"
)

type FilteredEvent struct {
	Seq        uint64           `json:"seq"`
	Kind       string           `json:"kind"`
	Height     uint32           `json:"height"`
	Epoch      capstake.Epoch   `json:"epoch"`
	Pool       uint32           `json:"pool,omitempty"`
	Account    capstake.Address `json:"account"`
	Peer       capstake.Address `json:"peer"`
	Commitment uint64           `json:"commitment,omitempty"`
	Amount     string           `json:"amount"`
}

func convertEvent(e *eventdb.Event) *FilteredEvent {
	return &FilteredEvent{
		Seq:        e.Seq,
		Kind:       string(e.Kind),
		Height:     e.Height,
		Epoch:      e.Epoch,
		Pool:       e.Pool,
		Account:    e.Account,
		Peer:       e.Peer,
		Commitment: e.Commitment,
		Amount:     e.Amount.Dec(),
	}
}
