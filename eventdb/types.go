// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger"
)

type RangeType string

const (
	Height RangeType = "height"
	Epoch  RangeType = "epoch"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

type Range struct {
	Unit RangeType `json:"unit"`
	From uint32    `json:"from"`
	To   uint32    `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Criteria of one match group. Nil fields match anything.
type Criteria struct {
	Kind       *ledger.EventKind `json:"kind"`
	Account    *capstake.Address `json:"account"`
	Peer       *capstake.Address `json:"peer"`
	Pool       *uint32           `json:"pool"`
	Commitment *uint64           `json:"commitment"`
}

// Filter matches events in range satisfying any of the criteria.
type Filter struct {
	Range       *Range      `json:"range"`
	CriteriaSet []*Criteria `json:"criteriaSet"`
	Order       Order       `json:"order"`
	Options     *Options    `json:"options"`
}

// Event is a stored ledger event. Seq orders events across operations.
type Event struct {
	Seq uint64
	ledger.Event
}
