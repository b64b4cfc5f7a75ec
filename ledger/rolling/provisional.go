// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rolling

import (
	"errors"

	"github.com/computemarket/capstake/capstake"
)

var ErrRetroactive = errors.New("rolling: effective epoch already passed")

// Provisional is a value with at most one scheduled change.
// The value replaced by the last promotion is kept for epochs before ActiveFrom.
type Provisional[T any] struct {
	Previous    T
	ActiveFrom  capstake.Epoch
	Active      T
	PendingFrom capstake.Epoch
	Pending     T
	HasPending  bool
}

func NewProvisional[T any](from capstake.Epoch, value T) Provisional[T] {
	return Provisional[T]{ActiveFrom: from, Active: value, Previous: value}
}

func (p *Provisional[T]) Get(epoch capstake.Epoch) T {
	switch {
	case p.HasPending && epoch >= p.PendingFrom:
		return p.Pending
	case epoch >= p.ActiveFrom:
		return p.Active
	default:
		return p.Previous
	}
}

// Set schedules value from the effective epoch on. An effective epoch before now is
// rejected so a value already used for a computable epoch never changes.
func (p *Provisional[T]) Set(now, effective capstake.Epoch, value T) error {
	if effective < now {
		return ErrRetroactive
	}
	if p.HasPending && p.PendingFrom <= now {
		p.Previous = p.Active
		p.Active = p.Pending
		p.ActiveFrom = p.PendingFrom
	}
	p.Pending = value
	p.PendingFrom = effective
	p.HasPending = true
	return nil
}
