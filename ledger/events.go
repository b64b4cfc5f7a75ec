// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
)

type EventKind string

const (
	EventPoolCreated         EventKind = "pool-created"
	EventPoolModified        EventKind = "pool-modified"
	EventProcessorPaired     EventKind = "processor-paired"
	EventMetricReported      EventKind = "metric-reported"
	EventBackingOffered      EventKind = "backing-offered"
	EventBackingWithdrawn    EventKind = "backing-withdrawn"
	EventBackingAccepted     EventKind = "backing-accepted"
	EventCommitted           EventKind = "committed"
	EventStakeIncreased      EventKind = "stake-increased"
	EventCooldownStarted     EventKind = "cooldown-started"
	EventCommitmentEnded     EventKind = "commitment-ended"
	EventDelegated           EventKind = "delegated"
	EventDelegationIncreased EventKind = "delegation-increased"
	EventDelegationCooldown  EventKind = "delegation-cooldown"
	EventRedelegated         EventKind = "redelegated"
	EventDelegationEnded     EventKind = "delegation-ended"
	EventScored              EventKind = "scored"
	EventRewarded            EventKind = "rewarded"
	EventSlashed             EventKind = "slashed"
	EventPaid                EventKind = "paid"
	EventCompounded          EventKind = "compounded"
	EventFunded              EventKind = "funded"
	EventManagerFunded       EventKind = "manager-funded"
	EventManagerRewarded     EventKind = "manager-rewarded"
	EventDeposited           EventKind = "deposited"
)

// Event is a notification about a state change. Fields not relevant to a kind are zero.
type Event struct {
	Kind       EventKind
	Height     uint32
	Epoch      capstake.Epoch
	Pool       uint32
	Account    capstake.Address
	Peer       capstake.Address // the other party: committer of a delegation, manager of a backing
	Commitment uint64
	Amount     *uint256.Int
}

func (l *Ledger) emit(ev *Event) {
	ev.Height = l.height
	ev.Epoch = l.cycle.Epoch
	if ev.Amount == nil {
		ev.Amount = new(uint256.Int)
	} else {
		ev.Amount = new(uint256.Int).Set(ev.Amount)
	}
	l.pending = append(l.pending, ev)
}
