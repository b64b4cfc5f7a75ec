// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/config"
	"github.com/computemarket/capstake/ledger/balance"
	"github.com/computemarket/capstake/ledger/commitment"
	"github.com/computemarket/capstake/ledger/delegation"
	"github.com/computemarket/capstake/ledger/identity"
	"github.com/computemarket/capstake/ledger/metric"
	"github.com/computemarket/capstake/ledger/pool"
	"github.com/computemarket/capstake/ledger/processor"
	"github.com/computemarket/capstake/ledger/reward"
	"github.com/computemarket/capstake/log"
	"github.com/computemarket/capstake/slot"
	"github.com/computemarket/capstake/state"
)

var (
	logger = log.WithContext("pkg", "ledger")

	// storage namespaces
	ledgerAddress   = capstake.BytesToAddress([]byte("capstake-ledger"))
	balanceAddress  = capstake.BytesToAddress([]byte("capstake-balance"))
	identityAddress = capstake.BytesToAddress([]byte("capstake-identity"))
)

// Clock supplies the current height.
type Clock interface {
	Height() uint32
}

// EventSink receives the events of every successful operation, in order.
type EventSink interface {
	Deliver(events []*Event) error
}

// Balances keeps token balances and the locks held by stakes.
type Balances interface {
	Get(account capstake.Address) (*balance.Account, error)
	Mint(account capstake.Address, amount *uint256.Int) error
	Transfer(from, to capstake.Address, amount *uint256.Int) error
	Relock(account capstake.Address, f func(a *balance.Account) error) error
	TotalLocked() (*uint256.Int, error)
}

// Identities maps accounts to commitment and manager ids and tracks backings.
type Identities interface {
	CommitmentID(committer capstake.Address) (uint64, error)
	EnsureCommitmentID(committer capstake.Address) (uint64, bool, error)
	Committer(id uint64) (capstake.Address, error)
	ManagerID(manager capstake.Address) (uint64, error)
	Manager(id uint64) (capstake.Address, error)
	PairProcessor(manager, processor capstake.Address) (uint64, error)
	ProcessorManager(processor capstake.Address) (uint64, error)
	Offer(manager uint64, committer capstake.Address) error
	HasOffer(manager uint64, committer capstake.Address) (bool, error)
	RemoveOffer(manager uint64, committer capstake.Address)
	Backing(manager uint64) (uint64, error)
	Bind(manager, commitment uint64) error
	Unbind(manager uint64)
}

type Option func(*Ledger)

// WithBalances replaces the state backed balance keeper.
func WithBalances(b Balances) Option {
	return func(l *Ledger) { l.balances = b }
}

// WithIdentities replaces the state backed identity registry.
func WithIdentities(i Identities) Option {
	return func(l *Ledger) { l.identities = i }
}

func WithEventSink(sink EventSink) Option {
	return func(l *Ledger) { l.sink = sink }
}

// Ledger implements the staking operations on top of a state.
// It is not safe for concurrent use.
type Ledger struct {
	params *config.Params
	state  *state.State
	clock  Clock
	sink   EventSink

	pools       *pool.Service
	processors  *processor.Service
	metrics     *metric.Service
	commitments *commitment.Service
	delegations *delegation.Service
	rewards     *reward.Service
	balances    Balances
	identities  Identities

	// set for the duration of one operation
	height  uint32
	cycle   capstake.Cycle
	pending []*Event

	deliveryFailures uint64
}

// New create a new instance.
func New(st *state.State, params *config.Params, clock Clock, opts ...Option) *Ledger {
	sctx := slot.NewContext(ledgerAddress, st)
	l := &Ledger{
		params:      params,
		state:       st,
		clock:       clock,
		pools:       pool.New(sctx),
		processors:  processor.New(sctx),
		metrics:     metric.New(sctx),
		commitments: commitment.New(sctx),
		delegations: delegation.New(sctx),
		rewards:     reward.New(sctx),
		balances:    balance.New(slot.NewContext(balanceAddress, st)),
		identities:  identity.New(slot.NewContext(identityAddress, st)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Params() *config.Params {
	return l.params
}

// DeliveryFailures returns how many committed operations had their events
// rejected by the sink. A non-zero value means the sink lags the state.
func (l *Ledger) DeliveryFailures() uint64 {
	return l.deliveryFailures
}

// atomic runs one operation. On error every state change is reverted and the buffered
// events are dropped, otherwise the events are handed to the sink.
func (l *Ledger) atomic(op string, f func() error) error {
	l.height = l.clock.Height()
	l.cycle = capstake.CycleAt(l.height, l.params.EpochLength)
	l.pending = nil

	checkpoint := l.state.NewCheckpoint()
	if err := f(); err != nil {
		l.state.RevertTo(checkpoint)
		l.pending = nil
		metricOpsCount().AddWithLabel(1, map[string]string{"op": op, "result": "reverted"})
		return err
	}
	metricOpsCount().AddWithLabel(1, map[string]string{"op": op, "result": "ok"})

	events := l.pending
	l.pending = nil
	for _, ev := range events {
		metricEventsCount().AddWithLabel(1, map[string]string{"kind": string(ev.Kind)})
	}
	if locked, err := l.balances.TotalLocked(); err == nil {
		metricLockedUnits().Set(unitsOf(locked))
	}
	if l.sink != nil && len(events) > 0 {
		if err := l.sink.Deliver(events); err != nil {
			l.deliveryFailures++
			metricSinkFailures().AddWithLabel(1, map[string]string{"op": op})
			logger.Warn("failed to deliver events", "op", op, "count", len(events), "error", err)
		}
	}
	return nil
}

// unitsOf truncates a fixed-point amount to whole units for gauges.
func unitsOf(v *uint256.Int) int64 {
	units := new(uint256.Int).Div(v, capstake.Scale)
	if !units.IsUint64() || units.Uint64() > 1<<62 {
		return 1 << 62
	}
	return int64(units.Uint64())
}
