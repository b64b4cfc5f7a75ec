// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/balance"
	"github.com/computemarket/capstake/ledger/commitment"
	"github.com/computemarket/capstake/ledger/delegation"
	"github.com/computemarket/capstake/ledger/metric"
	"github.com/computemarket/capstake/ledger/pool"
	"github.com/computemarket/capstake/ledger/processor"
	"github.com/computemarket/capstake/ledger/reward"
)

// Height returns the clock's current height.
func (l *Ledger) Height() uint32 {
	return l.clock.Height()
}

// Cycle returns the cycle of the clock's current height.
func (l *Ledger) Cycle() capstake.Cycle {
	return capstake.CycleAt(l.clock.Height(), l.params.EpochLength)
}

func (l *Ledger) Pool(id uint32) (*pool.Pool, error) {
	return l.pools.Get(id)
}

func (l *Ledger) PoolByName(name string) (*pool.Pool, error) {
	id, err := l.pools.ByName(name)
	if err != nil {
		return nil, err
	}
	return l.pools.Get(id)
}

func (l *Ledger) PoolIDs() ([]uint32, error) {
	return l.pools.IDs()
}

// PoolTotals returns the active metric totals of a pool at epoch.
func (l *Ledger) PoolTotals(id uint32, epoch capstake.Epoch) (pool.Totals, error) {
	if _, err := l.pools.Get(id); err != nil {
		return pool.Totals{}, err
	}
	return l.pools.Totals(id, epoch)
}

func (l *Ledger) Budget(poolID uint32, epoch capstake.Epoch) (*reward.Budget, error) {
	if _, err := l.pools.Get(poolID); err != nil {
		return nil, err
	}
	return l.rewards.Budget(poolID, epoch)
}

func (l *Ledger) Processor(addr capstake.Address) (*processor.State, error) {
	return l.processors.Get(addr)
}

// MetricCommit returns the last value a processor reported for a pool.
func (l *Ledger) MetricCommit(addr capstake.Address, poolID uint32) (*metric.Commit, error) {
	return l.metrics.Commit(addr, poolID)
}

// ManagerOf returns the manager account a processor is paired with.
func (l *Ledger) ManagerOf(processorAddr capstake.Address) (capstake.Address, error) {
	id, err := l.identities.ProcessorManager(processorAddr)
	if err != nil {
		return capstake.Address{}, err
	}
	return l.identities.Manager(id)
}

func (l *Ledger) Commitment(committer capstake.Address) (uint64, *commitment.Commitment, error) {
	return l.commitmentOf(committer)
}

func (l *Ledger) Declared(committer capstake.Address, poolID uint32) (*uint256.Int, error) {
	id, _, err := l.commitmentOf(committer)
	if err != nil {
		return nil, err
	}
	return l.commitments.Declared(id, poolID)
}

func (l *Ledger) Score(committer capstake.Address, poolID uint32, epoch capstake.Epoch) (*reward.Score, error) {
	id, _, err := l.commitmentOf(committer)
	if err != nil {
		return nil, err
	}
	return l.rewards.Score(id, poolID, epoch)
}

// Delegation returns the delegation with every reward and slash distributed so far
// credited. Nothing is written.
func (l *Ledger) Delegation(delegator, committer capstake.Address) (*delegation.Delegation, error) {
	id, c, d, err := l.delegationOf(delegator, committer)
	if err != nil {
		return nil, err
	}
	if err := l.syncDelegation(id, c, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Claim returns the share a delegator is owed for a scored epoch of the committer's
// commitment it left before distribution, nil if none.
func (l *Ledger) Claim(delegator, committer capstake.Address) (*delegation.Claim, error) {
	id, _, err := l.commitmentOf(committer)
	if err != nil {
		return nil, err
	}
	return l.delegations.GetClaim(delegator, id)
}

func (l *Ledger) Account(addr capstake.Address) (*balance.Account, error) {
	return l.balances.Get(addr)
}

func (l *Ledger) TotalLocked() (*uint256.Int, error) {
	return l.balances.TotalLocked()
}

// ManagerRewardReserve is what is left to pay processor rewards from.
func (l *Ledger) ManagerRewardReserve() (*uint256.Int, error) {
	return l.rewards.Reserve()
}
