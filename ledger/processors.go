// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/fixedpoint"
	"github.com/computemarket/capstake/ledger/metric"
	"github.com/computemarket/capstake/ledger/processor"
	"github.com/computemarket/capstake/ledger/reverts"
)

// PairProcessor lets a processor report for the manager.
func (l *Ledger) PairProcessor(manager, processor capstake.Address) error {
	return l.atomic("pair-processor", func() error {
		if manager.IsZero() || processor.IsZero() {
			return reverts.Precondition("zero address")
		}
		id, err := l.identities.PairProcessor(manager, processor)
		if err != nil {
			return err
		}
		logger.Debug("paired processor", "manager", manager, "id", id, "processor", processor)
		l.emit(&Event{Kind: EventProcessorPaired, Account: processor, Peer: manager})
		return nil
	})
}

// Report records a processor's measurements for the current epoch.
//
// The commitment backing the processor's manager is settled first, so the epoch that
// just sealed is scored before the new values land. The processor's reward share of
// that sealed epoch is claimed before folding, while its metric commits still describe it.
func (l *Ledger) Report(processorAddr capstake.Address, samples []metric.Sample) error {
	return l.atomic("report", func() error {
		managerID, err := l.identities.ProcessorManager(processorAddr)
		if err != nil {
			return err
		}
		ids, err := l.pools.IDs()
		if err != nil {
			return err
		}
		for _, s := range samples {
			if _, err := l.pools.Get(s.Pool); err != nil {
				return err
			}
			if s.Value == nil {
				return reverts.Precondition("pool %d: missing value", s.Pool)
			}
		}

		commitmentID, err := l.identities.Backing(managerID)
		if err != nil {
			return err
		}
		if commitmentID != 0 {
			c, err := l.commitments.Get(commitmentID)
			if err != nil {
				return err
			}
			if err := l.settle(commitmentID, c); err != nil {
				return err
			}
			if err := l.commitments.Update(commitmentID, c); err != nil {
				return err
			}
		}

		st, active, err := l.processors.Heartbeat(processorAddr, l.height, l.params.EpochLength, l.params.WarmupPeriod)
		if err != nil {
			return err
		}
		if err := l.claimProcessorReward(processorAddr, st, ids); err != nil {
			return err
		}
		if err := l.processors.Update(processorAddr, st); err != nil {
			return err
		}

		settled, err := l.metrics.Report(processorAddr, managerID, l.cycle.Epoch, active, samples, ids, l.params.MetricValidity, l.pools)
		if err != nil {
			logger.Info("report failed", "processor", processorAddr, "error", err)
			return err
		}
		for _, s := range settled {
			if s.Reused {
				continue
			}
			l.emit(&Event{Kind: EventMetricReported, Pool: s.Pool, Account: processorAddr, Amount: s.Value})
		}
		logger.Debug("reported", "processor", processorAddr, "manager", managerID, "settled", len(settled), "active", active)
		return nil
	})
}

// claimProcessorReward credits the processor's share of the flat per-epoch reward of the
// sealed epoch: per pool, its value relative to the pool's bonus adjusted total.
// The share is claimable only during the epoch right after the one reported in; once a
// processor skips that epoch the totals it was measured against have rolled and the
// share is forfeited.
func (l *Ledger) claimProcessorReward(addr capstake.Address, st *processor.State, ids []uint32) error {
	sealed, ok := l.cycle.Sealed()
	if !ok || st.LastClaimedEpoch == l.cycle.Epoch {
		return nil
	}
	st.LastClaimedEpoch = l.cycle.Epoch

	shares, err := l.metrics.ClaimShares(addr, ids, sealed)
	if err != nil || len(shares) == 0 {
		return err
	}
	ratios, err := l.pools.RatioShare(sealed)
	if err != nil {
		return err
	}
	total := new(uint256.Int)
	for _, id := range ids {
		value, ok := shares[id]
		if !ok {
			continue
		}
		totals, err := l.pools.Totals(id, sealed)
		if err != nil {
			return err
		}
		part, err := fixedpoint.MulDiv(ratios.Of(id, l.params.ManagerRewardPerEpoch.Value()), value, &totals.TotalWithBonus)
		if err != nil {
			return err
		}
		if total, err = fixedpoint.Add(total, part); err != nil {
			return err
		}
	}
	accrued, err := fixedpoint.Add(&st.Accrued, total)
	if err != nil {
		return err
	}
	st.Accrued.Set(accrued)
	return nil
}

// WithdrawManagerReward pays a processor's accrued reward to its manager from the
// manager reward reserve.
func (l *Ledger) WithdrawManagerReward(manager, processorAddr capstake.Address) error {
	return l.atomic("withdraw-manager-reward", func() error {
		owner, err := l.identities.ProcessorManager(processorAddr)
		if err != nil {
			return err
		}
		managerID, err := l.identities.ManagerID(manager)
		if err != nil {
			return err
		}
		if managerID == 0 || managerID != owner {
			return reverts.Precondition("processor %s is not paired with %s", processorAddr, manager)
		}
		st, err := l.processors.Get(processorAddr)
		if err != nil {
			return err
		}
		amount := st.Claimable()
		if amount.IsZero() {
			return nil
		}
		if err := l.rewards.TakeReserve(amount); err != nil {
			return err
		}
		paid, err := fixedpoint.Add(&st.Paid, amount)
		if err != nil {
			return err
		}
		st.Paid.Set(paid)
		if err := l.processors.Update(processorAddr, st); err != nil {
			return err
		}
		if err := l.balances.Transfer(l.params.Vault, manager, amount); err != nil {
			return err
		}
		l.emit(&Event{Kind: EventManagerRewarded, Account: manager, Peer: processorAddr, Amount: amount})
		return nil
	})
}
