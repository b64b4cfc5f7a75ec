// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import "github.com/computemarket/capstake/metrics"

var (
	metricOpsCount    = metrics.LazyLoadCounterVec("ledger_ops_count", []string{"op", "result"})
	metricEventsCount = metrics.LazyLoadCounterVec("ledger_events_count", []string{"kind"})
	metricLockedUnits = metrics.LazyLoadGauge("ledger_locked_units")

	metricSinkFailures = metrics.LazyLoadCounterVec("ledger_event_sink_failures_count", []string{"op"})
)
