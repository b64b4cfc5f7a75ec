// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/computemarket/capstake/eventdb"
	"github.com/computemarket/capstake/ledger"
)

type Status struct {
	Healthy bool      `json:"healthy"`
	Head    uint32    `json:"head"`
	Epoch   uint32    `json:"epoch"`
	Pools   int       `json:"pools"`
	Events  *uint64   `json:"events"`
	Errors  []string  `json:"errors,omitempty"`
	Started time.Time `json:"started"`

	DeliveryFailures uint64 `json:"deliveryFailures"`
}

// Health checks the ledger state and the event db.
type Health struct {
	shared  *ledger.Shared
	eventDB *eventdb.EventDB
	started time.Time
}

// NewHealth creates a health check. eventDB may be nil.
func NewHealth(shared *ledger.Shared, eventDB *eventdb.EventDB) *Health {
	return &Health{shared: shared, eventDB: eventDB, started: time.Now()}
}

func (h *Health) Status(ctx context.Context) *Status {
	status := &Status{Started: h.started}
	err := h.shared.Do(func(l *ledger.Ledger) error {
		status.Head = l.Height()
		status.Epoch = l.Cycle().Epoch
		ids, err := l.PoolIDs()
		status.Pools = len(ids)
		status.DeliveryFailures = l.DeliveryFailures()
		return err
	})
	if err != nil {
		status.Errors = append(status.Errors, "ledger: "+err.Error())
	}
	if h.eventDB != nil {
		count, err := h.eventDB.Count(ctx)
		if err != nil {
			status.Errors = append(status.Errors, "eventdb: "+err.Error())
		} else {
			status.Events = &count
		}
	}
	if status.DeliveryFailures > 0 {
		status.Errors = append(status.Errors, fmt.Sprintf("eventdb: %d event batches not delivered", status.DeliveryFailures))
	}
	status.Healthy = len(status.Errors) == 0
	return status
}
