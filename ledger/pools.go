// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/pool"
)

// CreatePool registers a pool whose ratio applies from the current epoch. Operator only.
func (l *Ledger) CreatePool(caller capstake.Address, name string, ratio uint32, cfg pool.Config) (uint32, error) {
	var id uint32
	err := l.atomic("create-pool", func() error {
		if err := l.requireOperator(caller); err != nil {
			return err
		}
		logger.Debug("creating pool", "name", name, "ratio", ratio)

		var err error
		if id, err = l.pools.Create(name, ratio, cfg, l.cycle.Epoch); err != nil {
			logger.Info("create pool failed", "name", name, "error", err)
			return err
		}
		logger.Info("created pool", "id", id, "name", name)
		l.emit(&Event{Kind: EventPoolCreated, Pool: id, Account: caller})
		return nil
	})
	return id, err
}

// ModifyPool renames a pool, schedules a ratio change or replaces its config.
// Nil arguments are left unchanged. Operator only.
func (l *Ledger) ModifyPool(caller capstake.Address, id uint32, name *string, ratio *pool.RatioChange, cfg *pool.Config) error {
	return l.atomic("modify-pool", func() error {
		if err := l.requireOperator(caller); err != nil {
			return err
		}
		if err := l.pools.Modify(id, name, ratio, cfg, l.cycle.Epoch); err != nil {
			logger.Info("modify pool failed", "id", id, "error", err)
			return err
		}
		l.emit(&Event{Kind: EventPoolModified, Pool: id, Account: caller})
		return nil
	})
}
