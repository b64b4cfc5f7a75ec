// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/computemarket/capstake/api/utils"
	"github.com/computemarket/capstake/ledger"
	"github.com/computemarket/capstake/ledger/pool"
)

type Pools struct {
	shared *ledger.Shared
}

func New(shared *ledger.Shared) *Pools {
	return &Pools{shared}
}

// lookup resolves a pool by id, or by name when the value is not a number.
func lookup(l *ledger.Ledger, v string) (*pool.Pool, error) {
	if id, err := strconv.ParseUint(v, 10, 32); err == nil {
		return l.Pool(uint32(id))
	}
	return l.PoolByName(v)
}

func (p *Pools) handleGetPools(w http.ResponseWriter, req *http.Request) error {
	var out []*Pool
	err := p.shared.Do(func(l *ledger.Ledger) error {
		ids, err := l.PoolIDs()
		if err != nil {
			return err
		}
		epoch := l.Cycle().Epoch
		out = make([]*Pool, 0, len(ids))
		for _, id := range ids {
			pl, err := l.Pool(id)
			if err != nil {
				return err
			}
			out = append(out, convertPool(pl, epoch))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (p *Pools) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	var out *Pool
	err := p.shared.Do(func(l *ledger.Ledger) error {
		pl, err := lookup(l, mux.Vars(req)["pool"])
		if err != nil {
			return err
		}
		out = convertPool(pl, l.Cycle().Epoch)
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (p *Pools) handleGetTotals(w http.ResponseWriter, req *http.Request) error {
	var out *Totals
	err := p.shared.Do(func(l *ledger.Ledger) error {
		pl, err := lookup(l, mux.Vars(req)["pool"])
		if err != nil {
			return err
		}
		epoch, err := utils.ParseUint32(req.URL.Query().Get("epoch"), l.Cycle().Epoch)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "epoch"))
		}
		totals, err := l.PoolTotals(pl.ID, epoch)
		if err != nil {
			return err
		}
		out = convertTotals(pl.ID, epoch, &totals)
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (p *Pools) handleGetBudget(w http.ResponseWriter, req *http.Request) error {
	epoch, err := utils.ParseUint32(mux.Vars(req)["epoch"], 0)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "epoch"))
	}
	var out *Budget
	err = p.shared.Do(func(l *ledger.Ledger) error {
		pl, err := lookup(l, mux.Vars(req)["pool"])
		if err != nil {
			return err
		}
		b, err := l.Budget(pl.ID, epoch)
		if err != nil {
			return err
		}
		out = convertBudget(pl.ID, epoch, b)
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (p *Pools) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /pools").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPools))
	sub.Path("/{pool}").
		Methods(http.MethodGet).
		Name("GET /pools/{pool}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPool))
	sub.Path("/{pool}/totals").
		Methods(http.MethodGet).
		Name("GET /pools/{pool}/totals").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetTotals))
	sub.Path("/{pool}/budgets/{epoch}").
		Methods(http.MethodGet).
		Name("GET /pools/{pool}/budgets/{epoch}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetBudget))
}
