// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/computemarket/capstake/api/utils"
	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger"
)

type Accounts struct {
	shared *ledger.Shared
}

func New(shared *ledger.Shared) *Accounts {
	return &Accounts{shared}
}

func parseAddress(req *http.Request, name string) (capstake.Address, error) {
	addr, err := capstake.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return capstake.Address{}, utils.BadRequest(errors.WithMessage(err, name))
	}
	return *addr, nil
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	var out *Account
	err = a.shared.Do(func(l *ledger.Ledger) error {
		acc, err := l.Account(addr)
		if err != nil {
			return err
		}
		out = convertAccount(acc)
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (a *Accounts) handleGetCommitment(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	var out *Commitment
	err = a.shared.Do(func(l *ledger.Ledger) error {
		id, c, err := l.Commitment(addr)
		if err != nil {
			return err
		}
		out = convertCommitment(id, c)
		ids, err := l.PoolIDs()
		if err != nil {
			return err
		}
		for _, poolID := range ids {
			v, err := l.Declared(addr, poolID)
			if err != nil {
				return err
			}
			if !v.IsZero() {
				out.Declared[poolID] = v.Dec()
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (a *Accounts) handleGetDelegation(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	committer, err := parseAddress(req, "committer")
	if err != nil {
		return err
	}
	var out *Delegation
	err = a.shared.Do(func(l *ledger.Ledger) error {
		id, c, err := l.Commitment(committer)
		if err != nil {
			return err
		}
		d, err := l.Delegation(addr, committer)
		if err != nil {
			return err
		}
		out = convertDelegation(id, c.Generation, d)
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
	sub.Path("/{address}/commitment").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}/commitment").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetCommitment))
	sub.Path("/{address}/delegations/{committer}").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}/delegations/{committer}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetDelegation))
}
