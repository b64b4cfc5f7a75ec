// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/computemarket/capstake/api/utils"
	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger"
)

type Status struct {
	Height               uint32          `json:"height"`
	Epoch                capstake.Epoch  `json:"epoch"`
	EpochStart           uint32          `json:"epochStart"`
	Sealed               *capstake.Epoch `json:"sealed"`
	EpochLength          uint32          `json:"epochLength"`
	Pools                int             `json:"pools"`
	TotalLocked          string          `json:"totalLocked"`
	ManagerRewardReserve string          `json:"managerRewardReserve"`
}

// Info is static information about the running service.
type Info struct {
	Version string `json:"version"`
	DataDir string `json:"dataDir"`
}

type Node struct {
	shared *ledger.Shared
	info   Info
}

func New(shared *ledger.Shared, info Info) *Node {
	return &Node{shared, info}
}

func (n *Node) handleStatus(w http.ResponseWriter, req *http.Request) error {
	var out *Status
	err := n.shared.Do(func(l *ledger.Ledger) error {
		cycle := l.Cycle()
		ids, err := l.PoolIDs()
		if err != nil {
			return err
		}
		locked, err := l.TotalLocked()
		if err != nil {
			return err
		}
		reserve, err := l.ManagerRewardReserve()
		if err != nil {
			return err
		}
		out = &Status{
			Height:               l.Height(),
			Epoch:                cycle.Epoch,
			EpochStart:           cycle.Start,
			EpochLength:          l.Params().EpochLength,
			Pools:                len(ids),
			TotalLocked:          locked.Dec(),
			ManagerRewardReserve: reserve.Dec(),
		}
		if sealed, ok := cycle.Sealed(); ok {
			out.Sealed = &sealed
		}
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (n *Node) handleInfo(w http.ResponseWriter, req *http.Request) error {
	return utils.WriteJSON(w, n.info)
}

func (n *Node) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/status").
		Methods(http.MethodGet).
		Name("GET /node/status").
		HandlerFunc(utils.WrapHandlerFunc(n.handleStatus))
	sub.Path("/info").
		Methods(http.MethodGet).
		Name("GET /node/info").
		HandlerFunc(utils.WrapHandlerFunc(n.handleInfo))
}
