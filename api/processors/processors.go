// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package processors

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/computemarket/capstake/api/utils"
	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger"
	"github.com/computemarket/capstake/ledger/processor"
	"github.com/computemarket/capstake/ledger/reverts"
)

type Processor struct {
	Status             string            `json:"status"`
	Manager            *capstake.Address `json:"manager"`
	EpochOffset        uint32            `json:"epochOffset"`
	LastCommittedEpoch capstake.Epoch    `json:"lastCommittedEpoch"`
	WarmupUntil        uint32            `json:"warmupUntil"`
	NextReportDue      uint32            `json:"nextReportDue"`
	Accrued            string            `json:"accrued"`
	Paid               string            `json:"paid"`
	Claimable          string            `json:"claimable"`
	Metrics            []*MetricCommit   `json:"metrics"`
}

type MetricCommit struct {
	Pool   uint32         `json:"pool"`
	Epoch  capstake.Epoch `json:"epoch"`
	Metric string         `json:"metric"`
	Active bool           `json:"active"`
}

type Processors struct {
	shared *ledger.Shared
}

func New(shared *ledger.Shared) *Processors {
	return &Processors{shared}
}

func (p *Processors) handleGetProcessor(w http.ResponseWriter, req *http.Request) error {
	addr, err := capstake.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	var out *Processor
	err = p.shared.Do(func(l *ledger.Ledger) error {
		st, err := l.Processor(*addr)
		if err != nil {
			return err
		}
		if st.Status == processor.StatusUnknown {
			return reverts.NotFoundf("processor %s never reported", addr)
		}
		out = &Processor{
			Status:             st.Status.String(),
			EpochOffset:        st.EpochOffset,
			LastCommittedEpoch: st.LastCommittedEpoch,
			WarmupUntil:        st.WarmupUntil,
			NextReportDue:      processor.NextReportDue(st, l.Height(), l.Params().EpochLength),
			Accrued:            st.Accrued.Dec(),
			Paid:               st.Paid.Dec(),
			Claimable:          st.Claimable().Dec(),
			Metrics:            make([]*MetricCommit, 0),
		}
		manager, err := l.ManagerOf(*addr)
		switch {
		case err == nil:
			out.Manager = &manager
		case !reverts.Is(err, reverts.NotFound):
			return err
		}

		ids, err := l.PoolIDs()
		if err != nil {
			return err
		}
		for _, id := range ids {
			c, err := l.MetricCommit(*addr, id)
			if err != nil {
				return err
			}
			if c.Valid {
				out.Metrics = append(out.Metrics, &MetricCommit{
					Pool:   id,
					Epoch:  c.Epoch,
					Metric: c.Metric.Dec(),
					Active: c.Active,
				})
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (p *Processors) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /processors/{address}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetProcessor))
}
