// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/computemarket/capstake/api"
	"github.com/computemarket/capstake/api/accounts"
	"github.com/computemarket/capstake/api/events"
	"github.com/computemarket/capstake/api/node"
	"github.com/computemarket/capstake/api/pools"
	"github.com/computemarket/capstake/api/processors"
	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/config"
	"github.com/computemarket/capstake/eventdb"
	"github.com/computemarket/capstake/ledger"
	"github.com/computemarket/capstake/ledger/metric"
	"github.com/computemarket/capstake/ledger/pool"
	"github.com/computemarket/capstake/lvldb"
	"github.com/computemarket/capstake/state"
)

var (
	operator = capstake.BytesToAddress([]byte("operator"))
	manager  = capstake.BytesToAddress([]byte("manager"))
	proc     = capstake.BytesToAddress([]byte("processor"))
	alice    = capstake.BytesToAddress([]byte("alice"))
)

func newServer(t *testing.T) *httptest.Server {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	eventDB, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { eventDB.Close() })

	params := config.Defaults()
	params.Operator = operator
	params.Vault = capstake.BytesToAddress([]byte("vault"))
	params.SlashSink = capstake.BytesToAddress([]byte("sink"))
	clock := ledger.NewManualClock(950)
	l := ledger.New(state.New(db), params, clock, ledger.WithEventSink(eventDB))

	cfg := pool.Config{}
	cfg.MinCommitment.Set(capstake.Units(1))
	_, err = l.CreatePool(operator, "cpu", 60, cfg)
	require.NoError(t, err)
	_, err = l.CreatePool(operator, "gpu", 40, cfg)
	require.NoError(t, err)
	require.NoError(t, l.Deposit(operator, alice, capstake.Units(10)))
	require.NoError(t, l.PairProcessor(manager, proc))
	require.NoError(t, l.Report(proc, []metric.Sample{{Pool: 1, Value: capstake.Units(3)}}))

	reqLogger := &atomic.Bool{}
	reqLogger.Store(true)
	router := api.New(ledger.NewShared(l), eventDB, api.Options{
		AllowedOrigins:  "*",
		EventsLimit:     100,
		EnableMetrics:   true,
		EnableReqLogger: reqLogger,
		Info:            node.Info{Version: "test"},
	})
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string, out any) int {
	res, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if res.StatusCode == http.StatusOK && out != nil {
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
	return res.StatusCode
}

func post(t *testing.T, ts *httptest.Server, path string, in any, out any) int {
	data, err := json.Marshal(in)
	require.NoError(t, err)
	res, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if res.StatusCode == http.StatusOK && out != nil {
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
	return res.StatusCode
}

func TestPools(t *testing.T) {
	ts := newServer(t)

	var all []*pools.Pool
	require.Equal(t, http.StatusOK, get(t, ts, "/pools", &all))
	require.Len(t, all, 2)
	assert.Equal(t, "cpu", all[0].Name)
	assert.Equal(t, uint32(40), all[1].RewardRatio)

	var p pools.Pool
	require.Equal(t, http.StatusOK, get(t, ts, "/pools/gpu", &p))
	assert.Equal(t, uint32(2), p.ID)
	assert.Equal(t, capstake.Units(1).Dec(), p.MinCommitment)
	assert.Equal(t, http.StatusNotFound, get(t, ts, "/pools/storage", nil))
	assert.Equal(t, http.StatusNotFound, get(t, ts, "/pools/9", nil))

	// the processor is warming up, its value is not counted
	var totals pools.Totals
	require.Equal(t, http.StatusOK, get(t, ts, "/pools/1/totals", &totals))
	assert.Equal(t, uint32(1), totals.Epoch)
	assert.Equal(t, "0", totals.Total)
	assert.Equal(t, http.StatusBadRequest, get(t, ts, "/pools/1/totals?epoch=x", nil))

	var budget pools.Budget
	require.Equal(t, http.StatusOK, get(t, ts, "/pools/1/budgets/1", &budget))
	assert.Equal(t, "0", budget.Total)
}

func TestAccounts(t *testing.T) {
	ts := newServer(t)

	var acc accounts.Account
	require.Equal(t, http.StatusOK, get(t, ts, "/accounts/"+alice.String(), &acc))
	assert.Equal(t, capstake.Units(10).Dec(), acc.Balance)
	assert.Equal(t, "0", acc.Locked)

	assert.Equal(t, http.StatusBadRequest, get(t, ts, "/accounts/0x12", nil))
	assert.Equal(t, http.StatusNotFound, get(t, ts, "/accounts/"+alice.String()+"/commitment", nil))
	assert.Equal(t, http.StatusNotFound, get(t, ts, "/accounts/"+alice.String()+"/delegations/"+manager.String(), nil))
}

func TestProcessorsAndNode(t *testing.T) {
	ts := newServer(t)

	var p processors.Processor
	require.Equal(t, http.StatusOK, get(t, ts, "/processors/"+proc.String(), &p))
	assert.Equal(t, "warming-up", p.Status)
	require.NotNil(t, p.Manager)
	assert.Equal(t, manager, *p.Manager)
	require.Len(t, p.Metrics, 1)
	assert.Equal(t, capstake.Units(3).Dec(), p.Metrics[0].Metric)
	assert.Equal(t, http.StatusNotFound, get(t, ts, "/processors/"+alice.String(), nil))

	var status node.Status
	require.Equal(t, http.StatusOK, get(t, ts, "/node/status", &status))
	assert.Equal(t, uint32(950), status.Height)
	assert.Equal(t, uint32(1), status.Epoch)
	require.NotNil(t, status.Sealed)
	assert.Equal(t, uint32(0), *status.Sealed)
	assert.Equal(t, 2, status.Pools)

	var info node.Info
	require.Equal(t, http.StatusOK, get(t, ts, "/node/info", &info))
	assert.Equal(t, "test", info.Version)
}

func TestEvents(t *testing.T) {
	ts := newServer(t)

	var all []*events.FilteredEvent
	require.Equal(t, http.StatusOK, post(t, ts, "/events", map[string]any{}, &all))
	kinds := make([]string, 0, len(all))
	for _, ev := range all {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []string{
		string(ledger.EventPoolCreated),
		string(ledger.EventPoolCreated),
		string(ledger.EventDeposited),
		string(ledger.EventProcessorPaired),
		string(ledger.EventMetricReported),
	}, kinds)

	var filtered []*events.FilteredEvent
	require.Equal(t, http.StatusOK, post(t, ts, "/events", map[string]any{
		"criteriaSet": []map[string]any{{"account": alice.String()}},
		"order":       "desc",
	}, &filtered))
	require.Len(t, filtered, 1)
	assert.Equal(t, capstake.Units(10).Dec(), filtered[0].Amount)

	assert.Equal(t, http.StatusForbidden, post(t, ts, "/events", map[string]any{
		"options": map[string]any{"offset": 0, "limit": 1000},
	}, nil))
	assert.Equal(t, http.StatusBadRequest, post(t, ts, "/events", map[string]any{
		"criteriaSet": []any{nil},
	}, nil))
	assert.Equal(t, http.StatusBadRequest, post(t, ts, "/events", map[string]any{
		"unknown": 1,
	}, nil))
}
