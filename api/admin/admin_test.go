// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/config"
	"github.com/computemarket/capstake/eventdb"
	"github.com/computemarket/capstake/ledger"
	"github.com/computemarket/capstake/ledger/pool"
	"github.com/computemarket/capstake/lvldb"
	"github.com/computemarket/capstake/state"
)

type fixture struct {
	handler  http.Handler
	logLevel *slog.LevelVar
	apiLogs  *atomic.Bool
}

func newFixture(t *testing.T, withEvents bool) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	p := config.Defaults()
	p.Operator = capstake.BytesToAddress([]byte("operator"))
	p.Vault = capstake.BytesToAddress([]byte("vault"))
	p.SlashSink = capstake.BytesToAddress([]byte("slash-sink"))

	var opts []ledger.Option
	var events *eventdb.EventDB
	if withEvents {
		events, err = eventdb.NewMem()
		require.NoError(t, err)
		t.Cleanup(func() { events.Close() })
		opts = append(opts, ledger.WithEventSink(events))
	}
	l := ledger.New(state.New(db), p, ledger.NewManualClock(1850), opts...)
	_, err = l.CreatePool(p.Operator, "cpu", 1, pool.Config{})
	require.NoError(t, err)

	f := &fixture{logLevel: &slog.LevelVar{}, apiLogs: &atomic.Bool{}}
	f.handler = New(f.logLevel, f.apiLogs, NewHealth(ledger.NewShared(l), events))
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, []byte) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr.Code, rr.Body.Bytes()
}

func TestLogLevel(t *testing.T) {
	f := newFixture(t, false)

	code, body := f.do(t, http.MethodGet, "/admin/loglevel", "")
	require.Equal(t, http.StatusOK, code)
	var res logLevelResponse
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "INFO", res.CurrentLevel)

	code, body = f.do(t, http.MethodPost, "/admin/loglevel", `{"level":"debug"}`)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "DEBUG", res.CurrentLevel)
	assert.Equal(t, slog.LevelDebug, f.logLevel.Level())

	code, body = f.do(t, http.MethodPost, "/admin/loglevel", `{"level":"loud"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), `invalid verbosity level "loud"`)
	assert.Equal(t, slog.LevelDebug, f.logLevel.Level())

	code, _ = f.do(t, http.MethodPost, "/admin/loglevel", `{"lvl":"info"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodDelete, "/admin/loglevel", "")
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}

func TestAPILogs(t *testing.T) {
	f := newFixture(t, false)

	code, body := f.do(t, http.MethodPost, "/admin/apilogs", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"enabled":true}`, string(body))
	assert.True(t, f.apiLogs.Load())

	code, body = f.do(t, http.MethodGet, "/admin/apilogs", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"enabled":true}`, string(body))
}

func TestHealth(t *testing.T) {
	f := newFixture(t, true)

	code, body := f.do(t, http.MethodGet, "/admin/health", "")
	require.Equal(t, http.StatusOK, code)
	var status Status
	require.NoError(t, json.Unmarshal(body, &status))
	assert.True(t, status.Healthy)
	assert.Equal(t, uint32(1850), status.Head)
	assert.Equal(t, uint32(2), status.Epoch)
	assert.Equal(t, 1, status.Pools)
	require.NotNil(t, status.Events)
	assert.Equal(t, uint64(1), *status.Events)

	f = newFixture(t, false)
	_, body = f.do(t, http.MethodGet, "/admin/health", "")
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Nil(t, status.Events)
}

type rejectingSink struct{}

func (rejectingSink) Deliver([]*ledger.Event) error {
	return errors.New("disk full")
}

func TestHealthDeliveryFailures(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	p := config.Defaults()
	p.Operator = capstake.BytesToAddress([]byte("operator"))
	l := ledger.New(state.New(db), p, ledger.NewManualClock(0), ledger.WithEventSink(rejectingSink{}))
	_, err = l.CreatePool(p.Operator, "cpu", 1, pool.Config{})
	require.NoError(t, err)

	f := &fixture{logLevel: &slog.LevelVar{}, apiLogs: &atomic.Bool{}}
	f.handler = New(f.logLevel, f.apiLogs, NewHealth(ledger.NewShared(l), nil))

	code, body := f.do(t, http.MethodGet, "/admin/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	var status Status
	require.NoError(t, json.Unmarshal(body, &status))
	assert.False(t, status.Healthy)
	assert.Equal(t, uint64(1), status.DeliveryFailures)
	require.Len(t, status.Errors, 1)
	assert.Contains(t, status.Errors[0], "not delivered")
}
