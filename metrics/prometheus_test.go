// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	m := defaultNoopMetrics()
	assert.Nil(t, m.GetOrCreateHandler())

	m.GetOrCreateCountVecMeter("c", []string{"op"}).AddWithLabel(1, map[string]string{"op": "x"})
	m.GetOrCreateGaugeMeter("g").Set(3)
	m.GetOrCreateGaugeVecMeter("gv", []string{"k"}).SetWithLabel(1, map[string]string{"k": "v"})
	m.GetOrCreateHistogramVecMeter("h", []string{"k"}, BucketHTTPReqs).ObserveWithLabels(2, map[string]string{"k": "v"})
}

func TestPrometheusMetrics(t *testing.T) {
	InitializePrometheusMetrics()
	t.Cleanup(func() { metrics = defaultNoopMetrics() })

	CounterVec("ops_total", []string{"op"}).AddWithLabel(2, map[string]string{"op": "stake"})
	Gauge("locked").Set(7)
	GaugeVec("pool_total", []string{"pool"}).SetWithLabel(5, map[string]string{"pool": "gpu"})

	// same meter returned on second request
	assert.Equal(t, Gauge("locked"), Gauge("locked"))

	srv := httptest.NewServer(HTTPHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `capstake_ops_total{op="stake"} 2`))
	assert.True(t, strings.Contains(text, `capstake_locked 7`))
	assert.True(t, strings.Contains(text, `capstake_pool_total{pool="gpu"} 5`))
}
