// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/computemarket/capstake/ledger/reverts"
)

func TestWrapHandlerFunc(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{nil, http.StatusOK},
		{BadRequest(errors.New("bad")), http.StatusBadRequest},
		{Forbidden(errors.New("no")), http.StatusForbidden},
		{reverts.NotFoundf("pool %d not found", 1), http.StatusNotFound},
		{errors.Wrap(reverts.Precondition("nope"), "op"), http.StatusBadRequest},
		{reverts.InternalErr("broken"), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		WrapHandlerFunc(func(http.ResponseWriter, *http.Request) error { return c.err })(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, c.status, rec.Code, "%v", c.err)
	}
}

func TestParse(t *testing.T) {
	var v struct{ A int }
	require.NoError(t, ParseJSON(strings.NewReader(`{"A":1}`), &v))
	assert.Equal(t, 1, v.A)
	assert.Error(t, ParseJSON(strings.NewReader(`{"B":1}`), &v))

	n, err := ParseUint32("", 7)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), n)
	n, err = ParseUint32("0x10", 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), n)
	_, err = ParseUint32("4294967296", 0)
	assert.Error(t, err)
}
