// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/lvldb"
	"github.com/computemarket/capstake/slot"
	"github.com/computemarket/capstake/state"
)

func TestHeartbeat(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	s := New(slot.NewContext(capstake.BytesToAddress([]byte("processors")), state.New(db)))
	proc := capstake.BytesToAddress([]byte("processor"))

	st, err := s.Get(proc)
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, st.Status)

	st, active, err := s.Heartbeat(proc, 150, 100, 50)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, StatusWarmingUp, st.Status)
	assert.Equal(t, uint32(50), st.EpochOffset)
	assert.Equal(t, uint32(200), st.WarmupUntil)

	st, active, err = s.Heartbeat(proc, 210, 100, 50)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, capstake.Epoch(2), st.LastCommittedEpoch)
	assert.Equal(t, uint32(350), NextReportDue(st, 210, 100))

	// the warm-up is never restarted
	st, _, err = s.Heartbeat(proc, 900, 100, 50)
	require.NoError(t, err)
	assert.Equal(t, uint32(200), st.WarmupUntil)
	assert.Equal(t, "active", st.Status.String())
}

func TestClaimable(t *testing.T) {
	st := &State{}
	st.Accrued.Set(capstake.Units(5))
	st.Paid.Set(capstake.Units(2))
	assert.Equal(t, capstake.Units(3), st.Claimable())

	st.Paid.Set(capstake.Units(6))
	assert.True(t, st.Claimable().IsZero())
}
