// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/eventdb"
	"github.com/computemarket/capstake/ledger"
	"github.com/computemarket/capstake/test/datagen"
)

var (
	alice = capstake.BytesToAddress([]byte("alice"))
	bob   = capstake.BytesToAddress([]byte("bob"))
)

func newEvents() []*ledger.Event {
	var events []*ledger.Event
	for i := uint32(0); i < 100; i++ {
		kind := ledger.EventRewarded
		account := alice
		if i%2 == 1 {
			kind = ledger.EventSlashed
			account = bob
		}
		events = append(events, &ledger.Event{
			Kind:       kind,
			Height:     i * 10,
			Epoch:      i / 10,
			Pool:       i%3 + 1,
			Account:    account,
			Peer:       bob,
			Commitment: uint64(i%4 + 1),
			Amount:     uint256.NewInt(uint64(i)),
		})
	}
	return events
}

func TestDeliverAndFilter(t *testing.T) {
	db, err := eventdb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	events := newEvents()
	require.NoError(t, db.Deliver(events[:50]))
	require.NoError(t, db.Deliver(events[50:]))
	require.NoError(t, db.Deliver(nil))

	count, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), count)

	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 100)
	for i, ev := range all {
		assert.Equal(t, uint64(i+1), ev.Seq)
		assert.Equal(t, *events[i], ev.Event)
	}

	kind := ledger.EventSlashed
	got, err := db.FilterEvents(ctx, &eventdb.Filter{
		Range:       &eventdb.Range{Unit: eventdb.Epoch, From: 0, To: 1},
		CriteriaSet: []*eventdb.Criteria{{Kind: &kind}},
	})
	require.NoError(t, err)
	assert.Len(t, got, 10)
	for _, ev := range got {
		assert.Equal(t, bob, ev.Account)
		assert.LessOrEqual(t, ev.Epoch, uint32(1))
	}

	// criteria are or-ed
	pool := uint32(1)
	commitment := uint64(2)
	got, err = db.FilterEvents(ctx, &eventdb.Filter{
		Range:       &eventdb.Range{Unit: eventdb.Height, From: 0, To: 110},
		CriteriaSet: []*eventdb.Criteria{{Pool: &pool}, {Commitment: &commitment}},
	})
	require.NoError(t, err)
	// heights 0..110 hold events 0..11: pool 1 at 0,3,6,9 and commitment 2 at 1,5,9
	assert.Len(t, got, 6)
}

func TestFilterOrderAndPaging(t *testing.T) {
	db, err := eventdb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	require.NoError(t, db.Deliver(newEvents()))

	got, err := db.FilterEvents(ctx, &eventdb.Filter{
		CriteriaSet: []*eventdb.Criteria{{Account: &alice}},
		Order:       eventdb.DESC,
		Options:     &eventdb.Options{Offset: 1, Limit: 5},
	})
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, uint32(960), got[0].Height)
	assert.Equal(t, uint32(880), got[4].Height)
	assert.Equal(t, uint256.NewInt(96), got[0].Amount)
}

func TestPersistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	db, err := eventdb.New(path)
	require.NoError(t, err)
	require.NoError(t, db.Deliver(newEvents()[:3]))
	require.NoError(t, db.Close())
	_, err = db.Count(context.Background())
	assert.Error(t, err, "closed db")

	db, err = eventdb.New(path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, db.Path())
	count, err := db.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestRandomAccounts(t *testing.T) {
	db, err := eventdb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	accounts := make([]capstake.Address, 8)
	for i := range accounts {
		accounts[i] = datagen.RandomAddress()
	}
	want := make(map[capstake.Address]int)
	var events []*ledger.Event
	for i := 0; i < 200; i++ {
		account := accounts[datagen.RandIntN(len(accounts))]
		want[account]++
		events = append(events, &ledger.Event{
			Kind:    ledger.EventPaid,
			Height:  uint32(i),
			Account: account,
			Amount:  datagen.RandomUnits(1000),
		})
	}
	require.NoError(t, db.Deliver(events))

	for _, account := range accounts {
		got, err := db.FilterEvents(ctx, &eventdb.Filter{CriteriaSet: []*eventdb.Criteria{{Account: &account}}})
		require.NoError(t, err)
		assert.Len(t, got, want[account])
		for _, ev := range got {
			assert.Equal(t, events[ev.Height].Amount, ev.Amount)
		}
	}
}
