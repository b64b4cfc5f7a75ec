// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/config"
	"github.com/computemarket/capstake/ledger"
	"github.com/computemarket/capstake/lvldb"
	"github.com/computemarket/capstake/state"
)

func testParams() *config.Params {
	p := config.Defaults()
	p.EpochLength = 100
	p.WarmupPeriod = 0
	p.MinCooldown = 100
	p.TargetCooldown = 1000
	p.MaxCooldown = 3000
	p.Operator = capstake.BytesToAddress([]byte("operator"))
	p.Vault = capstake.BytesToAddress([]byte("vault"))
	p.SlashSink = capstake.BytesToAddress([]byte("slash-sink"))
	return p
}

func newTestRunner(t *testing.T) (*runner, *state.State) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	clock := ledger.NewManualClock(0)
	return newRunner(ledger.New(st, testParams(), clock), clock), st
}

const backedScenario = `
accounts:
  carol: "0x000000000000000000000000000000000000ca01"
steps:
  - op: create-pool
    caller: operator
    name: gpu
    ratio: 100
    target_weight: 1000000
  - op: deposit
    caller: operator
    account: committer
    amount: 100
  - op: deposit
    caller: operator
    account: carol
    amount: 2.5
  - op: pair-processor
    manager: manager
    processor: proc
  - op: report
    processor: proc
    samples:
      - {pool: gpu, value: 10}
  - op: report
    at: 100
    processor: proc
    samples:
      - {pool: gpu, value: 8}
  - op: offer-backing
    manager: manager
    committer: committer
  - op: accept-backing
    committer: committer
    manager: manager
  - op: commit-compute
    committer: committer
    declarations:
      - {pool: gpu, value: 8}
    amount: 5
    cooldown: 1000
    commission: 1000
  - op: commit-compute
    expect: precondition violation
    committer: committer
    declarations:
      - {pool: gpu, value: 8}
    amount: 5
    cooldown: 1000
  - op: deposit
    advance: 50
    expect: precondition violation
    caller: carol
    account: carol
    amount: 1
`

func TestRunScenario(t *testing.T) {
	s, err := ParseScenario([]byte(backedScenario))
	require.NoError(t, err)

	r, st := newTestRunner(t)
	var heights []uint32
	r.afterStep = func(height uint32) error {
		heights = append(heights, height)
		return st.Commit()
	}

	n, err := r.Run(s)
	require.NoError(t, err)
	assert.Equal(t, len(s.Steps), n)
	assert.Equal(t, []uint32{0, 0, 0, 0, 0, 100, 100, 100, 100, 100, 150}, heights)

	committer := NameAddress("committer")
	acc, err := r.ledger.Account(committer)
	require.NoError(t, err)
	assert.Equal(t, capstake.Units(100), &acc.Balance)
	assert.Equal(t, capstake.Units(5), &acc.Staked)

	carol, err := r.ledger.Account(capstake.MustParseAddress("0x000000000000000000000000000000000000ca01"))
	require.NoError(t, err)
	assert.Equal(t, "2.5", capstake.FormatUnits(&carol.Balance))

	declared, err := r.ledger.Declared(committer, 1)
	require.NoError(t, err)
	assert.Equal(t, capstake.Units(8), declared)
}

func TestRunStopsAtUnexpectedOutcome(t *testing.T) {
	s, err := ParseScenario([]byte(`
steps:
  - op: create-pool
    caller: operator
    name: cpu
    ratio: 1
  - op: create-pool
    caller: operator
    name: cpu
    ratio: 1
  - op: deposit
    caller: operator
    account: alice
    amount: 1
`))
	require.NoError(t, err)

	r, _ := newTestRunner(t)
	n, err := r.Run(s)
	assert.Equal(t, 1, n)
	assert.ErrorContains(t, err, "step 1 (create-pool)")

	// the failed step left nothing behind
	ids, err := r.ledger.PoolIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, ids)
}

func TestExpectedRevertMissing(t *testing.T) {
	s, err := ParseScenario([]byte(`
steps:
  - op: deposit
    expect: not found
    caller: operator
    account: alice
    amount: 1
`))
	require.NoError(t, err)

	r, _ := newTestRunner(t)
	_, err = r.Run(s)
	assert.ErrorContains(t, err, `expected "not found", but the step succeeded`)
}

func TestClockMovesForward(t *testing.T) {
	s, err := ParseScenario([]byte(`
steps:
  - {op: fund-rewards, at: 200, caller: operator, amount: 1, expect: precondition violation}
  - {op: fund-rewards, at: 100, caller: operator, amount: 1}
`))
	require.NoError(t, err)

	r, _ := newTestRunner(t)
	n, err := r.Run(s)
	assert.Equal(t, 1, n)
	assert.ErrorContains(t, err, "height 100 is behind the clock at 200")
	assert.Equal(t, uint32(200), r.clock.Height())
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  string
	}{
		{"unknown op", "steps: [{op: mint}]", `step 0: unknown op "mint"`},
		{"unknown field", "steps: [{op: deposit, amout: 1}]", "field amout not found"},
		{"at and advance", "steps: [{op: deposit, at: 1, advance: 1}]", "at and advance are exclusive"},
		{"bad amount", "steps: [{op: deposit, amount: x}]", "decode scenario"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.err)
		})
	}
}

func TestAddressResolution(t *testing.T) {
	r, _ := newTestRunner(t)
	p := r.ledger.Params()

	addr, err := r.address("operator")
	require.NoError(t, err)
	assert.Equal(t, p.Operator, addr)

	addr, err = r.address("dave")
	require.NoError(t, err)
	assert.Equal(t, NameAddress("dave"), addr)
	assert.NotEqual(t, NameAddress("erin"), addr)

	addr, err = r.address("0x00000000000000000000000000000000000000ff")
	require.NoError(t, err)
	assert.Equal(t, capstake.BytesToAddress([]byte{0xff}), addr)

	_, err = r.address("")
	assert.Error(t, err)
}

func TestOpNamesSorted(t *testing.T) {
	names := opNames()
	assert.Len(t, names, len(ops))
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "commit-compute")
}
