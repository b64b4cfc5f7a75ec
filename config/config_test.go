// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/computemarket/capstake/capstake"
)

const accounts = `
operator: "0x0000000000000000000000000000000000000001"
vault: "0x0000000000000000000000000000000000000002"
slash_sink: "0x0000000000000000000000000000000000000003"
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(accounts + `
epoch_length: 100
min_stake: "2.5"
max_commission: 1000
`))
	require.NoError(t, err)
	assert.Equal(t, uint32(100), p.EpochLength)
	assert.Equal(t, uint32(1000), p.MaxCommission)
	v, _ := capstake.ParseUnits("2.5")
	assert.Equal(t, v, p.MinStake.Value())
	assert.Equal(t, Defaults().MaxCooldown, p.MaxCooldown)
	assert.Equal(t, capstake.MustParseAddress("0x0000000000000000000000000000000000000002"), p.Vault)
}

func TestParseRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"missing accounts": "epoch_length: 10",
		"unknown field":    accounts + "epochs: 10",
		"bad bps":          accounts + "max_commission: 20000",
		"bad cooldowns":    accounts + "min_cooldown: 10\ntarget_cooldown: 5",
		"bad amount":       accounts + `min_stake: "abc"`,
		"zero epoch":       accounts + "epoch_length: 0",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadRoundTrip(t *testing.T) {
	p, err := Parse([]byte(accounts))
	require.NoError(t, err)

	data, err := yaml.Marshal(p)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}
