// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package config holds the ledger parameters, loaded from yaml.
package config

import (
	"bytes"
	"os"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/computemarket/capstake/capstake"
)

// Amount is a fixed-point amount written in yaml as a decimal number of units.
type Amount struct {
	uint256.Int
}

func NewAmount(v *uint256.Int) Amount {
	var a Amount
	a.Set(v)
	return a
}

func (a *Amount) Value() *uint256.Int {
	return &a.Int
}

func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	v, err := capstake.ParseUnits(node.Value)
	if err != nil {
		return errors.Wrapf(err, "line %d", node.Line)
	}
	a.Set(v)
	return nil
}

func (a Amount) MarshalYAML() (any, error) {
	return capstake.FormatUnits(&a.Int), nil
}

// Params are the constants of a ledger. Heights and periods are in blocks,
// validity in epochs, ratios in basis points.
type Params struct {
	EpochLength    uint32 `yaml:"epoch_length"`
	WarmupPeriod   uint32 `yaml:"warmup_period"`
	MetricValidity uint32 `yaml:"metric_validity"`

	MinCooldown    uint32 `yaml:"min_cooldown"`
	MaxCooldown    uint32 `yaml:"max_cooldown"`
	TargetCooldown uint32 `yaml:"target_cooldown"`

	MinStake              Amount `yaml:"min_stake"`
	MinDelegation         Amount `yaml:"min_delegation"`
	ManagerRewardPerEpoch Amount `yaml:"manager_reward_per_epoch"`

	CooldownRewardRatio uint32 `yaml:"cooldown_reward_ratio"`
	MaxDelegationRatio  uint32 `yaml:"max_delegation_ratio"`
	BaseSlashFraction   uint32 `yaml:"base_slash_fraction"`
	MaxCommission       uint32 `yaml:"max_commission"`

	Operator  capstake.Address `yaml:"operator"`
	Vault     capstake.Address `yaml:"vault"`
	SlashSink capstake.Address `yaml:"slash_sink"`
}

// Defaults returns the parameters used when a file leaves a field out.
// Accounts have no default.
func Defaults() *Params {
	return &Params{
		EpochLength:           900,
		WarmupPeriod:          1800,
		MetricValidity:        1,
		MinCooldown:           900,
		MaxCooldown:           27_000,
		TargetCooldown:        9_000,
		MinStake:              NewAmount(capstake.Units(1)),
		MinDelegation:         NewAmount(capstake.Units(1)),
		ManagerRewardPerEpoch: NewAmount(capstake.Units(1)),
		CooldownRewardRatio:   5_000,
		MaxDelegationRatio:    9_500,
		BaseSlashFraction:     100,
		MaxCommission:         5_000,
	}
}

// Validate checks the parameters are consistent.
func (p *Params) Validate() error {
	if p.EpochLength == 0 {
		return errors.New("epoch_length must be positive")
	}
	if p.MaxCooldown == 0 {
		return errors.New("max_cooldown must be positive")
	}
	if p.MinCooldown > p.TargetCooldown || p.TargetCooldown > p.MaxCooldown {
		return errors.Errorf("cooldowns must satisfy min <= target <= max, got %d, %d, %d",
			p.MinCooldown, p.TargetCooldown, p.MaxCooldown)
	}
	for name, bps := range map[string]uint32{
		"cooldown_reward_ratio": p.CooldownRewardRatio,
		"max_delegation_ratio":  p.MaxDelegationRatio,
		"base_slash_fraction":   p.BaseSlashFraction,
		"max_commission":        p.MaxCommission,
	} {
		if bps > capstake.BasisPoints {
			return errors.Errorf("%s %d exceeds %d basis points", name, bps, capstake.BasisPoints)
		}
	}
	if p.MinStake.IsZero() {
		return errors.New("min_stake must be positive")
	}
	if p.Operator.IsZero() {
		return errors.New("operator account is required")
	}
	if p.Vault.IsZero() {
		return errors.New("vault account is required")
	}
	if p.SlashSink.IsZero() {
		return errors.New("slash_sink account is required")
	}
	if p.Vault == p.SlashSink {
		return errors.New("vault and slash_sink must differ")
	}
	return nil
}

// Parse decodes yaml over the defaults and validates the result.
func Parse(data []byte) (*Params, error) {
	p := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, errors.Wrap(err, "decode params")
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid params")
	}
	return p, nil
}

// Load reads the parameters from a yaml file.
func Load(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read params")
	}
	return Parse(data)
}
