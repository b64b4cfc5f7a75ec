// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package processor

import (
	"github.com/holiman/uint256"

	"github.com/computemarket/capstake/capstake"
)

type Status uint8

const (
	StatusUnknown Status = iota
	StatusWarmingUp
	StatusActive
)

func (s Status) String() string {
	switch s {
	case StatusWarmingUp:
		return "warming-up"
	case StatusActive:
		return "active"
	default:
		return "unknown"
	}
}

// State of a reporting device.
type State struct {
	EpochOffset        uint32 // phase of the device within the epoch cycle
	LastCommittedEpoch capstake.Epoch
	LastClaimedEpoch   capstake.Epoch // epoch during which the previous sealed epoch was claimed, zero if never
	Status             Status
	WarmupUntil        uint32
	Accrued            uint256.Int
	Paid               uint256.Int
}

func (s *State) IsActive() bool {
	return s.Status == StatusActive
}

// NextReportDue returns the first height after the given one at which the device's
// phase-shifted slot in the next epoch opens.
func NextReportDue(s *State, height, epochLength uint32) uint32 {
	cycle := capstake.CycleAt(height, epochLength)
	return cycle.Start + epochLength + s.EpochOffset
}

// Claimable is the reward accrued but not yet paid.
func (s *State) Claimable() *uint256.Int {
	if s.Accrued.Lt(&s.Paid) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(&s.Accrued, &s.Paid)
}
