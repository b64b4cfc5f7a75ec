// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package processor

import (
	"github.com/pkg/errors"

	"github.com/computemarket/capstake/capstake"
	"github.com/computemarket/capstake/ledger/reverts"
	"github.com/computemarket/capstake/slot"
)

var slotProcessors = slot.Position("processors")

type Service struct {
	processors *slot.Mapping[capstake.Address, *State]
}

func New(sctx *slot.Context) *Service {
	return &Service{
		processors: slot.NewMapping[capstake.Address, *State](sctx, slotProcessors),
	}
}

// Get returns the state of a processor; StatusUnknown if it never reported.
func (s *Service) Get(processor capstake.Address) (*State, error) {
	st, err := s.processors.Get(processor)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get processor")
	}
	return st, nil
}

func (s *Service) Update(processor capstake.Address, st *State) error {
	if err := s.processors.Upsert(processor, st); err != nil {
		return errors.Wrap(err, "failed to set processor")
	}
	return nil
}

// Heartbeat records a report at height. The first report starts the warm-up, later
// ones promote the device once the warm-up deadline passed.
func (s *Service) Heartbeat(processor capstake.Address, height, epochLength, warmup uint32) (*State, bool, error) {
	st, err := s.Get(processor)
	if err != nil {
		return nil, false, err
	}
	cycle := capstake.CycleAt(height, epochLength)

	if st.Status == StatusUnknown {
		until := uint64(height) + uint64(warmup)
		if until > uint64(^uint32(0)) {
			return nil, false, reverts.Overflow("warm-up deadline")
		}
		st.EpochOffset = height % epochLength
		st.Status = StatusWarmingUp
		st.WarmupUntil = uint32(until)
	}
	if st.Status == StatusWarmingUp && height >= st.WarmupUntil {
		st.Status = StatusActive
	}
	st.LastCommittedEpoch = cycle.Epoch

	if err := s.Update(processor, st); err != nil {
		return nil, false, err
	}
	return st, st.IsActive(), nil
}
