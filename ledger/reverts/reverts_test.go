// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Reverts(t *testing.T) {
	revert := New(NotFound, "test")
	assert.Equal(t, "test", revert.message)
	assert.Equal(t, revert.Error(), revert.message)

	assert.True(t, IsRevertErr(revert))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(big.NewInt(0)))
}

func TestIs(t *testing.T) {
	err := errors.WithMessage(Precondition("amount %d below minimum", 3), "stake")
	assert.True(t, Is(err, PreconditionViolation))
	assert.False(t, Is(err, NotFound))
	assert.False(t, Is(errors.New("plain"), Internal))
	assert.Equal(t, "stake: amount 3 below minimum", err.Error())

	assert.Equal(t, "arithmetic overflow: x", Overflow("x").Error())
	assert.Equal(t, "already slashed", AlreadySlashed.String())
}
