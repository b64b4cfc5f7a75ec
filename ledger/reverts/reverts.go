// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	Internal Kind = iota
	ConfigConflict
	NotFound
	PreconditionViolation
	ArithmeticOverflow
	InsufficientFunds
	AlreadySlashed
)

func (k Kind) String() string {
	switch k {
	case ConfigConflict:
		return "config conflict"
	case NotFound:
		return "not found"
	case PreconditionViolation:
		return "precondition violation"
	case ArithmeticOverflow:
		return "arithmetic overflow"
	case InsufficientFunds:
		return "insufficient funds"
	case AlreadySlashed:
		return "already slashed"
	default:
		return "internal error"
	}
}

// ErrRevert is a business rule failure. The operation that returned it left no state behind.
type ErrRevert struct {
	Kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		Kind:    kind,
		message: message,
	}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Error() string {
	return e.message
}

func Conflict(format string, args ...any) *ErrRevert {
	return Newf(ConfigConflict, format, args...)
}

func NotFoundf(format string, args ...any) *ErrRevert {
	return Newf(NotFound, format, args...)
}

func Precondition(format string, args ...any) *ErrRevert {
	return Newf(PreconditionViolation, format, args...)
}

func Overflow(what string) *ErrRevert {
	return Newf(ArithmeticOverflow, "arithmetic overflow: %s", what)
}

func Insufficient(format string, args ...any) *ErrRevert {
	return Newf(InsufficientFunds, format, args...)
}

func InternalErr(format string, args ...any) *ErrRevert {
	return Newf(Internal, format, args...)
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// Is reports whether err is a revert of the given kind.
func Is(err error, kind Kind) bool {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.Kind == kind
	}
	return false
}
