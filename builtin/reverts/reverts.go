// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts holds the user facing failures of native contracts.
// A revert aborts the whole call and rolls back every state change it made.
package reverts

import (
	"errors"
	"fmt"
)

// ErrRevert is a failure reported back to the caller of a native contract.
type ErrRevert struct {
	kind    string
	message string
}

// Kinds of revert.
var (
	ErrPoolNotFound      = &ErrRevert{kind: "PoolNotFound"}
	ErrInsufficientStake = &ErrRevert{kind: "InsufficientStake"}
	ErrInvalidWeight     = &ErrRevert{kind: "InvalidWeight"}
	ErrUnauthorized      = &ErrRevert{kind: "Unauthorized"}
	ErrAlreadyBound      = &ErrRevert{kind: "AlreadyBound"}
	ErrTransferFailed    = &ErrRevert{kind: "TransferFailed"}
)

// New creates a revert of the given kind with a message, it matches the kind sentinel with errors.Is.
func New(kind *ErrRevert, format string, args ...any) *ErrRevert {
	return &ErrRevert{kind: kind.kind, message: fmt.Sprintf(format, args...)}
}

func (e *ErrRevert) Kind() string {
	return e.kind
}

func (e *ErrRevert) Error() string {
	if e.message == "" {
		return e.kind
	}
	return e.kind + ": " + e.message
}

// Is reports whether target is a revert of the same kind.
func (e *ErrRevert) Is(target error) bool {
	t, ok := target.(*ErrRevert)
	return ok && t.kind == e.kind
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var re *ErrRevert
	if errors.As(e, &re) {
		return re != nil
	}
	return false
}
