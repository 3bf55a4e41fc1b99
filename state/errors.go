// Copyright (c) 2019 The brcdChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Domain errors raised by state mutators. Each failure site wraps these with
// the name of the failing interface via errors.WithMessage, so callers can
// classify with errors.Cause and still see the operation in the message.
var (
	// ErrNotEnoughCash a balance-like subtraction would go below zero.
	ErrNotEnoughCash = errors.New("not enough cash")
	// ErrNotEnoughBallot a ballot subtraction would go below zero.
	ErrNotEnoughBallot = errors.New("not enough ballot")
	// ErrNotEnoughPoll a poll subtraction would go below zero.
	ErrNotEnoughPoll = errors.New("not enough poll")
	// ErrNotEnoughVoteLog a vote withdrawal exceeds the recorded votes.
	ErrNotEnoughVoteLog = errors.New("not enough vote log")
	// ErrInvalidAddress the operation targets a non-existent account and
	// auto-creation is disallowed.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidSystemAddress the system account of a vote-data operation is missing.
	ErrInvalidSystemAddress = errors.New("invalid system address")
	// ErrInvalidAccountStartNonce the account start nonce was used before
	// being noted, or noted twice with different values.
	ErrInvalidAccountStartNonce = errors.New("invalid account start nonce")
	// ErrDatabaseAlreadyOpen the state database is locked by another instance.
	ErrDatabaseAlreadyOpen = errors.New("database already open")
	// ErrNotEnoughAvailableSpace the disk backing the state database is full.
	ErrNotEnoughAvailableSpace = errors.New("not enough available space")
	// ErrInterfaceNotSupported the feature is disabled in this build/config.
	ErrInterfaceNotSupported = errors.New("interface not supported")
)
