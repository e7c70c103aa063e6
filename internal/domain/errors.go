package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an auction, bid or vehicle does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when an operation is illegal for the
	// auction's current status, e.g. bidding on a closed auction.
	ErrInvalidState = errors.New("operation not allowed in current auction state")
	// ErrForbidden is returned when the caller may not perform the operation,
	// e.g. an owner bidding on their own auction.
	ErrForbidden = errors.New("forbidden")

	// Bid admission rejections. Each failing rule surfaces its own error so
	// clients can tell "bid too low" from "auction closed".
	ErrInvalidAmount = errors.New("bid amount must be greater than zero")
	ErrBidTooLow     = errors.New("bid does not exceed current highest bid")
	ErrBidOutOfRange = errors.New("bid outside configured increment bounds")
	ErrDuplicateBid  = errors.New("duplicate bid")

	// ErrConcurrencyConflict signals a lost optimistic write. It is the only
	// error eligible for automatic retry.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")

	ErrAlreadyOnAuction = errors.New("vehicle is already on auction")
	ErrAlreadyExists    = errors.New("already exists")
	ErrBadInput         = errors.New("invalid input")
)

// ErrInvalidTransition is the sentinel matched by errors.Is for any
// InvalidTransitionError.
var ErrInvalidTransition = errors.New("invalid auction status transition")

type InvalidTransitionError struct {
	From AuctionStatus
	To   AuctionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid auction status transition from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
