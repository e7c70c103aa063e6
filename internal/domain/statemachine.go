package domain

import "github.com/shopspring/decimal"

// Legal status transitions. Restarts of terminal auctions re-enter STARTED
// with fresh timers and are listed here as CLOSED/CANCELLED -> STARTED.
var transitions = map[AuctionStatus][]AuctionStatus{
	AuctionCreated:   {AuctionStarted},
	AuctionStarted:   {AuctionPaused, AuctionCancelled, AuctionClosed},
	AuctionPaused:    {AuctionStarted},
	AuctionClosed:    {AuctionStarted},
	AuctionCancelled: {AuctionStarted},
}

func CanTransition(from, to AuctionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition is the only way any component changes an auction's status. It
// validates the move against the transition table and applies the entity-level
// side effects of starting a new run: the previous run's winner and one-shot
// extension flag are cleared and the highest bid falls back to the floor.
// Resuming from PAUSED continues the same run and keeps its bid state.
// BidCount is cumulative across runs and is deliberately left alone.
func Transition(a *Auction, to AuctionStatus) error {
	if !CanTransition(a.Status, to) {
		return &InvalidTransitionError{From: a.Status, To: to}
	}

	from := a.Status
	a.Status = to

	if to == AuctionStarted && from != AuctionPaused {
		a.WinningBidID = ""
		a.IsExtended = false
		a.CurrentHighestBid = a.Floor()
	}

	return nil
}

// NewAuction builds an auction in its initial CREATED state.
func NewAuction(id, ownerID, vehicleID string, reservePrice, expectedPrice decimal.Decimal, duration AuctionDuration) *Auction {
	a := &Auction{
		ID:            id,
		OwnerID:       ownerID,
		VehicleID:     vehicleID,
		Status:        AuctionCreated,
		ReservePrice:  reservePrice,
		ExpectedPrice: expectedPrice,
		Duration:      duration,
	}
	a.CurrentHighestBid = a.Floor()
	return a
}
