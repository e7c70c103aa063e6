package services

import (
	"context"
	"errors"

	"yoursell/internal/domain"
	"yoursell/pkg/logger"
)

// AntiSnipeExtender pushes out an auction's end time when a bid lands inside
// the auto-extend window, giving other bidders a chance to respond. The
// extension fires at most once per run; further last-second bids after it has
// fired are accepted as final.
type AntiSnipeExtender struct {
	auctionRepo domain.AuctionRepository
	log         logger.Logger
}

func NewAntiSnipeExtender(auctionRepo domain.AuctionRepository, log logger.Logger) *AntiSnipeExtender {
	return &AntiSnipeExtender{
		auctionRepo: auctionRepo,
		log:         log,
	}
}

// ExtendIfNeeded must be called with the auction's critical section held and
// bidTime set to the admitted bid's commit timestamp in epoch millis. It
// persists the auction when the extension fires and reports whether it did.
// A lost optimistic write (a writer on another instance got in between) is
// absorbed once by re-reading and re-deciding against the fresh row.
func (e *AntiSnipeExtender) ExtendIfNeeded(ctx context.Context, auction *domain.Auction, bidTime int64) (bool, error) {
	fired, err := e.extendOnce(ctx, auction, bidTime)
	if !errors.Is(err, domain.ErrConcurrencyConflict) {
		return fired, err
	}

	fresh, err := e.auctionRepo.Get(ctx, auction.ID)
	if err != nil {
		return false, err
	}
	*auction = *fresh
	return e.extendOnce(ctx, auction, bidTime)
}

func (e *AntiSnipeExtender) extendOnce(ctx context.Context, auction *domain.Auction, bidTime int64) (bool, error) {
	if !auction.AutoExtendEnabled || auction.IsExtended {
		return false, nil
	}
	if auction.EndTime-bidTime > auction.AutoExtendThreshold {
		return false, nil
	}

	auction.EndTime += auction.AutoExtendDuration
	auction.IsExtended = true

	if err := e.auctionRepo.Update(ctx, auction); err != nil {
		return false, err
	}

	e.log.Info("Auction end time extended",
		"auction_id", auction.ID,
		"new_end_time", auction.EndTime)
	return true, nil
}
