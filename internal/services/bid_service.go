package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"yoursell/internal/domain"
	"yoursell/pkg/keymutex"
	"yoursell/pkg/logger"
	"yoursell/pkg/utils"
)

// maxAdmitAttempts bounds the internal retry on a lost optimistic write.
// Retrying does not change bidder intent, so one transparent re-run of the
// full read-validate-write sequence is allowed before the conflict surfaces.
const maxAdmitAttempts = 2

// BidService is the single admission path for bids. All bidding-relevant
// fields of an auction are read and written only inside the per-auction
// critical section it shares with the sweeper and the lifecycle service.
type BidService struct {
	auctionRepo domain.AuctionRepository
	bidRepo     domain.BidRepository
	tx          domain.TxManager
	validator   *BidValidator
	extender    *AntiSnipeExtender
	eventPub    domain.EventPublisher
	locks       *keymutex.KeyMutex
	log         logger.Logger
}

func NewBidService(
	auctionRepo domain.AuctionRepository,
	bidRepo domain.BidRepository,
	tx domain.TxManager,
	validator *BidValidator,
	extender *AntiSnipeExtender,
	eventPub domain.EventPublisher,
	locks *keymutex.KeyMutex,
	log logger.Logger,
) *BidService {
	return &BidService{
		auctionRepo: auctionRepo,
		bidRepo:     bidRepo,
		tx:          tx,
		validator:   validator,
		extender:    extender,
		eventPub:    eventPub,
		locks:       locks,
		log:         log,
	}
}

func (s *BidService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*domain.Bid, error) {
	bid, err := s.admit(ctx, auctionID, bidderID, amount)
	if err != nil {
		s.publishRejection(ctx, auctionID, bidderID, amount, err)
		return nil, err
	}

	s.log.Info("Bid admitted",
		"auction_id", auctionID,
		"bidder_id", bidderID,
		"amount", amount.String())

	s.publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventBidAccepted,
		AuctionID: auctionID,
		UserID:    bidderID,
		Amount:    amount.String(),
		Timestamp: time.Now(),
	})
	return bid, nil
}

func (s *BidService) GetBid(ctx context.Context, bidID string) (*domain.Bid, error) {
	return s.bidRepo.Get(ctx, bidID)
}

func (s *BidService) ListBidsByAuction(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	if _, err := s.auctionRepo.Get(ctx, auctionID); err != nil {
		return nil, err
	}
	return s.bidRepo.ListByAuction(ctx, auctionID)
}

// admit holds the auction's critical section for the whole
// read-validate-write sequence so two concurrent bids can never both be
// admitted against the same stale highest bid.
func (s *BidService) admit(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*domain.Bid, error) {
	s.locks.Lock(auctionID)
	defer s.locks.Unlock(auctionID)

	for attempt := 1; ; attempt++ {
		bid, err := s.admitOnce(ctx, auctionID, bidderID, amount)
		if errors.Is(err, domain.ErrConcurrencyConflict) && attempt < maxAdmitAttempts {
			s.log.Warn("Bid lost optimistic write, revalidating",
				"auction_id", auctionID,
				"bidder_id", bidderID,
				"attempt", attempt)
			continue
		}
		return bid, err
	}
}

func (s *BidService) admitOnce(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*domain.Bid, error) {
	auction, err := s.auctionRepo.Get(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	winning, err := s.winningBid(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(auction, winning, bidderID, amount); err != nil {
		return nil, err
	}

	prior, err := s.priorBid(ctx, auctionID, bidderID)
	if err != nil {
		return nil, err
	}
	if prior != nil && !s.validator.AllowRebid() {
		return nil, domain.ErrDuplicateBid
	}

	now := time.Now()
	bid := prior
	if bid == nil {
		bid = &domain.Bid{
			ID:        utils.GenerateID("bid"),
			AuctionID: auctionID,
			BidderID:  bidderID,
			CreatedAt: now,
		}
	}

	// One transaction covers the auction row and every bid row. The
	// compare-and-swap on the auction's version stays the conflict detector;
	// a failure anywhere rolls the whole admission back, so the auction can
	// never reference a bid row that was not written.
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		auction.CurrentHighestBid = amount
		auction.WinningBidID = bid.ID
		auction.BidCount++
		if err := s.auctionRepo.Update(ctx, auction); err != nil {
			return err
		}

		if winning != nil && winning.ID != bid.ID {
			winning.IsWinning = false
			if err := s.bidRepo.Update(ctx, winning); err != nil {
				return err
			}
		}

		bid.Value = amount
		bid.IsWinning = true
		bid.UpdatedAt = now
		if prior != nil {
			return s.bidRepo.Update(ctx, bid)
		}
		return s.bidRepo.Create(ctx, bid)
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.extender.ExtendIfNeeded(ctx, auction, now.UnixMilli()); err != nil {
		// The bid is already committed; a failed extension must not void it.
		s.log.Error("Failed to apply anti-snipe extension",
			"auction_id", auctionID, "error", err)
	}

	return bid, nil
}

func (s *BidService) winningBid(ctx context.Context, auctionID string) (*domain.Bid, error) {
	winning, err := s.bidRepo.GetWinning(ctx, auctionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return winning, err
}

func (s *BidService) priorBid(ctx context.Context, auctionID, bidderID string) (*domain.Bid, error) {
	prior, err := s.bidRepo.GetActiveByBidder(ctx, auctionID, bidderID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return prior, err
}

func (s *BidService) publishRejection(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal, cause error) {
	switch {
	case errors.Is(cause, domain.ErrInvalidState),
		errors.Is(cause, domain.ErrForbidden),
		errors.Is(cause, domain.ErrInvalidAmount),
		errors.Is(cause, domain.ErrBidTooLow),
		errors.Is(cause, domain.ErrBidOutOfRange),
		errors.Is(cause, domain.ErrDuplicateBid):
		s.publish(ctx, &domain.AuctionEvent{
			Type:      domain.EventBidRejected,
			AuctionID: auctionID,
			UserID:    bidderID,
			Amount:    amount.String(),
			Reason:    cause.Error(),
			Timestamp: time.Now(),
		})
	}
}

func (s *BidService) publish(ctx context.Context, event *domain.AuctionEvent) {
	if s.eventPub == nil {
		return
	}
	if err := s.eventPub.PublishAuctionEvent(ctx, event); err != nil {
		s.log.Error("Failed to publish bid event",
			"auction_id", event.AuctionID, "type", event.Type, "error", err)
	}
}
