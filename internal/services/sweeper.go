package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"yoursell/internal/domain"
	"yoursell/pkg/keymutex"
	"yoursell/pkg/logger"
)

// ExpirationSweeper closes STARTED auctions whose end time has passed. It
// runs on a fixed configurable interval and contends with bid admission for
// the same auctions, so every close happens inside the shared per-auction
// critical section. The sweep is idempotent: auctions already closed by a
// racing writer are silently skipped.
type ExpirationSweeper struct {
	auctionRepo domain.AuctionRepository
	bidRepo     domain.BidRepository
	items       domain.ItemService
	eventPub    domain.EventPublisher
	leader      domain.LeaderElection
	locks       *keymutex.KeyMutex
	instanceID  string
	interval    time.Duration
	cron        *cron.Cron
	log         logger.Logger
}

func NewExpirationSweeper(
	auctionRepo domain.AuctionRepository,
	bidRepo domain.BidRepository,
	items domain.ItemService,
	eventPub domain.EventPublisher,
	leader domain.LeaderElection,
	locks *keymutex.KeyMutex,
	instanceID string,
	interval time.Duration,
	log logger.Logger,
) *ExpirationSweeper {
	return &ExpirationSweeper{
		auctionRepo: auctionRepo,
		bidRepo:     bidRepo,
		items:       items,
		eventPub:    eventPub,
		leader:      leader,
		locks:       locks,
		instanceID:  instanceID,
		interval:    interval,
		cron:        cron.New(cron.WithSeconds()),
		log:         log,
	}
}

func (s *ExpirationSweeper) Start(ctx context.Context) error {
	s.log.Info("Starting expiration sweeper", "interval", s.interval.String())

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		if err := s.SweepOnce(ctx); err != nil {
			s.log.Error("Expiration sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *ExpirationSweeper) Stop() error {
	s.log.Info("Stopping expiration sweeper")
	s.cron.Stop()
	return nil
}

// SweepOnce runs a single sweep cycle synchronously. A failure on one auction
// is logged and must not abort the remainder of the sweep.
func (s *ExpirationSweeper) SweepOnce(ctx context.Context) error {
	if s.leader != nil {
		isLeader, err := s.leader.IsLeader(ctx, s.instanceID)
		if err != nil {
			return err
		}
		if !isLeader {
			return nil
		}
	}

	now := time.Now().UnixMilli()
	expired, err := s.auctionRepo.ListExpired(ctx, now)
	if err != nil {
		return err
	}

	for _, auction := range expired {
		if err := s.closeAuction(ctx, auction.ID); err != nil {
			s.log.Error("Failed to close expired auction",
				"auction_id", auction.ID, "error", err)
		}
	}
	return nil
}

func (s *ExpirationSweeper) closeAuction(ctx context.Context, auctionID string) error {
	s.locks.Lock(auctionID)
	defer s.locks.Unlock(auctionID)

	auction, err := s.auctionRepo.Get(ctx, auctionID)
	if errors.Is(err, domain.ErrNotFound) {
		// Deleted between the query and the lock acquisition.
		return nil
	}
	if err != nil {
		return err
	}

	// A transition may have won the race between the expired-query and the
	// lock acquisition. The close is then already done.
	if auction.Status != domain.AuctionStarted {
		return nil
	}
	// An anti-snipe extension may have pushed the end time past now.
	if auction.EndTime > time.Now().UnixMilli() {
		return nil
	}

	if err := domain.Transition(auction, domain.AuctionClosed); err != nil {
		return err
	}

	winning, err := s.bidRepo.GetWinning(ctx, auctionID)
	switch {
	case err == nil:
		auction.WinningBidID = winning.ID
	case errors.Is(err, domain.ErrNotFound):
		// Closed without a winner; never persist a dangling reference.
		auction.WinningBidID = ""
	default:
		return err
	}

	if err := s.auctionRepo.Update(ctx, auction); err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			// A racing writer got there first; the next tick re-checks.
			return nil
		}
		return err
	}

	if err := s.items.SetOnAuction(ctx, auction.VehicleID, false); err != nil {
		return err
	}

	s.log.Info("Auction closed",
		"auction_id", auction.ID,
		"winning_bid_id", auction.WinningBidID,
		"bid_count", auction.BidCount)

	if s.eventPub != nil {
		event := &domain.AuctionEvent{
			Type:      domain.EventAuctionClosed,
			AuctionID: auction.ID,
			Timestamp: time.Now(),
		}
		if err := s.eventPub.PublishAuctionEvent(ctx, event); err != nil {
			s.log.Error("Failed to publish close event",
				"auction_id", auction.ID, "error", err)
		}
	}
	return nil
}
