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

// AutoExtendPolicy supplies instance-wide defaults for auctions created
// without explicit anti-snipe settings.
type AutoExtendPolicy struct {
	Enabled         bool
	ThresholdMillis int64
	DurationMillis  int64
}

// AuctionService owns the auction lifecycle: creation, start, pause, cancel,
// restart and deletion. Every mutation of a single auction runs inside the
// per-auction critical section shared with bid admission and the sweeper.
type AuctionService struct {
	auctionRepo domain.AuctionRepository
	bidRepo     domain.BidRepository
	items       domain.ItemService
	eventPub    domain.EventPublisher
	locks       *keymutex.KeyMutex
	autoExtend  AutoExtendPolicy
	log         logger.Logger
}

func NewAuctionService(
	auctionRepo domain.AuctionRepository,
	bidRepo domain.BidRepository,
	items domain.ItemService,
	eventPub domain.EventPublisher,
	locks *keymutex.KeyMutex,
	autoExtend AutoExtendPolicy,
	log logger.Logger,
) *AuctionService {
	return &AuctionService{
		auctionRepo: auctionRepo,
		bidRepo:     bidRepo,
		items:       items,
		eventPub:    eventPub,
		locks:       locks,
		autoExtend:  autoExtend,
		log:         log,
	}
}

type CreateAuctionParams struct {
	OwnerID       string
	VehicleID     string
	ReservePrice  decimal.Decimal
	ExpectedPrice decimal.Decimal
	Duration      domain.AuctionDuration
	// StartImmediately lists and starts the auction in one step, the
	// default behavior. When false the auction stays CREATED until an
	// explicit StartAuction call.
	StartImmediately bool
	// Zero values fall back to the instance-wide auto-extend policy.
	AutoExtendEnabled        *bool
	AutoExtendDurationMillis int64
}

func (s *AuctionService) CreateAuction(ctx context.Context, params CreateAuctionParams) (*domain.Auction, error) {
	if !params.Duration.Valid() {
		return nil, domain.ErrBadInput
	}
	if params.ReservePrice.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	exists, err := s.items.Exists(ctx, params.VehicleID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	owned, err := s.items.IsOwnedBy(ctx, params.VehicleID, params.OwnerID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, domain.ErrForbidden
	}

	auction := domain.NewAuction(
		utils.GenerateID("auction"),
		params.OwnerID,
		params.VehicleID,
		params.ReservePrice,
		params.ExpectedPrice,
		params.Duration,
	)
	auction.AutoExtendEnabled = s.autoExtend.Enabled
	if params.AutoExtendEnabled != nil {
		auction.AutoExtendEnabled = *params.AutoExtendEnabled
	}
	auction.AutoExtendThreshold = s.autoExtend.ThresholdMillis
	auction.AutoExtendDuration = s.autoExtend.DurationMillis
	if params.AutoExtendDurationMillis > 0 {
		auction.AutoExtendDuration = params.AutoExtendDurationMillis
	}
	auction.CreatedAt = time.Now()
	auction.UpdatedAt = auction.CreatedAt

	// Flagging the vehicle guards against double-listing: a vehicle
	// already on auction cannot be listed again.
	if err := s.items.SetOnAuction(ctx, params.VehicleID, true); err != nil {
		return nil, err
	}

	if params.StartImmediately {
		if err := s.startRun(auction, params.Duration); err != nil {
			s.releaseVehicle(ctx, params.VehicleID)
			return nil, err
		}
	}

	if err := s.auctionRepo.Create(ctx, auction); err != nil {
		s.releaseVehicle(ctx, params.VehicleID)
		return nil, err
	}

	s.log.Info("Auction created",
		"auction_id", auction.ID,
		"owner_id", auction.OwnerID,
		"vehicle_id", auction.VehicleID,
		"status", auction.Status)

	if auction.Status == domain.AuctionStarted {
		s.publishStarted(ctx, auction)
	}
	return auction, nil
}

// StartAuction starts a CREATED auction with fresh timers. Owner only.
func (s *AuctionService) StartAuction(ctx context.Context, auctionID, callerID string) (*domain.Auction, error) {
	auction, err := s.mutate(ctx, auctionID, callerID, func(auction *domain.Auction) error {
		if auction.Status != domain.AuctionCreated {
			return &domain.InvalidTransitionError{From: auction.Status, To: domain.AuctionStarted}
		}
		return s.startRun(auction, auction.Duration)
	})
	if err != nil {
		return nil, err
	}

	s.publishStarted(ctx, auction)
	return auction, nil
}

// PauseAuction suspends bidding without ending the run.
func (s *AuctionService) PauseAuction(ctx context.Context, auctionID, callerID string) (*domain.Auction, error) {
	return s.mutate(ctx, auctionID, callerID, func(auction *domain.Auction) error {
		return domain.Transition(auction, domain.AuctionPaused)
	})
}

// ResumeAuction continues a paused run. The clock keeps running while
// paused, so the end time is unchanged.
func (s *AuctionService) ResumeAuction(ctx context.Context, auctionID, callerID string) (*domain.Auction, error) {
	return s.mutate(ctx, auctionID, callerID, func(auction *domain.Auction) error {
		if auction.Status != domain.AuctionPaused {
			return &domain.InvalidTransitionError{From: auction.Status, To: domain.AuctionStarted}
		}
		return domain.Transition(auction, domain.AuctionStarted)
	})
}

func (s *AuctionService) CancelAuction(ctx context.Context, auctionID, callerID string) (*domain.Auction, error) {
	auction, err := s.mutate(ctx, auctionID, callerID, func(auction *domain.Auction) error {
		return domain.Transition(auction, domain.AuctionCancelled)
	})
	if err != nil {
		return nil, err
	}

	s.releaseVehicle(ctx, auction.VehicleID)
	s.log.Info("Auction cancelled", "auction_id", auction.ID)
	return auction, nil
}

// RestartAuction re-enters STARTED from CLOSED or CANCELLED with fresh
// timers. The previous run's bids are archived; the highest bid falls back to
// the floor and the winner and extension flag are cleared. Owner only.
func (s *AuctionService) RestartAuction(ctx context.Context, auctionID, callerID string, duration domain.AuctionDuration, reservePrice *decimal.Decimal) (*domain.Auction, error) {
	if !duration.Valid() {
		return nil, domain.ErrBadInput
	}

	s.locks.Lock(auctionID)
	defer s.locks.Unlock(auctionID)

	auction, err := s.auctionRepo.Get(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if auction.OwnerID != callerID {
		return nil, domain.ErrForbidden
	}
	if !domain.CanTransition(auction.Status, domain.AuctionStarted) || auction.Status == domain.AuctionPaused {
		return nil, &domain.InvalidTransitionError{From: auction.Status, To: domain.AuctionStarted}
	}

	// Re-acquire the vehicle before committing anything: it may have been
	// listed in another auction since this one ended.
	if err := s.items.SetOnAuction(ctx, auction.VehicleID, true); err != nil {
		return nil, err
	}

	if err := s.bidRepo.ArchiveByAuction(ctx, auctionID); err != nil {
		s.releaseVehicle(ctx, auction.VehicleID)
		return nil, err
	}

	if reservePrice != nil {
		auction.ReservePrice = *reservePrice
	}
	auction.Duration = duration
	if err := s.startRun(auction, duration); err != nil {
		s.releaseVehicle(ctx, auction.VehicleID)
		return nil, err
	}

	if err := s.auctionRepo.Update(ctx, auction); err != nil {
		s.releaseVehicle(ctx, auction.VehicleID)
		return nil, err
	}

	s.log.Info("Auction restarted",
		"auction_id", auction.ID,
		"end_time", auction.EndTime)
	s.publishStarted(ctx, auction)
	return auction, nil
}

// ExtendAuctionDuration is the owner's manual extension: the end time is
// recomputed from now. Extensions only ever push the end time out.
func (s *AuctionService) ExtendAuctionDuration(ctx context.Context, auctionID, callerID string, duration domain.AuctionDuration) (*domain.Auction, error) {
	if !duration.Valid() {
		return nil, domain.ErrBadInput
	}

	auction, err := s.mutate(ctx, auctionID, callerID, func(auction *domain.Auction) error {
		if auction.Status != domain.AuctionStarted {
			return domain.ErrInvalidState
		}
		newEnd := time.Now().UnixMilli() + duration.Millis()
		if newEnd <= auction.EndTime {
			return domain.ErrBadInput
		}
		auction.EndTime = newEnd
		auction.Duration = duration
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.eventPub != nil {
		event := &domain.AuctionEvent{
			Type:      domain.EventAuctionExtended,
			AuctionID: auction.ID,
			Timestamp: time.Now(),
		}
		if err := s.eventPub.PublishAuctionEvent(ctx, event); err != nil {
			s.log.Error("Failed to publish extension event",
				"auction_id", auction.ID, "error", err)
		}
	}
	return auction, nil
}

// DeleteAuction removes the auction and cascades to its bids. This is an
// explicit administrative action, restricted to the owner.
func (s *AuctionService) DeleteAuction(ctx context.Context, auctionID, callerID string) error {
	s.locks.Lock(auctionID)
	defer s.locks.Unlock(auctionID)

	auction, err := s.auctionRepo.Get(ctx, auctionID)
	if err != nil {
		return err
	}
	if auction.OwnerID != callerID {
		return domain.ErrForbidden
	}

	if auction.Status == domain.AuctionStarted || auction.Status == domain.AuctionPaused {
		s.releaseVehicle(ctx, auction.VehicleID)
	}

	if err := s.bidRepo.DeleteByAuction(ctx, auctionID); err != nil {
		return err
	}
	if err := s.auctionRepo.Delete(ctx, auctionID); err != nil {
		return err
	}

	s.log.Info("Auction deleted", "auction_id", auctionID)
	return nil
}

func (s *AuctionService) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	return s.auctionRepo.Get(ctx, auctionID)
}

func (s *AuctionService) ListAuctions(ctx context.Context) ([]*domain.Auction, error) {
	return s.auctionRepo.List(ctx)
}

func (s *AuctionService) ListAuctionsByStatus(ctx context.Context, status domain.AuctionStatus) ([]*domain.Auction, error) {
	return s.auctionRepo.ListByStatus(ctx, status)
}

func (s *AuctionService) ListAuctionsByOwner(ctx context.Context, ownerID string) ([]*domain.Auction, error) {
	return s.auctionRepo.ListByOwner(ctx, ownerID)
}

// mutate runs fn on the auction inside its critical section and persists the
// result. Owner-only.
func (s *AuctionService) mutate(ctx context.Context, auctionID, callerID string, fn func(*domain.Auction) error) (*domain.Auction, error) {
	s.locks.Lock(auctionID)
	defer s.locks.Unlock(auctionID)

	auction, err := s.auctionRepo.Get(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if auction.OwnerID != callerID {
		return nil, domain.ErrForbidden
	}

	if err := fn(auction); err != nil {
		return nil, err
	}

	if err := s.auctionRepo.Update(ctx, auction); err != nil {
		return nil, err
	}
	return auction, nil
}

// startRun computes fresh timers and enters STARTED.
func (s *AuctionService) startRun(auction *domain.Auction, duration domain.AuctionDuration) error {
	now := time.Now().UnixMilli()
	if err := domain.Transition(auction, domain.AuctionStarted); err != nil {
		return err
	}
	auction.StartTime = now
	auction.EndTime = now + duration.Millis()
	return nil
}

func (s *AuctionService) releaseVehicle(ctx context.Context, vehicleID string) {
	if err := s.items.SetOnAuction(ctx, vehicleID, false); err != nil &&
		!errors.Is(err, domain.ErrNotFound) {
		s.log.Error("Failed to clear vehicle on-auction flag",
			"vehicle_id", vehicleID, "error", err)
	}
}

func (s *AuctionService) publishStarted(ctx context.Context, auction *domain.Auction) {
	if s.eventPub == nil {
		return
	}
	event := &domain.AuctionEvent{
		Type:      domain.EventAuctionStarted,
		AuctionID: auction.ID,
		Timestamp: time.Now(),
	}
	if err := s.eventPub.PublishAuctionEvent(ctx, event); err != nil {
		s.log.Error("Failed to publish start event",
			"auction_id", auction.ID, "error", err)
	}
}
