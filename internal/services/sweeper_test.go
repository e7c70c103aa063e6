package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"yoursell/internal/domain"
	"yoursell/pkg/keymutex"
	"yoursell/pkg/logger"
)

type sweeperFixture struct {
	auctionRepo *memAuctionRepo
	bidRepo     *memBidRepo
	vehicleRepo *memVehicleRepo
	publisher   *capturingPublisher
	leader      *staticLeader
	sweeper     *ExpirationSweeper
}

func newSweeperFixture(t *testing.T) *sweeperFixture {
	t.Helper()

	f := &sweeperFixture{
		auctionRepo: newMemAuctionRepo(),
		bidRepo:     newMemBidRepo(),
		vehicleRepo: newMemVehicleRepo(),
		publisher:   &capturingPublisher{},
		leader:      &staticLeader{leader: true},
	}
	log := logger.NewNop()
	f.sweeper = NewExpirationSweeper(
		f.auctionRepo,
		f.bidRepo,
		NewVehicleService(f.vehicleRepo, log),
		f.publisher,
		f.leader,
		keymutex.New(),
		"instance-1",
		5*time.Second,
		log,
	)
	return f
}

func (f *sweeperFixture) seedAuction(t *testing.T, auction *domain.Auction) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.vehicleRepo.Create(ctx, &domain.Vehicle{
		ID:        auction.VehicleID,
		SellerID:  auction.OwnerID,
		Vin:       "VIN-" + auction.VehicleID,
		OnAuction: auction.Status == domain.AuctionStarted,
	}))
	require.NoError(t, f.auctionRepo.Create(ctx, auction))
}

func expiredAuction(id string) *domain.Auction {
	now := time.Now().UnixMilli()
	return &domain.Auction{
		ID:        id,
		OwnerID:   "seller",
		VehicleID: "vehicle-" + id,
		Status:    domain.AuctionStarted,
		Duration:  domain.DurationMinute,
		StartTime: now - 2*domain.DurationMinute.Millis(),
		EndTime:   now - domain.DurationMinute.Millis(),
	}
}

func TestExpirationSweeper_ClosesExpiredAuction(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSweeperFixture(t)

	auction := expiredAuction("auction-1")
	f.seedAuction(t, auction)
	req.NoError(f.bidRepo.Create(ctx, &domain.Bid{
		ID:        "bid-1",
		AuctionID: "auction-1",
		BidderID:  "alice",
		Value:     dec("1500"),
		IsWinning: true,
	}))

	req.NoError(f.sweeper.SweepOnce(ctx))

	closed, err := f.auctionRepo.Get(ctx, "auction-1")
	req.NoError(err)
	req.Equal(domain.AuctionClosed, closed.Status)
	req.Equal("bid-1", closed.WinningBidID)

	vehicle, err := f.vehicleRepo.Get(ctx, auction.VehicleID)
	req.NoError(err)
	req.False(vehicle.OnAuction)

	events := f.publisher.eventsOfType(domain.EventAuctionClosed)
	req.Len(events, 1)
	req.Equal("auction-1", events[0].AuctionID)
}

func TestExpirationSweeper_ClosesWithoutWinner(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSweeperFixture(t)

	// The auction carries a stale winner reference with no backing winning
	// bid row; the close must clear it rather than persist a dangling id.
	auction := expiredAuction("auction-1")
	auction.WinningBidID = "bid-gone"
	f.seedAuction(t, auction)

	req.NoError(f.sweeper.SweepOnce(ctx))

	closed, err := f.auctionRepo.Get(ctx, "auction-1")
	req.NoError(err)
	req.Equal(domain.AuctionClosed, closed.Status)
	req.Empty(closed.WinningBidID)
}

func TestExpirationSweeper_LeavesRunningAuctions(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSweeperFixture(t)

	running := expiredAuction("auction-1")
	running.EndTime = time.Now().UnixMilli() + domain.DurationDay.Millis()
	f.seedAuction(t, running)

	req.NoError(f.sweeper.SweepOnce(ctx))

	auction, err := f.auctionRepo.Get(ctx, "auction-1")
	req.NoError(err)
	req.Equal(domain.AuctionStarted, auction.Status)
}

func TestExpirationSweeper_Idempotent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSweeperFixture(t)
	f.seedAuction(t, expiredAuction("auction-1"))

	req.NoError(f.sweeper.SweepOnce(ctx))
	req.NoError(f.sweeper.SweepOnce(ctx))

	// The second sweep sees no STARTED auction and does nothing.
	req.Len(f.publisher.eventsOfType(domain.EventAuctionClosed), 1)
}

func TestExpirationSweeper_RequiresLeadership(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSweeperFixture(t)
	f.leader.leader = false
	f.seedAuction(t, expiredAuction("auction-1"))

	req.NoError(f.sweeper.SweepOnce(ctx))

	auction, err := f.auctionRepo.Get(ctx, "auction-1")
	req.NoError(err)
	req.Equal(domain.AuctionStarted, auction.Status)
	req.Empty(f.publisher.eventsOfType(domain.EventAuctionClosed))
}

func TestExpirationSweeper_SkipsAuctionsPastOneFailure(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newSweeperFixture(t)

	// The first auction's vehicle is missing, so releasing it fails. The
	// second auction must still be swept.
	broken := expiredAuction("auction-1")
	req.NoError(f.auctionRepo.Create(ctx, broken))
	f.seedAuction(t, expiredAuction("auction-2"))

	req.NoError(f.sweeper.SweepOnce(ctx))

	swept, err := f.auctionRepo.Get(ctx, "auction-2")
	req.NoError(err)
	req.Equal(domain.AuctionClosed, swept.Status)
}
