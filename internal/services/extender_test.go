package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"yoursell/internal/domain"
	"yoursell/pkg/logger"
)

func extendableAuction() *domain.Auction {
	now := time.Now().UnixMilli()
	return &domain.Auction{
		ID:                  "auction-1",
		OwnerID:             "seller",
		VehicleID:           "vehicle-1",
		Status:              domain.AuctionStarted,
		Duration:            domain.DurationDay,
		StartTime:           now,
		EndTime:             now + domain.DurationDay.Millis(),
		AutoExtendEnabled:   true,
		AutoExtendThreshold: time.Minute.Milliseconds(),
		AutoExtendDuration:  (10 * time.Minute).Milliseconds(),
	}
}

func TestAntiSnipeExtender_RetriesLostWrite(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	repo := newMemAuctionRepo()
	auction := extendableAuction()
	auction.EndTime = time.Now().UnixMilli() + 30*1000
	originalEnd := auction.EndTime
	req.NoError(repo.Create(ctx, auction))

	// One lost optimistic write is absorbed by re-reading the fresh row and
	// re-applying; the extension lands exactly once.
	repo.failUpdates = 1
	extender := NewAntiSnipeExtender(repo, logger.NewNop())
	fired, err := extender.ExtendIfNeeded(ctx, auction, auction.EndTime-10*1000)
	req.NoError(err)
	req.True(fired)

	stored, err := repo.Get(ctx, auction.ID)
	req.NoError(err)
	req.True(stored.IsExtended)
	req.Equal(originalEnd+auction.AutoExtendDuration, stored.EndTime)
}

func TestAntiSnipeExtender_RetryHonorsFreshState(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	repo := newMemAuctionRepo()
	auction := extendableAuction()
	auction.EndTime = time.Now().UnixMilli() + 30*1000
	req.NoError(repo.Create(ctx, auction))
	bidTime := auction.EndTime - 10*1000

	// The racing writer already fired the extension. The retry re-reads,
	// sees the one-shot spent and stays idle instead of extending twice.
	stored, err := repo.Get(ctx, auction.ID)
	req.NoError(err)
	stored.IsExtended = true
	stored.EndTime += stored.AutoExtendDuration
	req.NoError(repo.Update(ctx, stored))

	extender := NewAntiSnipeExtender(repo, logger.NewNop())
	fired, err := extender.ExtendIfNeeded(ctx, auction, bidTime)
	req.NoError(err)
	req.False(fired)

	final, err := repo.Get(ctx, auction.ID)
	req.NoError(err)
	req.Equal(stored.EndTime, final.EndTime)
}

func TestAntiSnipeExtender_ExtendIfNeeded(t *testing.T) {
	minute := time.Minute.Milliseconds()

	tests := []struct {
		name string
		// remaining is EndTime minus the bid's commit time.
		remaining  int64
		disabled   bool
		isExtended bool
		want       bool
	}{
		{name: "fires inside the window", remaining: 30 * 1000, want: true},
		{name: "fires exactly at the threshold", remaining: minute, want: true},
		{name: "fires when the bid lands after the end time", remaining: -5 * 1000, want: true},
		{name: "idle outside the window", remaining: minute + 1},
		{name: "idle when auto-extend is disabled", remaining: 30 * 1000, disabled: true},
		{name: "idle after the one-shot fired", remaining: 30 * 1000, isExtended: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			ctx := context.Background()

			repo := newMemAuctionRepo()
			auction := extendableAuction()
			auction.AutoExtendEnabled = !tt.disabled
			auction.IsExtended = tt.isExtended
			req.NoError(repo.Create(ctx, auction))

			extender := NewAntiSnipeExtender(repo, logger.NewNop())
			bidTime := auction.EndTime - tt.remaining
			originalEnd := auction.EndTime

			fired, err := extender.ExtendIfNeeded(ctx, auction, bidTime)
			req.NoError(err)
			req.Equal(tt.want, fired)

			stored, err := repo.Get(ctx, auction.ID)
			req.NoError(err)
			if tt.want {
				req.Equal(originalEnd+auction.AutoExtendDuration, stored.EndTime)
				req.True(stored.IsExtended)
			} else {
				req.Equal(originalEnd, stored.EndTime)
			}
		})
	}
}
