package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"yoursell/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func startedAuction(ownerID string, currentHighest decimal.Decimal) *domain.Auction {
	return &domain.Auction{
		ID:                "auction-1",
		OwnerID:           ownerID,
		Status:            domain.AuctionStarted,
		CurrentHighestBid: currentHighest,
	}
}

func TestBidValidator_Validate(t *testing.T) {
	policy := BidPolicy{
		MinIncrement: dec("100"),
		MaxIncrement: dec("1000"),
		AllowRebid:   true,
	}
	v := NewBidValidator(policy)

	tests := []struct {
		name    string
		auction *domain.Auction
		winning *domain.Bid
		bidder  string
		amount  decimal.Decimal
		wantErr error
	}{
		{
			name:    "admits bid above current plus min increment",
			auction: startedAuction("seller", dec("1000")),
			bidder:  "alice",
			amount:  dec("1100"),
		},
		{
			name:    "admits bid at current plus max increment",
			auction: startedAuction("seller", dec("1000")),
			bidder:  "alice",
			amount:  dec("2000"),
		},
		{
			name: "rejects bid on created auction",
			auction: &domain.Auction{
				OwnerID: "seller",
				Status:  domain.AuctionCreated,
			},
			bidder:  "alice",
			amount:  dec("1100"),
			wantErr: domain.ErrInvalidState,
		},
		{
			name: "rejects bid on paused auction",
			auction: &domain.Auction{
				OwnerID: "seller",
				Status:  domain.AuctionPaused,
			},
			bidder:  "alice",
			amount:  dec("1100"),
			wantErr: domain.ErrInvalidState,
		},
		{
			name:    "rejects owner bidding on own auction",
			auction: startedAuction("seller", dec("1000")),
			bidder:  "seller",
			amount:  dec("1100"),
			wantErr: domain.ErrForbidden,
		},
		{
			name:    "rejects zero amount",
			auction: startedAuction("seller", dec("1000")),
			bidder:  "alice",
			amount:  decimal.Zero,
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "rejects negative amount",
			auction: startedAuction("seller", dec("1000")),
			bidder:  "alice",
			amount:  dec("-50"),
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "rejects amount below current highest",
			auction: startedAuction("seller", dec("1000")),
			bidder:  "alice",
			amount:  dec("900"),
			wantErr: domain.ErrBidTooLow,
		},
		{
			name:    "rejects amount equal to current highest",
			auction: startedAuction("seller", dec("1000")),
			bidder:  "alice",
			amount:  dec("1000"),
			wantErr: domain.ErrBidTooLow,
		},
		{
			name:    "flags leader resubmitting own winning amount as duplicate",
			auction: startedAuction("seller", dec("1000")),
			winning: &domain.Bid{BidderID: "alice", Value: dec("1000"), IsWinning: true},
			bidder:  "alice",
			amount:  dec("1000"),
			wantErr: domain.ErrDuplicateBid,
		},
		{
			name:    "rejects amount under min increment",
			auction: startedAuction("seller", dec("1000")),
			bidder:  "alice",
			amount:  dec("1050"),
			wantErr: domain.ErrBidOutOfRange,
		},
		{
			name:    "rejects amount over max increment",
			auction: startedAuction("seller", dec("1000")),
			bidder:  "alice",
			amount:  dec("2001"),
			wantErr: domain.ErrBidOutOfRange,
		},
		{
			name:    "owner check precedes amount checks",
			auction: startedAuction("seller", dec("1000")),
			bidder:  "seller",
			amount:  decimal.Zero,
			wantErr: domain.ErrForbidden,
		},
		{
			name: "status check precedes owner check",
			auction: &domain.Auction{
				OwnerID: "seller",
				Status:  domain.AuctionClosed,
			},
			bidder:  "seller",
			amount:  dec("1100"),
			wantErr: domain.ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.auction, tt.winning, tt.bidder, tt.amount)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBidValidator_NoIncrementBounds(t *testing.T) {
	req := require.New(t)
	v := NewBidValidator(BidPolicy{AllowRebid: true})
	auction := startedAuction("seller", dec("1000"))

	// Any amount strictly above the current highest is admissible when the
	// increment bounds are disabled.
	req.NoError(v.Validate(auction, nil, "alice", dec("1000.01")))
	req.NoError(v.Validate(auction, nil, "alice", dec("999999")))
	req.ErrorIs(v.Validate(auction, nil, "alice", dec("1000")), domain.ErrBidTooLow)
}

func TestBidValidator_MinimumBid(t *testing.T) {
	req := require.New(t)

	v := NewBidValidator(BidPolicy{MinIncrement: dec("100")})
	req.True(v.MinimumBid(dec("1000")).Equal(dec("1100")))

	unbounded := NewBidValidator(BidPolicy{})
	req.True(unbounded.MinimumBid(dec("1000")).Equal(dec("1000")))
}
