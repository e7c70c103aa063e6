package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type AuctionStatus string

const (
	AuctionCreated   AuctionStatus = "CREATED"
	AuctionStarted   AuctionStatus = "STARTED"
	AuctionPaused    AuctionStatus = "PAUSED"
	AuctionCancelled AuctionStatus = "CANCELLED"
	AuctionClosed    AuctionStatus = "CLOSED"
	AuctionExpired   AuctionStatus = "EXPIRED"
	AuctionSold      AuctionStatus = "SOLD"
	AuctionFailed    AuctionStatus = "FAILED"
)

func ParseAuctionStatus(s string) (AuctionStatus, error) {
	switch status := AuctionStatus(strings.ToUpper(s)); status {
	case AuctionCreated, AuctionStarted, AuctionPaused, AuctionCancelled,
		AuctionClosed, AuctionExpired, AuctionSold, AuctionFailed:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown auction status %q", ErrBadInput, s)
	}
}

type Auction struct {
	ID                string
	OwnerID           string
	VehicleID         string
	Status            AuctionStatus
	ExpectedPrice     decimal.Decimal
	ReservePrice      decimal.Decimal
	CurrentHighestBid decimal.Decimal
	WinningBidID      string
	Duration          AuctionDuration
	StartTime         int64 // epoch millis
	EndTime           int64 // epoch millis
	BidCount          int
	IsExtended        bool
	AutoExtendEnabled bool
	// Millis before EndTime within which a bid triggers an extension.
	AutoExtendThreshold int64
	// Millis added to EndTime when the extension fires.
	AutoExtendDuration int64
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Floor is the value new bids are measured against while no bid has been
// admitted in the current run.
func (a *Auction) Floor() decimal.Decimal {
	if a.ReservePrice.IsPositive() {
		return a.ReservePrice
	}
	return decimal.Zero
}

type Bid struct {
	ID        string
	BidderID  string
	AuctionID string
	Value     decimal.Decimal
	IsWinning bool
	// Archived marks bids that belong to a previous run of a restarted auction.
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Vehicle struct {
	ID          string
	SellerID    string
	Make        string
	Model       string
	Mileage     int
	Vin         string
	Year        int
	ExpectedBid decimal.Decimal
	OnAuction   bool
	Deleted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type AuctionEvent struct {
	Type      AuctionEventType `json:"type"`
	AuctionID string           `json:"auction_id"`
	UserID    string           `json:"user_id,omitempty"`
	Amount    string           `json:"amount,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

type AuctionEventType string

const (
	EventBidAccepted     AuctionEventType = "bid_accepted"
	EventBidRejected     AuctionEventType = "bid_rejected"
	EventAuctionStarted  AuctionEventType = "auction_started"
	EventAuctionExtended AuctionEventType = "auction_extended"
	EventAuctionClosed   AuctionEventType = "auction_closed"
)
