package domain

import (
	"context"
)

// Repository interfaces
type AuctionRepository interface {
	Create(ctx context.Context, auction *Auction) error
	Get(ctx context.Context, auctionID string) (*Auction, error)
	// Update persists the auction with a compare-and-swap on its version
	// column and returns ErrConcurrencyConflict when the row changed under
	// the caller. On success the in-memory version is bumped to match.
	Update(ctx context.Context, auction *Auction) error
	Delete(ctx context.Context, auctionID string) error
	List(ctx context.Context) ([]*Auction, error)
	ListByStatus(ctx context.Context, status AuctionStatus) ([]*Auction, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Auction, error)
	// ListExpired returns STARTED auctions whose end time is before the
	// given epoch-millis instant.
	ListExpired(ctx context.Context, before int64) ([]*Auction, error)
}

type BidRepository interface {
	Create(ctx context.Context, bid *Bid) error
	Get(ctx context.Context, bidID string) (*Bid, error)
	Update(ctx context.Context, bid *Bid) error
	ListByAuction(ctx context.Context, auctionID string) ([]*Bid, error)
	// GetWinning returns the single winning bid of the auction's current
	// run, or ErrNotFound when no bid has been admitted.
	GetWinning(ctx context.Context, auctionID string) (*Bid, error)
	// GetActiveByBidder returns the bidder's non-archived bid on the
	// auction, or ErrNotFound. Each bidder holds at most one.
	GetActiveByBidder(ctx context.Context, auctionID, bidderID string) (*Bid, error)
	// ArchiveByAuction demotes every bid of the auction to archived and
	// non-winning. Used when a terminal auction restarts.
	ArchiveByAuction(ctx context.Context, auctionID string) error
	DeleteByAuction(ctx context.Context, auctionID string) error
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *Vehicle) error
	Get(ctx context.Context, vehicleID string) (*Vehicle, error)
	Update(ctx context.Context, vehicle *Vehicle) error
	List(ctx context.Context) ([]*Vehicle, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*Vehicle, error)
	ExistsByVinAndSeller(ctx context.Context, vin, sellerID string) (bool, error)
}

// TxManager runs fn inside a single storage transaction. Repository calls
// made with the context fn receives commit or roll back together.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ItemService is the boundary to the externally managed item the auction
// sells. The auction core never touches vehicle rows directly.
type ItemService interface {
	Exists(ctx context.Context, vehicleID string) (bool, error)
	IsOwnedBy(ctx context.Context, vehicleID, userID string) (bool, error)
	// SetOnAuction flips the vehicle's on-auction flag. Listing a vehicle
	// that is already on auction fails with ErrAlreadyOnAuction.
	SetOnAuction(ctx context.Context, vehicleID string, onAuction bool) error
}

// Event interfaces
type EventPublisher interface {
	PublishAuctionEvent(ctx context.Context, event *AuctionEvent) error
}

type EventSubscriber interface {
	SubscribeToAuctionEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *AuctionEvent) error

// Notification interfaces
type UserNotifier interface {
	NotifyUser(ctx context.Context, userID string, message interface{}) error
}

type AuctionBroadcaster interface {
	BroadcastToAuction(ctx context.Context, auctionID string, message interface{}) error
}

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	UserID() string
	AuctionID() string
}

type ConnectionManager interface {
	RegisterConnection(userID, auctionID string, conn WebSocketConnection) error
	UnregisterConnection(userID, auctionID string) error
	GetConnectionsForAuction(auctionID string) []WebSocketConnection
	GetConnectionsForUser(userID string) []WebSocketConnection
	BroadcastToAuction(auctionID string, message interface{}) error
	NotifyUser(userID string, message interface{}) error
	CloseAndUnregisterConnections(auctionID string) error
}
