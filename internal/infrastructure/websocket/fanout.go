package websocket

import (
	"yoursell/internal/domain"
	"yoursell/pkg/logger"
)

// Fanout routes events from the shared event channel to the right websocket
// audience: accepted bids, extensions and closes go to everyone watching the
// auction, rejections only to the bidder who placed them.
type Fanout struct {
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewFanout(connManager domain.ConnectionManager, log logger.Logger) *Fanout {
	return &Fanout{
		connManager: connManager,
		log:         log,
	}
}

// Handle is a domain.EventHandler suitable for EventSubscriber.
func (f *Fanout) Handle(event *domain.AuctionEvent) error {
	switch event.Type {
	case domain.EventBidRejected:
		return f.connManager.NotifyUser(event.UserID, event)
	default:
		return f.connManager.BroadcastToAuction(event.AuctionID, event)
	}
}
