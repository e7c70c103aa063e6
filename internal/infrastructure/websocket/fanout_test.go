package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"yoursell/internal/domain"
	"yoursell/pkg/logger"
)

type recordingManager struct {
	broadcasts []string
	notified   []string
}

func (m *recordingManager) RegisterConnection(userID, auctionID string, conn domain.WebSocketConnection) error {
	return nil
}

func (m *recordingManager) UnregisterConnection(userID, auctionID string) error { return nil }

func (m *recordingManager) GetConnectionsForAuction(auctionID string) []domain.WebSocketConnection {
	return nil
}

func (m *recordingManager) GetConnectionsForUser(userID string) []domain.WebSocketConnection {
	return nil
}

func (m *recordingManager) BroadcastToAuction(auctionID string, message interface{}) error {
	m.broadcasts = append(m.broadcasts, auctionID)
	return nil
}

func (m *recordingManager) NotifyUser(userID string, message interface{}) error {
	m.notified = append(m.notified, userID)
	return nil
}

func (m *recordingManager) CloseAndUnregisterConnections(auctionID string) error { return nil }

func TestFanout_Handle(t *testing.T) {
	req := require.New(t)
	manager := &recordingManager{}
	fanout := NewFanout(manager, logger.NewNop())

	// A rejection goes to the bidder only.
	req.NoError(fanout.Handle(&domain.AuctionEvent{
		Type:      domain.EventBidRejected,
		AuctionID: "auction-1",
		UserID:    "alice",
		Timestamp: time.Now(),
	}))
	req.Equal([]string{"alice"}, manager.notified)
	req.Empty(manager.broadcasts)

	// Everything else goes to the whole room.
	for _, typ := range []domain.AuctionEventType{
		domain.EventBidAccepted,
		domain.EventAuctionStarted,
		domain.EventAuctionExtended,
		domain.EventAuctionClosed,
	} {
		req.NoError(fanout.Handle(&domain.AuctionEvent{
			Type:      typ,
			AuctionID: "auction-1",
			Timestamp: time.Now(),
		}))
	}
	req.Len(manager.broadcasts, 4)
	req.Len(manager.notified, 1)
}
