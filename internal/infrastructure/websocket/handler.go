package websocket

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"yoursell/internal/domain"
	"yoursell/internal/services"
	"yoursell/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// Handler upgrades HTTP requests into live auction-room connections. A
// connected client receives every event of the auction it watches and may
// place bids over the socket.
type Handler struct {
	bidService  *services.BidService
	auctionRepo domain.AuctionRepository
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewHandler(bidService *services.BidService, auctionRepo domain.AuctionRepository,
	connManager domain.ConnectionManager, log logger.Logger) *Handler {
	return &Handler{
		bidService:  bidService,
		auctionRepo: auctionRepo,
		connManager: connManager,
		log:         log,
	}
}

func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request, auctionID, userID string) {
	if userID == "" {
		http.Error(w, "user id required", http.StatusBadRequest)
		return
	}

	if _, err := h.auctionRepo.Get(r.Context(), auctionID); err != nil {
		h.log.Error("Failed to find auction", "error", err, "auction_id", auctionID)
		http.Error(w, "auction not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	wsConn := NewConnection(conn, userID, auctionID)

	if err := h.connManager.RegisterConnection(userID, auctionID, wsConn); err != nil {
		h.log.Error("Failed to register connection", "error", err)
		conn.Close()
		return
	}

	go h.handleMessages(wsConn, userID, auctionID)
}

func (h *Handler) handleMessages(conn *Connection, userID, auctionID string) {
	defer func() {
		h.connManager.UnregisterConnection(userID, auctionID)
		conn.Close()
	}()

	for {
		var msg map[string]interface{}
		if err := conn.conn.ReadJSON(&msg); err != nil {
			break
		}

		msgType, ok := msg["type"].(string)
		if !ok {
			continue
		}

		switch msgType {
		case "place_bid":
			h.handleBidMessage(conn, userID, auctionID, msg)
		case "ping":
			conn.Send(map[string]string{"type": "pong"})
		}
	}
}

func (h *Handler) handleBidMessage(conn *Connection, userID, auctionID string, msg map[string]interface{}) {
	amountStr, ok := msg["amount"].(string)
	if !ok {
		conn.Send(map[string]string{"type": "error", "message": "invalid amount"})
		return
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		conn.Send(map[string]string{"type": "error", "message": "invalid amount format"})
		return
	}

	if _, err := h.bidService.PlaceBid(context.Background(), auctionID, userID, amount); err != nil {
		// The rejection reaches the bidder through the event fanout as
		// well; answer directly so the client need not correlate.
		conn.Send(map[string]string{"type": "bid_rejected", "message": err.Error()})
	}
}

type Connection struct {
	conn      *websocket.Conn
	userID    string
	auctionID string
	writeMu   sync.Mutex
}

func NewConnection(conn *websocket.Conn, userID, auctionID string) *Connection {
	return &Connection{
		conn:      conn,
		userID:    userID,
		auctionID: auctionID,
	}
}

// Send serializes writes; gorilla connections allow one concurrent writer.
func (c *Connection) Send(message interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(message)
}

func (c *Connection) Close() error {
	return c.conn.Close()
}

func (c *Connection) UserID() string {
	return c.userID
}

func (c *Connection) AuctionID() string {
	return c.auctionID
}
