package handlers

import (
	"yoursell/internal/domain"
)

// Monetary values cross the wire as decimal strings; timestamps as epoch
// millis.

type AuctionResponse struct {
	ID                string `json:"id"`
	OwnerID           string `json:"owner_id"`
	VehicleID         string `json:"vehicle_id"`
	Status            string `json:"status"`
	ExpectedPrice     string `json:"expected_price"`
	ReservePrice      string `json:"reserve_price"`
	CurrentHighestBid string `json:"current_highest_bid"`
	WinningBidID      string `json:"winning_bid_id,omitempty"`
	Duration          string `json:"duration"`
	StartTime         int64  `json:"start_time"`
	EndTime           int64  `json:"end_time"`
	BidCount          int    `json:"bid_count"`
	IsExtended        bool   `json:"is_extended"`
	AutoExtendEnabled bool   `json:"auto_extend_enabled"`
}

func toAuctionResponse(a *domain.Auction) AuctionResponse {
	return AuctionResponse{
		ID:                a.ID,
		OwnerID:           a.OwnerID,
		VehicleID:         a.VehicleID,
		Status:            string(a.Status),
		ExpectedPrice:     a.ExpectedPrice.String(),
		ReservePrice:      a.ReservePrice.String(),
		CurrentHighestBid: a.CurrentHighestBid.String(),
		WinningBidID:      a.WinningBidID,
		Duration:          string(a.Duration),
		StartTime:         a.StartTime,
		EndTime:           a.EndTime,
		BidCount:          a.BidCount,
		IsExtended:        a.IsExtended,
		AutoExtendEnabled: a.AutoExtendEnabled,
	}
}

func toAuctionResponses(auctions []*domain.Auction) []AuctionResponse {
	responses := make([]AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		responses = append(responses, toAuctionResponse(a))
	}
	return responses
}

type BidResponse struct {
	ID        string `json:"id"`
	AuctionID string `json:"auction_id"`
	BidderID  string `json:"bidder_id"`
	Value     string `json:"value"`
	IsWinning bool   `json:"is_winning"`
	Archived  bool   `json:"archived"`
	CreatedAt int64  `json:"created_at"`
}

func toBidResponse(b *domain.Bid) BidResponse {
	return BidResponse{
		ID:        b.ID,
		AuctionID: b.AuctionID,
		BidderID:  b.BidderID,
		Value:     b.Value.String(),
		IsWinning: b.IsWinning,
		Archived:  b.Archived,
		CreatedAt: b.CreatedAt.UnixMilli(),
	}
}

func toBidResponses(bids []*domain.Bid) []BidResponse {
	responses := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		responses = append(responses, toBidResponse(b))
	}
	return responses
}

type VehicleResponse struct {
	ID          string `json:"id"`
	SellerID    string `json:"seller_id"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Mileage     int    `json:"mileage"`
	Vin         string `json:"vin"`
	Year        int    `json:"year"`
	ExpectedBid string `json:"expected_bid"`
	OnAuction   bool   `json:"on_auction"`
}

func toVehicleResponse(v *domain.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:          v.ID,
		SellerID:    v.SellerID,
		Make:        v.Make,
		Model:       v.Model,
		Mileage:     v.Mileage,
		Vin:         v.Vin,
		Year:        v.Year,
		ExpectedBid: v.ExpectedBid.String(),
		OnAuction:   v.OnAuction,
	}
}

func toVehicleResponses(vehicles []*domain.Vehicle) []VehicleResponse {
	responses := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		responses = append(responses, toVehicleResponse(v))
	}
	return responses
}
