package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"yoursell/internal/api/middleware"
	"yoursell/internal/domain"
	"yoursell/internal/services"
	"yoursell/pkg/logger"
)

type BidHandler struct {
	bidService *services.BidService
	log        logger.Logger
}

func NewBidHandler(bidService *services.BidService, log logger.Logger) *BidHandler {
	return &BidHandler{
		bidService: bidService,
		log:        log,
	}
}

type PlaceBidRequest struct {
	Amount string `json:"amount"`
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return writeError(c, domain.ErrInvalidAmount)
	}

	bid, err := h.bidService.PlaceBid(c.Request().Context(), c.Param("id"), middleware.UserID(c), amount)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, toBidResponse(bid))
}

func (h *BidHandler) GetBid(c echo.Context) error {
	bid, err := h.bidService.GetBid(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toBidResponse(bid))
}

func (h *BidHandler) ListBidsByAuction(c echo.Context) error {
	bids, err := h.bidService.ListBidsByAuction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toBidResponses(bids))
}
