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

type AuctionHandler struct {
	auctionService *services.AuctionService
	log            logger.Logger
}

func NewAuctionHandler(auctionService *services.AuctionService, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		auctionService: auctionService,
		log:            log,
	}
}

type CreateAuctionRequest struct {
	VehicleID          string `json:"vehicle_id"`
	ReservePrice       string `json:"reserve_price"`
	ExpectedPrice      string `json:"expected_price"`
	Duration           string `json:"duration"`
	StartImmediately   *bool  `json:"start_immediately"`
	AutoExtendEnabled  *bool  `json:"auto_extend_enabled"`
	AutoExtendDuration int64  `json:"auto_extend_duration_millis"`
}

func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	duration, err := domain.ParseAuctionDuration(req.Duration)
	if err != nil {
		return writeError(c, err)
	}
	reserve, err := parseAmount(req.ReservePrice)
	if err != nil {
		return writeError(c, err)
	}
	expected, err := parseAmount(req.ExpectedPrice)
	if err != nil {
		return writeError(c, err)
	}

	params := services.CreateAuctionParams{
		OwnerID:                  middleware.UserID(c),
		VehicleID:                req.VehicleID,
		ReservePrice:             reserve,
		ExpectedPrice:            expected,
		Duration:                 duration,
		StartImmediately:         true,
		AutoExtendEnabled:        req.AutoExtendEnabled,
		AutoExtendDurationMillis: req.AutoExtendDuration,
	}
	if req.StartImmediately != nil {
		params.StartImmediately = *req.StartImmediately
	}

	auction, err := h.auctionService.CreateAuction(c.Request().Context(), params)
	if err != nil {
		h.log.Error("Failed to create auction", "error", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, toAuctionResponse(auction))
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	auction, err := h.auctionService.GetAuction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuctionResponse(auction))
}

// ListAuctions supports filtering by status or owner via query params.
func (h *AuctionHandler) ListAuctions(c echo.Context) error {
	ctx := c.Request().Context()

	if statusParam := c.QueryParam("status"); statusParam != "" {
		status, err := domain.ParseAuctionStatus(statusParam)
		if err != nil {
			return writeError(c, err)
		}
		auctions, err := h.auctionService.ListAuctionsByStatus(ctx, status)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, toAuctionResponses(auctions))
	}

	if ownerID := c.QueryParam("owner_id"); ownerID != "" {
		auctions, err := h.auctionService.ListAuctionsByOwner(ctx, ownerID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, toAuctionResponses(auctions))
	}

	auctions, err := h.auctionService.ListAuctions(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuctionResponses(auctions))
}

func (h *AuctionHandler) StartAuction(c echo.Context) error {
	auction, err := h.auctionService.StartAuction(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuctionResponse(auction))
}

func (h *AuctionHandler) PauseAuction(c echo.Context) error {
	auction, err := h.auctionService.PauseAuction(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuctionResponse(auction))
}

func (h *AuctionHandler) ResumeAuction(c echo.Context) error {
	auction, err := h.auctionService.ResumeAuction(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuctionResponse(auction))
}

func (h *AuctionHandler) CancelAuction(c echo.Context) error {
	auction, err := h.auctionService.CancelAuction(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuctionResponse(auction))
}

type RestartAuctionRequest struct {
	Duration     string `json:"duration"`
	ReservePrice string `json:"reserve_price"`
}

func (h *AuctionHandler) RestartAuction(c echo.Context) error {
	var req RestartAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	duration, err := domain.ParseAuctionDuration(req.Duration)
	if err != nil {
		return writeError(c, err)
	}

	var reserve *decimal.Decimal
	if req.ReservePrice != "" {
		parsed, err := decimal.NewFromString(req.ReservePrice)
		if err != nil {
			return writeError(c, domain.ErrBadInput)
		}
		reserve = &parsed
	}

	auction, err := h.auctionService.RestartAuction(c.Request().Context(), c.Param("id"), middleware.UserID(c), duration, reserve)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuctionResponse(auction))
}

type ExtendAuctionRequest struct {
	Duration string `json:"duration"`
}

func (h *AuctionHandler) ExtendAuction(c echo.Context) error {
	var req ExtendAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	duration, err := domain.ParseAuctionDuration(req.Duration)
	if err != nil {
		return writeError(c, err)
	}

	auction, err := h.auctionService.ExtendAuctionDuration(c.Request().Context(), c.Param("id"), middleware.UserID(c), duration)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuctionResponse(auction))
}

func (h *AuctionHandler) DeleteAuction(c echo.Context) error {
	if err := h.auctionService.DeleteAuction(c.Request().Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// parseAmount accepts an optional decimal string; empty means zero.
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, domain.ErrBadInput
	}
	return amount, nil
}
