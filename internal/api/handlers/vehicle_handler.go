package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"yoursell/internal/api/middleware"
	"yoursell/internal/services"
	"yoursell/pkg/logger"
)

type VehicleHandler struct {
	vehicleService *services.VehicleService
	log            logger.Logger
}

func NewVehicleHandler(vehicleService *services.VehicleService, log logger.Logger) *VehicleHandler {
	return &VehicleHandler{
		vehicleService: vehicleService,
		log:            log,
	}
}

type RegisterVehicleRequest struct {
	Make        string `json:"make"`
	Model       string `json:"model"`
	Mileage     int    `json:"mileage"`
	Vin         string `json:"vin"`
	Year        int    `json:"year"`
	ExpectedBid string `json:"expected_bid"`
}

func (h *VehicleHandler) RegisterVehicle(c echo.Context) error {
	var req RegisterVehicleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	expectedBid, err := parseAmount(req.ExpectedBid)
	if err != nil {
		return writeError(c, err)
	}

	vehicle, err := h.vehicleService.Register(c.Request().Context(), middleware.UserID(c), services.RegisterVehicleParams{
		Make:        req.Make,
		Model:       req.Model,
		Mileage:     req.Mileage,
		Vin:         req.Vin,
		Year:        req.Year,
		ExpectedBid: expectedBid,
	})
	if err != nil {
		h.log.Error("Failed to register vehicle", "error", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, toVehicleResponse(vehicle))
}

func (h *VehicleHandler) GetVehicle(c echo.Context) error {
	vehicle, err := h.vehicleService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toVehicleResponse(vehicle))
}

func (h *VehicleHandler) ListVehicles(c echo.Context) error {
	if sellerID := c.QueryParam("seller_id"); sellerID != "" {
		vehicles, err := h.vehicleService.ListBySeller(c.Request().Context(), sellerID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, toVehicleResponses(vehicles))
	}

	vehicles, err := h.vehicleService.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toVehicleResponses(vehicles))
}

func (h *VehicleHandler) DeleteVehicle(c echo.Context) error {
	if err := h.vehicleService.SoftDelete(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
