package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"yoursell/internal/domain"
	"yoursell/pkg/logger"
	"yoursell/pkg/utils"
)

// VehicleService manages the externally-owned items auctions sell. It also
// implements domain.ItemService, the only surface the auction core sees.
type VehicleService struct {
	vehicles domain.VehicleRepository
	log      logger.Logger
}

func NewVehicleService(vehicles domain.VehicleRepository, log logger.Logger) *VehicleService {
	return &VehicleService{
		vehicles: vehicles,
		log:      log,
	}
}

type RegisterVehicleParams struct {
	Make        string
	Model       string
	Mileage     int
	Vin         string
	Year        int
	ExpectedBid decimal.Decimal
}

func (s *VehicleService) Register(ctx context.Context, sellerID string, params RegisterVehicleParams) (*domain.Vehicle, error) {
	exists, err := s.vehicles.ExistsByVinAndSeller(ctx, params.Vin, sellerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyExists
	}

	now := time.Now()
	vehicle := &domain.Vehicle{
		ID:          utils.GenerateID("vehicle"),
		SellerID:    sellerID,
		Make:        params.Make,
		Model:       params.Model,
		Mileage:     params.Mileage,
		Vin:         params.Vin,
		Year:        params.Year,
		ExpectedBid: params.ExpectedBid,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, err
	}

	s.log.Info("Vehicle registered",
		"vehicle_id", vehicle.ID,
		"seller_id", sellerID,
		"vin", params.Vin)
	return vehicle, nil
}

func (s *VehicleService) Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	vehicle, err := s.vehicles.Get(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.Deleted {
		return nil, domain.ErrNotFound
	}
	return vehicle, nil
}

func (s *VehicleService) List(ctx context.Context) ([]*domain.Vehicle, error) {
	return s.vehicles.List(ctx)
}

func (s *VehicleService) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Vehicle, error) {
	return s.vehicles.ListBySeller(ctx, sellerID)
}

// SoftDelete hides the vehicle without dropping its row; auctions keep a
// stable reference. Seller only.
func (s *VehicleService) SoftDelete(ctx context.Context, sellerID, vehicleID string) error {
	vehicle, err := s.Get(ctx, vehicleID)
	if err != nil {
		return err
	}
	if vehicle.SellerID != sellerID {
		return domain.ErrNotFound
	}
	if vehicle.OnAuction {
		return domain.ErrAlreadyOnAuction
	}
	vehicle.Deleted = true
	return s.vehicles.Update(ctx, vehicle)
}

// domain.ItemService implementation, consumed by the auction core.

func (s *VehicleService) Exists(ctx context.Context, vehicleID string) (bool, error) {
	_, err := s.Get(ctx, vehicleID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *VehicleService) IsOwnedBy(ctx context.Context, vehicleID, userID string) (bool, error) {
	vehicle, err := s.Get(ctx, vehicleID)
	if err != nil {
		return false, err
	}
	return vehicle.SellerID == userID, nil
}

func (s *VehicleService) SetOnAuction(ctx context.Context, vehicleID string, onAuction bool) error {
	vehicle, err := s.vehicles.Get(ctx, vehicleID)
	if err != nil {
		return err
	}
	if onAuction && vehicle.OnAuction {
		return domain.ErrAlreadyOnAuction
	}
	if vehicle.OnAuction == onAuction {
		return nil
	}
	vehicle.OnAuction = onAuction
	return s.vehicles.Update(ctx, vehicle)
}
