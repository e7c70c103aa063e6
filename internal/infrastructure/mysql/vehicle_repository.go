package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"yoursell/internal/domain"
)

type MySQLVehicleRepository struct {
	db *sql.DB
}

func NewMySQLVehicleRepository(db *sql.DB) *MySQLVehicleRepository {
	return &MySQLVehicleRepository{db: db}
}

const vehicleColumns = `id, seller_id, make, model, mileage, vin, year, expected_bid,
	on_auction, deleted, created_at, updated_at`

func (r *MySQLVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
        INSERT INTO vehicles (` + vehicleColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		vehicle.ID, vehicle.SellerID, vehicle.Make, vehicle.Model,
		vehicle.Mileage, vehicle.Vin, vehicle.Year, vehicle.ExpectedBid.String(),
		vehicle.OnAuction, vehicle.Deleted, vehicle.CreatedAt, vehicle.UpdatedAt)
	return err
}

func (r *MySQLVehicleRepository) Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = ?`
	vehicle, err := scanVehicle(r.db.QueryRowContext(ctx, query, vehicleID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return vehicle, err
}

func (r *MySQLVehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
        UPDATE vehicles SET make = ?, model = ?, mileage = ?, vin = ?, year = ?,
            expected_bid = ?, on_auction = ?, deleted = ?, updated_at = ?
        WHERE id = ?
    `
	now := time.Now()
	result, err := r.db.ExecContext(ctx, query,
		vehicle.Make, vehicle.Model, vehicle.Mileage, vehicle.Vin, vehicle.Year,
		vehicle.ExpectedBid.String(), vehicle.OnAuction, vehicle.Deleted, now, vehicle.ID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	vehicle.UpdatedAt = now
	return nil
}

func (r *MySQLVehicleRepository) List(ctx context.Context) ([]*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE deleted = FALSE ORDER BY created_at DESC`
	return r.queryVehicles(ctx, query)
}

func (r *MySQLVehicleRepository) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE seller_id = ? AND deleted = FALSE ORDER BY created_at DESC`
	return r.queryVehicles(ctx, query, sellerID)
}

func (r *MySQLVehicleRepository) ExistsByVinAndSeller(ctx context.Context, vin, sellerID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM vehicles WHERE vin = ? AND seller_id = ? AND deleted = FALSE`
	if err := r.db.QueryRowContext(ctx, query, vin, sellerID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MySQLVehicleRepository) queryVehicles(ctx context.Context, query string, args ...interface{}) ([]*domain.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, rows.Err()
}

func scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	var (
		vehicle  domain.Vehicle
		expected string
	)

	err := row.Scan(&vehicle.ID, &vehicle.SellerID, &vehicle.Make, &vehicle.Model,
		&vehicle.Mileage, &vehicle.Vin, &vehicle.Year, &expected,
		&vehicle.OnAuction, &vehicle.Deleted, &vehicle.CreatedAt, &vehicle.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if vehicle.ExpectedBid, err = decimal.NewFromString(expected); err != nil {
		return nil, err
	}
	return &vehicle, nil
}
