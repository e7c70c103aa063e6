package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"yoursell/internal/domain"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLAuctionRepository struct {
	db *sql.DB
}

func NewMySQLAuctionRepository(db *sql.DB) *MySQLAuctionRepository {
	return &MySQLAuctionRepository{db: db}
}

const auctionColumns = `id, owner_id, vehicle_id, status, expected_price, reserve_price,
	current_highest_bid, winning_bid_id, duration, start_time, end_time, bid_count,
	is_extended, auto_extend_enabled, auto_extend_threshold, auto_extend_duration,
	version, created_at, updated_at`

func (r *MySQLAuctionRepository) Create(ctx context.Context, auction *domain.Auction) error {
	query := `
        INSERT INTO auctions (` + auctionColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	auction.Version = 1
	_, err := runner(ctx, r.db).ExecContext(ctx, query,
		auction.ID, auction.OwnerID, auction.VehicleID, string(auction.Status),
		auction.ExpectedPrice.String(), auction.ReservePrice.String(),
		auction.CurrentHighestBid.String(), nullString(auction.WinningBidID),
		string(auction.Duration), auction.StartTime, auction.EndTime, auction.BidCount,
		auction.IsExtended, auction.AutoExtendEnabled,
		auction.AutoExtendThreshold, auction.AutoExtendDuration,
		auction.Version, auction.CreatedAt, auction.UpdatedAt)
	return err
}

func (r *MySQLAuctionRepository) Get(ctx context.Context, auctionID string) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ?`
	auction, err := scanAuction(runner(ctx, r.db).QueryRowContext(ctx, query, auctionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return auction, err
}

// Update is the compare-and-swap every mutating service relies on: the row is
// written only when its version still matches the snapshot the caller read.
// A zero-row update means the row changed underneath and the caller must
// re-read and re-validate.
func (r *MySQLAuctionRepository) Update(ctx context.Context, auction *domain.Auction) error {
	query := `
        UPDATE auctions SET status = ?, expected_price = ?, reserve_price = ?,
            current_highest_bid = ?, winning_bid_id = ?, duration = ?,
            start_time = ?, end_time = ?, bid_count = ?, is_extended = ?,
            auto_extend_enabled = ?, auto_extend_threshold = ?, auto_extend_duration = ?,
            version = version + 1, updated_at = ?
        WHERE id = ? AND version = ?
    `
	now := time.Now()
	result, err := runner(ctx, r.db).ExecContext(ctx, query,
		string(auction.Status), auction.ExpectedPrice.String(), auction.ReservePrice.String(),
		auction.CurrentHighestBid.String(), nullString(auction.WinningBidID),
		string(auction.Duration), auction.StartTime, auction.EndTime, auction.BidCount,
		auction.IsExtended, auction.AutoExtendEnabled,
		auction.AutoExtendThreshold, auction.AutoExtendDuration,
		now, auction.ID, auction.Version)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrConcurrencyConflict
	}

	auction.Version++
	auction.UpdatedAt = now
	return nil
}

func (r *MySQLAuctionRepository) Delete(ctx context.Context, auctionID string) error {
	result, err := runner(ctx, r.db).ExecContext(ctx, `DELETE FROM auctions WHERE id = ?`, auctionID)
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
	return nil
}

func (r *MySQLAuctionRepository) List(ctx context.Context) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions ORDER BY created_at DESC`
	return r.queryAuctions(ctx, query)
}

func (r *MySQLAuctionRepository) ListByStatus(ctx context.Context, status domain.AuctionStatus) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status = ? ORDER BY created_at DESC`
	return r.queryAuctions(ctx, query, string(status))
}

func (r *MySQLAuctionRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE owner_id = ? ORDER BY created_at DESC`
	return r.queryAuctions(ctx, query, ownerID)
}

func (r *MySQLAuctionRepository) ListExpired(ctx context.Context, before int64) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status = ? AND end_time < ? ORDER BY end_time ASC`
	return r.queryAuctions(ctx, query, string(domain.AuctionStarted), before)
}

func (r *MySQLAuctionRepository) queryAuctions(ctx context.Context, query string, args ...interface{}) ([]*domain.Auction, error) {
	rows, err := runner(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var auctions []*domain.Auction
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, auction)
	}
	return auctions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuction(row rowScanner) (*domain.Auction, error) {
	var (
		auction                    domain.Auction
		status, duration           string
		expected, reserve, highest string
		winningBidID               sql.NullString
	)

	err := row.Scan(
		&auction.ID, &auction.OwnerID, &auction.VehicleID, &status,
		&expected, &reserve, &highest, &winningBidID, &duration,
		&auction.StartTime, &auction.EndTime, &auction.BidCount,
		&auction.IsExtended, &auction.AutoExtendEnabled,
		&auction.AutoExtendThreshold, &auction.AutoExtendDuration,
		&auction.Version, &auction.CreatedAt, &auction.UpdatedAt)
	if err != nil {
		return nil, err
	}

	auction.Status = domain.AuctionStatus(status)
	auction.Duration = domain.AuctionDuration(duration)
	auction.WinningBidID = winningBidID.String

	if auction.ExpectedPrice, err = decimal.NewFromString(expected); err != nil {
		return nil, err
	}
	if auction.ReservePrice, err = decimal.NewFromString(reserve); err != nil {
		return nil, err
	}
	if auction.CurrentHighestBid, err = decimal.NewFromString(highest); err != nil {
		return nil, err
	}
	return &auction, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
