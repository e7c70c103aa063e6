package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"yoursell/internal/domain"
)

type MySQLBidRepository struct {
	db *sql.DB
}

func NewMySQLBidRepository(db *sql.DB) *MySQLBidRepository {
	return &MySQLBidRepository{db: db}
}

const bidColumns = `id, auction_id, bidder_id, value, is_winning, archived, created_at, updated_at`

func (r *MySQLBidRepository) Create(ctx context.Context, bid *domain.Bid) error {
	query := `
        INSERT INTO bids (` + bidColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := runner(ctx, r.db).ExecContext(ctx, query,
		bid.ID, bid.AuctionID, bid.BidderID, bid.Value.String(),
		bid.IsWinning, bid.Archived, bid.CreatedAt, bid.UpdatedAt)
	return err
}

func (r *MySQLBidRepository) Get(ctx context.Context, bidID string) (*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = ?`
	bid, err := scanBid(runner(ctx, r.db).QueryRowContext(ctx, query, bidID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return bid, err
}

func (r *MySQLBidRepository) Update(ctx context.Context, bid *domain.Bid) error {
	query := `UPDATE bids SET value = ?, is_winning = ?, archived = ?, updated_at = ? WHERE id = ?`
	now := time.Now()
	result, err := runner(ctx, r.db).ExecContext(ctx, query,
		bid.Value.String(), bid.IsWinning, bid.Archived, now, bid.ID)
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
	bid.UpdatedAt = now
	return nil
}

func (r *MySQLBidRepository) ListByAuction(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE auction_id = ? ORDER BY created_at ASC`
	rows, err := runner(ctx, r.db).QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}

func (r *MySQLBidRepository) GetWinning(ctx context.Context, auctionID string) (*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE auction_id = ? AND is_winning = TRUE`
	bid, err := scanBid(runner(ctx, r.db).QueryRowContext(ctx, query, auctionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return bid, err
}

func (r *MySQLBidRepository) GetActiveByBidder(ctx context.Context, auctionID, bidderID string) (*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE auction_id = ? AND bidder_id = ? AND archived = FALSE`
	bid, err := scanBid(runner(ctx, r.db).QueryRowContext(ctx, query, auctionID, bidderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return bid, err
}

func (r *MySQLBidRepository) ArchiveByAuction(ctx context.Context, auctionID string) error {
	query := `UPDATE bids SET archived = TRUE, is_winning = FALSE, updated_at = ? WHERE auction_id = ? AND archived = FALSE`
	_, err := runner(ctx, r.db).ExecContext(ctx, query, time.Now(), auctionID)
	return err
}

func (r *MySQLBidRepository) DeleteByAuction(ctx context.Context, auctionID string) error {
	_, err := runner(ctx, r.db).ExecContext(ctx, `DELETE FROM bids WHERE auction_id = ?`, auctionID)
	return err
}

func scanBid(row rowScanner) (*domain.Bid, error) {
	var (
		bid   domain.Bid
		value string
	)

	err := row.Scan(&bid.ID, &bid.AuctionID, &bid.BidderID, &value,
		&bid.IsWinning, &bid.Archived, &bid.CreatedAt, &bid.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if bid.Value, err = decimal.NewFromString(value); err != nil {
		return nil, err
	}
	return &bid, nil
}
