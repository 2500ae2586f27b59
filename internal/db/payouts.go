package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vouchhq/vouch/internal/models"
)

const payoutColumns = "id, seller_id, amount, currency, payment_method, destination_number, status, created_at"

// SellerPayoutsTotal sums payout amounts that still count against the
// balance (pending, processing, completed).
func (db *DB) SellerPayoutsTotal(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var total int64
	err := db.Pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM payouts WHERE seller_id = $1 AND status IN ('pending', 'processing', 'completed')",
		sellerID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum payouts: %w", err)
	}
	return total, nil
}

// GetSellerPayouts retrieves a seller's payout history, newest first
func (db *DB) GetSellerPayouts(ctx context.Context, sellerID uuid.UUID) ([]models.Payout, error) {
	rows, err := db.Pool.Query(ctx,
		"SELECT "+payoutColumns+" FROM payouts WHERE seller_id = $1 ORDER BY created_at DESC", sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payouts: %w", err)
	}
	defer rows.Close()

	var payouts []models.Payout
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		payouts = append(payouts, *payout)
	}
	return payouts, rows.Err()
}

// CreatePayout inserts a pending payout after re-checking the seller's
// derived balance inside one transaction. A per-seller advisory lock
// serializes concurrent requests so two submissions cannot both pass the
// balance check. Balance is never stored; it is always derived here from
// the order and payout logs.
func (db *DB) CreatePayout(ctx context.Context, sellerID uuid.UUID, amount int64, method, destinationNumber string) (*models.Payout, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", sellerID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to lock seller: %w", err)
	}

	var earnings, withdrawn int64
	err = tx.QueryRow(ctx,
		"SELECT COALESCE(SUM(seller_earnings), 0) FROM orders WHERE seller_id = $1 AND status = 'completed'",
		sellerID).Scan(&earnings)
	if err != nil {
		return nil, fmt.Errorf("failed to sum seller earnings: %w", err)
	}

	err = tx.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM payouts WHERE seller_id = $1 AND status IN ('pending', 'processing', 'completed')",
		sellerID).Scan(&withdrawn)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payouts: %w", err)
	}

	available := max(earnings-withdrawn, 0)
	if amount > available {
		return nil, ErrInsufficientBalance
	}

	row := tx.QueryRow(ctx,
		"INSERT INTO payouts (seller_id, amount, currency, payment_method, destination_number, status) "+
			"VALUES ($1, $2, 'USD', $3, $4, 'pending') RETURNING "+payoutColumns,
		sellerID, amount, method, destinationNumber)

	payout, err := scanPayout(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payout: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return payout, nil
}

func scanPayout(row pgx.Row) (*models.Payout, error) {
	var (
		payout models.Payout
		status string
	)
	err := row.Scan(&payout.ID, &payout.SellerID, &payout.Amount, &payout.Currency,
		&payout.PaymentMethod, &payout.DestinationNumber, &status, &payout.CreatedAt)
	if err != nil {
		return nil, err
	}

	payout.Status, err = models.ToPayoutStatus(status)
	if err != nil {
		return nil, err
	}
	return &payout, nil
}
