package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vouchhq/vouch/internal/models"
)

const orderColumns = "id, order_number, buyer_id, buyer_email, buyer_phone, seller_id, product_id, product_title, product_price, " +
	"amount_paid, platform_fee, seller_earnings, currency, payment_method, status, created_at, completed_at"

// InsertOrder records a settled order row. Orders are immutable after this
// point apart from status transitions. A colliding order number surfaces as
// ErrOrderNumberTaken so the caller can regenerate and retry.
func (db *DB) InsertOrder(ctx context.Context, order models.Order) (*models.Order, error) {
	if order.AmountPaid != order.PlatformFee+order.SellerEarnings {
		return nil, fmt.Errorf("fee split does not sum: %d != %d + %d",
			order.AmountPaid, order.PlatformFee, order.SellerEarnings)
	}

	row := db.Pool.QueryRow(ctx,
		"INSERT INTO orders (order_number, buyer_id, buyer_email, buyer_phone, seller_id, product_id, product_title, product_price, "+
			"amount_paid, platform_fee, seller_earnings, currency, payment_method, status, completed_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15) RETURNING "+orderColumns,
		order.OrderNumber, order.BuyerID, order.BuyerEmail, order.BuyerPhone, order.SellerID, order.ProductID,
		order.ProductTitle, order.ProductPrice, order.AmountPaid, order.PlatformFee, order.SellerEarnings,
		order.Currency, order.PaymentMethod, order.Status, order.CompletedAt)

	created, err := scanOrder(row)
	if err != nil {
		if isUniqueViolation(err, "orders_order_number_key") {
			return nil, ErrOrderNumberTaken
		}
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}
	return created, nil
}

// GetSellerOrders retrieves a seller's orders, newest first
func (db *DB) GetSellerOrders(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	return db.getOrders(ctx, "SELECT "+orderColumns+" FROM orders WHERE seller_id = $1 ORDER BY created_at DESC", sellerID)
}

// GetBuyerOrders retrieves a buyer's purchases, newest first
func (db *DB) GetBuyerOrders(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	return db.getOrders(ctx, "SELECT "+orderColumns+" FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC", buyerID)
}

func (db *DB) getOrders(ctx context.Context, query string, arg any) ([]models.Order, error) {
	rows, err := db.Pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// SellerEarningsTotal sums seller_earnings over completed orders only
func (db *DB) SellerEarningsTotal(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var total int64
	err := db.Pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(seller_earnings), 0) FROM orders WHERE seller_id = $1 AND status = 'completed'",
		sellerID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum seller earnings: %w", err)
	}
	return total, nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order  models.Order
		method string
		status string
	)
	err := row.Scan(&order.ID, &order.OrderNumber, &order.BuyerID, &order.BuyerEmail, &order.BuyerPhone,
		&order.SellerID, &order.ProductID, &order.ProductTitle, &order.ProductPrice,
		&order.AmountPaid, &order.PlatformFee, &order.SellerEarnings, &order.Currency,
		&method, &status, &order.CreatedAt, &order.CompletedAt)
	if err != nil {
		return nil, err
	}

	order.PaymentMethod, err = models.ToPaymentMethod(method)
	if err != nil {
		return nil, err
	}

	order.Status, err = models.ToOrderStatus(status)
	if err != nil {
		return nil, err
	}

	return &order, nil
}
