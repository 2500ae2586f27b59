package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/text/currency"

	"github.com/vouchhq/vouch/internal/models"
)

// GetCart retrieves all cart lines for an owner in insertion order
func (db *DB) GetCart(ctx context.Context, ownerID string) (models.Cart, error) {
	cart := models.Cart{OwnerID: ownerID}

	rows, err := db.Pool.Query(ctx,
		"SELECT product_id, title_snapshot, price_snapshot, currency_snapshot, seller_id, quantity, created_at "+
			"FROM cart_items WHERE owner_id = $1 ORDER BY created_at ASC",
		ownerID)
	if err != nil {
		return cart, fmt.Errorf("failed to get cart: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item         models.CartItem
			currencyCode string
		)
		if err := rows.Scan(&item.ProductID, &item.Title, &item.Price.Amount, &currencyCode,
			&item.SellerID, &item.Quantity, &item.CreatedAt); err != nil {
			return cart, fmt.Errorf("failed to scan cart item: %w", err)
		}

		item.Price.Currency, err = currency.ParseISO(currencyCode)
		if err != nil {
			return cart, fmt.Errorf("currency[%s] is not valid: %w", currencyCode, err)
		}

		cart.Items = append(cart.Items, item)
	}
	return cart, rows.Err()
}

// AddCartItem adds a product to the owner's cart, snapshotting title, price
// and seller from the live product row. A second add of the same product
// increments the existing line's quantity instead of appending a new line.
func (db *DB) AddCartItem(ctx context.Context, ownerID string, productID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		"INSERT INTO cart_items (owner_id, product_id, title_snapshot, price_snapshot, currency_snapshot, seller_id) "+
			"SELECT $1, p.id, p.title, p.price_amount, p.price_currency, p.seller_id FROM products p WHERE p.id = $2 AND p.is_published "+
			"ON CONFLICT (owner_id, product_id) DO UPDATE SET quantity = cart_items.quantity + 1",
		ownerID, productID)
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveCartItem deletes a cart line entirely. Removing an absent product
// is a no-op; the bool reports whether a line was actually deleted.
func (db *DB) RemoveCartItem(ctx context.Context, ownerID string, productID uuid.UUID) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		"DELETE FROM cart_items WHERE owner_id = $1 AND product_id = $2",
		ownerID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MergeGuestCart moves guest-session lines into the user's cart in one
// transaction, summing quantities on conflicting products.
func (db *DB) MergeGuestCart(ctx context.Context, sessionID string, userID uuid.UUID) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"INSERT INTO cart_items (owner_id, product_id, title_snapshot, price_snapshot, currency_snapshot, seller_id, quantity) "+
			"SELECT $2, product_id, title_snapshot, price_snapshot, currency_snapshot, seller_id, quantity FROM cart_items WHERE owner_id = $1 "+
			"ON CONFLICT (owner_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity",
		sessionID, userID.String())
	if err != nil {
		return fmt.Errorf("failed to merge guest cart: %w", err)
	}

	_, err = tx.Exec(ctx, "DELETE FROM cart_items WHERE owner_id = $1", sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear guest cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
