package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/text/currency"

	"github.com/vouchhq/vouch/internal/models"
)

const productColumns = "id, seller_id, title, slug, description, product_type, price_amount, price_currency, is_published, view_count, created_at, updated_at"

// CreateProduct inserts a new product owned by sellerID
func (db *DB) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	row := db.Pool.QueryRow(ctx,
		"INSERT INTO products (seller_id, title, slug, description, product_type, price_amount, price_currency, is_published) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING "+productColumns,
		p.SellerID, p.Title, p.Slug, p.Description, p.ProductType, p.Price.Amount, p.Price.Currency.String(), p.IsPublished)

	product, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, fmt.Errorf("slug taken: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// UpdateProduct updates a product's listing details, scoped to its seller
// so one creator cannot edit another's product.
func (db *DB) UpdateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	row := db.Pool.QueryRow(ctx,
		"UPDATE products SET title = $1, description = $2, price_amount = $3, price_currency = $4, is_published = $5, updated_at = NOW() "+
			"WHERE id = $6 AND seller_id = $7 RETURNING "+productColumns,
		p.Title, p.Description, p.Price.Amount, p.Price.Currency.String(), p.IsPublished, p.ID, p.SellerID)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// GetProduct retrieves a product by id
func (db *DB) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row := db.Pool.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// GetProductBySlug retrieves a published product by slug
func (db *DB) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	row := db.Pool.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE slug = $1 AND is_published", slug)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by slug: %w", err)
	}
	return product, nil
}

// GetSellerProducts retrieves all products owned by sellerID
func (db *DB) GetSellerProducts(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error) {
	rows, err := db.Pool.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE seller_id = $1 ORDER BY created_at DESC", sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seller products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *product)
	}
	return products, rows.Err()
}

// GetProductSeller returns the current seller of a product. Settlement
// re-derives the seller from here instead of trusting the cart snapshot.
func (db *DB) GetProductSeller(ctx context.Context, productID uuid.UUID) (uuid.UUID, error) {
	var sellerID uuid.UUID
	err := db.Pool.QueryRow(ctx, "SELECT seller_id FROM products WHERE id = $1", productID).Scan(&sellerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to get product seller: %w", err)
	}
	return sellerID, nil
}

// IncrementViewCount bumps a product's view counter. Pure telemetry,
// callers may ignore the error.
func (db *DB) IncrementViewCount(ctx context.Context, productID uuid.UUID) error {
	_, err := db.Pool.Exec(ctx, "UPDATE products SET view_count = view_count + 1 WHERE id = $1", productID)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var (
		product      models.Product
		productType  string
		currencyCode string
	)
	err := row.Scan(&product.ID, &product.SellerID, &product.Title, &product.Slug, &product.Description,
		&productType, &product.Price.Amount, &currencyCode, &product.IsPublished, &product.ViewCount,
		&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}

	product.ProductType, err = models.ToProductType(productType)
	if err != nil {
		return nil, err
	}

	product.Price.Currency, err = currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("currency[%s] is not valid: %w", currencyCode, err)
	}

	return &product, nil
}
