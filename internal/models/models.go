package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile represents a registered user (buyer and/or creator)
type Profile struct {
	ID                     uuid.UUID `json:"id"`
	Email                  string    `json:"email"`
	PasswordHash           string    `json:"-"`
	Username               string    `json:"username"`
	FullName               string    `json:"full_name"`
	HasCompletedOnboarding bool      `json:"has_completed_onboarding"`
	// Verified mobile-money destination; payouts may only go here.
	PayoutMethod string    `json:"payout_method"`
	PayoutNumber string    `json:"payout_number"`
	CreatedAt    time.Time `json:"created_at"`
}

// Product is a sellable listing. Price is stored in minor units of its
// listed currency and never mutated by display conversion.
type Product struct {
	ID          uuid.UUID   `json:"id"`
	SellerID    uuid.UUID   `json:"seller_id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	ProductType ProductType `json:"product_type"`
	Price       Money       `json:"price"`
	IsPublished bool        `json:"is_published"`
	ViewCount   int64       `json:"view_count"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// CartItem is one line of a cart, carrying a snapshot of the product at
// add time. Quantity grows on repeated adds of the same product.
type CartItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	Price     Money     `json:"price"`
	Quantity  int       `json:"quantity"`
	SellerID  uuid.UUID `json:"seller_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Cart is owned either by an authenticated user (OwnerID = user id) or a
// guest session (OwnerID = client-generated opaque token).
type Cart struct {
	OwnerID string     `json:"owner_id"`
	Items   []CartItem `json:"items"`
}

// Order is immutable once created, except for status transitions.
// AmountPaid = PlatformFee + SellerEarnings holds exactly.
type Order struct {
	ID             uuid.UUID     `json:"id"`
	OrderNumber    string        `json:"order_number"`
	BuyerID        uuid.UUID     `json:"buyer_id"`
	BuyerEmail     string        `json:"buyer_email"`
	BuyerPhone     string        `json:"buyer_phone"`
	SellerID       uuid.UUID     `json:"seller_id"`
	ProductID      uuid.UUID     `json:"product_id"`
	ProductTitle   string        `json:"product_title"`
	ProductPrice   int64         `json:"product_price"`
	AmountPaid     int64         `json:"amount_paid"`
	PlatformFee    int64         `json:"platform_fee"`
	SellerEarnings int64         `json:"seller_earnings"`
	Currency       string        `json:"currency"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	Status         OrderStatus   `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
}

// Payout is a seller withdrawal request against the derived balance.
// Destination is copied from the profile's verified number, never from
// client input.
type Payout struct {
	ID                uuid.UUID    `json:"id"`
	SellerID          uuid.UUID    `json:"seller_id"`
	Amount            int64        `json:"amount"`
	Currency          string       `json:"currency"`
	PaymentMethod     string       `json:"payment_method"`
	DestinationNumber string       `json:"destination_number"`
	Status            PayoutStatus `json:"status"`
	CreatedAt         time.Time    `json:"created_at"`
}

// PayoutStats is the dashboard money summary, all in USD minor units.
// AvailableBalance is always derived, never stored.
type PayoutStats struct {
	TotalEarnings    int64 `json:"total_earnings"`
	TotalWithdrawn   int64 `json:"total_withdrawn"`
	AvailableBalance int64 `json:"available_balance"`
}
