// Package checkout turns a cart into persisted order rows. The payment
// provider interaction is simulated, but the settlement effects are real:
// each line becomes one immutable order with an exact fee split.
package checkout

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/currency"

	"github.com/vouchhq/vouch/internal/models"
)

// Step is one stage of the simulated mobile-money payment flow.
type Step string

const (
	StepIdle       Step = "idle"
	StepPrompting  Step = "prompting"
	StepVerifying  Step = "verifying"
	StepCompleting Step = "completing"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	// ErrPartialSettlement wraps the underlying failure when some lines
	// settled before one failed. Committed orders stay committed; their
	// lines are already removed from the cart, the rest are untouched.
	ErrPartialSettlement = errors.New("checkout failed after partial settlement")
)

// DefaultFeeRateBps is the platform cut in basis points (5%).
const DefaultFeeRateBps = 500

const (
	simulatedStepDelay     = 1500 * time.Millisecond
	orderNumberMaxAttempts = 5
)

// Store is the persistence surface settlement needs; *db.DB satisfies it.
type Store interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductSeller(ctx context.Context, productID uuid.UUID) (uuid.UUID, error)
	InsertOrder(ctx context.Context, order models.Order) (*models.Order, error)
}

// Carts clears settled lines; *cart.Service satisfies it.
type Carts interface {
	Get(ctx context.Context, ownerID string) (*models.Cart, error)
	RemoveItem(ctx context.Context, ownerID string, productID uuid.UUID) error
}

// Receipt summarizes what was actually committed, per currency.
type Receipt struct {
	Orders []models.Order          `json:"orders"`
	Totals map[string]models.Money `json:"totals"`
}

// Service settles carts and direct buys.
type Service struct {
	store      Store
	carts      Carts
	feeRateBps int64
	logger     *slog.Logger

	// sleep is swapped out in tests to skip the simulated provider delays.
	sleep func(ctx context.Context, d time.Duration)
	// notify receives every committed order; wired to the dashboard
	// websocket hub. May be nil.
	notify func(models.Order)
	// orderNumberTaken recognizes the store's collision error.
	orderNumberTaken func(error) bool
}

// NewService creates a checkout service with the given platform fee in
// basis points. orderNumberTaken recognizes the store's order-number
// collision error so settlement can regenerate and retry.
func NewService(store Store, carts Carts, feeRateBps int64, orderNumberTaken func(error) bool, logger *slog.Logger) *Service {
	return &Service{
		store:            store,
		carts:            carts,
		feeRateBps:       feeRateBps,
		logger:           logger,
		sleep:            sleepCtx,
		orderNumberTaken: orderNumberTaken,
	}
}

// SetNotify registers a callback for every committed order.
func (s *Service) SetNotify(fn func(models.Order)) {
	s.notify = fn
}

// WithSleep overrides the simulated provider delay. Tests only.
func (s *Service) WithSleep(fn func(ctx context.Context, d time.Duration)) *Service {
	s.sleep = fn
	return s
}

// Checkout settles every line of the buyer's cart. Lines settle one at a
// time; the first failure aborts the remaining lines and surfaces
// ErrPartialSettlement with the receipt of what did commit. There is no
// rollback of committed lines.
func (s *Service) Checkout(ctx context.Context, buyer *models.Profile, method models.PaymentMethod, phone string, onStep func(Step)) (*Receipt, error) {
	ownerID := buyer.ID.String()

	userCart, err := s.carts.Get(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(userCart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	s.simulateProvider(ctx, onStep)

	return s.settle(ctx, buyer, ownerID, userCart.Items, method, phone)
}

// DirectBuy settles a single product for quantity one, bypassing the cart.
func (s *Service) DirectBuy(ctx context.Context, buyer *models.Profile, productID uuid.UUID, method models.PaymentMethod, phone string, onStep func(Step)) (*Receipt, error) {
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	s.simulateProvider(ctx, onStep)

	line := models.CartItem{
		ProductID: product.ID,
		Title:     product.Title,
		Price:     product.Price,
		Quantity:  1,
		SellerID:  product.SellerID,
	}
	return s.settle(ctx, buyer, "", []models.CartItem{line}, method, phone)
}

// simulateProvider walks the advisory payment steps. No gateway is called;
// the delays imitate a mobile-money prompt round trip.
func (s *Service) simulateProvider(ctx context.Context, onStep func(Step)) {
	for _, step := range []Step{StepPrompting, StepVerifying, StepCompleting} {
		if onStep != nil {
			onStep(step)
		}
		if step != StepCompleting {
			s.sleep(ctx, simulatedStepDelay)
		}
	}
}

// settle writes one order per line. ownerID is empty for direct buys,
// which have no cart line to clear.
func (s *Service) settle(ctx context.Context, buyer *models.Profile, ownerID string, lines []models.CartItem, method models.PaymentMethod, phone string) (*Receipt, error) {
	receipt := &Receipt{Totals: make(map[string]models.Money)}

	for _, line := range lines {
		// Re-derive the seller at settlement time. A stale cart snapshot
		// must not decide who gets credited.
		sellerID, err := s.store.GetProductSeller(ctx, line.ProductID)
		if err != nil {
			return receipt, s.abort(receipt, fmt.Errorf("product %s: %w", line.ProductID, err))
		}

		amountPaid := line.Price.MulQuantity(line.Quantity).Amount
		platformFee := amountPaid * s.feeRateBps / 10000
		sellerEarnings := amountPaid - platformFee

		order, err := s.insertOrder(ctx, models.Order{
			BuyerID:        buyer.ID,
			BuyerEmail:     buyer.Email,
			BuyerPhone:     phone,
			SellerID:       sellerID,
			ProductID:      line.ProductID,
			ProductTitle:   line.Title,
			ProductPrice:   line.Price.Amount,
			AmountPaid:     amountPaid,
			PlatformFee:    platformFee,
			SellerEarnings: sellerEarnings,
			Currency:       line.Price.Currency.String(),
			PaymentMethod:  method,
			Status:         models.OrderStatusCompleted,
		})
		if err != nil {
			return receipt, s.abort(receipt, fmt.Errorf("product %s: %w", line.ProductID, err))
		}

		if ownerID != "" {
			if err := s.carts.RemoveItem(ctx, ownerID, line.ProductID); err != nil {
				// The order is committed; a stuck cart line is recoverable
				// and not worth failing the purchase over.
				s.logger.Error("failed to clear settled cart line",
					"owner_id", ownerID, "product_id", line.ProductID, "error", err)
			}
		}

		receipt.Orders = append(receipt.Orders, *order)
		addToTotals(receipt.Totals, order)

		if s.notify != nil {
			s.notify(*order)
		}
	}

	return receipt, nil
}

// insertOrder generates order numbers until one sticks. Collisions are
// practically impossible but the retry makes them harmless.
func (s *Service) insertOrder(ctx context.Context, order models.Order) (*models.Order, error) {
	now := time.Now()
	order.CompletedAt = &now

	for attempt := 0; attempt < orderNumberMaxAttempts; attempt++ {
		order.OrderNumber = GenerateOrderNumber()

		created, err := s.store.InsertOrder(ctx, order)
		if err == nil {
			return created, nil
		}
		if s.orderNumberTaken != nil && s.orderNumberTaken(err) {
			s.logger.Warn("order number collision, retrying", "order_number", order.OrderNumber)
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("failed to generate a unique order number after %d attempts", orderNumberMaxAttempts)
}

func (s *Service) abort(receipt *Receipt, cause error) error {
	if len(receipt.Orders) > 0 {
		return fmt.Errorf("%w: %d line(s) committed: %v", ErrPartialSettlement, len(receipt.Orders), cause)
	}
	return cause
}

func addToTotals(totals map[string]models.Money, order *models.Order) {
	total, ok := totals[order.Currency]
	if !ok {
		if unit, err := currency.ParseISO(order.Currency); err == nil {
			total.Currency = unit
		}
	}
	total.Amount += order.AmountPaid
	totals[order.Currency] = total
}

const orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateOrderNumber returns a human-shareable order number like
// ORD-7K2M9QXT.
func GenerateOrderNumber() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in far worse trouble
		// than a duplicate order number.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return "ORD-" + string(buf)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
