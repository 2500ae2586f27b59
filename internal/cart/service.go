package cart

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"

	"github.com/vouchhq/vouch/internal/models"
)

// Repository is the persistence layer behind the cart; *db.DB satisfies it.
type Repository interface {
	GetCart(ctx context.Context, ownerID string) (models.Cart, error)
	AddCartItem(ctx context.Context, ownerID string, productID uuid.UUID) error
	RemoveCartItem(ctx context.Context, ownerID string, productID uuid.UUID) (bool, error)
	MergeGuestCart(ctx context.Context, sessionID string, userID uuid.UUID) error
}

// Service coordinates cart mutations against the source of truth and keeps
// the cache consistent by invalidating after every write. Reads go through
// the cache behind singleflight so a busy cart does not stampede Postgres.
type Service struct {
	repo   Repository
	cache  Cache
	logger *slog.Logger
	sfg    singleflight.Group
}

func NewService(repo Repository, cache Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Get returns the owner's cart, cached when possible. Cache errors are
// logged and the source of truth is consulted instead.
func (s *Service) Get(ctx context.Context, ownerID string) (*models.Cart, error) {
	v, err, _ := s.sfg.Do(ownerID, func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, ownerID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("cart cache get failed", "owner_id", ownerID, "error", err)
		}

		cart, err := s.repo.GetCart(ctx, ownerID)
		if err != nil {
			return nil, err
		}

		if err := s.cache.Set(ctx, ownerID, &cart); err != nil {
			s.logger.Warn("cart cache set failed", "owner_id", ownerID, "error", err)
		}
		return &cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Cart), nil
}

// AddItem adds one unit of a product to the cart. Adding a product already
// in the cart increments its line quantity rather than appending a line.
func (s *Service) AddItem(ctx context.Context, ownerID string, productID uuid.UUID) error {
	if err := s.repo.AddCartItem(ctx, ownerID, productID); err != nil {
		return err
	}
	s.invalidate(ctx, ownerID)
	return nil
}

// RemoveItem deletes a line entirely. Removing an absent product id is a
// no-op, not an error.
func (s *Service) RemoveItem(ctx context.Context, ownerID string, productID uuid.UUID) error {
	if _, err := s.repo.RemoveCartItem(ctx, ownerID, productID); err != nil {
		return err
	}
	s.invalidate(ctx, ownerID)
	return nil
}

// MergeGuestCart folds a guest session's lines into the signed-in user's
// cart, summing quantities on conflicting products.
func (s *Service) MergeGuestCart(ctx context.Context, sessionID string, userID uuid.UUID) error {
	if err := s.repo.MergeGuestCart(ctx, sessionID, userID); err != nil {
		return err
	}
	s.invalidate(ctx, sessionID)
	s.invalidate(ctx, userID.String())
	return nil
}

func (s *Service) invalidate(ctx context.Context, ownerID string) {
	if err := s.cache.Delete(ctx, ownerID); err != nil {
		s.logger.Warn("cart cache invalidate failed", "owner_id", ownerID, "error", err)
	}
}

// Totals computes the cart total per currency, keyed by ISO code. Lines in
// different currencies are never combined; conversion is display-only and
// happens elsewhere.
func Totals(cart *models.Cart) map[string]models.Money {
	grouped := lo.GroupBy(cart.Items, func(item models.CartItem) string {
		return item.Price.Currency.String()
	})

	return lo.MapValues(grouped, func(items []models.CartItem, code string) models.Money {
		total := models.Money{Currency: items[0].Price.Currency}
		for _, item := range items {
			total.Amount += item.Price.MulQuantity(item.Quantity).Amount
		}
		return total
	})
}
