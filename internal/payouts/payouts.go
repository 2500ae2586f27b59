// Package payouts derives seller balances from the order and payout logs
// and validates withdrawal requests. Balances are never stored, so there is
// nothing to drift out of sync with the transaction history.
package payouts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/vouchhq/vouch/internal/models"
)

// MinimumPayout is the smallest allowed withdrawal, in USD minor units
// ($5.00).
const MinimumPayout = 500

var (
	// ErrBelowMinimum is a validation failure on the requested amount.
	ErrBelowMinimum = fmt.Errorf("minimum payout is %d minor units", int64(MinimumPayout))
	// ErrDestinationMismatch means the submitted number differs from the
	// seller's verified payout destination. Checked before balance, before
	// any write.
	ErrDestinationMismatch = errors.New("payout number does not match verified destination")
	// ErrInsufficientBalance means the request exceeds the derived balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Store is the persistence surface the ledger needs; *db.DB satisfies it.
type Store interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	SellerEarningsTotal(ctx context.Context, sellerID uuid.UUID) (int64, error)
	SellerPayoutsTotal(ctx context.Context, sellerID uuid.UUID) (int64, error)
	GetSellerPayouts(ctx context.Context, sellerID uuid.UUID) ([]models.Payout, error)
	CreatePayout(ctx context.Context, sellerID uuid.UUID, amount int64, method, destinationNumber string) (*models.Payout, error)
}

// Service validates and records payout requests.
type Service struct {
	store  Store
	logger *slog.Logger

	// Per-seller serialization on top of the store's transactional
	// balance check, so concurrent submissions from one seller queue up
	// instead of racing.
	mu        sync.Mutex
	sellerMus map[uuid.UUID]*sync.Mutex
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		logger:    logger,
		sellerMus: make(map[uuid.UUID]*sync.Mutex),
	}
}

// Stats computes the seller's money summary. AvailableBalance is
// sum(completed earnings) - sum(non-failed payouts), floored at zero.
func (s *Service) Stats(ctx context.Context, sellerID uuid.UUID) (models.PayoutStats, error) {
	var stats models.PayoutStats

	earnings, err := s.store.SellerEarningsTotal(ctx, sellerID)
	if err != nil {
		return stats, fmt.Errorf("failed to total earnings: %w", err)
	}

	withdrawn, err := s.store.SellerPayoutsTotal(ctx, sellerID)
	if err != nil {
		return stats, fmt.Errorf("failed to total payouts: %w", err)
	}

	stats.TotalEarnings = earnings
	stats.TotalWithdrawn = withdrawn
	stats.AvailableBalance = max(earnings-withdrawn, 0)
	return stats, nil
}

// History returns the seller's payout requests, newest first.
func (s *Service) History(ctx context.Context, sellerID uuid.UUID) ([]models.Payout, error) {
	return s.store.GetSellerPayouts(ctx, sellerID)
}

// RequestPayout validates and records a withdrawal. The destination number
// must match the seller's verified profile value; the saved value, not the
// submitted one, is what gets recorded. The amount is re-checked against
// the derived balance inside the store's serialized insert.
func (s *Service) RequestPayout(ctx context.Context, sellerID uuid.UUID, amount int64, method, destinationNumber string) (*models.Payout, error) {
	if amount < MinimumPayout {
		return nil, ErrBelowMinimum
	}

	profile, err := s.store.GetProfile(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile.PayoutNumber == "" || destinationNumber != profile.PayoutNumber {
		return nil, ErrDestinationMismatch
	}

	unlock := s.lockSeller(sellerID)
	defer unlock()

	payout, err := s.store.CreatePayout(ctx, sellerID, amount, method, profile.PayoutNumber)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payout requested",
		"seller_id", sellerID, "amount", amount, "method", method, "payout_id", payout.ID)
	return payout, nil
}

func (s *Service) lockSeller(sellerID uuid.UUID) func() {
	s.mu.Lock()
	m, ok := s.sellerMus[sellerID]
	if !ok {
		m = &sync.Mutex{}
		s.sellerMus[sellerID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}
