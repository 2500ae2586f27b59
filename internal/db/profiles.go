package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vouchhq/vouch/internal/models"
)

const profileColumns = "id, email, password_hash, username, full_name, has_completed_onboarding, payout_method, payout_number, created_at"

// CreateProfile inserts a new profile
func (db *DB) CreateProfile(ctx context.Context, email, passwordHash, username, fullName string) (*models.Profile, error) {
	profile := &models.Profile{}
	err := db.Pool.QueryRow(ctx,
		"INSERT INTO profiles (email, password_hash, username, full_name) VALUES ($1, $2, $3, $4) RETURNING "+profileColumns,
		email, passwordHash, username, fullName).Scan(
		&profile.ID, &profile.Email, &profile.PasswordHash, &profile.Username, &profile.FullName,
		&profile.HasCompletedOnboarding, &profile.PayoutMethod, &profile.PayoutNumber, &profile.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, fmt.Errorf("email or username taken: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

// GetProfileByEmail retrieves a profile by email
func (db *DB) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return db.getProfile(ctx, "SELECT "+profileColumns+" FROM profiles WHERE email = $1", email)
}

// GetProfile retrieves a profile by id
func (db *DB) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return db.getProfile(ctx, "SELECT "+profileColumns+" FROM profiles WHERE id = $1", id)
}

func (db *DB) getProfile(ctx context.Context, query string, arg any) (*models.Profile, error) {
	profile := &models.Profile{}
	err := db.Pool.QueryRow(ctx, query, arg).Scan(
		&profile.ID, &profile.Email, &profile.PasswordHash, &profile.Username, &profile.FullName,
		&profile.HasCompletedOnboarding, &profile.PayoutMethod, &profile.PayoutNumber, &profile.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// SetPayoutDestination saves the seller's verified mobile-money destination.
// Payout requests are later validated against this value only.
func (db *DB) SetPayoutDestination(ctx context.Context, sellerID uuid.UUID, method, number string) error {
	tag, err := db.Pool.Exec(ctx,
		"UPDATE profiles SET payout_method = $1, payout_number = $2 WHERE id = $3",
		method, number, sellerID)
	if err != nil {
		return fmt.Errorf("failed to set payout destination: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteOnboarding flips the onboarding flag for a profile
func (db *DB) CompleteOnboarding(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		"UPDATE profiles SET has_completed_onboarding = TRUE WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to complete onboarding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
