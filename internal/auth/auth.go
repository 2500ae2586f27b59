package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vouchhq/vouch/internal/models"
)

// ProfileStore is the subset of the database the auth service needs.
type ProfileStore interface {
	CreateProfile(ctx context.Context, email, passwordHash, username, fullName string) (*models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
}

// AuthService handles user authentication
type AuthService struct {
	store     ProfileStore
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(store ProfileStore, jwtSecret string) *AuthService {
	return &AuthService{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  24 * time.Hour,
	}
}

// Register creates a new profile with a hashed password
func (s *AuthService) Register(ctx context.Context, email, password, username, fullName string) (*models.Profile, error) {
	// Validate input
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("valid email required")
	}
	if password == "" {
		return nil, fmt.Errorf("password cannot be empty")
	}
	if len(password) > 100 {
		return nil, fmt.Errorf("password too long (max 100 characters)")
	}
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}
	if len(username) > 50 {
		return nil, fmt.Errorf("username too long (max 50 characters)")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	profile, err := s.store.CreateProfile(ctx, email, string(hashedPassword), username, fullName)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

// Login verifies credentials and generates a JWT
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	profile, err := s.store.GetProfileByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  profile.ID.String(),
		"username": profile.Username,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// GetUserFromToken extracts the user id from a JWT
func (s *AuthService) GetUserFromToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}

	raw, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid token claims")
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id in token: %w", err)
	}
	return userID, nil
}
