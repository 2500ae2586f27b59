// Package media signs upload credentials for the video CDN and records
// view telemetry. None of it touches settlement.
package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Signer produces time-limited upload signatures for the video CDN
// (Bunny-style: sha256(libraryID + apiKey + expires + videoID)).
type Signer struct {
	libraryID string
	apiKey    string
	pullZone  string
	now       func() time.Time
}

func NewSigner(libraryID, apiKey, pullZone string) *Signer {
	return &Signer{
		libraryID: libraryID,
		apiKey:    apiKey,
		pullZone:  pullZone,
		now:       time.Now,
	}
}

// WithClock overrides the signer's clock. Tests only.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

// UploadSignature is handed to the client for a resumable upload.
type UploadSignature struct {
	VideoID   string `json:"video_id"`
	LibraryID string `json:"library_id"`
	Signature string `json:"signature"`
	Expires   int64  `json:"expires"`
}

// SignUpload authorizes an upload of videoID for one hour.
func (s *Signer) SignUpload(videoID string) UploadSignature {
	expires := s.now().Add(time.Hour).Unix()
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s%s%d%s", s.libraryID, s.apiKey, expires, videoID)))
	return UploadSignature{
		VideoID:   videoID,
		LibraryID: s.libraryID,
		Signature: hex.EncodeToString(sum[:]),
		Expires:   expires,
	}
}

// ThumbnailURL returns the CDN thumbnail for a stored video, or "" when no
// pull zone is configured.
func (s *Signer) ThumbnailURL(videoID string) string {
	if s.pullZone == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.b-cdn.net/%s/thumbnail.jpg", s.pullZone, videoID)
}

// ViewStore increments product view counters; *db.DB satisfies it.
type ViewStore interface {
	IncrementViewCount(ctx context.Context, productID uuid.UUID) error
}

// Tracker records product views. View counts carry no financial
// consequence, so failures are logged and swallowed.
type Tracker struct {
	store  ViewStore
	logger *slog.Logger
}

func NewTracker(store ViewStore, logger *slog.Logger) *Tracker {
	return &Tracker{store: store, logger: logger}
}

// RecordView bumps the view counter. Never returns an error.
func (t *Tracker) RecordView(ctx context.Context, productID uuid.UUID) {
	if err := t.store.IncrementViewCount(ctx, productID); err != nil {
		t.logger.Warn("view count increment failed", "product_id", productID, "error", err)
	}
}
