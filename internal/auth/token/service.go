package token

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/yutinghan/calendar-assistant/internal/db/models"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// Service owns the OAuth token lifecycle for (user, provider) pairs: lookup,
// expiry-aware refresh, upsert and revocation.
type Service struct {
	db    *gorm.DB
	oauth *oauth2.Config
}

// NewService creates a token service. The oauth config supplies the client
// credentials and token endpoint used for refresh.
func NewService(db *gorm.DB, oauth *oauth2.Config) *Service {
	return &Service{db: db, oauth: oauth}
}

// GetValidToken returns a currently valid access token for the pair, or ""
// when the user has no usable credentials. An expired token with a refresh
// token triggers one synchronous refresh attempt. "" with a nil error means
// not authorized, not a failure.
func (s *Service) GetValidToken(ctx context.Context, userID, provider string) (string, error) {
	var row models.UserToken
	err := s.db.Where("user_id = ? AND provider = ?", userID, provider).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	// A token without a recorded expiry is treated as never expiring.
	if row.ExpiresAt != nil && row.ExpiresAt.Before(time.Now().UTC()) {
		if row.RefreshToken == "" {
			return "", nil
		}
		return s.refresh(ctx, &row)
	}

	return row.AccessToken, nil
}

// refresh trades the stored refresh token for a new access token. On failure
// the stored row is left untouched: the refresh token may still work after a
// transient provider outage.
func (s *Service) refresh(ctx context.Context, row *models.UserToken) (string, error) {
	src := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: row.RefreshToken})
	fresh, err := src.Token()
	if err != nil {
		log.Printf("❌ Token refresh failed for user %s (%s): %v", row.UserID, row.Provider, err)
		return "", nil
	}

	row.AccessToken = fresh.AccessToken
	if !fresh.Expiry.IsZero() {
		expiry := fresh.Expiry.UTC()
		row.ExpiresAt = &expiry
	}
	if fresh.RefreshToken != "" && fresh.RefreshToken != row.RefreshToken {
		log.Printf("🔄 Rotating refresh token for user %s", row.UserID)
		row.RefreshToken = fresh.RefreshToken
	}
	if err := s.db.Save(row).Error; err != nil {
		return "", err
	}

	log.Printf("✅ Refreshed %s token for user %s", row.Provider, row.UserID)
	return row.AccessToken, nil
}

// SaveTokens upserts the token row for (userID, provider). Fields the provider
// omitted on renewal keep their previous values; in particular a missing
// refresh token never clobbers a stored one.
func (s *Service) SaveTokens(ctx context.Context, userID, provider, accessToken, refreshToken string, expiresIn int, scopes []string) (*models.UserToken, error) {
	var expiresAt *time.Time
	if expiresIn > 0 {
		t := time.Now().UTC().Add(time.Duration(expiresIn) * time.Second)
		expiresAt = &t
	}

	var row models.UserToken
	err := s.db.Where("user_id = ? AND provider = ?", userID, provider).First(&row).Error
	if err == nil {
		row.AccessToken = accessToken
		if refreshToken != "" {
			row.RefreshToken = refreshToken
		}
		if expiresAt != nil {
			row.ExpiresAt = expiresAt
		}
		if len(scopes) > 0 {
			row.Scopes = marshalScopes(scopes)
		}
		if err := s.db.Save(&row).Error; err != nil {
			return nil, err
		}
		log.Printf("💾 Updated %s tokens for user %s", provider, userID)
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row = models.UserToken{
		ID:           uuid.New().String(),
		UserID:       userID,
		Provider:     provider,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		Scopes:       marshalScopes(scopes),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return nil, err
	}
	log.Printf("💾 Stored %s tokens for user %s", provider, userID)
	return &row, nil
}

// HasValidToken reports whether a turn can proceed for the pair: either a
// refresh token exists (the pair can self-heal) or the access token has an
// explicit expiry in the future. This is the conservative check; strict
// current validity is GetValidToken's job.
func (s *Service) HasValidToken(userID, provider string) bool {
	var row models.UserToken
	if err := s.db.Where("user_id = ? AND provider = ?", userID, provider).First(&row).Error; err != nil {
		return false
	}
	if row.RefreshToken != "" {
		return true
	}
	return row.ExpiresAt != nil && row.ExpiresAt.After(time.Now().UTC())
}

// RevokeToken deletes the stored token row. Revoking an absent pair is a no-op.
func (s *Service) RevokeToken(userID, provider string) error {
	result := s.db.Where("user_id = ? AND provider = ?", userID, provider).Delete(&models.UserToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("🗑️ Revoked %s tokens for user %s", provider, userID)
	}
	return nil
}

func marshalScopes(scopes []string) string {
	if len(scopes) == 0 {
		return ""
	}
	data, _ := json.Marshal(scopes)
	return string(data)
}
