package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/models"
)

// sessionIdleTTL is how long an abandoned conversation session survives.
// Expiry is evaluated lazily on read; there is no background sweep.
const sessionIdleTTL = 6 * time.Hour

// Session returns the active conversation session for a phone, or nil when
// the phone is idle. Sessions idle past the TTL are dropped on read.
func (s *Store) Session(ctx context.Context, phone string) (*models.Session, error) {
	var sess models.Session
	err := s.db.WithContext(ctx).First(&sess, "phone = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if s.now().Sub(sess.UpdatedAt) > sessionIdleTTL {
		if err := s.DeleteSession(ctx, phone); err != nil {
			return nil, err
		}
		s.log.Info().Str("phone", phone).Msg("dropped stale conversation session")
		return nil, nil
	}
	return &sess, nil
}

// SaveSession upserts a conversation session keyed by phone. Field writes
// are plain last-write-wins overwrites scoped to one phone's record.
func (s *Store) SaveSession(ctx context.Context, sess *models.Session) error {
	sess.UpdatedAt = s.now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = sess.UpdatedAt
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		UpdateAll: true,
	}).Create(sess).Error
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// DeleteSession resets a phone to idle. Deleting an absent session is not
// an error.
func (s *Store) DeleteSession(ctx context.Context, phone string) error {
	err := s.db.WithContext(ctx).Delete(&models.Session{}, "phone = ?", phone).Error
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Language returns the stored language preference, defaulting to English.
func (s *Store) Language(ctx context.Context, phone string) (string, error) {
	var pref models.LanguagePreference
	err := s.db.WithContext(ctx).First(&pref, "phone = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "en", nil
	}
	if err != nil {
		return "en", fmt.Errorf("failed to load language preference: %w", err)
	}
	return pref.Language, nil
}

// SetLanguage upserts the language preference for a phone.
func (s *Store) SetLanguage(ctx context.Context, phone, language string) error {
	pref := models.LanguagePreference{Phone: phone, Language: language, UpdatedAt: s.now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		UpdateAll: true,
	}).Create(&pref).Error
	if err != nil {
		return fmt.Errorf("failed to save language preference: %w", err)
	}
	return nil
}

// MarkProcessed records a source-assigned message id and reports whether
// this delivery is the first one. Concurrent deliveries of the same id
// resolve to exactly one winner through the primary-key constraint.
func (s *Store) MarkProcessed(ctx context.Context, messageID string) (bool, error) {
	rec := models.ProcessedMessage{MessageID: messageID, ProcessedAt: s.now()}
	err := s.db.WithContext(ctx).Create(&rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to record processed message: %w", err)
	}
	return true, nil
}
