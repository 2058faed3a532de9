package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/models"
)

// AdminUser returns the admin account for a phone, or nil when none exists.
func (s *Store) AdminUser(ctx context.Context, phone string) (*models.AdminUser, error) {
	var u models.AdminUser
	err := s.db.WithContext(ctx).First(&u, "phone = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load admin user: %w", err)
	}
	return &u, nil
}

// CreateAdminUser inserts a new admin account. A duplicate phone is a
// validation failure surfaced to the caller.
func (s *Store) CreateAdminUser(ctx context.Context, u *models.AdminUser) error {
	err := s.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("admin user %s already exists", u.Phone)
	}
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	return nil
}

// UpdateAdminKey rotates an admin's personal key hash.
func (s *Store) UpdateAdminKey(ctx context.Context, phone, keyHash string) error {
	res := s.db.WithContext(ctx).Model(&models.AdminUser{}).
		Where("phone = ?", phone).
		Updates(map[string]any{
			"personal_key_hash": keyHash,
			"key_last_changed":  s.now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to rotate admin key: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("unknown admin user %s", phone)
	}
	return nil
}

// AdminSession returns the admin session for a phone, or nil when none.
// TTL expiry is the caller's concern; the store reports what is durable.
func (s *Store) AdminSession(ctx context.Context, phone string) (*models.AdminSession, error) {
	var sess models.AdminSession
	err := s.db.WithContext(ctx).First(&sess, "phone = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load admin session: %w", err)
	}
	return &sess, nil
}

// SaveAdminSession upserts the admin session keyed by phone.
func (s *Store) SaveAdminSession(ctx context.Context, sess *models.AdminSession) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		UpdateAll: true,
	}).Create(sess).Error
	if err != nil {
		return fmt.Errorf("failed to save admin session: %w", err)
	}
	return nil
}

// DeleteAdminSession invalidates an admin session.
func (s *Store) DeleteAdminSession(ctx context.Context, phone string) error {
	err := s.db.WithContext(ctx).Delete(&models.AdminSession{}, "phone = ?", phone).Error
	if err != nil {
		return fmt.Errorf("failed to delete admin session: %w", err)
	}
	return nil
}

// Audit appends a security-relevant event. Audit writes never mutate or
// remove prior entries.
func (s *Store) Audit(ctx context.Context, phone, action, details string) error {
	entry := models.AuditEntry{Phone: phone, Action: action, Details: details, CreatedAt: s.now()}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// AuditEntries lists audit entries for a phone, oldest first. Used by
// tests and operational inspection.
func (s *Store) AuditEntries(ctx context.Context, phone string) ([]models.AuditEntry, error) {
	var out []models.AuditEntry
	err := s.db.WithContext(ctx).Where("phone = ?", phone).Order("id").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return out, nil
}
