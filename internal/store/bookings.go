package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/models"
)

// Devotee returns the profile for a phone, or nil when not registered.
func (s *Store) Devotee(ctx context.Context, phone string) (*models.Devotee, error) {
	var d models.Devotee
	err := s.db.WithContext(ctx).First(&d, "phone = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load devotee: %w", err)
	}
	return &d, nil
}

// UpsertDevotee writes a devotee profile keyed by phone. Re-running a
// completed registration overwrites the same record rather than creating
// a second one.
func (s *Store) UpsertDevotee(ctx context.Context, d *models.Devotee) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		UpdateAll: true,
	}).Create(d).Error
	if err != nil {
		return fmt.Errorf("failed to save devotee: %w", err)
	}
	return nil
}

// NextSequence atomically increments the counter for a booking category
// prefix and returns the post-increment value. The counter row is created
// at zero on first use; the increment itself is a single UPDATE so
// concurrent bookings for one prefix serialize in the database.
func (s *Store) NextSequence(ctx context.Context, prefix string) (int64, error) {
	db := s.db.WithContext(ctx)

	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.BookingCounter{Prefix: prefix, Sequence: 0}).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return 0, fmt.Errorf("failed to ensure booking counter: %w", err)
	}

	var seq int64
	err = db.Raw(
		"UPDATE booking_counters SET sequence = sequence + 1 WHERE prefix = ? RETURNING sequence",
		prefix,
	).Scan(&seq).Error
	if err != nil {
		return 0, fmt.Errorf("failed to increment booking counter: %w", err)
	}
	return seq, nil
}

// CreateBooking persists a new booking record.
func (s *Store) CreateBooking(ctx context.Context, b *models.Booking) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// Booking returns a booking by its id, or nil when unknown.
func (s *Store) Booking(ctx context.Context, bookingID string) (*models.Booking, error) {
	var b models.Booking
	err := s.db.WithContext(ctx).First(&b, "booking_id = ?", bookingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return &b, nil
}

// BookingsByPhone lists a devotee's bookings, newest first.
func (s *Store) BookingsByPhone(ctx context.Context, phone string) ([]models.Booking, error) {
	var out []models.Booking
	err := s.db.WithContext(ctx).
		Where("phone = ?", phone).
		Order("created_at DESC").
		Limit(10).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return out, nil
}

// UpdateBookingStatus sets the status of a booking. Status only moves via
// payment callbacks or admin action, never from the booking flow itself.
func (s *Store) UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) error {
	res := s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("booking_id = ?", bookingID).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update booking status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("unknown booking %s", bookingID)
	}
	return nil
}
