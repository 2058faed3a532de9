package models

import (
	"time"

	"gorm.io/datatypes"
)

// RegistrationStatus tracks whether a devotee completed registration.
type RegistrationStatus string

const (
	RegistrationNone   RegistrationStatus = "none"
	RegistrationActive RegistrationStatus = "active"
)

// Devotee is the profile collected by the registration flow.
// Phone is the canonical identity key joining all per-user records.
type Devotee struct {
	Phone              string             `gorm:"primaryKey;size:20" json:"phone"`
	FullName           string             `json:"full_name"`
	Gotram             string             `json:"gotram"`
	Address            string             `json:"address"`
	Mobile             string             `json:"mobile"`
	Email              string             `json:"email"`
	RegistrationStatus RegistrationStatus `gorm:"size:12" json:"registration_status"`
	RegisteredAt       time.Time          `json:"registered_at"`
}

// Flow names a multi-turn conversation state machine.
type Flow string

const (
	FlowNone         Flow = ""
	FlowRegistration Flow = "registration"
	FlowBooking      Flow = "booking"
)

// Session is the durable record of a phone's current flow and step.
// Absence of a session means the phone is idle at the main menu.
type Session struct {
	Phone     string            `gorm:"primaryKey;size:20" json:"phone"`
	Flow      Flow              `gorm:"size:24" json:"flow"`
	Step      string            `gorm:"size:32" json:"step"`
	Data      datatypes.JSONMap `json:"data"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// LanguagePreference persists across all flows, independent of Session.
type LanguagePreference struct {
	Phone     string    `gorm:"primaryKey;size:20" json:"phone"`
	Language  string    `gorm:"size:8" json:"language"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProcessedMessage is the idempotency gate: a source-assigned message id
// is recorded exactly once, and a failed insert on the unique key marks
// the delivery as a duplicate.
type ProcessedMessage struct {
	MessageID   string    `gorm:"primaryKey;size:128" json:"message_id"`
	ProcessedAt time.Time `json:"processed_at"`
}

// BookingCounter issues monotonic sequence numbers per booking category.
type BookingCounter struct {
	Prefix   string `gorm:"primaryKey;size:8" json:"prefix"`
	Sequence int64  `json:"sequence"`
}

// BookingStatus transitions only via payment callbacks or admin action.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingPaid      BookingStatus = "paid"
	BookingRefunded  BookingStatus = "refunded"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking categories map to counter prefixes.
const (
	CategorySeva          = "SB"
	CategoryAccommodation = "AC"
)

// Booking is created when a booking flow reaches its terminal step.
type Booking struct {
	BookingID   string        `gorm:"primaryKey;size:48" json:"booking_id"`
	Phone       string        `gorm:"index;size:20" json:"phone"`
	Category    string        `gorm:"size:8" json:"category"`
	Item        string        `json:"item,omitempty"`
	EventDate   string        `json:"event_date,omitempty"`
	RoomType    string        `json:"room_type,omitempty"`
	AmountPaise int64         `json:"amount_paise"`
	Status      BookingStatus `gorm:"size:12" json:"status"`
	PaymentRef  string        `gorm:"size:64" json:"payment_ref,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// AdminRole is the privilege level of an admin user. DevAdmin is the top
// level and the only role allowed to provision further admins.
type AdminRole string

const (
	RoleDevAdmin   AdminRole = "dev_admin"
	RoleAdmin      AdminRole = "admin"
	RoleSuperAdmin AdminRole = "super_admin"
)

// AdminUser holds a hashed personal key per admin phone.
type AdminUser struct {
	Phone           string    `gorm:"primaryKey;size:20" json:"phone"`
	Role            AdminRole `gorm:"size:16" json:"role"`
	PersonalKeyHash string    `gorm:"size:64" json:"-"`
	KeyLastChanged  time.Time `json:"key_last_changed"`
	Active          bool      `json:"active"`
}

// Admin sub-flow steps, kept on the AdminSession rather than the
// conversation session so the admin context keeps routing precedence.
const (
	KeyChangeVerifyOld = "verify_old"
	KeyChangeEnterNew  = "enter_new"

	AdminCreateEnterPhone = "enter_phone"
	AdminCreateEnterRole  = "enter_role"
	AdminCreateEnterKey   = "enter_key"
)

// AdminSession is created on successful key verification and invalidated
// on exit, key rotation, or TTL expiry.
type AdminSession struct {
	Phone           string    `gorm:"primaryKey;size:20" json:"phone"`
	Active          bool      `json:"active"`
	ActivatedAt     time.Time `json:"activated_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	LastAction      time.Time `json:"last_action"`
	KeyChangeStep   string    `gorm:"size:16" json:"key_change_step,omitempty"`
	AdminCreateStep string    `gorm:"size:16" json:"admin_create_step,omitempty"`
	StagedPhone     string    `gorm:"size:20" json:"staged_phone,omitempty"`
	StagedRole      AdminRole `gorm:"size:16" json:"staged_role,omitempty"`
}

// Audit actions recorded for security-relevant events.
const (
	AuditLoginSuccess  = "admin_login_success"
	AuditLoginFailed   = "admin_login_failed"
	AuditLogout        = "admin_logout"
	AuditSessionExpiry = "admin_session_expired"
	AuditKeyChanged    = "admin_key_changed"
	AuditAdminCreated  = "admin_created"
	AuditBootstrap     = "admin_bootstrap"
)

// AuditEntry is append-only; the core never mutates or deletes entries.
type AuditEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Phone     string    `gorm:"index;size:20" json:"phone"`
	Action    string    `gorm:"size:32" json:"action"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
