package flow

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/models"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/phone"
)

// adminSessionTTL bounds how long an admin stays logged in. Expiry is
// evaluated lazily on each turn.
const adminSessionTTL = 10 * time.Minute

const minAdminKeyLen = 6

const adminExpiredText = "🔒 Admin session expired. Send 'admin <key>' to login again."

const adminHelpText = `🔐 Admin Console
Commands:
• change_key – rotate your personal key
• create_admin – provision a new admin (dev_admin only)
• exit – logout`

// HashKey returns the hex SHA-256 digest of an admin personal key. Keys
// are machine-generated high-entropy strings, not user passwords.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func keyMatches(key, storedHash string) bool {
	computed := HashKey(key)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// adminLogin verifies "admin <key>" against the stored key hash. Denial
// never reveals which check failed.
func (e *Engine) adminLogin(ctx context.Context, phoneKey, key string) ([]Reply, error) {
	user, err := e.store.AdminUser(ctx, phoneKey)
	if err != nil {
		return nil, err
	}

	if user == nil || !user.Active || !keyMatches(key, user.PersonalKeyHash) {
		if err := e.store.Audit(ctx, phoneKey, models.AuditLoginFailed, ""); err != nil {
			return nil, err
		}
		e.log.Warn().Str("phone", phoneKey).Msg("admin login denied")
		return []Reply{Text(phoneKey, "Access denied.")}, nil
	}

	now := e.now()
	sess := &models.AdminSession{
		Phone:       phoneKey,
		Active:      true,
		ActivatedAt: now,
		ExpiresAt:   now.Add(adminSessionTTL),
		LastAction:  now,
	}
	if err := e.store.SaveAdminSession(ctx, sess); err != nil {
		return nil, err
	}
	if err := e.store.Audit(ctx, phoneKey, models.AuditLoginSuccess, string(user.Role)); err != nil {
		return nil, err
	}
	return []Reply{Text(phoneKey, "✅ Admin login successful.\n\n"+adminHelpText)}, nil
}

func (e *Engine) expireAdminSession(ctx context.Context, phoneKey string) error {
	if err := e.store.DeleteAdminSession(ctx, phoneKey); err != nil {
		return err
	}
	return e.store.Audit(ctx, phoneKey, models.AuditSessionExpiry, "")
}

// handleAdminTurn dispatches one turn inside an active admin session:
// an in-progress sub-flow step first, then literal commands.
func (e *Engine) handleAdminTurn(ctx context.Context, phoneKey string, sess *models.AdminSession, trimmed string) ([]Reply, error) {
	sess.LastAction = e.now()
	if err := e.store.SaveAdminSession(ctx, sess); err != nil {
		return nil, err
	}

	lower := strings.ToLower(trimmed)

	if sess.KeyChangeStep != "" {
		return e.handleKeyChange(ctx, phoneKey, sess, trimmed, lower)
	}
	if sess.AdminCreateStep != "" {
		return e.handleAdminCreate(ctx, phoneKey, sess, trimmed, lower)
	}

	switch lower {
	case "exit":
		if err := e.store.DeleteAdminSession(ctx, phoneKey); err != nil {
			return nil, err
		}
		if err := e.store.Audit(ctx, phoneKey, models.AuditLogout, ""); err != nil {
			return nil, err
		}
		return []Reply{Text(phoneKey, "Logged out of admin console.")}, nil

	case "change_key":
		sess.KeyChangeStep = models.KeyChangeVerifyOld
		if err := e.store.SaveAdminSession(ctx, sess); err != nil {
			return nil, err
		}
		return []Reply{Text(phoneKey, "Enter your current key:")}, nil

	case "create_admin":
		user, err := e.store.AdminUser(ctx, phoneKey)
		if err != nil {
			return nil, err
		}
		if user == nil || user.Role != models.RoleDevAdmin {
			return []Reply{Text(phoneKey, "Only dev_admin can create admins.")}, nil
		}
		sess.AdminCreateStep = models.AdminCreateEnterPhone
		if err := e.store.SaveAdminSession(ctx, sess); err != nil {
			return nil, err
		}
		return []Reply{Text(phoneKey, "Enter the new admin's phone number:")}, nil
	}

	return []Reply{Text(phoneKey, adminHelpText)}, nil
}

// handleKeyChange runs the two-step key rotation. Rotation invalidates
// the session, forcing a re-login with the new key.
func (e *Engine) handleKeyChange(ctx context.Context, phoneKey string, sess *models.AdminSession, trimmed, lower string) ([]Reply, error) {
	if lower == "cancel" {
		sess.KeyChangeStep = ""
		if err := e.store.SaveAdminSession(ctx, sess); err != nil {
			return nil, err
		}
		return []Reply{Text(phoneKey, "Key change cancelled."), Text(phoneKey, adminHelpText)}, nil
	}

	switch sess.KeyChangeStep {
	case models.KeyChangeVerifyOld:
		user, err := e.store.AdminUser(ctx, phoneKey)
		if err != nil {
			return nil, err
		}
		if user == nil || !keyMatches(trimmed, user.PersonalKeyHash) {
			return []Reply{Text(phoneKey, "Incorrect key. Try again, or type 'cancel'.")}, nil
		}
		sess.KeyChangeStep = models.KeyChangeEnterNew
		if err := e.store.SaveAdminSession(ctx, sess); err != nil {
			return nil, err
		}
		return []Reply{Text(phoneKey, "Enter your new key (min 6 characters):")}, nil

	case models.KeyChangeEnterNew:
		if len(trimmed) < minAdminKeyLen {
			return []Reply{Text(phoneKey, "Key too short, minimum 6 characters. Try again.")}, nil
		}
		if err := e.store.UpdateAdminKey(ctx, phoneKey, HashKey(trimmed)); err != nil {
			return nil, err
		}
		if err := e.store.Audit(ctx, phoneKey, models.AuditKeyChanged, ""); err != nil {
			return nil, err
		}
		// Forcing a fresh login with the rotated key is deliberate.
		if err := e.store.DeleteAdminSession(ctx, phoneKey); err != nil {
			return nil, err
		}
		return []Reply{Text(phoneKey, "🔑 Key changed. Please login again with 'admin <new key>'.")}, nil
	}

	sess.KeyChangeStep = ""
	if err := e.store.SaveAdminSession(ctx, sess); err != nil {
		return nil, err
	}
	return []Reply{Text(phoneKey, adminHelpText)}, nil
}

// handleAdminCreate runs the three-step admin provisioning sub-flow.
func (e *Engine) handleAdminCreate(ctx context.Context, phoneKey string, sess *models.AdminSession, trimmed, lower string) ([]Reply, error) {
	if lower == "cancel" {
		e.clearAdminCreate(sess)
		if err := e.store.SaveAdminSession(ctx, sess); err != nil {
			return nil, err
		}
		return []Reply{Text(phoneKey, "Admin creation cancelled."), Text(phoneKey, adminHelpText)}, nil
	}

	switch sess.AdminCreateStep {
	case models.AdminCreateEnterPhone:
		target := phone.Canonical(trimmed)
		if !phone.Valid(target) {
			return []Reply{Text(phoneKey, "That does not look like a phone number. Try again.")}, nil
		}
		existing, err := e.store.AdminUser(ctx, target)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return []Reply{Text(phoneKey, "That phone is already an admin. Enter a different number.")}, nil
		}
		sess.StagedPhone = target
		sess.AdminCreateStep = models.AdminCreateEnterRole
		if err := e.store.SaveAdminSession(ctx, sess); err != nil {
			return nil, err
		}
		return []Reply{Text(phoneKey, "Role for the new admin (admin / super_admin):")}, nil

	case models.AdminCreateEnterRole:
		role := models.AdminRole(lower)
		if role != models.RoleAdmin && role != models.RoleSuperAdmin {
			return []Reply{Text(phoneKey, "Role must be 'admin' or 'super_admin'. Try again.")}, nil
		}
		sess.StagedRole = role
		sess.AdminCreateStep = models.AdminCreateEnterKey
		if err := e.store.SaveAdminSession(ctx, sess); err != nil {
			return nil, err
		}
		return []Reply{Text(phoneKey, "Temporary key for the new admin (min 6 characters):")}, nil

	case models.AdminCreateEnterKey:
		if len(trimmed) < minAdminKeyLen {
			return []Reply{Text(phoneKey, "Key too short, minimum 6 characters. Try again.")}, nil
		}
		target := sess.StagedPhone
		role := sess.StagedRole
		user := &models.AdminUser{
			Phone:           target,
			Role:            role,
			PersonalKeyHash: HashKey(trimmed),
			KeyLastChanged:  e.now(),
			Active:          true,
		}
		if err := e.store.CreateAdminUser(ctx, user); err != nil {
			// Raced with another provisioning of the same phone.
			e.clearAdminCreate(sess)
			if saveErr := e.store.SaveAdminSession(ctx, sess); saveErr != nil {
				return nil, saveErr
			}
			return []Reply{Text(phoneKey, "Could not create that admin, the phone may already be registered.")}, nil
		}
		if err := e.store.Audit(ctx, phoneKey, models.AuditAdminCreated, "phone="+target+" role="+string(role)); err != nil {
			return nil, err
		}
		e.clearAdminCreate(sess)
		if err := e.store.SaveAdminSession(ctx, sess); err != nil {
			return nil, err
		}
		return []Reply{Text(phoneKey, "✅ Admin created: "+target+" ("+string(role)+").")}, nil
	}

	e.clearAdminCreate(sess)
	if err := e.store.SaveAdminSession(ctx, sess); err != nil {
		return nil, err
	}
	return []Reply{Text(phoneKey, adminHelpText)}, nil
}

func (e *Engine) clearAdminCreate(sess *models.AdminSession) {
	sess.AdminCreateStep = ""
	sess.StagedPhone = ""
	sess.StagedRole = ""
}
