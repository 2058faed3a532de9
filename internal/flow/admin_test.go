package flow_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/flow"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/models"
	"github.com/siddharthasharma9537/sarvam-whatsapp-ai/internal/store"
)

const adminPhone = "919999900000"

func seedAdmin(t *testing.T, st *store.Store, role models.AdminRole, key string) {
	t.Helper()
	require.NoError(t, st.CreateAdminUser(context.Background(), &models.AdminUser{
		Phone:           adminPhone,
		Role:            role,
		PersonalKeyHash: flow.HashKey(key),
		KeyLastChanged:  time.Now(),
		Active:          true,
	}))
}

func TestAdminLoginWrongKeyAuditsEveryFailure(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()
	seedAdmin(t, st, models.RoleDevAdmin, "secret123")

	for i := 0; i < 3; i++ {
		replies, err := e.HandleText(ctx, adminPhone, "admin wrongkey")
		require.NoError(t, err)
		assert.Equal(t, "Access denied.", replies[0].Body)
	}

	sess, err := st.AdminSession(ctx, adminPhone)
	require.NoError(t, err)
	assert.Nil(t, sess, "failed login must never create a session")

	entries, err := st.AuditEntries(ctx, adminPhone)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, entry := range entries {
		assert.Equal(t, models.AuditLoginFailed, entry.Action)
	}
}

func TestAdminLoginUnknownPhoneDenied(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()

	replies, err := e.HandleText(ctx, "919111100000", "admin anything")
	require.NoError(t, err)
	assert.Equal(t, "Access denied.", replies[0].Body)

	sess, err := st.AdminSession(ctx, "919111100000")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestAdminLoginSuccessCreatesSession(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()
	seedAdmin(t, st, models.RoleDevAdmin, "secret123")

	replies, err := e.HandleText(ctx, adminPhone, "admin secret123")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "Admin login successful")

	sess, err := st.AdminSession(ctx, adminPhone)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.True(t, sess.Active)
	assert.True(t, sess.ExpiresAt.After(time.Now()))

	entries, err := st.AuditEntries(ctx, adminPhone)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditLoginSuccess, entries[0].Action)
}

func TestAdminSessionExpiryIsLazy(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()
	seedAdmin(t, st, models.RoleDevAdmin, "secret123")

	_, err := e.HandleText(ctx, adminPhone, "admin secret123")
	require.NoError(t, err)

	e.SetNow(func() time.Time { return time.Now().Add(11 * time.Minute) })

	replies, err := e.HandleText(ctx, adminPhone, "create_admin")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "expired")

	sess, err := st.AdminSession(ctx, adminPhone)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestAdminExitLogsOut(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()
	seedAdmin(t, st, models.RoleDevAdmin, "secret123")

	_, err := e.HandleText(ctx, adminPhone, "admin secret123")
	require.NoError(t, err)

	replies, err := e.HandleText(ctx, adminPhone, "exit")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "Logged out")

	sess, err := st.AdminSession(ctx, adminPhone)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestKeyRotationInvalidatesSession(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()
	seedAdmin(t, st, models.RoleDevAdmin, "secret123")

	_, err := e.HandleText(ctx, adminPhone, "admin secret123")
	require.NoError(t, err)

	replies, err := e.HandleText(ctx, adminPhone, "change_key")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "current key")

	// Wrong current key stays on the same step.
	replies, err = e.HandleText(ctx, adminPhone, "notmykey")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "Incorrect key")

	replies, err = e.HandleText(ctx, adminPhone, "secret123")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "new key")

	replies, err = e.HandleText(ctx, adminPhone, "rotated456")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "login again")

	// Rotation closes the session on purpose.
	sess, err := st.AdminSession(ctx, adminPhone)
	require.NoError(t, err)
	assert.Nil(t, sess)

	// Old key is dead, new key works.
	replies, err = e.HandleText(ctx, adminPhone, "admin secret123")
	require.NoError(t, err)
	assert.Equal(t, "Access denied.", replies[0].Body)

	replies, err = e.HandleText(ctx, adminPhone, "admin rotated456")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "Admin login successful")

	entries, err := st.AuditEntries(ctx, adminPhone)
	require.NoError(t, err)
	var actions []string
	for _, entry := range entries {
		actions = append(actions, entry.Action)
	}
	assert.Contains(t, actions, models.AuditKeyChanged)
}

func TestCreateAdminRequiresDevAdmin(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()
	seedAdmin(t, st, models.RoleAdmin, "secret123")

	_, err := e.HandleText(ctx, adminPhone, "admin secret123")
	require.NoError(t, err)

	replies, err := e.HandleText(ctx, adminPhone, "create_admin")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "Only dev_admin")
}

func TestCreateAdminFullFlow(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()
	seedAdmin(t, st, models.RoleDevAdmin, "secret123")

	_, err := e.HandleText(ctx, adminPhone, "admin secret123")
	require.NoError(t, err)

	replies, err := e.HandleText(ctx, adminPhone, "create_admin")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "phone number")

	// Duplicate phone is a validation failure, not a crash.
	replies, err = e.HandleText(ctx, adminPhone, adminPhone)
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "already an admin")

	replies, err = e.HandleText(ctx, adminPhone, "+91 98888-00000")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "Role")

	replies, err = e.HandleText(ctx, adminPhone, "manager")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "must be")

	replies, err = e.HandleText(ctx, adminPhone, "super_admin")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "Temporary key")

	replies, err = e.HandleText(ctx, adminPhone, "tempkey1")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "Admin created")

	created, err := st.AdminUser(ctx, "919888800000")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, models.RoleSuperAdmin, created.Role)
	assert.True(t, created.Active)
	assert.Equal(t, flow.HashKey("tempkey1"), created.PersonalKeyHash)

	entries, err := st.AuditEntries(ctx, adminPhone)
	require.NoError(t, err)
	var actions []string
	for _, entry := range entries {
		actions = append(actions, entry.Action)
	}
	assert.Contains(t, actions, models.AuditAdminCreated)

	// The new admin can login with the temporary key.
	replies, err = e.HandleText(ctx, "919888800000", "admin tempkey1")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "Admin login successful")
}

func TestAdminSessionGovernsSelections(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()
	seedAdmin(t, st, models.RoleDevAdmin, "secret123")

	_, err := e.HandleText(ctx, adminPhone, "admin secret123")
	require.NoError(t, err)

	replies, err := e.HandleSelection(ctx, adminPhone, "register")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "Admin Console")

	sess, err := st.Session(ctx, adminPhone)
	require.NoError(t, err)
	assert.Nil(t, sess, "a menu tap must not start a conversation flow during an admin session")

	adminSess, err := st.AdminSession(ctx, adminPhone)
	require.NoError(t, err)
	require.NotNil(t, adminSess)
	assert.True(t, adminSess.Active)
}

func TestAdminSessionExpiryOnSelectionPath(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()
	seedAdmin(t, st, models.RoleDevAdmin, "secret123")

	_, err := e.HandleText(ctx, adminPhone, "admin secret123")
	require.NoError(t, err)

	e.SetNow(func() time.Time { return time.Now().Add(11 * time.Minute) })

	replies, err := e.HandleSelection(ctx, adminPhone, "register")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "expired")

	adminSess, err := st.AdminSession(ctx, adminPhone)
	require.NoError(t, err)
	assert.Nil(t, adminSess, "a stale admin session must be dropped on the selection path too")

	sess, err := st.Session(ctx, adminPhone)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestLoginDeferredWhileConversationFlowActive(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()
	seedAdmin(t, st, models.RoleDevAdmin, "secret123")

	_, err := e.HandleSelection(ctx, adminPhone, "register")
	require.NoError(t, err)

	// Mid-flow, login-shaped text is a field answer, not a login.
	replies, err := e.HandleText(ctx, adminPhone, "admin secret123")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "Enter Gotram")

	adminSess, err := st.AdminSession(ctx, adminPhone)
	require.NoError(t, err)
	assert.Nil(t, adminSess)

	// After cancelling the flow the same text logs in.
	_, err = e.HandleText(ctx, adminPhone, "cancel")
	require.NoError(t, err)
	replies, err = e.HandleText(ctx, adminPhone, "admin secret123")
	require.NoError(t, err)
	assert.Contains(t, replies[0].Body, "Admin login successful")
}
