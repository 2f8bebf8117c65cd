package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/models"
)

func setupAuthTest(t *testing.T) (*gorm.DB, *AuthService) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db, NewAuthService(db, "test-secret")
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string, enabled bool) *models.User {
	t.Helper()
	user := &models.User{
		UUID:    "u-" + email,
		Email:   email,
		Name:    "Test",
		Role:    "user",
		Enabled: enabled,
	}
	require.NoError(t, user.SetPassword(password))
	require.NoError(t, db.Create(user).Error)
	if !enabled {
		require.NoError(t, db.Model(user).Update("enabled", false).Error)
	}
	return user
}

func TestAuthService_Login(t *testing.T) {
	db, svc := setupAuthTest(t)
	createTestUser(t, db, "op@example.com", "secret123", true)

	token, user, err := svc.Login("op@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "op@example.com", user.Email)
	assert.NotNil(t, user.LastLogin)
}

func TestAuthService_LoginFailures(t *testing.T) {
	db, svc := setupAuthTest(t)
	createTestUser(t, db, "op@example.com", "secret123", true)
	createTestUser(t, db, "off@example.com", "secret123", false)

	_, _, err := svc.Login("op@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("ghost@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("off@example.com", "secret123")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestAuthService_ValidateToken(t *testing.T) {
	db, svc := setupAuthTest(t)
	created := createTestUser(t, db, "op@example.com", "secret123", true)

	token, _, err := svc.Login("op@example.com", "secret123")
	require.NoError(t, err)

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, created.UUID, user.UUID)

	_, err = svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_ValidateTokenRejectsDisabledUser(t *testing.T) {
	db, svc := setupAuthTest(t)
	user := createTestUser(t, db, "op@example.com", "secret123", true)

	token, _, err := svc.Login("op@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, db.Model(user).Update("enabled", false).Error)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestAuthService_ValidateTokenWrongSecret(t *testing.T) {
	db, svc := setupAuthTest(t)
	createTestUser(t, db, "op@example.com", "secret123", true)

	token, _, err := svc.Login("op@example.com", "secret123")
	require.NoError(t, err)

	other := NewAuthService(db, "different-secret")
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_ChangePassword(t *testing.T) {
	db, svc := setupAuthTest(t)
	user := createTestUser(t, db, "op@example.com", "secret123", true)

	assert.ErrorIs(t, svc.ChangePassword(user.ID, "wrong", "newpass123"), ErrInvalidCredentials)
	require.NoError(t, svc.ChangePassword(user.ID, "secret123", "newpass123"))

	_, _, err := svc.Login("op@example.com", "newpass123")
	require.NoError(t, err)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	db, svc := setupAuthTest(t)

	// Missing either credential is a no-op, not an error.
	require.NoError(t, svc.EnsureAdmin("", "pw"))
	require.NoError(t, svc.EnsureAdmin("admin@example.com", ""))
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, svc.EnsureAdmin("admin@example.com", "adminpass"))
	_, user, err := svc.Login("admin@example.com", "adminpass")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Role)

	// Idempotent: the second call leaves the existing account alone.
	require.NoError(t, svc.EnsureAdmin("admin@example.com", "otherpass"))
	_, _, err = svc.Login("admin@example.com", "adminpass")
	require.NoError(t, err)
}
