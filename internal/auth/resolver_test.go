package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bloniea/blog-api/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func seedRBAC(t *testing.T, db *gorm.DB) {
	t.Helper()

	require.NoError(t, db.Create(&models.Role{ID: 1, Name: "admin", SuperAdmin: true}).Error)
	require.NoError(t, db.Create(&models.Role{ID: 2, Name: "editor"}).Error)
	require.NoError(t, db.Create(&models.Permission{ID: 10, Name: "article_DELETE"}).Error)
	require.NoError(t, db.Create(&models.Permission{ID: 11, Name: "article_POST"}).Error)
	require.NoError(t, db.Create(&models.RolePermission{RoleID: 2, PermissionID: 11}).Error)
}

func TestAuthorizeSuperAdminBypass(t *testing.T) {
	db := setupTestDB(t)
	seedRBAC(t, db)
	r := NewResolver(NewGormStore(db))

	// any key, gated or not, passes unconditionally
	for _, key := range []string{"article_DELETE", "article_POST", "no_such_KEY"} {
		decision, err := r.Authorize(context.Background(), 1, key)
		require.NoError(t, err)
		assert.Equal(t, AllowUnconditional, decision, "key %s", key)
	}
}

func TestAuthorizeGatedPermission(t *testing.T) {
	db := setupTestDB(t)
	seedRBAC(t, db)
	r := NewResolver(NewGormStore(db))

	// editor holds article_POST
	decision, err := r.Authorize(context.Background(), 2, "article_POST")
	require.NoError(t, err)
	assert.Equal(t, Allow, decision)

	// but not article_DELETE
	decision, err = r.Authorize(context.Background(), 2, "article_DELETE")
	require.NoError(t, err)
	assert.Equal(t, Deny, decision)
}

func TestAuthorizeUngatedKeyAllows(t *testing.T) {
	db := setupTestDB(t)
	seedRBAC(t, db)
	r := NewResolver(NewGormStore(db))

	// no permission row named category_POST exists: open to any
	// authenticated principal, explicitly an Allow and not a Deny
	decision, err := r.Authorize(context.Background(), 2, "category_POST")
	require.NoError(t, err)
	assert.Equal(t, Allow, decision)
}

func TestAuthorizeUnknownRoleDenies(t *testing.T) {
	db := setupTestDB(t)
	seedRBAC(t, db)
	r := NewResolver(NewGormStore(db))

	decision, err := r.Authorize(context.Background(), 99, "article_POST")
	require.NoError(t, err, "an orphaned role id is a deny, not a server error")
	assert.Equal(t, Deny, decision)
}

func TestAuthorizeIdempotent(t *testing.T) {
	db := setupTestDB(t)
	seedRBAC(t, db)
	r := NewResolver(NewGormStore(db))

	first, err := r.Authorize(context.Background(), 2, "article_DELETE")
	require.NoError(t, err)

	second, err := r.Authorize(context.Background(), 2, "article_DELETE")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// failingStore simulates an unavailable backend.
type failingStore struct {
	err error
}

func (s *failingStore) FindRoleByID(context.Context, uint) (*models.Role, error) {
	return nil, s.err
}

func (s *failingStore) FindPermissionByName(context.Context, string) (*models.Permission, error) {
	return nil, s.err
}

func (s *failingStore) RoleHasPermission(context.Context, uint, uint) (bool, error) {
	return false, s.err
}

func TestAuthorizeStoreFailurePropagates(t *testing.T) {
	storeErr := errors.New("connection refused")
	r := NewResolver(&failingStore{err: storeErr})

	decision, err := r.Authorize(context.Background(), 2, "article_POST")
	require.ErrorIs(t, err, storeErr, "store faults must surface, not fold into a deny")
	assert.Equal(t, Deny, decision)
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "deny", Deny.String())
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "allow-unconditional", AllowUnconditional.String())
}
