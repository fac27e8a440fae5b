package role_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bloniea/blog-api/internal/auth"
	"github.com/bloniea/blog-api/internal/config"
	"github.com/bloniea/blog-api/internal/db/models"
	"github.com/bloniea/blog-api/internal/token"
	"github.com/bloniea/blog-api/internal/web/handler/role"
	authmw "github.com/bloniea/blog-api/internal/web/middleware/auth"
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
		&models.User{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func seedRoles(t *testing.T, db *gorm.DB) {
	t.Helper()

	require.NoError(t, db.Create(&models.Role{ID: 1, Name: "admin", SuperAdmin: true}).Error)
	require.NoError(t, db.Create(&models.Role{ID: 2, Name: "editor"}).Error)
	require.NoError(t, db.Create(&models.Permission{ID: 10, Name: "article_DELETE"}).Error)
	require.NoError(t, db.Create(&models.Permission{ID: 11, Name: "article_POST"}).Error)
	require.NoError(t, db.Create(&models.RolePermission{RoleID: 2, PermissionID: 10}).Error)
}

// testApp mounts the role handler behind the gate and returns a super-admin
// bearer header usable for mutating requests.
func testApp(t *testing.T, db *gorm.DB) (*fiber.App, string) {
	t.Helper()

	codec := token.New("access-secret", "refresh-secret", time.Hour, time.Hour)
	gate := authmw.NewGate(codec, auth.NewResolver(auth.NewGormStore(db)), 3*time.Second)

	app := fiber.New()
	api := app.Group("/api/v1/blog")

	svc := role.Service{}
	svc.Init(api, &config.Config{}, db, gate)

	access, err := codec.IssueAccess(1, 1)
	require.NoError(t, err)

	return app, "Bearer " + access
}

type envelope struct {
	Success int             `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func request(t *testing.T, app *fiber.App, method, target, bearer string, payload any) (*http.Response, envelope) {
	t.Helper()

	var body io.Reader

	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, bearer)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))

	return resp, env
}

func linkedPermissionIDs(t *testing.T, db *gorm.DB, roleID uint) []uint {
	t.Helper()

	var ids []uint
	require.NoError(t, db.Model(&models.RolePermission{}).
		Where("role_id = ?", roleID).
		Order("permission_id").
		Pluck("permission_id", &ids).Error)

	return ids
}

func TestListHidesSuperAdmin(t *testing.T) {
	db := setupTestDB(t)
	seedRoles(t, db)
	app, _ := testApp(t, db)

	resp, env := request(t, app, fiber.MethodGet, "/api/v1/blog/roles", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var roles []models.Role
	require.NoError(t, json.Unmarshal(env.Data, &roles))
	require.Len(t, roles, 1)
	assert.Equal(t, "editor", roles[0].Name)
}

func TestGetReturnsPermissionIDs(t *testing.T) {
	db := setupTestDB(t)
	seedRoles(t, db)
	app, _ := testApp(t, db)

	resp, env := request(t, app, fiber.MethodGet, "/api/v1/blog/role/2", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var view struct {
		Name          string `json:"name"`
		PermissionIDs []uint `json:"permission_ids"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "editor", view.Name)
	assert.Equal(t, []uint{10}, view.PermissionIDs)
}

func TestGetSuperAdminIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	seedRoles(t, db)
	app, _ := testApp(t, db)

	resp, _ := request(t, app, fiber.MethodGet, "/api/v1/blog/role/1", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreateRoleWithPermissions(t *testing.T) {
	db := setupTestDB(t)
	seedRoles(t, db)
	app, bearer := testApp(t, db)

	resp, env := request(t, app, fiber.MethodPost, "/api/v1/blog/role", bearer, fiber.Map{
		"name":           "author",
		"description":    "writes articles",
		"permission_ids": []uint{10, 11},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var created struct {
		RoleID uint `json:"role_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotZero(t, created.RoleID)

	assert.Equal(t, []uint{10, 11}, linkedPermissionIDs(t, db, created.RoleID))
}

func TestCreateDuplicateNameConflicts(t *testing.T) {
	db := setupTestDB(t)
	seedRoles(t, db)
	app, bearer := testApp(t, db)

	resp, _ := request(t, app, fiber.MethodPost, "/api/v1/blog/role", bearer, fiber.Map{
		"name": "editor",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestUpdateReplacesPermissionSet(t *testing.T) {
	db := setupTestDB(t)
	seedRoles(t, db)
	app, bearer := testApp(t, db)

	resp, _ := request(t, app, fiber.MethodPatch, "/api/v1/blog/role/2", bearer, fiber.Map{
		"permission_ids": []uint{11},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// the old link to 10 is gone, not merged
	assert.Equal(t, []uint{11}, linkedPermissionIDs(t, db, 2))
}

func TestUpdateEmptySetClearsLinks(t *testing.T) {
	db := setupTestDB(t)
	seedRoles(t, db)
	app, bearer := testApp(t, db)

	resp, _ := request(t, app, fiber.MethodPatch, "/api/v1/blog/role/2", bearer, fiber.Map{
		"permission_ids": []uint{},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, linkedPermissionIDs(t, db, 2))
}

func TestUpdateWithoutPermissionIDsKeepsLinks(t *testing.T) {
	db := setupTestDB(t)
	seedRoles(t, db)
	app, bearer := testApp(t, db)

	resp, _ := request(t, app, fiber.MethodPatch, "/api/v1/blog/role/2", bearer, fiber.Map{
		"description": "updated",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []uint{10}, linkedPermissionIDs(t, db, 2))

	var updated models.Role
	require.NoError(t, db.First(&updated, 2).Error)
	assert.Equal(t, "updated", updated.Description)
}

func TestDeleteRefusedWhileAssigned(t *testing.T) {
	db := setupTestDB(t)
	seedRoles(t, db)
	require.NoError(t, db.Create(&models.User{
		ID:       7,
		Active:   true,
		Username: "alice",
		Email:    "alice@example.com",
		Password: models.HashPassword("s3cret-pass"),
		RoleID:   2,
	}).Error)
	app, bearer := testApp(t, db)

	resp, env := request(t, app, fiber.MethodDelete, "/api/v1/blog/role/2", bearer, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env.Message, "still assigned")
}

func TestDeleteRemovesRoleAndLinks(t *testing.T) {
	db := setupTestDB(t)
	seedRoles(t, db)
	app, bearer := testApp(t, db)

	resp, _ := request(t, app, fiber.MethodDelete, "/api/v1/blog/role/2", bearer, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.Role{}).Where("id = ?", 2).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, linkedPermissionIDs(t, db, 2))
}
