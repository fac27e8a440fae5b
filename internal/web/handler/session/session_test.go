package session_test

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
	"github.com/bloniea/blog-api/internal/web/handler/session"
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

func seedUser(t *testing.T, db *gorm.DB) {
	t.Helper()

	require.NoError(t, db.Create(&models.Role{ID: 2, Name: "editor"}).Error)
	require.NoError(t, db.Create(&models.User{
		ID:       7,
		Active:   true,
		Username: "alice",
		Email:    "alice@example.com",
		Password: models.HashPassword("s3cret-pass"),
		RoleID:   2,
	}).Error)
	require.NoError(t, db.Create(&models.User{
		ID:       8,
		Active:   false,
		Username: "bob",
		Email:    "bob@example.com",
		Password: models.HashPassword("s3cret-pass"),
		RoleID:   2,
	}).Error)
}

func testApp(t *testing.T, db *gorm.DB, codec *token.Codec) *fiber.App {
	t.Helper()

	gate := authmw.NewGate(codec, auth.NewResolver(auth.NewGormStore(db)), 3*time.Second)

	app := fiber.New()
	api := app.Group("/api/v1/blog")

	svc := session.Service{}
	require.NoError(t, svc.Init(api, &config.Config{}, db, codec, gate))

	return app
}

func testCodec() *token.Codec {
	return token.New("access-secret", "refresh-secret", 6*time.Hour, 7*24*time.Hour)
}

type sessionEnvelope struct {
	Success int    `json:"success"`
	Message string `json:"message"`
	Data    struct {
		User *struct {
			UserID   uint64 `json:"user_id"`
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"user"`
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
		Refresh      bool   `json:"refresh"`
	} `json:"data"`
}

func postJSON(t *testing.T, app *fiber.App, target, bearer string, payload any) (*http.Response, sessionEnvelope) {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, target, bytes.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, bearer)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope sessionEnvelope
	require.NoError(t, json.Unmarshal(body, &envelope))

	return resp, envelope
}

func TestLoginIssuesVerifiablePair(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db)
	codec := testCodec()
	app := testApp(t, db, codec)

	resp, envelope := postJSON(t, app, "/api/v1/blog/login", "", fiber.Map{
		"username": "alice",
		"password": "s3cret-pass",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, envelope.Success)

	claims, err := codec.VerifyAccess(envelope.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(2), claims.RoleID)
	assert.Equal(t, uint64(7), claims.UserID)

	refreshClaims, err := codec.VerifyRefresh(envelope.Data.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), refreshClaims.UserID)

	// refresh token must not open the access path
	_, err = codec.VerifyAccess(envelope.Data.RefreshToken)
	assert.Error(t, err)

	require.NotNil(t, envelope.Data.User)
	assert.Equal(t, "alice", envelope.Data.User.Username)
	assert.Empty(t, envelope.Data.User.Password)
}

func TestLoginByEmail(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db)
	app := testApp(t, db, testCodec())

	resp, _ := postJSON(t, app, "/api/v1/blog/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "s3cret-pass",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db)
	app := testApp(t, db, testCodec())

	resp, envelope := postJSON(t, app, "/api/v1/blog/login", "", fiber.Map{
		"username": "alice",
		"password": "wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid username or password.", envelope.Message)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db)
	app := testApp(t, db, testCodec())

	resp, _ := postJSON(t, app, "/api/v1/blog/login", "", fiber.Map{
		"username": "bob",
		"password": "s3cret-pass",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db)
	app := testApp(t, db, testCodec())

	resp, _ := postJSON(t, app, "/api/v1/blog/login", "", fiber.Map{
		"username": "nobody",
		"password": "s3cret-pass",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginMissingParameters(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db)
	app := testApp(t, db, testCodec())

	resp, envelope := postJSON(t, app, "/api/v1/blog/login", "", fiber.Map{
		"username": "alice",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, envelope.Message, "parameter is missing")
}

func TestRefreshExchangesToken(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db)
	codec := testCodec()
	app := testApp(t, db, codec)

	refresh, err := codec.IssueRefresh(2, 7)
	require.NoError(t, err)

	resp, envelope := postJSON(t, app, "/api/v1/blog/refreshToken", "", fiber.Map{
		"refreshToken": "Bearer " + refresh,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, envelope.Data.Refresh)

	claims, err := codec.VerifyAccess(envelope.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
}

func TestRefreshRequiresBearerPrefix(t *testing.T) {
	db := setupTestDB(t)
	codec := testCodec()
	app := testApp(t, db, codec)

	refresh, err := codec.IssueRefresh(2, 7)
	require.NoError(t, err)

	// the body field has to carry the Bearer prefix verbatim
	resp, envelope := postJSON(t, app, "/api/v1/blog/refreshToken", "", fiber.Map{
		"refreshToken": refresh,
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, envelope.Message, "RefreshToken")
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	db := setupTestDB(t)
	codec := testCodec()
	app := testApp(t, db, codec)

	access, err := codec.IssueAccess(2, 7)
	require.NoError(t, err)

	resp, envelope := postJSON(t, app, "/api/v1/blog/refreshToken", "", fiber.Map{
		"refreshToken": "Bearer " + access,
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, envelope.Message, "Signature mismatch.")
}

func repasswdBearer(t *testing.T, codec *token.Codec) string {
	t.Helper()

	access, err := codec.IssueAccess(2, 7)
	require.NoError(t, err)

	return "Bearer " + access
}

func TestRepasswd(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db)
	codec := testCodec()
	app := testApp(t, db, codec)

	resp, _ := postJSON(t, app, "/api/v1/blog/repasswd/7", repasswdBearer(t, codec), fiber.Map{
		"password":        "s3cret-pass",
		"newPassword":     "new-pass-123",
		"confirmPassword": "new-pass-123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, db.First(&user, 7).Error)
	assert.True(t, user.VerifyPassword("new-pass-123"))
}

func TestRepasswdRejectsMismatchedConfirmation(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db)
	codec := testCodec()
	app := testApp(t, db, codec)

	resp, _ := postJSON(t, app, "/api/v1/blog/repasswd/7", repasswdBearer(t, codec), fiber.Map{
		"password":        "s3cret-pass",
		"newPassword":     "new-pass-123",
		"confirmPassword": "other",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRepasswdRejectsWrongOldPassword(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db)
	codec := testCodec()
	app := testApp(t, db, codec)

	resp, _ := postJSON(t, app, "/api/v1/blog/repasswd/7", repasswdBearer(t, codec), fiber.Map{
		"password":        "wrong",
		"newPassword":     "new-pass-123",
		"confirmPassword": "new-pass-123",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRepasswdRequiresToken(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db)
	app := testApp(t, db, testCodec())

	resp, _ := postJSON(t, app, "/api/v1/blog/repasswd/7", "", fiber.Map{
		"password":        "s3cret-pass",
		"newPassword":     "new-pass-123",
		"confirmPassword": "new-pass-123",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var user models.User
	require.NoError(t, db.First(&user, 7).Error)
	assert.True(t, user.VerifyPassword("s3cret-pass"))
}
