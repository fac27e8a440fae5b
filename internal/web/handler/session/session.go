// Package session provides the authentication endpoints: login, refresh
// token exchange and password change. Login and refreshToken are registered
// without the authorization gate; everything else goes through it.
package session

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bloniea/blog-api/internal/config"
	"github.com/bloniea/blog-api/internal/db/models"
	"github.com/bloniea/blog-api/internal/token"
	"github.com/bloniea/blog-api/internal/web/handler"
	authmw "github.com/bloniea/blog-api/internal/web/middleware/auth"
)

const (
	// LoginPath is the login route below the api base path.
	LoginPath = "/login"
	// RefreshPath exchanges a refresh token for a fresh pair.
	RefreshPath = "/refreshToken"
	// RepasswdPath changes a user's password.
	RepasswdPath = "/repasswd/:userId"
)

// Resource is the permission resource name of the password change endpoint.
const Resource = "repasswd"

// Service is the session handler service.
type Service struct {
	cfg   *config.Config
	db    *gorm.DB
	codec *token.Codec
}

// Handler is the session handler.
var Handler = Service{}

// Init registers the session routes on the api router. Login and refresh are
// public; the password change sits behind the gate like any other mutation.
func (s *Service) Init(api fiber.Router, cfg *config.Config, db *gorm.DB, codec *token.Codec, gate *authmw.Gate) error {
	if api == nil || cfg == nil || db == nil || codec == nil || gate == nil {
		return errors.New("api, cfg, db, codec or gate is nil")
	}

	s.cfg = cfg
	s.db = db
	s.codec = codec

	api.Post(LoginPath, s.Login)
	api.Post(RefreshPath, s.Refresh)
	api.Post(RepasswdPath, gate.Protect(Resource), s.Repasswd)

	return nil
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPair struct {
	User         *models.User `json:"user,omitempty"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	Refresh      bool         `json:"refresh,omitempty"`
}

// Login authenticates a user by username or email plus password and answers
// with an access/refresh token pair.
func (s *Service) Login(c *fiber.Ctx) error {
	req := new(loginRequest)
	if err := c.BodyParser(req); err != nil {
		return handler.Error(c, fiber.StatusUnsupportedMediaType, "")
	}

	if req.Password == "" || (req.Username == "" && req.Email == "") {
		return handler.Error(c, fiber.StatusBadRequest,
			"password, Username or Email parameter is missing.")
	}

	var (
		user models.User
		tx   = s.db.WithContext(c.UserContext())
	)

	if req.Username != "" {
		tx = tx.Where("username = ?", req.Username)
	} else {
		tx = tx.Where("email = ?", req.Email)
	}

	if err := tx.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalidCredentials(c)
		}

		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	if !user.Active || !user.VerifyPassword(req.Password) {
		return invalidCredentials(c)
	}

	pair, err := s.issuePair(user.RoleID, user.ID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("failed to issue tokens")

		return handler.Error(c, fiber.StatusInternalServerError, "")
	}

	pair.User = &user

	return handler.OK(c, "Login successful.", pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh exchanges a valid refresh token for a new token pair. The body
// field must literally start with "Bearer "; existing clients send it that
// way and a bare token is rejected with 422.
func (s *Service) Refresh(c *fiber.Ctx) error {
	req := new(refreshRequest)
	if err := c.BodyParser(req); err != nil {
		return handler.Error(c, fiber.StatusUnsupportedMediaType, "")
	}

	if !strings.HasPrefix(req.RefreshToken, "Bearer ") {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "RefreshToken")
	}

	claims, err := s.codec.VerifyRefresh(strings.TrimPrefix(req.RefreshToken, "Bearer "))
	if err != nil {
		return handler.Error(c, fiber.StatusUnauthorized, "Signature mismatch.")
	}

	pair, err := s.issuePair(claims.RoleID, claims.UserID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", claims.UserID).Msg("failed to issue tokens")

		return handler.Error(c, fiber.StatusInternalServerError, "")
	}

	pair.Refresh = true

	return handler.OK(c, "refreshToken", pair)
}

type repasswdRequest struct {
	Password        string `json:"password"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Repasswd changes the password of a user after checking the old one.
func (s *Service) Repasswd(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("userId"), 10, 64)
	if err != nil {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "userId")
	}

	req := new(repasswdRequest)
	if err = c.BodyParser(req); err != nil {
		return handler.Error(c, fiber.StatusUnsupportedMediaType, "")
	}

	var missing []string

	for _, p := range []struct{ name, value string }{
		{"password", req.Password},
		{"newPassword", req.NewPassword},
		{"confirmPassword", req.ConfirmPassword},
	} {
		if p.value == "" {
			missing = append(missing, p.name)
		}
	}

	if len(missing) > 0 {
		return handler.Error(c, fiber.StatusBadRequest,
			strings.Join(missing, ",")+" parameter is missing.")
	}

	if req.NewPassword != req.ConfirmPassword {
		return handler.Error(c, fiber.StatusBadRequest,
			"The new password and the password entered again do not match.")
	}

	var user models.User

	if err = s.db.WithContext(c.UserContext()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalidCredentials(c)
		}

		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	if !user.VerifyPassword(req.Password) {
		return invalidCredentials(c)
	}

	err = s.db.WithContext(c.UserContext()).
		Model(&user).
		Update("password", models.HashPassword(req.NewPassword)).Error
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "Modification successful.", nil)
}

func (s *Service) issuePair(roleID uint, userID uint64) (*tokenPair, error) {
	access, err := s.codec.IssueAccess(roleID, userID)
	if err != nil {
		return nil, err
	}

	refresh, err := s.codec.IssueRefresh(roleID, userID)
	if err != nil {
		return nil, err
	}

	return &tokenPair{Token: access, RefreshToken: refresh}, nil
}

func invalidCredentials(c *fiber.Ctx) error {
	c.Status(fiber.StatusUnauthorized)

	return c.JSON(handler.Response{Message: "Invalid username or password."})
}
