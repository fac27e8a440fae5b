// Package user provides the CRUD handlers for user accounts.
package user

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bloniea/blog-api/internal/config"
	"github.com/bloniea/blog-api/internal/db/models"
	"github.com/bloniea/blog-api/internal/web/handler"
	authmw "github.com/bloniea/blog-api/internal/web/middleware/auth"
)

const (
	// Resource is the permission resource name of this handler.
	Resource = "user"
)

// Service provides CRUD operations for users.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes behind the authorization gate.
func (s *Service) Init(api fiber.Router, cfg *config.Config, db *gorm.DB, gate *authmw.Gate) {
	if api == nil || cfg == nil || db == nil || gate == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.validator = validator.New()

	guard := gate.Protect(Resource)

	api.Get("/users", guard, s.List)
	api.Get("/user/:userId", guard, s.Get)
	api.Post("/user", guard, s.Create)
	api.Patch("/user/:userId", guard, s.Update)
	api.Delete("/user/:userId", guard, s.Delete)
}

// userRow is a user joined with the name of its role. The password hash is
// neither selected nor serialized.
type userRow struct {
	ID        uint64    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	RoleID    uint      `json:"role_id"`
	RoleName  string    `json:"role_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Service) joined(c *fiber.Ctx) *gorm.DB {
	return s.db.WithContext(c.UserContext()).
		Model(&models.User{}).
		Select("users.id, users.username, users.email, users.active, users.role_id, " +
			"roles.name AS role_name, users.created_at, users.updated_at").
		Joins("JOIN roles ON roles.id = users.role_id")
}

// List returns all users with their role names.
func (s *Service) List(c *fiber.Ctx) error {
	var rows []userRow

	if err := s.joined(c).Scan(&rows).Error; err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "Retrieval successful.", rows)
}

// Get returns one user with its role name.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("userId")
	if err != nil || id < 1 {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "userId")
	}

	var row userRow

	tx := s.joined(c).Where("users.id = ?", id).Scan(&row)
	if tx.Error != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+tx.Error.Error())
	}

	if tx.RowsAffected == 0 {
		return handler.Error(c, fiber.StatusNotFound, "User")
	}

	return handler.OK(c, "Retrieval successful.", row)
}

type userPayload struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	RoleID   uint   `json:"role_id" validate:"required"`
}

// Create inserts a user; username and email must both be unused.
func (s *Service) Create(c *fiber.Ctx) error {
	payload := new(userPayload)
	if err := c.BodyParser(payload); err != nil {
		return handler.Error(c, fiber.StatusUnsupportedMediaType, "")
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, err.Error())
	}

	taken, err := s.identityTaken(c, payload.Username, payload.Email, 0)
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	if taken {
		return handler.Error(c, fiber.StatusConflict, "User")
	}

	if err = s.roleExists(c, payload.RoleID); err != nil {
		return err
	}

	user := models.User{
		Username: payload.Username,
		Email:    payload.Email,
		Password: models.HashPassword(payload.Password),
		RoleID:   payload.RoleID,
		Active:   true,
	}

	if err = s.db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "New record created successfully.", fiber.Map{"user_id": user.ID})
}

type userPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	RoleID   *uint   `json:"role_id"`
	Active   *bool   `json:"active"`
}

// Update patches a user account.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("userId")
	if err != nil || id < 1 {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "userId")
	}

	patch := new(userPatch)
	if err = c.BodyParser(patch); err != nil {
		return handler.Error(c, fiber.StatusUnsupportedMediaType, "")
	}

	var user models.User

	if err = s.db.WithContext(c.UserContext()).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "User")
		}

		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	username, email := user.Username, user.Email
	if patch.Username != nil {
		username = *patch.Username
	}

	if patch.Email != nil {
		email = *patch.Email
	}

	if username != user.Username || email != user.Email {
		taken, errTaken := s.identityTaken(c, username, email, user.ID)
		if errTaken != nil {
			return handler.Error(c, fiber.StatusInternalServerError, " "+errTaken.Error())
		}

		if taken {
			return handler.Error(c, fiber.StatusConflict, "Username or Email")
		}
	}

	updates := map[string]any{}

	if patch.Username != nil && *patch.Username != "" {
		updates["username"] = *patch.Username
	}

	if patch.Email != nil && *patch.Email != "" {
		updates["email"] = *patch.Email
	}

	if patch.Password != nil && *patch.Password != "" {
		updates["password"] = models.HashPassword(*patch.Password)
	}

	if patch.Active != nil {
		updates["active"] = *patch.Active
	}

	if patch.RoleID != nil {
		if err = s.roleExists(c, *patch.RoleID); err != nil {
			return err
		}

		updates["role_id"] = *patch.RoleID
	}

	if len(updates) > 0 {
		if err = s.db.WithContext(c.UserContext()).Model(&user).Updates(updates).Error; err != nil {
			return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
		}
	}

	return handler.OK(c, "Modification successful.", nil)
}

// Delete removes a user account.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("userId")
	if err != nil || id < 1 {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "userId")
	}

	tx := s.db.WithContext(c.UserContext()).Delete(&models.User{}, id)
	if tx.Error != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+tx.Error.Error())
	}

	if tx.RowsAffected == 0 {
		return handler.Error(c, fiber.StatusNotFound, "User")
	}

	return handler.OK(c, "Deletion successful.", nil)
}

func (s *Service) identityTaken(c *fiber.Ctx, username, email string, exceptID uint64) (bool, error) {
	var count int64

	tx := s.db.WithContext(c.UserContext()).
		Model(&models.User{}).
		Where("username = ? OR email = ?", username, email)
	if exceptID != 0 {
		tx = tx.Where("id != ?", exceptID)
	}

	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (s *Service) roleExists(c *fiber.Ctx, id uint) error {
	var count int64

	err := s.db.WithContext(c.UserContext()).
		Model(&models.Role{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	if count == 0 {
		return handler.Error(c, fiber.StatusNotFound, "Role")
	}

	return nil
}
