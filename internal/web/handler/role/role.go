// Package role provides the CRUD handlers for roles and their permission
// sets. Super-admin roles are invisible to every endpoint here; they are
// created by seeding only.
package role

import (
	"errors"
	"fmt"

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
	Resource = "role"
)

// Service provides CRUD operations for roles.
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

	api.Get("/roles", guard, s.List)
	api.Get("/role/:roleId", guard, s.Get)
	api.Post("/role", guard, s.Create)
	api.Patch("/role/:roleId", guard, s.Update)
	api.Delete("/role/:roleId", guard, s.Delete)
}

// roleView is a role with its assigned permission ids.
type roleView struct {
	models.Role
	PermissionIDs []uint `json:"permission_ids" gorm:"-"`
}

// List returns all roles except super-admin ones.
func (s *Service) List(c *fiber.Ctx) error {
	var roles []models.Role

	err := s.db.WithContext(c.UserContext()).
		Where("super_admin <> ?", true).
		Find(&roles).Error
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "Retrieval successful.", roles)
}

// Get returns one role with its permission ids.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("roleId")
	if err != nil || id < 1 {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "roleId")
	}

	role, err := s.visibleRole(c, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Role")
		}

		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	view := roleView{Role: *role}

	err = s.db.WithContext(c.UserContext()).
		Model(&models.RolePermission{}).
		Where("role_id = ?", role.ID).
		Pluck("permission_id", &view.PermissionIDs).Error
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "Retrieval successful.", view)
}

type rolePayload struct {
	Name          string `json:"name" validate:"required,max=100"`
	Description   string `json:"description" validate:"max=255"`
	PermissionIDs []uint `json:"permission_ids"`
}

// Create inserts a role and its permission links in one transaction.
func (s *Service) Create(c *fiber.Ctx) error {
	payload := new(rolePayload)
	if err := c.BodyParser(payload); err != nil {
		return handler.Error(c, fiber.StatusUnsupportedMediaType, "")
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, err.Error())
	}

	taken, err := s.nameTaken(c, payload.Name, 0)
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	if taken {
		return handler.Error(c, fiber.StatusConflict, "Role")
	}

	role := models.Role{Name: payload.Name, Description: payload.Description}

	err = s.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}

		return replacePermissions(tx, role.ID, payload.PermissionIDs)
	})
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "New record created successfully.", fiber.Map{"role_id": role.ID})
}

type rolePatch struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	PermissionIDs *[]uint `json:"permission_ids"`
}

// Update patches a role. When permission_ids is present the permission set
// is replaced wholesale: all existing links are deleted and the new set is
// inserted, in one transaction. Omitting the field leaves the set alone.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("roleId")
	if err != nil || id < 1 {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "roleId")
	}

	patch := new(rolePatch)
	if err = c.BodyParser(patch); err != nil {
		return handler.Error(c, fiber.StatusUnsupportedMediaType, "")
	}

	role, err := s.visibleRole(c, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Role")
		}

		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	updates := map[string]any{}

	if patch.Name != nil && *patch.Name != "" && *patch.Name != role.Name {
		taken, errTaken := s.nameTaken(c, *patch.Name, role.ID)
		if errTaken != nil {
			return handler.Error(c, fiber.StatusInternalServerError, " "+errTaken.Error())
		}

		if taken {
			return handler.Error(c, fiber.StatusConflict, "Role name")
		}

		updates["name"] = *patch.Name
	}

	if patch.Description != nil {
		updates["description"] = *patch.Description
	}

	err = s.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if patch.PermissionIDs != nil {
			if err := replacePermissions(tx, role.ID, *patch.PermissionIDs); err != nil {
				return err
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(role).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update role: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "Modification successful.", nil)
}

// Delete removes a role and its permission links. A role still assigned to
// users is refused.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("roleId")
	if err != nil || id < 1 {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "roleId")
	}

	role, err := s.visibleRole(c, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Role")
		}

		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	var assigned int64

	err = s.db.WithContext(c.UserContext()).
		Model(&models.User{}).
		Where("role_id = ?", role.ID).
		Count(&assigned).Error
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	if assigned > 0 {
		return handler.Error(c, fiber.StatusBadRequest, "Role is still assigned to users.")
	}

	err = s.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("failed to delete role permissions: %w", err)
		}

		if err := tx.Delete(role).Error; err != nil {
			return fmt.Errorf("failed to delete role: %w", err)
		}

		return nil
	})
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "Deletion successful.", nil)
}

// visibleRole loads a role, treating super-admin rows as absent.
func (s *Service) visibleRole(c *fiber.Ctx, id uint) (*models.Role, error) {
	var role models.Role

	err := s.db.WithContext(c.UserContext()).
		Where("id = ? AND super_admin <> ?", id, true).
		First(&role).Error
	if err != nil {
		return nil, err
	}

	return &role, nil
}

func (s *Service) nameTaken(c *fiber.Ctx, name string, exceptID uint) (bool, error) {
	var count int64

	tx := s.db.WithContext(c.UserContext()).Model(&models.Role{}).Where("name = ?", name)
	if exceptID != 0 {
		tx = tx.Where("id != ?", exceptID)
	}

	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// replacePermissions swaps a role's permission set: delete all links, then
// insert the new batch. Runs inside the caller's transaction.
func replacePermissions(tx *gorm.DB, roleID uint, permissionIDs []uint) error {
	if err := tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
		return fmt.Errorf("failed to clear role permissions: %w", err)
	}

	if len(permissionIDs) == 0 {
		return nil
	}

	links := make([]models.RolePermission, 0, len(permissionIDs))
	for _, pid := range permissionIDs {
		links = append(links, models.RolePermission{RoleID: roleID, PermissionID: pid})
	}

	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("failed to insert role permissions: %w", err)
	}

	return nil
}
