// Package category provides the CRUD handlers for article categories.
package category

import (
	"errors"

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
	Resource = "category"
)

// Service provides CRUD operations for categories.
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

	api.Get("/categories", guard, s.List)
	api.Get("/category/:categoryId", guard, s.Get)
	api.Post("/category", guard, s.Create)
	api.Patch("/category/:categoryId", guard, s.Update)
	api.Delete("/category/:categoryId", guard, s.Delete)
}

// List returns categories newest first, optionally filtered by name.
func (s *Service) List(c *fiber.Ctx) error {
	page, pageSize := handler.Pagination(c)
	search := c.Query("keyword", "")

	tx := s.db.WithContext(c.UserContext()).Model(&models.Category{})
	if search != "" {
		tx = tx.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	var categories []models.Category

	err := tx.Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&categories).Error
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "Retrieval successful.", fiber.Map{
		"list":     categories,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// Get returns a single category.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("categoryId")
	if err != nil || id < 1 {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "categoryId")
	}

	var category models.Category

	if err = s.db.WithContext(c.UserContext()).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Category")
		}

		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "Retrieval successful.", category)
}

type categoryPayload struct {
	Name   string `json:"name" validate:"required,max=100"`
	ImgURL string `json:"img_url" validate:"max=512"`
}

// Create inserts a category; the name must be unique.
func (s *Service) Create(c *fiber.Ctx) error {
	payload := new(categoryPayload)
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
		return handler.Error(c, fiber.StatusConflict, "Category")
	}

	category := models.Category{Name: payload.Name, ImgURL: payload.ImgURL}

	if err = s.db.WithContext(c.UserContext()).Create(&category).Error; err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "New record created successfully.", fiber.Map{"category_id": category.ID})
}

// Update patches a category; a renamed category must stay unique.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("categoryId")
	if err != nil || id < 1 {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "categoryId")
	}

	patch := map[string]any{}
	if err = c.BodyParser(&patch); err != nil {
		return handler.Error(c, fiber.StatusUnsupportedMediaType, "")
	}

	var category models.Category

	if err = s.db.WithContext(c.UserContext()).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Category")
		}

		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	updates := map[string]any{}

	if name, ok := patch["name"].(string); ok && name != "" {
		taken, errTaken := s.nameTaken(c, name, category.ID)
		if errTaken != nil {
			return handler.Error(c, fiber.StatusInternalServerError, " "+errTaken.Error())
		}

		if taken {
			return handler.Error(c, fiber.StatusConflict, "Category name")
		}

		updates["name"] = name
	}

	if imgURL, ok := patch["img_url"]; ok {
		updates["img_url"] = imgURL
	}

	if len(updates) > 0 {
		if err = s.db.WithContext(c.UserContext()).Model(&category).Updates(updates).Error; err != nil {
			return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
		}
	}

	return handler.OK(c, "Modification successful.", nil)
}

// Delete removes a category. Articles still filed under it keep their
// category id; the original system leaves them dangling as well.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("categoryId")
	if err != nil || id < 1 {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "categoryId")
	}

	tx := s.db.WithContext(c.UserContext()).Delete(&models.Category{}, id)
	if tx.Error != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+tx.Error.Error())
	}

	if tx.RowsAffected == 0 {
		return handler.Error(c, fiber.StatusNotFound, "Category")
	}

	return handler.OK(c, "Deletion successful.", nil)
}

func (s *Service) nameTaken(c *fiber.Ctx, name string, exceptID uint) (bool, error) {
	var count int64

	tx := s.db.WithContext(c.UserContext()).Model(&models.Category{}).Where("name = ?", name)
	if exceptID != 0 {
		tx = tx.Where("id != ?", exceptID)
	}

	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}
