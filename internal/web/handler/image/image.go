// Package image provides the CRUD handlers for image asset metadata and the
// image category listing. Binary upload and thumbnailing are handled by the
// external asset pipeline; this API tracks name, location and category only.
package image

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
	Resource = "image"
)

// Service provides CRUD operations for image metadata.
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

	api.Get("/imageCategories", guard, s.ListCategories)
	api.Get("/images", guard, s.List)
	api.Get("/image/:imageId", guard, s.Get)
	api.Post("/image", guard, s.Create)
	api.Patch("/image/:imageId", guard, s.Update)
	api.Delete("/image/:imageId", guard, s.Delete)
}

// ListCategories returns all image categories.
func (s *Service) ListCategories(c *fiber.Ctx) error {
	var categories []models.ImageCategory

	if err := s.db.WithContext(c.UserContext()).Find(&categories).Error; err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "Retrieval successful.", categories)
}

// List returns images newest first, optionally filtered by category and name.
func (s *Service) List(c *fiber.Ctx) error {
	page, pageSize := handler.Pagination(c)
	search := c.Query("keyword", "")
	categoryID := c.QueryInt("categoryId", 0)

	tx := s.db.WithContext(c.UserContext()).Model(&models.Image{})
	if search != "" {
		tx = tx.Where("name LIKE ?", "%"+search+"%")
	}

	if categoryID > 0 {
		tx = tx.Where("category_id = ?", categoryID)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	var images []models.Image

	err := tx.Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&images).Error
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "Retrieval successful.", fiber.Map{
		"list":     images,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// Get returns one image metadata record.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("imageId")
	if err != nil || id < 1 {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "imageId")
	}

	var image models.Image

	if err = s.db.WithContext(c.UserContext()).First(&image, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Image")
		}

		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "Retrieval successful.", image)
}

type imagePayload struct {
	Name       string `json:"name" validate:"required,max=255"`
	URL        string `json:"url" validate:"required,max=512"`
	CategoryID uint   `json:"category_id" validate:"required"`
}

// Create records image metadata after checking its category exists.
func (s *Service) Create(c *fiber.Ctx) error {
	payload := new(imagePayload)
	if err := c.BodyParser(payload); err != nil {
		return handler.Error(c, fiber.StatusUnsupportedMediaType, "")
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, err.Error())
	}

	if err := s.categoryExists(c, payload.CategoryID); err != nil {
		return err
	}

	image := models.Image{
		Name:       payload.Name,
		URL:        payload.URL,
		CategoryID: payload.CategoryID,
	}

	if err := s.db.WithContext(c.UserContext()).Create(&image).Error; err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "New record created successfully.", fiber.Map{"image_id": image.ID})
}

// Update patches an image metadata record.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("imageId")
	if err != nil || id < 1 {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "imageId")
	}

	patch := map[string]any{}
	if err = c.BodyParser(&patch); err != nil {
		return handler.Error(c, fiber.StatusUnsupportedMediaType, "")
	}

	var image models.Image

	if err = s.db.WithContext(c.UserContext()).First(&image, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Image")
		}

		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	updates := map[string]any{}

	for key, column := range map[string]string{
		"name":        "name",
		"url":         "url",
		"category_id": "category_id",
	} {
		if v, ok := patch[key]; ok {
			updates[column] = v
		}
	}

	if categoryID, ok := updates["category_id"]; ok {
		cid, ok := categoryID.(float64)
		if !ok || cid < 1 {
			return handler.Error(c, fiber.StatusUnprocessableEntity, "category_id")
		}

		if err = s.categoryExists(c, uint(cid)); err != nil {
			return err
		}
	}

	if len(updates) > 0 {
		if err = s.db.WithContext(c.UserContext()).Model(&image).Updates(updates).Error; err != nil {
			return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
		}
	}

	return handler.OK(c, "Modification successful.", nil)
}

// Delete removes an image metadata record.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("imageId")
	if err != nil || id < 1 {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "imageId")
	}

	tx := s.db.WithContext(c.UserContext()).Delete(&models.Image{}, id)
	if tx.Error != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+tx.Error.Error())
	}

	if tx.RowsAffected == 0 {
		return handler.Error(c, fiber.StatusNotFound, "Image")
	}

	return handler.OK(c, "Deletion successful.", nil)
}

func (s *Service) categoryExists(c *fiber.Ctx, id uint) error {
	var count int64

	err := s.db.WithContext(c.UserContext()).
		Model(&models.ImageCategory{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	if count == 0 {
		return handler.Error(c, fiber.StatusNotFound, "Image category")
	}

	return nil
}
