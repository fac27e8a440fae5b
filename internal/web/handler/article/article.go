// Package article provides the CRUD handlers for blog articles.
package article

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
	Resource = "article"
)

// Service provides CRUD operations for articles.
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

	api.Get("/articles", guard, s.List)
	api.Get("/article/:articleId", guard, s.Get)
	api.Post("/article", guard, s.Create)
	api.Patch("/article/:articleId", guard, s.Update)
	api.Delete("/article/:articleId", guard, s.Delete)
}

// articleRow is an article joined with its category display fields.
type articleRow struct {
	models.Article
	CategoryTitle  string `json:"category_title"`
	CategoryImgURL string `json:"category_img_url"`
}

func (s *Service) joined(c *fiber.Ctx) *gorm.DB {
	return s.db.WithContext(c.UserContext()).
		Model(&models.Article{}).
		Select("articles.*, categories.name AS category_title, categories.img_url AS category_img_url").
		Joins("JOIN categories ON categories.id = articles.category_id")
}

// List returns articles newest first with pagination.
func (s *Service) List(c *fiber.Ctx) error {
	page, pageSize := handler.Pagination(c)

	var total int64
	if err := s.db.WithContext(c.UserContext()).Model(&models.Article{}).Count(&total).Error; err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	var rows []articleRow

	err := s.joined(c).
		Order("articles.created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Scan(&rows).Error
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "Retrieval successful.", fiber.Map{
		"list":     rows,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// Get returns a single article with its category display fields.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("articleId")
	if err != nil || id < 1 {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "articleId")
	}

	var row articleRow

	tx := s.joined(c).Where("articles.id = ?", id).Scan(&row)
	if tx.Error != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+tx.Error.Error())
	}

	if tx.RowsAffected == 0 {
		return handler.Error(c, fiber.StatusNotFound, "Article")
	}

	return handler.OK(c, "Retrieval successful.", row)
}

type articlePayload struct {
	Title      string `json:"title" validate:"required,max=255"`
	CategoryID uint   `json:"category_id" validate:"required"`
	ImgURL     string `json:"img_url" validate:"max=512"`
	ImgSource  string `json:"img_source" validate:"max=255"`
	Content    string `json:"content" validate:"required"`
}

// Create inserts a new article after checking the category exists.
func (s *Service) Create(c *fiber.Ctx) error {
	payload := new(articlePayload)
	if err := c.BodyParser(payload); err != nil {
		return handler.Error(c, fiber.StatusUnsupportedMediaType, "")
	}

	if err := s.validator.Struct(payload); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, err.Error())
	}

	if err := s.categoryExists(c, payload.CategoryID); err != nil {
		return err
	}

	article := models.Article{
		Title:      payload.Title,
		CategoryID: payload.CategoryID,
		ImgURL:     payload.ImgURL,
		ImgSource:  payload.ImgSource,
		Content:    payload.Content,
	}

	if err := s.db.WithContext(c.UserContext()).Create(&article).Error; err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "New record created successfully.", fiber.Map{"article_id": article.ID})
}

// Update patches an existing article. Only provided fields change.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("articleId")
	if err != nil || id < 1 {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "articleId")
	}

	patch := map[string]any{}
	if err = c.BodyParser(&patch); err != nil {
		return handler.Error(c, fiber.StatusUnsupportedMediaType, "")
	}

	var article models.Article

	if err = s.db.WithContext(c.UserContext()).First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "Article")
		}

		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	updates := map[string]any{}

	for key, column := range map[string]string{
		"title":       "title",
		"img_url":     "img_url",
		"img_source":  "img_source",
		"content":     "content",
		"category_id": "category_id",
	} {
		if v, ok := patch[key]; ok {
			updates[column] = v
		}
	}

	if categoryID, ok := updates["category_id"]; ok {
		cid, ok := categoryID.(float64) // JSON numbers decode as float64
		if !ok || cid < 1 {
			return handler.Error(c, fiber.StatusUnprocessableEntity, "category_id")
		}

		if err = s.categoryExists(c, uint(cid)); err != nil {
			return err
		}
	}

	if len(updates) > 0 {
		if err = s.db.WithContext(c.UserContext()).Model(&article).Updates(updates).Error; err != nil {
			return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
		}
	}

	return handler.OK(c, "Modification successful.", nil)
}

// Delete removes an article.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("articleId")
	if err != nil || id < 1 {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "articleId")
	}

	tx := s.db.WithContext(c.UserContext()).Delete(&models.Article{}, id)
	if tx.Error != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+tx.Error.Error())
	}

	if tx.RowsAffected == 0 {
		return handler.Error(c, fiber.StatusNotFound, "Article")
	}

	return handler.OK(c, "Deletion successful.", nil)
}

func (s *Service) categoryExists(c *fiber.Ctx, id uint) error {
	var count int64

	err := s.db.WithContext(c.UserContext()).
		Model(&models.Category{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	if count == 0 {
		return handler.Error(c, fiber.StatusNotFound, "Category")
	}

	return nil
}
