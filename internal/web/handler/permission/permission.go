// Package permission provides the read-only permission listing. The catalog
// itself is maintained by seeding; roles reference it by id.
package permission

import (
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
	Resource = "permission"
)

// Service provides the permission listing.
type Service struct {
	cfg *config.Config
	db  *gorm.DB
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

	api.Get("/permissions", gate.Protect(Resource), s.List)
}

// Node is a permission with its children grouped below it. The hierarchy is
// display-only; authorization ignores it.
type Node struct {
	models.Permission
	Children []Node `json:"children,omitempty"`
}

// List returns the permission catalog as a tree grouped by parent_id.
func (s *Service) List(c *fiber.Ctx) error {
	var permissions []models.Permission

	err := s.db.WithContext(c.UserContext()).Order("id").Find(&permissions).Error
	if err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, " "+err.Error())
	}

	return handler.OK(c, "Retrieval successful.", Tree(permissions))
}

// Tree groups permissions under their parents. Rows whose parent id does not
// resolve stay at the top level.
func Tree(permissions []models.Permission) []Node {
	known := make(map[uint]bool, len(permissions))
	for _, p := range permissions {
		known[p.ID] = true
	}

	children := make(map[uint][]Node)
	roots := make([]Node, 0, len(permissions))

	for _, p := range permissions {
		if p.ParentID != nil && known[*p.ParentID] {
			children[*p.ParentID] = append(children[*p.ParentID], Node{Permission: p})
		} else {
			roots = append(roots, Node{Permission: p})
		}
	}

	for i := range roots {
		roots[i].Children = children[roots[i].ID]
	}

	return roots
}
