package daemon

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bloniea/blog-api/internal/auth"
	"github.com/bloniea/blog-api/internal/db/models"
)

// seededResources are the resources whose mutations are permission gated.
// Gating is opt-in: an endpoint without a matching permission row stays open
// to any authenticated caller.
var seededResources = []string{"article", "category", "role", "user", "image"} //nolint:gochecknoglobals

// seededMethods are the gated HTTP methods per resource.
var seededMethods = []string{"POST", "PATCH", "DELETE"} //nolint:gochecknoglobals

// Seed creates the super-admin role, the default admin account and the
// permission catalog on an empty database. Existing rows are left alone.
func Seed(db *gorm.DB) error {
	if err := seedAdmin(db); err != nil {
		return err
	}

	return seedPermissions(db)
}

func seedAdmin(db *gorm.DB) error {
	var count int64

	if err := db.Model(&models.Role{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count roles: %w", err)
	}

	if count > 0 {
		return nil
	}

	superAdmin := models.Role{
		Name:        "super-admin",
		Description: "Bypasses all permission checks",
		SuperAdmin:  true,
	}

	if err := db.Create(&superAdmin).Error; err != nil {
		return fmt.Errorf("failed to create super-admin role: %w", err)
	}

	admin := models.User{
		Username: "admin",
		Email:    "admin@localhost",
		Password: models.HashPassword("changeme"),
		Active:   true,
		RoleID:   superAdmin.ID,
	}

	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Warn().Msg("seeded default admin user with password 'changeme', change it now")

	return nil
}

func seedPermissions(db *gorm.DB) error {
	var count int64

	if err := db.Model(&models.Permission{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count permissions: %w", err)
	}

	if count > 0 {
		return nil
	}

	for _, resource := range seededResources {
		parent := models.Permission{
			Name:        resource,
			Description: "All " + resource + " mutations",
		}

		if err := db.Create(&parent).Error; err != nil {
			return fmt.Errorf("failed to create parent permission %q: %w", resource, err)
		}

		for _, method := range seededMethods {
			child := models.Permission{
				Name:        auth.PermissionKey(resource, method),
				Description: method + " on " + resource,
				ParentID:    &parent.ID,
			}

			if err := db.Create(&child).Error; err != nil {
				return fmt.Errorf("failed to create permission %q: %w", child.Name, err)
			}
		}
	}

	return nil
}
