package auth

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/bloniea/blog-api/internal/db/models"
)

// Store is the read contract the resolver requires from persistent storage.
// All three reads run at the store's own isolation level; the resolver holds
// no locks and tolerates stale-by-one-write results.
type Store interface {
	// FindRoleByID returns the role or ErrRoleNotFound.
	FindRoleByID(ctx context.Context, roleID uint) (*models.Role, error)

	// FindPermissionByName returns the permission row for the given
	// "<resource>_<METHOD>" key, or ErrPermissionNotFound when the key is
	// not gated at all.
	FindPermissionByName(ctx context.Context, name string) (*models.Permission, error)

	// RoleHasPermission reports whether the role is linked to the permission.
	RoleHasPermission(ctx context.Context, roleID, permissionID uint) (bool, error)
}

// GormStore implements Store on a gorm database handle.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by the given database.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// FindRoleByID implements Store.
func (s *GormStore) FindRoleByID(ctx context.Context, roleID uint) (*models.Role, error) {
	var role models.Role

	err := s.db.WithContext(ctx).First(&role, roleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}

		return nil, fmt.Errorf("failed to load role %d: %w", roleID, err)
	}

	return &role, nil
}

// FindPermissionByName implements Store. Name carries a unique index; if an
// unmigrated store holds duplicates the first row wins.
func (s *GormStore) FindPermissionByName(ctx context.Context, name string) (*models.Permission, error) {
	var permission models.Permission

	err := s.db.WithContext(ctx).Where("name = ?", name).First(&permission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionNotFound
		}

		return nil, fmt.Errorf("failed to load permission %q: %w", name, err)
	}

	return &permission, nil
}

// RoleHasPermission implements Store.
func (s *GormStore) RoleHasPermission(ctx context.Context, roleID, permissionID uint) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).
		Model(&models.RolePermission{}).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role %d permission %d: %w", roleID, permissionID, err)
	}

	return count > 0, nil
}
