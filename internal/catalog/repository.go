package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrPackageNotFound = errors.New("package not found")

type Repository interface {
	GetPackage(ctx context.Context, id uuid.UUID) (*Package, error)
	ListPackages(ctx context.Context, activeOnly bool) ([]Package, error)
	CreatePackage(ctx context.Context, pkg *Package) error
	UpdatePackage(ctx context.Context, pkg *Package) error
	DeletePackage(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// GetPackage loads a package with every nested collection the booking engine
// consumes (attractions, add-ons, rooms, promos, gift cards).
func (r *repository) GetPackage(ctx context.Context, id uuid.UUID) (*Package, error) {
	var pkg Package
	err := r.db.WithContext(ctx).
		Preload("Attractions", "active = ?", true).
		Preload("AddOns", "active = ?", true).
		Preload("Rooms", "active = ?", true).
		Preload("Promos").
		Preload("GiftCards").
		Where("id = ?", id).
		First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to load package %s: %w", id, err)
	}
	return &pkg, nil
}

func (r *repository) ListPackages(ctx context.Context, activeOnly bool) ([]Package, error) {
	var pkgs []Package
	q := r.db.WithContext(ctx).Order("name asc")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Find(&pkgs).Error; err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return pkgs, nil
}

func (r *repository) CreatePackage(ctx context.Context, pkg *Package) error {
	if err := r.db.WithContext(ctx).Create(pkg).Error; err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}
	return nil
}

func (r *repository) UpdatePackage(ctx context.Context, pkg *Package) error {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(pkg)
	if result.Error != nil {
		return fmt.Errorf("failed to update package %s: %w", pkg.ID, result.Error)
	}
	return nil
}

func (r *repository) DeletePackage(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Package{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete package %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPackageNotFound
	}
	return nil
}
