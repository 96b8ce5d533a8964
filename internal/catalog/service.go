package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zappoint/internal/availability"
	"zappoint/internal/shared/constants"
	"zappoint/pkg/cache"
)

// Service interface defines the contract for catalog business logic
type Service interface {
	GetPackage(ctx context.Context, id uuid.UUID) (*Package, error)
	ListPackages(ctx context.Context, activeOnly bool) ([]Package, error)
	CreatePackage(ctx context.Context, pkg *Package) error
	UpdatePackage(ctx context.Context, pkg *Package) error
	DeletePackage(ctx context.Context, id uuid.UUID) error

	// EligibleDates evaluates the package's availability rule over the
	// horizon. An empty slice means the package has no bookable dates, which
	// is a valid answer, not an error.
	EligibleDates(ctx context.Context, id uuid.UUID, horizonDays int) ([]string, error)
}

type service struct {
	repo  Repository
	cache cache.Service
}

// NewService creates a new catalog service. The cache is optional; pass nil
// to compute everything on demand.
func NewService(repo Repository, cacheSvc cache.Service) Service {
	return &service{repo: repo, cache: cacheSvc}
}

func (s *service) GetPackage(ctx context.Context, id uuid.UUID) (*Package, error) {
	return s.repo.GetPackage(ctx, id)
}

func (s *service) ListPackages(ctx context.Context, activeOnly bool) ([]Package, error) {
	return s.repo.ListPackages(ctx, activeOnly)
}

func (s *service) CreatePackage(ctx context.Context, pkg *Package) error {
	if err := validatePackage(pkg); err != nil {
		return err
	}
	return s.repo.CreatePackage(ctx, pkg)
}

func (s *service) UpdatePackage(ctx context.Context, pkg *Package) error {
	if err := validatePackage(pkg); err != nil {
		return err
	}
	if err := s.repo.UpdatePackage(ctx, pkg); err != nil {
		return err
	}
	s.invalidateDates(ctx, pkg.ID)
	return nil
}

func (s *service) DeletePackage(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeletePackage(ctx, id); err != nil {
		return err
	}
	s.invalidateDates(ctx, id)
	return nil
}

func (s *service) EligibleDates(ctx context.Context, id uuid.UUID, horizonDays int) ([]string, error) {
	if horizonDays <= 0 {
		horizonDays = availability.DefaultHorizonDays
	}

	compute := func() ([]string, error) {
		pkg, err := s.repo.GetPackage(ctx, id)
		if err != nil {
			return nil, err
		}
		rule, err := pkg.Rule()
		if err != nil {
			return nil, err
		}
		dates := availability.EligibleDates(rule, horizonDays, time.Now())
		out := make([]string, 0, len(dates))
		for _, d := range dates {
			out = append(out, d.Format("2006-01-02"))
		}
		return out, nil
	}

	if s.cache == nil {
		return compute()
	}

	// Cache keyed per package+horizon+day: the result only shifts when the
	// reference date does, so a same-day TTL is safe.
	key := constants.BuildEligibleDatesKey(id.String(), horizonDays, time.Now().Format("2006-01-02"))
	var dates []string
	err := s.cache.GetOrSet(ctx, key, constants.TTL_ELIGIBLE_DATES, func() (interface{}, error) {
		computed, err := compute()
		return computed, err
	}, &dates)
	if err != nil {
		return nil, err
	}
	return dates, nil
}

func (s *service) invalidateDates(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	// best-effort, a stale hour of cached dates is acceptable on failure
	_ = s.cache.DeletePattern(ctx, constants.EligibleDatesPattern(id.String()))
}

func validatePackage(pkg *Package) error {
	if pkg.Name == "" {
		return fmt.Errorf("package name is required")
	}
	if pkg.Price < 0 {
		return fmt.Errorf("package price cannot be negative")
	}
	if pkg.MaxParticipants < 1 {
		return fmt.Errorf("package must include at least one participant")
	}
	if pkg.DurationValue <= 0 {
		return fmt.Errorf("package duration must be positive")
	}
	if pkg.SlotIntervalMinutes <= 0 {
		return fmt.Errorf("slot interval must be positive")
	}
	if _, err := pkg.Window(); err != nil {
		return err
	}
	if _, err := pkg.Rule(); err != nil {
		return err
	}
	return nil
}
