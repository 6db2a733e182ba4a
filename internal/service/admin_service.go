package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/decorhaus/storefront_api/internal/models"
	"github.com/decorhaus/storefront_api/internal/utils"
)

type profileStore interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	Ensure(ctx context.Context, id, email string) error
	ListPaged(ctx context.Context, search string, page, limit int) ([]models.Profile, int, error)
	UpdateName(ctx context.Context, id, fullName string) error
	GrantAdmin(ctx context.Context, userID, role string) error
	RevokeAdmin(ctx context.Context, userID string) error
	Count(ctx context.Context) (int, error)
}

// UserService serves customer profiles and back-office user management.
type UserService struct {
	profiles profileStore
}

// NewUserService constructs a UserService.
func NewUserService(profiles profileStore) *UserService {
	return &UserService{profiles: profiles}
}

// IsAdmin reports back-office membership.
func (s *UserService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return s.profiles.IsAdmin(ctx, userID)
}

// Me returns the caller's profile, creating an empty one on first access.
func (s *UserService) Me(ctx context.Context, userID, email string) (*models.Profile, error) {
	if err := s.profiles.Ensure(ctx, userID, email); err != nil {
		return nil, err
	}
	return s.profiles.GetByID(ctx, userID)
}

// UpdateName changes the caller's display name.
func (s *UserService) UpdateName(ctx context.Context, userID, fullName string) (*models.Profile, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" || len(fullName) > 120 {
		return nil, fmt.Errorf("name must be 1-120 characters: %w", utils.ErrInvalidInput)
	}
	if err := s.profiles.UpdateName(ctx, userID, fullName); err != nil {
		return nil, err
	}
	return s.profiles.GetByID(ctx, userID)
}

// List returns profiles for the back office.
func (s *UserService) List(ctx context.Context, search string, page, limit int) ([]models.Profile, int, error) {
	return s.profiles.ListPaged(ctx, strings.TrimSpace(search), page, limit)
}

// Get returns one profile.
func (s *UserService) Get(ctx context.Context, id string) (*models.Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

// SetAdmin grants or revokes back-office access. Admins cannot revoke themselves.
func (s *UserService) SetAdmin(ctx context.Context, actorID, userID string, admin bool) error {
	if !admin && actorID == userID {
		return fmt.Errorf("cannot revoke your own admin access: %w", utils.ErrInvalidInput)
	}
	if _, err := s.profiles.GetByID(ctx, userID); err != nil {
		return err
	}
	var err error
	if admin {
		err = s.profiles.GrantAdmin(ctx, userID, "admin")
	} else {
		err = s.profiles.RevokeAdmin(ctx, userID)
	}
	if err != nil {
		return err
	}
	log.Info().Str("actor_id", actorID).Str("user_id", userID).Bool("admin", admin).Msg("Admin membership changed")
	return nil
}

type dashboardOrders interface {
	CountByStatus(ctx context.Context) ([]models.OrderStatusCount, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
	Recent(ctx context.Context, limit int) ([]models.Order, error)
}

type dashboardProducts interface {
	CountActive(ctx context.Context) (int, error)
	LowStockVariants(ctx context.Context, threshold int) ([]models.ProductVariant, error)
}

type dashboardReviews interface {
	CountPending(ctx context.Context) (int, error)
}

type dashboardUsers interface {
	Count(ctx context.Context) (int, error)
}

// Dashboard summarises the store for the back-office home page.
type Dashboard struct {
	OrdersByStatus []models.OrderStatusCount `json:"ordersByStatus"`
	Revenue        decimal.Decimal           `json:"revenue"`
	RecentOrders   []models.Order            `json:"recentOrders"`
	ActiveProducts int                       `json:"activeProducts"`
	LowStock       []models.ProductVariant   `json:"lowStock"`
	PendingReviews int                       `json:"pendingReviews"`
	Customers      int                       `json:"customers"`
}

// DashboardService assembles the Dashboard from independent queries.
type DashboardService struct {
	orders   dashboardOrders
	products dashboardProducts
	reviews  dashboardReviews
	users    dashboardUsers
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(orders dashboardOrders, products dashboardProducts, reviews dashboardReviews, users dashboardUsers) *DashboardService {
	return &DashboardService{orders: orders, products: products, reviews: reviews, users: users}
}

// Get runs every dashboard query concurrently and fails if any of them fails.
func (s *DashboardService) Get(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		d.OrdersByStatus, err = s.orders.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Revenue, err = s.orders.Revenue(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.RecentOrders, err = s.orders.Recent(gctx, 5)
		return err
	})
	g.Go(func() (err error) {
		d.ActiveProducts, err = s.products.CountActive(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.LowStock, err = s.products.LowStockVariants(gctx, 5)
		return err
	})
	g.Go(func() (err error) {
		d.PendingReviews, err = s.reviews.CountPending(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Customers, err = s.users.Count(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
