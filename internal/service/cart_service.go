package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/decorhaus/storefront_api/internal/cart"
	"github.com/decorhaus/storefront_api/internal/utils"
)

type cartStore interface {
	Load(ctx context.Context, token string) (cart.State, error)
	Save(ctx context.Context, token string, st cart.State) error
	Delete(ctx context.Context, token string) error
}

// CartView is a cart with its computed subtotal.
type CartView struct {
	Token    string          `json:"token"`
	Items    []cart.Line     `json:"items"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func newCartView(token string, st cart.State) *CartView {
	items := st.Items
	if items == nil {
		items = []cart.Line{}
	}
	return &CartView{Token: token, Items: items, Count: st.Count(), Subtotal: st.Subtotal()}
}

// CartService applies cart actions and persists the result per cart token.
type CartService struct {
	store   cartStore
	catalog catalogLookup
}

// NewCartService constructs a CartService.
func NewCartService(store cartStore, catalog catalogLookup) *CartService {
	return &CartService{store: store, catalog: catalog}
}

// Get returns the cart for token.
func (s *CartService) Get(ctx context.Context, token string) (*CartView, error) {
	st, err := s.store.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	return newCartView(token, st), nil
}

// Apply runs one action against the stored cart. Added lines take their title and
// prices from the catalog, not from the client.
func (s *CartService) Apply(ctx context.Context, token string, a cart.Action) (*CartView, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, utils.ErrInvalidInput)
	}
	if a.Type == cart.ActionAdd {
		if err := s.price(ctx, &a.Line); err != nil {
			return nil, err
		}
	}

	st, err := s.store.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	st = cart.Reduce(st, a)
	if err := s.store.Save(ctx, token, st); err != nil {
		return nil, err
	}
	return newCartView(token, st), nil
}

func (s *CartService) price(ctx context.Context, l *cart.Line) error {
	products, err := s.catalog.GetByIDs(ctx, []int{l.ProductID})
	if err != nil {
		return err
	}
	p, ok := products[l.ProductID]
	if !ok || !p.IsActive {
		return fmt.Errorf("product %d: %w", l.ProductID, utils.ErrNotFound)
	}
	l.Title = p.Title
	l.BasePrice = p.BasePrice
	l.VariantPrice = nil
	l.VariantName = nil

	if l.VariantID == nil {
		if p.HasVariants {
			return fmt.Errorf("a variant must be selected: %w", utils.ErrInvalidInput)
		}
		return nil
	}
	variants, err := s.catalog.VariantsByIDs(ctx, []int{*l.VariantID})
	if err != nil {
		return err
	}
	v, ok := variants[*l.VariantID]
	if !ok || v.ProductID != p.ID {
		return fmt.Errorf("variant %d: %w", *l.VariantID, utils.ErrNotFound)
	}
	price, name := v.Price, v.Name
	l.VariantPrice = &price
	l.VariantName = &name
	return nil
}

// Clear removes the stored cart.
func (s *CartService) Clear(ctx context.Context, token string) error {
	return s.store.Delete(ctx, token)
}
