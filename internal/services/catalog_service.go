package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"pobrify/internal/core"
	"pobrify/internal/itemlookup"
	"pobrify/internal/ports"
)

// Lookup is the marketplace side of the catalog.
type Lookup interface {
	Item(ctx context.Context, id string) (itemlookup.Response, error)
	Scrape(ctx context.Context, url string) (itemlookup.Preview, error)
}

// CatalogService manages the accessory wishlist and known locals.
type CatalogService struct {
	accessories ports.AccessoryStore
	locals      ports.KnownLocalStore
	lookup      Lookup
}

func NewCatalogService(accessories ports.AccessoryStore, locals ports.KnownLocalStore, lookup Lookup) *CatalogService {
	return &CatalogService{accessories: accessories, locals: locals, lookup: lookup}
}

func (s *CatalogService) ListAccessories(ctx context.Context) ([]core.Accessory, error) {
	list, err := s.accessories.ListAccessories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accessories: %w", err)
	}
	return list, nil
}

// CreateAccessory stores a new accessory. Missing title, image or price
// are filled from the product page when a URL is given; a failed scrape
// is logged and the accessory is saved as entered.
func (s *CatalogService) CreateAccessory(ctx context.Context, a core.Accessory) (core.Accessory, error) {
	a.ID = ""
	a.URL = strings.TrimSpace(a.URL)
	a.Title = strings.TrimSpace(a.Title)
	if a.URL != "" && s.lookup != nil && (a.Title == "" || a.Image == "" || a.Price == nil) {
		p, err := s.lookup.Scrape(ctx, a.URL)
		if err != nil {
			slog.WarnContext(ctx, "Accessory preview failed", "url", a.URL, "error", err)
		} else {
			fillFromPreview(&a, p)
		}
	}
	return s.saveAccessory(ctx, a)
}

func (s *CatalogService) UpdateAccessory(ctx context.Context, a core.Accessory) (core.Accessory, error) {
	list, err := s.accessories.ListAccessories(ctx)
	if err != nil {
		return core.Accessory{}, fmt.Errorf("list accessories: %w", err)
	}
	found := false
	for _, x := range list {
		if x.ID == a.ID {
			found = true
			break
		}
	}
	if !found {
		return core.Accessory{}, ports.ErrNotFound
	}
	a.URL = strings.TrimSpace(a.URL)
	a.Title = strings.TrimSpace(a.Title)
	return s.saveAccessory(ctx, a)
}

func (s *CatalogService) saveAccessory(ctx context.Context, a core.Accessory) (core.Accessory, error) {
	if err := a.Validate(); err != nil {
		return core.Accessory{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	saved, err := s.accessories.SaveAccessory(ctx, a)
	if err != nil {
		return core.Accessory{}, fmt.Errorf("save accessory: %w", err)
	}
	return saved, nil
}

func (s *CatalogService) DeleteAccessory(ctx context.Context, id string) error {
	if err := s.accessories.DeleteAccessory(ctx, id); err != nil {
		return fmt.Errorf("delete accessory %s: %w", id, err)
	}
	return nil
}

func fillFromPreview(a *core.Accessory, p itemlookup.Preview) {
	if a.Title == "" {
		a.Title = p.Title
	}
	if a.Image == "" {
		a.Image = p.Image
	}
	if a.Description == "" {
		a.Description = p.Description
	}
	if a.Price == nil {
		a.Price = p.Price
	}
}

// Preview scrapes url without saving anything.
func (s *CatalogService) Preview(ctx context.Context, url string) (itemlookup.Preview, error) {
	if s.lookup == nil {
		return itemlookup.Preview{}, ErrUnavailable
	}
	p, err := s.lookup.Scrape(ctx, url)
	if errors.Is(err, itemlookup.ErrInvalidURL) {
		return itemlookup.Preview{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return p, err
}

// Item proxies a marketplace item lookup.
func (s *CatalogService) Item(ctx context.Context, id string) (itemlookup.Response, error) {
	if s.lookup == nil {
		return itemlookup.Response{}, ErrUnavailable
	}
	r, err := s.lookup.Item(ctx, id)
	if errors.Is(err, itemlookup.ErrInvalidID) {
		return itemlookup.Response{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return r, err
}

func (s *CatalogService) ListKnownLocals(ctx context.Context) ([]core.KnownLocal, error) {
	list, err := s.locals.ListKnownLocals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list known locals: %w", err)
	}
	return list, nil
}

// PutKnownLocal upserts by name.
func (s *CatalogService) PutKnownLocal(ctx context.Context, k core.KnownLocal) (core.KnownLocal, error) {
	k.Name = strings.TrimSpace(k.Name)
	k.LogoURL = strings.TrimSpace(k.LogoURL)
	if err := k.Validate(); err != nil {
		return core.KnownLocal{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	saved, err := s.locals.PutKnownLocal(ctx, k)
	if err != nil {
		return core.KnownLocal{}, fmt.Errorf("save known local: %w", err)
	}
	return saved, nil
}

func (s *CatalogService) DeleteKnownLocal(ctx context.Context, name string) error {
	if err := s.locals.DeleteKnownLocal(ctx, strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("delete known local %s: %w", name, err)
	}
	return nil
}
