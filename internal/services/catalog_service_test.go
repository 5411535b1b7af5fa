package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pobrify/internal/core"
	"pobrify/internal/itemlookup"
	"pobrify/internal/ports"
	"pobrify/internal/store/memory"
)

type fakeLookup struct {
	preview itemlookup.Preview
	err     error
	scraped []string
}

func (f *fakeLookup) Item(_ context.Context, id string) (itemlookup.Response, error) {
	if id == "" {
		return itemlookup.Response{}, itemlookup.ErrInvalidID
	}
	return itemlookup.Response{Status: 200, JSON: true, Body: []byte(`{"id":"` + id + `"}`)}, nil
}

func (f *fakeLookup) Scrape(_ context.Context, url string) (itemlookup.Preview, error) {
	f.scraped = append(f.scraped, url)
	return f.preview, f.err
}

func TestCreateAccessoryFillsFromPreview(t *testing.T) {
	store := memory.New()
	lookup := &fakeLookup{preview: itemlookup.Preview{Title: "Casco", Image: "https://img/c.jpg", Price: money(45000)}}
	svc := NewCatalogService(store, store, lookup)

	a, err := svc.CreateAccessory(context.Background(), core.Accessory{URL: " https://shop/casco "})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "Casco", a.Title)
	assert.Equal(t, "https://img/c.jpg", a.Image)
	require.NotNil(t, a.Price)
	assert.Equal(t, core.Money(45000), *a.Price)
	assert.Equal(t, []string{"https://shop/casco"}, lookup.scraped)
}

func TestCreateAccessoryKeepsEnteredFields(t *testing.T) {
	store := memory.New()
	lookup := &fakeLookup{preview: itemlookup.Preview{Title: "Scraped", Price: money(1)}}
	svc := NewCatalogService(store, store, lookup)

	a, err := svc.CreateAccessory(context.Background(), core.Accessory{URL: "https://shop/x", Title: "Mine", Price: money(900)})
	require.NoError(t, err)
	assert.Equal(t, "Mine", a.Title)
	assert.Equal(t, core.Money(900), *a.Price)
}

func TestCreateAccessorySavesWhenScrapeFails(t *testing.T) {
	store := memory.New()
	svc := NewCatalogService(store, store, &fakeLookup{err: errors.New("boom")})

	a, err := svc.CreateAccessory(context.Background(), core.Accessory{URL: "https://shop/x"})
	require.NoError(t, err)
	assert.Equal(t, "https://shop/x", a.URL)

	list, err := svc.ListAccessories(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAccessoryValidationAndUpdate(t *testing.T) {
	store := memory.New()
	svc := NewCatalogService(store, store, nil)
	ctx := context.Background()

	_, err := svc.CreateAccessory(ctx, core.Accessory{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateAccessory(ctx, core.Accessory{ID: "missing", Title: "x"})
	assert.ErrorIs(t, err, ports.ErrNotFound)

	a, err := svc.CreateAccessory(ctx, core.Accessory{Title: "Guantes"})
	require.NoError(t, err)
	a.Bought = true
	updated, err := svc.UpdateAccessory(ctx, a)
	require.NoError(t, err)
	assert.True(t, updated.Bought)

	require.NoError(t, svc.DeleteAccessory(ctx, a.ID))
	assert.ErrorIs(t, svc.DeleteAccessory(ctx, a.ID), ports.ErrNotFound)
}

func TestKnownLocals(t *testing.T) {
	store := memory.New()
	svc := NewCatalogService(store, store, nil)
	ctx := context.Background()

	_, err := svc.PutKnownLocal(ctx, core.KnownLocal{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	k, err := svc.PutKnownLocal(ctx, core.KnownLocal{Name: " Pizzería Roma ", Favorite: true})
	require.NoError(t, err)
	assert.Equal(t, "Pizzería Roma", k.Name)

	list, err := svc.ListKnownLocals(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteKnownLocal(ctx, "Pizzería Roma"))
}

func TestItemAndPreviewWithoutLookup(t *testing.T) {
	store := memory.New()
	svc := NewCatalogService(store, store, nil)
	_, err := svc.Item(context.Background(), "MLA1")
	assert.Error(t, err)
	_, err = svc.Preview(context.Background(), "https://x")
	assert.Error(t, err)

	svc = NewCatalogService(store, store, &fakeLookup{})
	_, err = svc.Item(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	r, err := svc.Item(context.Background(), "MLA1")
	require.NoError(t, err)
	assert.True(t, r.JSON)
}
