package storestate

import (
	"context"

	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storeerror"
)

// StoreAPI is the subset of the marketplace client the loader needs.
type StoreAPI interface {
	ListStores(ctx context.Context) ([]domain.Store, error)
	GetStore(ctx context.Context, id domain.StoreID) (domain.Store, error)
	DeleteStore(ctx context.Context, id domain.StoreID) error
	ListAddresses(ctx context.Context, id domain.StoreID) ([]domain.Address, error)
	ListStoreCategories(ctx context.Context, id domain.StoreID) ([]domain.Category, error)
	ListImages(ctx context.Context, id domain.StoreID) ([]domain.Image, error)
}

// Loader fetches stores from the API into a container, dispatching loading
// and error actions around each call. Calls are issued one at a time.
type Loader struct {
	API    StoreAPI
	Errors storeerror.Handler
}

// LoadStores replaces the container's store list.
func (l Loader) LoadStores(ctx context.Context, c *Container) error {
	c.Dispatch(SetLoading(true))
	stores, err := l.API.ListStores(ctx)
	if err != nil {
		classified := l.Errors.Handle(ctx, err, storeerror.DefaultOptions("dashboard.stores"))
		c.Dispatch(SetError(&classified))
		return &classified
	}
	c.Dispatch(SetStores(stores))
	return nil
}

// LoadStoreDetails refreshes one store and its addresses, categories and
// images.
func (l Loader) LoadStoreDetails(ctx context.Context, c *Container, id domain.StoreID) error {
	c.Dispatch(SetStoreLoading(id, true))
	if err := l.loadStoreDetails(ctx, c, id); err != nil {
		classified := l.Errors.Handle(ctx, err, storeerror.DefaultOptions("dashboard.store"))
		c.Dispatch(SetStoreError(id, &classified))
		return &classified
	}
	c.Dispatch(SetStoreError(id, nil))
	return nil
}

func (l Loader) loadStoreDetails(ctx context.Context, c *Container, id domain.StoreID) error {
	store, err := l.API.GetStore(ctx, id)
	if err != nil {
		return err
	}
	c.Dispatch(AddStore(store))

	addresses, err := l.API.ListAddresses(ctx, id)
	if err != nil {
		return err
	}
	c.Dispatch(SetStoreAddresses(id, addresses))

	categories, err := l.API.ListStoreCategories(ctx, id)
	if err != nil {
		return err
	}
	c.Dispatch(SetStoreCategories(id, categories))

	images, err := l.API.ListImages(ctx, id)
	if err != nil {
		return err
	}
	c.Dispatch(SetStoreImages(id, images))
	return nil
}

// DeleteStore deletes the store remotely and then drops it from the cache.
func (l Loader) DeleteStore(ctx context.Context, c *Container, id domain.StoreID) error {
	c.Dispatch(SetStoreLoading(id, true))
	if err := l.API.DeleteStore(ctx, id); err != nil {
		classified := l.Errors.Handle(ctx, err, storeerror.DefaultOptions("dashboard.delete"))
		c.Dispatch(SetStoreError(id, &classified))
		return &classified
	}
	c.Dispatch(DeleteStore(id))
	return nil
}
