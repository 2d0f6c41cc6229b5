package storestate

import (
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storeerror"
)

// ActionType names a state transition.
type ActionType string

const (
	ActionSetStores             ActionType = "SET_STORES"
	ActionAddStore              ActionType = "ADD_STORE"
	ActionUpdateStore           ActionType = "UPDATE_STORE"
	ActionDeleteStore           ActionType = "DELETE_STORE"
	ActionSelectStore           ActionType = "SELECT_STORE"
	ActionSetStoreAddresses     ActionType = "SET_STORE_ADDRESSES"
	ActionSetStoreCategories    ActionType = "SET_STORE_CATEGORIES"
	ActionSetStoreImages        ActionType = "SET_STORE_IMAGES"
	ActionSetLoading            ActionType = "SET_LOADING"
	ActionSetStoreLoading       ActionType = "SET_STORE_LOADING"
	ActionSetError              ActionType = "SET_ERROR"
	ActionSetStoreError         ActionType = "SET_STORE_ERROR"
	ActionSetStoreCreationError ActionType = "SET_STORE_CREATION_ERROR"
	ActionClearErrors           ActionType = "CLEAR_ERRORS"
)

// Action is one dispatched transition. Only the fields its Type reads are set;
// use the constructors below.
type Action struct {
	Type       ActionType
	StoreID    domain.StoreID
	Store      domain.Store
	Stores     []domain.Store
	Addresses  []domain.Address
	Categories []domain.Category
	Images     []domain.Image
	Loading    bool
	Err        *storeerror.StoreError
}

// SetStores replaces the cached store list.
func SetStores(stores []domain.Store) Action {
	return Action{Type: ActionSetStores, Stores: stores}
}

// AddStore caches a store, replacing any entry with the same id, and clears
// the store creation error.
func AddStore(store domain.Store) Action {
	return Action{Type: ActionAddStore, Store: store, StoreID: store.ID}
}

// UpdateStore replaces a cached store; unknown ids are ignored.
func UpdateStore(store domain.Store) Action {
	return Action{Type: ActionUpdateStore, Store: store, StoreID: store.ID}
}

// DeleteStore drops a store and everything cached for it.
func DeleteStore(id domain.StoreID) Action {
	return Action{Type: ActionDeleteStore, StoreID: id}
}

// SelectStore selects id; zero clears the selection.
func SelectStore(id domain.StoreID) Action {
	return Action{Type: ActionSelectStore, StoreID: id}
}

// SetStoreAddresses caches the addresses of store id.
func SetStoreAddresses(id domain.StoreID, addresses []domain.Address) Action {
	return Action{Type: ActionSetStoreAddresses, StoreID: id, Addresses: addresses}
}

// SetStoreCategories caches the categories of store id.
func SetStoreCategories(id domain.StoreID, categories []domain.Category) Action {
	return Action{Type: ActionSetStoreCategories, StoreID: id, Categories: categories}
}

// SetStoreImages caches the images of store id.
func SetStoreImages(id domain.StoreID, images []domain.Image) Action {
	return Action{Type: ActionSetStoreImages, StoreID: id, Images: images}
}

// SetLoading flags the store list as loading.
func SetLoading(loading bool) Action {
	return Action{Type: ActionSetLoading, Loading: loading}
}

// SetStoreLoading flags one store as loading.
func SetStoreLoading(id domain.StoreID, loading bool) Action {
	return Action{Type: ActionSetStoreLoading, StoreID: id, Loading: loading}
}

// SetError records the store list error and ends loading; nil clears it.
func SetError(err *storeerror.StoreError) Action {
	return Action{Type: ActionSetError, Err: err}
}

// SetStoreError records err for id; nil clears it.
func SetStoreError(id domain.StoreID, err *storeerror.StoreError) Action {
	return Action{Type: ActionSetStoreError, StoreID: id, Err: err}
}

// SetStoreCreationError records why creating a store failed.
func SetStoreCreationError(err *storeerror.StoreError) Action {
	return Action{Type: ActionSetStoreCreationError, Err: err}
}

// ClearErrors drops every recorded error.
func ClearErrors() Action {
	return Action{Type: ActionClearErrors}
}
