// Package storestate holds the dashboard's cached view of a user's stores.
//
// State is immutable from the caller's point of view: Reduce never modifies
// its input and returns a new State that shares untouched maps and slices
// with the old one. Container serializes dispatches and notifies subscribers.
package storestate

import (
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storeerror"
)

// State is the store cache. SelectedStoreID is zero when nothing is
// selected and otherwise always names a store in Stores.
type State struct {
	Stores             []domain.Store                            `json:"stores"`
	SelectedStoreID    domain.StoreID                            `json:"selectedStoreId,omitempty"`
	StoreAddresses     map[domain.StoreID][]domain.Address       `json:"storeAddresses"`
	StoreCategories    map[domain.StoreID][]domain.Category      `json:"storeCategories"`
	StoreImages        map[domain.StoreID][]domain.Image         `json:"storeImages"`
	StoreLoading       map[domain.StoreID]bool                   `json:"storeLoading"`
	StoreErrors        map[domain.StoreID]*storeerror.StoreError `json:"storeErrors"`
	IsLoading          bool                                      `json:"isLoading"`
	Error              *storeerror.StoreError                    `json:"error"`
	StoreCreationError *storeerror.StoreError                    `json:"storeCreationError"`
}

// Initial returns an empty state with non-nil maps.
func Initial() State {
	return State{
		Stores:          []domain.Store{},
		StoreAddresses:  map[domain.StoreID][]domain.Address{},
		StoreCategories: map[domain.StoreID][]domain.Category{},
		StoreImages:     map[domain.StoreID][]domain.Image{},
		StoreLoading:    map[domain.StoreID]bool{},
		StoreErrors:     map[domain.StoreID]*storeerror.StoreError{},
	}
}

// Store returns the cached store with id.
func (s State) Store(id domain.StoreID) (domain.Store, bool) {
	for _, store := range s.Stores {
		if store.ID == id {
			return store, true
		}
	}
	return domain.Store{}, false
}

// SelectedStore returns the selected store, if any.
func (s State) SelectedStore() (domain.Store, bool) {
	if s.SelectedStoreID == 0 {
		return domain.Store{}, false
	}
	return s.Store(s.SelectedStoreID)
}
