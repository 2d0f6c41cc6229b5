package storestate

import (
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storeerror"
)

// Reduce applies action to state and returns the next state. Unknown
// actions return state unchanged.
func Reduce(state State, action Action) State {
	next := state
	switch action.Type {
	case ActionSetStores:
		next.Stores = append([]domain.Store(nil), action.Stores...)
		if next.Stores == nil {
			next.Stores = []domain.Store{}
		}
		if _, ok := next.Store(next.SelectedStoreID); !ok {
			next.SelectedStoreID = 0
		}
		next.IsLoading = false

	case ActionAddStore:
		// An id already cached is replaced in place.
		next.Stores = append(make([]domain.Store, 0, len(state.Stores)+1), state.Stores...)
		if index := indexOf(next.Stores, action.Store.ID); index >= 0 {
			next.Stores[index] = action.Store
		} else {
			next.Stores = append(next.Stores, action.Store)
		}
		next.StoreCreationError = nil

	case ActionUpdateStore:
		index := indexOf(state.Stores, action.Store.ID)
		if index < 0 {
			return state
		}
		next.Stores = append([]domain.Store(nil), state.Stores...)
		next.Stores[index] = action.Store

	case ActionDeleteStore:
		if indexOf(state.Stores, action.StoreID) >= 0 {
			next.Stores = make([]domain.Store, 0, len(state.Stores)-1)
			for _, store := range state.Stores {
				if store.ID != action.StoreID {
					next.Stores = append(next.Stores, store)
				}
			}
		}
		next.StoreAddresses = without(state.StoreAddresses, action.StoreID)
		next.StoreCategories = without(state.StoreCategories, action.StoreID)
		next.StoreImages = without(state.StoreImages, action.StoreID)
		next.StoreLoading = without(state.StoreLoading, action.StoreID)
		next.StoreErrors = without(state.StoreErrors, action.StoreID)
		if state.SelectedStoreID == action.StoreID {
			next.SelectedStoreID = 0
		}

	case ActionSelectStore:
		if action.StoreID == 0 {
			next.SelectedStoreID = 0
			break
		}
		if indexOf(state.Stores, action.StoreID) < 0 {
			return state
		}
		next.SelectedStoreID = action.StoreID

	case ActionSetStoreAddresses:
		next.StoreAddresses = with(state.StoreAddresses, action.StoreID, append([]domain.Address(nil), action.Addresses...))

	case ActionSetStoreCategories:
		next.StoreCategories = with(state.StoreCategories, action.StoreID, append([]domain.Category(nil), action.Categories...))

	case ActionSetStoreImages:
		next.StoreImages = with(state.StoreImages, action.StoreID, append([]domain.Image(nil), action.Images...))

	case ActionSetLoading:
		next.IsLoading = action.Loading

	case ActionSetStoreLoading:
		if action.Loading {
			next.StoreLoading = with(state.StoreLoading, action.StoreID, true)
		} else {
			next.StoreLoading = without(state.StoreLoading, action.StoreID)
		}

	case ActionSetError:
		next.Error = action.Err
		next.IsLoading = false

	case ActionSetStoreError:
		if action.Err == nil {
			next.StoreErrors = without(state.StoreErrors, action.StoreID)
		} else {
			next.StoreErrors = with(state.StoreErrors, action.StoreID, action.Err)
		}
		next.StoreLoading = without(state.StoreLoading, action.StoreID)

	case ActionSetStoreCreationError:
		next.StoreCreationError = action.Err

	case ActionClearErrors:
		next.Error = nil
		next.StoreCreationError = nil
		next.StoreErrors = map[domain.StoreID]*storeerror.StoreError{}

	default:
		return state
	}
	return next
}

func indexOf(stores []domain.Store, id domain.StoreID) int {
	for i, store := range stores {
		if store.ID == id {
			return i
		}
	}
	return -1
}

// with returns a copy of m with key set to value.
func with[V any](m map[domain.StoreID]V, key domain.StoreID, value V) map[domain.StoreID]V {
	out := make(map[domain.StoreID]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = value
	return out
}

// without returns m minus key, copying only when key is present.
func without[V any](m map[domain.StoreID]V, key domain.StoreID) map[domain.StoreID]V {
	if _, ok := m[key]; !ok {
		if m == nil {
			return map[domain.StoreID]V{}
		}
		return m
	}
	out := make(map[domain.StoreID]V, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}
