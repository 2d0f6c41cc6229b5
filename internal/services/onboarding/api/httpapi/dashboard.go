package httpapi

import (
	"context"
	"net/http"
	"strconv"

	apperrors "github.com/louisbranch/farmstand.market/internal/platform/errors"
	"github.com/louisbranch/farmstand.market/internal/platform/notice"
	"github.com/louisbranch/farmstand.market/internal/platform/requestctx"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storeerror"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storestate"
)

type storeDetailView struct {
	Store      domain.Store      `json:"store"`
	Selected   bool              `json:"selected"`
	Addresses  []domain.Address  `json:"addresses"`
	Categories []domain.Category `json:"categories"`
	Images     []domain.Image    `json:"images"`
}

func storeIDParam(r *http.Request) (domain.StoreID, error) {
	raw := r.PathValue("id")
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, apperrors.WithMetadata(apperrors.CodeValidation, "invalid store id", map[string]string{"StoreID": raw})
	}
	return domain.StoreID(value), nil
}

func (s *Server) container(r *http.Request) *storestate.Container {
	return s.stores.For(requestctx.UserIDFromContext(r.Context()))
}

func (s *Server) listStores(w http.ResponseWriter, r *http.Request) {
	container := s.container(r)
	if err := s.loader.LoadStores(r.Context(), container); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, http.StatusOK, container.State())
}

func (s *Server) getStore(w http.ResponseWriter, r *http.Request) {
	id, err := storeIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	container := s.container(r)
	if err := s.loader.LoadStoreDetails(r.Context(), container, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	state := container.State()
	store, _ := state.Store(id)
	s.writeData(w, r, http.StatusOK, storeDetailView{
		Store:      store,
		Selected:   state.SelectedStoreID == id,
		Addresses:  state.StoreAddresses[id],
		Categories: state.StoreCategories[id],
		Images:     state.StoreImages[id],
	})
}

// selectStore only selects stores already in the cache; list the stores
// first.
func (s *Server) selectStore(w http.ResponseWriter, r *http.Request) {
	id, err := storeIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	state := s.container(r).Dispatch(storestate.SelectStore(id))
	if state.SelectedStoreID != id {
		s.writeError(w, r, apperrors.WithMetadata(apperrors.CodeStoreNotFound, "store is not loaded",
			map[string]string{"StoreID": strconv.FormatInt(int64(id), 10)}))
		return
	}
	s.writeData(w, r, http.StatusOK, state)
}

func (s *Server) deleteStore(w http.ResponseWriter, r *http.Request) {
	id, err := storeIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	container := s.container(r)
	if err := s.loader.DeleteStore(r.Context(), container, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.toast(r.Context(), "dashboard.store.deleted")
	s.writeData(w, r, http.StatusOK, container.State())
}

func (s *Server) listPartnerships(w http.ResponseWriter, r *http.Request) {
	id, err := storeIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	partnerships, err := s.review.ListPartnerships(r.Context(), id)
	if err != nil {
		s.writeError(w, r, s.handle(r.Context(), err, "dashboard.partnerships"))
		return
	}
	if partnerships == nil {
		partnerships = []domain.Partnership{}
	}
	s.writeData(w, r, http.StatusOK, partnerships)
}

// handle classifies a remote failure with the usual toast and redirect.
func (s *Server) handle(ctx context.Context, err error, operation string) error {
	classified := s.errors.Handle(ctx, err, storeerror.DefaultOptions(operation))
	return &classified
}

func (s *Server) toast(ctx context.Context, key string) {
	message, _ := s.catalog.Message(requestctx.LocaleFromContext(ctx), key)
	notice.FromContext(ctx).Add(notice.Success(key, message))
}
