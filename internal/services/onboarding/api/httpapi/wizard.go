package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	apperrors "github.com/louisbranch/farmstand.market/internal/platform/errors"
	"github.com/louisbranch/farmstand.market/internal/platform/requestctx"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storage"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storeerror"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storestate"
)

type sessionView struct {
	ID          string           `json:"id"`
	CurrentStep domain.Step      `json:"currentStep"`
	Phase       domain.Phase     `json:"phase"`
	Steps       []domain.Step    `json:"steps"`
	Form        domain.FormState `json:"form"`
	StoreID     domain.StoreID   `json:"storeId,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// newSessionView renders a session without the raw bytes of pending
// uploads; clients already hold them.
func newSessionView(session storage.Session) sessionView {
	form := session.Form
	form.Branding.Logo = withoutData(form.Branding.Logo)
	form.Branding.Banner = withoutData(form.Branding.Banner)
	return sessionView{
		ID:          session.ID,
		CurrentStep: session.CurrentStep,
		Phase:       session.Phase,
		Steps:       domain.Steps,
		Form:        form,
		StoreID:     session.Form.StoreID,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
	}
}

func withoutData(file *domain.FileRef) *domain.FileRef {
	if file == nil {
		return nil
	}
	copied := *file
	copied.Data = nil
	return &copied
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.wizard.Start(r.Context(), requestctx.UserIDFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, http.StatusCreated, newSessionView(session))
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.wizard.List(r.Context(), requestctx.UserIDFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]sessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, newSessionView(session))
	}
	s.writeData(w, r, http.StatusOK, views)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.wizard.Get(r.Context(), requestctx.UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, http.StatusOK, newSessionView(session))
}

func (s *Server) updateStep(w http.ResponseWriter, r *http.Request) {
	step, err := domain.ParseStep(r.PathValue("step"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	patch, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, apperrors.Wrap(apperrors.CodeValidation, "read request body", err))
		return
	}
	if len(patch) > 0 && !json.Valid(patch) {
		s.writeError(w, r, apperrors.New(apperrors.CodeValidation, "request body is not valid JSON"))
		return
	}
	session, err := s.wizard.UpdateForm(r.Context(), requestctx.UserIDFromContext(r.Context()), r.PathValue("id"), step, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, http.StatusOK, newSessionView(session))
}

// continueStep submits a step. The dashboard cache learns about the store
// as soon as the first step creates it.
func (s *Server) continueStep(w http.ResponseWriter, r *http.Request) {
	step, err := domain.ParseStep(r.PathValue("step"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	userID := requestctx.UserIDFromContext(ctx)
	session, err := s.wizard.Continue(ctx, userID, r.PathValue("id"), step)
	switch {
	case step == domain.StepStoreBasics:
		s.recordStoreCreation(userID, session, err)
	case step == domain.StepReview && err == nil:
		s.markSubmitted(userID, session.Form.StoreID)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, http.StatusOK, newSessionView(session))
}

func (s *Server) recordStoreCreation(userID string, session storage.Session, err error) {
	container := s.stores.For(userID)
	var storeErr *storeerror.StoreError
	if errors.As(err, &storeErr) {
		container.Dispatch(storestate.SetStoreCreationError(storeErr))
		return
	}
	if err != nil || session.Form.StoreID == 0 {
		return
	}
	store := domain.Store{
		ID:     session.Form.StoreID,
		Name:   session.Form.StoreBasics.StoreName,
		Status: domain.StoreStatusDraft,
	}
	if cached, ok := container.State().Store(store.ID); ok {
		cached.Name = store.Name
		container.Dispatch(storestate.UpdateStore(cached))
		return
	}
	container.Dispatch(storestate.AddStore(store))
}

func (s *Server) markSubmitted(userID string, id domain.StoreID) {
	container := s.stores.For(userID)
	if store, ok := container.State().Store(id); ok {
		store.Status = domain.StoreStatusPendingReview
		container.Dispatch(storestate.UpdateStore(store))
	}
}

func (s *Server) back(w http.ResponseWriter, r *http.Request) {
	session, err := s.wizard.Back(r.Context(), requestctx.UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, http.StatusOK, newSessionView(session))
}

func (s *Server) abandon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestctx.UserIDFromContext(ctx)
	sessionID := r.PathValue("id")
	session, err := s.wizard.Get(ctx, userID, sessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.wizard.Abandon(ctx, userID, sessionID); err != nil {
		s.writeError(w, r, err)
		return
	}
	if session.Phase != domain.PhaseCompleted && session.Form.StoreID != 0 {
		s.stores.For(userID).Dispatch(storestate.DeleteStore(session.Form.StoreID))
	}
	s.writeData(w, r, http.StatusOK, map[string]string{"id": sessionID})
}
