// Package wizard drives the open-a-shop onboarding flow: it keeps each
// user's wizard session, validates a step before anything is sent, submits
// the step to the marketplace API as a ledger-backed saga, and undoes the
// created resources when a session is abandoned.
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	apperrors "github.com/louisbranch/farmstand.market/internal/platform/errors"
	"github.com/louisbranch/farmstand.market/internal/platform/i18n/catalog"
	"github.com/louisbranch/farmstand.market/internal/platform/id"
	"github.com/louisbranch/farmstand.market/internal/platform/notice"
	"github.com/louisbranch/farmstand.market/internal/platform/otel"
	"github.com/louisbranch/farmstand.market/internal/platform/requestctx"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storage"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storeerror"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Deps are the collaborators a Service needs.
type Deps struct {
	Sessions storage.SessionStore
	Ledger   storage.LedgerStore
	API      API
	// Errors classifies submission failures and raises their toast and
	// auth redirect.
	Errors storeerror.Handler
	// Notifier receives success toasts; nil disables them.
	Notifier storeerror.Notifier
	Clock    func() time.Time
	NewID    func() (string, error)
}

// Service owns wizard sessions.
type Service struct {
	sessions storage.SessionStore
	ledger   storage.LedgerStore
	api      API
	errors   storeerror.Handler
	notifier storeerror.Notifier
	clock    func() time.Time
	newID    func() (string, error)
	tracer   trace.Tracer

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewService builds a Service from deps.
func NewService(deps Deps) (*Service, error) {
	if deps.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if deps.Ledger == nil {
		return nil, errors.New("ledger store is required")
	}
	if deps.API == nil {
		return nil, errors.New("marketplace api is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.NewID
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		sessions: deps.Sessions,
		ledger:   deps.Ledger,
		api:      deps.API,
		errors:   deps.Errors,
		notifier: deps.Notifier,
		clock:    clock,
		newID:    newID,
		tracer:   otel.Tracer("onboarding/wizard"),
		locks:    make(map[string]*sessionLock),
	}, nil
}

// lock serializes operations on one session and returns the unlock func.
func (s *Service) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}

func (s *Service) startSpan(ctx context.Context, name, sessionID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "wizard."+name, trace.WithAttributes(attribute.String("wizard.session_id", sessionID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Start opens a new session on the first step with an empty form.
func (s *Service) Start(ctx context.Context, userID string) (session storage.Session, err error) {
	if userID == "" {
		return storage.Session{}, apperrors.New(apperrors.CodeUnauthorized, "user id is required")
	}
	sessionID, err := s.newID()
	if err != nil {
		return storage.Session{}, fmt.Errorf("new session id: %w", err)
	}
	ctx, span := s.startSpan(ctx, "start", sessionID)
	defer func() { endSpan(span, err) }()

	now := s.clock().UTC()
	session = storage.Session{
		ID:          sessionID,
		UserID:      userID,
		CurrentStep: domain.StepStoreBasics,
		Phase:       domain.PhaseEditing,
		Form:        domain.NewFormState(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return storage.Session{}, fmt.Errorf("create session: %w", err)
	}
	log.Printf("wizard session started session=%s user=%s", sessionID, userID)
	return session, nil
}

// Get returns the user's session. Sessions owned by someone else are
// reported as missing.
func (s *Service) Get(ctx context.Context, userID, sessionID string) (storage.Session, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Session{}, sessionNotFound(sessionID)
		}
		return storage.Session{}, fmt.Errorf("get session: %w", err)
	}
	if session.UserID != userID {
		return storage.Session{}, sessionNotFound(sessionID)
	}
	return session, nil
}

// load reads a session under its lock. A session left submitting was
// interrupted before its outcome was saved; it goes back to editing and the
// ledger lets the next attempt pick up where it stopped.
func (s *Service) load(ctx context.Context, userID, sessionID string) (storage.Session, error) {
	session, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return storage.Session{}, err
	}
	if session.Phase == domain.PhaseSubmitting {
		log.Printf("wizard session recovered from interrupted submit session=%s step=%s", session.ID, session.CurrentStep)
		session.Phase = domain.PhaseEditing
	}
	return session, nil
}

// List returns the user's sessions, most recently updated first.
func (s *Service) List(ctx context.Context, userID string) ([]storage.Session, error) {
	sessions, err := s.sessions.ListSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// UpdateForm merges patch into the form slice of step. Only the current
// step and steps already passed can be edited, and only while editing.
func (s *Service) UpdateForm(ctx context.Context, userID, sessionID string, step domain.Step, patch json.RawMessage) (session storage.Session, err error) {
	ctx, span := s.startSpan(ctx, "update_form", sessionID)
	defer func() { endSpan(span, err) }()
	defer s.lock(sessionID)()

	session, err = s.load(ctx, userID, sessionID)
	if err != nil {
		return storage.Session{}, err
	}
	if err := editable(session, step); err != nil {
		return storage.Session{}, err
	}
	if step.Index() > session.CurrentStep.Index() {
		return storage.Session{}, outOfOrder(step, session.CurrentStep)
	}
	if err := applyPatch(&session.Form, step, patch); err != nil {
		return storage.Session{}, err
	}
	session.UpdatedAt = s.clock().UTC()
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return storage.Session{}, fmt.Errorf("update session: %w", err)
	}
	return session, nil
}

// Continue validates the current step and submits it. Validation failures
// return a *ValidationError and make no remote call. Remote failures are
// classified into a *storeerror.StoreError; whatever was created before the
// failure is kept and updated on the next attempt.
func (s *Service) Continue(ctx context.Context, userID, sessionID string, step domain.Step) (session storage.Session, err error) {
	ctx, span := s.startSpan(ctx, "continue", sessionID)
	span.SetAttributes(attribute.String("wizard.step", string(step)))
	defer func() { endSpan(span, err) }()
	defer s.lock(sessionID)()

	session, err = s.load(ctx, userID, sessionID)
	if err != nil {
		return storage.Session{}, err
	}
	if err := editable(session, step); err != nil {
		return storage.Session{}, err
	}
	if step != session.CurrentStep {
		return storage.Session{}, outOfOrder(step, session.CurrentStep)
	}
	if err := domain.ValidatePhaseTransition(session.Phase, domain.PhaseSubmitting); err != nil {
		return storage.Session{}, err
	}

	var invalid validation.Errors
	if step == domain.StepReview {
		invalid = validation.ValidateOpenShopForm(session.Form)
	} else {
		invalid = validation.ValidateStep(step, session.Form)
	}
	if invalid.Any() {
		return storage.Session{}, &ValidationError{Step: step, Errors: invalid}
	}

	session.Phase = domain.PhaseSubmitting
	session.UpdatedAt = s.clock().UTC()
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return storage.Session{}, fmt.Errorf("update session: %w", err)
	}

	runErr := s.submit(ctx, &session, step)
	if runErr != nil {
		classified := s.errors.Handle(ctx, runErr, storeerror.DefaultOptions("wizard."+string(step)))
		session.Phase = domain.PhaseEditing
		session.UpdatedAt = s.clock().UTC()
		// The form may carry a new store id or uploaded image ids even
		// when a later call failed.
		if err := s.sessions.UpdateSession(context.WithoutCancel(ctx), session); err != nil {
			return storage.Session{}, fmt.Errorf("update session after failed submit: %w", err)
		}
		return session, &classified
	}

	key := "wizard.step.saved"
	if next, ok := step.Next(); ok {
		session.CurrentStep = next
		session.Phase = domain.PhaseEditing
	} else {
		session.Phase = domain.PhaseCompleted
		key = "wizard.submitted"
	}
	session.UpdatedAt = s.clock().UTC()
	if err := s.sessions.UpdateSession(context.WithoutCancel(ctx), session); err != nil {
		return storage.Session{}, fmt.Errorf("update session: %w", err)
	}
	log.Printf("wizard step submitted session=%s step=%s store=%d phase=%s", session.ID, step, session.Form.StoreID, session.Phase)
	s.toast(ctx, key)
	return session, nil
}

func (s *Service) submit(ctx context.Context, session *storage.Session, step domain.Step) error {
	actions, err := submission{api: s.api, session: session}.actions(step)
	if err != nil {
		return err
	}
	return saga{ledger: s.ledger, sessionID: session.ID}.run(ctx, actions)
}

// Back moves to the previous step. The form is kept.
func (s *Service) Back(ctx context.Context, userID, sessionID string) (session storage.Session, err error) {
	ctx, span := s.startSpan(ctx, "back", sessionID)
	defer func() { endSpan(span, err) }()
	defer s.lock(sessionID)()

	session, err = s.load(ctx, userID, sessionID)
	if err != nil {
		return storage.Session{}, err
	}
	if session.Phase != domain.PhaseEditing {
		return storage.Session{}, phaseError(session.Phase)
	}
	previous, ok := session.CurrentStep.Previous()
	if !ok {
		return session, nil
	}
	session.CurrentStep = previous
	session.UpdatedAt = s.clock().UTC()
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return storage.Session{}, fmt.Errorf("update session: %w", err)
	}
	return session, nil
}

// Abandon discards a session. Resources created by an unfinished session
// are deleted newest first; if any deletion fails the session is kept so
// the caller can try again. A completed session's store is left alone.
func (s *Service) Abandon(ctx context.Context, userID, sessionID string) (err error) {
	ctx, span := s.startSpan(ctx, "abandon", sessionID)
	defer func() { endSpan(span, err) }()
	defer s.lock(sessionID)()

	session, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if session.Phase != domain.PhaseCompleted {
		if err := (saga{ledger: s.ledger, sessionID: sessionID}).compensate(ctx, undo(s.api)); err != nil {
			classified := s.errors.Handle(ctx, err, storeerror.DefaultOptions("wizard.abandon"))
			return &classified
		}
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	log.Printf("wizard session abandoned session=%s user=%s store=%d", sessionID, userID, session.Form.StoreID)
	if session.Phase != domain.PhaseCompleted {
		s.toast(ctx, "wizard.abandoned")
	}
	return nil
}

func (s *Service) toast(ctx context.Context, key string) {
	if s.notifier == nil {
		return
	}
	message, _ := catalog.Default().Message(requestctx.LocaleFromContext(ctx), key)
	s.notifier.Toast(ctx, notice.Success(key, message))
}

func editable(session storage.Session, step domain.Step) error {
	if _, err := domain.ParseStep(string(step)); err != nil {
		return err
	}
	if session.Phase != domain.PhaseEditing {
		return phaseError(session.Phase)
	}
	return nil
}

func phaseError(phase domain.Phase) error {
	if phase == domain.PhaseCompleted {
		return apperrors.New(apperrors.CodeWizardAlreadyCompleted, "wizard already completed")
	}
	return apperrors.New(apperrors.CodeWizardPhaseTransition, fmt.Sprintf("session is %s", phase))
}

func outOfOrder(step, current domain.Step) error {
	return apperrors.WithMetadata(apperrors.CodeWizardStepOutOfOrder,
		fmt.Sprintf("step %s is not available from %s", step, current),
		map[string]string{"Step": string(current)})
}
