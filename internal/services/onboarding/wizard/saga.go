package wizard

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storage"
)

// outcome is what a saga action reports back to the ledger.
type outcome struct {
	// StoreID and ResourceID identify the resource to record. A zero
	// ResourceID records nothing.
	StoreID    domain.StoreID
	ResourceID int64
	// Forget removes any recorded entry for the action.
	Forget bool
}

// action is one remote call in a step submission. Actions with a Key are
// ledger-backed: Do receives the entry recorded by an earlier attempt (nil on
// the first) so it can update the resource instead of creating it again.
type action struct {
	Key  string
	Kind storage.ResourceKind
	Do   func(ctx context.Context, prior *storage.LedgerEntry) (outcome, error)
}

// saga runs actions in order against one session's ledger.
type saga struct {
	ledger    storage.LedgerStore
	sessionID string
}

// run executes actions sequentially and stops at the first failure.
// Everything recorded before the failure stays in the ledger.
func (s saga) run(ctx context.Context, actions []action) error {
	for _, act := range actions {
		var prior *storage.LedgerEntry
		if act.Key != "" {
			entry, err := s.ledger.GetResource(ctx, s.sessionID, act.Key)
			switch {
			case err == nil:
				prior = &entry
			case !errors.Is(err, storage.ErrNotFound):
				return fmt.Errorf("load ledger entry %s: %w", act.Key, err)
			}
		}

		result, err := act.Do(ctx, prior)
		if err != nil {
			if act.Key != "" && result.Forget {
				if forgetErr := s.ledger.DeleteResource(ctx, s.sessionID, act.Key); forgetErr != nil {
					log.Printf("forget ledger entry failed session=%s action=%s err=%v", s.sessionID, act.Key, forgetErr)
				}
			}
			return err
		}
		if act.Key == "" {
			continue
		}

		switch {
		case result.Forget:
			if err := s.ledger.DeleteResource(ctx, s.sessionID, act.Key); err != nil {
				return fmt.Errorf("forget ledger entry %s: %w", act.Key, err)
			}
		case result.ResourceID != 0:
			if err := s.ledger.RecordResource(ctx, storage.LedgerEntry{
				SessionID:  s.sessionID,
				ActionKey:  act.Key,
				Kind:       act.Kind,
				StoreID:    result.StoreID,
				ResourceID: result.ResourceID,
			}); err != nil {
				return fmt.Errorf("record ledger entry %s: %w", act.Key, err)
			}
		}
	}
	return nil
}

// compensator undoes one recorded resource.
type compensator func(ctx context.Context, entry storage.LedgerEntry) error

// compensate undoes recorded resources newest first. Entries that were
// undone are removed from the ledger; failures are collected and the
// remaining entries are kept so a later attempt can finish the job.
func (s saga) compensate(ctx context.Context, undo compensator) error {
	entries, err := s.ledger.ListResources(ctx, s.sessionID)
	if err != nil {
		return fmt.Errorf("list ledger entries: %w", err)
	}

	var failures []error
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if err := undo(ctx, entry); err != nil {
			log.Printf("compensation failed session=%s action=%s kind=%s resource=%d err=%v",
				s.sessionID, entry.ActionKey, entry.Kind, entry.ResourceID, err)
			failures = append(failures, fmt.Errorf("undo %s: %w", entry.ActionKey, err))
			continue
		}
		if err := s.ledger.DeleteResource(ctx, s.sessionID, entry.ActionKey); err != nil {
			failures = append(failures, fmt.Errorf("forget ledger entry %s: %w", entry.ActionKey, err))
		}
	}
	return errors.Join(failures...)
}
