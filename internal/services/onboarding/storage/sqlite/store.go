// Package sqlite provides a SQLite-backed onboarding storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/farmstand.market/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/marketapi"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storage"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists wizard sessions, the submission ledger and API
// credentials in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite onboarding store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := "file:" + cleanPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// CreateSession inserts a new wizard session.
func (s *Store) CreateSession(ctx context.Context, session storage.Session) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(session.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	formJSON, err := json.Marshal(session.Form)
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := session.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO wizard_sessions (id, user_id, current_step, phase, form_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		string(session.CurrentStep),
		string(session.Phase),
		string(formJSON),
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create wizard session: %w", err)
	}
	return nil
}

const sessionColumns = `id, user_id, current_step, phase, form_json, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (storage.Session, error) {
	var (
		session   storage.Session
		step      string
		phase     string
		formJSON  string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&session.ID, &session.UserID, &step, &phase, &formJSON, &createdAt, &updatedAt); err != nil {
		return storage.Session{}, err
	}
	if err := json.Unmarshal([]byte(formJSON), &session.Form); err != nil {
		return storage.Session{}, fmt.Errorf("decode form for session %s: %w", session.ID, err)
	}
	if session.Form.StoreHours == nil {
		session.Form.StoreHours = domain.DefaultStoreHours()
	}
	session.CurrentStep = domain.Step(step)
	session.Phase = domain.Phase(phase)
	session.CreatedAt = fromMillis(createdAt)
	session.UpdatedAt = fromMillis(updatedAt)
	return session, nil
}

// GetSession returns one session by id.
func (s *Store) GetSession(ctx context.Context, id string) (storage.Session, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Session{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM wizard_sessions WHERE id = ?`, strings.TrimSpace(id))
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Session{}, storage.ErrNotFound
		}
		return storage.Session{}, fmt.Errorf("get wizard session: %w", err)
	}
	return session, nil
}

// ListSessions returns a user's sessions, most recently updated first.
func (s *Store) ListSessions(ctx context.Context, userID string) ([]storage.Session, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+sessionColumns+`
		   FROM wizard_sessions
		  WHERE user_id = ?
		  ORDER BY updated_at DESC, id ASC`,
		strings.TrimSpace(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list wizard sessions: %w", err)
	}
	defer rows.Close()

	sessions := []storage.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list wizard sessions: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list wizard sessions: %w", err)
	}
	return sessions, nil
}

// UpdateSession overwrites a session's step, phase and form.
func (s *Store) UpdateSession(ctx context.Context, session storage.Session) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	formJSON, err := json.Marshal(session.Form)
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	updatedAt := session.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE wizard_sessions
		    SET current_step = ?, phase = ?, form_json = ?, updated_at = ?
		  WHERE id = ?`,
		string(session.CurrentStep),
		string(session.Phase),
		string(formJSON),
		toMillis(updatedAt),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("update wizard session: %w", err)
	}
	return requireAffected(result, "update wizard session")
}

// DeleteSession removes a session and its ledger entries.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete wizard session: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM submission_ledger WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete submission ledger: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM wizard_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete wizard session: %w", err)
	}
	if err := requireAffected(result, "delete wizard session"); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete wizard session: %w", err)
	}
	return nil
}

// DeleteStaleSessions removes sessions last updated before cutoff.
func (s *Store) DeleteStaleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prune: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM submission_ledger
		  WHERE session_id IN (SELECT id FROM wizard_sessions WHERE updated_at < ?)`,
		toMillis(cutoff),
	); err != nil {
		return 0, fmt.Errorf("prune submission ledger: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM wizard_sessions WHERE updated_at < ?`, toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune wizard sessions: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune wizard sessions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return removed, nil
}

// CountStaleSessions counts sessions DeleteStaleSessions would remove.
func (s *Store) CountStaleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var count int64
	if err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wizard_sessions WHERE updated_at < ?`, toMillis(cutoff),
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count stale sessions: %w", err)
	}
	return count, nil
}

// RecordResource inserts or replaces a ledger entry, keeping its original
// position in the session's creation order.
func (s *Store) RecordResource(ctx context.Context, entry storage.LedgerEntry) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if entry.SessionID == "" || entry.ActionKey == "" {
		return fmt.Errorf("session id and action key are required")
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO submission_ledger (session_id, action_key, resource_kind, store_id, resource_id, created_at, seq)
		 VALUES (?, ?, ?, ?, ?, ?,
		         (SELECT COALESCE(MAX(seq), 0) + 1 FROM submission_ledger WHERE session_id = ?))
		 ON CONFLICT (session_id, action_key) DO UPDATE SET
		   resource_kind = excluded.resource_kind,
		   store_id = excluded.store_id,
		   resource_id = excluded.resource_id`,
		entry.SessionID,
		entry.ActionKey,
		string(entry.Kind),
		int64(entry.StoreID),
		entry.ResourceID,
		toMillis(createdAt),
		entry.SessionID,
	)
	if err != nil {
		return fmt.Errorf("record submission resource: %w", err)
	}
	return nil
}

const ledgerColumns = `session_id, action_key, resource_kind, store_id, resource_id, created_at`

func scanLedgerEntry(row rowScanner) (storage.LedgerEntry, error) {
	var (
		entry     storage.LedgerEntry
		kind      string
		storeID   int64
		createdAt int64
	)
	if err := row.Scan(&entry.SessionID, &entry.ActionKey, &kind, &storeID, &entry.ResourceID, &createdAt); err != nil {
		return storage.LedgerEntry{}, err
	}
	entry.Kind = storage.ResourceKind(kind)
	entry.StoreID = domain.StoreID(storeID)
	entry.CreatedAt = fromMillis(createdAt)
	return entry, nil
}

// GetResource returns the ledger entry for (sessionID, actionKey).
func (s *Store) GetResource(ctx context.Context, sessionID, actionKey string) (storage.LedgerEntry, error) {
	if err := s.ready(ctx); err != nil {
		return storage.LedgerEntry{}, err
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+ledgerColumns+` FROM submission_ledger WHERE session_id = ? AND action_key = ?`,
		sessionID,
		actionKey,
	)
	entry, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.LedgerEntry{}, storage.ErrNotFound
		}
		return storage.LedgerEntry{}, fmt.Errorf("get submission resource: %w", err)
	}
	return entry, nil
}

// ListResources returns a session's ledger entries in creation order.
func (s *Store) ListResources(ctx context.Context, sessionID string) ([]storage.LedgerEntry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+ledgerColumns+` FROM submission_ledger WHERE session_id = ? ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list submission resources: %w", err)
	}
	defer rows.Close()

	entries := []storage.LedgerEntry{}
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list submission resources: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list submission resources: %w", err)
	}
	return entries, nil
}

// DeleteResource removes one ledger entry. Missing entries are not an error.
func (s *Store) DeleteResource(ctx context.Context, sessionID, actionKey string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM submission_ledger WHERE session_id = ? AND action_key = ?`,
		sessionID,
		actionKey,
	); err != nil {
		return fmt.Errorf("delete submission resource: %w", err)
	}
	return nil
}

// GetCredentials implements marketapi.CredentialStore.
func (s *Store) GetCredentials(ctx context.Context, userID string) (marketapi.Credentials, error) {
	if err := s.ready(ctx); err != nil {
		return marketapi.Credentials{}, err
	}
	var (
		creds     marketapi.Credentials
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT user_id, access_token, refresh_token, updated_at FROM credentials WHERE user_id = ?`,
		userID,
	).Scan(&creds.UserID, &creds.AccessToken, &creds.RefreshToken, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return marketapi.Credentials{}, marketapi.ErrNoCredentials
		}
		return marketapi.Credentials{}, fmt.Errorf("get credentials: %w", err)
	}
	creds.UpdatedAt = fromMillis(updatedAt)
	return creds, nil
}

// PutCredentials implements marketapi.CredentialStore.
func (s *Store) PutCredentials(ctx context.Context, creds marketapi.Credentials) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(creds.UserID) == "" || strings.TrimSpace(creds.AccessToken) == "" {
		return fmt.Errorf("user id and access token are required")
	}
	updatedAt := creds.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO credentials (user_id, access_token, refresh_token, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   access_token = excluded.access_token,
		   refresh_token = excluded.refresh_token,
		   updated_at = excluded.updated_at`,
		creds.UserID,
		creds.AccessToken,
		creds.RefreshToken,
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("put credentials: %w", err)
	}
	return nil
}

// DeleteCredentials implements marketapi.CredentialStore.
func (s *Store) DeleteCredentials(ctx context.Context, userID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM credentials WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}

func requireAffected(result sql.Result, action string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var (
	_ storage.SessionStore      = (*Store)(nil)
	_ storage.LedgerStore       = (*Store)(nil)
	_ marketapi.CredentialStore = (*Store)(nil)
)
