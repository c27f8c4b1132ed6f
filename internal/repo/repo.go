package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repo runs queries against DB. Use WithTx to run them inside a transaction;
// the pool holds one connection, so mixing the two deadlocks.
type Repo struct {
	DB Querier
}

func (r Repo) WithTx(tx *sql.Tx) Repo {
	return Repo{DB: tx}
}

var ErrNotFound = errors.New("not found")

const (
	ReasonDuplicate = "duplicate"
	ReasonOverlap   = "overlap"
)

// ConflictError reports a participation that collides with one already
// stored, either on the (participant, event, type) triple or in time.
type ConflictError struct {
	Reason            string
	ParticipantID     string
	EventID           string
	ParticipationType string
	// ConflictsWith is the id of the stored participation, when known.
	ConflictsWith string
}

func (e *ConflictError) Error() string {
	switch e.Reason {
	case ReasonOverlap:
		msg := fmt.Sprintf("participant %s already has an overlapping %s participation", e.ParticipantID, e.ParticipationType)
		if e.ConflictsWith != "" {
			msg += " (" + e.ConflictsWith + ")"
		}
		return msg
	default:
		return fmt.Sprintf("participant %s already holds %s on event %s", e.ParticipantID, e.ParticipationType, e.EventID)
	}
}

// ReferenceError reports a reference that the store rejected: a missing
// target on write, or a record still referenced on delete.
type ReferenceError struct {
	Field string
	ID    string
	Err   error
}

func (e *ReferenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Field, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: invalid reference", e.Field, e.ID)
}

func (e *ReferenceError) Unwrap() error { return e.Err }

var (
	errStillReferenced = errors.New("still referenced")
	errMissingTarget   = errors.New("target does not exist")
)

func sqliteCode(err error) (int, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return 0, false
	}
	return se.Code(), true
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY failure.
func IsUniqueViolation(err error) bool {
	code, ok := sqliteCode(err)
	if !ok {
		return false
	}
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), "UNIQUE")
}

// IsForeignKeyViolation reports whether err is a FOREIGN KEY failure.
func IsForeignKeyViolation(err error) bool {
	code, ok := sqliteCode(err)
	if !ok {
		return false
	}
	if code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), "FOREIGN KEY")
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil, fmt.Errorf("parse stored time %q: %w", v.String, err)
	}
	t = t.UTC()
	return &t, nil
}

func encodeProps(bag map[string]any) (string, error) {
	if bag == nil {
		bag = map[string]any{}
	}
	data, err := json.Marshal(bag)
	if err != nil {
		return "", fmt.Errorf("marshal properties: %w", err)
	}
	return string(data), nil
}

func decodeProps(raw string) (map[string]any, error) {
	bag := map[string]any{}
	if raw == "" {
		return bag, nil
	}
	if err := json.Unmarshal([]byte(raw), &bag); err != nil {
		return nil, fmt.Errorf("unmarshal properties: %w", err)
	}
	return bag, nil
}

func whereClause(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// deleteRow removes one row, turning a RESTRICT failure into a
// ReferenceError on the id.
func deleteRow(ctx context.Context, q Querier, table, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE id=?`, id)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return &ReferenceError{Field: "id", ID: id, Err: errStillReferenced}
		}
		return err
	}
	return checkAffected(res)
}
