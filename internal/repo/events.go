package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rosterline/internal/domain"
)

func (r Repo) InsertEventKind(ctx context.Context, k domain.EventKind) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO event_kinds(id,name,created_at) VALUES (?,?,?)`, k.ID, k.Name, k.CreatedAt)
	return err
}

func scanEventKind(row rowScanner) (domain.EventKind, error) {
	var k domain.EventKind
	err := row.Scan(&k.ID, &k.Name, &k.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return k, ErrNotFound
	}
	return k, err
}

func (r Repo) GetEventKind(ctx context.Context, id string) (domain.EventKind, error) {
	return scanEventKind(r.DB.QueryRowContext(ctx, `SELECT id,name,created_at FROM event_kinds WHERE id=?`, id))
}

// GetEventKindByName matches name exactly, case included.
func (r Repo) GetEventKindByName(ctx context.Context, name string) (domain.EventKind, error) {
	return scanEventKind(r.DB.QueryRowContext(ctx, `SELECT id,name,created_at FROM event_kinds WHERE name=?`, name))
}

func (r Repo) ListEventKinds(ctx context.Context) ([]domain.EventKind, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,created_at FROM event_kinds ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.EventKind
	for rows.Next() {
		k, err := scanEventKind(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, k)
	}
	return res, rows.Err()
}

const eventSelect = `SELECT e.id,e.kind_id,k.name,e.parent_id,e.start_time,e.end_time,e.status,e.properties_json,e.created_at,e.updated_at
FROM events e JOIN event_kinds k ON k.id = e.kind_id`

func scanEvent(row rowScanner) (domain.Event, error) {
	var ev domain.Event
	var parentID, start, end sql.NullString
	var raw string
	if err := row.Scan(&ev.ID, &ev.KindID, &ev.Kind, &parentID, &start, &end, &ev.Status, &raw, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ev, ErrNotFound
		}
		return ev, err
	}
	if parentID.Valid {
		ev.ParentID = &parentID.String
	}
	var err error
	if ev.StartTime, err = parseTime(start); err != nil {
		return ev, err
	}
	if ev.EndTime, err = parseTime(end); err != nil {
		return ev, err
	}
	if ev.Properties, err = decodeProps(raw); err != nil {
		return ev, err
	}
	return ev, nil
}

// eventWriteErr maps FK failures to a ReferenceError. SQLite does not say
// which key failed, so parent_id is blamed only when one was given and the
// kind still exists.
func (r Repo) eventWriteErr(ctx context.Context, ev domain.Event, err error) error {
	if !IsForeignKeyViolation(err) {
		return err
	}
	if ev.ParentID != nil {
		if _, kerr := r.GetEventKind(ctx, ev.KindID); kerr == nil {
			return &ReferenceError{Field: "parent_id", ID: *ev.ParentID, Err: errMissingTarget}
		}
	}
	return &ReferenceError{Field: "kind_id", ID: ev.KindID, Err: errMissingTarget}
}

func (r Repo) InsertEvent(ctx context.Context, ev domain.Event) error {
	raw, err := encodeProps(ev.Properties)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO events(id,kind_id,parent_id,start_time,end_time,status,properties_json,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		ev.ID, ev.KindID, nullableStringPtr(ev.ParentID), nullableTime(ev.StartTime), nullableTime(ev.EndTime), ev.Status, raw, ev.CreatedAt, ev.UpdatedAt)
	if err != nil {
		return r.eventWriteErr(ctx, ev, err)
	}
	return nil
}

// UpdateEvent rewrites every mutable column. kind_id is fixed at creation.
func (r Repo) UpdateEvent(ctx context.Context, ev domain.Event) error {
	raw, err := encodeProps(ev.Properties)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE events SET parent_id=?, start_time=?, end_time=?, status=?, properties_json=?, updated_at=? WHERE id=?`,
		nullableStringPtr(ev.ParentID), nullableTime(ev.StartTime), nullableTime(ev.EndTime), ev.Status, raw, ev.UpdatedAt, ev.ID)
	if err != nil {
		return r.eventWriteErr(ctx, ev, err)
	}
	return checkAffected(res)
}

func (r Repo) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	return scanEvent(r.DB.QueryRowContext(ctx, eventSelect+` WHERE e.id=?`, id))
}

type EventFilters struct {
	Kind     string
	Status   string
	ParentID string
	// RootsOnly restricts the list to events without a parent.
	RootsOnly bool
	Limit     int
}

func (r Repo) ListEvents(ctx context.Context, f EventFilters) ([]domain.Event, error) {
	var clauses []string
	var args []any
	if f.Kind != "" {
		clauses = append(clauses, "k.name=?")
		args = append(args, f.Kind)
	}
	if f.Status != "" {
		clauses = append(clauses, "e.status=?")
		args = append(args, f.Status)
	}
	if f.ParentID != "" {
		clauses = append(clauses, "e.parent_id=?")
		args = append(args, f.ParentID)
	} else if f.RootsOnly {
		clauses = append(clauses, "e.parent_id IS NULL")
	}
	query := eventSelect + whereClause(clauses) + ` ORDER BY e.start_time IS NULL, e.start_time, e.created_at, e.id`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, ev)
	}
	return res, rows.Err()
}

// Ancestors returns the parent chain of id, nearest first, excluding id.
func (r Repo) Ancestors(ctx context.Context, id string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `WITH RECURSIVE chain(id, parent_id, depth) AS (
  SELECT id, parent_id, 0 FROM events WHERE id=?
  UNION ALL
  SELECT e.id, e.parent_id, chain.depth+1 FROM events e JOIN chain ON e.id = chain.parent_id
  WHERE chain.depth < 1000
)
SELECT id FROM chain WHERE depth > 0 ORDER BY depth`, id)
	if err != nil {
		return nil, fmt.Errorf("ancestors of %s: %w", id, err)
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// DeleteEvent fails with a ReferenceError while participations or child
// events point at it.
func (r Repo) DeleteEvent(ctx context.Context, id string) error {
	return deleteRow(ctx, r.DB, "events", id)
}
