package repo

import (
	"context"
	"database/sql"
	"fmt"

	"rosterline/internal/domain"
)

type JournalFilters struct {
	Type       string
	RecordKind string
	RecordID   string
	// Before pages backwards from an entry id.
	Before int64
	Limit  int
}

// LatestJournal returns entries newest first.
func (r Repo) LatestJournal(ctx context.Context, f JournalFilters) ([]domain.JournalEntry, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	var clauses []string
	var args []any
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.RecordKind != "" {
		clauses = append(clauses, "record_kind=?")
		args = append(args, f.RecordKind)
	}
	if f.RecordID != "" {
		clauses = append(clauses, "record_id=?")
		args = append(args, f.RecordID)
	}
	if f.Before > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, f.Before)
	}
	query := fmt.Sprintf(`SELECT id,ts,type,record_kind,record_id,payload_json FROM journal%s ORDER BY id DESC LIMIT ?`, whereClause(clauses))
	args = append(args, f.Limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.JournalEntry
	for rows.Next() {
		var e domain.JournalEntry
		var payload sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.RecordKind, &e.RecordID, &payload); err != nil {
			return nil, err
		}
		if payload.Valid {
			e.Payload = payload.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
