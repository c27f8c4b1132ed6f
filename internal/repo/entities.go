package repo

import (
	"context"
	"database/sql"
	"errors"

	"rosterline/internal/domain"
)

const entityColumns = `id,kind,properties_json,created_at,updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (domain.Entity, error) {
	var en domain.Entity
	var raw string
	if err := row.Scan(&en.ID, &en.Kind, &raw, &en.CreatedAt, &en.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return en, ErrNotFound
		}
		return en, err
	}
	bag, err := decodeProps(raw)
	if err != nil {
		return en, err
	}
	en.Properties = bag
	return en, nil
}

func (r Repo) InsertEntity(ctx context.Context, en domain.Entity) error {
	raw, err := encodeProps(en.Properties)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO entities(`+entityColumns+`) VALUES (?,?,?,?,?)`,
		en.ID, en.Kind, raw, en.CreatedAt, en.UpdatedAt)
	return err
}

func (r Repo) UpdateEntity(ctx context.Context, en domain.Entity) error {
	raw, err := encodeProps(en.Properties)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE entities SET properties_json=?, updated_at=? WHERE id=?`,
		raw, en.UpdatedAt, en.ID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r Repo) GetEntity(ctx context.Context, id string) (domain.Entity, error) {
	return scanEntity(r.DB.QueryRowContext(ctx, `SELECT `+entityColumns+` FROM entities WHERE id=?`, id))
}

type EntityFilters struct {
	Kind  string
	Limit int
}

func (r Repo) ListEntities(ctx context.Context, f EntityFilters) ([]domain.Entity, error) {
	var clauses []string
	var args []any
	if f.Kind != "" {
		clauses = append(clauses, "kind=?")
		args = append(args, f.Kind)
	}
	query := `SELECT ` + entityColumns + ` FROM entities` + whereClause(clauses) + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Entity
	for rows.Next() {
		en, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, en)
	}
	return res, rows.Err()
}

// DeleteEntity fails with a ReferenceError while participations point at it.
func (r Repo) DeleteEntity(ctx context.Context, id string) error {
	return deleteRow(ctx, r.DB, "entities", id)
}
