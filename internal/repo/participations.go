package repo

import (
	"context"
	"database/sql"
	"errors"

	"rosterline/internal/domain"
	"rosterline/internal/temporal"
)

const participationColumns = `id,participant_id,event_id,participation_type,role,start_time,end_time,properties_json,created_at,updated_at`

func scanParticipation(row rowScanner) (domain.Participation, error) {
	var p domain.Participation
	var role, start, end sql.NullString
	var raw string
	if err := row.Scan(&p.ID, &p.ParticipantID, &p.EventID, &p.ParticipationType, &role, &start, &end, &raw, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, ErrNotFound
		}
		return p, err
	}
	if role.Valid {
		p.Role = role.String
	}
	var err error
	if p.StartTime, err = parseTime(start); err != nil {
		return p, err
	}
	if p.EndTime, err = parseTime(end); err != nil {
		return p, err
	}
	if p.Properties, err = decodeProps(raw); err != nil {
		return p, err
	}
	return p, nil
}

// InsertParticipation reports a taken triple as a duplicate ConflictError
// and a vanished entity or event as a ReferenceError.
func (r Repo) InsertParticipation(ctx context.Context, p domain.Participation) error {
	raw, err := encodeProps(p.Properties)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO participations(`+participationColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.ParticipantID, p.EventID, p.ParticipationType, nullable(p.Role), nullableTime(p.StartTime), nullableTime(p.EndTime), raw, p.CreatedAt, p.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case IsUniqueViolation(err):
		return &ConflictError{Reason: ReasonDuplicate, ParticipantID: p.ParticipantID, EventID: p.EventID, ParticipationType: p.ParticipationType}
	case IsForeignKeyViolation(err):
		if _, gerr := r.GetEntity(ctx, p.ParticipantID); errors.Is(gerr, ErrNotFound) {
			return &ReferenceError{Field: "participant_id", ID: p.ParticipantID, Err: errMissingTarget}
		}
		return &ReferenceError{Field: "event_id", ID: p.EventID, Err: errMissingTarget}
	}
	return err
}

// UpdateParticipation rewrites role, window and properties. The identifying
// triple is fixed at creation.
func (r Repo) UpdateParticipation(ctx context.Context, p domain.Participation) error {
	raw, err := encodeProps(p.Properties)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE participations SET role=?, start_time=?, end_time=?, properties_json=?, updated_at=? WHERE id=?`,
		nullable(p.Role), nullableTime(p.StartTime), nullableTime(p.EndTime), raw, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r Repo) GetParticipation(ctx context.Context, id string) (domain.Participation, error) {
	return scanParticipation(r.DB.QueryRowContext(ctx, `SELECT `+participationColumns+` FROM participations WHERE id=?`, id))
}

// FindParticipation looks up the participation holding a triple.
func (r Repo) FindParticipation(ctx context.Context, participantID, eventID, participationType string) (domain.Participation, error) {
	return scanParticipation(r.DB.QueryRowContext(ctx, `SELECT `+participationColumns+` FROM participations
WHERE participant_id=? AND event_id=? AND participation_type=?`, participantID, eventID, participationType))
}

type ParticipationFilters struct {
	ParticipantID string
	EventID       string
	Type          string
}

func (r Repo) ListParticipations(ctx context.Context, f ParticipationFilters) ([]domain.Participation, error) {
	var clauses []string
	var args []any
	if f.ParticipantID != "" {
		clauses = append(clauses, "participant_id=?")
		args = append(args, f.ParticipantID)
	}
	if f.EventID != "" {
		clauses = append(clauses, "event_id=?")
		args = append(args, f.EventID)
	}
	if f.Type != "" {
		clauses = append(clauses, "participation_type=?")
		args = append(args, f.Type)
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT `+participationColumns+` FROM participations`+whereClause(clauses)+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Participation
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) DeleteParticipation(ctx context.Context, id string) error {
	return deleteRow(ctx, r.DB, "participations", id)
}

// Occupancy is a stored participation together with the bounds and status
// of its event, which is what the overlap rule compares.
type Occupancy struct {
	ParticipationID string
	EventID         string
	EventStatus     string
	Own             temporal.Interval
	Event           temporal.Interval
}

// Window is the participation's own bound where set, else the event's.
func (o Occupancy) Window() temporal.Interval {
	return temporal.Effective(o.Own, o.Event)
}

// Occupancies lists the participations of participantID joined with their
// events. A non-empty participationType narrows the list to that type.
func (r Repo) Occupancies(ctx context.Context, participantID, participationType string) ([]Occupancy, error) {
	query := `SELECT p.id, p.event_id, e.status, p.start_time, p.end_time, e.start_time, e.end_time
FROM participations p JOIN events e ON e.id = p.event_id
WHERE p.participant_id=?`
	args := []any{participantID}
	if participationType != "" {
		query += ` AND p.participation_type=?`
		args = append(args, participationType)
	}
	rows, err := r.DB.QueryContext(ctx, query+` ORDER BY p.created_at, p.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Occupancy
	for rows.Next() {
		var o Occupancy
		var ps, pe, es, ee sql.NullString
		if err := rows.Scan(&o.ParticipationID, &o.EventID, &o.EventStatus, &ps, &pe, &es, &ee); err != nil {
			return nil, err
		}
		var perr error
		if o.Own.Start, perr = parseTime(ps); perr != nil {
			return nil, perr
		}
		if o.Own.End, perr = parseTime(pe); perr != nil {
			return nil, perr
		}
		if o.Event.Start, perr = parseTime(es); perr != nil {
			return nil, perr
		}
		if o.Event.End, perr = parseTime(ee); perr != nil {
			return nil, perr
		}
		res = append(res, o)
	}
	return res, rows.Err()
}
