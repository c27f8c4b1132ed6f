// Package journal appends an informational record of each committed change.
// Entries are written in the mutation's transaction and are never replayed.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rosterline/internal/repo"
)

// Entry types.
const (
	EntityCreated        = "entity.created"
	EntityUpdated        = "entity.updated"
	EntityDeleted        = "entity.deleted"
	EventKindCreated     = "event_kind.created"
	EventCreated         = "event.created"
	EventUpdated         = "event.updated"
	EventDeleted         = "event.deleted"
	ParticipationCreated = "participation.created"
	ParticipationUpdated = "participation.updated"
	ParticipationDeleted = "participation.deleted"
)

type Writer struct {
	Now func() time.Time
}

type Payload map[string]any

func (w Writer) Append(ctx context.Context, q repo.Querier, entryType, recordKind, recordID string, payload Payload) error {
	now := w.Now
	if now == nil {
		now = time.Now
	}
	ts := now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = Payload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal journal payload: %w", err)
	}
	_, err = q.ExecContext(ctx, `INSERT INTO journal(ts,type,record_kind,record_id,payload_json) VALUES (?,?,?,?,?)`,
		ts, entryType, recordKind, recordID, string(data))
	if err != nil {
		return fmt.Errorf("append %s: %w", entryType, err)
	}
	return nil
}
