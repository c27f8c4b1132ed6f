package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"rosterline/internal/domain"
	"rosterline/internal/journal"
	"rosterline/internal/kinds"
	"rosterline/internal/props"
	"rosterline/internal/repo"
	"rosterline/internal/temporal"
	"rosterline/internal/validation"
)

// applyParticipation folds role, window and declared extension fields of
// attrs into p.
func applyParticipation(p domain.Participation, attrs map[string]any) (domain.Participation, validation.FieldErrors) {
	var errs validation.FieldErrors
	if s, ok := stringAttr(attrs, "role", &errs); ok {
		p.Role = s
	}
	if t, ok := timeAttr(attrs, "start_time", &errs); ok {
		p.StartTime = t
	}
	if t, ok := timeAttr(attrs, "end_time", &errs); ok {
		p.EndTime = t
	}
	checkOrder(p.StartTime, p.EndTime, &errs)
	p.Properties = props.Merge(p.Properties, props.Project(attrs, kinds.ParticipationFields))
	return p, errs
}

// CreateParticipation binds an entity to an event. A missing entity or event
// is ErrNotFound; a taken triple or an overlapping window is a ConflictError.
func (e Engine) CreateParticipation(ctx context.Context, entityID, eventID, participationType string, attrs map[string]any) (domain.Participation, error) {
	p := domain.Participation{
		ParticipantID:     strings.TrimSpace(entityID),
		EventID:           strings.TrimSpace(eventID),
		ParticipationType: strings.TrimSpace(participationType),
		Properties:        map[string]any{},
	}
	var errs validation.FieldErrors
	if p.ParticipantID == "" {
		errs.Add("participant_id", "can't be blank")
	}
	if p.EventID == "" {
		errs.Add("event_id", "can't be blank")
	}
	if p.ParticipationType == "" {
		errs.Add("participation_type", "can't be blank")
	}
	p, attrErrs := applyParticipation(p, attrs)
	errs.Merge(attrErrs)
	if len(errs) > 0 {
		return domain.Participation{}, e.failed("create participation", errs)
	}

	err := e.inTx(ctx, func(r repo.Repo) error {
		if _, err := r.GetEntity(ctx, p.ParticipantID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("entity", p.ParticipantID)
			}
			return err
		}
		if _, err := r.GetEvent(ctx, p.EventID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("event", p.EventID)
			}
			return err
		}
		if held, err := r.FindParticipation(ctx, p.ParticipantID, p.EventID, p.ParticipationType); err == nil {
			return &repo.ConflictError{
				Reason:            repo.ReasonDuplicate,
				ParticipantID:     p.ParticipantID,
				EventID:           p.EventID,
				ParticipationType: p.ParticipationType,
				ConflictsWith:     held.ID,
			}
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		now := e.stamp()
		p.ID = uuid.NewString()
		p.CreatedAt, p.UpdatedAt = now, now
		if err := r.InsertParticipation(ctx, p); err != nil {
			return err
		}
		if err := e.checkOverlap(ctx, r, p); err != nil {
			return err
		}
		return e.journal().Append(ctx, r.DB, journal.ParticipationCreated, "participation", p.ID, participationPayload(p))
	})
	if err != nil {
		return domain.Participation{}, e.failed("create participation", err)
	}
	return p, nil
}

// UpdateParticipation changes role, window or extension fields. The
// participant, event and type are fixed.
func (e Engine) UpdateParticipation(ctx context.Context, id string, attrs map[string]any) (domain.Participation, error) {
	var out domain.Participation
	err := e.inTx(ctx, func(r repo.Repo) error {
		cur, err := r.GetParticipation(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("participation", id)
			}
			return err
		}
		p, errs := applyParticipation(cur, attrs)
		if len(errs) > 0 {
			return errs
		}
		p.UpdatedAt = e.stamp()
		if err := r.UpdateParticipation(ctx, p); err != nil {
			return err
		}
		if err := e.checkOverlap(ctx, r, p); err != nil {
			return err
		}
		out = p
		return e.journal().Append(ctx, r.DB, journal.ParticipationUpdated, "participation", p.ID, participationPayload(p))
	})
	if err != nil {
		return domain.Participation{}, e.failed("update participation", err)
	}
	return out, nil
}

func (e Engine) GetParticipation(ctx context.Context, id string) (domain.Participation, error) {
	p, err := e.Repo.GetParticipation(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return p, notFound("participation", id)
	}
	return p, err
}

// ListParticipations filters by participant, event or both.
func (e Engine) ListParticipations(ctx context.Context, participantID, eventID string) ([]domain.Participation, error) {
	return e.Repo.ListParticipations(ctx, repo.ParticipationFilters{ParticipantID: participantID, EventID: eventID})
}

// DeleteParticipation never touches the entity or event it links.
func (e Engine) DeleteParticipation(ctx context.Context, id string) error {
	err := e.inTx(ctx, func(r repo.Repo) error {
		if err := r.DeleteParticipation(ctx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("participation", id)
			}
			return err
		}
		return e.journal().Append(ctx, r.DB, journal.ParticipationDeleted, "participation", id, nil)
	})
	return e.failed("delete participation", err)
}

func participationPayload(p domain.Participation) journal.Payload {
	return journal.Payload{
		"participant_id":     p.ParticipantID,
		"event_id":           p.EventID,
		"participation_type": p.ParticipationType,
		"role":               p.Role,
		"start_time":         temporal.FormatPtr(p.StartTime),
		"end_time":           temporal.FormatPtr(p.EndTime),
	}
}
