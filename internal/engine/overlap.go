package engine

import (
	"context"

	"rosterline/internal/domain"
	"rosterline/internal/repo"
	"rosterline/internal/temporal"
)

// checkOverlap runs after p has been written inside the caller's
// transaction. It compares p's effective window with every other stored
// participation of the same participant, and fails with an overlap
// ConflictError on the first collision so the caller rolls back. With
// overlap.scope set to type only participations of p's type are compared.
//
// Events whose status does not occupy time are ignored, as are events in the
// same ancestor chain as p's event.
func (e Engine) checkOverlap(ctx context.Context, r repo.Repo, p domain.Participation) error {
	cfg := e.config()
	scope := ""
	if cfg.TypeScoped() {
		scope = p.ParticipationType
	}
	occ, err := r.Occupancies(ctx, p.ParticipantID, scope)
	if err != nil {
		return err
	}
	var self *repo.Occupancy
	for i := range occ {
		if occ[i].ParticipationID == p.ID {
			self = &occ[i]
			break
		}
	}
	if self == nil {
		return nil
	}
	if !cfg.OccupiesTime(self.EventStatus) {
		return nil
	}
	window := self.Window()
	if !window.Known() {
		return nil
	}
	chains := map[string][]string{}
	for _, o := range occ {
		if o.ParticipationID == p.ID || !cfg.OccupiesTime(o.EventStatus) {
			continue
		}
		if !temporal.Overlaps(window, o.Window()) {
			continue
		}
		related, err := sameLineage(ctx, r, chains, p.EventID, o.EventID)
		if err != nil {
			return err
		}
		if related {
			continue
		}
		return &repo.ConflictError{
			Reason:            repo.ReasonOverlap,
			ParticipantID:     p.ParticipantID,
			EventID:           p.EventID,
			ParticipationType: p.ParticipationType,
			ConflictsWith:     o.ParticipationID,
		}
	}
	return nil
}

// sameLineage reports whether one event is the other or an ancestor of it.
func sameLineage(ctx context.Context, r repo.Repo, chains map[string][]string, a, b string) (bool, error) {
	if a == b {
		return true, nil
	}
	for _, pair := range [2][2]string{{a, b}, {b, a}} {
		id, other := pair[0], pair[1]
		chain, ok := chains[id]
		if !ok {
			var err error
			if chain, err = r.Ancestors(ctx, id); err != nil {
				return false, err
			}
			chains[id] = chain
		}
		for _, anc := range chain {
			if anc == other {
				return true, nil
			}
		}
	}
	return false, nil
}

// recheckEvent re-runs the overlap rule for every participation on an event
// after its window or status changed.
func (e Engine) recheckEvent(ctx context.Context, r repo.Repo, eventID string) error {
	parts, err := r.ListParticipations(ctx, repo.ParticipationFilters{EventID: eventID})
	if err != nil {
		return err
	}
	for _, p := range parts {
		if err := e.checkOverlap(ctx, r, p); err != nil {
			return err
		}
	}
	return nil
}
