package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"rosterline/internal/domain"
	"rosterline/internal/journal"
	"rosterline/internal/kinds"
	"rosterline/internal/repo"
	"rosterline/internal/temporal"
	"rosterline/internal/validation"
)

// CreateEventKind registers a dispatch name. Names are case-sensitive.
func (e Engine) CreateEventKind(ctx context.Context, name string) (domain.EventKind, error) {
	k := domain.EventKind{ID: uuid.NewString(), Name: strings.TrimSpace(name), CreatedAt: e.stamp()}
	if k.Name == "" {
		var errs validation.FieldErrors
		errs.Add("name", "can't be blank")
		return domain.EventKind{}, errs
	}
	err := e.inTx(ctx, func(r repo.Repo) error {
		if _, err := r.GetEventKindByName(ctx, k.Name); err == nil {
			var errs validation.FieldErrors
			errs.Add("name", "has already been taken")
			return errs
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		if err := r.InsertEventKind(ctx, k); err != nil {
			return err
		}
		return e.journal().Append(ctx, r.DB, journal.EventKindCreated, "event_kind", k.ID, journal.Payload{"name": k.Name})
	})
	if err != nil {
		return domain.EventKind{}, e.failed("create event kind", err)
	}
	return k, nil
}

func (e Engine) ListEventKinds(ctx context.Context) ([]domain.EventKind, error) {
	return e.Repo.ListEventKinds(ctx)
}

// SeedEventKinds creates every listed kind that is not registered yet.
func (e Engine) SeedEventKinds(ctx context.Context, names []string) ([]domain.EventKind, error) {
	var created []domain.EventKind
	err := e.inTx(ctx, func(r repo.Repo) error {
		for _, name := range names {
			if _, err := r.GetEventKindByName(ctx, name); err == nil {
				continue
			} else if !errors.Is(err, repo.ErrNotFound) {
				return err
			}
			k := domain.EventKind{ID: uuid.NewString(), Name: name, CreatedAt: e.stamp()}
			if err := r.InsertEventKind(ctx, k); err != nil {
				return fmt.Errorf("seed event kind %s: %w", name, err)
			}
			if err := e.journal().Append(ctx, r.DB, journal.EventKindCreated, "event_kind", k.ID, journal.Payload{"name": k.Name, "seeded": true}); err != nil {
				return err
			}
			created = append(created, k)
		}
		return nil
	})
	return created, err
}

// buildEvent runs the event pipeline. base is the stored record on update
// and carries only the kind on create. Base invariants are checked against r
// in every mode; kind rules run through the resolved contract.
func buildEvent(ctx context.Context, r repo.Repo, base domain.Event, creating bool, attrs map[string]any, mode validation.Mode) (domain.Event, validation.FieldErrors, error) {
	var errs validation.FieldErrors
	ev := base

	if creating {
		k, ok, err := resolveKind(ctx, r, ev.Kind, ev.KindID)
		if err != nil {
			return ev, nil, err
		}
		switch {
		case ev.Kind == "" && ev.KindID == "":
			errs.Add("kind_id", "can't be blank")
		case !ok:
			errs.Add("kind_id", "does not exist")
		default:
			ev.KindID, ev.Kind = k.ID, k.Name
		}
	}

	if t, ok := timeAttr(attrs, "start_time", &errs); ok {
		ev.StartTime = t
	}
	if t, ok := timeAttr(attrs, "end_time", &errs); ok {
		ev.EndTime = t
	}
	if ev.StartTime == nil && !errs.Has("start_time") {
		errs.Add("start_time", "can't be blank")
	}
	checkOrder(ev.StartTime, ev.EndTime, &errs)

	if s, ok := stringAttr(attrs, "status", &errs); ok {
		ev.Status = s
	}
	if ev.Status == "" {
		ev.Status = domain.StatusDraft
	}
	if !domain.IsEventStatus(ev.Status) && !errs.Has("status") {
		errs.Add("status", "is not included in the list")
	}

	if s, ok := stringAttr(attrs, "parent_id", &errs); ok {
		if s == "" {
			ev.ParentID = nil
		} else {
			ev.ParentID = &s
		}
	}
	if ev.ParentID != nil && !errs.Has("parent_id") {
		if err := checkParent(ctx, r, ev.ID, *ev.ParentID, &errs); err != nil {
			return ev, nil, err
		}
	}

	if ev.Properties == nil {
		ev.Properties = map[string]any{}
	}
	contract := kinds.ResolveEvent(ev.Kind)
	errs.Merge(contract.Validate(&ev, attrs, mode))
	return ev, errs, nil
}

func resolveKind(ctx context.Context, r repo.Repo, name, id string) (domain.EventKind, bool, error) {
	var k domain.EventKind
	var err error
	switch {
	case name != "":
		k, err = r.GetEventKindByName(ctx, name)
	case id != "":
		k, err = r.GetEventKind(ctx, id)
	default:
		return k, false, nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return k, false, nil
	}
	return k, err == nil, err
}

// checkParent keeps the event hierarchy a tree: the parent exists, is not
// the event itself and does not descend from it.
func checkParent(ctx context.Context, r repo.Repo, id, parentID string, errs *validation.FieldErrors) error {
	if id != "" && parentID == id {
		errs.Add("parent_id", "can't reference itself")
		return nil
	}
	if _, err := r.GetEvent(ctx, parentID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			errs.Add("parent_id", "does not exist")
			return nil
		}
		return err
	}
	if id == "" {
		return nil
	}
	chain, err := r.Ancestors(ctx, parentID)
	if err != nil {
		return err
	}
	for _, a := range chain {
		if a == id {
			errs.Add("parent_id", "would create a cycle")
			return nil
		}
	}
	return nil
}

// CreateEvent validates attrs against the base invariants and the contract
// of kindName, then stores the event.
func (e Engine) CreateEvent(ctx context.Context, kindName string, attrs map[string]any) (domain.Event, error) {
	var out domain.Event
	err := e.inTx(ctx, func(r repo.Repo) error {
		ev, errs, err := buildEvent(ctx, r, domain.Event{Kind: kindName}, true, attrs, validation.Validating)
		if err != nil {
			return err
		}
		if len(errs) > 0 {
			return errs
		}
		now := e.stamp()
		ev.ID = uuid.NewString()
		ev.CreatedAt, ev.UpdatedAt = now, now
		if err := r.InsertEvent(ctx, ev); err != nil {
			return err
		}
		out = ev
		return e.journal().Append(ctx, r.DB, journal.EventCreated, "event", ev.ID, eventPayload(ev))
	})
	if err != nil {
		return domain.Event{}, e.failed("create event", err)
	}
	return out, nil
}

// UpdateEvent applies attrs to a stored event. A changed window or status
// re-checks every participation on the event for overlap.
func (e Engine) UpdateEvent(ctx context.Context, id string, attrs map[string]any) (domain.Event, error) {
	var out domain.Event
	err := e.inTx(ctx, func(r repo.Repo) error {
		cur, err := r.GetEvent(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("event", id)
			}
			return err
		}
		ev, errs, err := buildEvent(ctx, r, cur, false, attrs, validation.Validating)
		if err != nil {
			return err
		}
		if len(errs) > 0 {
			return errs
		}
		ev.UpdatedAt = e.stamp()
		if err := r.UpdateEvent(ctx, ev); err != nil {
			return err
		}
		if windowChanged(cur, ev) {
			if err := e.recheckEvent(ctx, r, ev.ID); err != nil {
				return err
			}
		}
		out = ev
		return e.journal().Append(ctx, r.DB, journal.EventUpdated, "event", ev.ID, eventPayload(ev))
	})
	if err != nil {
		return domain.Event{}, e.failed("update event", err)
	}
	return out, nil
}

func windowChanged(a, b domain.Event) bool {
	return temporal.FormatPtr(a.StartTime) != temporal.FormatPtr(b.StartTime) ||
		temporal.FormatPtr(a.EndTime) != temporal.FormatPtr(b.EndTime) ||
		a.Status != b.Status
}

func eventPayload(ev domain.Event) journal.Payload {
	p := journal.Payload{
		"kind":       ev.Kind,
		"status":     ev.Status,
		"start_time": temporal.FormatPtr(ev.StartTime),
		"end_time":   temporal.FormatPtr(ev.EndTime),
		"properties": ev.Properties,
	}
	if ev.ParentID != nil {
		p["parent_id"] = *ev.ParentID
	}
	return p
}

func (e Engine) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	ev, err := e.Repo.GetEvent(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ev, notFound("event", id)
	}
	return ev, err
}

type EventListOptions struct {
	Kind      string
	Status    string
	ParentID  string
	RootsOnly bool
	Limit     int
}

func (e Engine) ListEvents(ctx context.Context, opts EventListOptions) ([]domain.Event, error) {
	return e.Repo.ListEvents(ctx, repo.EventFilters{
		Kind:      opts.Kind,
		Status:    opts.Status,
		ParentID:  opts.ParentID,
		RootsOnly: opts.RootsOnly,
		Limit:     opts.Limit,
	})
}

// DeleteEvent is rejected with a ReferenceError while participations or
// child events point at the event.
func (e Engine) DeleteEvent(ctx context.Context, id string) error {
	err := e.inTx(ctx, func(r repo.Repo) error {
		if err := r.DeleteEvent(ctx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("event", id)
			}
			return err
		}
		return e.journal().Append(ctx, r.DB, journal.EventDeleted, "event", id, nil)
	})
	return e.failed("delete event", err)
}

// EventNode is an event with its nested children.
type EventNode struct {
	domain.Event
	Children []EventNode `json:"children"`
}

// EventTree returns the event rooted at id with all of its descendants.
func (e Engine) EventTree(ctx context.Context, id string) (EventNode, error) {
	root, err := e.GetEvent(ctx, id)
	if err != nil {
		return EventNode{}, err
	}
	return e.subtree(ctx, root, 0)
}

const maxTreeDepth = 64

func (e Engine) subtree(ctx context.Context, ev domain.Event, depth int) (EventNode, error) {
	node := EventNode{Event: ev, Children: []EventNode{}}
	if depth >= maxTreeDepth {
		return node, nil
	}
	children, err := e.Repo.ListEvents(ctx, repo.EventFilters{ParentID: ev.ID})
	if err != nil {
		return node, err
	}
	for _, c := range children {
		child, err := e.subtree(ctx, c, depth+1)
		if err != nil {
			return node, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// EventChangeset previews the event pipeline without writing. With id set
// the attributes are applied to the stored event, otherwise to a new event
// of kindName.
func (e Engine) EventChangeset(ctx context.Context, kindName, id string, attrs map[string]any, mode validation.Mode) (validation.Changeset[domain.Event], error) {
	base := domain.Event{Kind: kindName}
	creating := true
	if id != "" {
		cur, err := e.GetEvent(ctx, id)
		if err != nil {
			return validation.Changeset[domain.Event]{}, err
		}
		base, creating = cur, false
	}
	ev, errs, err := buildEvent(ctx, e.Repo, base, creating, attrs, mode)
	if err != nil {
		return validation.Changeset[domain.Event]{}, err
	}
	return validation.Changeset[domain.Event]{Record: ev, Errors: errs, Mode: mode}, nil
}
