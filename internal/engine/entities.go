package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"rosterline/internal/domain"
	"rosterline/internal/journal"
	"rosterline/internal/kinds"
	"rosterline/internal/repo"
	"rosterline/internal/validation"
)

// buildEntity runs the entity pipeline over base (a copy of the stored
// record on update, a blank one on create) without touching the store.
func buildEntity(base domain.Entity, attrs map[string]any, mode validation.Mode) (domain.Entity, validation.FieldErrors) {
	var errs validation.FieldErrors
	if base.Kind == "" {
		errs.Add("kind", "can't be blank")
	} else if !domain.IsEntityKind(base.Kind) {
		errs.Add("kind", "is not included in the list")
	}
	contract := kinds.ResolveEntity(base.Kind)
	errs.Merge(contract.Validate(&base, attrs, mode))
	return base, errs
}

func (e Engine) CreateEntity(ctx context.Context, kind string, attrs map[string]any) (domain.Entity, error) {
	now := e.stamp()
	en, errs := buildEntity(domain.Entity{Kind: kind, Properties: map[string]any{}}, attrs, validation.Validating)
	if len(errs) > 0 {
		return domain.Entity{}, e.failed("create entity", errs)
	}
	en.ID = uuid.NewString()
	en.CreatedAt = now
	en.UpdatedAt = now
	err := e.inTx(ctx, func(r repo.Repo) error {
		if err := r.InsertEntity(ctx, en); err != nil {
			return err
		}
		return e.journal().Append(ctx, r.DB, journal.EntityCreated, "entity", en.ID, journal.Payload{"kind": en.Kind, "properties": en.Properties})
	})
	if err != nil {
		return domain.Entity{}, e.failed("create entity", err)
	}
	return en, nil
}

// UpdateEntity merges the declared fields of attrs into the stored record.
// The kind never changes.
func (e Engine) UpdateEntity(ctx context.Context, id string, attrs map[string]any) (domain.Entity, error) {
	var out domain.Entity
	err := e.inTx(ctx, func(r repo.Repo) error {
		cur, err := r.GetEntity(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("entity", id)
			}
			return err
		}
		en, errs := buildEntity(cur, attrs, validation.Validating)
		if len(errs) > 0 {
			return errs
		}
		en.UpdatedAt = e.stamp()
		if err := r.UpdateEntity(ctx, en); err != nil {
			return err
		}
		out = en
		return e.journal().Append(ctx, r.DB, journal.EntityUpdated, "entity", en.ID, journal.Payload{"properties": en.Properties})
	})
	if err != nil {
		return domain.Entity{}, e.failed("update entity", err)
	}
	return out, nil
}

func (e Engine) GetEntity(ctx context.Context, id string) (domain.Entity, error) {
	en, err := e.Repo.GetEntity(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return en, notFound("entity", id)
	}
	return en, err
}

func (e Engine) ListEntities(ctx context.Context, kind string, limit int) ([]domain.Entity, error) {
	return e.Repo.ListEntities(ctx, repo.EntityFilters{Kind: kind, Limit: limit})
}

// DeleteEntity is rejected with a ReferenceError while the entity still
// holds participations.
func (e Engine) DeleteEntity(ctx context.Context, id string) error {
	err := e.inTx(ctx, func(r repo.Repo) error {
		if err := r.DeleteEntity(ctx, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("entity", id)
			}
			return err
		}
		return e.journal().Append(ctx, r.DB, journal.EntityDeleted, "entity", id, nil)
	})
	return e.failed("delete entity", err)
}

// EntityChangeset previews the entity pipeline. With id set the attributes
// are applied to the stored record, otherwise to a new record of kind.
func (e Engine) EntityChangeset(ctx context.Context, kind, id string, attrs map[string]any, mode validation.Mode) (validation.Changeset[domain.Entity], error) {
	base := domain.Entity{Kind: kind, Properties: map[string]any{}}
	if id != "" {
		cur, err := e.GetEntity(ctx, id)
		if err != nil {
			return validation.Changeset[domain.Entity]{}, err
		}
		base = cur
	}
	en, errs := buildEntity(base, attrs, mode)
	return validation.Changeset[domain.Entity]{Record: en, Errors: errs, Mode: mode}, nil
}
