package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"rosterline/internal/domain"
	"rosterline/internal/engine"
	"rosterline/internal/validation"
)

type idPath struct {
	ID string `path:"id"`
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerEventKinds(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-event-kinds",
		Method:      http.MethodGet,
		Path:        "/event-kinds",
		Summary:     "List event kinds",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.EventKind `json:"body"`
	}, error) {
		items, err := e.ListEventKinds(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.EventKind{}
		}
		return &struct {
			Body []domain.EventKind `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-event-kind",
		Method:        http.MethodPost,
		Path:          "/event-kinds",
		Summary:       "Register an event kind",
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateEventKindRequest `json:"body"`
	}) (*struct {
		Body domain.EventKind `json:"body"`
	}, error) {
		k, err := e.CreateEventKind(ctx, input.Body.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.EventKind `json:"body"`
		}{Body: k}, nil
	})
}

func registerEntities(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-entities",
		Method:      http.MethodGet,
		Path:        "/entities",
		Summary:     "List entities",
	}, func(ctx context.Context, input *struct {
		Kind  string `query:"kind" enum:"person,organization,location,resource"`
		Limit int    `query:"limit" minimum:"0"`
	}) (*struct {
		Body []EntityResponse `json:"body"`
	}, error) {
		items, err := e.ListEntities(ctx, input.Kind, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []EntityResponse `json:"body"`
		}{Body: mapEntities(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-entity",
		Method:        http.MethodPost,
		Path:          "/entities",
		Summary:       "Create entity",
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateEntityRequest `json:"body"`
	}) (*struct {
		Body EntityResponse `json:"body"`
	}, error) {
		en, err := e.CreateEntity(ctx, input.Body.Kind, input.Body.Attributes)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EntityResponse `json:"body"`
		}{Body: entityResponse(en)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-entity",
		Method:      http.MethodGet,
		Path:        "/entities/{id}",
		Summary:     "Get entity",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body EntityResponse `json:"body"`
	}, error) {
		en, err := e.GetEntity(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EntityResponse `json:"body"`
		}{Body: entityResponse(en)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-entity",
		Method:      http.MethodPatch,
		Path:        "/entities/{id}",
		Summary:     "Update entity attributes",
		Errors:      writeErrors,
	}, func(ctx context.Context, input *struct {
		ID   string        `path:"id"`
		Body UpdateRequest `json:"body"`
	}) (*struct {
		Body EntityResponse `json:"body"`
	}, error) {
		en, err := e.UpdateEntity(ctx, input.ID, input.Body.Attributes)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EntityResponse `json:"body"`
		}{Body: entityResponse(en)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-entity",
		Method:        http.MethodDelete,
		Path:          "/entities/{id}",
		Summary:       "Delete entity",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := e.DeleteEntity(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-entity-participations",
		Method:      http.MethodGet,
		Path:        "/entities/{id}/participations",
		Summary:     "List an entity's participations",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body []domain.Participation `json:"body"`
	}, error) {
		if _, err := e.GetEntity(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.ListParticipations(ctx, input.ID, "")
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Participation `json:"body"`
		}{Body: nonNilParticipations(items)}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List events",
	}, func(ctx context.Context, input *struct {
		Kind     string `query:"kind"`
		Status   string `query:"status" enum:"draft,active,completed,cancelled"`
		ParentID string `query:"parent_id"`
		Roots    bool   `query:"roots" doc:"Only events without a parent"`
		Limit    int    `query:"limit" minimum:"0"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		items, err := e.ListEvents(ctx, engine.EventListOptions{
			Kind:      input.Kind,
			Status:    input.Status,
			ParentID:  input.ParentID,
			RootsOnly: input.Roots,
			Limit:     input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: mapEvents(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-event",
		Method:        http.MethodPost,
		Path:          "/events",
		Summary:       "Create event",
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateEventRequest `json:"body"`
	}) (*struct {
		Body EventResponse `json:"body"`
	}, error) {
		ev, err := e.CreateEvent(ctx, input.Body.Kind, input.Body.Attributes)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EventResponse `json:"body"`
		}{Body: eventResponse(ev)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-event",
		Method:      http.MethodGet,
		Path:        "/events/{id}",
		Summary:     "Get event",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Tree bool   `query:"tree" doc:"Include nested child events"`
	}) (*struct {
		Body engine.EventNode `json:"body"`
	}, error) {
		var node engine.EventNode
		var err error
		if input.Tree {
			node, err = e.EventTree(ctx, input.ID)
		} else {
			node.Event, err = e.GetEvent(ctx, input.ID)
			node.Children = []engine.EventNode{}
		}
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.EventNode `json:"body"`
		}{Body: node}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-event",
		Method:      http.MethodPatch,
		Path:        "/events/{id}",
		Summary:     "Update event attributes",
		Errors:      writeErrors,
	}, func(ctx context.Context, input *struct {
		ID   string        `path:"id"`
		Body UpdateRequest `json:"body"`
	}) (*struct {
		Body EventResponse `json:"body"`
	}, error) {
		ev, err := e.UpdateEvent(ctx, input.ID, input.Body.Attributes)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EventResponse `json:"body"`
		}{Body: eventResponse(ev)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-event",
		Method:        http.MethodDelete,
		Path:          "/events/{id}",
		Summary:       "Delete event",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := e.DeleteEvent(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerParticipations(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-event-participations",
		Method:      http.MethodGet,
		Path:        "/events/{id}/participations",
		Summary:     "List an event's participations",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body []domain.Participation `json:"body"`
	}, error) {
		if _, err := e.GetEvent(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		items, err := e.ListParticipations(ctx, "", input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Participation `json:"body"`
		}{Body: nonNilParticipations(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-participation",
		Method:        http.MethodPost,
		Path:          "/events/{id}/participations",
		Summary:       "Add a participant to an event",
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		ID   string                     `path:"id"`
		Body CreateParticipationRequest `json:"body"`
	}) (*struct {
		Body domain.Participation `json:"body"`
	}, error) {
		p, err := e.CreateParticipation(ctx, input.Body.ParticipantID, input.ID, input.Body.ParticipationType, input.Body.Attributes)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Participation `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-participation",
		Method:      http.MethodPatch,
		Path:        "/participations/{id}",
		Summary:     "Update participation role, window or fields",
		Errors:      writeErrors,
	}, func(ctx context.Context, input *struct {
		ID   string        `path:"id"`
		Body UpdateRequest `json:"body"`
	}) (*struct {
		Body domain.Participation `json:"body"`
	}, error) {
		p, err := e.UpdateParticipation(ctx, input.ID, input.Body.Attributes)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Participation `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-participation",
		Method:        http.MethodDelete,
		Path:          "/participations/{id}",
		Summary:       "Remove participation",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := e.DeleteParticipation(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerChangesets(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "preview-event",
		Method:      http.MethodPost,
		Path:        "/changesets/events",
		Summary:     "Run the event pipeline without saving",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body ChangesetRequest `json:"body"`
	}) (*struct {
		Body EventChangesetResponse `json:"body"`
	}, error) {
		mode, err := validation.ParseMode(input.Body.Mode)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		cs, err := e.EventChangeset(ctx, input.Body.Kind, input.Body.ID, input.Body.Attributes, mode)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EventChangesetResponse `json:"body"`
		}{Body: eventChangesetResponse(cs)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "preview-entity",
		Method:      http.MethodPost,
		Path:        "/changesets/entities",
		Summary:     "Run the entity pipeline without saving",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body ChangesetRequest `json:"body"`
	}) (*struct {
		Body EntityChangesetResponse `json:"body"`
	}, error) {
		mode, err := validation.ParseMode(input.Body.Mode)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		cs, err := e.EntityChangeset(ctx, input.Body.Kind, input.Body.ID, input.Body.Attributes, mode)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EntityChangesetResponse `json:"body"`
		}{Body: entityChangesetResponse(cs)}, nil
	})
}
