package server

import (
	"rosterline/internal/domain"
	"rosterline/internal/kinds"
	"rosterline/internal/validation"
)

// Request payloads

type CreateEventKindRequest struct {
	Name string `json:"name" minLength:"1" example:"shift"`
}

type CreateEntityRequest struct {
	Kind       string         `json:"kind" example:"person"`
	Attributes map[string]any `json:"attributes,omitempty" example:"{\"name\":\"Ada\",\"email\":\"ada@example.com\"}"`
}

type UpdateRequest struct {
	Attributes map[string]any `json:"attributes"`
}

type CreateEventRequest struct {
	Kind       string         `json:"kind" example:"shift"`
	Attributes map[string]any `json:"attributes,omitempty" example:"{\"start_time\":\"2025-03-01T08:00\",\"end_time\":\"2025-03-01T16:00\",\"location\":\"Warehouse A\"}"`
}

type CreateParticipationRequest struct {
	ParticipantID     string         `json:"participant_id"`
	ParticipationType string         `json:"participation_type" example:"worker"`
	Attributes        map[string]any `json:"attributes,omitempty"`
}

type ChangesetRequest struct {
	// Kind names the kind of a new record. Ignored when ID is set.
	Kind       string         `json:"kind,omitempty"`
	ID         string         `json:"id,omitempty"`
	Mode       string         `json:"mode,omitempty" enum:"draft,validate"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Responses

type EntityResponse struct {
	domain.Entity
	Fields map[string]any `json:"fields"`
}

type EventResponse struct {
	domain.Event
	Fields map[string]any `json:"fields"`
}

type EntityChangesetResponse struct {
	Record EntityResponse      `json:"record"`
	Valid  bool                `json:"valid"`
	Mode   string              `json:"mode" enum:"draft,validate"`
	Errors map[string][]string `json:"errors"`
}

type EventChangesetResponse struct {
	Record EventResponse       `json:"record"`
	Valid  bool                `json:"valid"`
	Mode   string              `json:"mode" enum:"draft,validate"`
	Errors map[string][]string `json:"errors"`
}

func entityResponse(en domain.Entity) EntityResponse {
	return EntityResponse{Entity: en, Fields: kinds.FlattenEntity(en)}
}

func mapEntities(items []domain.Entity) []EntityResponse {
	out := make([]EntityResponse, 0, len(items))
	for _, en := range items {
		out = append(out, entityResponse(en))
	}
	return out
}

func eventResponse(ev domain.Event) EventResponse {
	return EventResponse{Event: ev, Fields: kinds.FlattenEvent(ev)}
}

func mapEvents(items []domain.Event) []EventResponse {
	out := make([]EventResponse, 0, len(items))
	for _, ev := range items {
		out = append(out, eventResponse(ev))
	}
	return out
}

func nonNilParticipations(items []domain.Participation) []domain.Participation {
	if items == nil {
		return []domain.Participation{}
	}
	return items
}

func entityChangesetResponse(cs validation.Changeset[domain.Entity]) EntityChangesetResponse {
	return EntityChangesetResponse{
		Record: entityResponse(cs.Record),
		Valid:  cs.Valid(),
		Mode:   cs.Mode.String(),
		Errors: cs.Errors.ByField(),
	}
}

func eventChangesetResponse(cs validation.Changeset[domain.Event]) EventChangesetResponse {
	return EventChangesetResponse{
		Record: eventResponse(cs.Record),
		Valid:  cs.Valid(),
		Mode:   cs.Mode.String(),
		Errors: cs.Errors.ByField(),
	}
}
