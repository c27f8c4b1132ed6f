package domain

import "time"

// Entity kinds form a closed set.
const (
	EntityPerson       = "person"
	EntityOrganization = "organization"
	EntityLocation     = "location"
	EntityResource     = "resource"
)

// Event statuses form a closed set.
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var EntityKinds = []string{EntityPerson, EntityOrganization, EntityLocation, EntityResource}

var EventStatuses = []string{StatusDraft, StatusActive, StatusCompleted, StatusCancelled}

func IsEntityKind(kind string) bool {
	return contains(EntityKinds, kind)
}

func IsEventStatus(status string) bool {
	return contains(EventStatuses, status)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

type Entity struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind" enum:"person,organization,location,resource"`
	Properties map[string]any `json:"properties"`
	CreatedAt  string         `json:"created_at" format:"date-time"`
	UpdatedAt  string         `json:"updated_at" format:"date-time"`
}

type EventKind struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         string         `json:"id"`
	KindID     string         `json:"kind_id"`
	Kind       string         `json:"kind"`
	ParentID   *string        `json:"parent_id,omitempty"`
	StartTime  *time.Time     `json:"start_time,omitempty"`
	EndTime    *time.Time     `json:"end_time,omitempty"`
	Status     string         `json:"status" enum:"draft,active,completed,cancelled"`
	Properties map[string]any `json:"properties"`
	CreatedAt  string         `json:"created_at" format:"date-time"`
	UpdatedAt  string         `json:"updated_at" format:"date-time"`
}

type Participation struct {
	ID                string         `json:"id"`
	ParticipantID     string         `json:"participant_id"`
	EventID           string         `json:"event_id"`
	ParticipationType string         `json:"participation_type"`
	Role              string         `json:"role,omitempty"`
	StartTime         *time.Time     `json:"start_time,omitempty"`
	EndTime           *time.Time     `json:"end_time,omitempty"`
	Properties        map[string]any `json:"properties"`
	CreatedAt         string         `json:"created_at" format:"date-time"`
	UpdatedAt         string         `json:"updated_at" format:"date-time"`
}

// JournalEntry is an informational record of a committed change.
type JournalEntry struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	RecordKind string `json:"record_kind"`
	RecordID   string `json:"record_id"`
	Payload    string `json:"payload_json"`
}
