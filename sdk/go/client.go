package rosterlinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a minimal Rosterline HTTP API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults. baseURL includes the API base
// path, e.g. http://127.0.0.1:8080/v1.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Entity represents an entity record with its flattened fields.
type Entity struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Properties map[string]any `json:"properties"`
	Fields     map[string]any `json:"fields"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

// EventKind is a registered event classification.
type EventKind struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// Event represents an event record with its flattened fields.
type Event struct {
	ID         string         `json:"id"`
	KindID     string         `json:"kind_id"`
	Kind       string         `json:"kind"`
	StartTime  string         `json:"start_time"`
	EndTime    string         `json:"end_time,omitempty"`
	Status     string         `json:"status"`
	ParentID   string         `json:"parent_id,omitempty"`
	Properties map[string]any `json:"properties"`
	Fields     map[string]any `json:"fields"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

// Participation binds an entity to an event.
type Participation struct {
	ID                string         `json:"id"`
	ParticipantID     string         `json:"participant_id"`
	EventID           string         `json:"event_id"`
	ParticipationType string         `json:"participation_type"`
	Role              string         `json:"role,omitempty"`
	StartTime         string         `json:"start_time,omitempty"`
	EndTime           string         `json:"end_time,omitempty"`
	Properties        map[string]any `json:"properties"`
	CreatedAt         string         `json:"created_at"`
	UpdatedAt         string         `json:"updated_at"`
}

// EventChangeset is a validation preview of an event.
type EventChangeset struct {
	Record Event               `json:"record"`
	Valid  bool                `json:"valid"`
	Mode   string              `json:"mode"`
	Errors map[string][]string `json:"errors"`
}

// APIError wraps non-2xx responses. Code, Message and Details come from the
// error envelope when the body carries one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]any
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Fields returns per-field validation messages of a validation_failed error.
func (e *APIError) Fields() map[string][]string {
	raw, _ := e.Details["fields"].(map[string]any)
	out := make(map[string][]string, len(raw))
	for field, v := range raw {
		list, _ := v.([]any)
		for _, msg := range list {
			if s, ok := msg.(string); ok {
				out[field] = append(out[field], s)
			}
		}
	}
	return out
}

// ListEventKinds returns the registered event kinds.
func (c *Client) ListEventKinds(ctx context.Context) ([]EventKind, error) {
	var resp []EventKind
	err := c.do(ctx, http.MethodGet, "event-kinds", nil, &resp)
	return resp, err
}

// CreateEventKind registers an event kind.
func (c *Client) CreateEventKind(ctx context.Context, name string) (EventKind, error) {
	var resp EventKind
	err := c.do(ctx, http.MethodPost, "event-kinds", map[string]any{"name": name}, &resp)
	return resp, err
}

// CreateEntity creates an entity from flat attributes.
func (c *Client) CreateEntity(ctx context.Context, kind string, attrs map[string]any) (Entity, error) {
	body := withAttributes(map[string]any{"kind": kind}, attrs)
	var resp Entity
	err := c.do(ctx, http.MethodPost, "entities", body, &resp)
	return resp, err
}

// UpdateEntity merges attrs into an entity.
func (c *Client) UpdateEntity(ctx context.Context, id string, attrs map[string]any) (Entity, error) {
	var resp Entity
	err := c.do(ctx, http.MethodPatch, "entities/"+url.PathEscape(id), map[string]any{"attributes": attrs}, &resp)
	return resp, err
}

// GetEntity fetches an entity by id.
func (c *Client) GetEntity(ctx context.Context, id string) (Entity, error) {
	var resp Entity
	err := c.do(ctx, http.MethodGet, "entities/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// ListEntities lists entities, optionally filtered by kind.
func (c *Client) ListEntities(ctx context.Context, kind string, limit int) ([]Entity, error) {
	q := url.Values{}
	if kind != "" {
		q.Set("kind", kind)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp []Entity
	err := c.do(ctx, http.MethodGet, withQuery("entities", q), nil, &resp)
	return resp, err
}

// DeleteEntity removes an entity that no participation references.
func (c *Client) DeleteEntity(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "entities/"+url.PathEscape(id), nil, nil)
}

// CreateEvent creates an event of the named kind.
func (c *Client) CreateEvent(ctx context.Context, kind string, attrs map[string]any) (Event, error) {
	body := withAttributes(map[string]any{"kind": kind}, attrs)
	var resp Event
	err := c.do(ctx, http.MethodPost, "events", body, &resp)
	return resp, err
}

// UpdateEvent merges attrs into an event.
func (c *Client) UpdateEvent(ctx context.Context, id string, attrs map[string]any) (Event, error) {
	var resp Event
	err := c.do(ctx, http.MethodPatch, "events/"+url.PathEscape(id), map[string]any{"attributes": attrs}, &resp)
	return resp, err
}

// GetEvent fetches an event by id.
func (c *Client) GetEvent(ctx context.Context, id string) (Event, error) {
	var resp Event
	err := c.do(ctx, http.MethodGet, "events/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// DeleteEvent removes an event without children or participations.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "events/"+url.PathEscape(id), nil, nil)
}

// PreviewEvent validates attrs without saving. mode is "draft" or "validate".
func (c *Client) PreviewEvent(ctx context.Context, kind, id, mode string, attrs map[string]any) (EventChangeset, error) {
	body := withAttributes(map[string]any{}, attrs)
	for key, v := range map[string]string{"kind": kind, "id": id, "mode": mode} {
		if v != "" {
			body[key] = v
		}
	}
	var resp EventChangeset
	err := c.do(ctx, http.MethodPost, "changesets/events", body, &resp)
	return resp, err
}

// AddParticipation binds an entity to an event.
func (c *Client) AddParticipation(ctx context.Context, eventID, participantID, participationType string, attrs map[string]any) (Participation, error) {
	body := withAttributes(map[string]any{
		"participant_id":     participantID,
		"participation_type": participationType,
	}, attrs)
	var resp Participation
	err := c.do(ctx, http.MethodPost, "events/"+url.PathEscape(eventID)+"/participations", body, &resp)
	return resp, err
}

// EventParticipations lists participations on an event.
func (c *Client) EventParticipations(ctx context.Context, eventID string) ([]Participation, error) {
	var resp []Participation
	err := c.do(ctx, http.MethodGet, "events/"+url.PathEscape(eventID)+"/participations", nil, &resp)
	return resp, err
}

// EntityParticipations lists participations held by an entity.
func (c *Client) EntityParticipations(ctx context.Context, entityID string) ([]Participation, error) {
	var resp []Participation
	err := c.do(ctx, http.MethodGet, "entities/"+url.PathEscape(entityID)+"/participations", nil, &resp)
	return resp, err
}

// RemoveParticipation deletes a participation.
func (c *Client) RemoveParticipation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "participations/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return decodeAPIError(resp.StatusCode, b)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: string(body)}
	var env struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Details = env.Error.Details
	}
	return apiErr
}

// withAttributes leaves attributes out when nil; the API rejects null.
func withAttributes(body, attrs map[string]any) map[string]any {
	if attrs != nil {
		body["attributes"] = attrs
	}
	return body
}

func withQuery(endpoint string, q url.Values) string {
	if len(q) == 0 {
		return endpoint
	}
	return endpoint + "?" + q.Encode()
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
