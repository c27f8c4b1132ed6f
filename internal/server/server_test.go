package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterline/internal/config"
	"rosterline/internal/db"
	"rosterline/internal/domain"
	"rosterline/internal/engine"
	"rosterline/internal/migrate"
	"rosterline/internal/repo"
	"rosterline/internal/validation"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	ctx := context.Background()
	if err := migrate.Migrate(ctx, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default()
	e := engine.New(conn, cfg)
	e.Now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	if _, err := e.SeedEventKinds(ctx, cfg.EventKinds); err != nil {
		t.Fatalf("seed kinds: %v", err)
	}
	handler, err := New(Config{Engine: e, BasePath: "/v1"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	ts := &testServer{
		URL:    "http://" + ln.Addr().String() + "/v1",
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader = bytes.NewReader(nil)
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, data []byte) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(data, &env), string(data))
	return env
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/health", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
}

func TestEntityValidationEnvelope(t *testing.T) {
	srv := newTestServer(t)
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/entities", map[string]any{
		"kind":       "person",
		"attributes": map[string]any{"name": "Ada", "email": "ada-example.com"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode, string(data))
	env := decodeError(t, data)
	assert.Equal(t, "validation_failed", env.Error.Code)
	fields := env.Error.Details["fields"].(map[string]any)
	assert.Equal(t, []any{"must be valid"}, fields["email"])
}

func TestEventLifecycle(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/events", map[string]any{
		"kind": "shift",
		"attributes": map[string]any{
			"start_time": "2025-03-01T09:00",
			"end_time":   "2025-03-01T17:00",
			"status":     "active",
			"location":   "Warehouse A",
		},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	var created EventResponse
	require.NoError(t, json.Unmarshal(data, &created))
	assert.Equal(t, "shift", created.Kind)
	assert.Equal(t, "Warehouse A", created.Fields["location"])

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/events/"+created.ID, map[string]any{
		"attributes": map[string]any{"notes": "dock 4"},
	})
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var updated EventResponse
	require.NoError(t, json.Unmarshal(data, &updated))
	assert.Equal(t, "dock 4", updated.Properties["notes"])
	assert.Equal(t, "Warehouse A", updated.Properties["location"])

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/events/missing", nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode, string(data))
	assert.Equal(t, "not_found", decodeError(t, data).Error.Code)

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/events?kind=shift", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var list []EventResponse
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Len(t, list, 1)

	res, _ = doJSON(t, client, http.MethodDelete, srv.URL+"/events/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, res.StatusCode)
}

func TestParticipationConflicts(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/entities", map[string]any{
		"kind":       "person",
		"attributes": map[string]any{"name": "Ada", "email": "ada@example.com"},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	var worker EntityResponse
	require.NoError(t, json.Unmarshal(data, &worker))

	shift := func(start, end string) string {
		res, data := doJSON(t, client, http.MethodPost, srv.URL+"/events", map[string]any{
			"kind": "shift",
			"attributes": map[string]any{
				"start_time": start, "end_time": end, "status": "active", "location": "A",
			},
		})
		require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
		var ev domain.Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev.ID
	}
	day := shift("2025-03-01T09:00", "2025-03-01T17:00")
	lunch := shift("2025-03-01T12:00", "2025-03-01T13:00")

	join := func(eventID string) (*http.Response, []byte) {
		return doJSON(t, client, http.MethodPost, srv.URL+"/events/"+eventID+"/participations", map[string]any{
			"participant_id":     worker.ID,
			"participation_type": "worker",
		})
	}
	res, data = join(day)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))

	res, data = join(day)
	require.Equal(t, http.StatusConflict, res.StatusCode, string(data))
	assert.Equal(t, "duplicate", decodeError(t, data).Error.Details["reason"])

	res, data = join(lunch)
	require.Equal(t, http.StatusConflict, res.StatusCode, string(data))
	assert.Equal(t, "overlap", decodeError(t, data).Error.Details["reason"])

	res, data = doJSON(t, client, http.MethodDelete, srv.URL+"/entities/"+worker.ID, nil)
	require.Equal(t, http.StatusConflict, res.StatusCode, string(data))
	assert.Equal(t, "reference_conflict", decodeError(t, data).Error.Code)

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/entities/"+worker.ID+"/participations", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var parts []domain.Participation
	require.NoError(t, json.Unmarshal(data, &parts))
	assert.Len(t, parts, 1)
}

func TestChangesetPreview(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()
	body := map[string]any{
		"kind":       "shift",
		"mode":       "draft",
		"attributes": map[string]any{"start_time": "2025-03-01T08:00"},
	}
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/changesets/events", body)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var cs EventChangesetResponse
	require.NoError(t, json.Unmarshal(data, &cs))
	assert.True(t, cs.Valid)
	assert.Equal(t, "draft", cs.Mode)

	body["mode"] = "validate"
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/changesets/events", body)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	require.NoError(t, json.Unmarshal(data, &cs))
	assert.False(t, cs.Valid)
	assert.Contains(t, cs.Errors, "end_time")

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/events", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	assert.JSONEq(t, `[]`, string(data))
}

func TestSchemaViolationIsBadRequest(t *testing.T) {
	srv := newTestServer(t)
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/event-kinds", map[string]any{"name": 5})
	require.Equal(t, http.StatusBadRequest, res.StatusCode, string(data))
	assert.Equal(t, "bad_request", decodeError(t, data).Error.Code)
}

func TestHandleErrorStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"field errors", validation.FieldErrors{{Field: "name", Message: "can't be blank"}}, http.StatusUnprocessableEntity, "validation_failed"},
		{"missing record", fmt.Errorf("event %s: %w", "e1", repo.ErrNotFound), http.StatusNotFound, "not_found"},
		{"overlap", &repo.ConflictError{Reason: repo.ReasonOverlap, ParticipantID: "p1"}, http.StatusConflict, "conflict"},
		{"missing reference at commit", &repo.ReferenceError{Field: "event_id", ID: "gone", Err: repo.ErrNotFound}, http.StatusConflict, "reference_conflict"},
		{"still referenced", &repo.ReferenceError{Field: "id", ID: "w1", Err: errors.New("still referenced")}, http.StatusConflict, "reference_conflict"},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			se := handleError(tc.err)
			require.NotNil(t, se)
			assert.Equal(t, tc.status, se.GetStatus())
			ae, ok := se.(*apiError)
			require.True(t, ok)
			assert.Equal(t, tc.code, ae.Body.Code)
		})
	}
}
