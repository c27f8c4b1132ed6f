package rosterlinesdk

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterline/internal/config"
	"rosterline/internal/db"
	"rosterline/internal/engine"
	"rosterline/internal/migrate"
	"rosterline/internal/server"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, migrate.Migrate(ctx, conn))
	cfg := config.Default()
	e := engine.New(conn, cfg)
	_, err = e.SeedEventKinds(ctx, cfg.EventKinds)
	require.NoError(t, err)
	handler, err := server.New(server.Config{Engine: e, BasePath: "/v1"})
	require.NoError(t, err)

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		conn.Close()
	})
	return New("http://" + ln.Addr().String() + "/v1")
}

func TestClientRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	kinds, err := c.ListEventKinds(ctx)
	require.NoError(t, err)
	assert.Len(t, kinds, 3)

	ada, err := c.CreateEntity(ctx, "person", map[string]any{"name": "Ada", "email": "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", ada.Fields["name"])

	ev, err := c.CreateEvent(ctx, "shift", map[string]any{
		"start_time": "2025-03-01T09:00",
		"end_time":   "2025-03-01T17:00",
		"location":   "Dock",
		"status":     "active",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01T17:00:00Z", ev.EndTime)

	p, err := c.AddParticipation(ctx, ev.ID, ada.ID, "worker", map[string]any{"position": "lead"})
	require.NoError(t, err)
	assert.Equal(t, "lead", p.Properties["position"])

	held, err := c.EntityParticipations(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, p.ID, held[0].ID)

	require.NoError(t, c.RemoveParticipation(ctx, p.ID))
	require.NoError(t, c.DeleteEvent(ctx, ev.ID))
	require.NoError(t, c.DeleteEntity(ctx, ada.ID))
}

func TestClientDecodesErrorEnvelope(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.CreateEntity(ctx, "person", map[string]any{"name": "Ada"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "validation_failed", apiErr.Code)
	assert.Equal(t, []string{"can't be blank"}, apiErr.Fields()["email"])

	_, err = c.GetEvent(ctx, "nope")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "not_found", apiErr.Code)
}

func TestClientPreview(t *testing.T) {
	c := newTestClient(t)
	cs, err := c.PreviewEvent(context.Background(), "employment", "", "validate", map[string]any{
		"start_time": "2025-01-01T00:00",
	})
	require.NoError(t, err)
	assert.False(t, cs.Valid)
	assert.Contains(t, cs.Errors, "role")
	assert.Contains(t, cs.Errors, "contract_type")
}
