package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosterline/internal/db"
)

func TestMigrateIsRepeatable(t *testing.T) {
	conn, err := db.OpenFile(t.TempDir() + "/m.db")
	require.NoError(t, err)
	defer conn.Close()
	ctx := context.Background()

	v, err := Version(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	require.NoError(t, Migrate(ctx, conn))
	require.NoError(t, Migrate(ctx, conn))

	all, err := loadMigrations()
	require.NoError(t, err)
	v, err = Version(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, all[len(all)-1].Version, v)

	for _, table := range []string{"entities", "event_kinds", "events", "participations", "journal"} {
		var name string
		require.NoError(t, conn.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name), table)
	}
}
