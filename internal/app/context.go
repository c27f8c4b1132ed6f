package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"rosterline/internal/config"
	"rosterline/internal/db"
	"rosterline/internal/engine"
	"rosterline/internal/migrate"
)

// Workspace is an opened, migrated and seeded rosterline workspace.
type Workspace struct {
	Dir    string
	DB     *sql.DB
	Config *config.Config
	Engine engine.Engine
}

func (w *Workspace) Close() error {
	if w == nil || w.DB == nil {
		return nil
	}
	return w.DB.Close()
}

// Open prepares the workspace at dir: it opens the database, applies
// migrations, loads rosterline.yml (defaults when absent) and registers the
// configured event kinds that are missing from the store.
func Open(ctx context.Context, dir string, logger *zap.Logger) (*Workspace, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, err := config.LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	eng := engine.New(conn, cfg)
	eng.Logger = logger
	seeded, err := eng.SeedEventKinds(ctx, cfg.EventKinds)
	if err != nil {
		conn.Close()
		return nil, err
	}
	for _, k := range seeded {
		logger.Info("event kind registered", zap.String("name", k.Name))
	}
	return &Workspace{Dir: dir, DB: conn, Config: cfg, Engine: eng}, nil
}
