package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"rosterline/internal/config"
	"rosterline/internal/journal"
	"rosterline/internal/repo"
	"rosterline/internal/temporal"
	"rosterline/internal/validation"
)

type Engine struct {
	DB      *sql.DB
	Repo    repo.Repo
	Journal journal.Writer
	Config  *config.Config
	Logger  *zap.Logger
	Now     func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return Engine{
		DB:      db,
		Repo:    repo.Repo{DB: db},
		Journal: journal.Writer{Now: time.Now},
		Config:  cfg,
		Logger:  zap.NewNop(),
		Now:     time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) stamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e Engine) log() *zap.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return zap.NewNop()
}

func (e Engine) journal() journal.Writer {
	w := e.Journal
	w.Now = e.now
	return w
}

func (e Engine) config() *config.Config {
	if e.Config != nil {
		return e.Config
	}
	return config.Default()
}

// inTx runs fn against a repo bound to a fresh write transaction and commits
// when fn succeeds. fn must not touch e.Repo.
func (e Engine) inTx(ctx context.Context, fn func(r repo.Repo) error) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if err := fn(e.Repo.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

// failed logs a rejected write at the level its class deserves and passes
// the error through.
func (e Engine) failed(op string, err error) error {
	var fe validation.FieldErrors
	var ce *repo.ConflictError
	var re *repo.ReferenceError
	switch {
	case errors.As(err, &fe):
		e.log().Debug(op+" rejected", zap.Int("field_errors", len(fe)))
	case errors.As(err, &ce):
		e.log().Info(op+" conflict", zap.String("reason", ce.Reason), zap.String("participant_id", ce.ParticipantID), zap.String("conflicts_with", ce.ConflictsWith))
	case errors.As(err, &re):
		e.log().Info(op+" reference rejected", zap.String("field", re.Field), zap.String("id", re.ID))
	}
	return err
}

// timeAttr reads an optional time attribute. present is true when the key
// was given at all; a nil or blank value clears the bound.
func timeAttr(attrs map[string]any, key string, errs *validation.FieldErrors) (t *time.Time, present bool) {
	v, ok := attrs[key]
	if !ok {
		return nil, false
	}
	switch val := v.(type) {
	case nil:
		return nil, true
	case time.Time:
		n := temporal.Normalize(val)
		return &n, true
	case *time.Time:
		if val == nil {
			return nil, true
		}
		n := temporal.Normalize(*val)
		return &n, true
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, true
		}
		parsed, err := temporal.Parse(val)
		if err != nil {
			errs.Add(key, "is invalid")
			return nil, true
		}
		return &parsed, true
	}
	errs.Add(key, "is invalid")
	return nil, true
}

// stringAttr reads an optional text attribute.
func stringAttr(attrs map[string]any, key string, errs *validation.FieldErrors) (s string, present bool) {
	v, ok := attrs[key]
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case nil:
		return "", true
	case string:
		return strings.TrimSpace(val), true
	}
	errs.Add(key, "must be text")
	return "", true
}

func checkOrder(start, end *time.Time, errs *validation.FieldErrors) {
	if errs.Has("start_time") || errs.Has("end_time") {
		return
	}
	if err := temporal.CheckOrder(start, end); err != nil {
		errs.Add("end_time", err.Error())
	}
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, repo.ErrNotFound)
}
