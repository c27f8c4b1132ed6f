package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{"shift", "employment", "schedule"}, cfg.EventKinds)
	assert.True(t, cfg.OccupiesTime("active"))
	assert.False(t, cfg.OccupiesTime("cancelled"))
	assert.Equal(t, "/v1", cfg.Server.BasePath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ScopeParticipant, cfg.Overlap.Scope)
	assert.False(t, cfg.TypeScoped())
}

func TestFromYAMLFillsDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("event_kinds: [shift, meeting]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"draft", "active", "completed"}, cfg.Overlap.Statuses)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, ScopeParticipant, cfg.Overlap.Scope)

	cfg, err = FromYAML([]byte("overlap:\n  scope: type\n"))
	require.NoError(t, err)
	assert.True(t, cfg.TypeScoped())
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"duplicate kind": "event_kinds: [shift, shift]\n",
		"blank kind":     "event_kinds: ['']\n",
		"bad status":     "overlap:\n  statuses: [paused]\n",
		"bad scope":      "overlap:\n  scope: kind\n",
		"bad base path":  "server:\n  base_path: v1\n",
		"bad level":      "log:\n  level: loud\n",
	}
	for name, doc := range cases {
		_, err := FromYAML([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(dir)
	assert.ErrorContains(t, err, "rl config init")

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("overlap:\n  statuses: [active]\n"), 0o644))
	cfg, err = LoadOptional(dir)
	require.NoError(t, err)
	assert.False(t, cfg.OccupiesTime("draft"))

	cfg, err = FromFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, []string{"active"}, cfg.Overlap.Statuses)
	_, err = FromFile(filepath.Join(dir, "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("log: {level: loud}\n"), 0o644))
	_, err = LoadOptional(dir)
	assert.Error(t, err)
}

func TestYAMLRoundTrip(t *testing.T) {
	data, err := Default().YAML()
	require.NoError(t, err)
	cfg, err := FromYAML(data)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
