package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSets(t *testing.T) {
	attrs, err := parseSets([]string{"name=Ada", "email=ada@example.com", "notes=a=b", "end_time="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":     "Ada",
		"email":    "ada@example.com",
		"notes":    "a=b",
		"end_time": "",
	}, attrs)

	_, err = parseSets([]string{"name"})
	assert.Error(t, err)
	_, err = parseSets([]string{"=x"})
	assert.Error(t, err)
}

func TestApplyLogLevel(t *testing.T) {
	require.NoError(t, applyLogLevel("debug"))
	assert.Equal(t, "debug", logLevel.String())
	assert.Error(t, applyLogLevel("loud"))
	require.NoError(t, applyLogLevel("info"))
}
