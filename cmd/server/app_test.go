package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApplication(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)

	app, err := newApplication(cfg, discardLogger())
	require.NoError(t, err)
	assert.NotNil(t, app.engine)
	assert.NotNil(t, app.scheduler)
	assert.NotNil(t, app.jwtService)
	assert.NotNil(t, app.promRegistry)
}

func TestNewApplicationRejectsShortJWTSecret(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	cfg.Auth.JWTSecret = strings.Repeat("s", 16)

	_, err := newApplication(cfg, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT service")
}

func TestNewApplicationRejectsInvalidEngineConfig(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	cfg.Engine.WorkerCount = 0

	_, err := newApplication(cfg, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine")
}
