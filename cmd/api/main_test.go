package main

import (
	"bytes"
	"context"
	"testing"

	"pet-records/internal/config"
	"pet-records/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildApp_DefaultsToInMemory(t *testing.T) {
	a, err := buildApp(context.Background(), config.Default(), logger.Nop())
	require.NoError(t, err)
	defer a.close()

	assert.Nil(t, a.opts.DB)
	assert.Nil(t, a.opts.AuthVerifier)
	assert.NotNil(t, a.opts.Capabilities)
	require.NotNil(t, a.services)
	assert.NotNil(t, a.services.Notify)
	assert.NotNil(t, a.services.Outbox)

	assert.Equal(t, "outbox-worker", a.outboxWorker().String())
	assert.Equal(t, "reminder-emails", a.reminderJob().String())
	assert.Equal(t, "welcome-emails", a.welcomeJob().String())

	res, err := a.welcomeJob().RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Processed)
}

func TestBuildApp_JWTMode(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.Mode = config.AuthModeJWT
	cfg.Auth.JWTSecret = "test-secret"

	a, err := buildApp(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer a.close()
	assert.NotNil(t, a.opts.AuthVerifier)
}

func TestBuildApp_SQLiteOutbox(t *testing.T) {
	cfg := config.Default()
	cfg.Outbox.Driver = "sqlite"
	cfg.Outbox.Path = t.TempDir() + "/outbox.db"

	a, err := buildApp(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer a.close()

	assert.Len(t, a.closers, 1)
	n, err := a.outboxWorker().RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCommands_Registered(t *testing.T) {
	for _, args := range [][]string{{"serve"}, {"migrate"}, {"jobs", "reminders"}, {"jobs", "welcome"}} {
		cmd, _, err := rootCmd.Find(args)
		require.NoError(t, err, args)
		assert.Equal(t, args[len(args)-1], cmd.Name())
	}
}

func TestJobsWelcome_RunsOnce(t *testing.T) {
	t.Setenv(config.ConfigPathEnvVar, "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"jobs", "welcome"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "processed=0 sent=0")
}

func TestMigrate_RequiresDSN(t *testing.T) {
	t.Setenv(config.ConfigPathEnvVar, "")
	t.Setenv("DB_DSN", "")
	t.Setenv("PETREC_DATABASE__DSN", "")

	rootCmd.SetArgs([]string{"migrate"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.dsn")
}
