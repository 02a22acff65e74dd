package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"practice-service/internal/adaptive"
	"practice-service/internal/config"
	"practice-service/internal/logger"
	"practice-service/internal/models"
	"practice-service/internal/repository/sqlstore"
	"practice-service/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteEnv(t *testing.T) string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "practice.db")
	t.Setenv("STORAGE_DRIVER", config.DriverSQLite)
	t.Setenv("DATABASE_DSN", dsn)
	t.Setenv("LOG_MODE", "development")
	return dsn
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestMigrateAndProgressOnSQLite(t *testing.T) {
	dsn := sqliteEnv(t)

	_, err := run(t, "migrate")
	require.NoError(t, err)

	db, err := sqlstore.Open(config.DriverSQLite, dsn, logger.NewNop())
	require.NoError(t, err)
	mastery := sqlstore.NewMasteryStore(db, adaptive.NewManager(nil))
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, correct := range []bool{true, false} {
		_, err := mastery.Upsert(context.Background(), models.MasteryUpdate{
			UserID: "u1", Topic: "Fractions", Correct: correct, PracticedAt: at,
		})
		require.NoError(t, err)
	}
	require.NoError(t, sqlstore.Close(db))

	out, err := run(t, "progress", "--user", "u1")
	require.NoError(t, err)

	var report service.ProgressReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Topics, 1)
	assert.Equal(t, "Fractions", report.Topics[0].Topic)
	assert.Equal(t, 2, report.Topics[0].QuestionsAttempted)
	assert.InDelta(t, 0.5, report.Topics[0].MasteryLevel, 1e-9)
	require.NotNil(t, report.Summary)
	assert.Equal(t, []string{"Fractions"}, report.Summary.WeakTopics)
}

func TestProgressRequiresUser(t *testing.T) {
	sqliteEnv(t)
	_, err := run(t, "progress", "--user", "")
	assert.Error(t, err)
}

func TestUnsupportedDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "cassandra")
	_, err := run(t, "migrate")
	assert.Error(t, err)
}
