package database

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	names, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_create_quote_schema.sql", names[0])

	sql, err := migrationFiles.ReadFile("migrations/" + names[0])
	require.NoError(t, err)
	assert.Contains(t, string(sql), "CREATE TABLE IF NOT EXISTS quotes")
}

func TestNewPostgresDB_RequiresURL(t *testing.T) {
	_, err := NewPostgresDB(context.Background(), "")
	require.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	dbURL := os.Getenv("TEST_POSTGRES_DB_URL")
	if dbURL == "" {
		t.Skip("TEST_POSTGRES_DB_URL not set")
	}

	ctx := context.Background()
	db, err := NewPostgresDB(ctx, dbURL, PoolOptions{MaxConns: 2})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Migrate(ctx)
	require.NoError(t, err)

	applied, err := db.Migrate(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied, "second run applies nothing")
	assert.NoError(t, db.Ping(ctx))
}
