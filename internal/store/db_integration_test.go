//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntegration_PostgresKV(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	pg, err := NewStore(url)
	require.NoError(t, err)
	defer pg.Close()
	require.NoError(t, pg.RunMigrations(context.Background()))

	exerciseKV(t, pg)
}
