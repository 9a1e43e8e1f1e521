package database

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourflow/tourflow/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.Config{DBUser: "tour", DBPass: "pw", DBHost: "db", DBPort: "3306", DBName: "tourflow"}
	dsn := DSN(cfg)
	assert.True(t, strings.HasPrefix(dsn, "tour:pw@tcp(db:3306)/tourflow?"))
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "multiStatements=true")
	assert.Contains(t, dsn, "clientFoundRows=true")

	cfg.DBPass = ""
	assert.True(t, strings.HasPrefix(DSN(cfg), "tour@tcp("))
}

// Every up migration must have a matching down and versions must be contiguous.
func TestEmbeddedMigrations(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	v, err := src.First()
	require.NoError(t, err)
	var versions []uint
	for {
		versions = append(versions, v)

		up, _, err := src.ReadUp(v)
		require.NoError(t, err, "up %d", v)
		body, _ := io.ReadAll(up)
		up.Close()
		assert.Contains(t, string(body), "CREATE TABLE")

		down, _, err := src.ReadDown(v)
		require.NoError(t, err, "down %d", v)
		down.Close()

		next, err := src.Next(v)
		if errors.Is(err, os.ErrNotExist) {
			break
		}
		require.NoError(t, err)
		v = next
	}
	assert.Equal(t, []uint{1, 2, 3, 4}, versions)
}
