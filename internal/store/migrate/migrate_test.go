package migrate

import (
	"io/fs"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idbroker/internal/domain/repository"
	pgmigrations "github.com/dropDatabas3/idbroker/migrations/postgres"
)

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("up")
	require.NoError(t, err)
	assert.Equal(t, Up, d)

	_, err = ParseDirection("sideways")
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestRunRequiresDSN(t *testing.T) {
	err := Run("", Up)
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(pgmigrations.FS, "*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(pgmigrations.FS, "*.down.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))

	src, err := iofs.New(pgmigrations.FS, ".")
	require.NoError(t, err)
	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)
}
