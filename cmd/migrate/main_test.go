package main

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garanley/claims-intake/migrations"
	"github.com/garanley/claims-intake/pkg/logging"
)

type fakeMigrator struct {
	upErr   error
	steps   []int
	forced  []int
	version uint
}

func (f *fakeMigrator) Up() error                    { return f.upErr }
func (f *fakeMigrator) Steps(n int) error            { f.steps = append(f.steps, n); return nil }
func (f *fakeMigrator) Force(v int) error            { f.forced = append(f.forced, v); return nil }
func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, false, nil }

func TestApplyCommands(t *testing.T) {
	logger := logging.Discard()

	m := &fakeMigrator{upErr: migrate.ErrNoChange}
	assert.NoError(t, apply(m, nil, logger))

	m.upErr = errors.New("dirty database")
	assert.Error(t, apply(m, []string{"up"}, logger))

	require.NoError(t, apply(m, []string{"down"}, logger))
	assert.Equal(t, []int{-1}, m.steps)

	require.NoError(t, apply(m, []string{"force", "1"}, logger))
	assert.Equal(t, []int{1}, m.forced)
	assert.Error(t, apply(m, []string{"force"}, logger))
	assert.Error(t, apply(m, []string{"force", "x"}, logger))

	assert.NoError(t, apply(m, []string{"version"}, logger))
	assert.Error(t, apply(m, []string{"sideways"}, logger))
}

func TestRunRequiresDatabaseURL(t *testing.T) {
	assert.Error(t, run(nil, "", logging.Discard()))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups, downs := 0, 0
	for _, n := range names {
		switch {
		case strings.HasSuffix(n, ".up.sql"):
			ups++
		case strings.HasSuffix(n, ".down.sql"):
			downs++
		}
	}
	assert.Equal(t, ups, downs)

	body, err := fs.ReadFile(migrations.FS, "000001_create_leads.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS leads")
}
