package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMigrationPart(t *testing.T) {
	content := `
-- +migrate Up
CREATE TABLE pagseguro_payment_history (id bigint);
CREATE INDEX idx_history ON pagseguro_payment_history(id);

-- +migrate Down
DROP TABLE pagseguro_payment_history;
`
	t.Run("Extract Up", func(t *testing.T) {
		up := extractMigrationPart(content, "Up")
		assert.Contains(t, up, "CREATE TABLE pagseguro_payment_history")
		assert.Contains(t, up, "CREATE INDEX idx_history")
		assert.NotContains(t, up, "DROP TABLE")
		assert.NotContains(t, up, "-- +migrate Up")
	})

	t.Run("Extract Down", func(t *testing.T) {
		down := extractMigrationPart(content, "Down")
		assert.Contains(t, down, "DROP TABLE pagseguro_payment_history")
		assert.NotContains(t, down, "CREATE TABLE")
	})
}

func TestRepositoryMigrations(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "migrations", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		content, err := os.ReadFile(f)
		require.NoError(t, err)

		assert.NotEmpty(t, extractMigrationPart(string(content), "Up"), f)
		assert.NotEmpty(t, extractMigrationPart(string(content), "Down"), f)
	}
}

func writeMigration(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunMigrationsUp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tmpDir := t.TempDir()
	applied := writeMigration(t, tmpDir, "20240101_quotes.sql", "-- +migrate Up\nCREATE TABLE quotes (id int);")
	pending := writeMigration(t, tmpDir, "20240102_history.sql", "-- +migrate Up\nCREATE TABLE history (id int);")

	mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
		WithArgs("20240101_quotes.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
		WithArgs("20240102_history.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("CREATE TABLE history").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs("20240102_history.sql").
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, runMigrationsUp(db, []string{applied, pending}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsUp_Failure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	file := writeMigration(t, t.TempDir(), "20240101_bad.sql", "-- +migrate Up\nCREATE TABLE bad (;")

	mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
		WithArgs("20240101_bad.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("CREATE TABLE bad").
		WillReturnError(errors.New("syntax error"))

	err = runMigrationsUp(db, []string{file})
	assert.ErrorContains(t, err, "20240101_bad.sql")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsDown(t *testing.T) {
	t.Run("Rolls Back Latest", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		file := writeMigration(t, t.TempDir(), "20240102_history.sql",
			"-- +migrate Up\nCREATE TABLE history (id int);\n-- +migrate Down\nDROP TABLE history;")

		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("20240102_history.sql"))
		mock.ExpectExec("DROP TABLE history").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM schema_migrations").
			WithArgs("20240102_history.sql").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, runMigrationsDown(db, []string{file}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nothing Applied", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}))

		assert.NoError(t, runMigrationsDown(db, nil))
	})

	t.Run("Missing File", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("gone.sql"))

		assert.ErrorContains(t, runMigrationsDown(db, nil), "gone.sql")
	})
}

func TestRun(t *testing.T) {
	t.Run("Unknown Mode", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorContains(t, run(db, "sideways", t.TempDir()), "unknown mode")
	})

	t.Run("Status Sorted", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		dir := t.TempDir()
		writeMigration(t, dir, "20240102_b.sql", "")
		writeMigration(t, dir, "20240101_a.sql", "")

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("20240101_a.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("20240102_b.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		assert.NoError(t, run(db, "status", dir))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Schema Table Error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
			WillReturnError(errors.New("permission denied"))

		assert.Error(t, run(db, "up", t.TempDir()))
	})
}
