package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"db-cloak/internal/dialect"
	"db-cloak/internal/fieldspec"
	"db-cloak/internal/obfuscate"
)

const (
	existsQuery  = "SELECT COUNT(*) FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND TABLE_TYPE = 'BASE TABLE'"
	columnsQuery = "SELECT COLUMN_NAME, DATA_TYPE, COLUMN_TYPE, CHARACTER_MAXIMUM_LENGTH, IS_NULLABLE, COLUMN_KEY, EXTRA, COLUMN_COMMENT FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION"

	usersCreateSQL = "CREATE TABLE `users` (`id` int NOT NULL, `first_name` varchar(50), `email` varchar(100), PRIMARY KEY (`id`))"
)

func newMockPair(t *testing.T) (*Pipeline, sqlmock.Sqlmock, sqlmock.Sqlmock) {
	t.Helper()

	src, srcMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual), sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })

	dst, dstMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual), sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { dst.Close() })

	p := &Pipeline{
		Src:        src,
		Dst:        dst,
		Dialect:    &dialect.MysqlDialect{},
		SrcSchema:  "src",
		DstSchema:  "dst",
		Obfuscator: obfuscate.New(obfuscate.WithSalt(1)),
		BatchSize:  10,
	}
	return p, srcMock, dstMock
}

func usersColumnRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"COLUMN_NAME", "DATA_TYPE", "COLUMN_TYPE", "CHARACTER_MAXIMUM_LENGTH",
		"IS_NULLABLE", "COLUMN_KEY", "EXTRA", "COLUMN_COMMENT",
	}).
		AddRow("id", "int", "int(11)", nil, "NO", "PRI", "auto_increment", "").
		AddRow("first_name", "varchar", "varchar(50)", "50", "YES", "", "", "").
		AddRow("email", "varchar", "varchar(100)", "100", "YES", "", "", "")
}

// A missing table is reported and skipped while the valid table is
// fully cloned; a missing configured field is reported while the rest
// of its table still copies.
func TestPipelinePartialFailureContainment(t *testing.T) {
	p, srcMock, dstMock := newMockPair(t)

	srcMock.ExpectQuery(existsQuery).WithArgs("src", "ghost").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	srcMock.ExpectQuery(existsQuery).WithArgs("src", "users").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	srcMock.ExpectQuery(columnsQuery).WithArgs("src", "users").
		WillReturnRows(usersColumnRows())
	srcMock.ExpectQuery("SHOW CREATE TABLE `users`").
		WillReturnRows(sqlmock.NewRows([]string{"Table", "Create Table"}).AddRow("users", usersCreateSQL))

	dstMock.ExpectQuery(existsQuery).WithArgs("dst", "users").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	dstMock.ExpectExec("DROP TABLE IF EXISTS `users`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	dstMock.ExpectExec(usersCreateSQL).
		WillReturnResult(sqlmock.NewResult(0, 0))

	srcMock.ExpectQuery("SELECT `id`, `first_name`, `email` FROM `users` ORDER BY `id` LIMIT 10 OFFSET 0").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "email"}).
			AddRow("1", "Alice", "alice@x.com").
			AddRow("2", "Bob", nil))

	// Untouched columns and NULLs arrive verbatim; the configured
	// column arrives transformed.
	dstMock.ExpectExec("INSERT INTO `users` (`id`, `first_name`, `email`) VALUES (?, ?, ?), (?, ?, ?)").
		WithArgs("1", sqlmock.AnyArg(), "alice@x.com", "2", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(0, 2))

	groups := []fieldspec.TableFields{
		{Table: "ghost", Columns: []string{"secret"}},
		{Table: "users", Columns: []string{"first_name", "ghost_col"}},
	}

	report := p.Run(context.Background(), groups)

	require.Equal(t, StatusPartial, report.Status)
	require.Len(t, report.Tables, 2)

	ghost := report.Tables[0]
	require.True(t, ghost.Skipped)
	require.Contains(t, ghost.Errors[0], "not found in source")
	require.Zero(t, ghost.RowsWritten)

	users := report.Tables[1]
	require.False(t, users.Skipped)
	require.True(t, users.Replaced)
	require.Equal(t, 2, users.RowsRead)
	require.Equal(t, 2, users.RowsWritten)
	require.Equal(t, 2, users.FieldCounts["first_name"])
	require.Contains(t, users.Errors[0], "field ghost_col not found")

	require.NoError(t, srcMock.ExpectationsWereMet())
	require.NoError(t, dstMock.ExpectationsWereMet())
}

// A failed batch write is recorded with the rows written so far and
// the copy continues with the next batch.
func TestPipelineBatchFailureContinues(t *testing.T) {
	p, srcMock, dstMock := newMockPair(t)
	p.BatchSize = 1

	srcMock.ExpectQuery(existsQuery).WithArgs("src", "users").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	srcMock.ExpectQuery(columnsQuery).WithArgs("src", "users").
		WillReturnRows(usersColumnRows())
	srcMock.ExpectQuery("SHOW CREATE TABLE `users`").
		WillReturnRows(sqlmock.NewRows([]string{"Table", "Create Table"}).AddRow("users", usersCreateSQL))

	dstMock.ExpectQuery(existsQuery).WithArgs("dst", "users").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	dstMock.ExpectExec("DROP TABLE IF EXISTS `users`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	dstMock.ExpectExec(usersCreateSQL).
		WillReturnResult(sqlmock.NewResult(0, 0))

	insertOne := "INSERT INTO `users` (`id`, `first_name`, `email`) VALUES (?, ?, ?)"

	srcMock.ExpectQuery("SELECT `id`, `first_name`, `email` FROM `users` ORDER BY `id` LIMIT 1 OFFSET 0").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "email"}).AddRow("1", "Alice", "a@x.com"))
	dstMock.ExpectExec(insertOne).WillReturnError(errors.New("duplicate entry"))
	srcMock.ExpectPing()
	dstMock.ExpectPing()

	srcMock.ExpectQuery("SELECT `id`, `first_name`, `email` FROM `users` ORDER BY `id` LIMIT 1 OFFSET 1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "email"}).AddRow("2", "Bob", "b@x.com"))
	dstMock.ExpectExec(insertOne).WillReturnResult(sqlmock.NewResult(0, 1))

	srcMock.ExpectQuery("SELECT `id`, `first_name`, `email` FROM `users` ORDER BY `id` LIMIT 1 OFFSET 2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "email"}))

	groups := []fieldspec.TableFields{{Table: "users", Columns: []string{"first_name"}}}
	report := p.Run(context.Background(), groups)

	require.Equal(t, StatusPartial, report.Status)
	users := report.Tables[0]
	require.Equal(t, 2, users.RowsRead)
	require.Equal(t, 1, users.RowsWritten)
	require.Contains(t, users.Errors[0], "batch write failed")

	require.NoError(t, srcMock.ExpectationsWereMet())
	require.NoError(t, dstMock.ExpectationsWereMet())
}

// A batch write failing because the destination connection died must
// abort the run as failed, not grind through the remaining batches and
// tables recording errors.
func TestPipelineDeadDestinationDuringWriteIsFatal(t *testing.T) {
	p, srcMock, dstMock := newMockPair(t)

	srcMock.ExpectQuery(existsQuery).WithArgs("src", "users").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	srcMock.ExpectQuery(columnsQuery).WithArgs("src", "users").
		WillReturnRows(usersColumnRows())
	srcMock.ExpectQuery("SHOW CREATE TABLE `users`").
		WillReturnRows(sqlmock.NewRows([]string{"Table", "Create Table"}).AddRow("users", usersCreateSQL))

	dstMock.ExpectQuery(existsQuery).WithArgs("dst", "users").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	dstMock.ExpectExec("DROP TABLE IF EXISTS `users`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	dstMock.ExpectExec(usersCreateSQL).
		WillReturnResult(sqlmock.NewResult(0, 0))

	srcMock.ExpectQuery("SELECT `id`, `first_name`, `email` FROM `users` ORDER BY `id` LIMIT 10 OFFSET 0").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "email"}).
			AddRow("1", "Alice", "a@x.com").
			AddRow("2", "Bob", "b@x.com"))

	connLost := errors.New("broken pipe: connection lost")
	dstMock.ExpectExec("INSERT INTO `users` (`id`, `first_name`, `email`) VALUES (?, ?, ?), (?, ?, ?)").
		WillReturnError(connLost)

	// The failed write triggers a connectivity check, and the
	// escalation path re-checks before finalizing as fatal.
	srcMock.ExpectPing()
	dstMock.ExpectPing().WillReturnError(connLost)
	srcMock.ExpectPing()
	dstMock.ExpectPing().WillReturnError(connLost)

	groups := []fieldspec.TableFields{
		{Table: "users", Columns: []string{"first_name"}},
		{Table: "orders", Columns: []string{"address"}},
	}
	report := p.Run(context.Background(), groups)

	require.Equal(t, StatusFailed, report.Status)
	require.Len(t, report.Tables, 1)
	require.Contains(t, report.Errors[0], "lost destination connection")

	users := report.Tables[0]
	require.Contains(t, users.Errors[0], "batch write failed")
	require.Zero(t, users.RowsWritten)

	require.NoError(t, srcMock.ExpectationsWereMet())
	require.NoError(t, dstMock.ExpectationsWereMet())
}

// A configured field whose declared type resolves to the opaque class
// is reported as a warning and copied verbatim; the rest of the table
// is unaffected.
func TestPipelineOpaqueFieldCopiedVerbatim(t *testing.T) {
	p, srcMock, dstMock := newMockPair(t)

	profilesCreateSQL := "CREATE TABLE `profiles` (`id` int NOT NULL, `payload` json, PRIMARY KEY (`id`))"

	srcMock.ExpectQuery(existsQuery).WithArgs("src", "profiles").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	srcMock.ExpectQuery(columnsQuery).WithArgs("src", "profiles").
		WillReturnRows(sqlmock.NewRows([]string{
			"COLUMN_NAME", "DATA_TYPE", "COLUMN_TYPE", "CHARACTER_MAXIMUM_LENGTH",
			"IS_NULLABLE", "COLUMN_KEY", "EXTRA", "COLUMN_COMMENT",
		}).
			AddRow("id", "int", "int(11)", nil, "NO", "PRI", "", "").
			AddRow("payload", "json", "json", nil, "YES", "", "", ""))
	srcMock.ExpectQuery("SHOW CREATE TABLE `profiles`").
		WillReturnRows(sqlmock.NewRows([]string{"Table", "Create Table"}).AddRow("profiles", profilesCreateSQL))

	dstMock.ExpectQuery(existsQuery).WithArgs("dst", "profiles").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	dstMock.ExpectExec("DROP TABLE IF EXISTS `profiles`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	dstMock.ExpectExec(profilesCreateSQL).
		WillReturnResult(sqlmock.NewResult(0, 0))

	srcMock.ExpectQuery("SELECT `id`, `payload` FROM `profiles` ORDER BY `id` LIMIT 10 OFFSET 0").
		WillReturnRows(sqlmock.NewRows([]string{"id", "payload"}).
			AddRow("1", `{"city":"Milano"}`))

	// The json column arrives byte-for-byte untouched.
	dstMock.ExpectExec("INSERT INTO `profiles` (`id`, `payload`) VALUES (?, ?)").
		WithArgs("1", `{"city":"Milano"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	groups := []fieldspec.TableFields{{Table: "profiles", Columns: []string{"payload"}}}
	report := p.Run(context.Background(), groups)

	require.Equal(t, StatusOK, report.Status)

	profiles := report.Tables[0]
	require.Equal(t, 1, profiles.RowsWritten)
	require.Empty(t, profiles.Errors)
	require.Len(t, profiles.Warnings, 1)
	require.Contains(t, profiles.Warnings[0], "unsupported type json")
	require.Empty(t, profiles.FieldCounts)

	require.NoError(t, srcMock.ExpectationsWereMet())
	require.NoError(t, dstMock.ExpectationsWereMet())
}

// A dead connection escalates to fatal: the run stops and remaining
// tables are never started.
func TestPipelineConnectionLossIsFatal(t *testing.T) {
	p, srcMock, dstMock := newMockPair(t)
	_ = dstMock

	srcMock.ExpectQuery(existsQuery).WithArgs("src", "users").
		WillReturnError(errors.New("connection refused"))
	srcMock.ExpectPing().WillReturnError(errors.New("connection refused"))

	groups := []fieldspec.TableFields{
		{Table: "users", Columns: []string{"first_name"}},
		{Table: "orders", Columns: []string{"address"}},
	}
	report := p.Run(context.Background(), groups)

	require.Equal(t, StatusFailed, report.Status)
	require.Len(t, report.Tables, 1)
	require.Contains(t, report.Errors[0], "lost source connection")

	require.NoError(t, srcMock.ExpectationsWereMet())
}
