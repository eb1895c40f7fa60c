package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"db-cloak/internal/dialect"
)

func TestGetDialect(t *testing.T) {
	d, err := dialect.GetDialect("mysql")
	require.NoError(t, err)
	require.NotNil(t, d)

	d, err = dialect.GetDialect("")
	require.NoError(t, err)
	require.NotNil(t, d)

	_, err = dialect.GetDialect("postgres")
	require.Error(t, err)
}

func TestMysqlInsertQuery(t *testing.T) {
	d := &dialect.MysqlDialect{}

	q := d.InsertQuery("users", []string{"id", "name"}, 1)
	require.Equal(t, "INSERT INTO `users` (`id`, `name`) VALUES (?, ?)", q)

	q = d.InsertQuery("users", []string{"id", "name"}, 3)
	require.Equal(t, "INSERT INTO `users` (`id`, `name`) VALUES (?, ?), (?, ?), (?, ?)", q)
}

func TestMysqlSelectPageQuery(t *testing.T) {
	d := &dialect.MysqlDialect{}

	q := d.SelectPageQuery("users", []string{"id", "name"}, "id", 500, 1000)
	require.Equal(t, "SELECT `id`, `name` FROM `users` ORDER BY `id` LIMIT 500 OFFSET 1000", q)

	// No usable primary key: unordered page.
	q = d.SelectPageQuery("users", []string{"id"}, "", 500, 0)
	require.Equal(t, "SELECT `id` FROM `users` LIMIT 500 OFFSET 0", q)
}

func TestMysqlQuoteIdentifier(t *testing.T) {
	d := &dialect.MysqlDialect{}
	require.Equal(t, "`users`", d.QuoteIdentifier("users"))
	require.Equal(t, "`odd``name`", d.QuoteIdentifier("odd`name"))
}

func TestMysqlDDLQueries(t *testing.T) {
	d := &dialect.MysqlDialect{}
	require.Equal(t, "SHOW CREATE TABLE `users`", d.ShowCreateQuery("users"))
	require.Equal(t, "DROP TABLE IF EXISTS `users`", d.DropTableQuery("users"))
}

func TestGeneratePlaceholders(t *testing.T) {
	d := &dialect.MysqlDialect{}
	require.Equal(t, "?, ?, ?", dialect.GeneratePlaceholders(3, d.Placeholder))
}
