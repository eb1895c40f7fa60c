package dialect

// Dialect abstracts database-specific SQL generation for introspection,
// schema replication and batched row transfer.
type Dialect interface {
	// Metadata Queries (Schema Introspection)
	TableExistsQuery() string
	ColumnsQuery() string
	ShowCreateQuery(table string) string

	// Schema Replication
	DropTableQuery(table string) string

	// Row Transfer
	SelectPageQuery(table string, cols []string, orderBy string, limit, offset int) string
	InsertQuery(table string, cols []string, rowCount int) string
	Placeholder(index int) string // Returns ?, $1, etc.

	// Helpers
	NormalizeType(sqlType string) string
	QuoteIdentifier(name string) string
}
