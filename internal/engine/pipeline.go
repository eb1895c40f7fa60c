package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"db-cloak/internal/dialect"
	"db-cloak/internal/fieldspec"
	"db-cloak/internal/obfuscate"
	"db-cloak/internal/schema"
)

const (
	DefaultBatchSize = 1000

	// Row-level warnings are counted in full but only the first few
	// are kept verbatim, so a million bad dates do not flood the report.
	maxRowWarningSamples = 5
)

// Pipeline clones the configured tables from Src to Dst, obfuscating
// the configured columns on the way through.
type Pipeline struct {
	Src, Dst             *sql.DB
	Dialect              dialect.Dialect
	SrcSchema, DstSchema string
	Obfuscator           *obfuscate.Engine
	BatchSize            int
	OnRow                func() // progress callback, invoked per row written
}

// targetField is a configured column resolved against the live schema.
type targetField struct {
	index int // position in the table's column list
	col   *schema.Column
	class schema.SemanticType
}

// Run processes each configured table in configuration order: existence
// check, schema replication, field resolution, then paged copy with
// per-row obfuscation. Missing tables and fields are recorded and
// skipped; a connectivity loss aborts the run.
func (p *Pipeline) Run(ctx context.Context, groups []fieldspec.TableFields) *RunReport {
	collector := NewCollector()
	batchSize := p.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for _, group := range groups {
		tr := collector.StartTable(group.Table)
		log.Info().Str("table", group.Table).Msg("Processing table")

		exists, err := schema.Exists(p.Src, p.Dialect, p.SrcSchema, group.Table)
		if err != nil {
			tr.Skipped = true
			tr.Errorf("failed to check table: %v", err)
			if p.escalate(ctx, collector) {
				break
			}
			continue
		}
		if !exists {
			tr.Skipped = true
			tr.Errorf("table %s not found in source", group.Table)
			log.Error().Str("table", group.Table).Msg("Table not found in source, skipping")
			continue
		}

		tbl, err := schema.Describe(p.Src, p.Dialect, p.SrcSchema, group.Table)
		if err != nil {
			tr.Skipped = true
			tr.Errorf("failed to describe table: %v", err)
			if p.escalate(ctx, collector) {
				break
			}
			continue
		}

		replaced, err := Replicate(ctx, p.Dst, p.Dialect, p.DstSchema, group.Table, tbl.CreateSQL)
		tr.Replaced = replaced
		if err != nil {
			tr.Skipped = true
			tr.Errorf("schema replication failed: %v", err)
			if p.escalate(ctx, collector) {
				break
			}
			continue
		}
		if replaced {
			log.Warn().Str("table", group.Table).Msg("Replaced existing destination table")
		}

		targets := p.resolveFields(tbl, group.Columns, tr)

		if err := p.copyTable(ctx, tbl, targets, batchSize, tr); err != nil {
			tr.Errorf("%v", err)
			if p.escalate(ctx, collector) {
				break
			}
			continue
		}

		log.Info().
			Str("table", group.Table).
			Int("rows", tr.RowsWritten).
			Msg("Table completed")
	}

	return collector.Finalize()
}

// resolveFields validates each configured column against the live
// schema and resolves its semantic class. Missing columns and columns
// that resolve to the opaque class are excluded and reported; the table
// is still copied with those columns verbatim.
func (p *Pipeline) resolveFields(tbl *schema.Table, columns []string, tr *TableReport) []targetField {
	var targets []targetField
	for _, name := range columns {
		col := tbl.Column(name)
		if col == nil {
			tr.Errorf("field %s not found in table %s", name, tbl.Name)
			log.Error().Str("table", tbl.Name).Str("column", name).Msg("Configured field not found, copying verbatim")
			continue
		}
		class := schema.Classify(col.DataType)
		if class == schema.Opaque {
			tr.Warnf("field %s has unsupported type %s, copied verbatim", name, col.DataType)
			log.Warn().Str("table", tbl.Name).Str("column", name).Str("type", col.DataType).
				Msg("Configured field resolved to opaque class, copying verbatim")
			continue
		}
		for i, c := range tbl.Columns {
			if c == col {
				targets = append(targets, targetField{index: i, col: col, class: class})
				break
			}
		}
		log.Debug().Str("table", tbl.Name).Str("column", name).Stringer("class", class).Msg("Field resolved")
	}
	return targets
}

// copyTable streams the table in fixed-size pages, obfuscates the
// resolved fields per row, and writes each page as one batched insert.
// A failed batch is recorded with the rows written so far and the copy
// continues with the next page.
func (p *Pipeline) copyTable(ctx context.Context, tbl *schema.Table, targets []targetField, batchSize int, tr *TableReport) error {
	cols := tbl.ColumnNames()
	orderBy := tbl.PrimaryKey()
	rowWarnings := 0

	for offset := 0; ; offset += batchSize {
		query := p.Dialect.SelectPageQuery(tbl.Name, cols, orderBy, batchSize, offset)
		batch, err := p.readBatch(ctx, query, len(cols))
		if err != nil {
			return fmt.Errorf("batch read failed at offset %d: %w", offset, err)
		}
		if len(batch) == 0 {
			break
		}
		tr.RowsRead += len(batch)

		for _, row := range batch {
			for _, t := range targets {
				cell := row[t.index]
				if cell == nil {
					continue
				}
				value := cell.(string)
				out, ok := p.Obfuscator.Obfuscate(tbl.Name, t.col.Name, value, t.class, t.col.Meaning, t.col.Length)
				if !ok {
					rowWarnings++
					if rowWarnings <= maxRowWarningSamples {
						tr.Warnf("value in %s.%s not parseable as %s, copied verbatim", tbl.Name, t.col.Name, t.class)
					}
					continue
				}
				if value != "" {
					tr.FieldCounts[t.col.Name]++
				}
				row[t.index] = out
			}
		}

		if err := p.writeBatch(ctx, tbl.Name, cols, batch); err != nil {
			tr.Errorf("batch write failed at offset %d after %d rows written: %v", offset, tr.RowsWritten, err)
			log.Error().Err(err).Str("table", tbl.Name).Int("offset", offset).Msg("Batch write failed, continuing with next batch")
			// A failed batch on a live connection is table-local; a
			// failed batch on a dead connection must abort the run.
			if pingErr := p.pingConnections(ctx); pingErr != nil {
				return pingErr
			}
		} else {
			tr.RowsWritten += len(batch)
			if p.OnRow != nil {
				for range batch {
					p.OnRow()
				}
			}
		}

		if len(batch) < batchSize {
			break
		}
	}

	if rowWarnings > maxRowWarningSamples {
		tr.Warnf("%d additional row-level warnings suppressed", rowWarnings-maxRowWarningSamples)
	}
	return nil
}

// readBatch scans one page of rows. Every cell comes back as either
// nil or its string form; the MySQL driver hands most values over as
// raw bytes, which is exactly the representation the transforms want.
func (p *Pipeline) readBatch(ctx context.Context, query string, colCount int) ([][]interface{}, error) {
	rows, err := p.Src.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batch [][]interface{}
	raw := make([]sql.RawBytes, colCount)
	scanArgs := make([]interface{}, colCount)
	for i := range raw {
		scanArgs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, err
		}
		row := make([]interface{}, colCount)
		for i, rb := range raw {
			if rb == nil {
				row[i] = nil
			} else {
				row[i] = string(rb)
			}
		}
		batch = append(batch, row)
	}
	return batch, rows.Err()
}

// writeBatch inserts one page in a single multi-row statement.
func (p *Pipeline) writeBatch(ctx context.Context, table string, cols []string, batch [][]interface{}) error {
	query := p.Dialect.InsertQuery(table, cols, len(batch))
	args := make([]interface{}, 0, len(batch)*len(cols))
	for _, row := range batch {
		args = append(args, row...)
	}
	_, err := p.Dst.ExecContext(ctx, query, args...)
	return err
}

// escalate distinguishes a table-local failure from a dead connection.
// Called after any table-level error; when either connection no longer
// answers a ping the error is fatal and the run stops, keeping whatever
// was committed so far.
func (p *Pipeline) escalate(ctx context.Context, collector *Collector) bool {
	if err := p.pingConnections(ctx); err != nil {
		collector.Fatal(err)
		return true
	}
	return false
}

func (p *Pipeline) pingConnections(ctx context.Context) error {
	if err := p.Src.PingContext(ctx); err != nil {
		return fmt.Errorf("lost source connection: %w", err)
	}
	if err := p.Dst.PingContext(ctx); err != nil {
		return fmt.Errorf("lost destination connection: %w", err)
	}
	return nil
}
