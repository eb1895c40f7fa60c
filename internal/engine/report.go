package engine

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusOK      Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// TableReport holds the outcome of one table's clone.
type TableReport struct {
	Table       string
	Skipped     bool
	Replaced    bool // destination table was dropped before recreation
	RowsRead    int
	RowsWritten int
	FieldCounts map[string]int // column -> values obfuscated
	Errors      []string
	Warnings    []string
}

func (t *TableReport) Errorf(format string, args ...interface{}) {
	t.Errors = append(t.Errors, fmt.Sprintf(format, args...))
}

func (t *TableReport) Warnf(format string, args ...interface{}) {
	t.Warnings = append(t.Warnings, fmt.Sprintf(format, args...))
}

// RunReport is the structured outcome of one full run. Table order
// matches configuration order. Immutable once finalized.
type RunReport struct {
	Tables   []*TableReport
	Errors   []string
	Warnings []string
	Status   Status
	Started  time.Time
	Elapsed  time.Duration
}

// TotalRows returns the number of rows written across all tables.
func (r *RunReport) TotalRows() int {
	total := 0
	for _, t := range r.Tables {
		total += t.RowsWritten
	}
	return total
}

// Collector accumulates table outcomes and global errors during a run
// and produces the final RunReport.
type Collector struct {
	report    *RunReport
	fatal     bool
	finalized bool
}

func NewCollector() *Collector {
	return &Collector{
		report: &RunReport{Started: time.Now()},
	}
}

// StartTable registers a table in processing order and returns its
// report for the pipeline to fill in.
func (c *Collector) StartTable(name string) *TableReport {
	tr := &TableReport{
		Table:       name,
		FieldCounts: make(map[string]int),
	}
	c.report.Tables = append(c.report.Tables, tr)
	return tr
}

func (c *Collector) Errorf(format string, args ...interface{}) {
	c.report.Errors = append(c.report.Errors, fmt.Sprintf(format, args...))
}

func (c *Collector) Warnf(format string, args ...interface{}) {
	c.report.Warnings = append(c.report.Warnings, fmt.Sprintf(format, args...))
}

// Fatal records an error that aborts the run.
func (c *Collector) Fatal(err error) {
	c.fatal = true
	c.report.Errors = append(c.report.Errors, fmt.Sprintf("fatal: %v", err))
}

// Finalize computes the overall status and seals the report. Further
// collector calls after Finalize are programming errors and panic.
func (c *Collector) Finalize() *RunReport {
	if c.finalized {
		panic("engine: report already finalized")
	}
	c.finalized = true
	c.report.Elapsed = time.Since(c.report.Started)

	switch {
	case c.fatal:
		c.report.Status = StatusFailed
	case c.hasTableErrors():
		c.report.Status = StatusPartial
	default:
		c.report.Status = StatusOK
	}
	return c.report
}

func (c *Collector) hasTableErrors() bool {
	if len(c.report.Errors) > 0 {
		return true
	}
	for _, t := range c.report.Tables {
		if len(t.Errors) > 0 {
			return true
		}
	}
	return false
}
