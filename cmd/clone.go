package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gosuri/uiprogress"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"db-cloak/internal/dialect"
	"db-cloak/internal/engine"
	"db-cloak/internal/fieldspec"
	"db-cloak/internal/obfuscate"
	"db-cloak/internal/schema"
)

var (
	fieldsFile string
	batchSize  int
	realistic  bool
	saltHex    string
)

var cloneCmd = &cobra.Command{
	Use:   "clone",
	Short: "Clone the source database into the destination, obfuscating configured fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, destination, err := GetEndpoints()
		if err != nil {
			return err
		}

		specs, err := fieldspec.LoadFile(fieldsFile)
		if err != nil {
			return err
		}
		if len(specs) == 0 {
			return fmt.Errorf("no field definitions found in %s", fieldsFile)
		}
		groups := fieldspec.GroupByTable(specs)

		driver := driverName()
		d, err := dialect.GetDialect(driver)
		if err != nil {
			return err
		}

		src, srcSchema, err := openEndpoint(source, driver)
		if err != nil {
			return fmt.Errorf("source: %w", err)
		}
		defer src.Close()

		dst, dstSchema, err := openEndpoint(destination, driver)
		if err != nil {
			return fmt.Errorf("destination: %w", err)
		}
		defer dst.Close()

		log.Info().Str("source", srcSchema).Str("destination", dstSchema).
			Int("tables", len(groups)).Msg("Starting clone")

		var opts []obfuscate.Option
		if saltHex != "" {
			salt, err := strconv.ParseUint(saltHex, 16, 64)
			if err != nil {
				return fmt.Errorf("invalid --salt %q: %w", saltHex, err)
			}
			opts = append(opts, obfuscate.WithSalt(salt))
		}
		if realistic {
			opts = append(opts, obfuscate.WithRealistic(true))
		}

		// Best-effort precount for the progress bar.
		total := 0
		for _, g := range groups {
			if ok, err := schema.Exists(src, d, srcSchema, g.Table); err == nil && ok {
				var n int
				if err := src.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QuoteIdentifier(g.Table))).Scan(&n); err == nil {
					total += n
				}
			}
		}
		if total == 0 {
			total = 1
		}

		uiprogress.Start()
		bar := uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return "Cloning: "
		})

		pipeline := &engine.Pipeline{
			Src:        src,
			Dst:        dst,
			Dialect:    d,
			SrcSchema:  srcSchema,
			DstSchema:  dstSchema,
			Obfuscator: obfuscate.New(opts...),
			BatchSize:  batchSize,
			OnRow: func() {
				bar.Incr()
			},
		}

		start := time.Now()
		report := pipeline.Run(context.Background(), groups)
		uiprogress.Stop()

		renderReport(report)
		log.Info().Dur("elapsed", time.Since(start)).Str("status", string(report.Status)).Msg("Clone finished")

		if report.Status == engine.StatusFailed {
			return fmt.Errorf("clone failed: %s", report.Errors[len(report.Errors)-1])
		}
		return nil
	},
}

func renderReport(report *engine.RunReport) {
	fmt.Println("\nSummary Report (configuration order):")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Table", "Rows Read", "Rows Written", "Obfuscated", "Status"})
	for _, t := range report.Tables {
		obfuscated := 0
		for _, n := range t.FieldCounts {
			obfuscated += n
		}
		status := "OK"
		switch {
		case t.Skipped:
			status = "SKIPPED"
		case len(t.Errors) > 0:
			status = "PARTIAL"
		case t.Replaced:
			status = "OK (replaced)"
		}
		table.Append([]string{
			t.Table,
			strconv.Itoa(t.RowsRead),
			strconv.Itoa(t.RowsWritten),
			strconv.Itoa(obfuscated),
			status,
		})
	}
	table.Render()

	for _, t := range report.Tables {
		for _, w := range t.Warnings {
			fmt.Printf("  [warn]  %s: %s\n", t.Table, w)
		}
		for _, e := range t.Errors {
			fmt.Printf("  [error] %s: %s\n", t.Table, e)
		}
	}
	for _, w := range report.Warnings {
		fmt.Printf("  [warn]  %s\n", w)
	}
	for _, e := range report.Errors {
		fmt.Printf("  [error] %s\n", e)
	}

	fmt.Printf("Total rows copied: %d | Status: %s\n", report.TotalRows(), report.Status)
}

func init() {
	RootCmd.AddCommand(cloneCmd)

	cloneCmd.Flags().StringVar(&fieldsFile, "fields", "obfuscate_fields.txt", "path to the 'table - column' field definition file")
	cloneCmd.Flags().IntVar(&batchSize, "batch-size", engine.DefaultBatchSize, "rows per read/write batch")
	cloneCmd.Flags().BoolVar(&realistic, "realistic", false, "replace recognized name/email/phone/address columns with realistic fakes")
	cloneCmd.Flags().StringVar(&saltHex, "salt", "", "hex salt pinning obfuscation across runs (default: random per run)")
}
