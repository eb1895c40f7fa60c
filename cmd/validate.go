package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"db-cloak/internal/dialect"
	"db-cloak/internal/fieldspec"
	"db-cloak/internal/schema"
)

var validateFieldsFile string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the field definitions against the source schema without copying anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _, err := GetEndpoints()
		if err != nil {
			return err
		}

		specs, err := fieldspec.LoadFile(validateFieldsFile)
		if err != nil {
			return err
		}
		if len(specs) == 0 {
			return fmt.Errorf("no field definitions found in %s", validateFieldsFile)
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

		out := tablewriter.NewWriter(os.Stdout)
		out.SetHeader([]string{"Table", "Column", "Found", "Type", "Class", "Meaning"})

		missing := 0
		for _, g := range groups {
			exists, err := schema.Exists(src, d, srcSchema, g.Table)
			if err != nil {
				return err
			}
			if !exists {
				for _, c := range g.Columns {
					out.Append([]string{g.Table, c, "table missing", "-", "-", "-"})
					missing++
				}
				continue
			}

			tbl, err := schema.Describe(src, d, srcSchema, g.Table)
			if err != nil {
				return err
			}
			for _, c := range g.Columns {
				col := tbl.Column(c)
				if col == nil {
					out.Append([]string{g.Table, c, "no", "-", "-", "-"})
					missing++
					continue
				}
				class := schema.Classify(col.DataType)
				meaning := col.Meaning
				if meaning == "" {
					meaning = "-"
				}
				out.Append([]string{g.Table, c, "yes", col.ColumnType, class.String(), meaning})
			}
		}
		out.Render()

		if missing > 0 {
			return fmt.Errorf("validation failed: %d configured fields could not be resolved", missing)
		}
		log.Info().Int("fields", len(specs)).Msg("All configured fields resolved")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFieldsFile, "fields", "obfuscate_fields.txt", "path to the 'table - column' field definition file")
}
