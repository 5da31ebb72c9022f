package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tidyqa-cli/internal/ingest"
	"github.com/KaramelBytes/tidyqa-cli/internal/query"
	"github.com/KaramelBytes/tidyqa-cli/internal/utils"
)

var (
	queryIn     inputFlags
	queryClean  cleanFlags
	queryFormat string
	queryLimit  int
)

var queryCmd = &cobra.Command{
	Use:     "query <file> <sql...>",
	Short:   "Run SQL against the cleaned table, available as t",
	Example: `  tidyqa query sales.csv "SELECT region, SUM(amount) FROM t GROUP BY 1"`,
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)
		_, t, err := loadClean(cmd, &queryIn, &queryClean, args[0], log)
		if err != nil {
			return err
		}
		limit := effectiveConfig().Query.MaxRows
		if queryLimit > 0 {
			limit = queryLimit
		}
		res, err := query.New(limit, log).Run(cmd.Context(), t, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch queryFormat {
		case "table":
			printTable(out, res.Table, -1)
		case "csv":
			if err := ingest.WriteCSV(out, res.Table); err != nil {
				return err
			}
		case "json":
			b, err := utils.PrettyJSON(res.Table)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		default:
			return fmt.Errorf("unsupported --format: %s (use table|csv|json)", queryFormat)
		}
		if res.Truncated {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: result truncated to %d rows\n", limit)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	addInputFlags(queryCmd, &queryIn)
	addCleanFlags(queryCmd, &queryClean)
	queryCmd.Flags().StringVar(&queryFormat, "format", "table", "output format: table|csv|json")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "maximum result rows (default from config)")
}
