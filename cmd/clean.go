package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cleanIn      inputFlags
	cleanOpts    cleanFlags
	cleanOutput  string
	cleanPreview int
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Clean a CSV/XLSX file and preview or export the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)
		raw, clean, err := loadClean(cmd, &cleanIn, &cleanOpts, args[0], log)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Raw: %d rows x %d columns\n", raw.NumRows(), raw.NumCols())
		fmt.Fprintf(out, "Cleaned: %d rows x %d columns\n", clean.NumRows(), clean.NumCols())
		if cleanPreview != 0 {
			printTable(out, clean, cleanPreview)
		}
		if cleanOutput != "" {
			if err := writeTable(cleanOutput, clean); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Wrote cleaned data to %s\n", cleanOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	addInputFlags(cleanCmd, &cleanIn)
	addCleanFlags(cleanCmd, &cleanOpts)
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "write the cleaned table (.csv or .xlsx)")
	cleanCmd.Flags().IntVar(&cleanPreview, "preview", 10, "rows to preview (0 = none, -1 = all)")
}
