package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tidyqa-cli/internal/qa"
	"github.com/KaramelBytes/tidyqa-cli/internal/utils"
)

var (
	intentFormat  string
	intentLLM     bool
	intentColumns []string
)

var intentCmd = &cobra.Command{
	Use:   "intent <question...>",
	Short: "Show how a question is parsed, without loading data",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)
		parser, err := qa.NewParser(effectiveConfig(), intentColumns, intentLLM, log)
		if err != nil {
			return err
		}
		it, err := parser.Parse(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		var b []byte
		switch intentFormat {
		case "json":
			b, err = utils.PrettyJSON(it)
		case "yaml":
			b, err = yaml.Marshal(it)
		default:
			return fmt.Errorf("unsupported --format: %s (use json|yaml)", intentFormat)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(b), "\n"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(intentCmd)
	intentCmd.Flags().StringVar(&intentFormat, "format", "json", "output format: json|yaml")
	intentCmd.Flags().BoolVar(&intentLLM, "llm", false, "parse with the configured LLM (falls back to patterns)")
	intentCmd.Flags().StringSliceVar(&intentColumns, "columns", nil, "column names offered to the LLM")
}
