package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tidyqa-cli/internal/chart"
	"github.com/KaramelBytes/tidyqa-cli/internal/qa"
	"github.com/KaramelBytes/tidyqa-cli/internal/query"
	"github.com/KaramelBytes/tidyqa-cli/internal/utils"
)

var (
	askIn    inputFlags
	askClean cleanFlags
	askLLM   bool
	askJSON  bool
)

var askCmd = &cobra.Command{
	Use:   "ask <file> <question...>",
	Short: "Ask a question about a cleaned dataset",
	Long: `Ask a question about a file after cleaning it. Understood forms:
  distribution of <column>
  relationship between <column> and <column>
  average of <column> by <column>
  summary | describe | stats`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)
		_, t, err := loadClean(cmd, &askIn, &askClean, args[0], log)
		if err != nil {
			return err
		}
		c := effectiveConfig()
		useLLM := c.QA.LLMEnabled
		if cmd.Flags().Changed("llm") {
			useLLM = askLLM
		}
		parser, err := qa.NewParser(c, t.Names(), useLLM, log)
		if err != nil {
			return err
		}
		d := qa.NewDispatcher(log)
		d.Parser = parser
		d.Executor = query.New(c.Query.MaxRows, log)

		ans, err := d.Ask(cmd.Context(), t, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		if ans.Report != nil {
			ans.Report.Name = filepath.Base(args[0])
		}
		out := cmd.OutOrStdout()
		if askJSON {
			b, err := utils.PrettyJSON(ans)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		return printAnswer(out, ans)
	},
}

func printAnswer(w io.Writer, ans *qa.Answer) error {
	switch {
	case ans.Chart != nil:
		return chart.Render(w, ans.Chart)
	case ans.Table != nil:
		fmt.Fprintln(w, ans.Intent.Query)
		printTable(w, ans.Table, -1)
	case ans.Report != nil:
		fmt.Fprintln(w, ans.Report.Markdown())
	default:
		fmt.Fprintln(w, ans.Message)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(askCmd)
	addInputFlags(askCmd, &askIn)
	addCleanFlags(askCmd, &askClean)
	askCmd.Flags().BoolVar(&askLLM, "llm", false, "parse the question with the configured LLM (falls back to patterns)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the answer as JSON")
}
