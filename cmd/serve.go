package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tidyqa-cli/internal/server"
	"github.com/KaramelBytes/tidyqa-cli/internal/session"
)

var (
	serveAddr     string
	serveUploadMB int
	serveLLM      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve the session API: upload a file to POST /api/sessions, then clean,
preview, preprocess, ask, query, describe and export it under
/api/sessions/{id}. Sessions live in memory until the process exits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *effectiveConfig()
		if serveAddr != "" {
			c.Server.Addr = serveAddr
		}
		if serveUploadMB > 0 {
			c.Server.MaxUploadMB = serveUploadMB
		}
		if cmd.Flags().Changed("llm") {
			c.QA.LLMEnabled = serveLLM
		}
		log := newLogger(cmd)
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Listening on http://%s\n", c.Server.Addr)
		return server.New(&c, session.NewStore(log), log).ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().IntVar(&serveUploadMB, "max-upload-mb", 0, "upload size limit in MB (default from config)")
	serveCmd.Flags().BoolVar(&serveLLM, "llm", false, "parse questions with the configured LLM by default")
}
