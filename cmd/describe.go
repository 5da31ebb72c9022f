package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tidyqa-cli/internal/analysis"
	"github.com/KaramelBytes/tidyqa-cli/internal/table"
	"github.com/KaramelBytes/tidyqa-cli/internal/utils"
)

var (
	descIn        inputFlags
	descClean     cleanFlags
	descRaw       bool
	descFormat    string
	descOutDir    string
	descSample    int
	descTop       int
	descGroupBy   []string
	descCorr      bool
	descOutliers  bool
	descOutlierTh float64
	descJobs      int
	descQuiet     bool
)

var describeCmd = &cobra.Command{
	Use:   "describe <files...>",
	Short: "Write a quick-stats report for one or more files",
	Long: `Describe cleans each file (unless --raw) and produces a summary of every
column: counts, missing values, top values, numeric quantiles, MAD outliers,
optional group-by means and correlations. Files are processed concurrently.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandFiles(args)
		if err != nil {
			return err
		}
		switch descFormat {
		case "md", "markdown", "html":
		default:
			return fmt.Errorf("unsupported --format: %s (use md|html)", descFormat)
		}
		opt := analysis.DefaultOptions()
		opt.SampleRows = descSample
		opt.TopValues = descTop
		opt.GroupBy = descGroupBy
		opt.Correlations = descCorr
		opt.Outliers = descOutliers
		if descOutlierTh > 0 {
			opt.OutlierThreshold = descOutlierTh
		}
		log := newLogger(cmd)

		reports := make([]string, len(files))
		jobs := descJobs
		if jobs < 1 {
			jobs = 1
		}
		var g errgroup.Group
		g.SetLimit(jobs)
		for i, path := range files {
			i, path := i, path
			g.Go(func() error {
				var t *table.Table
				var err error
				if descRaw {
					t, err = descIn.read(path)
				} else {
					_, t, err = loadClean(cmd, &descIn, &descClean, path, log.WithField("file", path))
				}
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				rep := analysis.Describe(t, filepath.Base(path), opt)
				if descFormat == "html" {
					reports[i] = rep.HTML()
				} else {
					reports[i] = rep.Markdown()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if descOutDir == "" {
			for _, r := range reports {
				fmt.Fprintln(out, r)
			}
			return nil
		}
		ext := ".summary.md"
		if descFormat == "html" {
			ext = ".summary.html"
		}
		used := map[string]bool{}
		for i, path := range files {
			dest := reportPath(descOutDir, path, ext, used)
			if err := utils.SafeWriteFile(dest, []byte(reports[i])); err != nil {
				return err
			}
			if !descQuiet {
				fmt.Fprintf(out, "✓ [%d/%d] Wrote %s\n", i+1, len(files), dest)
			}
		}
		return nil
	},
}

// expandFiles resolves globs, keeps literal paths that exist, and dedupes.
func expandFiles(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// reportPath picks <dir>/<base><ext>, adding __2, __3... when two inputs
// share a base name or the file already exists.
func reportPath(dir, path, ext string, used map[string]bool) string {
	base := filepath.Base(path)
	safe := strings.TrimSuffix(base, filepath.Ext(base))
	dest := filepath.Join(dir, safe+ext)
	for idx := 2; used[dest] || exists(dest); idx++ {
		dest = filepath.Join(dir, fmt.Sprintf("%s__%d%s", safe, idx, ext))
	}
	used[dest] = true
	return dest
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func init() {
	rootCmd.AddCommand(describeCmd)
	addInputFlags(describeCmd, &descIn)
	addCleanFlags(describeCmd, &descClean)
	describeCmd.Flags().BoolVar(&descRaw, "raw", false, "describe the file as read, without cleaning")
	describeCmd.Flags().StringVar(&descFormat, "format", "md", "report format: md|html")
	describeCmd.Flags().StringVarP(&descOutDir, "output-dir", "o", "", "write one report per file into this directory")
	describeCmd.Flags().IntVar(&descSample, "sample-rows", 5, "number of head rows to include")
	describeCmd.Flags().IntVar(&descTop, "top-values", 5, "most frequent values listed per text column")
	describeCmd.Flags().StringSliceVar(&descGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	describeCmd.Flags().BoolVar(&descCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	describeCmd.Flags().BoolVar(&descOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	describeCmd.Flags().Float64Var(&descOutlierTh, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	describeCmd.Flags().IntVarP(&descJobs, "jobs", "j", runtime.NumCPU(), "files processed concurrently")
	describeCmd.Flags().BoolVar(&descQuiet, "quiet", false, "suppress progress output")
}
