package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tidyqa-cli/internal/cleaning"
	"github.com/KaramelBytes/tidyqa-cli/internal/ingest"
	"github.com/KaramelBytes/tidyqa-cli/internal/table"
	"github.com/KaramelBytes/tidyqa-cli/internal/utils"
)

// inputFlags are the ingestion options shared by commands that read a file.
type inputFlags struct {
	delimiter string
	decimal   string
	thousands string
	sheet     string
	maxRows   int
}

func addInputFlags(c *cobra.Command, f *inputFlags) {
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (sniffed if omitted)")
	c.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	c.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	c.Flags().StringVar(&f.sheet, "sheet", "", "XLSX: sheet name (first sheet if omitted)")
	c.Flags().IntVar(&f.maxRows, "max-rows", 0, "maximum rows to read (0 = unlimited)")
}

func (f *inputFlags) options() (ingest.Options, error) {
	opt := ingest.DefaultOptions()
	switch f.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		opt.Number.Decimal = ','
	case ".", "dot":
		opt.Number.Decimal = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		opt.Number.Thousands = ','
	case ".":
		opt.Number.Thousands = '.'
	case "space", " ":
		opt.Number.Thousands = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	opt.Sheet = f.sheet
	opt.MaxRows = f.maxRows
	return opt, nil
}

func (f *inputFlags) read(path string) (*table.Table, error) {
	opt, err := f.options()
	if err != nil {
		return nil, err
	}
	return ingest.ReadFile(path, opt)
}

// cleanFlags override the configured cleaning settings when set.
type cleanFlags struct {
	noDedupe    bool
	noStrip     bool
	noNames     bool
	noDatetimes bool
	numeric     string
	categorical string
	fill        string
}

func addCleanFlags(c *cobra.Command, f *cleanFlags) {
	c.Flags().BoolVar(&f.noDedupe, "no-dedupe", false, "keep duplicate rows")
	c.Flags().BoolVar(&f.noStrip, "no-strip", false, "keep surrounding whitespace in text cells")
	c.Flags().BoolVar(&f.noNames, "no-standardize-names", false, "keep column names as read")
	c.Flags().BoolVar(&f.noDatetimes, "no-datetime", false, "skip datetime inference")
	c.Flags().StringVar(&f.numeric, "numeric", "", "numeric imputation: mean|median|zero")
	c.Flags().StringVar(&f.categorical, "categorical", "", "categorical imputation: most_frequent|constant")
	c.Flags().StringVar(&f.fill, "fill", "", "fill value for the constant strategy")
}

func (f *cleanFlags) apply(cmd *cobra.Command, base cleaning.Config) (cleaning.Config, error) {
	c := base
	fl := cmd.Flags()
	if fl.Changed("no-dedupe") {
		c.DropDuplicates = !f.noDedupe
	}
	if fl.Changed("no-strip") {
		c.StripWhitespace = !f.noStrip
	}
	if fl.Changed("no-standardize-names") {
		c.StandardizeNames = !f.noNames
	}
	if fl.Changed("no-datetime") {
		c.InferDatetimes = !f.noDatetimes
	}
	if f.numeric != "" {
		c.Missing.Numeric = cleaning.NumericStrategy(f.numeric)
	}
	if f.categorical != "" {
		c.Missing.Categorical = cleaning.CategoricalStrategy(f.categorical)
	}
	if fl.Changed("fill") {
		c.Missing.FillConstant = f.fill
	}
	return c, c.Validate()
}

// loadClean reads path and runs the cleaning pipeline over it.
func loadClean(cmd *cobra.Command, in *inputFlags, cf *cleanFlags, path string, log logrus.FieldLogger) (raw, clean *table.Table, err error) {
	ccfg, err := cf.apply(cmd, effectiveConfig().Cleaning)
	if err != nil {
		return nil, nil, err
	}
	raw, err = in.read(path)
	if err != nil {
		return nil, nil, err
	}
	clean = cleaning.Pipeline{Config: ccfg, Log: log}.Run(raw)
	return raw, clean, nil
}

// printTable renders at most n rows of t; n < 0 prints everything.
func printTable(w io.Writer, t *table.Table, n int) {
	header, rows := t.Head(n).Records()
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	for _, r := range rows {
		tw.Append(r)
	}
	tw.Render()
	if n >= 0 && t.NumRows() > n {
		fmt.Fprintf(w, "... %d more rows\n", t.NumRows()-n)
	}
}

// writeTable exports t to path as CSV or XLSX depending on the extension.
func writeTable(path string, t *table.Table) error {
	return utils.SafeWrite(path, func(w io.Writer) error {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xlsx":
			return ingest.WriteXLSX(w, t, "cleaned")
		default:
			return ingest.WriteCSV(w, t)
		}
	})
}
