package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tidyqa-cli/internal/preprocess"
	"github.com/KaramelBytes/tidyqa-cli/internal/table"
	"github.com/KaramelBytes/tidyqa-cli/internal/utils"
)

var (
	ppIn       inputFlags
	ppClean    cleanFlags
	ppEncoder  string
	ppScaler   string
	ppTarget   string
	ppNoEncode bool
	ppNoScale  bool
	ppSplit    bool
	ppTestSize float64
	ppSeed     int64
	ppOutput   string
	ppPreview  int
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess <file>",
	Short: "Clean, then encode categoricals and scale numeric columns",
	Long: `Clean a file, then encode categorical columns (onehot, target or ordinal)
and scale numeric columns (standard, minmax or robust). With --split the result
is partitioned into train and test sets written next to --output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pcfg := effectiveConfig().Preprocessing
		fl := cmd.Flags()
		if ppEncoder != "" {
			pcfg.Encoder = preprocess.EncoderKind(ppEncoder)
		}
		if ppScaler != "" {
			pcfg.Scaler = preprocess.ScalerKind(ppScaler)
		}
		if fl.Changed("target") {
			pcfg.Target = ppTarget
		}
		if ppNoEncode {
			pcfg.Encode = false
		}
		if ppNoScale {
			pcfg.Scale = false
		}
		if err := pcfg.Validate(); err != nil {
			return err
		}
		if ppSplit && ppOutput == "" {
			return fmt.Errorf("--split requires --output")
		}

		log := newLogger(cmd)
		_, t, err := loadClean(cmd, &ppIn, &ppClean, args[0], log)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if pcfg.Encode {
			enc, e, err := preprocess.Encode(t, pcfg.Encoder, pcfg.Target)
			if err != nil {
				return err
			}
			t = enc
			if e == nil {
				fmt.Fprintln(out, "No categorical columns to encode")
			} else {
				fmt.Fprintf(out, "Encoded (%s): %v\n", e.Kind(), e.Columns())
			}
		}
		if pcfg.Scale {
			scaled, s, err := preprocess.Scale(t, pcfg.Scaler)
			if err != nil {
				return err
			}
			t = scaled
			if s == nil {
				fmt.Fprintln(out, "No numeric columns to scale")
			} else {
				fmt.Fprintf(out, "Scaled (%s): %v\n", s.Kind(), s.Columns())
			}
		}
		fmt.Fprintf(out, "Result: %d rows x %d columns\n", t.NumRows(), t.NumCols())
		if ppPreview != 0 {
			printTable(out, t, ppPreview)
		}

		if !ppSplit {
			if ppOutput != "" {
				if err := writeTable(ppOutput, t); err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Wrote preprocessed data to %s\n", ppOutput)
			}
			return nil
		}

		sp, err := preprocess.TrainTestSplit(t, pcfg.Target, ppTestSize, ppSeed)
		if err != nil {
			return err
		}
		trainPath, testPath := utils.WithSuffix(ppOutput, "train"), utils.WithSuffix(ppOutput, "test")
		if err := writeTable(trainPath, withTarget(sp.Train, sp.TrainTarget)); err != nil {
			return err
		}
		if err := writeTable(testPath, withTarget(sp.Test, sp.TestTarget)); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Wrote %d train rows to %s and %d test rows to %s\n", sp.Train.NumRows(), trainPath, sp.Test.NumRows(), testPath)
		return nil
	},
}

// withTarget appends the separated target as the last column.
func withTarget(x *table.Table, y *table.Column) *table.Table {
	if y == nil {
		return x
	}
	cols := append(append([]*table.Column(nil), x.Columns...), y)
	return &table.Table{Columns: cols}
}

func init() {
	rootCmd.AddCommand(preprocessCmd)
	addInputFlags(preprocessCmd, &ppIn)
	addCleanFlags(preprocessCmd, &ppClean)
	preprocessCmd.Flags().StringVar(&ppEncoder, "encoder", "", "categorical encoder: onehot|target|ordinal (default from config)")
	preprocessCmd.Flags().StringVar(&ppScaler, "scaler", "", "numeric scaler: standard|minmax|robust (default from config)")
	preprocessCmd.Flags().StringVar(&ppTarget, "target", "", "target column for target encoding and --split")
	preprocessCmd.Flags().BoolVar(&ppNoEncode, "no-encode", false, "skip categorical encoding")
	preprocessCmd.Flags().BoolVar(&ppNoScale, "no-scale", false, "skip numeric scaling")
	preprocessCmd.Flags().BoolVar(&ppSplit, "split", false, "write <output>.train and <output>.test partitions")
	preprocessCmd.Flags().Float64Var(&ppTestSize, "test-size", preprocess.DefaultTestSize, "held-out fraction for --split")
	preprocessCmd.Flags().Int64Var(&ppSeed, "seed", preprocess.DefaultSeed, "shuffle seed for --split")
	preprocessCmd.Flags().StringVarP(&ppOutput, "output", "o", "", "write the result (.csv or .xlsx)")
	preprocessCmd.Flags().IntVar(&ppPreview, "preview", 10, "rows to preview (0 = none, -1 = all)")
}
