package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/tidyqa-cli/internal/ingest"
)

const peopleCSV = `Age,Income,Home Region,Joined
30,100,n,2021-01-05
40,500,s,2021-02-10
50,,n,2021-03-15
30,100,n,2021-01-05
,300, s ,2021-04-20
`

// resetFlags restores every flag to its default so runs do not leak state.
func resetFlags(c *cobra.Command) {
	for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
		fs.VisitAll(func(fl *pflag.Flag) {
			if sv, ok := fl.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = fl.Value.Set(fl.DefValue)
			}
			fl.Changed = false
		})
	}
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func setup(t *testing.T) (home, data string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	data = filepath.Join(home, "people.csv")
	if err := os.WriteFile(data, []byte(peopleCSV), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	return home, data
}

func TestCLI_CleanWritesOutput(t *testing.T) {
	home, data := setup(t)
	dest := filepath.Join(home, "out", "clean.csv")

	out := mustRun(t, "clean", data, "-o", dest, "--preview", "0")
	if !strings.Contains(out, "Cleaned: 4 rows x 4 columns") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(b), "age,income,home_region,joined\n") {
		t.Fatalf("unexpected header: %q", strings.SplitN(string(b), "\n", 2)[0])
	}
	back, err := ingest.ReadAny(b, "clean.csv")
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	for _, c := range back.Columns {
		if c.NullCount() != 0 {
			t.Fatalf("column %s still has missing values", c.Name)
		}
	}
}

func TestCLI_CleanFlagsOverrideConfig(t *testing.T) {
	_, data := setup(t)
	out := mustRun(t, "clean", data, "--no-dedupe", "--no-standardize-names", "--numeric", "zero", "--preview", "-1")
	if !strings.Contains(out, "Cleaned: 5 rows x 4 columns") {
		t.Fatalf("dedupe should be off:\n%s", out)
	}
	if !strings.Contains(out, "Home Region") {
		t.Fatalf("names should be kept:\n%s", out)
	}

	if _, err := runCmd(t, "clean", data, "--numeric", "mode"); err == nil {
		t.Fatalf("expected invalid strategy error")
	}
}

func TestCLI_AskAndIntent(t *testing.T) {
	_, data := setup(t)

	out := mustRun(t, "ask", data, "average", "of", "income", "by", "home_region")
	if !strings.Contains(out, "GROUP BY 1 ORDER BY 2 DESC") || !strings.Contains(out, "group_by") {
		t.Fatalf("unexpected ask output:\n%s", out)
	}
	out = mustRun(t, "ask", data, "distribution of age")
	if !strings.Contains(out, "age") {
		t.Fatalf("unexpected chart output:\n%s", out)
	}
	out = mustRun(t, "ask", data, "what is this")
	if !strings.Contains(out, "Could not understand the question") {
		t.Fatalf("expected help text:\n%s", out)
	}
	if _, err := runCmd(t, "ask", data, "distribution of salary"); err == nil {
		t.Fatalf("expected unknown column error")
	}

	out = mustRun(t, "intent", "--format", "yaml", "Distribution of Age")
	if !strings.Contains(out, "type: distribution") || !strings.Contains(out, "column: age") {
		t.Fatalf("unexpected intent output:\n%s", out)
	}
	out = mustRun(t, "intent", "relationship between a and b")
	if !strings.Contains(out, `"type": "relationship"`) {
		t.Fatalf("unexpected intent json:\n%s", out)
	}
}

func TestCLI_Query(t *testing.T) {
	_, data := setup(t)
	out := mustRun(t, "query", data, "--format", "csv", "SELECT COUNT(*) AS n FROM t")
	if out != "n\n4\n" {
		t.Fatalf("unexpected query output %q", out)
	}
	if _, err := runCmd(t, "query", data, "SELECT nope FROM t"); err == nil || !strings.Contains(err.Error(), "no such column") {
		t.Fatalf("expected engine error, got %v", err)
	}
}

func TestCLI_PreprocessSplit(t *testing.T) {
	home, data := setup(t)
	dest := filepath.Join(home, "prep.csv")
	out := mustRun(t, "preprocess", data, "--scaler", "minmax", "--split", "--test-size", "0.25", "-o", dest, "--preview", "0")
	if !strings.Contains(out, "Encoded (onehot): [home_region]") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	for path, rows := range map[string]int{
		filepath.Join(home, "prep.train.csv"): 3,
		filepath.Join(home, "prep.test.csv"):  1,
	} {
		tb, err := ingest.ReadFile(path, ingest.DefaultOptions())
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if tb.NumRows() != rows {
			t.Fatalf("%s: got %d rows, want %d", path, tb.NumRows(), rows)
		}
	}

	if _, err := runCmd(t, "preprocess", data, "--split"); err == nil {
		t.Fatalf("--split without --output should fail")
	}
}

func TestCLI_DescribeBatch(t *testing.T) {
	home, data := setup(t)
	other := filepath.Join(home, "d2", "people.csv")
	if err := os.MkdirAll(filepath.Dir(other), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(other, []byte(peopleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, "describe", data)
	if !strings.Contains(out, "# Dataset summary: people.csv") {
		t.Fatalf("unexpected report:\n%s", out)
	}

	dir := filepath.Join(home, "reports")
	mustRun(t, "describe", data, other, "-o", dir, "--quiet")
	for _, name := range []string{"people.summary.md", "people__2.summary.md"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}

func TestCLI_Config(t *testing.T) {
	home, _ := setup(t)
	mustRun(t, "config", "init")
	if _, err := os.Stat(filepath.Join(home, ".tidyqa", "config.yaml")); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := runCmd(t, "config", "init"); err == nil {
		t.Fatalf("second init without --force should fail")
	}

	mustRun(t, "config", "set", "cleaning.missing.strategy_numeric", "mean")
	mustRun(t, "config", "set", "query.max_rows", "25")
	mustRun(t, "config", "set", "qa.api_key", "sk-secret-123")
	out := mustRun(t, "config", "show")
	for _, want := range []string{"strategy_numeric: mean", "max_rows: 25", "api_key: sk-****123"} {
		if !strings.Contains(out, want) {
			t.Fatalf("config show missing %q:\n%s", want, out)
		}
	}

	if _, err := runCmd(t, "config", "set", "preprocessing.scaler", "maxabs"); err == nil {
		t.Fatalf("expected invalid scaler error")
	}
	if _, err := runCmd(t, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}
