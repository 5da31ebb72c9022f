package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tidyqa-cli/internal/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set TidyQA configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *effectiveConfig()
		c.QA.APIKey = mask(c.QA.APIKey)
		b, err := yaml.Marshal(&c)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a dotted config key, for example:
  tidyqa config set cleaning.missing.strategy_numeric mean
  tidyqa config set preprocessing.scaler robust
  tidyqa config set qa.provider ollama`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			c, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		updated, err := setKey(cfg, args[0], args[1])
		if err != nil {
			return err
		}
		if err := updated.Validate(); err != nil {
			return err
		}
		if err := config.Save(updated, cfgFile); err != nil {
			return err
		}
		cfg = updated
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Path(cfgFile)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		}
		if err := config.Save(config.Default(), cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote default config to %s\n", path)
		return nil
	},
}

// setKey sets a dotted key on a copy of c. The value is read as a YAML
// scalar, so numbers and booleans keep their types.
func setKey(c *config.Global, key, val string) (*config.Global, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(b, &tree); err != nil {
		return nil, err
	}
	parts := strings.Split(key, ".")
	node := tree
	for _, p := range parts[:len(parts)-1] {
		next, ok := node[p].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unknown key: %s (known: %s)", key, strings.Join(knownKeys(tree, ""), ", "))
		}
		node = next
	}
	leaf := parts[len(parts)-1]
	old, ok := node[leaf]
	if !ok {
		return nil, fmt.Errorf("unknown key: %s (known: %s)", key, strings.Join(knownKeys(tree, ""), ", "))
	}
	if _, isMap := old.(map[string]any); isMap {
		return nil, fmt.Errorf("key %s is a section; set one of its fields", key)
	}
	var v any
	if err := yaml.Unmarshal([]byte(val), &v); err != nil || v == nil {
		v = val
	}
	if _, isString := old.(string); isString {
		v = val
	}
	node[leaf] = v

	b, err = yaml.Marshal(tree)
	if err != nil {
		return nil, err
	}
	var out config.Global
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return &out, nil
}

func knownKeys(tree map[string]any, prefix string) []string {
	var out []string
	for k, v := range tree {
		if sub, ok := v.(map[string]any); ok {
			out = append(out, knownKeys(sub, prefix+k+".")...)
			continue
		}
		out = append(out, prefix+k)
	}
	sort.Strings(out)
	return out
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
