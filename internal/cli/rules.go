package cli

import (
	"fmt"

	"github.com/ppiankov/mrsclass/internal/ruleset"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate rulesets",
	Long: `A ruleset holds the slot patterns, strong (structural) patterns, slot
hierarchy, the ordered MRS type table and the expectation matrix.
Without --rules the embedded default ruleset is used.`,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective ruleset as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if cfg.Rules.Path == "" {
			_, err := cmd.OutOrStdout().Write(ruleset.DefaultYAML())
			return err
		}

		rules, err := ruleset.Load(cfg.Rules.Path)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(rules.Document())
		if err != nil {
			return fmt.Errorf("marshal ruleset: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate ruleset files",
	Long:  `Load each ruleset and report every problem found. Exits non-zero if any file is invalid.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			rules, err := ruleset.Load(path)
			if err != nil {
				failed++
				fmt.Fprintf(out, "✗ %s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(out, "✓ %s: version %s, %d types, %d hierarchy edges\n",
				path, rules.Version, len(rules.Types), len(rules.Hierarchy))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d ruleset(s) invalid", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
}
