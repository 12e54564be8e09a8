package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/MeasureLink/internal/engine/pattern"
)

func newRulesCmd(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect dependency pattern rule documents",
	}

	validateCmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a pattern rule document",
		Long: "Loads the given pattern rule document (or the one named by the\n" +
			"configuration when omitted) and reports what it defines.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := loadConfig(root)
				if err != nil {
					return err
				}
				path = cfg.Patterns.Path
			}

			rules, err := pattern.Load(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %s defines %d relation rules and %d operator words\n",
				path, len(rules.Labels()), len(rules.Operators()))
			return nil
		},
	}

	cmd.AddCommand(validateCmd)
	return cmd
}
