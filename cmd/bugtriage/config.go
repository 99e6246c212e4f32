package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/bugtriage/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify bugtriage configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/bugtriage/config.yaml
Project-specific overrides can be placed in .bugtriage.yaml
Environment variables override both: BUGTRIAGE_<SECTION>_<KEY>,
e.g. BUGTRIAGE_CLASSIFIER_URL. A .env file in the working directory
is loaded first.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		vals := cfg.Values()

		switch len(args) {
		case 0:
			for _, k := range config.Keys() {
				fmt.Fprintf(out, "%s: %s\n", k, vals[k])
			}
			fmt.Fprintf(out, "\nuser config:    %s\n", config.GetUserConfigPath())
			if p := config.GetProjectConfigPath(); p != "" {
				fmt.Fprintf(out, "project config: %s\n", p)
			}
			return nil
		case 1:
			if !config.IsKey(args[0]) {
				return fmt.Errorf("unknown config key %q", args[0])
			}
			fmt.Fprintln(out, vals[args[0]])
			return nil
		default:
			if err := config.Set(args[0], args[1]); err != nil {
				return err
			}
			shown := args[1]
			if config.SecretKey(args[0]) {
				shown = config.MaskAPIKey(shown)
			}
			fmt.Fprintf(out, "Set %s = %s in %s\n", args[0], shown, config.GetUserConfigPath())
			return nil
		}
	},
}
