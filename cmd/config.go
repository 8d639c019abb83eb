package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage gridhour configuration file values.",
	Long: `Create and display the gridhour configuration file.

The configuration stores application-wide values:
- database.path
- parse.timezone
- import.strict`,
	Example: `
  # Create default config in $HOME/.gridhour.yaml
  gridhour config create

  # Show active config and source file
  gridhour config show
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
