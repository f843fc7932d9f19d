package cmd

import (
	"github.com/spf13/cobra"

	"covid-report/core/manifest"
)

// manifestCmd prints the built-in dataset manifest
var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Print the built-in dataset manifest",
	Long: `Print the HCL manifest that names the JHU source files, their identity
columns and the columns dropped before reshaping.

Save it, edit it and pass it back with --manifest to point the report at
a mirror or at different files.

Examples:
  covid-report manifest > jhu.hcl
  covid-report report --manifest jhu.hcl`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cmd.OutOrStdout().Write(manifest.DefaultSource())
		return err
	},
}
