package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/qtc/internal/thermo"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Print the group-additivity definitions written as new.groups",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			fmt.Print(thermo.GroupDefinitions())
			return nil
		}
		if err := os.WriteFile(out, []byte(thermo.GroupDefinitions()), 0o644); err != nil {
			return eris.Wrapf(err, "write %s", out)
		}
		return nil
	},
}

func init() {
	groupsCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	rootCmd.AddCommand(groupsCmd)
}
