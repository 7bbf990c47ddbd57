package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped by the release build; plain builds report "dev".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of the strata tool",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("strata " + version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
