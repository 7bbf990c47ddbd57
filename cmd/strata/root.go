package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "strata",
	Short: "Strata CLI tool runs multigrid solves of built-in model " +
		"problems.",
	Long: `Strata CLI tool runs multigrid solves of built-in model problems. ` +
		`It records convergence histories and cycle traces into a database, ` +
		`renders residual plots, and can serve a live monitor while the ` +
		`solve runs.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	loadDotEnv()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadDotEnv loads a .env file from the working directory when one is
// present, so that recurring settings such as ClickHouse credentials do
// not have to be repeated on the command line.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}

	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot load .env: %v\n", err)
	}
}
