package main

import (
	"os"

	"github.com/spf13/cobra"
)

type rootCmdConfig struct {
	verbose bool
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "grove",
		Short: "grove is a tool to perform regression on tabular data",
		Long:  `A tool to train decision-tree and random-forest regression models from your data, tune and test them, and use them to make predictions`,
	}
	config := &rootCmdConfig{}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "")
	rootCmd.AddCommand(versionCmd(), splitCmd(config), trainCmd(config), tuneCmd(config), testCmd(config), predictCmd(config))
	return rootCmd
}
