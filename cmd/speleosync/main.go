package main

import (
	"fmt"
	"os"

	"github.com/karstforge/speleosync/internal/config"
	"github.com/karstforge/speleosync/internal/logging"
	"github.com/spf13/cobra"
)

var configFilePath string
var production bool

var rootCmd = &cobra.Command{
	Use:   "speleosync",
	Short: "Synchronize cave survey projects with a collaborative backend",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(production)
		config.Init(configFilePath, production)
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configFilePath, "config", "", "path to a yaml config file")
	rootCmd.PersistentFlags().BoolVar(&production, "production", false, "run with production logging and stricter defaults")

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
