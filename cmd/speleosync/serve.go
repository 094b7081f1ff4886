package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/karstforge/speleosync/internal/config"
	"github.com/karstforge/speleosync/internal/server"
	"github.com/karstforge/speleosync/internal/setup"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := setup.Backend(config.C)
		if err != nil {
			return err
		}

		server.Serve(backend, config.C.Server)
		waitForExit()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func waitForExit() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
