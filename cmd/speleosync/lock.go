package main

import (
	"context"
	"fmt"

	"github.com/karstforge/speleosync/api"
	"github.com/karstforge/speleosync/client"
	"github.com/spf13/cobra"
)

var lockProject string

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Acquire or refresh the project lock",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, project, err := engineAndProject(cmd.Context(), lockProject)
		if err != nil {
			return err
		}

		held, err := engine.AcquireLock(cmd.Context(), project)
		if err != nil {
			return err
		}
		if !held {
			return fmt.Errorf("project %s is locked by another user", project.ID)
		}

		lock, _ := engine.HeldLock(project.ID)
		fmt.Printf("locked %s until %s\n", project.ID, lock.LeaseExpiresAt.Format("15:04:05"))

		return nil
	},
}

var releaseProject string

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release the project lock",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, project, err := engineAndProject(cmd.Context(), releaseProject)
		if err != nil {
			return err
		}

		released, err := engine.ReleaseLock(cmd.Context(), project)
		if err != nil {
			return err
		}
		if !released {
			return fmt.Errorf("project %s is not locked by you", project.ID)
		}

		fmt.Printf("released %s\n", project.ID)

		return nil
	},
}

// engineAndProject resolves the project id against the remote catalog so
// commands fail early on unknown projects.
func engineAndProject(ctx context.Context, projectID string) (*client.Client, api.Project, error) {
	engine, err := authenticatedEngine(ctx)
	if err != nil {
		return nil, api.Project{}, err
	}

	projects, err := engine.Projects(ctx)
	if err != nil {
		return nil, api.Project{}, err
	}

	for _, project := range projects {
		if project.ID == projectID {
			return engine, project, nil
		}
	}

	return nil, api.Project{}, fmt.Errorf("project %s not found on %s", projectID, instanceHost())
}

func init() {
	lockCmd.Flags().StringVar(&lockProject, "project", "", "project id")
	_ = lockCmd.MarkFlagRequired("project")

	releaseCmd.Flags().StringVar(&releaseProject, "project", "", "project id")
	_ = releaseCmd.MarkFlagRequired("project")

	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(releaseCmd)
}
