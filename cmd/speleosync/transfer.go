package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uploadProject string
var uploadFile string
var uploadMessage string
var uploadKeepLock bool

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a project archive",
	Long:  "Acquires the project lock, uploads the archive and releases the lock again unless --keep-lock is set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, project, err := engineAndProject(cmd.Context(), uploadProject)
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

		err = engine.UploadFile(cmd.Context(), project, uploadFile, uploadMessage)
		if err != nil {
			return err
		}

		if !uploadKeepLock {
			_, err = engine.ReleaseLock(cmd.Context(), project)
			if err != nil {
				return err
			}
		}

		fmt.Printf("uploaded %s to %s\n", uploadFile, project.ID)

		return nil
	},
}

var downloadProject string

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a project archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, project, err := engineAndProject(cmd.Context(), downloadProject)
		if err != nil {
			return err
		}

		path, err := engine.Download(cmd.Context(), project)
		if err != nil {
			return err
		}

		fmt.Println(path)

		return nil
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadProject, "project", "", "project id")
	uploadCmd.Flags().StringVar(&uploadFile, "file", "", "path to the archive to upload")
	uploadCmd.Flags().StringVar(&uploadMessage, "message", "", "upload message shown to collaborators")
	uploadCmd.Flags().BoolVar(&uploadKeepLock, "keep-lock", false, "keep holding the project lock after the upload")
	_ = uploadCmd.MarkFlagRequired("project")
	_ = uploadCmd.MarkFlagRequired("file")

	downloadCmd.Flags().StringVar(&downloadProject, "project", "", "project id")
	_ = downloadCmd.MarkFlagRequired("project")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
}
