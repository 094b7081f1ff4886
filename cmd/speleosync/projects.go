package main

import (
	"fmt"

	"github.com/karstforge/speleosync/api"
	"github.com/karstforge/speleosync/internal/utils/pointer"
	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Work with remote projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the projects visible to the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := authenticatedEngine(cmd.Context())
		if err != nil {
			return err
		}

		projects, err := engine.Projects(cmd.Context())
		if err != nil {
			return err
		}

		for _, project := range projects {
			fmt.Printf("%s\t%s\t%s\t(modified %s)\n", project.ID, project.Name, project.CountryCode, project.ModifiedDate.Format("2006-01-02 15:04"))
			if project.Latitude != nil || project.Longitude != nil {
				fmt.Printf("\tentrance %.5f, %.5f\n", pointer.DerefOrZero(project.Latitude), pointer.DerefOrZero(project.Longitude))
			}
		}

		return nil
	},
}

var createName string
var createDescription string
var createCountry string
var createLatitude float64
var createLongitude float64

var projectsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a remote project",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := authenticatedEngine(cmd.Context())
		if err != nil {
			return err
		}

		request := api.CreateProjectRequest{
			Name:        createName,
			Description: createDescription,
			CountryCode: createCountry,
		}
		if cmd.Flags().Changed("latitude") {
			request.Latitude = pointer.To(createLatitude)
		}
		if cmd.Flags().Changed("longitude") {
			request.Longitude = pointer.To(createLongitude)
		}

		project, err := engine.CreateProject(cmd.Context(), request)
		if err != nil {
			return err
		}

		fmt.Println(project.ID)

		return nil
	},
}

func init() {
	projectsCreateCmd.Flags().StringVar(&createName, "name", "", "project name")
	projectsCreateCmd.Flags().StringVar(&createDescription, "description", "", "project description")
	projectsCreateCmd.Flags().StringVar(&createCountry, "country", "", "ISO 3166-1 alpha-2 country code")
	projectsCreateCmd.Flags().Float64Var(&createLatitude, "latitude", 0, "entrance latitude in decimal degrees")
	projectsCreateCmd.Flags().Float64Var(&createLongitude, "longitude", 0, "entrance longitude in decimal degrees")
	_ = projectsCreateCmd.MarkFlagRequired("name")
	_ = projectsCreateCmd.MarkFlagRequired("country")

	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsCreateCmd)
	rootCmd.AddCommand(projectsCmd)
}
