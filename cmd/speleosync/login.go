package main

import (
	"fmt"

	"github.com/karstforge/speleosync/client"
	"github.com/spf13/cobra"
)

var loginEmail string
var loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and print the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := newEngine()

		session, err := engine.Authenticate(cmd.Context(), client.Credentials{
			Email:    loginEmail,
			Password: loginPassword,
		}, instanceHost())
		if err != nil {
			return err
		}

		fmt.Println(session.Token)

		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(loginCmd)
}
