package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	usersCmd := &cobra.Command{Use: "users", Short: "Account operations"}

	var name, email, location string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || email == "" {
				return fmt.Errorf("--name and --email required")
			}
			body, err := checkStatus(client().R().
				SetBody(map[string]string{"name": name, "email": email, "location": location}).
				Post("/v0/users"))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(body))
			return nil
		},
	}
	createCmd.Flags().StringVarP(&name, "name", "n", "", "Display name (required)")
	createCmd.Flags().StringVarP(&email, "email", "e", "", "Email (required)")
	createCmd.Flags().StringVarP(&location, "location", "l", "", "Home location, e.g. 'Kochi, Kerala'")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("email")
	usersCmd.AddCommand(createCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := checkStatus(client().R().Get("/v0/users"))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(body))
			return nil
		},
	}
	usersCmd.AddCommand(listCmd)

	getCmd := &cobra.Command{
		Use:   "get USER_ID",
		Short: "Get account by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := checkStatus(client().R().Get("/v0/users/" + args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(body))
			return nil
		},
	}
	usersCmd.AddCommand(getCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete USER_ID",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := checkStatus(client().R().Delete("/v0/users/" + args[0]))
			return err
		},
	}
	usersCmd.AddCommand(deleteCmd)

	rootCmd.AddCommand(usersCmd)
}
