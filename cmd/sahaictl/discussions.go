package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	discussionsCmd := &cobra.Command{Use: "discussions", Short: "Forum moderation"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all discussions",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := checkStatus(client().R().Get("/v0/discussions"))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(body))
			return nil
		},
	}
	discussionsCmd.AddCommand(listCmd)

	getCmd := &cobra.Command{
		Use:   "get DISCUSSION_ID",
		Short: "Get one discussion with comments and likes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := checkStatus(client().R().Get("/v0/discussions/" + args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(body))
			return nil
		},
	}
	discussionsCmd.AddCommand(getCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete DISCUSSION_ID",
		Short: "Delete a discussion (admin or author)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := checkStatus(client().R().Delete("/v0/discussions/" + args[0]))
			return err
		},
	}
	discussionsCmd.AddCommand(deleteCmd)

	deleteCommentCmd := &cobra.Command{
		Use:   "delete-comment DISCUSSION_ID COMMENT_ID",
		Short: "Delete a comment (admin or author)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := checkStatus(client().R().Delete(fmt.Sprintf("/v0/discussions/%s/comments/%s", args[0], args[1])))
			return err
		},
	}
	discussionsCmd.AddCommand(deleteCommentCmd)

	rootCmd.AddCommand(discussionsCmd)
}
