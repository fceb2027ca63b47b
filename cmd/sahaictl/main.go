// sahaictl is an admin CLI for the Krishi SahAI REST API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag string
	keyFlag string
	rootCmd = &cobra.Command{
		Use:   "sahaictl",
		Short: "CLI client for the Krishi SahAI REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Service base URL")
	rootCmd.PersistentFlags().StringVarP(&keyFlag, "key", "k", os.Getenv("SAHAI_API_KEY"), "API key (defaults to SAHAI_API_KEY)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
